package awd

import (
	"fmt"

	"github.com/Faultbox/awdkit/internal/binrw"
	"github.com/Faultbox/awdkit/pkg/awd/property"
	"github.com/Faultbox/awdkit/pkg/math"
)

// StreamKind identifies the data held by a geometry stream.
type StreamKind uint8

const (
	StreamVertices     StreamKind = 1
	StreamTriangles    StreamKind = 2
	StreamUVs          StreamKind = 3
	StreamNormals      StreamKind = 4
	StreamTangents     StreamKind = 5
	StreamJointIndices StreamKind = 6
	StreamJointWeights StreamKind = 7
)

func (k StreamKind) String() string {
	switch k {
	case StreamVertices:
		return "vertices"
	case StreamTriangles:
		return "triangles"
	case StreamUVs:
		return "uvs"
	case StreamNormals:
		return "normals"
	case StreamTangents:
		return "tangents"
	case StreamJointIndices:
		return "joint_indices"
	case StreamJointWeights:
		return "joint_weights"
	default:
		return fmt.Sprintf("stream(%d)", uint8(k))
	}
}

// Stream is one typed data array of a sub-geometry. Values are widened to
// float64 regardless of Format, which selects the on-disk element type.
type Stream struct {
	Kind   StreamKind
	Format property.Type
	Values []float64
}

// SubGeometry is one draw batch of a mesh geometry.
type SubGeometry struct {
	Streams    []Stream
	Properties property.Table
}

// Stream returns the first stream of the given kind.
func (s *SubGeometry) Stream(kind StreamKind) (*Stream, bool) {
	for i := range s.Streams {
		if s.Streams[i].Kind == kind {
			return &s.Streams[i], true
		}
	}
	return nil, false
}

// Indices returns the triangle index stream as integers.
func (s *SubGeometry) Indices() []uint32 {
	tris, ok := s.Stream(StreamTriangles)
	if !ok {
		return nil
	}
	out := make([]uint32, len(tris.Values))
	for i, v := range tris.Values {
		out[i] = uint32(v)
	}
	return out
}

// MeshGeometry is shared vertex data referenced by mesh instances.
type MeshGeometry struct {
	blockMeta

	Name          string
	SubGeometries []*SubGeometry
	Properties    property.Table
}

// NewTriGeometry builds a single sub-geometry mesh from xyz positions,
// triangle indices and optional uv pairs. Positions and uvs are stored as
// float32; values are rounded accordingly so the geometry round-trips.
func NewTriGeometry(name string, positions []float64, indices []uint32, uvs []float64) *MeshGeometry {
	sub := &SubGeometry{}
	sub.Streams = append(sub.Streams, Stream{Kind: StreamVertices, Format: property.Float32, Values: roundFloat32(positions)})

	tris := make([]float64, len(indices))
	for i, v := range indices {
		tris[i] = float64(v)
	}
	sub.Streams = append(sub.Streams, Stream{Kind: StreamTriangles, Format: property.Uint32, Values: tris})

	if len(uvs) > 0 {
		sub.Streams = append(sub.Streams, Stream{Kind: StreamUVs, Format: property.Float32, Values: roundFloat32(uvs)})
	}
	return &MeshGeometry{Name: name, SubGeometries: []*SubGeometry{sub}}
}

func (g *MeshGeometry) Kind() BlockKind   { return KindMeshGeometry }
func (g *MeshGeometry) BlockName() string { return g.Name }

func (g *MeshGeometry) resolve(*resolver) {}

// VertexCount returns the number of xyz positions across sub-geometries.
func (g *MeshGeometry) VertexCount() int {
	n := 0
	for _, sub := range g.SubGeometries {
		if s, ok := sub.Stream(StreamVertices); ok {
			n += len(s.Values) / 3
		}
	}
	return n
}

// TriangleCount returns the number of triangles across sub-geometries.
func (g *MeshGeometry) TriangleCount() int {
	n := 0
	for _, sub := range g.SubGeometries {
		if s, ok := sub.Stream(StreamTriangles); ok {
			n += len(s.Values) / 3
		}
	}
	return n
}

// Bounds returns the axis-aligned box around all vertices in model space.
func (g *MeshGeometry) Bounds() (lo, hi math.Vec3, ok bool) {
	var box bounds
	g.eachPosition(box.add)
	return box.min, box.max, box.ok
}

func (g *MeshGeometry) eachPosition(fn func(math.Vec3)) {
	for _, sub := range g.SubGeometries {
		s, ok := sub.Stream(StreamVertices)
		if !ok {
			continue
		}
		for i := 0; i+2 < len(s.Values); i += 3 {
			fn(math.Vec3{X: s.Values[i], Y: s.Values[i+1], Z: s.Values[i+2]})
		}
	}
}

type bounds struct {
	min, max math.Vec3
	ok       bool
}

func (b *bounds) add(p math.Vec3) {
	if !b.ok {
		b.min, b.max, b.ok = p, p, true
		return
	}
	b.min = math.Vec3{X: min(b.min.X, p.X), Y: min(b.min.Y, p.Y), Z: min(b.min.Z, p.Z)}
	b.max = math.Vec3{X: max(b.max.X, p.X), Y: max(b.max.Y, p.Y), Z: max(b.max.Z, p.Z)}
}

func (b *bounds) union(o bounds) {
	if o.ok {
		b.add(o.min)
		b.add(o.max)
	}
}

func roundFloat32(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(float32(v))
	}
	return out
}

// geometryCodec handles mesh geometry (1): name, sub-geometry count,
// geometry properties, then per sub-geometry a u32 stream section length,
// its properties and its streams.
type geometryCodec struct{}

func (geometryCodec) Kind() BlockKind { return KindMeshGeometry }

func (geometryCodec) Decode(body *binrw.Reader, ctx *DecodeContext) (Block, error) {
	g := &MeshGeometry{}
	var err error
	if g.Name, err = ctx.ReadText(body, "name"); err != nil {
		return nil, err
	}
	count, err := body.ReadU16()
	if err != nil {
		return nil, err
	}
	if g.Properties, err = ctx.ReadProperties(body, "geometry "+g.Name); err != nil {
		return nil, err
	}

	for i := 0; i < int(count); i++ {
		what := fmt.Sprintf("geometry %s sub %d", g.Name, i)
		length, err := body.ReadU32()
		if err != nil {
			return nil, err
		}
		subReader, err := body.Sub(int(length))
		if err != nil {
			return nil, err
		}
		sub := &SubGeometry{}
		if sub.Properties, err = ctx.ReadProperties(subReader, what); err != nil {
			return nil, err
		}
		for subReader.Len() > 0 {
			s, err := decodeStream(subReader)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", what, err)
			}
			sub.Streams = append(sub.Streams, s)
		}
		g.SubGeometries = append(g.SubGeometries, sub)
	}

	// Geometry bodies end after the last sub-geometry.
	if body.Len() != 0 {
		return nil, &binrw.PositionError{
			Offset: body.Offset(),
			Err:    fmt.Errorf("%w: %d trailing bytes after geometry", ErrMalformedBlock, body.Len()),
		}
	}
	return g, nil
}

func decodeStream(r *binrw.Reader) (Stream, error) {
	start := r.Offset()
	kind, err := r.ReadU8()
	if err != nil {
		return Stream{}, err
	}
	format, err := r.ReadU8()
	if err != nil {
		return Stream{}, err
	}
	length, err := r.ReadU32()
	if err != nil {
		return Stream{}, err
	}
	elem := property.Type(format)
	size, ok := elem.Size()
	if !ok || !elem.Numeric() || length%uint32(size) != 0 {
		return Stream{}, &binrw.PositionError{
			Offset: start,
			Err:    fmt.Errorf("%w: stream %s with format %s and %d bytes", ErrMalformedBlock, StreamKind(kind), elem, length),
		}
	}
	values, err := property.ReadNumbers(r, elem, int(length)/size)
	if err != nil {
		return Stream{}, err
	}
	return Stream{Kind: StreamKind(kind), Format: elem, Values: values}, nil
}

func (geometryCodec) Encode(b Block, ctx *EncodeContext) ([]byte, error) {
	g, ok := b.(*MeshGeometry)
	if !ok {
		return nil, fmt.Errorf("%w: geometry codec given %s", ErrMalformedBlock, b.Kind())
	}
	w := binrw.NewWriter()
	if err := ctx.WriteText(w, g.Name, "name"); err != nil {
		return nil, err
	}
	if len(g.SubGeometries) > 0xFFFF {
		return nil, fmt.Errorf("%w: %d sub-geometries", ErrMalformedBlock, len(g.SubGeometries))
	}
	w.U16(uint16(len(g.SubGeometries)))
	if err := ctx.WriteProperties(w, g.Properties, "geometry "+g.Name); err != nil {
		return nil, err
	}

	for i, sub := range g.SubGeometries {
		what := fmt.Sprintf("geometry %s sub %d", g.Name, i)
		if sub == nil {
			return nil, fmt.Errorf("%w: %s is nil", ErrMalformedBlock, what)
		}
		sw := binrw.NewWriter()
		if err := ctx.WriteProperties(sw, sub.Properties, what); err != nil {
			return nil, err
		}
		for _, s := range sub.Streams {
			if err := encodeStream(sw, s); err != nil {
				return nil, fmt.Errorf("%s: %w", what, err)
			}
		}
		w.U32(uint32(sw.Len()))
		w.Write(sw.Bytes())
	}
	return w.Bytes(), nil
}

func encodeStream(w *binrw.Writer, s Stream) error {
	size, ok := s.Format.Size()
	if !ok || !s.Format.Numeric() {
		return fmt.Errorf("%w: stream %s has non-numeric format %s", ErrMalformedBlock, s.Kind, s.Format)
	}
	w.U8(uint8(s.Kind))
	w.U8(uint8(s.Format))
	w.U32(uint32(size * len(s.Values)))
	if err := property.WriteNumbers(w, s.Format, s.Values); err != nil {
		return fmt.Errorf("stream %s: %w", s.Kind, err)
	}
	return nil
}
