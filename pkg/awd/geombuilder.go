package awd

import (
	stdmath "math"

	"github.com/Faultbox/awdkit/pkg/awd/property"
	"github.com/Faultbox/awdkit/pkg/math"
)

// GeomBuilder welds expanded triangle data, one entry per triangle corner,
// into an indexed sub-geometry. Exporters that walk faces feed it corner by
// corner and let Build share the vertices.
type GeomBuilder struct {
	corners []corner
}

type corner struct {
	pos    math.Vec3
	uv     math.Vec2
	normal math.Vec3
	hard   bool
}

// weldKey is what two corners must share exactly to become one vertex.
// Normals are compared separately since they may match within a threshold.
type weldKey struct {
	pos math.Vec3
	uv  math.Vec2
}

type weldedVertex struct {
	corner
	// distinct normals merged into this vertex, its own first
	influences []math.Vec3
}

// NewGeomBuilder returns an empty builder.
func NewGeomBuilder() *GeomBuilder {
	return &GeomBuilder{}
}

// AppendVertex adds one triangle corner; every three calls form a triangle.
// A corner with forceHard set is never welded to another corner.
func (b *GeomBuilder) AppendVertex(pos math.Vec3, uv math.Vec2, normal math.Vec3, forceHard bool) {
	b.corners = append(b.corners, corner{pos: pos, uv: uv, normal: normal, hard: forceHard})
}

// AppendFace adds the triangle p[0], p[1], p[2] with its face normal as
// the normal of all three corners.
func (b *GeomBuilder) AppendFace(p [3]math.Vec3, uv [3]math.Vec2, forceHard bool) {
	n := FaceNormal(p[0], p[1], p[2])
	for i := range p {
		b.AppendVertex(p[i], uv[i], n, forceHard)
	}
}

// Len returns the number of corners appended so far.
func (b *GeomBuilder) Len() int {
	return len(b.corners)
}

// FaceNormal returns the unit normal of the counter-clockwise triangle
// p0, p1, p2, or the zero vector for a degenerate triangle.
func FaceNormal(p0, p1, p2 math.Vec3) math.Vec3 {
	return p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()
}

// Build welds corners with equal position and uv whose normals match. With
// a threshold of zero normals must be equal. A positive threshold welds
// normals up to that many radians apart, and each vertex normal becomes the
// normalized average of the distinct normals it absorbed.
//
// The sub-geometry carries vertices, triangles, normals and uvs streams.
// Build does not consume the builder.
func (b *GeomBuilder) Build(threshold float64) *SubGeometry {
	var verts []*weldedVertex
	buckets := make(map[weldKey][]int)
	indices := make([]float64, 0, len(b.corners))

	for _, c := range b.corners {
		idx := -1
		if !c.hard {
			key := weldKey{pos: c.pos, uv: c.uv}
			for _, i := range buckets[key] {
				if verts[i].absorb(c.normal, threshold) {
					idx = i
					break
				}
			}
			if idx < 0 {
				buckets[key] = append(buckets[key], len(verts))
			}
		}
		if idx < 0 {
			idx = len(verts)
			verts = append(verts, &weldedVertex{corner: c, influences: []math.Vec3{c.normal}})
		}
		indices = append(indices, float64(idx))
	}

	positions := make([]float64, 0, 3*len(verts))
	normals := make([]float64, 0, 3*len(verts))
	uvs := make([]float64, 0, 2*len(verts))
	for _, v := range verts {
		n := v.normal
		if threshold > 0 {
			n = averageNormal(v.influences)
		}
		positions = append(positions, v.pos.X, v.pos.Y, v.pos.Z)
		normals = append(normals, n.X, n.Y, n.Z)
		uvs = append(uvs, v.uv.X, v.uv.Y)
	}

	return &SubGeometry{Streams: []Stream{
		{Kind: StreamVertices, Format: property.Float32, Values: roundFloat32(positions)},
		{Kind: StreamTriangles, Format: property.Uint32, Values: indices},
		{Kind: StreamNormals, Format: property.Float32, Values: roundFloat32(normals)},
		{Kind: StreamUVs, Format: property.Float32, Values: roundFloat32(uvs)},
	}}
}

// BuildGeometry wraps Build into a single sub-geometry mesh.
func (b *GeomBuilder) BuildGeometry(name string, threshold float64) *MeshGeometry {
	return &MeshGeometry{Name: name, SubGeometries: []*SubGeometry{b.Build(threshold)}}
}

// absorb reports whether a corner with normal n may share v, recording n
// as an influence when it does.
func (v *weldedVertex) absorb(n math.Vec3, threshold float64) bool {
	if threshold <= 0 {
		return n == v.normal
	}
	if n != v.normal && !withinAngle(v.normal, n, threshold) {
		return false
	}
	for _, inf := range v.influences {
		if inf == n {
			return true
		}
	}
	v.influences = append(v.influences, n)
	return true
}

func withinAngle(a, b math.Vec3, threshold float64) bool {
	l := a.Length() * b.Length()
	if l == 0 {
		return false
	}
	cos := max(-1, min(1, a.Dot(b)/l))
	return stdmath.Acos(cos) <= threshold
}

func averageNormal(normals []math.Vec3) math.Vec3 {
	var sum math.Vec3
	for _, n := range normals {
		sum = sum.Add(n)
	}
	return sum.Scale(1 / float64(len(normals))).Normalize()
}
