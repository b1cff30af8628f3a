package awd

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/Faultbox/awdkit/internal/binrw"
	"github.com/Faultbox/awdkit/pkg/awd/property"
	"github.com/Faultbox/awdkit/pkg/math"
)

// rawBlock is a hand-built block record.
type rawBlock struct {
	typeID uint8
	flags  uint8
	body   []byte
}

// rawDocument builds an uncompressed version 2.1 document with narrow
// indices and a consistent block index.
func rawDocument(blocks ...rawBlock) []byte {
	w := binrw.NewWriter()
	w.Write([]byte(Magic))
	w.U8(2)
	w.U8(1)
	w.U8(0)
	w.U32(uint32(len(blocks)))
	var offset uint32
	for _, b := range blocks {
		w.U32(offset)
		w.U32(uint32(6 + len(b.body)))
		offset += uint32(6 + len(b.body))
	}
	for _, b := range blocks {
		w.U8(b.typeID)
		w.U8(b.flags)
		w.U32(uint32(len(b.body)))
		w.Write(b.body)
	}
	return w.Bytes()
}

func writeIdentity32(w *binrw.Writer) {
	id := math.Identity()
	for _, v := range id {
		w.F32(float32(v))
	}
}

// containerBody encodes a container with a float32 identity transform and
// an empty property table.
func containerBody(parent uint16, name string) []byte {
	w := binrw.NewWriter()
	w.U16(parent)
	writeIdentity32(w)
	_ = w.String16(name)
	w.U32(0)
	return w.Bytes()
}

func meshInstanceBody(parent, geometry uint16, name string, materials ...uint16) []byte {
	w := binrw.NewWriter()
	w.U16(parent)
	writeIdentity32(w)
	_ = w.String16(name)
	w.U16(geometry)
	w.U16(uint16(len(materials)))
	for _, m := range materials {
		w.U16(m)
	}
	w.U32(0)
	return w.Bytes()
}

func container(parent uint16, name string) rawBlock {
	return rawBlock{typeID: TypeContainer, body: containerBody(parent, name)}
}

// sampleScene holds the blocks of sampleDocument for assertions.
type sampleScene struct {
	doc      *Document
	root     *SceneNode
	wall     *SceneNode
	marker   *SceneNode
	geometry *MeshGeometry
	brick    *Material
	red      *Material
	external *Texture
	embedded *Texture
	rig      *Skeleton
}

func sampleDocument(t *testing.T) *sampleScene {
	t.Helper()
	s := &sampleScene{}
	s.external = NewExternalTexture("brick_diffuse", "textures/brick.png")
	s.embedded = NewEmbeddedTexture("brick_light", []byte{0x89, 'P', 'N', 'G', 0, 1, 2})
	s.brick = NewTextureMaterial("brick", s.external, s.embedded)
	if err := s.brick.Properties.Set(PropSmooth, true); err != nil {
		t.Fatal(err)
	}
	s.red = NewColorMaterial("red", property.RGBA(255, 0, 0, 255))
	s.geometry = NewTriGeometry("quad",
		[]float64{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0},
		[]uint32{0, 1, 2, 0, 2, 3},
		[]float64{0, 0, 1, 0, 1, 1, 0, 1})

	s.root = NewContainer("root")
	if err := s.root.Properties.Set(1, "level one"); err != nil {
		t.Fatal(err)
	}
	s.wall = NewMeshInstance("wall", s.geometry, s.brick)
	s.wall.Transform = math.Translate(1, 2, 3)
	s.marker = NewMeshInstance("marker", s.geometry, s.red)
	s.marker.Transform = math.Scale(0.5, 0.5, 0.5)
	if err := s.root.AddChild(s.wall); err != nil {
		t.Fatal(err)
	}
	if err := s.wall.AddChild(s.marker); err != nil {
		t.Fatal(err)
	}

	s.rig = NewSkeleton("rig")
	if _, err := s.rig.AddJoint("hip", 0, math.Identity()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.rig.AddJoint("knee", 1, math.Translate(0, -1, 0)); err != nil {
		t.Fatal(err)
	}

	s.doc = New()
	s.doc.Add(s.rig, s.root, s.wall, s.marker, s.geometry, s.brick, s.red, s.external, s.embedded)
	return s
}

// describe renders every block by name so two documents can be compared
// independently of block order.
func describe(doc *Document) map[string]string {
	out := make(map[string]string)
	for _, b := range doc.Blocks {
		var parts []string
		parts = append(parts, b.Kind().String())
		switch v := b.(type) {
		case *SceneNode:
			parent := "-"
			if v.Parent() != nil {
				parent = v.Parent().Name
			}
			var children []string
			for _, c := range v.Children() {
				children = append(children, c.Name)
			}
			parts = append(parts, "parent="+parent, "children="+strings.Join(children, ","),
				fmt.Sprint(v.Transform), fmt.Sprint(v.Properties))
			if v.Mesh != nil {
				parts = append(parts, "geometry="+v.Mesh.Geometry.String())
				for _, m := range v.Mesh.Materials {
					parts = append(parts, "material="+m.String())
				}
			}
		case *MeshGeometry:
			for _, sub := range v.SubGeometries {
				parts = append(parts, fmt.Sprint(sub.Streams), fmt.Sprint(sub.Properties))
			}
			parts = append(parts, fmt.Sprint(v.Properties))
		case *Material:
			parts = append(parts, v.Type.String(), fmt.Sprint(v.Properties))
			for _, tex := range v.Textures {
				parts = append(parts, "texture="+tex.String())
			}
		case *Texture:
			parts = append(parts, v.Storage.String(), v.URL, fmt.Sprint(v.Data), fmt.Sprint(v.Properties))
		case *Skeleton:
			parts = append(parts, fmt.Sprint(v.Joints), fmt.Sprint(v.Properties))
		case *OpaqueBlock:
			parts = append(parts, fmt.Sprint(v.TypeID, v.Flags, v.Body))
		}
		out[b.BlockName()] = strings.Join(parts, " ")
	}
	return out
}

func blockNames(doc *Document) []string {
	names := make([]string, len(doc.Blocks))
	for i, b := range doc.Blocks {
		names[i] = b.BlockName()
	}
	return names
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func compareDescriptions(t *testing.T, want, got *Document) {
	t.Helper()
	w, g := describe(want), describe(got)
	if len(w) != len(g) {
		t.Fatalf("block names: want %v, got %v", sortedKeys(w), sortedKeys(g))
	}
	for _, name := range sortedKeys(w) {
		if w[name] != g[name] {
			t.Errorf("block %q:\nwant %s\ngot  %s", name, w[name], g[name])
		}
	}
}

func mustDecode(t *testing.T, data []byte, opts ...Option) (*Document, Warnings) {
	t.Helper()
	doc, warnings, err := Decode(data, opts...)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return doc, warnings
}

func mustEncode(t *testing.T, doc *Document, opts ...Option) []byte {
	t.Helper()
	data, err := Encode(doc, opts...)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return data
}
