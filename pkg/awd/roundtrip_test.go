package awd

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/Faultbox/awdkit/pkg/math"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := sampleDocument(t)
	data := mustEncode(t, s.doc)

	got, warnings := mustDecode(t, data)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	compareDescriptions(t, s.doc, got)

	if got.Header.Version != CurrentVersion {
		t.Errorf("version = %s, want %s", got.Header.Version, CurrentVersion)
	}
	if got.Header.Compression != CompressionNone || got.Header.WideIndices {
		t.Errorf("header = %+v, want uncompressed narrow", got.Header)
	}
	roots := got.Roots()
	if len(roots) != 1 || roots[0].Name != "root" {
		t.Fatalf("roots = %v, want [root]", roots)
	}
	wall := roots[0].Children()[0]
	if wall.Mesh == nil {
		t.Fatal("wall lost its mesh instance data")
	}
	geometry, ok := wall.Mesh.Geometry.Get()
	if !ok || geometry.VertexCount() != 4 || geometry.TriangleCount() != 2 {
		t.Errorf("wall geometry = %v", wall.Mesh.Geometry)
	}
	marker := wall.Children()[0]
	markerGeometry, _ := marker.Mesh.Geometry.Get()
	if markerGeometry != geometry {
		t.Error("shared geometry decoded as two blocks")
	}
	if want := []string{"root", "wall", "marker"}; !reflect.DeepEqual(marker.Path(), want) {
		t.Errorf("marker path = %v, want %v", marker.Path(), want)
	}
	for i, b := range got.Blocks {
		if b.ID() != i {
			t.Errorf("block %d has id %d", i, b.ID())
		}
	}
}

func TestReencodeIsByteIdentical(t *testing.T) {
	s := sampleDocument(t)
	opts := [][]Option{
		nil,
		{WithCompression(CompressionDeflate)},
		{WithCompression(CompressionLZMA)},
		{WithWideIndices()},
		{WithNarrowMatrices()},
	}
	for _, o := range opts {
		first := mustEncode(t, s.doc, o...)
		doc, _ := mustDecode(t, first)
		second := mustEncode(t, doc, o...)
		if !bytes.Equal(first, second) {
			t.Errorf("options %d: re-encoded bytes differ (%d vs %d bytes)", len(o), len(first), len(second))
		}
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	s := sampleDocument(t)
	a := mustEncode(t, s.doc)
	b := mustEncode(t, s.doc)
	if !bytes.Equal(a, b) {
		t.Error("two encodes of the same document differ")
	}
}

func TestEncodeBlockOrder(t *testing.T) {
	s := sampleDocument(t)
	got, _ := mustDecode(t, mustEncode(t, s.doc))

	want := []string{
		"root",
		"quad", "brick_diffuse", "brick_light", "brick", "wall",
		"red", "marker",
		"rig",
	}
	if names := blockNames(got); !reflect.DeepEqual(names, want) {
		t.Errorf("block order = %v, want %v", names, want)
	}
}

func TestEncodeDoesNotMutate(t *testing.T) {
	s := sampleDocument(t)
	before := blockNames(s.doc)
	mustEncode(t, s.doc, WithCompression(CompressionDeflate), WithWideIndices())

	if after := blockNames(s.doc); !reflect.DeepEqual(before, after) {
		t.Errorf("Blocks reordered: %v -> %v", before, after)
	}
	if s.doc.Header.Compression != CompressionNone || s.doc.Header.WideIndices {
		t.Errorf("header changed: %+v", s.doc.Header)
	}
	if s.marker.Parent() != s.wall || s.wall.Parent() != s.root {
		t.Error("scene graph changed")
	}
	for _, b := range s.doc.Blocks {
		if b.ID() != -1 {
			t.Errorf("%s got id %d", b.BlockName(), b.ID())
		}
	}
}

func TestCompressionRoundTrip(t *testing.T) {
	s := sampleDocument(t)
	plain := mustEncode(t, s.doc)

	for _, c := range []Compression{CompressionNone, CompressionDeflate, CompressionLZMA} {
		t.Run(c.String(), func(t *testing.T) {
			data := mustEncode(t, s.doc, WithCompression(c))
			if c != CompressionNone && bytes.Equal(data[headerSize:], plain[headerSize:]) {
				t.Error("payload was not compressed")
			}
			got, _ := mustDecode(t, data)
			if got.Header.Compression != c {
				t.Errorf("compression = %s, want %s", got.Header.Compression, c)
			}
			compareDescriptions(t, s.doc, got)

			// Re-encoding keeps the compression recorded in the header.
			again := mustEncode(t, got)
			if !bytes.Equal(again, data) {
				t.Error("re-encode without options changed the bytes")
			}
		})
	}
}

func TestWideIndicesRoundTrip(t *testing.T) {
	s := sampleDocument(t)
	narrow := mustEncode(t, s.doc)
	wide := mustEncode(t, s.doc, WithWideIndices())
	if len(wide) <= len(narrow) {
		t.Errorf("wide encoding (%d bytes) not larger than narrow (%d bytes)", len(wide), len(narrow))
	}
	got, _ := mustDecode(t, wide)
	if !got.Header.WideIndices {
		t.Error("wide indices flag not set")
	}
	compareDescriptions(t, s.doc, got)
}

func TestNarrowMatrices(t *testing.T) {
	s := sampleDocument(t)
	data := mustEncode(t, s.doc, WithNarrowMatrices())
	got, _ := mustDecode(t, data)
	compareDescriptions(t, s.doc, got)
	for _, n := range got.SceneNodes() {
		if n.meta().flags&BlockFlagWideMatrices != 0 {
			t.Errorf("%s stored with wide matrices", n.Name)
		}
	}

	// Values that float32 cannot hold are rounded.
	s.wall.Transform = math.Translate(0.1, 0, 0)
	got, _ = mustDecode(t, mustEncode(t, s.doc, WithNarrowMatrices()))
	wall, _ := got.FindByName("wall")
	if x := wall.(*SceneNode).Transform[3]; x != float64(float32(0.1)) {
		t.Errorf("narrow translation = %v", x)
	}
}

func TestEncodeIncludesDescendants(t *testing.T) {
	s := sampleDocument(t)
	doc := New()
	doc.Add(s.root, s.geometry, s.brick, s.red, s.external, s.embedded)

	got, _ := mustDecode(t, mustEncode(t, doc))
	if _, ok := got.FindByName("marker"); !ok {
		t.Error("unlisted descendant was not written")
	}
	if len(got.Blocks) != 8 {
		t.Errorf("got %d blocks, want 8", len(got.Blocks))
	}
}

func TestEncodeUnresolvedReference(t *testing.T) {
	tests := []struct {
		name  string
		build func(s *sampleScene) *Document
	}{
		{
			name: "material not in document",
			build: func(s *sampleScene) *Document {
				doc := New()
				doc.Add(s.root, s.geometry, s.brick, s.external, s.embedded)
				return doc
			},
		},
		{
			name: "texture not in document",
			build: func(s *sampleScene) *Document {
				doc := New()
				doc.Add(s.brick, s.external)
				return doc
			},
		},
		{
			name: "dangling decoded reference",
			build: func(s *sampleScene) *Document {
				node := NewContainer("broken")
				node.Mesh = &MeshInstance{Geometry: unresolvedRef[*MeshGeometry](9999, refDangling)}
				doc := New()
				doc.Add(node)
				return doc
			},
		},
		{
			name: "joint parent after child",
			build: func(s *sampleScene) *Document {
				s.rig.Joints[0].Parent = 2
				doc := New()
				doc.Add(s.rig)
				return doc
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := tt.build(sampleDocument(t))
			_, err := Encode(doc)
			if !errors.Is(err, ErrUnresolvedReferenceOnEncode) {
				t.Fatalf("err = %v, want ErrUnresolvedReferenceOnEncode", err)
			}
			var oe *OffsetError
			if !errors.As(err, &oe) || oe.Block < 0 {
				t.Errorf("error does not name a block: %v", err)
			}
		})
	}
}

func TestEncodeRejectsNilBlock(t *testing.T) {
	doc := New()
	doc.Add(NewContainer("a"), nil)
	if _, err := Encode(doc); !errors.Is(err, ErrMalformedBlock) {
		t.Errorf("err = %v, want ErrMalformedBlock", err)
	}
	var typedNil *Material
	doc = New()
	doc.Add(typedNil)
	if _, err := Encode(doc); !errors.Is(err, ErrMalformedBlock) {
		t.Errorf("typed nil: err = %v, want ErrMalformedBlock", err)
	}
}

func TestEmptyDocument(t *testing.T) {
	data := mustEncode(t, New())
	if len(data) != headerSize+4 {
		t.Errorf("empty document is %d bytes, want %d", len(data), headerSize+4)
	}
	doc, warnings := mustDecode(t, data)
	if len(doc.Blocks) != 0 || len(warnings) != 0 {
		t.Errorf("got %d blocks, %d warnings", len(doc.Blocks), len(warnings))
	}
}
