package awd

import (
	"errors"
	"reflect"
	"testing"
)

func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	if reg != DefaultRegistry() {
		t.Error("DefaultRegistry is not a singleton")
	}
	want := []uint8{TypeMeshGeometry, TypeContainer, TypeMeshInstance, TypeMaterial, TypeTexture, TypeSkeleton}
	if ids := reg.IDs(); !reflect.DeepEqual(ids, want) {
		t.Errorf("IDs() = %v, want %v", ids, want)
	}

	tests := []struct {
		id   uint8
		kind BlockKind
	}{
		{TypeMeshGeometry, KindMeshGeometry},
		{TypeContainer, KindContainer},
		{TypeMeshInstance, KindMeshInstance},
		{TypeMaterial, KindMaterial},
		{TypeTexture, KindTexture},
		{TypeSkeleton, KindSkeleton},
	}
	for _, tt := range tests {
		codec, err := reg.CodecForID(tt.id)
		if err != nil {
			t.Errorf("CodecForID(%d): %v", tt.id, err)
			continue
		}
		if codec.Kind() != tt.kind {
			t.Errorf("CodecForID(%d).Kind() = %s, want %s", tt.id, codec.Kind(), tt.kind)
		}
		if id, _ := TypeIDForKind(tt.kind); id != tt.id {
			t.Errorf("TypeIDForKind(%s) = %d, want %d", tt.kind, id, tt.id)
		}
	}
}

func TestRegistryErrors(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.CodecForID(TypeContainer); !errors.Is(err, ErrUnknownBlockType) {
		t.Errorf("empty registry: err = %v, want ErrUnknownBlockType", err)
	}

	codec, _ := CodecForKind(KindTexture)
	if err := reg.Register(200, codec); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register(200, codec); !errors.Is(err, ErrDuplicateTypeID) {
		t.Errorf("duplicate: err = %v, want ErrDuplicateTypeID", err)
	}
	if err := reg.Register(201, nil); err == nil {
		t.Error("nil codec accepted")
	}
	if _, err := DefaultRegistry().CodecForID(7); !errors.Is(err, ErrUnknownBlockType) {
		t.Errorf("unknown id: err = %v", err)
	}
	if _, err := TypeIDForKind(KindOpaque); !errors.Is(err, ErrUnknownBlockType) {
		t.Errorf("opaque kind: err = %v", err)
	}
	if _, err := CodecForKind(BlockKind(99)); !errors.Is(err, ErrUnknownBlockType) {
		t.Errorf("bad kind: err = %v", err)
	}
}

func TestCustomRegistryDecodesAlias(t *testing.T) {
	// A registry may map extra ids onto a built-in codec.
	reg := NewRegistry()
	codec, _ := CodecForKind(KindContainer)
	if err := reg.Register(150, codec); err != nil {
		t.Fatal(err)
	}
	data := rawDocument(rawBlock{typeID: 150, body: containerBody(narrowNone, "alias")})
	doc, warnings := mustDecode(t, data, WithRegistry(reg))
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v", warnings)
	}
	if n, ok := doc.Blocks[0].(*SceneNode); !ok || n.Name != "alias" {
		t.Errorf("block = %#v", doc.Blocks[0])
	}
}
