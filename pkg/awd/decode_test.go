package awd

import (
	"bytes"
	"errors"
	"testing"

	"github.com/klauspost/compress/zlib"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/awdkit/internal/binrw"
)

func TestDecodeHeader(t *testing.T) {
	valid := rawDocument()
	withVersion := func(major, minor uint8) []byte {
		data := append([]byte(nil), valid...)
		data[4], data[5] = major, minor
		return data
	}

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"valid", valid, nil},
		{"newer minor", withVersion(2, 7), nil},
		{"empty", []byte{}, ErrTruncatedDocument},
		{"partial magic", []byte("AW"), ErrTruncatedDocument},
		{"bad magic", []byte("AWF\x00\x02\x01\x00\x00\x00\x00\x00"), ErrBadMagic},
		{"not awd", []byte("PK\x03\x04 zip archive"), ErrBadMagic},
		{"header cut", valid[:6], ErrTruncatedDocument},
		{"major 1", withVersion(1, 0), ErrUnsupportedVersion},
		{"major 3", withVersion(3, 0), ErrUnsupportedVersion},
		{"no block count", valid[:headerSize], ErrTruncatedDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(tt.data)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeDanglingReference(t *testing.T) {
	data := rawDocument(rawBlock{typeID: TypeMeshInstance, body: meshInstanceBody(narrowNone, 9999, "orphan")})

	doc, warnings := mustDecode(t, data)
	if len(doc.Blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(doc.Blocks))
	}
	if warnings.Count(DanglingReference) != 1 || len(warnings) != 1 {
		t.Fatalf("warnings = %v, want one DanglingReference", warnings)
	}
	w := warnings[0]
	// header 7 + count 4 + index 8 + record header 6 + parent 2 + matrix 64 + name 8
	if w.Block != 0 || w.Offset != 99 {
		t.Errorf("warning at block %d offset %d, want block 0 offset 99", w.Block, w.Offset)
	}
	node := doc.Blocks[0].(*SceneNode)
	if !node.Mesh.Geometry.Dangling() || node.Mesh.Geometry.Index() != 9999 {
		t.Errorf("geometry ref = %v, want dangling 9999", node.Mesh.Geometry)
	}
	if warnings.Err() == nil {
		t.Error("Warnings.Err() = nil for a non-empty list")
	}
}

func TestDecodeDanglingParent(t *testing.T) {
	doc, warnings := mustDecode(t, rawDocument(container(42, "lost")))
	if warnings.Count(DanglingReference) != 1 {
		t.Fatalf("warnings = %v", warnings)
	}
	if roots := doc.Roots(); len(roots) != 1 {
		t.Errorf("node with dangling parent is not a root")
	}
	node := doc.Blocks[0].(*SceneNode)
	if idx, lost := node.UnresolvedParent(); !lost || idx != 42 {
		t.Errorf("UnresolvedParent() = %d, %v, want 42, true", idx, lost)
	}
	if _, err := Encode(doc); !errors.Is(err, ErrUnresolvedReferenceOnEncode) {
		t.Errorf("Encode err = %v, want ErrUnresolvedReferenceOnEncode", err)
	}

	// Detaching explicitly makes the node a plain root again.
	if err := node.SetParent(nil); err != nil {
		t.Fatal(err)
	}
	if _, lost := node.UnresolvedParent(); lost {
		t.Error("SetParent(nil) kept the unresolved parent")
	}
	if _, err := Encode(doc); err != nil {
		t.Errorf("Encode after SetParent(nil): %v", err)
	}
}

func TestDecodeTruncatedPropertyTable(t *testing.T) {
	w := binrw.NewWriter()
	w.U16(narrowNone)
	writeIdentity32(w)
	_ = w.String16("n")
	w.U32(100) // declares 100 bytes
	w.Write(make([]byte, 10))
	data := rawDocument(rawBlock{typeID: TypeContainer, body: w.Bytes()})

	_, _, err := Decode(data)
	if !errors.Is(err, ErrTruncatedPropertyTable) {
		t.Fatalf("err = %v, want ErrTruncatedPropertyTable", err)
	}
	var oe *OffsetError
	if !errors.As(err, &oe) {
		t.Fatalf("err is %T, want *OffsetError", err)
	}
	// record body starts at 25; table follows parent, matrix and name.
	if oe.Block != 0 || oe.Offset != 25+2+64+3 {
		t.Errorf("error at block %d offset %d, want block 0 offset %d", oe.Block, oe.Offset, 25+2+64+3)
	}
}

func TestDecodeUnknownBlockType(t *testing.T) {
	data := rawDocument(
		container(narrowNone, "a"),
		container(0, "b"),
		rawBlock{typeID: 200, flags: 0x80, body: []byte{1, 2, 3}},
	)

	doc, warnings := mustDecode(t, data)
	if len(doc.Blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(doc.Blocks))
	}
	if warnings.Count(UnknownBlockType) != 1 {
		t.Errorf("warnings = %v, want one UnknownBlockType", warnings)
	}
	opaque, ok := doc.Blocks[2].(*OpaqueBlock)
	if !ok {
		t.Fatalf("block 2 is %T, want *OpaqueBlock", doc.Blocks[2])
	}
	if opaque.TypeID != 200 || opaque.Flags != 0x80 || !bytes.Equal(opaque.Body, []byte{1, 2, 3}) {
		t.Errorf("opaque block = %+v", opaque)
	}
	if doc.Blocks[1].(*SceneNode).Parent() != doc.Blocks[0] {
		t.Error("block after unknown type not decoded correctly")
	}

	// Foreign input written with float32 matrices re-encodes unchanged.
	out := mustEncode(t, doc, WithNarrowMatrices())
	if !bytes.Equal(out, data) {
		t.Errorf("re-encoded document differs from input")
	}
}

func TestDecodeWithRestrictedRegistry(t *testing.T) {
	s := sampleDocument(t)
	data := mustEncode(t, s.doc)

	reg := NewRegistry()
	containers, _ := CodecForKind(KindContainer)
	meshes, _ := CodecForKind(KindMeshInstance)
	if err := reg.Register(TypeContainer, containers); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(TypeMeshInstance, meshes); err != nil {
		t.Fatal(err)
	}

	doc, warnings := mustDecode(t, data, WithRegistry(reg))
	// geometry, two textures, two materials and the skeleton are opaque.
	if n := warnings.Count(UnknownBlockType); n != 6 {
		t.Errorf("UnknownBlockType warnings = %d, want 6", n)
	}
	// Mesh refs now point at opaque blocks.
	if n := warnings.Count(WrongReferenceKind); n != 4 {
		t.Errorf("WrongReferenceKind warnings = %d, want 4", n)
	}
	if len(doc.Blocks) != len(s.doc.Blocks) {
		t.Errorf("got %d blocks, want %d", len(doc.Blocks), len(s.doc.Blocks))
	}
}

func TestDecodeWrongReferenceKind(t *testing.T) {
	data := rawDocument(
		container(narrowNone, "root"),
		rawBlock{typeID: TypeMeshInstance, body: meshInstanceBody(0, 0, "mesh", 0)},
	)
	doc, warnings := mustDecode(t, data)
	if n := warnings.Count(WrongReferenceKind); n != 2 {
		t.Fatalf("warnings = %v, want two WrongReferenceKind", warnings)
	}
	mesh := doc.Blocks[1].(*SceneNode)
	if !mesh.Mesh.Geometry.Dangling() || mesh.Mesh.Geometry.Index() != 0 {
		t.Errorf("geometry ref = %v", mesh.Mesh.Geometry)
	}
	if mesh.Parent() != doc.Blocks[0] {
		t.Error("parent not linked")
	}
}

func TestDecodeParentOfWrongKind(t *testing.T) {
	s := sampleDocument(t)
	data := mustEncode(t, s.doc)
	doc, _ := mustDecode(t, data)
	// Point root's parent field at the geometry (block 1).
	idx := bytes.Index(data, containerPrefix(doc))
	if idx < 0 {
		t.Fatal("root record not found")
	}
	data[idx] = 0
	data[idx+1] = 1

	doc, warnings := mustDecode(t, data)
	if warnings.Count(WrongReferenceKind) != 1 {
		t.Fatalf("warnings = %v", warnings)
	}
	roots := doc.Roots()
	if len(roots) != 1 || roots[0].Name != "root" {
		t.Fatalf("roots = %v", roots)
	}
	if idx, lost := roots[0].UnresolvedParent(); !lost || idx != 1 {
		t.Errorf("UnresolvedParent() = %d, %v, want 1, true", idx, lost)
	}
	if _, err := Encode(doc); !errors.Is(err, ErrUnresolvedReferenceOnEncode) {
		t.Errorf("Encode err = %v, want ErrUnresolvedReferenceOnEncode", err)
	}
}

// containerPrefix returns the first bytes of the root container body:
// the none parent reference followed by the first matrix value.
func containerPrefix(doc *Document) []byte {
	w := binrw.NewWriter()
	w.U16(narrowNone)
	w.F64(doc.Roots()[0].Transform[0])
	return w.Bytes()
}

func TestDecodeCycles(t *testing.T) {
	tests := []struct {
		name   string
		blocks []rawBlock
	}{
		{"self parent", []rawBlock{container(0, "loop")}},
		{"two node loop", []rawBlock{container(1, "a"), container(0, "b")}},
		{"three node loop", []rawBlock{container(2, "a"), container(0, "b"), container(1, "c")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(rawDocument(tt.blocks...))
			if !errors.Is(err, ErrCycleDetected) {
				t.Errorf("err = %v, want ErrCycleDetected", err)
			}
		})
	}
}

func TestDecodeCorruptBlockIndex(t *testing.T) {
	valid := rawDocument(container(narrowNone, "a"), container(0, "b"))

	badOffset := append([]byte(nil), valid...)
	badOffset[headerSize+4+8+3]++ // second entry offset

	badLength := append([]byte(nil), valid...)
	badLength[headerSize+4+7]++ // first entry length

	trailing := append(append([]byte(nil), valid...), 0xAA)

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"offset mismatch", badOffset, ErrCorruptBlockIndex},
		{"length mismatch", badLength, ErrCorruptBlockIndex},
		{"trailing bytes", trailing, ErrCorruptBlockIndex},
		{"index cut", valid[:headerSize+4+12], ErrTruncatedDocument},
		{"body cut", valid[:len(valid)-5], ErrTruncatedDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeCorruptCompressedStream(t *testing.T) {
	s := sampleDocument(t)
	deflated := mustEncode(t, s.doc, WithCompression(CompressionDeflate))
	lzma := mustEncode(t, s.doc, WithCompression(CompressionLZMA))

	garbage := append([]byte(nil), deflated[:headerSize]...)
	garbage = append(garbage, 0xde, 0xad, 0xbe, 0xef)

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, _ = zw.Write([]byte{1, 2, 3})
	_ = zw.Close()
	flipped := append([]byte(nil), deflated[:headerSize]...)
	flipped = append(flipped, buf.Bytes()...)
	flipped[len(flipped)-1] ^= 0xFF // checksum

	tests := []struct {
		name string
		data []byte
	}{
		{"deflate garbage", garbage},
		{"deflate cut", deflated[:len(deflated)/2]},
		{"deflate checksum", flipped},
		{"lzma cut", lzma[:len(lzma)/2]},
		{"deflate trailing bytes", append(append([]byte(nil), deflated...), 1, 2, 3, 4, 5, 6)},
		{"lzma trailing bytes", append(append([]byte(nil), lzma...), 1, 2, 3, 4, 5, 6)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(tt.data)
			if !errors.Is(err, ErrCorruptCompressedStream) {
				t.Errorf("err = %v, want ErrCorruptCompressedStream", err)
			}
		})
	}
}

func TestDecodeMaxPayloadSize(t *testing.T) {
	s := sampleDocument(t)
	raw := mustEncode(t, s.doc)
	payload := int64(len(raw) - headerSize)

	for _, c := range []Compression{CompressionDeflate, CompressionLZMA} {
		t.Run(c.String(), func(t *testing.T) {
			data := mustEncode(t, s.doc, WithCompression(c))
			if _, _, err := Decode(data, WithMaxPayloadSize(payload)); err != nil {
				t.Errorf("payload at the limit: %v", err)
			}
			_, _, err := Decode(data, WithMaxPayloadSize(payload-1))
			if !errors.Is(err, ErrCorruptCompressedStream) {
				t.Errorf("err = %v, want ErrCorruptCompressedStream", err)
			}
		})
	}
}

func TestDecodeInvalidText(t *testing.T) {
	w := binrw.NewWriter()
	w.U16(narrowNone)
	writeIdentity32(w)
	w.U16(4)
	w.Write([]byte("caf\xe9"))
	w.U32(0)
	data := rawDocument(rawBlock{typeID: TypeContainer, body: w.Bytes()})

	doc, warnings := mustDecode(t, data)
	if warnings.Count(InvalidText) != 1 {
		t.Errorf("warnings = %v, want InvalidText", warnings)
	}
	if name := doc.Blocks[0].BlockName(); name != "caf\xe9" {
		t.Errorf("name = %q, want raw bytes", name)
	}

	doc, warnings = mustDecode(t, data, WithLegacyCharset("windows-1252"))
	if warnings.Count(InvalidText) != 1 {
		t.Errorf("warnings = %v, want InvalidText", warnings)
	}
	if name := doc.Blocks[0].BlockName(); name != "café" {
		t.Errorf("name = %q, want café", name)
	}

	if _, _, err := Decode(data, WithLegacyCharset("no-such-charset")); err == nil {
		t.Error("unknown charset accepted")
	}
}

func TestDecodeLogsThroughLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := sampleDocument(t)
	mustDecode(t, mustEncode(t, s.doc), WithLogger(zap.New(core)))

	if logs.FilterMessage("decoded document").Len() != 1 {
		t.Error("missing summary log entry")
	}
	if n := logs.FilterMessage("decoded block").Len(); n != len(s.doc.Blocks) {
		t.Errorf("got %d block log entries, want %d", n, len(s.doc.Blocks))
	}
}
