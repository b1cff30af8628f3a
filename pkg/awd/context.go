package awd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/awdkit/internal/binrw"
	"github.com/Faultbox/awdkit/pkg/awd/property"
	"github.com/Faultbox/awdkit/pkg/encoding"
	"github.com/Faultbox/awdkit/pkg/math"
)

// Reference encodings. The all-ones value of each width means "none".
const (
	narrowNone = 0xFFFF
	wideNone   = 0xFFFFFFFF
)

// DecodeContext carries per-block state into a Codec's Decode.
type DecodeContext struct {
	// Index is the position of the block being decoded.
	Index int
	// TypeID and Flags are the record header values.
	TypeID uint8
	Flags  uint8
	// BlockCount is the number of blocks in the document.
	BlockCount int

	wideIndices bool
	text        *encoding.Decoder
	warnings    *Warnings
	logger      *zap.Logger
}

// Warn records a non-fatal issue for the current block.
func (c *DecodeContext) Warn(kind WarningKind, offset int, format string, args ...any) {
	w := Warning{Kind: kind, Block: c.Index, Offset: offset, Detail: fmt.Sprintf(format, args...)}
	if c.logger != nil {
		c.logger.Debug("decode warning", zap.Stringer("kind", kind), zap.Int("block", c.Index),
			zap.Int("offset", offset), zap.String("detail", w.Detail))
	}
	if c.warnings != nil {
		*c.warnings = append(*c.warnings, w)
	}
}

// ReadText reads a u16 length-prefixed string. Invalid UTF-8 is transcoded
// through the legacy charset when one is configured and reported either way.
func (c *DecodeContext) ReadText(r *binrw.Reader, what string) (string, error) {
	offset := r.Offset()
	raw, err := r.ReadString16()
	if err != nil {
		return "", err
	}
	s, ok := c.text.Decode(encoding.TrimNull(raw))
	if !ok {
		c.Warn(InvalidText, offset, "%s is not valid UTF-8 (fallback charset %q)", what, c.text.Charset())
	}
	return s, nil
}

// ReadProperties reads the block's property table and reports unknown
// tags, duplicate keys and invalid strings.
func (c *DecodeContext) ReadProperties(r *binrw.Reader, what string) (property.Table, error) {
	offset := r.Offset()
	t, err := property.Read(r)
	if err != nil {
		return nil, err
	}
	for _, e := range t.Opaque() {
		c.Warn(UnknownPropertyType, offset, "%s: key %d has unknown type tag %d", what, e.Key, uint8(e.Type))
	}
	for _, key := range t.Duplicates() {
		c.Warn(DuplicatePropertyKey, offset, "%s: key %d appears more than once", what, key)
	}
	for i := range t {
		if t[i].Type != property.String {
			continue
		}
		s := t[i].Value.(string)
		if fixed, ok := c.text.Decode([]byte(s)); !ok {
			c.Warn(InvalidText, offset, "%s: key %d is not valid UTF-8", what, t[i].Key)
			t[i].Value = fixed
		}
	}
	return t, nil
}

// ReadMatrix reads a transform using the block's matrix width.
func (c *DecodeContext) ReadMatrix(r *binrw.Reader) (math.Mat4, error) {
	elem := property.Float32
	if c.Flags&BlockFlagWideMatrices != 0 {
		elem = property.Float64
	}
	values, err := property.ReadNumbers(r, elem, 16)
	if err != nil {
		return math.Mat4{}, err
	}
	var m math.Mat4
	copy(m[:], values)
	return m, nil
}

// readIndex reads one reference field. none is true for the all-ones value.
func (c *DecodeContext) readIndex(r *binrw.Reader) (index int, none bool, err error) {
	if c.wideIndices {
		v, err := r.ReadU32()
		return int(v), v == wideNone, err
	}
	v, err := r.ReadU16()
	return int(v), v == narrowNone, err
}

// readRef reads a reference field. Out-of-range indices are reported as
// dangling; in-range ones stay pending until the resolve pass.
func readRef[T Block](c *DecodeContext, r *binrw.Reader, field string) (Ref[T], error) {
	offset := r.Offset()
	index, none, err := c.readIndex(r)
	if err != nil || none {
		return Ref[T]{}, err
	}
	if index >= c.BlockCount {
		c.Warn(DanglingReference, offset, "%s references block %d of %d", field, index, c.BlockCount)
		return unresolvedRef[T](index, refDangling), nil
	}
	return unresolvedRef[T](index, refPending), nil
}

// EncodeContext carries per-block state into a Codec's Encode.
type EncodeContext struct {
	// Index is the position the block is written at.
	Index int
	// Flags is the record flag byte. Codecs set the bits they use.
	Flags uint8

	indices        map[Block]int
	wideIndices    bool
	narrowMatrices bool
}

// IndexOf returns the index assigned to b in the output.
func (c *EncodeContext) IndexOf(b Block) (int, bool) {
	i, ok := c.indices[b]
	return i, ok
}

// WriteText writes a u16 length-prefixed string.
func (c *EncodeContext) WriteText(w *binrw.Writer, s, what string) error {
	if err := w.String16(s); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedBlock, what, err)
	}
	return nil
}

// WriteProperties writes a property table.
func (c *EncodeContext) WriteProperties(w *binrw.Writer, t property.Table, what string) error {
	if err := property.Write(w, t); err != nil {
		return fmt.Errorf("%s properties: %w", what, err)
	}
	return nil
}

// WriteMatrix writes a transform at the configured width and records the
// width in Flags.
func (c *EncodeContext) WriteMatrix(w *binrw.Writer, m math.Mat4) error {
	elem := property.Float64
	if c.narrowMatrices {
		elem = property.Float32
		c.Flags &^= BlockFlagWideMatrices
	} else {
		c.Flags |= BlockFlagWideMatrices
	}
	return property.WriteNumbers(w, elem, m[:])
}

func (c *EncodeContext) writeIndex(w *binrw.Writer, index int, none bool) {
	switch {
	case c.wideIndices && none:
		w.U32(wideNone)
	case c.wideIndices:
		w.U32(uint32(index))
	case none:
		w.U16(narrowNone)
	default:
		w.U16(uint16(index))
	}
}

// writeRef writes a reference field. Links must point at blocks that are
// part of the output; dangling refs cannot be written.
func writeRef[T Block](c *EncodeContext, w *binrw.Writer, ref Ref[T], field string) error {
	if ref.IsZero() {
		c.writeIndex(w, 0, true)
		return nil
	}
	target, ok := ref.Get()
	if !ok {
		return fmt.Errorf("%w: %s holds dangling index %d", ErrUnresolvedReferenceOnEncode, field, ref.Index())
	}
	return c.writeBlockIndex(w, target, field)
}

func (c *EncodeContext) writeBlockIndex(w *binrw.Writer, target Block, field string) error {
	index, ok := c.indices[target]
	if !ok {
		return fmt.Errorf("%w: %s points at %s %q which is not part of the document",
			ErrUnresolvedReferenceOnEncode, field, target.Kind(), target.BlockName())
	}
	c.writeIndex(w, index, false)
	return nil
}

// resolver links pending references once every block is decoded.
type resolver struct {
	blocks []Block
	ctx    *DecodeContext
}

func (res *resolver) forBlock(b Block) *resolver {
	res.ctx.Index = b.ID()
	return res
}

// resolveRef turns a pending ref into a link when the target has the
// expected type; otherwise the ref stays dangling with a warning.
func resolveRef[T Block](res *resolver, ref *Ref[T], field string) {
	if ref.state != refPending {
		return
	}
	target := res.blocks[ref.index]
	if t, ok := target.(T); ok {
		*ref = Link(t)
		return
	}
	var want T
	res.ctx.Warn(WrongReferenceKind, -1, "%s references block %d of kind %s, want %T",
		field, ref.index, target.Kind(), want)
	ref.state = refDangling
}
