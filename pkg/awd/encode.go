package awd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/awdkit/internal/binrw"
)

// Encode serializes doc. The document is not modified. Output is
// deterministic: the same document and options give the same bytes.
func Encode(doc *Document, opts ...Option) ([]byte, error) {
	o := buildOptions(opts)
	e := &encoder{opts: o, log: o.logger}
	return e.encode(doc)
}

type encoder struct {
	opts    options
	log     *zap.Logger
	order   []Block
	indices map[Block]int
	listed  map[Block]bool
}

type record struct {
	typeID uint8
	flags  uint8
	body   []byte
}

func (e *encoder) encode(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, &OffsetError{Stage: "encode", Offset: -1, Block: -1, Err: fmt.Errorf("%w: nil document", ErrMalformedBlock)}
	}
	if err := e.assignIndices(doc); err != nil {
		return nil, &OffsetError{Stage: "assign indices", Offset: -1, Block: -1, Err: err}
	}

	h := Header{
		Version:     CurrentVersion,
		Compression: doc.Header.Compression,
		WideIndices: doc.Header.WideIndices || e.opts.wideIndices || len(e.order) > narrowNone,
	}
	if e.opts.compression != nil {
		h.Compression = *e.opts.compression
	}

	records, err := e.encodeBlocks(h.WideIndices)
	if err != nil {
		return nil, err
	}

	payload := binrw.NewWriter()
	payload.U32(uint32(len(records)))
	var offset uint32
	for _, rec := range records {
		length := uint32(recordHeaderSize + len(rec.body))
		payload.U32(offset)
		payload.U32(length)
		offset += length
	}
	for _, rec := range records {
		payload.U8(rec.typeID)
		payload.U8(rec.flags)
		payload.U32(uint32(len(rec.body)))
		payload.Write(rec.body)
	}

	packed, err := compress(h.Compression, payload.Bytes())
	if err != nil {
		return nil, &OffsetError{Stage: "compress", Offset: -1, Block: -1, Err: err}
	}
	out := binrw.NewWriter()
	writeHeader(out, h)
	out.Write(packed)

	e.log.Debug("encoded document",
		zap.Int("blocks", len(records)),
		zap.Bool("wide_indices", h.WideIndices),
		zap.Stringer("compression", h.Compression),
		zap.Int("payload", payload.Len()),
		zap.Int("size", out.Len()))
	return out.Bytes(), nil
}

// assignIndices orders the blocks: each scene tree touching a listed node
// is written root first in pre-order, with a mesh instance's geometry,
// materials and their textures placed just before it. Remaining blocks
// follow in list order.
func (e *encoder) assignIndices(doc *Document) error {
	e.indices = make(map[Block]int, len(doc.Blocks))
	e.listed = make(map[Block]bool, len(doc.Blocks))
	for i, b := range doc.Blocks {
		if isNilBlock(b) {
			return fmt.Errorf("%w: block %d is nil", ErrMalformedBlock, i)
		}
		e.listed[b] = true
	}

	for _, b := range doc.Blocks {
		n, ok := b.(*SceneNode)
		if !ok {
			continue
		}
		err := n.Root().Walk(func(node *SceneNode, _ int) error {
			if _, done := e.indices[node]; done {
				return nil
			}
			e.assignDependencies(node)
			e.assign(node)
			return nil
		})
		if err != nil {
			return err
		}
	}
	for _, b := range doc.Blocks {
		e.assign(b)
	}
	return nil
}

func (e *encoder) assignDependencies(n *SceneNode) {
	if n.Mesh == nil {
		return
	}
	if g, ok := n.Mesh.Geometry.Get(); ok {
		e.assignListed(g)
	}
	for _, ref := range n.Mesh.Materials {
		m, ok := ref.Get()
		if !ok || !e.listed[m] {
			continue
		}
		for _, tref := range m.Textures {
			if t, ok := tref.Get(); ok {
				e.assignListed(t)
			}
		}
		e.assign(m)
	}
}

// assignListed places b only if the document lists it; links to blocks
// outside the document fail later when the reference is written.
func (e *encoder) assignListed(b Block) {
	if e.listed[b] {
		e.assign(b)
	}
}

func (e *encoder) assign(b Block) {
	if _, ok := e.indices[b]; ok {
		return
	}
	e.indices[b] = len(e.order)
	e.order = append(e.order, b)
}

func (e *encoder) encodeBlocks(wide bool) ([]record, error) {
	records := make([]record, 0, len(e.order))
	for i, b := range e.order {
		codec, err := CodecForKind(b.Kind())
		if err != nil {
			return nil, &OffsetError{Stage: "encode blocks", Offset: -1, Block: i, Err: err}
		}
		typeID := uint8(0)
		if ob, ok := b.(*OpaqueBlock); ok {
			typeID = ob.TypeID
		} else if typeID, err = TypeIDForKind(b.Kind()); err != nil {
			return nil, &OffsetError{Stage: "encode blocks", Offset: -1, Block: i, Err: err}
		}
		ctx := &EncodeContext{
			Index:          i,
			Flags:          b.meta().flags &^ BlockFlagWideMatrices,
			indices:        e.indices,
			wideIndices:    wide,
			narrowMatrices: e.opts.narrowMatrices,
		}
		body, err := codec.Encode(b, ctx)
		if err != nil {
			return nil, &OffsetError{
				Stage:  "encode blocks",
				Offset: -1,
				Block:  i,
				Err:    fmt.Errorf("%s %q: %w", b.Kind(), b.BlockName(), err),
			}
		}
		if uint64(len(body)) > 0xFFFFFFFF-recordHeaderSize {
			return nil, &OffsetError{Stage: "encode blocks", Offset: -1, Block: i,
				Err: fmt.Errorf("%w: body of %d bytes", ErrMalformedBlock, len(body))}
		}
		records = append(records, record{typeID: typeID, flags: ctx.Flags, body: body})
	}
	return records, nil
}
