package awd

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/awdkit/internal/binrw"
)

// decodeState names the stages of Decode, in order.
type decodeState int

const (
	stateReadHeader decodeState = iota
	stateReadIndex
	stateDecodeBlocks
	stateResolveReferences
	stateBuildSceneTree
	stateDone
)

func (s decodeState) String() string {
	switch s {
	case stateReadHeader:
		return "read header"
	case stateReadIndex:
		return "read block index"
	case stateDecodeBlocks:
		return "decode blocks"
	case stateResolveReferences:
		return "resolve references"
	case stateBuildSceneTree:
		return "build scene tree"
	case stateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// indexEntry locates one block record. Offset is relative to the start of
// the record region; Length covers the 6 byte record header and the body.
type indexEntry struct {
	Offset uint32
	Length uint32
}

// recordHeaderSize is type (u8) + flags (u8) + body length (u32).
const recordHeaderSize = 6

type decoder struct {
	opts     options
	log      *zap.Logger
	state    decodeState
	header   Header
	image    []byte
	index    []indexEntry
	blocks   []Block
	warnings Warnings
	ctx      *DecodeContext
}

// Decode parses an AWD document. Recoverable issues are returned as
// warnings next to the document; anything else is a single *OffsetError.
func Decode(data []byte, opts ...Option) (*Document, Warnings, error) {
	o := buildOptions(opts)
	text, err := o.textDecoder()
	if err != nil {
		return nil, nil, fmt.Errorf("awd: legacy charset: %w", err)
	}
	d := &decoder{opts: o, log: o.logger}
	d.ctx = &DecodeContext{text: text, warnings: &d.warnings, logger: o.logger}

	steps := []func(data []byte) error{
		d.readHeader,
		d.readIndex,
		d.decodeBlocks,
		d.resolveReferences,
		d.buildSceneTree,
	}
	for _, step := range steps {
		d.log.Debug("decode stage", zap.Stringer("state", d.state))
		if err := step(data); err != nil {
			return nil, nil, err
		}
		d.state++
	}
	d.log.Debug("decoded document",
		zap.Stringer("version", d.header.Version),
		zap.Stringer("compression", d.header.Compression),
		zap.Int("blocks", len(d.blocks)),
		zap.Int("warnings", len(d.warnings)))
	return &Document{Header: d.header, Blocks: d.blocks}, d.warnings, nil
}

func (d *decoder) fail(block, offset int, err error) error {
	return locate(d.state.String(), block, offset, err)
}

// readHeader validates the header and inflates the payload. Offsets from
// here on refer to the image header + uncompressed payload.
func (d *decoder) readHeader(data []byte) error {
	h, err := readHeader(data)
	if err != nil {
		return d.fail(-1, 0, err)
	}
	d.header = h
	payload, err := decompress(h.Compression, data[headerSize:], d.opts.maxPayload)
	if err != nil {
		return d.fail(-1, headerSize, err)
	}
	if h.Compression == CompressionNone {
		d.image = data
	} else {
		d.image = make([]byte, 0, headerSize+len(payload))
		d.image = append(d.image, data[:headerSize]...)
		d.image = append(d.image, payload...)
	}
	d.ctx.wideIndices = h.WideIndices
	return nil
}

func (d *decoder) readIndex([]byte) error {
	r := binrw.NewReaderAt(d.image[headerSize:], headerSize)
	count, err := r.ReadU32()
	if err != nil {
		return d.fail(-1, headerSize, err)
	}
	if int64(count)*8 > int64(r.Len()) {
		return d.fail(-1, headerSize, fmt.Errorf("%w: index of %d blocks needs %d bytes, %d left",
			ErrTruncatedDocument, count, int64(count)*8, r.Len()))
	}
	d.index = make([]indexEntry, count)
	for i := range d.index {
		d.index[i].Offset, _ = r.ReadU32()
		d.index[i].Length, _ = r.ReadU32()
	}
	d.ctx.BlockCount = int(count)
	return nil
}

func (d *decoder) decodeBlocks([]byte) error {
	start := headerSize + 4 + 8*len(d.index)
	r := binrw.NewReaderAt(d.image[start:], start)
	d.blocks = make([]Block, 0, len(d.index))

	for i, entry := range d.index {
		at := r.Offset()
		if int(entry.Offset) != r.Position() {
			return d.fail(i, at, fmt.Errorf("%w: index says offset %d, record found at %d",
				ErrCorruptBlockIndex, entry.Offset, r.Position()))
		}
		typeID, err := r.ReadU8()
		if err != nil {
			return d.fail(i, at, err)
		}
		flags, err := r.ReadU8()
		if err != nil {
			return d.fail(i, at, err)
		}
		length, err := r.ReadU32()
		if err != nil {
			return d.fail(i, at, err)
		}
		if int64(entry.Length) != recordHeaderSize+int64(length) {
			return d.fail(i, at, fmt.Errorf("%w: index says %d bytes, record holds %d",
				ErrCorruptBlockIndex, entry.Length, recordHeaderSize+int64(length)))
		}
		body, err := r.Sub(int(length))
		if err != nil {
			return d.fail(i, at, err)
		}

		d.ctx.Index, d.ctx.TypeID, d.ctx.Flags = i, typeID, flags
		codec, err := d.opts.registry.CodecForID(typeID)
		if err != nil {
			d.ctx.Warn(UnknownBlockType, at, "type %d kept as opaque block (%d bytes)", typeID, length)
			codec = opaqueCodec{}
		}
		b, err := codec.Decode(body, d.ctx)
		if err != nil {
			return d.fail(i, at, err)
		}
		if body.Len() > 0 {
			d.log.Debug("ignoring trailing block bytes", zap.Int("block", i), zap.Int("bytes", body.Len()))
		}
		b.meta().place(i, flags)
		d.log.Debug("decoded block",
			zap.Int("block", i),
			zap.Uint8("type", typeID),
			zap.Stringer("kind", b.Kind()),
			zap.String("name", b.BlockName()),
			zap.Uint32("size", length))
		d.blocks = append(d.blocks, b)
	}

	if r.Len() > 0 {
		return d.fail(-1, r.Offset(), fmt.Errorf("%w: %d bytes after the last block", ErrCorruptBlockIndex, r.Len()))
	}
	return nil
}

func (d *decoder) resolveReferences([]byte) error {
	res := &resolver{blocks: d.blocks, ctx: d.ctx}
	for _, b := range d.blocks {
		b.resolve(res)
	}
	return nil
}

// buildSceneTree links each node to its decoded parent. Children end up in
// block order. A parent chain that loops is fatal.
func (d *decoder) buildSceneTree([]byte) error {
	for _, b := range d.blocks {
		n, ok := b.(*SceneNode)
		if !ok || n.pendingParent < 0 {
			continue
		}
		idx := n.pendingParent
		n.pendingParent = -1
		d.ctx.Index = n.ID()
		parent, ok := d.blocks[idx].(*SceneNode)
		if !ok {
			d.ctx.Warn(WrongReferenceKind, -1, "parent references block %d of kind %s, want scene node",
				idx, d.blocks[idx].Kind())
			n.lostParent = unresolvedRef[*SceneNode](idx, refDangling)
			continue
		}
		if err := n.SetParent(parent); err != nil {
			if errors.Is(err, ErrCycleDetected) {
				err = fmt.Errorf("%w (parent block %d)", err, idx)
			}
			return d.fail(n.ID(), -1, err)
		}
	}
	return nil
}
