package awd

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Faultbox/awdkit/internal/binrw"
)

// Codec decodes and encodes the body of one block type. Decode receives a
// reader over exactly the block body.
type Codec interface {
	Kind() BlockKind
	Decode(body *binrw.Reader, ctx *DecodeContext) (Block, error)
	Encode(b Block, ctx *EncodeContext) ([]byte, error)
}

// Registry maps on-disk type ids to codecs. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	codecs map[uint8]Codec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[uint8]Codec)}
}

// Register adds a codec for typeID. Each id can be registered once.
func (r *Registry) Register(typeID uint8, codec Codec) error {
	if codec == nil {
		return fmt.Errorf("awd: register type %d: nil codec", typeID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.codecs[typeID]; ok {
		return fmt.Errorf("%w: %d already registered for %s", ErrDuplicateTypeID, typeID, existing.Kind())
	}
	r.codecs[typeID] = codec
	return nil
}

// CodecForID returns the codec for typeID, or ErrUnknownBlockType.
func (r *Registry) CodecForID(typeID uint8) (Codec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codec, ok := r.codecs[typeID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBlockType, typeID)
	}
	return codec, nil
}

// IDs returns the registered type ids in ascending order.
func (r *Registry) IDs() []uint8 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]uint8, 0, len(r.codecs))
	for id := range r.codecs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// DefaultRegistry returns the registry holding the built-in block types.
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() {
		r := NewRegistry()
		for _, kind := range []BlockKind{KindMeshGeometry, KindContainer, KindMeshInstance,
			KindMaterial, KindTexture, KindSkeleton} {
			id, _ := TypeIDForKind(kind)
			codec, _ := CodecForKind(kind)
			if err := r.Register(id, codec); err != nil {
				panic(err)
			}
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

var builtinCodecs = map[BlockKind]Codec{
	KindOpaque:       opaqueCodec{},
	KindContainer:    sceneCodec{kind: KindContainer},
	KindMeshInstance: sceneCodec{kind: KindMeshInstance},
	KindMeshGeometry: geometryCodec{},
	KindMaterial:     materialCodec{},
	KindTexture:      textureCodec{},
	KindSkeleton:     skeletonCodec{},
}

// CodecForKind returns the built-in codec used to encode blocks of kind.
func CodecForKind(kind BlockKind) (Codec, error) {
	codec, ok := builtinCodecs[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no codec for kind %s", ErrUnknownBlockType, kind)
	}
	return codec, nil
}

// TypeIDForKind returns the on-disk type id of a built-in kind. Opaque
// blocks carry their own id.
func TypeIDForKind(kind BlockKind) (uint8, error) {
	switch kind {
	case KindMeshGeometry:
		return TypeMeshGeometry, nil
	case KindContainer:
		return TypeContainer, nil
	case KindMeshInstance:
		return TypeMeshInstance, nil
	case KindMaterial:
		return TypeMaterial, nil
	case KindTexture:
		return TypeTexture, nil
	case KindSkeleton:
		return TypeSkeleton, nil
	default:
		return 0, fmt.Errorf("%w: kind %s has no fixed type id", ErrUnknownBlockType, kind)
	}
}

type opaqueCodec struct{}

func (opaqueCodec) Kind() BlockKind { return KindOpaque }

func (opaqueCodec) Decode(body *binrw.Reader, ctx *DecodeContext) (Block, error) {
	raw, err := body.ReadBytes(body.Len())
	if err != nil {
		return nil, err
	}
	return &OpaqueBlock{TypeID: ctx.TypeID, Flags: ctx.Flags, Body: raw}, nil
}

func (opaqueCodec) Encode(b Block, ctx *EncodeContext) ([]byte, error) {
	ob, ok := b.(*OpaqueBlock)
	if !ok {
		return nil, fmt.Errorf("%w: opaque codec given %s", ErrMalformedBlock, b.Kind())
	}
	ctx.Flags = ob.Flags
	out := make([]byte, len(ob.Body))
	copy(out, ob.Body)
	return out, nil
}
