package awd

import "fmt"

// BlockKind identifies the Go type behind a Block.
type BlockKind uint8

const (
	KindOpaque BlockKind = iota
	KindContainer
	KindMeshInstance
	KindMeshGeometry
	KindMaterial
	KindTexture
	KindSkeleton
)

// String returns the kind name.
func (k BlockKind) String() string {
	switch k {
	case KindOpaque:
		return "Opaque"
	case KindContainer:
		return "Container"
	case KindMeshInstance:
		return "MeshInstance"
	case KindMeshGeometry:
		return "MeshGeometry"
	case KindMaterial:
		return "Material"
	case KindTexture:
		return "Texture"
	case KindSkeleton:
		return "Skeleton"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(k))
	}
}

// On-disk block type ids of the built-in kinds.
const (
	TypeMeshGeometry uint8 = 1
	TypeContainer    uint8 = 22
	TypeMeshInstance uint8 = 23
	TypeMaterial     uint8 = 81
	TypeTexture      uint8 = 82
	TypeSkeleton     uint8 = 101
)

// Block flag bits.
const (
	// BlockFlagWideMatrices marks matrices stored as float64 rather than float32.
	BlockFlagWideMatrices uint8 = 1 << 0
)

// Block is one entry of a document. The set of implementations is closed:
// *SceneNode, *MeshGeometry, *Material, *Texture, *Skeleton and *OpaqueBlock.
type Block interface {
	Kind() BlockKind
	// ID returns the position the block was decoded from, or -1 for blocks
	// built in memory.
	ID() int
	BlockName() string

	meta() *blockMeta
	resolve(res *resolver)
}

// blockMeta holds what the decoder knows about a block's origin.
type blockMeta struct {
	id    int
	flags uint8
	set   bool
}

func (m *blockMeta) ID() int {
	if !m.set {
		return -1
	}
	return m.id
}

func (m *blockMeta) meta() *blockMeta {
	return m
}

func (m *blockMeta) place(id int, flags uint8) {
	m.id, m.flags, m.set = id, flags, true
}

// OpaqueBlock keeps a block of unregistered type verbatim.
type OpaqueBlock struct {
	blockMeta
	TypeID uint8
	Flags  uint8
	Body   []byte
}

func (b *OpaqueBlock) Kind() BlockKind   { return KindOpaque }
func (b *OpaqueBlock) BlockName() string { return "" }

func (b *OpaqueBlock) resolve(*resolver) {}
