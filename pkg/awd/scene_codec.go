package awd

import (
	"fmt"

	"github.com/Faultbox/awdkit/internal/binrw"
)

// sceneCodec handles containers (22) and mesh instances (23). Both start
// with parent ref, transform and name; mesh instances add geometry and
// material refs. The property table closes the body.
type sceneCodec struct {
	kind BlockKind
}

func (c sceneCodec) Kind() BlockKind { return c.kind }

func (c sceneCodec) Decode(body *binrw.Reader, ctx *DecodeContext) (Block, error) {
	n := &SceneNode{pendingParent: -1}

	parentOffset := body.Offset()
	parent, none, err := ctx.readIndex(body)
	if err != nil {
		return nil, err
	}
	if !none {
		if parent >= ctx.BlockCount {
			ctx.Warn(DanglingReference, parentOffset, "parent references block %d of %d", parent, ctx.BlockCount)
			n.lostParent = unresolvedRef[*SceneNode](parent, refDangling)
		} else {
			n.pendingParent = parent
		}
	}
	if n.Transform, err = ctx.ReadMatrix(body); err != nil {
		return nil, err
	}
	if n.Name, err = ctx.ReadText(body, "name"); err != nil {
		return nil, err
	}

	if c.kind == KindMeshInstance {
		mesh := &MeshInstance{}
		if mesh.Geometry, err = readRef[*MeshGeometry](ctx, body, "geometry"); err != nil {
			return nil, err
		}
		count, err := body.ReadU16()
		if err != nil {
			return nil, err
		}
		mesh.Materials = make([]Ref[*Material], 0, count)
		for i := 0; i < int(count); i++ {
			ref, err := readRef[*Material](ctx, body, fmt.Sprintf("material %d", i))
			if err != nil {
				return nil, err
			}
			mesh.Materials = append(mesh.Materials, ref)
		}
		n.Mesh = mesh
	}

	if n.Properties, err = ctx.ReadProperties(body, "node "+n.Name); err != nil {
		return nil, err
	}
	return n, nil
}

func (c sceneCodec) Encode(b Block, ctx *EncodeContext) ([]byte, error) {
	n, ok := b.(*SceneNode)
	if !ok {
		return nil, fmt.Errorf("%w: scene codec given %s", ErrMalformedBlock, b.Kind())
	}
	w := binrw.NewWriter()
	if idx, lost := n.UnresolvedParent(); lost && n.parent == nil {
		return nil, fmt.Errorf("%w: parent holds dangling index %d", ErrUnresolvedReferenceOnEncode, idx)
	}
	if n.parent == nil {
		ctx.writeIndex(w, 0, true)
	} else if err := ctx.writeBlockIndex(w, n.parent, "parent"); err != nil {
		return nil, err
	}
	if err := ctx.WriteMatrix(w, n.Transform); err != nil {
		return nil, err
	}
	if err := ctx.WriteText(w, n.Name, "name"); err != nil {
		return nil, err
	}

	if n.Mesh != nil {
		if err := writeRef(ctx, w, n.Mesh.Geometry, "geometry"); err != nil {
			return nil, err
		}
		if len(n.Mesh.Materials) > 0xFFFF {
			return nil, fmt.Errorf("%w: %d materials", ErrMalformedBlock, len(n.Mesh.Materials))
		}
		w.U16(uint16(len(n.Mesh.Materials)))
		for i, ref := range n.Mesh.Materials {
			if err := writeRef(ctx, w, ref, fmt.Sprintf("material %d", i)); err != nil {
				return nil, err
			}
		}
	}

	if err := ctx.WriteProperties(w, n.Properties, "node "+n.Name); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}
