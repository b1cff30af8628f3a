package awd

import (
	"fmt"

	"github.com/Faultbox/awdkit/internal/binrw"
	"github.com/Faultbox/awdkit/pkg/awd/property"
	"github.com/Faultbox/awdkit/pkg/math"
)

// Joint is one bone of a skeleton. Joint ids are 1-based positions in
// Skeleton.Joints; Parent 0 marks a root joint.
type Joint struct {
	Name       string
	Parent     uint16
	BindMatrix math.Mat4
}

// Skeleton is a joint hierarchy used for skinning.
type Skeleton struct {
	blockMeta

	Name       string
	Joints     []Joint
	Properties property.Table
}

// NewSkeleton returns an empty skeleton.
func NewSkeleton(name string) *Skeleton {
	return &Skeleton{Name: name}
}

func (s *Skeleton) Kind() BlockKind   { return KindSkeleton }
func (s *Skeleton) BlockName() string { return s.Name }

func (s *Skeleton) resolve(*resolver) {}

// AddJoint appends a joint and returns its id. parent must be 0 or the id
// of an existing joint.
func (s *Skeleton) AddJoint(name string, parent uint16, bind math.Mat4) (uint16, error) {
	if len(s.Joints) >= 0xFFFF {
		return 0, fmt.Errorf("%w: skeleton %s is full", ErrMalformedBlock, s.Name)
	}
	if int(parent) > len(s.Joints) {
		return 0, fmt.Errorf("%w: joint %s parent %d does not exist", ErrUnresolvedReferenceOnEncode, name, parent)
	}
	s.Joints = append(s.Joints, Joint{Name: name, Parent: parent, BindMatrix: bind})
	return uint16(len(s.Joints)), nil
}

// Joint returns the joint with the given 1-based id.
func (s *Skeleton) Joint(id uint16) (*Joint, bool) {
	if id == 0 || int(id) > len(s.Joints) {
		return nil, false
	}
	return &s.Joints[id-1], true
}

// ChildJoints returns the ids of the joints whose parent is id.
func (s *Skeleton) ChildJoints(id uint16) []uint16 {
	var out []uint16
	for i, j := range s.Joints {
		if j.Parent == id {
			out = append(out, uint16(i+1))
		}
	}
	return out
}

// skeletonCodec handles skeletons (101): name, joint count, then per joint
// id, parent id, name and bind matrix; properties last.
type skeletonCodec struct{}

func (skeletonCodec) Kind() BlockKind { return KindSkeleton }

func (skeletonCodec) Decode(body *binrw.Reader, ctx *DecodeContext) (Block, error) {
	s := &Skeleton{}
	var err error
	if s.Name, err = ctx.ReadText(body, "name"); err != nil {
		return nil, err
	}
	count, err := body.ReadU16()
	if err != nil {
		return nil, err
	}
	for i := 1; i <= int(count); i++ {
		start := body.Offset()
		id, err := body.ReadU16()
		if err != nil {
			return nil, err
		}
		if int(id) != i {
			return nil, &binrw.PositionError{
				Offset: start,
				Err:    fmt.Errorf("%w: skeleton %s joint %d has id %d", ErrMalformedBlock, s.Name, i, id),
			}
		}
		var j Joint
		if j.Parent, err = body.ReadU16(); err != nil {
			return nil, err
		}
		if int(j.Parent) >= i {
			ctx.Warn(DanglingReference, start, "skeleton %s joint %d parent %d does not precede it", s.Name, i, j.Parent)
		}
		if j.Name, err = ctx.ReadText(body, "joint name"); err != nil {
			return nil, err
		}
		if j.BindMatrix, err = ctx.ReadMatrix(body); err != nil {
			return nil, err
		}
		s.Joints = append(s.Joints, j)
	}
	if s.Properties, err = ctx.ReadProperties(body, "skeleton "+s.Name); err != nil {
		return nil, err
	}
	return s, nil
}

func (skeletonCodec) Encode(b Block, ctx *EncodeContext) ([]byte, error) {
	s, ok := b.(*Skeleton)
	if !ok {
		return nil, fmt.Errorf("%w: skeleton codec given %s", ErrMalformedBlock, b.Kind())
	}
	w := binrw.NewWriter()
	if err := ctx.WriteText(w, s.Name, "name"); err != nil {
		return nil, err
	}
	if len(s.Joints) > 0xFFFF {
		return nil, fmt.Errorf("%w: %d joints", ErrMalformedBlock, len(s.Joints))
	}
	w.U16(uint16(len(s.Joints)))
	for i, j := range s.Joints {
		id := i + 1
		if int(j.Parent) >= id {
			return nil, fmt.Errorf("%w: skeleton %s joint %d parent %d does not precede it",
				ErrUnresolvedReferenceOnEncode, s.Name, id, j.Parent)
		}
		w.U16(uint16(id))
		w.U16(j.Parent)
		if err := ctx.WriteText(w, j.Name, "joint name"); err != nil {
			return nil, err
		}
		if err := ctx.WriteMatrix(w, j.BindMatrix); err != nil {
			return nil, err
		}
	}
	if err := ctx.WriteProperties(w, s.Properties, "skeleton "+s.Name); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}
