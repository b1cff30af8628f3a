package awd

import (
	"fmt"
	"reflect"
)

type refState uint8

const (
	refNone refState = iota
	refLinked
	refPending
	refDangling
)

// Ref is a typed reference from one block to another. The zero value means
// "no reference". Decoding produces linked refs when the target resolves
// and dangling refs (index kept) when it does not.
type Ref[T Block] struct {
	target T
	index  int
	state  refState
}

// Link returns a reference to target. A nil target yields the zero Ref.
func Link[T Block](target T) Ref[T] {
	if isNilBlock(target) {
		return Ref[T]{}
	}
	return Ref[T]{target: target, state: refLinked}
}

// Get returns the target when the reference is linked.
func (r Ref[T]) Get() (T, bool) {
	if r.state != refLinked {
		var zero T
		return zero, false
	}
	return r.target, true
}

// IsZero reports whether the reference is empty.
func (r Ref[T]) IsZero() bool {
	return r.state == refNone
}

// Dangling reports whether the reference holds an index that could not be
// resolved to a block of the expected kind.
func (r Ref[T]) Dangling() bool {
	return r.state == refPending || r.state == refDangling
}

// Index returns the raw block index of an unresolved reference, or -1.
func (r Ref[T]) Index() int {
	if !r.Dangling() {
		return -1
	}
	return r.index
}

func (r Ref[T]) String() string {
	switch r.state {
	case refLinked:
		return fmt.Sprintf("-> %s %q", r.target.Kind(), r.target.BlockName())
	case refPending, refDangling:
		return fmt.Sprintf("-> dangling #%d", r.index)
	default:
		return "-> none"
	}
}

func unresolvedRef[T Block](index int, state refState) Ref[T] {
	return Ref[T]{index: index, state: state}
}

func isNilBlock(b Block) bool {
	if b == nil {
		return true
	}
	v := reflect.ValueOf(b)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
