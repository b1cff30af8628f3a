// Package awd reads and writes AWD binary scene documents: a header, a
// block index and a list of typed blocks (geometry, materials, textures,
// skeletons and scene nodes) that reference each other by index.
//
// Decoding turns indices into typed references and rebuilds the scene
// graph; encoding assigns indices so that dependencies precede the
// blocks using them.
package awd

import (
	"fmt"

	"github.com/Faultbox/awdkit/pkg/math"
)

// Version is the format version stored in the header.
type Version struct {
	Major uint8
	Minor uint8
}

// CurrentVersion is written by Encode. Decode accepts any minor version of
// the same major.
var CurrentVersion = Version{Major: 2, Minor: 1}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast reports whether v is major.minor or newer.
func (v Version) AtLeast(major, minor uint8) bool {
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

// Header holds the document-level settings read from or written to the
// first bytes of the file.
type Header struct {
	Version     Version
	Compression Compression
	WideIndices bool
}

// Document is a decoded AWD file. Blocks holds every top-level block in
// file order after Decode; Encode may reorder them to satisfy references.
type Document struct {
	Header Header
	Blocks []Block
}

// New returns an empty document with the current version.
func New() *Document {
	return &Document{Header: Header{Version: CurrentVersion}}
}

// Add appends blocks to the document.
func (d *Document) Add(blocks ...Block) {
	d.Blocks = append(d.Blocks, blocks...)
}

// SceneNodes returns the scene nodes in block order.
func (d *Document) SceneNodes() []*SceneNode {
	var out []*SceneNode
	for _, b := range d.Blocks {
		if n, ok := b.(*SceneNode); ok {
			out = append(out, n)
		}
	}
	return out
}

// Roots returns the scene nodes without a parent, in block order.
func (d *Document) Roots() []*SceneNode {
	var out []*SceneNode
	for _, n := range d.SceneNodes() {
		if n.Parent() == nil {
			out = append(out, n)
		}
	}
	return out
}

// Bounds returns the world-space box around every mesh instance with
// resolved geometry.
func (d *Document) Bounds() (lo, hi math.Vec3, ok bool) {
	var box bounds
	for _, n := range d.SceneNodes() {
		var b bounds
		b.min, b.max, b.ok = n.WorldBounds()
		box.union(b)
	}
	return box.min, box.max, box.ok
}

// FindByName returns the first block with the given name.
func (d *Document) FindByName(name string) (Block, bool) {
	for _, b := range d.Blocks {
		if b != nil && b.BlockName() == name {
			return b, true
		}
	}
	return nil, false
}

// CountByKind tallies blocks per kind.
func (d *Document) CountByKind() map[BlockKind]int {
	counts := make(map[BlockKind]int)
	for _, b := range d.Blocks {
		if b != nil {
			counts[b.Kind()]++
		}
	}
	return counts
}
