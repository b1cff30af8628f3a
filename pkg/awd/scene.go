package awd

import (
	"fmt"

	"github.com/Faultbox/awdkit/pkg/awd/property"
	"github.com/Faultbox/awdkit/pkg/math"
)

// SceneNode is a placed object in the scene graph: a container, or a mesh
// instance when Mesh is set. Parent and children are kept symmetric by
// SetParent, AddChild and RemoveChild.
type SceneNode struct {
	blockMeta

	Name       string
	Transform  math.Mat4
	Properties property.Table
	// Mesh is nil for plain containers.
	Mesh *MeshInstance

	parent   *SceneNode
	children []*SceneNode

	// pendingParent is the decoded parent index until the tree is built.
	pendingParent int
	// lostParent holds a decoded parent index that did not resolve to a
	// scene node. It blocks encoding until the parent is set again.
	lostParent Ref[*SceneNode]
}

// MeshInstance holds the renderable part of a mesh-instance node.
type MeshInstance struct {
	Geometry  Ref[*MeshGeometry]
	Materials []Ref[*Material]
}

// NewContainer returns a detached container with an identity transform.
func NewContainer(name string) *SceneNode {
	return &SceneNode{Name: name, Transform: math.Identity(), pendingParent: -1}
}

// NewMeshInstance returns a detached mesh instance with an identity transform.
func NewMeshInstance(name string, geometry *MeshGeometry, materials ...*Material) *SceneNode {
	n := NewContainer(name)
	n.Mesh = &MeshInstance{Geometry: Link(geometry)}
	for _, m := range materials {
		n.Mesh.Materials = append(n.Mesh.Materials, Link(m))
	}
	return n
}

// Kind returns KindMeshInstance when Mesh is set, KindContainer otherwise.
func (n *SceneNode) Kind() BlockKind {
	if n.Mesh != nil {
		return KindMeshInstance
	}
	return KindContainer
}

func (n *SceneNode) BlockName() string { return n.Name }

// Parent returns the parent node, or nil for a root.
func (n *SceneNode) Parent() *SceneNode {
	return n.parent
}

// UnresolvedParent returns the raw block index of a decoded parent that was
// out of range or not a scene node. Such a node is a root until SetParent
// or AddChild places it.
func (n *SceneNode) UnresolvedParent() (int, bool) {
	return n.lostParent.Index(), n.lostParent.Dangling()
}

// Children returns a copy of the child list in insertion order.
func (n *SceneNode) Children() []*SceneNode {
	out := make([]*SceneNode, len(n.children))
	copy(out, n.children)
	return out
}

// NumChildren returns the number of direct children.
func (n *SceneNode) NumChildren() int {
	return len(n.children)
}

// SetParent moves n under parent, or detaches it when parent is nil. It
// clears any unresolved parent left by decoding. Attaching a node under itself or one of its descendants fails with
// ErrCycleDetected and leaves the graph unchanged.
func (n *SceneNode) SetParent(parent *SceneNode) error {
	if parent != nil && n.IsAncestorOf(parent) {
		return fmt.Errorf("%w: %q cannot become a child of %q", ErrCycleDetected, n.Name, parent.Name)
	}
	n.lostParent = Ref[*SceneNode]{}
	if parent == n.parent {
		return nil
	}
	if old := n.parent; old != nil {
		old.children = removeNode(old.children, n)
	}
	n.parent = parent
	if parent != nil {
		parent.children = append(parent.children, n)
	}
	return nil
}

// SetParentKeepWorld reparents n like SetParent but rewrites its local
// Transform so that its world transform stays the same. It fails when the
// new parent's world transform cannot be inverted.
func (n *SceneNode) SetParentKeepWorld(parent *SceneNode) error {
	local := n.WorldTransform()
	if parent != nil {
		pw := parent.WorldTransform()
		if pw.Det() == 0 {
			return fmt.Errorf("awd: %q has a singular world transform", parent.Name)
		}
		local = pw.Inverse().Mul(local)
	}
	if err := n.SetParent(parent); err != nil {
		return err
	}
	n.Transform = local
	return nil
}

// AddChild attaches child under n. Adding an existing child is a no-op;
// a child attached elsewhere is moved.
func (n *SceneNode) AddChild(child *SceneNode) error {
	if child == nil {
		return nil
	}
	return child.SetParent(n)
}

// RemoveChild detaches child if it is a child of n.
func (n *SceneNode) RemoveChild(child *SceneNode) {
	if child == nil || child.parent != n {
		return
	}
	child.parent = nil
	n.children = removeNode(n.children, child)
}

// IsAncestorOf reports whether n is other or one of its ancestors.
func (n *SceneNode) IsAncestorOf(other *SceneNode) bool {
	for p := other; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// Root returns the topmost ancestor of n.
func (n *SceneNode) Root() *SceneNode {
	root := n
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// Depth returns the number of ancestors of n.
func (n *SceneNode) Depth() int {
	d := 0
	for p := n.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// Path returns the names from the root down to n.
func (n *SceneNode) Path() []string {
	path := make([]string, n.Depth()+1)
	i := len(path) - 1
	for p := n; p != nil; p = p.parent {
		path[i] = p.Name
		i--
	}
	return path
}

// WorldTransform composes the transforms from the root down to n.
func (n *SceneNode) WorldTransform() math.Mat4 {
	m := n.Transform
	for p := n.parent; p != nil; p = p.parent {
		m = p.Transform.Mul(m)
	}
	return m
}

// WorldBounds returns the axis-aligned box around the mesh's vertices in
// world space. ok is false for containers and meshes without resolved
// geometry or vertices.
func (n *SceneNode) WorldBounds() (lo, hi math.Vec3, ok bool) {
	if n.Mesh == nil {
		return lo, hi, false
	}
	g, linked := n.Mesh.Geometry.Get()
	if !linked {
		return lo, hi, false
	}
	world := n.WorldTransform()
	var box bounds
	g.eachPosition(func(p math.Vec3) {
		box.add(world.TransformPoint(p))
	})
	return box.min, box.max, box.ok
}

// Walk visits n and its descendants in pre-order. Returning an error from
// fn stops the walk.
func (n *SceneNode) Walk(fn func(node *SceneNode, depth int) error) error {
	return n.walk(fn, 0)
}

func (n *SceneNode) walk(fn func(*SceneNode, int) error, depth int) error {
	if err := fn(n, depth); err != nil {
		return err
	}
	for _, c := range n.children {
		if err := c.walk(fn, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (n *SceneNode) resolve(res *resolver) {
	if n.Mesh == nil {
		return
	}
	res = res.forBlock(n)
	resolveRef(res, &n.Mesh.Geometry, "geometry")
	for i := range n.Mesh.Materials {
		resolveRef(res, &n.Mesh.Materials[i], fmt.Sprintf("material %d", i))
	}
}

func removeNode(list []*SceneNode, n *SceneNode) []*SceneNode {
	out := list[:0]
	for _, c := range list {
		if c != n {
			out = append(out, c)
		}
	}
	for i := len(out); i < len(list); i++ {
		list[i] = nil
	}
	return out
}
