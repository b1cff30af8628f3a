package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Faultbox/awdkit/pkg/awd"
)

func newTreeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree <file.awd>",
		Short: "Print the scene graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			doc, _, err := a.load(args[0])
			if err != nil {
				return err
			}
			a.printTree(doc)
			return nil
		},
	}
}

func (a *app) printTree(doc *awd.Document) {
	roots := doc.Roots()
	for _, root := range roots {
		a.printNode(root, "", "")
	}
	other := len(doc.Blocks) - len(doc.SceneNodes())
	if other > 0 {
		fmt.Fprintln(a.out, styleKind.Render(fmt.Sprintf("(%d non-scene blocks)", other)))
	}
}

func (a *app) printNode(n *awd.SceneNode, prefix, childPrefix string) {
	fmt.Fprintf(a.out, "%s%s %s%s%s%s\n", prefix, styleName.Render(displayName(n.Name)),
		styleKind.Render("["+n.Kind().String()+"]"), placement(n), parentSummary(n), meshSummary(n))

	children := n.Children()
	for i, c := range children {
		if i == len(children)-1 {
			a.printNode(c, childPrefix+"└── ", childPrefix+"    ")
		} else {
			a.printNode(c, childPrefix+"├── ", childPrefix+"│   ")
		}
	}
}

// placement shows the local translation of nodes that are not at the
// identity transform.
func placement(n *awd.SceneNode) string {
	if n.Transform.IsIdentity() {
		return ""
	}
	t := n.Transform.Translation()
	return fmt.Sprintf(" at (%g, %g, %g)", t.X, t.Y, t.Z)
}

func parentSummary(n *awd.SceneNode) string {
	if idx, ok := n.UnresolvedParent(); ok {
		return " parent=" + styleWarning.Render(fmt.Sprintf("#%d?", idx))
	}
	return ""
}

func meshSummary(n *awd.SceneNode) string {
	if n.Mesh == nil {
		return ""
	}
	var b strings.Builder
	if g, ok := n.Mesh.Geometry.Get(); ok {
		fmt.Fprintf(&b, " geometry=%s (%d verts, %d tris)", displayName(g.Name), g.VertexCount(), g.TriangleCount())
	} else if n.Mesh.Geometry.Dangling() {
		fmt.Fprintf(&b, " geometry=%s", styleWarning.Render(fmt.Sprintf("#%d?", n.Mesh.Geometry.Index())))
	}
	var names []string
	for _, ref := range n.Mesh.Materials {
		if m, ok := ref.Get(); ok {
			names = append(names, displayName(m.Name))
		} else {
			names = append(names, styleWarning.Render(fmt.Sprintf("#%d?", ref.Index())))
		}
	}
	if len(names) > 0 {
		fmt.Fprintf(&b, " materials=%s", strings.Join(names, ","))
	}
	return b.String()
}

func displayName(name string) string {
	if name == "" {
		return "<unnamed>"
	}
	return name
}
