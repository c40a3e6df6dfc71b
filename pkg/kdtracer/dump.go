package kdtracer

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a human-readable listing of the tree to w, one node per line,
// indented by depth.
func (t *Tree) Dump(w io.Writer) error {
	if t.Empty() {
		_, err := fmt.Fprintln(w, "<empty tree>")
		return err
	}

	return t.dumpNode(w, 0, 0)
}

func (t *Tree) dumpNode(w io.Writer, nodeIndex, depth int) error {
	node := t.nodes[nodeIndex]
	indent := strings.Repeat("  ", depth)

	if node.IsLeaf() {
		_, err := fmt.Fprintf(w, "%sNode %d [leaf, %d:%d]\n",
			indent, nodeIndex, node.PrimitiveStart(), node.PrimitiveStart()+node.PrimitiveCount())
		return err
	}

	_, err := fmt.Fprintf(w, "%sNode %d [internal, split at %c=%g]\n",
		indent, nodeIndex, 'x'+rune(node.Axis()), node.Split())
	if err != nil {
		return err
	}

	if err := t.dumpNode(w, nodeIndex+1, depth+1); err != nil {
		return err
	}

	return t.dumpNode(w, node.RightChild(), depth+1)
}

// DumpGraph writes the tree as a Graphviz digraph to w, labelling internal
// nodes with their split plane and leaves with their triangle counts.
func (t *Tree) DumpGraph(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "digraph kdtree {"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "\tnode[shape=none, style=\"rounded,filled\", fontcolor=\"#101010\"]"); err != nil {
		return err
	}

	if !t.Empty() {
		if err := t.dumpGraphNode(w, 0, -1); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(w, "}")
	return err
}

func (t *Tree) dumpGraphNode(w io.Writer, nodeIndex, parent int) error {
	node := t.nodes[nodeIndex]

	var label string
	if node.IsLeaf() {
		label = fmt.Sprintf("%d triangles", node.PrimitiveCount())
	} else {
		label = fmt.Sprintf("split %c at %g\\n%d subtriangles",
			'x'+rune(node.Axis()), node.Split(), len(t.GetTriangles(nodeIndex)))
	}

	if _, err := fmt.Fprintf(w, "\tNODE%d[label=\"%s\"];\n", nodeIndex, label); err != nil {
		return err
	}

	if parent >= 0 {
		if _, err := fmt.Fprintf(w, "\tNODE%d -> NODE%d;\n", parent, nodeIndex); err != nil {
			return err
		}
	}

	if node.IsInternal() {
		if err := t.dumpGraphNode(w, nodeIndex+1, nodeIndex); err != nil {
			return err
		}

		return t.dumpGraphNode(w, node.RightChild(), nodeIndex)
	}

	return nil
}
