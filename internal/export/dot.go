package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/scenerc/pkg/scene"
	"github.com/Faultbox/scenerc/pkg/scene/graph"
)

// DotExporter renders the scene graph as a graphviz digraph. Parent links
// point upwards; the link from a first child is drawn in both directions.
// Sibling links are purple and keep siblings on one rank. End points carry a
// trailing " *" in their label.
type DotExporter struct{}

// WriteToFile writes <dir>/<scene name>.dot, creating dir if needed.
func (d DotExporter) WriteToFile(dir string, s *scene.Scene) (string, error) {
	path := filepath.Join(dir, s.GetName()+".dot")
	if err := EnsureTargetFolderExists(path); err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating dot file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := d.Write(w, s); err != nil {
		return "", err
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("writing dot file: %w", err)
	}
	return path, nil
}

// Write renders s to w.
func (DotExporter) Write(w io.Writer, s *scene.Scene) error {
	g := s.GetGraph()
	var b strings.Builder

	fmt.Fprintf(&b, "digraph %s\n{\n    rankdir=\"BT\"", dotID(s.GetName(), 's'))
	for i := 0; i < g.GetNodeCount(); i++ {
		node := graph.NodeIndex(i)
		name := g.GetNodeName(node)

		label := graph.GetShortName(name)
		if g.IsNodeEndPoint(node) {
			label += " *"
		}
		fmt.Fprintf(&b, "\n    %s [label=%q", dotID(name, 'n'), label)
		if content := g.GetNodeContent(node); content != nil {
			fmt.Fprintf(&b, ", style=filled, fillcolor=lightgray, tooltip=%q", content.TypeName())
		}
		b.WriteByte(']')

		if g.HasNodeParent(node) {
			parent := g.GetNodeParent(node)
			fmt.Fprintf(&b, "\n    %s -> %s", dotID(name, 'n'), dotID(g.GetNodeName(parent), 'n'))
			if g.GetNodeChild(parent) == node {
				b.WriteString(" [dir=both, color=blue]")
			}
		}
		if g.HasNodeSibling(node) {
			sibling := dotID(g.GetNodeName(g.GetNodeSibling(node)), 'n')
			fmt.Fprintf(&b, "\n    %s -> %s [color=purple]\n    {rank=same; %s %s}", dotID(name, 'n'), sibling, sibling, dotID(name, 'n'))
		}
	}
	b.WriteString("\n}\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("writing dot graph: %w", err)
	}
	return nil
}

// dotID turns a node path into a quoted graphviz identifier. The prefix keeps
// the root, whose path is empty, addressable.
func dotID(name string, prefix byte) string {
	return fmt.Sprintf("%q", string(prefix)+name)
}
