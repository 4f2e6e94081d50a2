package selection

import (
	"github.com/Faultbox/scenerc/pkg/scene/data"
	"github.com/Faultbox/scenerc/pkg/scene/graph"
)

// Filter decides whether a selected node becomes an export target.
type Filter func(g *graph.Graph, node graph.NodeIndex) bool

// IsMesh keeps nodes holding mesh data.
func IsMesh(g *graph.Graph, node graph.NodeIndex) bool {
	_, ok := graph.ContentAs[*data.MeshData](g, node)
	return ok
}

// IsTreeViewType keeps every node except the root and end points.
func IsTreeViewType(g *graph.Graph, node graph.NodeIndex) bool {
	return node != g.Root() && !g.IsNodeEndPoint(node)
}

// All accepts every node.
func All(*graph.Graph, graph.NodeIndex) bool {
	return true
}

type pathSet map[string]struct{}

func (s pathSet) has(path string) bool {
	_, ok := s[path]
	return ok
}

func (s pathSet) add(path string) {
	s[path] = struct{}{}
}

// snapshot copies the list into sets. The root is always selected.
func snapshot(g *graph.Graph, list *List) (selected, unselected pathSet) {
	selected = make(pathSet, len(list.Selected)+1)
	unselected = make(pathSet, len(list.Unselected))
	for _, path := range list.Selected {
		selected.add(path)
	}
	for _, path := range list.Unselected {
		unselected.add(path)
	}
	root := g.GetNodeName(g.Root())
	selected.add(root)
	delete(unselected, root)
	return selected, unselected
}

// GenerateTargetNodes resolves the list against the graph and returns the
// paths to export in breadth-first order. Nodes that are neither selected nor
// unselected inherit their parent's state.
func GenerateTargetNodes(g *graph.Graph, list *List, filter Filter) []string {
	if filter == nil {
		filter = All
	}
	selected, unselected := snapshot(g, list)

	var targets []string
	for node := range g.BreadthFirstFrom(g.Root()) {
		if node == g.Root() {
			continue
		}
		name := g.GetNodeName(node)
		if unselected.has(name) {
			continue
		}
		if selected.has(name) {
			if filter(g, node) {
				targets = append(targets, name)
			}
			continue
		}

		parent := g.GetNodeName(g.GetNodeParent(node))
		if unselected.has(parent) {
			unselected.add(name)
		} else if selected.has(parent) {
			selected.add(name)
			if filter(g, node) {
				targets = append(targets, name)
			}
		}
	}
	return targets
}

// SelectAll selects every node except the root and end points.
func SelectAll(g *graph.Graph, list *List) {
	list.Clear()
	for node := range g.DepthFirst() {
		if node != g.Root() && !g.IsNodeEndPoint(node) {
			list.AddSelectedNode(g.GetNodeName(node))
		}
	}
}

// UnselectAll marks every node except the root and end points as unselected.
func UnselectAll(g *graph.Graph, list *List) {
	list.Clear()
	for node := range g.DepthFirst() {
		if node != g.Root() && !g.IsNodeEndPoint(node) {
			list.RemoveSelectedNode(g.GetNodeName(node))
		}
	}
}

// UpdateNodeSelection rewrites the list so every non end point node of the
// graph is explicitly selected or unselected. Paths that no longer exist are
// dropped.
func UpdateNodeSelection(g *graph.Graph, list *List) {
	selected, unselected := snapshot(g, list)
	list.Clear()

	for node := range g.BreadthFirstFrom(g.Root()) {
		if node == g.Root() || g.IsNodeEndPoint(node) {
			continue
		}
		name := g.GetNodeName(node)
		switch {
		case unselected.has(name):
			list.RemoveSelectedNode(name)
		case selected.has(name):
			list.AddSelectedNode(name)
		case unselected.has(g.GetNodeName(g.GetNodeParent(node))):
			unselected.add(name)
			list.RemoveSelectedNode(name)
		default:
			selected.add(name)
			list.AddSelectedNode(name)
		}
	}
}

// UpdateTargetNodes selects the filtered nodes found in targets and
// unselects the other filtered nodes.
func UpdateTargetNodes(g *graph.Graph, list *List, targets []string, filter Filter) {
	if filter == nil {
		filter = All
	}
	wanted := make(pathSet, len(targets))
	for _, t := range targets {
		wanted.add(t)
	}

	list.Clear()
	for node := range g.DepthFirst() {
		if node == g.Root() || !filter(g, node) {
			continue
		}
		name := g.GetNodeName(node)
		if wanted.has(name) {
			list.AddSelectedNode(name)
		} else {
			list.RemoveSelectedNode(name)
		}
	}
}
