// Package graph implements the scene graph: an ordered, single-rooted tree of
// named nodes stored in an index-addressed arena. Nodes optionally carry a
// shared content payload.
package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Separator joins node names into a full path.
const Separator = '.'

// Graph errors.
var (
	ErrInvalidIndex  = errors.New("invalid node index")
	ErrInvalidName   = errors.New("invalid node name")
	ErrDuplicateName = errors.New("duplicate node name")
	ErrEndPoint      = errors.New("node is an end point")
)

// NodeIndex addresses a node in the graph arena. Indices are stable for the
// lifetime of the graph.
type NodeIndex int32

// InvalidIndex is returned when a node could not be found or created.
const InvalidIndex NodeIndex = -1

// IsValid reports whether the index refers to a node.
func (i NodeIndex) IsValid() bool {
	return i >= 0
}

// Content is a payload attached to a graph node. TypeName identifies the
// payload kind for display and diagnostics; consumers filter by Go type.
type Content interface {
	TypeName() string
}

type nodeHeader struct {
	parent   NodeIndex
	child    NodeIndex
	sibling  NodeIndex
	endPoint bool
}

// Graph is the scene graph. The zero value is not usable; use New.
type Graph struct {
	hierarchy []nodeHeader
	names     []string
	contents  []Content
	lookup    map[string]NodeIndex
}

// New returns a graph containing only the root node.
func New() *Graph {
	g := &Graph{}
	g.Clear()
	return g
}

// Clear removes every node except the root.
func (g *Graph) Clear() {
	g.hierarchy = []nodeHeader{{parent: InvalidIndex, child: InvalidIndex, sibling: InvalidIndex}}
	g.names = []string{""}
	g.contents = []Content{nil}
	g.lookup = map[string]NodeIndex{"": 0}
}

// Root returns the index of the root node.
func (g *Graph) Root() NodeIndex {
	return 0
}

// GetNodeCount returns the number of nodes including the root.
func (g *Graph) GetNodeCount() int {
	return len(g.hierarchy)
}

// IsValidName reports whether name can be used as a short node name.
func IsValidName(name string) bool {
	return name != "" && strings.IndexByte(name, Separator) < 0
}

// GetShortName returns the last path element of a full node name.
func GetShortName(fullName string) string {
	if i := strings.LastIndexByte(fullName, Separator); i >= 0 {
		return fullName[i+1:]
	}
	return fullName
}

// JoinName appends name to a parent's full path.
func JoinName(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + string(Separator) + name
}

func (g *Graph) valid(i NodeIndex) bool {
	return i >= 0 && int(i) < len(g.hierarchy)
}

// AddChild appends a new node named name as the last child of parent.
// An optional content payload may be attached at creation.
func (g *Graph) AddChild(parent NodeIndex, name string, content ...Content) (NodeIndex, error) {
	if !g.valid(parent) {
		return InvalidIndex, fmt.Errorf("%w: parent %d", ErrInvalidIndex, parent)
	}
	if g.hierarchy[parent].endPoint {
		return InvalidIndex, fmt.Errorf("%w: %q", ErrEndPoint, g.names[parent])
	}

	index, err := g.appendNode(parent, name, content)
	if err != nil {
		return InvalidIndex, err
	}

	if first := g.hierarchy[parent].child; first.IsValid() {
		last := first
		for g.hierarchy[last].sibling.IsValid() {
			last = g.hierarchy[last].sibling
		}
		g.hierarchy[last].sibling = index
	} else {
		g.hierarchy[parent].child = index
	}
	return index, nil
}

// AddSibling appends a new node named name at the end of sibling's chain of
// siblings. The root has no siblings.
func (g *Graph) AddSibling(sibling NodeIndex, name string, content ...Content) (NodeIndex, error) {
	if !g.valid(sibling) || !g.hierarchy[sibling].parent.IsValid() {
		return InvalidIndex, fmt.Errorf("%w: sibling %d", ErrInvalidIndex, sibling)
	}

	parent := g.hierarchy[sibling].parent
	index, err := g.appendNode(parent, name, content)
	if err != nil {
		return InvalidIndex, err
	}

	last := sibling
	for g.hierarchy[last].sibling.IsValid() {
		last = g.hierarchy[last].sibling
	}
	g.hierarchy[last].sibling = index
	return index, nil
}

// appendNode validates name and allocates the arena slot. Links are left to
// the caller.
func (g *Graph) appendNode(parent NodeIndex, name string, content []Content) (NodeIndex, error) {
	if !IsValidName(name) {
		return InvalidIndex, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	fullName := JoinName(g.names[parent], name)
	if _, exists := g.lookup[fullName]; exists {
		return InvalidIndex, fmt.Errorf("%w: %q", ErrDuplicateName, fullName)
	}

	var payload Content
	if len(content) > 0 {
		payload = content[0]
	}

	index := NodeIndex(len(g.hierarchy))
	g.hierarchy = append(g.hierarchy, nodeHeader{parent: parent, child: InvalidIndex, sibling: InvalidIndex})
	g.names = append(g.names, fullName)
	g.contents = append(g.contents, payload)
	g.lookup[fullName] = index
	return index, nil
}

// SetContent attaches or replaces the payload of a node. Passing nil removes it.
func (g *Graph) SetContent(node NodeIndex, content Content) error {
	if !g.valid(node) {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, node)
	}
	g.contents[node] = content
	return nil
}

// HasNodeContent reports whether node carries a payload.
func (g *Graph) HasNodeContent(node NodeIndex) bool {
	return g.valid(node) && g.contents[node] != nil
}

// GetNodeContent returns the node payload, or nil when there is none.
func (g *Graph) GetNodeContent(node NodeIndex) Content {
	if !g.valid(node) {
		return nil
	}
	return g.contents[node]
}

// ContentAs returns the payload of node if it has Go type T.
func ContentAs[T any](g *Graph, node NodeIndex) (T, bool) {
	value, ok := g.GetNodeContent(node).(T)
	return value, ok
}

// MakeEndPoint marks node as an end point. End points cannot have children;
// they hold data that belongs to their parent.
func (g *Graph) MakeEndPoint(node NodeIndex) error {
	if !g.valid(node) {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, node)
	}
	g.hierarchy[node].endPoint = true
	return nil
}

// IsNodeEndPoint reports whether node is an end point.
func (g *Graph) IsNodeEndPoint(node NodeIndex) bool {
	return g.valid(node) && g.hierarchy[node].endPoint
}

// Find resolves a full node path. The empty path is the root.
func (g *Graph) Find(path string) NodeIndex {
	if index, ok := g.lookup[path]; ok {
		return index
	}
	return InvalidIndex
}

// FindFrom resolves a path relative to root.
func (g *Graph) FindFrom(root NodeIndex, path string) NodeIndex {
	if !g.valid(root) {
		return InvalidIndex
	}
	return g.Find(JoinName(g.names[root], path))
}

// GetNodeName returns the full path of node, or "" for invalid indices.
func (g *Graph) GetNodeName(node NodeIndex) string {
	if !g.valid(node) {
		return ""
	}
	return g.names[node]
}

// GetNodeParent returns the parent of node or InvalidIndex.
func (g *Graph) GetNodeParent(node NodeIndex) NodeIndex {
	if !g.valid(node) {
		return InvalidIndex
	}
	return g.hierarchy[node].parent
}

// GetNodeChild returns the first child of node or InvalidIndex.
func (g *Graph) GetNodeChild(node NodeIndex) NodeIndex {
	if !g.valid(node) {
		return InvalidIndex
	}
	return g.hierarchy[node].child
}

// GetNodeSibling returns the next sibling of node or InvalidIndex.
func (g *Graph) GetNodeSibling(node NodeIndex) NodeIndex {
	if !g.valid(node) {
		return InvalidIndex
	}
	return g.hierarchy[node].sibling
}

// HasNodeParent reports whether node has a parent.
func (g *Graph) HasNodeParent(node NodeIndex) bool {
	return g.GetNodeParent(node).IsValid()
}

// HasNodeChild reports whether node has children.
func (g *Graph) HasNodeChild(node NodeIndex) bool {
	return g.GetNodeChild(node).IsValid()
}

// HasNodeSibling reports whether node has a next sibling.
func (g *Graph) HasNodeSibling(node NodeIndex) bool {
	return g.GetNodeSibling(node).IsValid()
}
