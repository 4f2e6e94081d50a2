package graph

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepthFirstOrder(t *testing.T) {
	g := buildTree(t)
	// Nodes added out of depth-first order must still be visited depth-first.
	mustAddChild(t, g, g.Find("a.a1"), "deep")

	got := names(g, slices.Collect(g.DepthFirst()))
	want := []string{"", "a", "a.a1", "a.a1.deep", "a.a2", "b", "b.b1"}
	assert.Equal(t, want, got)
}

func TestDepthFirstIsStable(t *testing.T) {
	g := buildTree(t)
	first := slices.Collect(g.DepthFirst())
	second := slices.Collect(g.DepthFirst())
	assert.Equal(t, first, second)
}

func TestDepthFirstFrom(t *testing.T) {
	g := buildTree(t)
	got := names(g, slices.Collect(g.DepthFirstFrom(g.Find("a"))))
	assert.Equal(t, []string{"a", "a.a1", "a.a2"}, got)

	assert.Empty(t, slices.Collect(g.DepthFirstFrom(InvalidIndex)))
}

func TestBreadthFirstFrom(t *testing.T) {
	g := buildTree(t)
	got := names(g, slices.Collect(g.BreadthFirstFrom(g.Root())))
	assert.Equal(t, []string{"", "a", "b", "a.a1", "a.a2", "b.b1"}, got)
}

func TestUpwards(t *testing.T) {
	g := buildTree(t)
	got := names(g, slices.Collect(g.Upwards(g.Find("b.b1"))))
	assert.Equal(t, []string{"b.b1", "b", ""}, got)
}

func TestEarlyStop(t *testing.T) {
	g := buildTree(t)
	count := 0
	for range g.DepthFirst() {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestContents(t *testing.T) {
	g := buildTree(t)

	var got []string
	for node, c := range g.Contents() {
		require.NotNil(t, c)
		got = append(got, g.GetNodeName(node))
	}
	assert.Equal(t, []string{"a.a1", "b", "b.b1"}, got)
}

func TestContentOf(t *testing.T) {
	g := buildTree(t)

	var ids []int
	for _, c := range ContentOf[*testContent](g) {
		ids = append(ids, c.id)
	}
	assert.Equal(t, []int{1, 2}, ids)

	var others []string
	for node := range ContentOf[otherContent](g) {
		others = append(others, g.GetNodeName(node))
	}
	assert.Equal(t, []string{"b.b1"}, others)
}

func TestChildren(t *testing.T) {
	g := buildTree(t)
	got := names(g, slices.Collect(g.Children(g.Find("a"))))
	assert.Equal(t, []string{"a.a1", "a.a2"}, got)

	var children []string
	for node := range ChildContentOf[*testContent](g, g.Find("a")) {
		children = append(children, g.GetNodeName(node))
	}
	assert.Equal(t, []string{"a.a1"}, children)
}
