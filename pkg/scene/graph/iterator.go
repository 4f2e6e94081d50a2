package graph

import "iter"

// DepthFirst visits every node in pre-order starting at the root.
func (g *Graph) DepthFirst() iter.Seq[NodeIndex] {
	return g.DepthFirstFrom(g.Root())
}

// DepthFirstFrom visits start and its descendants in pre-order. Parents come
// before children and sibling order is preserved.
func (g *Graph) DepthFirstFrom(start NodeIndex) iter.Seq[NodeIndex] {
	return func(yield func(NodeIndex) bool) {
		if !g.valid(start) {
			return
		}
		if !yield(start) {
			return
		}

		stack := []NodeIndex{}
		if child := g.hierarchy[start].child; child.IsValid() {
			stack = append(stack, child)
		}
		for len(stack) > 0 {
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(node) {
				return
			}
			// Sibling first so the child is popped next.
			if sibling := g.hierarchy[node].sibling; sibling.IsValid() {
				stack = append(stack, sibling)
			}
			if child := g.hierarchy[node].child; child.IsValid() {
				stack = append(stack, child)
			}
		}
	}
}

// BreadthFirstFrom visits start and its descendants level by level.
func (g *Graph) BreadthFirstFrom(start NodeIndex) iter.Seq[NodeIndex] {
	return func(yield func(NodeIndex) bool) {
		if !g.valid(start) {
			return
		}
		queue := []NodeIndex{start}
		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			if !yield(node) {
				return
			}
			for child := g.hierarchy[node].child; child.IsValid(); child = g.hierarchy[child].sibling {
				queue = append(queue, child)
			}
		}
	}
}

// Upwards visits start, its parent and so on up to the root.
func (g *Graph) Upwards(start NodeIndex) iter.Seq[NodeIndex] {
	return func(yield func(NodeIndex) bool) {
		for node := start; g.valid(node); node = g.hierarchy[node].parent {
			if !yield(node) {
				return
			}
		}
	}
}

// Children visits the direct children of node in order.
func (g *Graph) Children(node NodeIndex) iter.Seq[NodeIndex] {
	return func(yield func(NodeIndex) bool) {
		for child := g.GetNodeChild(node); child.IsValid(); child = g.hierarchy[child].sibling {
			if !yield(child) {
				return
			}
		}
	}
}

// Contents visits the nodes that carry a payload, in depth-first order.
func (g *Graph) Contents() iter.Seq2[NodeIndex, Content] {
	return func(yield func(NodeIndex, Content) bool) {
		for node := range g.DepthFirst() {
			if c := g.contents[node]; c != nil {
				if !yield(node, c) {
					return
				}
			}
		}
	}
}

// ContentOf visits the payloads of Go type T in depth-first order.
func ContentOf[T any](g *Graph) iter.Seq2[NodeIndex, T] {
	return func(yield func(NodeIndex, T) bool) {
		for node, c := range g.Contents() {
			if value, ok := c.(T); ok {
				if !yield(node, value) {
					return
				}
			}
		}
	}
}

// ChildContentOf visits the payloads of Go type T held by the direct children
// of node.
func ChildContentOf[T any](g *Graph, node NodeIndex) iter.Seq2[NodeIndex, T] {
	return func(yield func(NodeIndex, T) bool) {
		for child := range g.Children(node) {
			if value, ok := g.contents[child].(T); ok {
				if !yield(child, value) {
					return
				}
			}
		}
	}
}
