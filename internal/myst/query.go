package myst

import (
	"iter"
	"strings"
)

// BreadthFirst yields root and then its descendants level by level. The
// sequence is a single pass over the live tree; it is finite but not
// restartable once the underlying tree is mutated.
func BreadthFirst(root *Node) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		if root == nil {
			return
		}
		queue := []*Node{root}
		for len(queue) > 0 {
			n := queue[0]
			queue = queue[1:]
			if !yield(n) {
				return
			}
			queue = append(queue, n.Children...)
		}
	}
}

// DepthFirst yields root and its descendants using a simple stack-based walk.
// Pre-order, sibling order not guaranteed (children are pushed in bulk).
func DepthFirst(root *Node) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		if root == nil {
			return
		}
		stack := []*Node{root}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(n) {
				return
			}
			stack = append(stack, n.Children...)
		}
	}
}

// FindByType filters a breadth-first walk down to nodes whose Type equals typ.
func FindByType(typ string, root *Node) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for n := range BreadthFirst(root) {
			if n.Type == typ {
				if !yield(n) {
					return
				}
			}
		}
	}
}

// First returns the first node produced by seq, or nil.
func First(seq iter.Seq[*Node]) *Node {
	for n := range seq {
		return n
	}
	return nil
}

// ToText concatenates the Value of every value-carrying descendant of n, in
// document order. Used to flatten headings into plain titles.
func ToText(n *Node) string {
	var sb strings.Builder
	var visit func(*Node)
	visit = func(n *Node) {
		if n.Value != "" && len(n.Children) == 0 {
			sb.WriteString(n.Value)
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	if n != nil {
		visit(n)
	}
	return sb.String()
}
