// Package walk implements a generic depth-first dispatcher over a parsed
// input tree. A handler is looked up per node by type discriminator and may
// answer in one of three shapes: an immediate result, a traversal-control
// signal (skip this node's children, or skip its remaining siblings), or a
// two-phase result carrying a Leave func that runs after the node's subtree
// has been walked. Leave runs exactly once per successful enter, even when
// the children were skipped.
package walk

import "git.home.luguber.info/inful/mystbuilder/internal/doctree"

// Control alters how the traversal proceeds after a handler returns.
type Control uint8

const (
	// Continue descends into the node's children as usual.
	Continue Control = iota
	// SkipChildren does not descend into this node's children. The node's
	// own Leave func, if any, still runs.
	SkipChildren
	// SkipSiblings does not descend into this node's children and skips
	// every not-yet-visited sibling of this node at the same level.
	// Ancestors and earlier siblings are unaffected; the node's own Leave
	// still runs.
	SkipSiblings
)

// LeaveFunc is the second phase of a two-phase handler. It runs after the
// node's subtree has been walked (or immediately if descent was skipped).
type LeaveFunc func() error

// Result is a handler's answer for one node. The zero value means "nothing
// to do": no continuation, descend normally.
type Result struct {
	Control Control
	Leave   LeaveFunc
}

// HandlerFunc handles one input node. An error aborts the walk immediately;
// the node's Leave is not registered and pending leaves of ancestors do not
// run.
type HandlerFunc func(n doctree.Node) (Result, error)

// Registry maps type discriminators to handlers. A walk over a node whose
// discriminator is missing from the registry fails; there is no default.
type Registry map[string]HandlerFunc

// Walker performs one depth-first traversal at a time. It is not safe for
// concurrent use; create one Walker per traversal.
type Walker struct {
	handlers Registry
	parents  []doctree.Node
	pending  map[doctree.Node]LeaveFunc
}

// New returns a Walker dispatching to the given registry.
func New(handlers Registry) *Walker {
	return &Walker{handlers: handlers}
}

// Parent returns the input-side parent of the node currently being handled,
// or nil at the root. Valid only from inside a handler or Leave func.
func (w *Walker) Parent() doctree.Node {
	if len(w.parents) == 0 {
		return nil
	}
	return w.parents[len(w.parents)-1]
}

// Walk traverses the tree rooted at root in depth-first pre-order. Continuation
// state is scoped to this call and cleared on return, error or not.
func (w *Walker) Walk(root doctree.Node) error {
	w.pending = make(map[doctree.Node]LeaveFunc)
	w.parents = w.parents[:0]
	defer func() {
		w.pending = nil
		w.parents = nil
	}()
	_, err := w.walk(root)
	return err
}

// walk visits one node and its subtree. The returned bool asks the caller to
// stop visiting this node's remaining siblings.
func (w *Walker) walk(n doctree.Node) (bool, error) {
	h, ok := w.handlers[n.Type()]
	if !ok {
		return false, &UnknownTypeError{Type: n.Type()}
	}

	res, err := h(n)
	if err != nil {
		return false, err
	}
	if res.Leave != nil {
		// Keyed by node identity; entries for nodes whose subtree is
		// never finished are discarded wholesale when Walk returns.
		w.pending[n] = res.Leave
	}

	if res.Control == Continue {
		w.parents = append(w.parents, n)
		for _, child := range n.Children() {
			stop, err := w.walk(child)
			if err != nil {
				return false, err
			}
			if stop {
				break
			}
		}
		w.parents = w.parents[:len(w.parents)-1]
	}

	// A miss is fine: the enter phase declined to register a continuation.
	if leave, ok := w.pending[n]; ok {
		delete(w.pending, n)
		if err := leave(); err != nil {
			return false, err
		}
	}

	return res.Control == SkipSiblings, nil
}
