// Package transform builds a MyST mdast tree from a parsed input doctree.
// It supplies one handler per input node type to the walk dispatcher and
// maintains the output-construction state: a stack of open output nodes, a
// scoped heading depth counter, and recoverable diagnostics.
package transform

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/mystbuilder/internal/doctree"
	"git.home.luguber.info/inful/mystbuilder/internal/label"
	"git.home.luguber.info/inful/mystbuilder/internal/logfields"
	"git.home.luguber.info/inful/mystbuilder/internal/metrics"
	"git.home.luguber.info/inful/mystbuilder/internal/myst"
	"git.home.luguber.info/inful/mystbuilder/internal/walk"
)

// Transformer converts one input tree at a time into a MyST tree. It owns
// mutable traversal state and must not be shared across concurrent walks;
// create one Transformer per goroutine.
type Transformer struct {
	handlers walk.Registry
	walker   *walk.Walker
	rec      metrics.Recorder
	logger   *slog.Logger

	stack        []*myst.Node
	headingDepth int
	result       *myst.Node
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithRecorder wires a metrics recorder for diagnostic counters.
func WithRecorder(rec metrics.Recorder) Option {
	return func(t *Transformer) { t.rec = rec }
}

// WithLogger sets the logger used for recoverable diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transformer) { t.logger = logger }
}

// New returns a Transformer with the full handler registry installed.
func New(opts ...Option) *Transformer {
	t := &Transformer{
		rec:    metrics.NoopRecorder{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.handlers = t.newRegistry()
	return t
}

// Transform walks the input tree and returns the finished root node
// (type "root"). On error no output is produced; the result is published
// only after the document node's leave phase completes.
func (t *Transformer) Transform(root doctree.Node) (*myst.Node, error) {
	t.stack = nil
	t.headingDepth = 0
	t.result = nil
	t.walker = walk.New(t.handlers)

	if err := t.walker.Walk(root); err != nil {
		return nil, err
	}
	if t.result == nil {
		return nil, fmt.Errorf("input tree produced no document root")
	}
	return t.result, nil
}

// parent returns the output node currently open for new children, or nil
// before the root is opened.
func (t *Transformer) parent() *myst.Node {
	if len(t.stack) == 0 {
		return nil
	}
	return t.stack[len(t.stack)-1]
}

// push appends a finished leaf to the current parent without opening a scope.
func (t *Transformer) push(n *myst.Node, src doctree.Node) {
	if p := t.parent(); p != nil {
		p.Children = append(p.Children, n)
	}
	if src != nil {
		t.inherit(n, src)
	}
}

// open appends n to the current parent and pushes it as the parent for the
// input node's subtree. The returned result's Leave pops it again.
func (t *Transformer) open(n *myst.Node, src doctree.Node) walk.Result {
	if p := t.parent(); p != nil {
		p.Children = append(p.Children, n)
	}
	t.stack = append(t.stack, n)
	if src != nil {
		t.inherit(n, src)
	}
	return walk.Result{Leave: t.pop}
}

func (t *Transformer) pop() error {
	t.stack = t.stack[:len(t.stack)-1]
	return nil
}

// inherit attaches cross-reference metadata when the input node carries ids.
// With more than one id the longest wins (first occurrence on ties); that is
// a recoverable diagnostic, not an error.
func (t *Transformer) inherit(n *myst.Node, src doctree.Node) {
	ids := src.IDs()
	if len(ids) == 0 {
		return
	}
	chosen := ids[0]
	if len(ids) > 1 {
		for _, id := range ids[1:] {
			if len(id) > len(chosen) {
				chosen = id
			}
		}
		t.diag("multiple_ids", "node carries multiple ids",
			logfields.NodeType(src.Type()),
			slog.Any("ids", ids),
			slog.String("using", chosen))
	}
	identifier, lbl, _, ok := label.Normalize(chosen)
	if !ok {
		return
	}
	n.Identifier = identifier
	n.Label = lbl
}

// diag reports a recoverable condition: logged loudly, counted, walk continues.
func (t *Transformer) diag(kind, msg string, attrs ...slog.Attr) {
	t.rec.IncDiagnostic(kind)
	attrs = append([]slog.Attr{logfields.Diagnostic(kind)}, attrs...)
	t.logger.LogAttrs(context.Background(), slog.LevelWarn, msg, attrs...)
}
