// Package doctree models the parsed input document tree consumed by the
// transformation engine. The engine only ever needs a node's type
// discriminator, its ordered children, its identifier list, and a textual
// rendering; everything else stays with the producing parser.
package doctree

import "strings"

// Node is the read-only view of one parsed input node. Implementations are
// owned by the loaders; the transformation engine never mutates them.
type Node interface {
	// Type returns the discriminator used for handler dispatch, verbatim
	// from the source grammar (e.g. "paragraph", "bullet_list", "Text").
	Type() string
	Children() []Node
	// IDs returns the cross-reference identifiers attached to this node,
	// in source order. Usually empty or a single entry.
	IDs() []string
	// Attr returns a source-specific attribute value, or "".
	Attr(name string) string
	// Text returns the concatenated text content of the subtree.
	Text() string
}

// Element is a container node with a named type, attributes, and children.
type Element struct {
	Name       string
	Ids        []string
	Attributes map[string]string
	Kids       []Node
}

func (e *Element) Type() string     { return e.Name }
func (e *Element) Children() []Node { return e.Kids }
func (e *Element) IDs() []string    { return e.Ids }

func (e *Element) Attr(name string) string {
	return e.Attributes[name]
}

func (e *Element) Text() string {
	var sb strings.Builder
	for _, c := range e.Kids {
		sb.WriteString(c.Text())
	}
	return sb.String()
}

// Append adds children to e and returns e, for loader and test convenience.
func (e *Element) Append(kids ...Node) *Element {
	e.Kids = append(e.Kids, kids...)
	return e
}

// Text is a leaf carrying character data. Its discriminator is "Text",
// matching the source grammar's text node class.
type Text string

// TextType is the discriminator shared by all text leaves.
const TextType = "Text"

func (t Text) Type() string       { return TextType }
func (t Text) Children() []Node   { return nil }
func (t Text) IDs() []string      { return nil }
func (t Text) Attr(string) string { return "" }
func (t Text) Text() string       { return string(t) }
