// Package myst defines the MyST mdast node shape emitted by the transformer,
// plus query helpers over finished trees.
package myst

// Node is one node of the output document AST. Type discriminates the node
// kind; the scalar fields are populated per-type and omitted from JSON when
// unset so the serialized shape matches the MyST mdast schema.
type Node struct {
	Type       string  `json:"type"`
	Depth      int     `json:"depth,omitempty"`
	Ordered    bool    `json:"ordered,omitempty"`
	URL        string  `json:"url,omitempty"`
	Kind       string  `json:"kind,omitempty"`
	Lang       string  `json:"lang,omitempty"`
	Value      string  `json:"value,omitempty"`
	Class      string  `json:"class,omitempty"`
	Header     bool    `json:"header,omitempty"`
	Identifier string  `json:"identifier,omitempty"`
	Label      string  `json:"label,omitempty"`
	Children   []*Node `json:"children,omitempty"`
}
