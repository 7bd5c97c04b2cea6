package transform

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/mystbuilder/internal/doctree"
	"git.home.luguber.info/inful/mystbuilder/internal/logfields"
	"git.home.luguber.info/inful/mystbuilder/internal/myst"
	"git.home.luguber.info/inful/mystbuilder/internal/walk"
)

// ErrMalformedReference reports a reference node with neither an internal
// nor an external target. This is a contract violation and aborts the walk.
var ErrMalformedReference = errors.New("reference node has neither an internal nor an external target")

// admonitionKinds are the named admonition node types of the source grammar.
var admonitionKinds = []string{
	"attention", "caution", "danger", "error", "hint",
	"important", "note", "tip", "warning",
}

// scopedTypes maps input types to output types for the plain scoped-node
// handlers: open a node, push it for the subtree, pop on leave.
var scopedTypes = map[string]string{
	"paragraph":         "paragraph",
	"compact_paragraph": "paragraph",
	"emphasis":          "emphasis",
	"strong":            "strong",
	"literal":           "inlineCode",
	"bullet_list":       "list",
	"list_item":         "listItem",
	"rubric":            "blockQuote",
	"block_quote":       "blockquote",
	"topic":             "admonition",
	"admonition":        "admonition",
	"attribution":       "caption",
	"footnote":          "footnoteDefinition",
	"field_list":        "fieldList",
	"field":             "fieldListItem",
	"field_name":        "fieldName",
	"field_body":        "fieldDescription",
	"definition_list":   "definitionList",
	"definition":        "definitionDescription",
	"term":              "definitionTerm",
	"table":             "table",
	"row":               "tableRow",
	"entry":             "tableCell",
	"compound":          "div",
}

// descTypes maps the object-description signature node types 1:1 onto
// camelCase output discriminators.
var descTypes = map[string]string{
	"desc":                    "desc",
	"desc_addname":            "descAddname",
	"desc_annotation":         "descAnnotation",
	"desc_classes_injector":   "descClassesInjector",
	"desc_content":            "descContent",
	"desc_inline":             "descInline",
	"desc_name":               "descName",
	"desc_optional":           "descOptional",
	"desc_parameter":          "descParameter",
	"desc_parameterlist":      "descParameterlist",
	"desc_returns":            "descReturns",
	"desc_sig_element":        "descSigElement",
	"desc_sig_keyword":        "descSigKeyword",
	"desc_sig_keyword_type":   "descSigKeywordType",
	"desc_sig_literal_char":   "descSigLiteralChar",
	"desc_sig_literal_number": "descSigLiteralNumber",
	"desc_sig_literal_string": "descSigLiteralString",
	"desc_sig_name":           "descSigName",
	"desc_signature":          "descSignature",
	"desc_signature_line":     "descSignatureLine",
	"desc_sig_operator":       "descSigOperator",
	"desc_sig_punctuation":    "descSigPunctuation",
	"desc_sig_space":          "descSigSpace",
	"desc_type":               "descType",
	"desc_type_parameter":     "descTypeParameter",
}

// passThroughTypes are structural wrappers with no output representation;
// their children attach to the current parent.
var passThroughTypes = []string{
	"target", "meta", "generated", "definition_list_item",
	"tgroup", "tbody", "colspec",
}

// droppedTypes are node types whose entire subtree is elided from the output.
var droppedTypes = []string{
	"index", "option_list", "line_block", "doctest_block",
	"classifier", "substitution_definition", "label", "citation", "legend",
}

func (t *Transformer) newRegistry() walk.Registry {
	r := walk.Registry{
		"document":           t.onDocument,
		"section":            t.onSection,
		"title":              t.onTitle,
		"subtitle":           t.onSubtitle,
		"Text":               t.onText,
		"inline":             t.onInline,
		"problematic":        t.scopedClass("span", "problematic"),
		"reference":          t.onReference,
		"number_reference":   t.onReference,
		"footnote_reference": t.onAnchorReference,
		"title_reference":    t.onAnchorReference,
		"enumerated_list":    t.onEnumeratedList,
		"sidebar":            t.scopedKind("aside", "sidebar"),
		"figure":             t.scopedKind("container", "figure"),
		"caption":            t.scopedKind("caption", "figure"),
		"transition":         t.onTransition,
		"image":              t.onImage,
		"comment":            t.onComment,
		"raw":                t.onRaw,
		"literal_block":      t.onLiteralBlock,
		"literal_emphasis":   t.onNestedScope("emphasis", "inlineCode"),
		"literal_strong":     t.onNestedScope("strong", "inlineCode"),
		"subscript":          t.onHTMLWrap("sub"),
		"superscript":        t.onHTMLWrap("sup"),
		"thead":              t.onTableHead,
	}
	for in, out := range scopedTypes {
		r[in] = t.scoped(out)
	}
	for in, out := range descTypes {
		r[in] = t.scoped(out)
	}
	for _, kind := range admonitionKinds {
		r[kind] = t.scopedKind("admonition", kind)
	}
	for _, in := range passThroughTypes {
		r[in] = passThrough
	}
	for _, in := range droppedTypes {
		r[in] = dropSubtree
	}
	return r
}

func passThrough(doctree.Node) (walk.Result, error) {
	return walk.Result{}, nil
}

func dropSubtree(doctree.Node) (walk.Result, error) {
	return walk.Result{Control: walk.SkipChildren}, nil
}

func (t *Transformer) scoped(typ string) walk.HandlerFunc {
	return func(n doctree.Node) (walk.Result, error) {
		return t.open(&myst.Node{Type: typ}, n), nil
	}
}

func (t *Transformer) scopedKind(typ, kind string) walk.HandlerFunc {
	return func(n doctree.Node) (walk.Result, error) {
		return t.open(&myst.Node{Type: typ, Kind: kind}, n), nil
	}
}

func (t *Transformer) scopedClass(typ, class string) walk.HandlerFunc {
	return func(n doctree.Node) (walk.Result, error) {
		return t.open(&myst.Node{Type: typ, Class: class}, n), nil
	}
}

// onNestedScope opens two nested output nodes for one input node; the leave
// phase closes both.
func (t *Transformer) onNestedScope(outer, inner string) walk.HandlerFunc {
	return func(n doctree.Node) (walk.Result, error) {
		t.open(&myst.Node{Type: outer}, n)
		t.open(&myst.Node{Type: inner}, nil)
		return walk.Result{Leave: func() error {
			if err := t.pop(); err != nil {
				return err
			}
			return t.pop()
		}}, nil
	}
}

// onHTMLWrap emits an opening html leaf now and the matching closing leaf
// after the subtree, without opening a scope of its own.
func (t *Transformer) onHTMLWrap(tag string) walk.HandlerFunc {
	return func(doctree.Node) (walk.Result, error) {
		t.push(&myst.Node{Type: "html", Value: "<" + tag + ">"}, nil)
		return walk.Result{Leave: func() error {
			t.push(&myst.Node{Type: "html", Value: "</" + tag + ">"}, nil)
			return nil
		}}, nil
	}
}

func (t *Transformer) onDocument(n doctree.Node) (walk.Result, error) {
	root := &myst.Node{Type: "root"}
	t.open(root, n)
	return walk.Result{Leave: func() error {
		if err := t.pop(); err != nil {
			return err
		}
		t.result = root
		return nil
	}}, nil
}

// onSection opens a block scope and one heading level for the subtree.
func (t *Transformer) onSection(n doctree.Node) (walk.Result, error) {
	t.open(&myst.Node{Type: "block"}, n)
	saved := t.headingDepth
	t.headingDepth++
	return walk.Result{Leave: func() error {
		t.headingDepth = saved
		return t.pop()
	}}, nil
}

// onTitle branches on the input parent: section titles become headings at
// the current depth, admonition-shaped parents get an admonitionTitle, and
// anything else is elided with a diagnostic.
func (t *Transformer) onTitle(n doctree.Node) (walk.Result, error) {
	parentType := ""
	if p := t.walker.Parent(); p != nil {
		parentType = p.Type()
	}
	switch parentType {
	case "section":
		return t.open(&myst.Node{Type: "heading", Depth: t.headingDepth}, n), nil
	case "topic", "admonition", "sidebar":
		return t.open(&myst.Node{Type: "admonitionTitle"}, nil), nil
	default:
		t.diag("unmapped_title", "title under unsupported parent, eliding",
			slog.String("parent", parentType))
		return walk.Result{}, nil
	}
}

// onSubtitle emits a heading one level deeper than the enclosing heading.
func (t *Transformer) onSubtitle(n doctree.Node) (walk.Result, error) {
	t.open(&myst.Node{Type: "heading", Depth: t.headingDepth + 1}, n)
	saved := t.headingDepth
	t.headingDepth++
	return walk.Result{Leave: func() error {
		t.headingDepth = saved
		return t.pop()
	}}, nil
}

func (t *Transformer) onText(n doctree.Node) (walk.Result, error) {
	t.push(&myst.Node{Type: "text", Value: n.Text()}, nil)
	return walk.Result{}, nil
}

func (t *Transformer) onInline(n doctree.Node) (walk.Result, error) {
	return t.open(&myst.Node{Type: "span", Class: n.Attr("classes")}, n), nil
}

func (t *Transformer) onReference(n doctree.Node) (walk.Result, error) {
	if refid := n.Attr("refid"); refid != "" {
		return t.open(&myst.Node{Type: "link", URL: "#" + refid}, n), nil
	}
	if refuri := n.Attr("refuri"); refuri != "" {
		return t.open(&myst.Node{Type: "link", URL: refuri}, n), nil
	}
	return walk.Result{}, fmt.Errorf("%s node: %w", n.Type(), ErrMalformedReference)
}

// onAnchorReference handles reference shapes whose target resolution happens
// downstream; the link carries a bare anchor.
func (t *Transformer) onAnchorReference(n doctree.Node) (walk.Result, error) {
	return t.open(&myst.Node{Type: "link", URL: "#"}, n), nil
}

func (t *Transformer) onEnumeratedList(n doctree.Node) (walk.Result, error) {
	return t.open(&myst.Node{Type: "list", Ordered: true}, n), nil
}

func (t *Transformer) onTransition(n doctree.Node) (walk.Result, error) {
	t.push(&myst.Node{Type: "thematicBreak"}, nil)
	return walk.Result{}, nil
}

func (t *Transformer) onImage(n doctree.Node) (walk.Result, error) {
	t.push(&myst.Node{Type: "image", URL: n.Attr("uri")}, n)
	return walk.Result{Control: walk.SkipChildren}, nil
}

func (t *Transformer) onComment(n doctree.Node) (walk.Result, error) {
	t.push(&myst.Node{Type: "comment", Value: n.Text()}, n)
	return walk.Result{Control: walk.SkipChildren}, nil
}

// onRaw emits raw content as a plain paragraph; html-format raw nodes have
// their markup stripped first.
func (t *Transformer) onRaw(n doctree.Node) (walk.Result, error) {
	value := n.Text()
	if strings.EqualFold(n.Attr("format"), "html") {
		value = flattenHTML(value)
	}
	t.push(&myst.Node{
		Type:     "paragraph",
		Children: []*myst.Node{{Type: "text", Value: value}},
	}, nil)
	return walk.Result{Control: walk.SkipChildren}, nil
}

// onLiteralBlock maps a literal block to a code node carrying the verbatim
// text; internal markup of the block is dropped.
func (t *Transformer) onLiteralBlock(n doctree.Node) (walk.Result, error) {
	t.push(&myst.Node{Type: "code", Lang: n.Attr("language"), Value: n.Text()}, n)
	return walk.Result{Control: walk.SkipChildren}, nil
}

// onTableHead records how many children the enclosing table has before the
// head section is walked; on leave, every row appended past that watermark
// has its cells tagged as header cells. If descent was skipped there are no
// new children and the leave phase does nothing.
func (t *Transformer) onTableHead(n doctree.Node) (walk.Result, error) {
	table := t.parent()
	if table == nil {
		return walk.Result{}, fmt.Errorf("table head outside any open table")
	}
	mark := len(table.Children)
	return walk.Result{Leave: func() error {
		for _, row := range table.Children[mark:] {
			if row.Type != "tableRow" {
				t.diag("unexpected_table_head_child", "table head produced a non-row child",
					logfields.NodeType(row.Type))
				continue
			}
			for _, cell := range row.Children {
				cell.Header = true
			}
		}
		return nil
	}}, nil
}
