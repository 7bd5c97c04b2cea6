package doctree

import (
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ParseMarkdown parses a Markdown source into a doctree using the same type
// discriminators as the XML frontend, so one handler set serves both sources.
// Headings open nested "section" elements the way the structured grammar
// nests them; a level-n heading closes every open section at level >= n.
func ParseMarkdown(source []byte) (Node, error) {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(source))

	doc := &Element{Name: "document"}

	type openSection struct {
		el    *Element
		level int
	}
	sections := []openSection{}
	current := func() *Element {
		if len(sections) == 0 {
			return doc
		}
		return sections[len(sections)-1].el
	}

	for child := root.FirstChild(); child != nil; child = child.NextSibling() {
		if h, ok := child.(*gmast.Heading); ok {
			for len(sections) > 0 && sections[len(sections)-1].level >= h.Level {
				sections = sections[:len(sections)-1]
			}
			section := &Element{Name: "section"}
			current().Append(section)
			sections = append(sections, openSection{el: section, level: h.Level})

			title := &Element{Name: "title"}
			title.Kids = convertChildren(h, source)
			section.Append(title)
			continue
		}
		current().Kids = append(current().Kids, convertNode(child, source)...)
	}

	return doc, nil
}

// convertNode maps one goldmark node (and its subtree) into doctree nodes.
// Constructs without a docutils analogue collapse to their children.
func convertNode(n gmast.Node, source []byte) []Node {
	switch node := n.(type) {
	case *gmast.Text:
		value := string(node.Segment.Value(source))
		if node.SoftLineBreak() || node.HardLineBreak() {
			value += "\n"
		}
		return []Node{Text(value)}
	case *gmast.String:
		return []Node{Text(node.Value)}
	case *gmast.Paragraph:
		return []Node{element("paragraph", n, source)}
	case *gmast.TextBlock:
		return []Node{element("paragraph", n, source)}
	case *gmast.Emphasis:
		if node.Level >= 2 {
			return []Node{element("strong", n, source)}
		}
		return []Node{element("emphasis", n, source)}
	case *gmast.CodeSpan:
		return []Node{element("literal", n, source)}
	case *gmast.Link:
		el := element("reference", n, source)
		el.Attributes = map[string]string{"refuri": string(node.Destination)}
		return []Node{el}
	case *gmast.AutoLink:
		url := string(node.URL(source))
		el := &Element{
			Name:       "reference",
			Attributes: map[string]string{"refuri": url},
			Kids:       []Node{Text(url)},
		}
		return []Node{el}
	case *gmast.Image:
		return []Node{&Element{
			Name:       "image",
			Attributes: map[string]string{"uri": string(node.Destination)},
		}}
	case *gmast.List:
		name := "bullet_list"
		if node.IsOrdered() {
			name = "enumerated_list"
		}
		return []Node{element(name, n, source)}
	case *gmast.ListItem:
		return []Node{element("list_item", n, source)}
	case *gmast.Blockquote:
		return []Node{element("block_quote", n, source)}
	case *gmast.ThematicBreak:
		return []Node{&Element{Name: "transition"}}
	case *gmast.FencedCodeBlock:
		el := &Element{
			Name: "literal_block",
			Kids: []Node{Text(linesText(n, source))},
		}
		if lang := node.Language(source); lang != nil {
			el.Attributes = map[string]string{"language": string(lang)}
		}
		return []Node{el}
	case *gmast.CodeBlock:
		return []Node{&Element{
			Name: "literal_block",
			Kids: []Node{Text(linesText(n, source))},
		}}
	case *gmast.HTMLBlock:
		raw := linesText(n, source)
		return []Node{&Element{
			Name:       "raw",
			Attributes: map[string]string{"format": "html"},
			Kids:       []Node{Text(raw)},
		}}
	case *gmast.RawHTML:
		var sb strings.Builder
		for i := 0; i < node.Segments.Len(); i++ {
			seg := node.Segments.At(i)
			sb.Write(seg.Value(source))
		}
		return []Node{&Element{
			Name:       "raw",
			Attributes: map[string]string{"format": "html"},
			Kids:       []Node{Text(sb.String())},
		}}
	case *gmast.Heading:
		// Headings below document level have no section to open; treat
		// them as rubrics like the structured grammar does.
		return []Node{element("rubric", n, source)}
	default:
		return convertChildren(n, source)
	}
}

func element(name string, n gmast.Node, source []byte) *Element {
	return &Element{Name: name, Kids: convertChildren(n, source)}
}

func convertChildren(n gmast.Node, source []byte) []Node {
	var kids []Node
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		kids = append(kids, convertNode(c, source)...)
	}
	return kids
}

func linesText(n gmast.Node, source []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	return sb.String()
}
