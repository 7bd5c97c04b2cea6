package doctree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleMarkdown = `# Guide

Intro paragraph with *emphasis* and ` + "`code`" + `.

## Usage

- first
- second

` + "```go\nfmt.Println(1)\n```" + `

## Reference

See [the docs](https://example.com).
`

func childTypes(n Node) []string {
	var types []string
	for _, c := range n.Children() {
		types = append(types, c.Type())
	}
	return types
}

func TestParseMarkdown_HeadingsOpenNestedSections(t *testing.T) {
	root, err := ParseMarkdown([]byte(sampleMarkdown))
	require.NoError(t, err)
	require.Equal(t, "document", root.Type())

	require.Equal(t, []string{"section"}, childTypes(root))
	top := root.Children()[0]

	// title, intro paragraph, then the two level-2 sections.
	require.Equal(t, []string{"title", "paragraph", "section", "section"}, childTypes(top))
	require.Equal(t, "Guide", top.Children()[0].Text())

	usage := top.Children()[2]
	require.Equal(t, "Usage", usage.Children()[0].Text())
	require.Equal(t, []string{"title", "bullet_list", "literal_block"}, childTypes(usage))
}

func TestParseMarkdown_InlineConstructs(t *testing.T) {
	root, err := ParseMarkdown([]byte(sampleMarkdown))
	require.NoError(t, err)

	intro := root.Children()[0].Children()[1]
	require.Equal(t, "paragraph", intro.Type())

	var sawEmphasis, sawLiteral bool
	for _, c := range intro.Children() {
		switch c.Type() {
		case "emphasis":
			sawEmphasis = true
			require.Equal(t, "emphasis", c.Text())
		case "literal":
			sawLiteral = true
			require.Equal(t, "code", c.Text())
		}
	}
	require.True(t, sawEmphasis)
	require.True(t, sawLiteral)
}

func TestParseMarkdown_Links(t *testing.T) {
	root, err := ParseMarkdown([]byte(sampleMarkdown))
	require.NoError(t, err)

	var ref Node
	var find func(Node)
	find = func(n Node) {
		if n.Type() == "reference" {
			ref = n
		}
		for _, c := range n.Children() {
			find(c)
		}
	}
	find(root)

	require.NotNil(t, ref)
	require.Equal(t, "https://example.com", ref.Attr("refuri"))
	require.Equal(t, "the docs", ref.Text())
}

func TestParseMarkdown_CodeBlockLanguage(t *testing.T) {
	root, err := ParseMarkdown([]byte(sampleMarkdown))
	require.NoError(t, err)

	var block Node
	var find func(Node)
	find = func(n Node) {
		if n.Type() == "literal_block" {
			block = n
		}
		for _, c := range n.Children() {
			find(c)
		}
	}
	find(root)

	require.NotNil(t, block)
	require.Equal(t, "go", block.Attr("language"))
	require.Equal(t, "fmt.Println(1)\n", block.Text())
}

func TestParseMarkdown_OrderedList(t *testing.T) {
	root, err := ParseMarkdown([]byte("1. one\n2. two\n"))
	require.NoError(t, err)

	require.Equal(t, []string{"enumerated_list"}, childTypes(root))
	list := root.Children()[0]
	require.Equal(t, []string{"list_item", "list_item"}, childTypes(list))
}

func TestParseMarkdown_SiblingHeadingClosesSection(t *testing.T) {
	root, err := ParseMarkdown([]byte("# A\n\n# B\n"))
	require.NoError(t, err)

	require.Equal(t, []string{"section", "section"}, childTypes(root))
}
