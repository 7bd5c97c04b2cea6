package transform

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mystbuilder/internal/doctree"
	"git.home.luguber.info/inful/mystbuilder/internal/myst"
	"git.home.luguber.info/inful/mystbuilder/internal/walk"
)

func el(name string, kids ...doctree.Node) *doctree.Element {
	return &doctree.Element{Name: name, Kids: kids}
}

func elIDs(name string, ids []string, kids ...doctree.Node) *doctree.Element {
	return &doctree.Element{Name: name, Ids: ids, Kids: kids}
}

func elAttr(name string, attrs map[string]string, kids ...doctree.Node) *doctree.Element {
	return &doctree.Element{Name: name, Attributes: attrs, Kids: kids}
}

func transformTree(t *testing.T, root doctree.Node) *myst.Node {
	t.Helper()
	result, err := New().Transform(root)
	require.NoError(t, err)
	return result
}

func TestTransform_EmitsSingleRoot(t *testing.T) {
	result := transformTree(t, el("document",
		el("paragraph", doctree.Text("hello")),
	))

	require.Equal(t, "root", result.Type)
	require.Len(t, result.Children, 1)
	para := result.Children[0]
	require.Equal(t, "paragraph", para.Type)
	require.Equal(t, "text", para.Children[0].Type)
	require.Equal(t, "hello", para.Children[0].Value)
}

func TestTransform_UnknownNodeType_Fatal(t *testing.T) {
	_, err := New().Transform(el("document", el("flux_capacitor")))

	require.Error(t, err)
	var unknownErr *walk.UnknownTypeError
	require.ErrorAs(t, err, &unknownErr)
	require.Equal(t, "flux_capacitor", unknownErr.Type)
}

func TestTransform_HeadingDepth_FollowsSectionNesting(t *testing.T) {
	result := transformTree(t, el("document",
		el("section",
			el("title", doctree.Text("Top")),
			el("section",
				el("title", doctree.Text("Nested")),
			),
		),
	))

	var depths []int
	for h := range myst.FindByType("heading", result) {
		depths = append(depths, h.Depth)
	}
	require.Equal(t, []int{1, 2}, depths)
}

func TestTransform_HeadingDepth_RestoredAcrossSiblingSections(t *testing.T) {
	result := transformTree(t, el("document",
		el("section",
			el("title", doctree.Text("One")),
			el("section", el("title", doctree.Text("Deep"))),
		),
		el("section",
			el("title", doctree.Text("Two")),
		),
	))

	var depths []int
	for h := range myst.FindByType("heading", result) {
		depths = append(depths, h.Depth)
	}
	require.Equal(t, []int{1, 2, 1}, depths)
}

func TestTransform_Subtitle_OneDeeperThanEnclosingHeading(t *testing.T) {
	result := transformTree(t, el("document",
		el("section",
			el("title", doctree.Text("Title")),
			el("subtitle", doctree.Text("Subtitle")),
		),
	))

	var depths []int
	for h := range myst.FindByType("heading", result) {
		depths = append(depths, h.Depth)
	}
	require.Equal(t, []int{1, 2}, depths)
}

func TestTransform_TableHead_MarksExactlyHeadRows(t *testing.T) {
	result := transformTree(t, el("document",
		el("table",
			el("tgroup",
				el("colspec"),
				el("thead",
					el("row", el("entry", el("paragraph", doctree.Text("H1")))),
					el("row", el("entry", el("paragraph", doctree.Text("H2")))),
				),
				el("tbody",
					el("row", el("entry", el("paragraph", doctree.Text("B1")))),
				),
			),
		),
	))

	table := myst.First(myst.FindByType("table", result))
	require.NotNil(t, table)
	require.Len(t, table.Children, 3)

	require.True(t, table.Children[0].Children[0].Header)
	require.True(t, table.Children[1].Children[0].Header)
	require.False(t, table.Children[2].Children[0].Header)
}

func TestTransform_PassThrough_AttachesChildrenToGrandparent(t *testing.T) {
	result := transformTree(t, el("document",
		el("definition_list",
			el("definition_list_item",
				el("term", doctree.Text("word")),
				el("definition", el("paragraph", doctree.Text("meaning"))),
			),
		),
	))

	dl := myst.First(myst.FindByType("definitionList", result))
	require.NotNil(t, dl)
	// definition_list_item is elided; term and definition attach directly.
	require.Len(t, dl.Children, 2)
	require.Equal(t, "definitionTerm", dl.Children[0].Type)
	require.Equal(t, "definitionDescription", dl.Children[1].Type)
	require.Nil(t, myst.First(myst.FindByType("definition_list_item", result)))
}

func TestTransform_DroppedSubtree_ProducesNoOutput(t *testing.T) {
	result := transformTree(t, el("document",
		el("paragraph", doctree.Text("kept")),
		el("option_list", el("paragraph", doctree.Text("dropped"))),
	))

	var texts []string
	for n := range myst.FindByType("text", result) {
		texts = append(texts, n.Value)
	}
	require.Equal(t, []string{"kept"}, texts)
}

func TestTransform_Identifier_LongestIDWins(t *testing.T) {
	result := transformTree(t, el("document",
		elIDs("section", []string{"s", "a-much-longer-id", "mid"},
			el("title", doctree.Text("T")),
		),
	))

	block := myst.First(myst.FindByType("block", result))
	require.NotNil(t, block)
	require.Equal(t, "a-much-longer-id", block.Identifier)
	require.Equal(t, "a-much-longer-id", block.Label)
}

func TestTransform_Identifier_Normalized(t *testing.T) {
	result := transformTree(t, el("document",
		elIDs("section", []string{"My  Section"},
			el("title", doctree.Text("T")),
		),
	))

	block := myst.First(myst.FindByType("block", result))
	require.Equal(t, "my section", block.Identifier)
	require.Equal(t, "My  Section", block.Label)
}

func TestTransform_Reference_InternalTarget(t *testing.T) {
	result := transformTree(t, el("document",
		el("paragraph",
			elAttr("reference", map[string]string{"refid": "target-1"}, doctree.Text("see")),
		),
	))

	link := myst.First(myst.FindByType("link", result))
	require.NotNil(t, link)
	require.Equal(t, "#target-1", link.URL)
}

func TestTransform_Reference_ExternalTarget(t *testing.T) {
	result := transformTree(t, el("document",
		el("paragraph",
			elAttr("reference", map[string]string{"refuri": "https://example.com"}, doctree.Text("site")),
		),
	))

	link := myst.First(myst.FindByType("link", result))
	require.Equal(t, "https://example.com", link.URL)
}

func TestTransform_Reference_NoTarget_Fatal(t *testing.T) {
	_, err := New().Transform(el("document",
		el("paragraph", el("reference", doctree.Text("dangling"))),
	))

	require.ErrorIs(t, err, ErrMalformedReference)
}

func TestTransform_AdmonitionKinds(t *testing.T) {
	result := transformTree(t, el("document",
		el("warning", el("paragraph", doctree.Text("careful"))),
		el("note", el("paragraph", doctree.Text("fyi"))),
	))

	var kinds []string
	for n := range myst.FindByType("admonition", result) {
		kinds = append(kinds, n.Kind)
	}
	require.Equal(t, []string{"warning", "note"}, kinds)
}

func TestTransform_LiteralBlock_BecomesCode(t *testing.T) {
	result := transformTree(t, el("document",
		elAttr("literal_block", map[string]string{"language": "go"},
			doctree.Text("fmt.Println(42)"),
		),
	))

	code := myst.First(myst.FindByType("code", result))
	require.NotNil(t, code)
	require.Equal(t, "go", code.Lang)
	require.Equal(t, "fmt.Println(42)", code.Value)
	require.Empty(t, code.Children)
}

func TestTransform_SubscriptWrapsInHTML(t *testing.T) {
	result := transformTree(t, el("document",
		el("paragraph",
			el("subscript", doctree.Text("2")),
		),
	))

	para := result.Children[0]
	require.Len(t, para.Children, 3)
	require.Equal(t, "<sub>", para.Children[0].Value)
	require.Equal(t, "2", para.Children[1].Value)
	require.Equal(t, "</sub>", para.Children[2].Value)
}

func TestTransform_RawHTML_StripsMarkup(t *testing.T) {
	result := transformTree(t, el("document",
		elAttr("raw", map[string]string{"format": "html"},
			doctree.Text("<b>bold</b> move"),
		),
	))

	text := myst.First(myst.FindByType("text", result))
	require.Equal(t, "bold move", text.Value)
}

func TestTransform_Comment_SkipsChildren(t *testing.T) {
	result := transformTree(t, el("document",
		el("comment", doctree.Text("internal note")),
	))

	comment := myst.First(myst.FindByType("comment", result))
	require.NotNil(t, comment)
	require.Equal(t, "internal note", comment.Value)
	require.Empty(t, comment.Children)
}

func TestTransform_LiteralEmphasis_NestsInlineCode(t *testing.T) {
	result := transformTree(t, el("document",
		el("paragraph",
			el("literal_emphasis", doctree.Text("x")),
		),
	))

	em := myst.First(myst.FindByType("emphasis", result))
	require.NotNil(t, em)
	require.Len(t, em.Children, 1)
	require.Equal(t, "inlineCode", em.Children[0].Type)
	require.Equal(t, "x", em.Children[0].Children[0].Value)
}

func TestTransform_Idempotent(t *testing.T) {
	tree := el("document",
		el("section",
			elIDs("title", []string{"greeting"}, doctree.Text("Hi")),
			el("paragraph", doctree.Text("body")),
			el("table", el("tgroup",
				el("thead", el("row", el("entry", el("paragraph", doctree.Text("h"))))),
				el("tbody", el("row", el("entry", el("paragraph", doctree.Text("b"))))),
			)),
		),
	)

	tr := New()
	first, err := tr.Transform(tree)
	require.NoError(t, err)
	second, err := tr.Transform(tree)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestTransform_FailedWalk_PublishesNothing(t *testing.T) {
	tr := New()
	_, err := tr.Transform(el("document",
		el("paragraph", el("reference")),
	))
	require.Error(t, err)
	require.Nil(t, tr.result)
}
