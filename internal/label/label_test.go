package label

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize_CollapsesWhitespaceAndCase(t *testing.T) {
	identifier, lbl, htmlID, ok := Normalize("  Hello   World!  ")
	require.True(t, ok)
	require.Equal(t, "hello world!", identifier)
	require.Equal(t, "  Hello   World!  ", lbl)
	require.Equal(t, "hello-world", htmlID)
}

func TestNormalize_StripsQuotes(t *testing.T) {
	identifier, _, _, ok := Normalize(`“Smart” and 'plain' quotes`)
	require.True(t, ok)
	require.Equal(t, "smart and plain quotes", identifier)
}

func TestNormalize_EmptyInput_NotOK(t *testing.T) {
	_, _, _, ok := Normalize("")
	require.False(t, ok)
}

func TestNormalize_Deterministic(t *testing.T) {
	a1, b1, c1, _ := Normalize("Some  Label")
	a2, b2, c2, _ := Normalize("Some  Label")
	require.Equal(t, a1, a2)
	require.Equal(t, b1, b2)
	require.Equal(t, c1, c2)
}

func TestToHTMLID_LeadingDigit_GetsPrefix(t *testing.T) {
	require.Equal(t, "id-3-cool-ideas", ToHTMLID("3 Cool Ideas"))
}

func TestToHTMLID_CollapsesAndTrimsDashes(t *testing.T) {
	require.Equal(t, "a-b", ToHTMLID("--a///b--"))
}

func TestToHTMLID_Empty(t *testing.T) {
	require.Equal(t, "", ToHTMLID(""))
	require.Equal(t, "", ToHTMLID("---"))
}

func TestTitleToName_AmpersandBecomesAnd(t *testing.T) {
	name := TitleToName("A & B  Café")

	require.Contains(t, name, "a-and-b")
	require.LessOrEqual(t, len(name), 50)
	require.Regexp(t, `^[a-z][a-z0-9-]*$`, name)
}

func TestTitleToName_TruncatesAt50(t *testing.T) {
	name := TitleToName(strings.Repeat("word ", 30))
	require.LessOrEqual(t, len(name), 50)
	require.False(t, strings.HasSuffix(name, "-"))
}
