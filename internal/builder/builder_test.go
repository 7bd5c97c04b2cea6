package builder

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mystbuilder/internal/buildstate"
	"git.home.luguber.info/inful/mystbuilder/internal/config"
	"git.home.luguber.info/inful/mystbuilder/internal/myst"
)

func newTestBuilder(t *testing.T, sources map[string]string) (*Builder, string) {
	t.Helper()

	srcDir := t.TempDir()
	outDir := t.TempDir()
	for name, content := range sources {
		path := filepath.Join(srcDir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	cfg := &config.Config{
		Source: config.SourceConfig{Directory: srcDir, Format: config.FormatAuto},
		Output: config.OutputConfig{Directory: outDir},
	}

	state, err := buildstate.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = state.Close() })

	return New(cfg, srcDir, state), outDir
}

func readEnvelopeFile(t *testing.T, outDir, slug string) Envelope {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(outDir, "content", slug+".myst.json"))
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

func TestSlugify_FlattensPath(t *testing.T) {
	require.Equal(t, "guide-intro", Slugify("guide/intro"))
	require.Equal(t, "index", Slugify("index"))
}

func TestBuildAll_WritesEnvelope(t *testing.T) {
	b, outDir := newTestBuilder(t, map[string]string{
		"guide/intro.md": "# Welcome\n\nHello there.\n",
	})

	summary, err := b.BuildAll(context.Background(), "build-1", false)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Built)

	env := readEnvelopeFile(t, outDir, "guide-intro")
	require.Equal(t, "Article", env.Kind)
	require.Equal(t, "guide-intro", env.Slug)
	require.Equal(t, "/guide/intro", env.Location)
	require.Len(t, env.SHA256, 64)
	require.Equal(t, "Welcome", env.Frontmatter.Title)
	require.True(t, env.Frontmatter.ContentIncludesTitle)
	require.NotNil(t, env.Mdast)
	require.Equal(t, "root", env.Mdast.Type)
	require.NotNil(t, env.Dependencies)
	require.Empty(t, env.Dependencies)
}

func TestBuildAll_SecondRunSkipsUnchanged(t *testing.T) {
	b, _ := newTestBuilder(t, map[string]string{
		"index.md": "# Home\n",
	})
	ctx := context.Background()

	first, err := b.BuildAll(ctx, "build-1", false)
	require.NoError(t, err)
	require.Equal(t, 1, first.Built)

	second, err := b.BuildAll(ctx, "build-2", false)
	require.NoError(t, err)
	require.Equal(t, 0, second.Built)
	require.Equal(t, 1, second.Skipped)
}

func TestBuildAll_ForceRebuildsEverything(t *testing.T) {
	b, _ := newTestBuilder(t, map[string]string{
		"index.md": "# Home\n",
	})
	ctx := context.Background()

	_, err := b.BuildAll(ctx, "build-1", false)
	require.NoError(t, err)

	forced, err := b.BuildAll(ctx, "build-2", true)
	require.NoError(t, err)
	require.Equal(t, 1, forced.Built)
}

func TestBuildAll_XMLSource(t *testing.T) {
	b, outDir := newTestBuilder(t, map[string]string{
		"spec.xml": `<document>
  <section ids="overview">
    <title>Overview</title>
    <paragraph>Body text.</paragraph>
  </section>
</document>`,
	})

	summary, err := b.BuildAll(context.Background(), "build-1", false)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Built)

	env := readEnvelopeFile(t, outDir, "spec")
	require.Equal(t, "Overview", env.Frontmatter.Title)

	block := myst.First(myst.FindByType("block", env.Mdast))
	require.NotNil(t, block)
	require.Equal(t, "overview", block.Identifier)
}

func TestBuildAll_DuplicateSourcesBuildOnce(t *testing.T) {
	b, outDir := newTestBuilder(t, map[string]string{
		"a.md":  "# From Markdown\n",
		"a.xml": `<document><paragraph>from xml</paragraph></document>`,
	})

	summary, err := b.BuildAll(context.Background(), "build-1", false)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Built)

	data, err := os.ReadFile(filepath.Join(outDir, "myst.xref.json"))
	require.NoError(t, err)
	var index XrefIndex
	require.NoError(t, json.Unmarshal(data, &index))

	pages := 0
	for _, ref := range index.References {
		if ref.Kind == "page" {
			pages++
		}
	}
	require.Equal(t, 1, pages)

	// Lexical walk order keeps the markdown source.
	env := readEnvelopeFile(t, outDir, "a")
	require.Equal(t, "From Markdown", env.Frontmatter.Title)
}

func TestBuildAll_WritesXrefIndex(t *testing.T) {
	b, outDir := newTestBuilder(t, map[string]string{
		"spec.xml": `<document>
  <section ids="overview">
    <title>Overview</title>
  </section>
</document>`,
	})

	_, err := b.BuildAll(context.Background(), "build-1", false)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, "myst.xref.json"))
	require.NoError(t, err)

	var index XrefIndex
	require.NoError(t, json.Unmarshal(data, &index))
	require.Equal(t, "1", index.Version)

	var kinds []string
	var identifiers []string
	for _, ref := range index.References {
		kinds = append(kinds, ref.Kind)
		if ref.Identifier != "" {
			identifiers = append(identifiers, ref.Identifier)
		}
	}
	require.Contains(t, kinds, "page")
	require.Contains(t, kinds, "block")
	require.Contains(t, identifiers, "overview")
}

func TestBuildAll_FailedDocument_LeftOutOfIndex(t *testing.T) {
	b, outDir := newTestBuilder(t, map[string]string{
		"good.xml": `<document><paragraph>fine</paragraph></document>`,
		"bad.xml":  `<document><paragraph><reference>dangling</reference></paragraph></document>`,
	})

	summary, err := b.BuildAll(context.Background(), "build-1", false)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Built)
	require.Equal(t, 1, summary.Failed)

	_, statErr := os.Stat(filepath.Join(outDir, "content", "bad.myst.json"))
	require.True(t, os.IsNotExist(statErr))

	data, err := os.ReadFile(filepath.Join(outDir, "myst.xref.json"))
	require.NoError(t, err)
	require.NotContains(t, string(data), "bad")
}

func TestXrefKind_QualifiesContainersAndKinds(t *testing.T) {
	require.Equal(t, "figure", xrefKind(&myst.Node{Type: "container", Kind: "figure"}))
	require.Equal(t, "figure", xrefKind(&myst.Node{Type: "container"}))
	require.Equal(t, "admonition:note", xrefKind(&myst.Node{Type: "admonition", Kind: "note"}))
	require.Equal(t, "heading", xrefKind(&myst.Node{Type: "heading"}))
}
