package builder

import (
	"git.home.luguber.info/inful/mystbuilder/internal/myst"
)

// Envelope is the per-document artifact written next to the cross-reference
// index. The shape matches the MyST JSON page format.
type Envelope struct {
	Kind         string      `json:"kind"`
	SHA256       string      `json:"sha256"`
	Slug         string      `json:"slug"`
	Location     string      `json:"location"`
	Dependencies []string    `json:"dependencies"`
	Frontmatter  Frontmatter `json:"frontmatter"`
	Mdast        *myst.Node  `json:"mdast"`
	References   References  `json:"references"`
}

// Frontmatter carries derived document metadata.
type Frontmatter struct {
	Title                string `json:"title,omitempty"`
	ContentIncludesTitle bool   `json:"content_includes_title,omitempty"`
}

// References holds the citation registry (always present, usually empty).
type References struct {
	Cite Cite `json:"cite"`
}

// Cite lists citation keys in order with their data.
type Cite struct {
	Order []string       `json:"order"`
	Data  map[string]any `json:"data"`
}

// newEnvelope wraps a finished tree in the document envelope. The title is
// derived from the first heading of the content.
func newEnvelope(docname, slug, sha256 string, mdast *myst.Node) Envelope {
	env := Envelope{
		Kind:         "Article",
		SHA256:       sha256,
		Slug:         slug,
		Location:     "/" + docname,
		Dependencies: []string{},
		Mdast:        mdast,
		References:   References{Cite: Cite{Order: []string{}, Data: map[string]any{}}},
	}
	if heading := myst.First(myst.FindByType("heading", mdast)); heading != nil {
		env.Frontmatter = Frontmatter{
			Title:                myst.ToText(heading),
			ContentIncludesTitle: true,
		}
	}
	return env
}
