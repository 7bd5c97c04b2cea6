package builder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/mystbuilder/internal/myst"
)

// mystSpecVersion is the MyST spec version advertised in the index.
const mystSpecVersion = "1.2.9"

// XrefIndex is the global cross-reference registry written once per build.
type XrefIndex struct {
	Version    string      `json:"version"`
	MyST       string      `json:"myst"`
	References []XrefEntry `json:"references"`
}

// XrefEntry points at one page or one identified node inside a page.
type XrefEntry struct {
	Identifier string `json:"identifier,omitempty"`
	Kind       string `json:"kind"`
	Data       string `json:"data"`
	URL        string `json:"url"`
}

// xrefKind qualifies a node's discriminator for the index: containers report
// their kind, kinded nodes report "type:kind", everything else its type.
func xrefKind(n *myst.Node) string {
	if n.Type == "container" {
		if n.Kind != "" {
			return n.Kind
		}
		return "figure"
	}
	if n.Kind != "" {
		return n.Type + ":" + n.Kind
	}
	return n.Type
}

// harvestTargets walks a finished tree and returns one entry per node
// carrying an identifier.
func harvestTargets(mdast *myst.Node, slug string) []XrefEntry {
	var entries []XrefEntry
	for n := range myst.BreadthFirst(mdast) {
		if n.Identifier == "" {
			continue
		}
		entries = append(entries, XrefEntry{
			Identifier: n.Identifier,
			Kind:       xrefKind(n),
			Data:       "/" + slug + ".json",
			URL:        "/" + slug,
		})
	}
	return entries
}

// writeXrefIndex assembles and writes myst.xref.json from the written
// per-document envelopes.
func (b *Builder) writeXrefIndex(docnames []string) error {
	references := make([]XrefEntry, 0, len(docnames))
	for _, docname := range docnames {
		slug := Slugify(docname)
		references = append(references, XrefEntry{
			Kind: "page",
			Data: "/" + slug + ".json",
			URL:  "/" + slug,
		})
	}

	for _, docname := range docnames {
		env, err := b.readEnvelope(docname)
		if err != nil {
			return err
		}
		references = append(references, harvestTargets(env.Mdast, Slugify(docname))...)
	}

	index := XrefIndex{Version: "1", MyST: mystSpecVersion, References: references}
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal xref index: %w", err)
	}

	path := filepath.Join(b.cfg.Output.Directory, "myst.xref.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write xref index: %w", err)
	}
	return nil
}

// readEnvelope loads a previously written document artifact.
func (b *Builder) readEnvelope(docname string) (*Envelope, error) {
	data, err := os.ReadFile(b.docOutputPath(docname))
	if err != nil {
		return nil, fmt.Errorf("read document artifact: %w", err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse document artifact %s: %w", docname, err)
	}
	return &env, nil
}
