// Package label turns arbitrary reference label text into stable, canonical
// identifiers. Identifiers are externally visible (they key the cross-reference
// index), so every function here must be deterministic across runs.
package label

import (
	"regexp"
	"strings"
)

var (
	whitespaceRuns = regexp.MustCompile(`[\t\n\r ]+`)
	quoteChars     = regexp.MustCompile(`['‘’"“”]+`)
	nonHTMLIDChar  = regexp.MustCompile(`[^a-z0-9-]`)
	dashRuns       = regexp.MustCompile(`-{2,}`)
)

// Normalize canonicalizes a reference label. It returns the canonical
// identifier (whitespace collapsed, quotes stripped, trimmed, lower-cased),
// the original label verbatim, and an HTML-safe element id. ok is false for
// empty input.
func Normalize(text string) (identifier, lbl, htmlID string, ok bool) {
	if text == "" {
		return "", "", "", false
	}
	identifier = whitespaceRuns.ReplaceAllString(text, " ")
	identifier = quoteChars.ReplaceAllString(identifier, "")
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	return identifier, text, ToHTMLID(identifier), true
}

// ToHTMLID constrains an identifier to the characters allowed in an HTML
// element id: lower-case, [a-z0-9-] only, no repeated or surrounding dashes,
// and never starting with a digit. Returns "" for empty input.
func ToHTMLID(identifier string) string {
	if identifier == "" {
		return ""
	}
	id := strings.ToLower(identifier)
	id = nonHTMLIDChar.ReplaceAllString(id, "-")
	id = dashRuns.ReplaceAllString(id, "-")
	id = strings.Trim(id, "-")
	if id == "" {
		return ""
	}
	if c := id[0]; c >= '0' && c <= '9' {
		id = "id-" + id
	}
	return id
}

// TitleToName derives a short slug from a document or section title.
// "&" becomes the word "and"; anything outside [a-z0-9-] becomes a dash.
// The result is trimmed and capped at 50 characters.
func TitleToName(title string) string {
	name := strings.ToLower(strings.ReplaceAll(title, "&", "and"))
	name = nonHTMLIDChar.ReplaceAllString(name, "-")
	name = dashRuns.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	if len(name) > 50 {
		name = strings.TrimRight(name[:50], "-")
	}
	return name
}
