package transform

import (
	"strings"

	"golang.org/x/net/html"
)

// flattenHTML strips markup from a raw html fragment, keeping only its text
// content. Entities are decoded by the tokenizer.
func flattenHTML(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var sb strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return sb.String()
		case html.TextToken:
			sb.Write(z.Text())
		}
	}
}
