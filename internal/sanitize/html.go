// Package sanitize cleans text pulled from external job boards and feeds
// before it enters a draft. Imported listings are untrusted input.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// StrictPolicy removes all HTML tags and attributes. Every field a draft
// carries is plain text, so this is the only policy in use.
var StrictPolicy = bluemonday.StrictPolicy()

// Text strips all HTML tags and returns plain text.
func Text(input string) string {
	return strings.TrimSpace(StrictPolicy.Sanitize(input))
}

// TextSlice sanitizes each string in a slice, removing all HTML.
func TextSlice(inputs []string) []string {
	if inputs == nil {
		return nil
	}
	sanitized := make([]string, len(inputs))
	for i, input := range inputs {
		sanitized[i] = Text(input)
	}
	return sanitized
}

// Excerpt strips all HTML, collapses runs of whitespace and truncates to at
// most max runes on a rune boundary. Used for feed snippets that arrive as
// markup of arbitrary length.
func Excerpt(input string, max int) string {
	plain := strings.Join(strings.Fields(Text(input)), " ")
	runes := []rune(plain)
	if max <= 0 || len(runes) <= max {
		return plain
	}
	return strings.TrimSpace(string(runes[:max]))
}
