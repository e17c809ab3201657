// Package sanitize normalizes raw text scraped from a page before it enters
// the collection pipeline. Pure functions, no side effects.
package sanitize

import (
	stdhtml "html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// DefaultMaxLen is the hard cap applied when callers pass maxLen <= 0.
const DefaultMaxLen = 2000

var stripTags = bluemonday.StrictPolicy()

// Text strips ASCII control characters (except tab, LF, CR), trims
// surrounding whitespace and hard-caps the result at maxLen runes. The cap
// is not word-aware. Text is idempotent: Text(Text(s, n), n) == Text(s, n).
func Text(raw string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if isControl(r) {
			continue
		}
		b.WriteRune(r)
	}

	s := strings.TrimSpace(b.String())
	if runes := []rune(s); len(runes) > maxLen {
		s = strings.TrimSpace(string(runes[:maxLen]))
	}
	return s
}

// HTMLText reduces an HTML fragment to sanitized plain text: tags are
// removed, entities decoded, then Text applies the usual normalization.
func HTMLText(fragment string, maxLen int) string {
	return Text(stdhtml.UnescapeString(stripTags.Sanitize(fragment)), maxLen)
}

// isControl reports characters that never belong in comment text: C0
// controls other than tab/LF/CR, and DEL.
func isControl(r rune) bool {
	switch {
	case r == 0x09 || r == 0x0A || r == 0x0D:
		return false
	case r < 0x20:
		return true
	case r == 0x7F:
		return true
	}
	return false
}
