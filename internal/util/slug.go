// Package util holds small text helpers shared by the post store, accounts
// and the search index.
package util

import (
	"strings"
	"unicode"
)

// NormalizeTagSlug reduces a tag to the form it is indexed and filtered by:
// lowercase ASCII letters and digits, with runs of spaces, underscores,
// slashes and dashes collapsed to one dash. Anything else is dropped.
//
//	"Web Dev"     → "web-dev"
//	"web_dev"     → "web-dev"
//	"C++ / Rust!" → "c-rust"
func NormalizeTagSlug(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	sep := false
	for _, r := range strings.ToLower(input) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if sep && b.Len() > 0 {
				b.WriteByte('-')
			}
			sep = false
			b.WriteRune(r)
		case r == '-', r == '_', r == '/', unicode.IsSpace(r):
			sep = true
		}
	}
	return b.String()
}
