package util

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

var whitespaceRunRe = regexp.MustCompile(`\s+`)

// Fold returns s with Unicode case folding applied, for case-insensitive
// comparison and index keys.
func Fold(s string) string {
	// cases.Caser is stateful; one per call keeps Fold safe for concurrent use.
	return cases.Fold().String(s)
}

// ContainsFold reports whether substr is within s under case folding.
// An empty substr is contained in every string.
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(Fold(s), Fold(substr))
}

// EqualFold reports whether a and b are equal under case folding.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}

// SplitTags parses comma-separated tag input: each entry is trimmed and
// blank entries are dropped. Order and duplicates are preserved.
//
//	"go, web,, api " → ["go", "web", "api"]
func SplitTags(raw string) []string {
	tags := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}

// HyphenateWhitespace replaces every run of whitespace with a single dash.
func HyphenateWhitespace(s string) string {
	return whitespaceRunRe.ReplaceAllString(s, "-")
}

// Truncate shortens s to at most limit runes, appending "..." when cut.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}
