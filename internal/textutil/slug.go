package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Unknown is returned whenever a title reduces to nothing.
const Unknown = "unknown"

// slugSplitPattern matches every run of characters outside the slug alphabet.
var slugSplitPattern = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeForCompare reduces a title to a comparison key: NFKC, diacritics
// removed, lowercased, non-alphanumeric runs collapsed to single spaces.
// The result only contains [a-z0-9 ] and is never empty.
func NormalizeForCompare(title string) string {
	t := norm.NFKC.String(title)
	t = RemoveDiacritics(t)
	t = strings.ToLower(t)
	t = slugSplitPattern.ReplaceAllString(t, " ")
	t = strings.Join(strings.Fields(t), " ")
	if t == "" {
		return Unknown
	}
	return t
}

// RemoveDiacritics decomposes s (NFKD) and drops combining marks.
func RemoveDiacritics(s string) string {
	// Transformers carry state, so each call builds its own chain.
	chain := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(chain, s)
	if err != nil {
		return s
	}
	return out
}

// SameTitle reports whether two titles share a comparison key.
func SameTitle(a, b string) bool {
	return NormalizeForCompare(a) == NormalizeForCompare(b)
}
