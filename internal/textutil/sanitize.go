package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// illegalFileNamePattern matches runs of characters rejected by at least one
// common filesystem.
var illegalFileNamePattern = regexp.MustCompile(`[<>:"/\\|?*]+`)

// FriendlyStem converts a title into a readable filename stem. Illegal
// characters become spaces, whitespace is collapsed, and leading/trailing
// dots and spaces are removed. Returns "unknown" for empty results.
func FriendlyStem(title string) string {
	s := norm.NFKC.String(title)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	s = illegalFileNamePattern.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")
	s = strings.Trim(s, ". ")
	if s == "" {
		return Unknown
	}
	return s
}
