package tagger

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	tagPattern         = regexp.MustCompile(`\[([A-Za-z0-9_-]{6,})\]\s*-\s*(\d{4}-\d{2}-\d{2})`)
	trailingTagPattern = regexp.MustCompile(`[\s_-]*\[[A-Za-z0-9_-]{6,}\]\s*-\s*\d{4}-\d{2}-\d{2}(\s*\(\d+\))?\s*$`)
	languageSegment    = regexp.MustCompile(`^[A-Za-z]{2,3}(-[A-Za-z0-9]{2,4})?$`)
)

// captionExtensions may carry a language segment before the final extension.
var captionExtensions = map[string]struct{}{
	".vtt": {}, ".srt": {}, ".ass": {}, ".ssa": {}, ".ttml": {}, ".lrc": {},
}

// Tag is an identifier and upload date pair.
type Tag struct {
	ID   string `json:"id"`
	Date string `json:"date"`
}

// Suffix renders the tag as appended to a core title.
func (t Tag) Suffix() string {
	return fmt.Sprintf(" [%s] - %s", t.ID, t.Date)
}

// ParseTag finds the first tag anywhere in text.
func ParseTag(text string) (Tag, bool) {
	match := tagPattern.FindStringSubmatch(text)
	if match == nil {
		return Tag{}, false
	}
	return Tag{ID: match[1], Date: match[2]}, true
}

// HasTrailingTag reports whether stem ends with a tag, optionally followed
// by the " (n)" counter added when a tagged name collided.
func HasTrailingTag(stem string) bool {
	return trailingTagPattern.MatchString(stem)
}

// StripTrailingTag removes a trailing tag and any separator characters
// (space, underscore, hyphen) left at either end.
func StripTrailingTag(stem string) string {
	return strings.Trim(trailingTagPattern.ReplaceAllString(stem, ""), " _-")
}

// CoreKey is the case- and spacing-insensitive comparison key for a core
// title. Diacritics are kept.
func CoreKey(core string) string {
	return strings.ToLower(strings.Join(strings.Fields(core), " "))
}

// SplitName splits a file name into stem and compound extension. The
// extension is the final dot segment plus, for caption files, one preceding
// language-like segment: "Talk.vi.vtt" gives ("Talk", ".vi.vtt").
func SplitName(name string) (stem, ext string) {
	ext = filepath.Ext(name)
	stem = strings.TrimSuffix(name, ext)
	if stem == "" {
		return name, ""
	}
	if _, ok := captionExtensions[strings.ToLower(ext)]; !ok {
		return stem, ext
	}
	dot := strings.LastIndexByte(stem, '.')
	if dot <= 0 || !languageSegment.MatchString(stem[dot+1:]) {
		return stem, ext
	}
	return stem[:dot], stem[dot:] + ext
}
