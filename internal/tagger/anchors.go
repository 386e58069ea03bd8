package tagger

import (
	"path/filepath"
	"strings"
)

// anchorPreference ranks anchor extensions: captions, then media, then
// documents. Unlisted extensions rank after all of these.
var anchorPreference = []string{
	".vtt", ".srt",
	".mp3", ".m4a", ".mp4", ".mkv", ".webm", ".wav",
	".pdf", ".docx", ".txt",
}

// AnchorKey identifies an anchor by directory and normalized core title.
type AnchorKey struct {
	Dir  string
	Core string
}

type anchor struct {
	tag      Tag
	priority int
}

func anchorPriority(ext string) int {
	lower := strings.ToLower(ext)
	for i, candidate := range anchorPreference {
		if strings.HasSuffix(lower, candidate) {
			return i
		}
	}
	return len(anchorPreference)
}

// DiscoverAnchors maps (directory, core key) to the tag of the best anchor
// file. Only files whose extension passes the filter are considered; for
// duplicate keys the higher-priority extension wins and the first seen wins
// ties.
func (t *Tagger) DiscoverAnchors(files []string) map[AnchorKey]Tag {
	best := make(map[AnchorKey]anchor)
	for _, path := range files {
		stem, ext := SplitName(filepath.Base(path))
		if !t.matchesExtension(ext) {
			continue
		}
		tag, ok := ParseTag(stem)
		if !ok {
			continue
		}
		key := AnchorKey{Dir: filepath.Dir(path), Core: CoreKey(StripTrailingTag(stem))}
		priority := anchorPriority(ext)
		if current, seen := best[key]; !seen || priority < current.priority {
			best[key] = anchor{tag: tag, priority: priority}
		}
	}
	anchors := make(map[AnchorKey]Tag, len(best))
	for key, a := range best {
		anchors[key] = a.tag
	}
	return anchors
}
