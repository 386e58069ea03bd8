package tagger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"ytkit/internal/batch"
	"ytkit/internal/fileutil"
	"ytkit/internal/logging"
)

// Skip reasons reported by Plan.
const (
	SkipExtension     = "extension"
	SkipAlreadyTagged = "already_tagged"
	SkipEmptyCore     = "empty_core"
	SkipNoAnchor      = "no_anchor"
	SkipUnchanged     = "unchanged"
	SkipCollision     = "collision"
)

const planProgressInterval = 50

// Entry is one planned rename.
type Entry struct {
	Old  string `json:"old_path"`
	New  string `json:"new_path"`
	ID   string `json:"id"`
	Date string `json:"date"`
}

// PlanResult is the outcome of a dry run.
type PlanResult struct {
	Entries []Entry       `json:"entries"`
	Summary batch.Summary `json:"summary"`
}

// Plan proposes a tagged name for every untagged file that has an anchor in
// its directory. Nothing is renamed. A cancelled context returns the entries
// planned so far with Summary.Cancelled set.
func (t *Tagger) Plan(ctx context.Context, files []string, progress batch.ProgressFunc) PlanResult {
	logger := logging.WithContext(ctx, t.logger)
	total := len(files)
	progress.Report(total, 0, "scanning anchors")
	anchors := t.DiscoverAnchors(files)

	var result PlanResult
	claimed := make(map[string]bool)
	taken := func(path string) bool {
		return claimed[path] || fileutil.Exists(path)
	}

	for i, path := range files {
		if ctx.Err() != nil {
			result.Summary.Cancelled = true
			break
		}
		progress.Every(planProgressInterval, total, i, fmt.Sprintf("planning %d/%d", i, total))

		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		entry, reason := t.planFile(path, anchors)
		if reason != "" {
			result.Summary.Skip(reason)
			continue
		}
		if taken(entry.New) {
			switch t.collision {
			case batch.CollisionSkip:
				result.Summary.Skip(SkipCollision)
				continue
			case batch.CollisionSuffix:
				entry.New = suffixedTarget(entry.New, taken)
			}
		}
		claimed[entry.New] = true
		result.Entries = append(result.Entries, entry)
		result.Summary.Succeeded++
	}
	if !result.Summary.Cancelled {
		progress.Report(total, total, fmt.Sprintf("planned %d", len(result.Entries)))
	}

	logger.Info("plan complete",
		logging.String(logging.FieldEventType, "tags_plan_complete"),
		logging.Int("files", total),
		logging.Int("anchors", len(anchors)),
		logging.Int("planned", len(result.Entries)),
		logging.Int("skipped", result.Summary.Skipped),
		logging.Bool("cancelled", result.Summary.Cancelled),
	)
	return result
}

func (t *Tagger) planFile(path string, anchors map[AnchorKey]Tag) (Entry, string) {
	stem, ext := SplitName(filepath.Base(path))
	if !t.matchesExtension(ext) {
		return Entry{}, SkipExtension
	}
	if HasTrailingTag(stem) {
		return Entry{}, SkipAlreadyTagged
	}
	core := StripTrailingTag(stem)
	if core == "" {
		return Entry{}, SkipEmptyCore
	}
	dir := filepath.Dir(path)
	tag, ok := anchors[AnchorKey{Dir: dir, Core: CoreKey(core)}]
	if !ok {
		return Entry{}, SkipNoAnchor
	}
	name := strings.TrimRightFunc(strings.TrimRight(core+tag.Suffix()+ext, ". "), unicode.IsSpace)
	target := filepath.Join(dir, name)
	if target == path {
		return Entry{}, SkipUnchanged
	}
	return Entry{Old: path, New: target, ID: tag.ID, Date: tag.Date}, ""
}

// suffixedTarget inserts " (n)" between the tagged stem and the compound
// extension, so "Talk [id] - date.vi.vtt" becomes "Talk [id] - date (1).vi.vtt".
func suffixedTarget(target string, taken func(string) bool) string {
	dir := filepath.Dir(target)
	stem, ext := SplitName(filepath.Base(target))
	for i := 1; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
		if !taken(candidate) {
			return candidate
		}
	}
}
