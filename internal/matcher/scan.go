package matcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"ytkit/internal/language"
	"ytkit/internal/logging"
)

// Status describes whether a plan row can be applied.
type Status string

const (
	StatusReady        Status = "ready"
	StatusNoIdentifier Status = "no_identifier"
	StatusNoMatch      Status = "no_match"
)

// Row is one proposed media rename.
type Row struct {
	Media      string `json:"media"`
	Identifier string `json:"identifier,omitempty"`
	Caption    string `json:"caption,omitempty"`
	Target     string `json:"target,omitempty"`
	Status     Status `json:"status"`
}

// Eligible reports whether Apply will attempt to rename this row.
func (r Row) Eligible() bool {
	return r.Status == StatusReady && r.Target != "" && r.Target != r.Media
}

// Plan is the result of a scan. It is never persisted.
type Plan struct {
	Folder string `json:"folder"`
	Rows   []Row  `json:"rows"`
}

// Counts returns the number of rows per status.
func (p Plan) Counts() map[Status]int {
	counts := make(map[Status]int, 3)
	for _, row := range p.Rows {
		counts[row.Status]++
	}
	return counts
}

// Filter returns a copy of the plan keeping rows for which keep returns true.
func (p Plan) Filter(keep func(Row) bool) Plan {
	out := Plan{Folder: p.Folder}
	for _, row := range p.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Scan enumerates media and caption files under folder and proposes renames.
// Rows follow media enumeration order.
func (m *Matcher) Scan(ctx context.Context, folder string) (Plan, error) {
	root, err := resolveFolder(folder)
	if err != nil {
		return Plan{}, err
	}
	logger := logging.WithContext(ctx, m.logger)

	var mediaFiles []string
	captionsByID := make(map[string][]string)
	err = m.walk(ctx, root, func(path string) {
		name := filepath.Base(path)
		ext := strings.ToLower(filepath.Ext(name))
		if _, ok := m.media[ext]; ok {
			mediaFiles = append(mediaFiles, path)
			return
		}
		if m.captionExtension(name) == "" {
			return
		}
		if id := ExtractIdentifier(name); id != "" {
			captionsByID[id] = append(captionsByID[id], path)
		}
	})
	if err != nil {
		return Plan{}, err
	}

	plan := Plan{Folder: root, Rows: make([]Row, 0, len(mediaFiles))}
	for _, media := range mediaFiles {
		row := Row{Media: media, Identifier: ExtractIdentifier(filepath.Base(media))}
		switch caption := m.bestCaption(captionsByID[row.Identifier]); {
		case row.Identifier == "":
			row.Status = StatusNoIdentifier
		case caption == "":
			row.Status = StatusNoMatch
		default:
			row.Caption = caption
			row.Target = filepath.Join(filepath.Dir(media), m.captionBase(filepath.Base(caption))+filepath.Ext(media))
			row.Status = StatusReady
		}
		plan.Rows = append(plan.Rows, row)
	}

	counts := plan.Counts()
	logger.Info("scan complete",
		logging.String(logging.FieldEventType, "match_scan_complete"),
		logging.String(logging.FieldRoot, root),
		logging.Int("ready", counts[StatusReady]),
		logging.Int("no_match", counts[StatusNoMatch]),
		logging.Int("no_identifier", counts[StatusNoIdentifier]),
		logging.Int("captions", len(captionsByID)),
	)
	return plan, nil
}

func resolveFolder(folder string) (string, error) {
	if strings.TrimSpace(folder) == "" {
		folder = "."
	}
	root, err := filepath.Abs(folder)
	if err != nil {
		return "", fmt.Errorf("resolve folder: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("folder %s: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("folder %s: %w", root, ErrNotDirectory)
	}
	return root, nil
}

func (m *Matcher) walk(ctx context.Context, root string, visit func(string)) error {
	if !m.recursive {
		entries, err := os.ReadDir(root)
		if err != nil {
			return fmt.Errorf("read folder: %w", err)
		}
		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return err
			}
			if entry.Type().IsRegular() {
				visit(filepath.Join(root, entry.Name()))
			}
		}
		return nil
	}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			m.logger.Debug("skipping unreadable entry", logging.String(logging.FieldPath, path), logging.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.Type().IsRegular() {
			visit(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk folder: %w", err)
	}
	return nil
}

// captionExtension returns the configured caption extension name ends with
// (case-insensitive), or "".
func (m *Matcher) captionExtension(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range m.captions {
		if strings.HasSuffix(lower, ext) && len(lower) > len(ext) {
			return ext
		}
	}
	return ""
}

// bestCaption picks the caption ranked highest by the language preferences.
// Unranked captions sort last; ties keep enumeration order.
func (m *Matcher) bestCaption(candidates []string) string {
	best := ""
	bestRank := len(m.languages) + 1
	for _, candidate := range candidates {
		if rank := m.rank(filepath.Base(candidate)); rank < bestRank {
			best, bestRank = candidate, rank
		}
	}
	return best
}

func (m *Matcher) rank(name string) int {
	ext := m.captionExtension(name)
	lower := strings.ToLower(name)
	for i, lang := range m.languages {
		if lang == language.None {
			if !hasLanguageSuffix(strings.TrimSuffix(lower, ext)) {
				return i
			}
			continue
		}
		if strings.HasSuffix(lower, "."+lang+ext) {
			return i
		}
	}
	return len(m.languages)
}

// hasLanguageSuffix reports whether stem ends in ".<code>" for one of the
// recognized caption language codes.
func hasLanguageSuffix(stem string) bool {
	dot := strings.LastIndexByte(stem, '.')
	if dot < 0 {
		return false
	}
	return language.IsCaptionSuffix(stem[dot+1:])
}

// captionBase strips the caption extension and a trailing 1-3 character
// segment that looks like a language code.
func (m *Matcher) captionBase(name string) string {
	stem := name[:len(name)-len(m.captionExtension(name))]
	if dot := strings.LastIndexByte(stem, '.'); dot >= 0 {
		if seg := stem[dot+1:]; len(seg) >= 1 && len(seg) <= 3 {
			stem = stem[:dot]
		}
	}
	return stem
}
