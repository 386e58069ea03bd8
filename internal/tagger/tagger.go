package tagger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ytkit/internal/batch"
	"ytkit/internal/config"
	"ytkit/internal/logging"
)

var (
	// ErrNoExtensions is returned when the extension filter is empty.
	ErrNoExtensions = errors.New("no extensions configured")
	// ErrLogNotFound is returned by Revert when the CSV log is missing.
	ErrLogNotFound = errors.New("rename log not found")
)

// DefaultExtensions is the extension filter used when none is configured.
var DefaultExtensions = []string{".mp3", ".mp4", ".mkv", ".wav", ".pdf", ".docx", ".txt", ".srt", ".vtt", ".zip"}

// Options configures a Tagger.
type Options struct {
	Extensions []string
	Collision  batch.Collision
	LogDir     string // empty means the working directory
	Recursive  bool
	Now        func() time.Time
}

// Tagger plans, applies, and reverts tag propagation renames.
type Tagger struct {
	exts      []string
	collision batch.Collision
	logDir    string
	recursive bool
	now       func() time.Time
	logger    *slog.Logger
}

// New validates opts and returns a Tagger.
func New(opts Options, logger *slog.Logger) (*Tagger, error) {
	exts := config.NormalizeExtensions(opts.Extensions)
	if len(exts) == 0 {
		return nil, ErrNoExtensions
	}
	if !opts.Collision.Valid() {
		return nil, fmt.Errorf("%w: %d", batch.ErrInvalidCollision, int(opts.Collision))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Tagger{
		exts:      exts,
		collision: opts.Collision,
		logDir:    strings.TrimSpace(opts.LogDir),
		recursive: opts.Recursive,
		now:       now,
		logger:    logging.NewComponentLogger(logger, "tagger"),
	}, nil
}

// Extensions returns the normalized extension filter.
func (t *Tagger) Extensions() []string {
	return append([]string(nil), t.exts...)
}

func (t *Tagger) matchesExtension(ext string) bool {
	if ext == "" {
		return false
	}
	lower := strings.ToLower(ext)
	for _, e := range t.exts {
		if strings.HasSuffix(lower, e) {
			return true
		}
	}
	return false
}

// Collect lists the regular files under root, descending into
// subdirectories when the Tagger is recursive.
func (t *Tagger) Collect(ctx context.Context, root string) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s: not a directory", abs)
	}

	var files []string
	if !t.recursive {
		entries, err := os.ReadDir(abs)
		if err != nil {
			return nil, fmt.Errorf("read root: %w", err)
		}
		for _, entry := range entries {
			if entry.Type().IsRegular() {
				files = append(files, filepath.Join(abs, entry.Name()))
			}
		}
		return files, ctx.Err()
	}
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == abs {
				return err
			}
			t.logger.Debug("skipping unreadable entry", logging.String(logging.FieldPath, path), logging.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk root: %w", err)
	}
	return files, nil
}
