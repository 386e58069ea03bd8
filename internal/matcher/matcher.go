package matcher

import (
	"errors"
	"log/slog"
	"regexp"

	"ytkit/internal/config"
	"ytkit/internal/language"
	"ytkit/internal/logging"
)

// UndoLogName is the fixed undo log file written into the scanned folder.
const UndoLogName = "_match_rename_undo_last.json"

// legacyUndoLogName is read by Undo when no current log exists.
const legacyUndoLogName = "_mp3_rename_undo_last.json"

var (
	// ErrNoUndoLog is returned by Undo when the folder has no undo log.
	ErrNoUndoLog = errors.New("no undo log found")
	// ErrNotDirectory is returned when the scan root is not a directory.
	ErrNotDirectory = errors.New("not a directory")
)

var identifierPattern = regexp.MustCompile(`\[([A-Za-z0-9_-]{11})\]`)

// DefaultMediaExtensions are the primary media kinds renamed by the matcher.
var DefaultMediaExtensions = []string{".mp3", ".m4a", ".mp4", ".webm", ".opus", ".flac", ".wav"}

// DefaultCaptionExtensions are the caption kinds whose names are copied.
var DefaultCaptionExtensions = []string{".vtt"}

// Options configures a Matcher.
type Options struct {
	Recursive         bool
	Languages         language.Preferences
	MediaExtensions   []string
	CaptionExtensions []string
}

// Matcher scans, applies, and undoes identifier-based renames. A Matcher is
// stateless between calls; the caller owns the Plan.
type Matcher struct {
	recursive bool
	languages language.Preferences
	media     map[string]struct{}
	captions  []string
	logger    *slog.Logger
}

// New validates opts and returns a Matcher.
func New(opts Options, logger *slog.Logger) (*Matcher, error) {
	langs := opts.Languages
	if len(langs) == 0 {
		langs = language.DefaultPreferences()
	} else {
		var err error
		if langs, err = language.NewPreferences(langs); err != nil {
			return nil, err
		}
	}
	mediaExts := config.NormalizeExtensions(opts.MediaExtensions)
	if len(mediaExts) == 0 {
		mediaExts = DefaultMediaExtensions
	}
	captionExts := config.NormalizeExtensions(opts.CaptionExtensions)
	if len(captionExts) == 0 {
		captionExts = DefaultCaptionExtensions
	}
	media := make(map[string]struct{}, len(mediaExts))
	for _, ext := range mediaExts {
		media[ext] = struct{}{}
	}
	for _, ext := range captionExts {
		if _, ok := media[ext]; ok {
			return nil, errors.New("matcher: extension " + ext + " cannot be both media and caption")
		}
	}
	return &Matcher{
		recursive: opts.Recursive,
		languages: langs,
		media:     media,
		captions:  captionExts,
		logger:    logging.NewComponentLogger(logger, "matcher"),
	}, nil
}

// Languages returns the effective preference order.
func (m *Matcher) Languages() language.Preferences {
	return append(language.Preferences(nil), m.languages...)
}

// ExtractIdentifier returns the first bracketed 11-character identifier in
// name, or "" when there is none.
func ExtractIdentifier(name string) string {
	match := identifierPattern.FindStringSubmatch(name)
	if match == nil {
		return ""
	}
	return match[1]
}
