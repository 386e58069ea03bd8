package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ytkit/internal/logging"
	"ytkit/internal/textutil"
)

// MediaExtensions are the files FindExisting compares against.
var MediaExtensions = map[string]struct{}{
	".mp3": {}, ".m4a": {}, ".mp4": {}, ".webm": {}, ".opus": {}, ".flac": {}, ".wav": {},
}

// Status is the result of one FetchAudio call.
type Status string

const (
	StatusDownloaded Status = "downloaded"
	StatusSimulated  Status = "simulated"
	StatusSkipped    Status = "skipped_existing"
	StatusFailed     Status = "failed"
)

// Outcome describes what FetchAudio did for one URL.
type Outcome struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Stem     string `json:"stem"`
	Status   Status `json:"status"`
	Existing string `json:"existing,omitempty"`
	Format   string `json:"format,omitempty"`
	Path     string `json:"path,omitempty"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error,omitempty"`
}

// FindExisting returns the name of a media file in dir whose stem has the
// same comparison key as title.
func FindExisting(dir, title string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	key := textutil.NormalizeForCompare(title)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if _, ok := MediaExtensions[strings.ToLower(ext)]; !ok {
			continue
		}
		if textutil.NormalizeForCompare(strings.TrimSuffix(name, ext)) == key {
			return name, true
		}
	}
	return "", false
}

// FetchAudio downloads url as audio into the output directory, trying each
// format candidate in order. An existing file with the same normalized title
// is left alone unless Overwrite is set. With Simulate set, yt-dlp only
// reports the file it would write. Download failures are reported in
// the Outcome; the error return is reserved for a missing yt-dlp or a
// cancelled context.
func (c *Client) FetchAudio(ctx context.Context, url string) (Outcome, error) {
	logger := logging.WithContext(ctx, c.logger)
	outcome := Outcome{URL: url}

	title, err := c.ProbeTitle(ctx, url)
	if err != nil {
		if errors.Is(err, ErrNotInstalled) || ctx.Err() != nil {
			return outcome, err
		}
		logger.Debug("title probe failed", logging.String("url", url), logging.Error(err))
		title = textutil.Unknown
	}
	outcome.Title = title
	outcome.Stem = textutil.FriendlyStem(title)

	dir := c.opts.outputDir()
	if existing, ok := FindExisting(dir, title); ok && !c.opts.Overwrite {
		outcome.Status = StatusSkipped
		outcome.Existing = existing
		logger.Info("audio already present",
			logging.String(logging.FieldEventType, "audio_skip_existing"),
			logging.String("url", url),
			logging.String("existing", existing),
		)
		return outcome, nil
	}
	if !c.opts.Simulate {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return outcome, fmt.Errorf("create output dir: %w", err)
		}
	}

	candidates := c.opts.FormatCandidates
	if len(candidates) == 0 {
		candidates = []string{"bestaudio/best"}
	}
	outtmpl := filepath.Join(dir, outcome.Stem+".%(ext)s")
	var lastErr error
	for i, format := range candidates {
		if ctx.Err() != nil {
			return outcome, ctx.Err()
		}
		outcome.Attempts = i + 1
		logger.Debug("trying format",
			logging.String("url", url),
			logging.String("format", format),
			logging.Int("attempt", i+1),
			logging.Int("candidates", len(candidates)),
		)
		stdout, err := c.run(ctx, "download", url, c.opts.audioArgs(url, format, outtmpl))
		if err == nil {
			outcome.Status = StatusDownloaded
			outcome.Format = format
			outcome.Path = lastLine(string(stdout))
			if c.opts.Simulate {
				outcome.Status = StatusSimulated
				logger.Info("audio download simulated",
					logging.String(logging.FieldEventType, "audio_download_simulated"),
					logging.String("url", url),
					logging.String("format", format),
					logging.String(logging.FieldPath, outcome.Path),
				)
				return outcome, nil
			}
			logger.Info("audio downloaded",
				logging.String(logging.FieldEventType, "audio_download_complete"),
				logging.String("url", url),
				logging.String("format", format),
				logging.String(logging.FieldPath, outcome.Path),
			)
			return outcome, nil
		}
		if errors.Is(err, ErrNotInstalled) || ctx.Err() != nil {
			return outcome, err
		}
		lastErr = err
		if errors.Is(err, ErrUnavailable) {
			break
		}
	}

	outcome.Status = StatusFailed
	if lastErr != nil {
		outcome.Error = lastErr.Error()
	}
	logging.WarnWithContext(logger, "audio download failed", "audio_download_failed",
		logging.String("url", url),
		logging.Int("attempts", outcome.Attempts),
		logging.String("error", outcome.Error),
		logging.String(logging.FieldImpact, "url skipped; remaining urls continue"),
		logging.String(logging.FieldErrorHint, "update yt-dlp or try cookies_from_browser"),
	)
	return outcome, nil
}
