package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"ytkit/internal/logging"
)

var captionExtensions = map[string]struct{}{".vtt": {}, ".srt": {}}

// SubtitleResult lists the caption files a FetchSubtitles call produced.
type SubtitleResult struct {
	Dir     string   `json:"dir"`
	URLs    int      `json:"urls"`
	Written []string `json:"written"`
	Errors  []string `json:"errors,omitempty"`
}

// FetchSubtitles downloads captions for urls into dir using SubtitleTemplate.
// yt-dlp continues past individual failures; their messages are returned in
// Errors alongside the files that were written.
func (c *Client) FetchSubtitles(ctx context.Context, urls []string, dir string) (SubtitleResult, error) {
	logger := logging.WithContext(ctx, c.logger)
	if strings.TrimSpace(dir) == "" {
		dir = c.opts.outputDir()
	}
	result := SubtitleResult{Dir: dir, URLs: len(urls)}
	if len(urls) == 0 {
		return result, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return result, fmt.Errorf("create subtitle dir: %w", err)
	}

	before := captionFiles(dir)
	_, err := c.run(ctx, "subtitles", "", c.opts.subtitleArgs(urls, filepath.Join(dir, SubtitleTemplate)))
	if err != nil {
		if errors.Is(err, ErrNotInstalled) || ctx.Err() != nil {
			return result, err
		}
		var cmdErr *CommandError
		if !errors.As(err, &cmdErr) {
			return result, err
		}
		result.Errors = append(result.Errors, cmdErr.Error())
	}

	for _, name := range captionFiles(dir) {
		if !slices.Contains(before, name) {
			result.Written = append(result.Written, filepath.Join(dir, name))
		}
	}
	logger.Info("subtitles fetched",
		logging.String(logging.FieldEventType, "subtitles_complete"),
		logging.String(logging.FieldRoot, dir),
		logging.Int("urls", len(urls)),
		logging.Int("written", len(result.Written)),
		logging.Int("errors", len(result.Errors)),
	)
	return result, nil
}

func captionFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := captionExtensions[strings.ToLower(filepath.Ext(entry.Name()))]; ok {
			names = append(names, entry.Name())
		}
	}
	return names
}
