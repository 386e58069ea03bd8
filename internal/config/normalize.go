package config

import (
	"fmt"
	"os"
	"strings"

	"ytkit/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMatch()
	if err := c.normalizeTags(); err != nil {
		return err
	}
	if err := c.normalizeDownload(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("YTKIT_STATE_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.StateDir = value
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir()
	}
	var err error
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeMatch() {
	c.Match.Languages = strings.TrimSpace(c.Match.Languages)
	if c.Match.Languages == "" {
		c.Match.Languages = defaultMatchLanguages
	}
	c.Match.Collision = strings.ToLower(strings.TrimSpace(c.Match.Collision))
	if c.Match.Collision == "" {
		c.Match.Collision = defaultMatchCollision
	}
	c.Match.MediaExtensions = NormalizeExtensions(c.Match.MediaExtensions)
	c.Match.CaptionExtensions = NormalizeExtensions(c.Match.CaptionExtensions)
}

func (c *Config) normalizeTags() error {
	c.Tags.Collision = strings.ToLower(strings.TrimSpace(c.Tags.Collision))
	if c.Tags.Collision == "" {
		c.Tags.Collision = defaultTagsCollision
	}
	c.Tags.Extensions = NormalizeExtensions(c.Tags.Extensions)
	if strings.TrimSpace(c.Tags.LogDir) != "" {
		var err error
		if c.Tags.LogDir, err = expandPath(strings.TrimSpace(c.Tags.LogDir)); err != nil {
			return fmt.Errorf("tags.log_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeDownload() error {
	if value, ok := os.LookupEnv("YTDLP_PATH"); ok && strings.TrimSpace(value) != "" {
		c.Download.Binary = value
	}
	c.Download.Binary = strings.TrimSpace(c.Download.Binary)
	if c.Download.Binary == "" {
		c.Download.Binary = defaultYtdlpBinary
	}
	if c.Download.Proxy == "" {
		if value, ok := os.LookupEnv("YTKIT_PROXY"); ok {
			c.Download.Proxy = value
		}
	}
	c.Download.Proxy = strings.TrimSpace(c.Download.Proxy)
	c.Download.CookiesFromBrowser = strings.TrimSpace(c.Download.CookiesFromBrowser)
	c.Download.RateLimit = strings.TrimSpace(c.Download.RateLimit)
	c.Download.Impersonate = strings.TrimSpace(c.Download.Impersonate)
	c.Download.MaxFilesize = strings.TrimSpace(c.Download.MaxFilesize)
	c.Download.AudioCodec = strings.ToLower(strings.TrimSpace(c.Download.AudioCodec))
	if c.Download.AudioCodec == "" {
		c.Download.AudioCodec = defaultAudioCodec
	}
	c.Download.AudioQuality = strings.TrimSpace(c.Download.AudioQuality)
	if c.Download.AudioQuality == "" {
		c.Download.AudioQuality = defaultAudioQuality
	}
	c.Download.SubtitleFormat = strings.ToLower(strings.TrimSpace(c.Download.SubtitleFormat))
	if c.Download.SubtitleFormat == "" {
		c.Download.SubtitleFormat = defaultSubtitleFormat
	}
	c.Download.SubtitleLanguages = language.NormalizeList(c.Download.SubtitleLanguages)
	candidates := c.Download.FormatCandidates[:0]
	for _, candidate := range c.Download.FormatCandidates {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			candidates = append(candidates, trimmed)
		}
	}
	c.Download.FormatCandidates = candidates
	if len(c.Download.FormatCandidates) == 0 {
		c.Download.FormatCandidates = append([]string(nil), defaultFormatCandidates...)
	}
	if c.Download.Retries < 0 {
		c.Download.Retries = 0
	}
	if c.Download.ConcurrentFragments <= 0 {
		c.Download.ConcurrentFragments = defaultFragments
	}
	var err error
	if strings.TrimSpace(c.Download.OutputDir) == "" {
		c.Download.OutputDir = defaultOutputDir
	}
	if c.Download.OutputDir, err = expandPath(strings.TrimSpace(c.Download.OutputDir)); err != nil {
		return fmt.Errorf("download.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Download.FFmpegLocation) != "" {
		if c.Download.FFmpegLocation, err = expandPath(strings.TrimSpace(c.Download.FFmpegLocation)); err != nil {
			return fmt.Errorf("download.ffmpeg_location: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// NormalizeExtensions lowercases, dot-prefixes, and de-duplicates extensions
// while preserving order. "mp3", ".MP3" and " .mp3 " all become ".mp3".
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	seen := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" || ext == "." {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}

// ParseExtensionList splits a comma/space separated list into normalized extensions.
func ParseExtensionList(raw string) []string {
	return NormalizeExtensions(strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t'
	}))
}
