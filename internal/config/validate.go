package config

import (
	"errors"
	"fmt"
	"regexp"

	"ytkit/internal/batch"
	"ytkit/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMatch(); err != nil {
		return err
	}
	if err := c.validateTags(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateMatch() error {
	if _, err := language.ParsePreferences(c.Match.Languages); err != nil {
		return fmt.Errorf("match.languages: %w", err)
	}
	if _, err := batch.ParseCollision(c.Match.Collision); err != nil {
		return fmt.Errorf("match.collision: %w", err)
	}
	if len(c.Match.MediaExtensions) == 0 {
		return errors.New("match.media_extensions must list at least one extension")
	}
	if len(c.Match.CaptionExtensions) == 0 {
		return errors.New("match.caption_extensions must list at least one extension")
	}
	for _, ext := range c.Match.CaptionExtensions {
		for _, media := range c.Match.MediaExtensions {
			if ext == media {
				return fmt.Errorf("match: extension %q cannot be both media and caption", ext)
			}
		}
	}
	return nil
}

func (c *Config) validateTags() error {
	if _, err := batch.ParseCollision(c.Tags.Collision); err != nil {
		return fmt.Errorf("tags.collision: %w", err)
	}
	if len(c.Tags.Extensions) == 0 {
		return errors.New("tags.extensions must list at least one extension")
	}
	return nil
}

// sizePattern is the size syntax yt-dlp accepts for --max-filesize.
var sizePattern = regexp.MustCompile(`(?i)^\d+(\.\d+)?[kmgtpezy]?$`)

// ValidSize reports whether value is usable as a yt-dlp size limit, e.g. "50M".
func ValidSize(value string) bool {
	return sizePattern.MatchString(value)
}

func (c *Config) validateDownload() error {
	if c.Download.TimeoutSeconds <= 0 {
		return errors.New("download.timeout_seconds must be positive")
	}
	switch c.Download.SubtitleFormat {
	case "vtt", "srt":
	default:
		return fmt.Errorf("download.subtitle_format: unsupported value %q (want vtt or srt)", c.Download.SubtitleFormat)
	}
	switch c.Download.AudioCodec {
	case "mp3", "m4a", "opus", "flac", "wav", "best":
	default:
		return fmt.Errorf("download.audio_codec: unsupported value %q", c.Download.AudioCodec)
	}
	if c.Download.MaxFilesize != "" && !ValidSize(c.Download.MaxFilesize) {
		return fmt.Errorf("download.max_filesize: invalid size %q (want e.g. 500M)", c.Download.MaxFilesize)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
