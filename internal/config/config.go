package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"ytkit/internal/batch"
	"ytkit/internal/language"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
}

// Match configures the identifier matcher.
type Match struct {
	Recursive         bool     `toml:"recursive"`
	Languages         string   `toml:"languages"`
	Collision         string   `toml:"collision"`
	MediaExtensions   []string `toml:"media_extensions"`
	CaptionExtensions []string `toml:"caption_extensions"`
}

// Tags configures the tag propagator.
type Tags struct {
	Extensions []string `toml:"extensions"`
	Collision  string   `toml:"collision"`
	Recursive  bool     `toml:"recursive"`
	LogDir     string   `toml:"log_dir"` // empty means the working directory
}

// Download configures the yt-dlp boundary.
type Download struct {
	Binary              string   `toml:"ytdlp_path"`
	OutputDir           string   `toml:"output_dir"`
	AudioCodec          string   `toml:"audio_codec"`
	AudioQuality        string   `toml:"audio_quality"`
	FormatCandidates    []string `toml:"format_candidates"`
	SubtitleLanguages   []string `toml:"subtitle_languages"`
	SubtitleFormat      string   `toml:"subtitle_format"`
	AutoSubtitles       bool     `toml:"auto_subtitles"`
	Overwrite           bool     `toml:"overwrite"`
	RestrictFilenames   bool     `toml:"restrict_filenames"`
	AllowPlaylist       bool     `toml:"allow_playlist"`
	MaxFilesize         string   `toml:"max_filesize"` // applies to subs --with-video downloads
	Proxy               string   `toml:"proxy"`
	CookiesFromBrowser  string   `toml:"cookies_from_browser"`
	ForceIPv4           bool     `toml:"force_ipv4"`
	RateLimit           string   `toml:"rate_limit"`
	FFmpegLocation      string   `toml:"ffmpeg_location"`
	Impersonate         string   `toml:"impersonate"`
	Retries             int      `toml:"retries"`
	ConcurrentFragments int      `toml:"concurrent_fragments"`
	TimeoutSeconds      int      `toml:"timeout_seconds"`
}

// History configures the run ledger.
type History struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	RunLog bool   `toml:"run_log"`
}

// Config encapsulates all configuration values for ytkit.
//
// Configuration sections by subsystem:
//   - Paths: state directory (history database, locks, run log)
//   - Match: identifier matcher defaults
//   - Tags: tag propagator defaults
//   - Download: yt-dlp options for URL lists, audio, and subtitles
//   - History: run ledger toggle
//   - Logging: log format, level, and run log
type Config struct {
	Paths    Paths    `toml:"paths"`
	Match    Match    `toml:"match"`
	Tags     Tags     `toml:"tags"`
	Download Download `toml:"download"`
	History  History  `toml:"history"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state directory tree.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.LockDir(), filepath.Dir(c.LogPath())} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryPath returns the run ledger database path.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LogPath returns the JSON run log path.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.StateDir, "logs", "ytkit.log")
}

// LockDir returns the directory holding per-root job lock files.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.StateDir, "locks")
}

// MatchCollision returns the parsed matcher collision mode. Validate has
// already rejected unknown values.
func (c *Config) MatchCollision() batch.Collision {
	mode, _ := batch.ParseCollision(c.Match.Collision)
	return mode
}

// MatchLanguages returns the parsed matcher language preferences.
func (c *Config) MatchLanguages() language.Preferences {
	prefs, err := language.ParsePreferences(c.Match.Languages)
	if err != nil {
		return language.DefaultPreferences()
	}
	return prefs
}

// TagsCollision returns the parsed tag propagator collision mode.
func (c *Config) TagsCollision() batch.Collision {
	mode, _ := batch.ParseCollision(c.Tags.Collision)
	return mode
}

// DownloadTimeout returns the per-invocation yt-dlp timeout.
func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Download.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultStateDir() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "ytkit")
	}
	return defaultStateDirFallback
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
