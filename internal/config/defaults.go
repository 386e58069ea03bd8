package config

const (
	defaultConfigPath       = "~/.config/ytkit/config.toml"
	projectConfigName       = "ytkit.toml"
	defaultStateDirFallback = "~/.local/share/ytkit"
	defaultMatchLanguages   = "vi,en,none"
	defaultMatchCollision   = "suffix"
	defaultTagsCollision    = "unique"
	defaultYtdlpBinary      = "yt-dlp"
	defaultOutputDir        = "."
	defaultAudioCodec       = "mp3"
	defaultAudioQuality     = "192K"
	defaultSubtitleFormat   = "vtt"
	defaultImpersonate      = "chrome"
	defaultRetries          = 10
	defaultFragments        = 5
	defaultTimeoutSeconds   = 3600
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

var (
	defaultMediaExtensions   = []string{".mp3", ".m4a", ".mp4", ".webm", ".opus", ".flac", ".wav"}
	defaultCaptionExtensions = []string{".vtt"}
	defaultTagExtensions     = []string{".mp3", ".mp4", ".mkv", ".wav", ".pdf", ".docx", ".txt", ".srt", ".vtt", ".zip"}
	defaultFormatCandidates  = []string{
		"bestaudio[ext=m4a]/bestaudio[acodec^=opus]/bestaudio/best",
		"bestaudio*",
		"bestvideo+bestaudio/best",
	}
	defaultSubtitleLanguages = []string{"vi", "en"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir(),
		},
		Match: Match{
			Languages:         defaultMatchLanguages,
			Collision:         defaultMatchCollision,
			MediaExtensions:   append([]string(nil), defaultMediaExtensions...),
			CaptionExtensions: append([]string(nil), defaultCaptionExtensions...),
		},
		Tags: Tags{
			Extensions: append([]string(nil), defaultTagExtensions...),
			Collision:  defaultTagsCollision,
			Recursive:  true,
		},
		Download: Download{
			Binary:              defaultYtdlpBinary,
			OutputDir:           defaultOutputDir,
			AudioCodec:          defaultAudioCodec,
			AudioQuality:        defaultAudioQuality,
			FormatCandidates:    append([]string(nil), defaultFormatCandidates...),
			SubtitleLanguages:   append([]string(nil), defaultSubtitleLanguages...),
			SubtitleFormat:      defaultSubtitleFormat,
			AutoSubtitles:       true,
			RestrictFilenames:   true,
			Impersonate:         defaultImpersonate,
			Retries:             defaultRetries,
			ConcurrentFragments: defaultFragments,
			TimeoutSeconds:      defaultTimeoutSeconds,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			RunLog: true,
		},
	}
}
