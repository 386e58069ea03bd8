package ytdlp

import (
	"strconv"
	"strings"
	"time"

	"ytkit/internal/config"
)

const (
	defaultBinary  = "yt-dlp"
	defaultTimeout = time.Hour

	// SubtitleTemplate names caption files so the tagger can use them as anchors.
	SubtitleTemplate = "%(title).200B [%(id)s] - %(upload_date>%Y-%m-%d)s.%(ext)s"

	playerClients = "youtube:player_client=ios,android,web"
)

// Options is the full set of downloader settings.
type Options struct {
	Binary    string
	OutputDir string
	Timeout   time.Duration

	AudioCodec       string
	AudioQuality     string
	FormatCandidates []string
	AllowPlaylist    bool
	Simulate         bool

	SubtitleLanguages []string
	SubtitleFormat    string
	AutoSubtitles     bool
	IncludeVideo      bool
	MaxFilesize       string

	Overwrite           bool
	RestrictFilenames   bool
	Proxy               string
	CookiesFromBrowser  string
	ForceIPv4           bool
	ThrottledRate       string
	FFmpegLocation      string
	Impersonate         string
	Retries             int
	ConcurrentFragments int
}

// OptionsFromConfig copies the [download] section into Options.
func OptionsFromConfig(cfg config.Download) Options {
	return Options{
		Binary:              cfg.Binary,
		OutputDir:           cfg.OutputDir,
		Timeout:             time.Duration(cfg.TimeoutSeconds) * time.Second,
		AudioCodec:          cfg.AudioCodec,
		AudioQuality:        cfg.AudioQuality,
		FormatCandidates:    append([]string(nil), cfg.FormatCandidates...),
		AllowPlaylist:       cfg.AllowPlaylist,
		SubtitleLanguages:   append([]string(nil), cfg.SubtitleLanguages...),
		SubtitleFormat:      cfg.SubtitleFormat,
		AutoSubtitles:       cfg.AutoSubtitles,
		MaxFilesize:         cfg.MaxFilesize,
		Overwrite:           cfg.Overwrite,
		RestrictFilenames:   cfg.RestrictFilenames,
		Proxy:               cfg.Proxy,
		CookiesFromBrowser:  cfg.CookiesFromBrowser,
		ForceIPv4:           cfg.ForceIPv4,
		ThrottledRate:       cfg.RateLimit,
		FFmpegLocation:      cfg.FFmpegLocation,
		Impersonate:         cfg.Impersonate,
		Retries:             cfg.Retries,
		ConcurrentFragments: cfg.ConcurrentFragments,
	}
}

func (o Options) binary() string {
	if strings.TrimSpace(o.Binary) != "" {
		return o.Binary
	}
	return defaultBinary
}

func (o Options) timeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return defaultTimeout
}

func (o Options) outputDir() string {
	if strings.TrimSpace(o.OutputDir) != "" {
		return o.OutputDir
	}
	return "."
}

// networkArgs are shared by every invocation.
func (o Options) networkArgs() []string {
	var args []string
	if o.Proxy != "" {
		args = append(args, "--proxy", o.Proxy)
	}
	if o.CookiesFromBrowser != "" {
		args = append(args, "--cookies-from-browser", o.CookiesFromBrowser)
	}
	if o.ForceIPv4 {
		args = append(args, "--force-ipv4")
	}
	if o.Impersonate != "" {
		args = append(args, "--impersonate", o.Impersonate)
	}
	return args
}

func (o Options) overwriteArgs() []string {
	if o.Overwrite {
		return []string{"--force-overwrites"}
	}
	return []string{"--no-overwrites"}
}

func (o Options) transferArgs() []string {
	var args []string
	if o.Retries > 0 {
		retries := strconv.Itoa(o.Retries)
		args = append(args, "--retries", retries, "--fragment-retries", retries)
	}
	if o.ConcurrentFragments > 0 {
		args = append(args, "--concurrent-fragments", strconv.Itoa(o.ConcurrentFragments))
	}
	if o.ThrottledRate != "" {
		args = append(args, "--throttled-rate", o.ThrottledRate)
	}
	return args
}

// audioArgs builds one download attempt with format fmt into outtmpl.
func (o Options) audioArgs(url, format, outtmpl string) []string {
	codec := o.AudioCodec
	if codec == "" {
		codec = "best"
	}
	args := []string{
		"--format", format,
		"--extract-audio",
		"--audio-format", codec,
	}
	if o.AudioQuality != "" {
		args = append(args, "--audio-quality", o.AudioQuality)
	}
	args = append(args,
		"--output", outtmpl,
		"--extractor-args", playerClients,
	)
	if o.Simulate {
		args = append(args, "--simulate", "--print", "filename")
	} else {
		args = append(args, "--no-simulate", "--print", "after_move:filepath")
	}
	if o.AllowPlaylist {
		args = append(args, "--yes-playlist")
	} else {
		args = append(args, "--no-playlist")
	}
	if o.FFmpegLocation != "" {
		args = append(args, "--ffmpeg-location", o.FFmpegLocation)
	}
	args = append(args, o.overwriteArgs()...)
	args = append(args, o.transferArgs()...)
	args = append(args, o.networkArgs()...)
	return append(args, "--", url)
}

func (o Options) listFormatsArgs(url string) []string {
	args := []string{"--list-formats", "--no-playlist", "--no-warnings", "--extractor-args", playerClients}
	args = append(args, o.networkArgs()...)
	return append(args, "--", url)
}

func (o Options) subtitleArgs(urls []string, outtmpl string) []string {
	args := []string{
		"--write-subs",
		"--ignore-errors",
		"--output", outtmpl,
	}
	if o.AutoSubtitles {
		args = append(args, "--write-auto-subs")
	}
	if len(o.SubtitleLanguages) > 0 {
		args = append(args, "--sub-langs", strings.Join(o.SubtitleLanguages, ","))
	}
	if o.SubtitleFormat != "" {
		args = append(args, "--sub-format", o.SubtitleFormat)
	}
	if o.IncludeVideo {
		args = append(args, "--format", "bv*+ba/best", "--merge-output-format", "mp4")
		if o.MaxFilesize != "" {
			args = append(args, "--max-filesize", o.MaxFilesize)
		}
	} else {
		args = append(args, "--skip-download")
	}
	if o.RestrictFilenames {
		args = append(args, "--restrict-filenames")
	}
	args = append(args, o.overwriteArgs()...)
	args = append(args, o.transferArgs()...)
	args = append(args, o.networkArgs()...)
	args = append(args, "--")
	return append(args, urls...)
}
