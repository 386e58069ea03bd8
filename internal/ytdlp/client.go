package ytdlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"ytkit/internal/logging"
	"ytkit/internal/textutil"
)

// Client drives yt-dlp with a fixed set of Options.
type Client struct {
	opts   Options
	runner Runner
	logger *slog.Logger
}

// New returns a Client. A nil runner uses ExecRunner.
func New(opts Options, runner Runner, logger *slog.Logger) *Client {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Client{
		opts:   opts,
		runner: runner,
		logger: logging.NewComponentLogger(logger, "ytdlp"),
	}
}

// Options returns the client's settings.
func (c *Client) Options() Options {
	return c.opts
}

// Entry is one video listed by ResolveEntries.
type Entry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// URL returns the canonical watch URL for the entry.
func (e Entry) URL() string {
	return "https://www.youtube.com/watch?v=" + e.ID
}

type flatEntry struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Type    string      `json:"_type"`
	Entries []flatEntry `json:"entries"`
}

// Version returns the installed yt-dlp version.
func (c *Client) Version(ctx context.Context) (string, error) {
	stdout, err := c.run(ctx, "version", "", []string{"--version"})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(stdout)), nil
}

// ResolveEntries lists the videos behind source, which may be a playlist,
// a channel, or a single video.
func (c *Client) ResolveEntries(ctx context.Context, source string) ([]Entry, error) {
	args := append([]string{"--flat-playlist", "--dump-single-json", "--no-warnings"}, c.opts.networkArgs()...)
	args = append(args, "--", source)
	stdout, err := c.run(ctx, "resolve", source, args)
	if err != nil {
		return nil, err
	}
	var root flatEntry
	if err := json.Unmarshal(stdout, &root); err != nil {
		return nil, fmt.Errorf("parse yt-dlp output: %w", err)
	}

	var entries []Entry
	seen := make(map[string]struct{})
	var walk func(items []flatEntry)
	walk = func(items []flatEntry) {
		for _, item := range items {
			if len(item.Entries) > 0 {
				walk(item.Entries)
				continue
			}
			if item.ID == "" || item.Type == "playlist" {
				continue
			}
			if _, dup := seen[item.ID]; dup {
				continue
			}
			seen[item.ID] = struct{}{}
			entries = append(entries, Entry{ID: item.ID, Title: item.Title})
		}
	}
	if len(root.Entries) == 0 && root.Type != "playlist" {
		walk([]flatEntry{root})
	} else {
		walk(root.Entries)
	}
	c.logger.Info("resolved entries",
		logging.String(logging.FieldEventType, "ytdlp_resolve_complete"),
		logging.String("source", source),
		logging.Int("entries", len(entries)),
	)
	return entries, nil
}

// ProbeTitle asks yt-dlp for the title of url without downloading.
func (c *Client) ProbeTitle(ctx context.Context, url string) (string, error) {
	args := append([]string{"--skip-download", "--no-playlist", "--no-warnings", "--print", "%(title)s"}, c.opts.networkArgs()...)
	args = append(args, "--", url)
	stdout, err := c.run(ctx, "probe", url, args)
	if err != nil {
		return "", err
	}
	title := strings.TrimSpace(firstLine(string(stdout)))
	if title == "" || title == "NA" {
		return textutil.Unknown, nil
	}
	return title, nil
}

// ListFormats returns yt-dlp's format table for url.
func (c *Client) ListFormats(ctx context.Context, url string) (string, error) {
	stdout, err := c.run(ctx, "formats", url, c.opts.listFormatsArgs(url))
	if err != nil {
		return "", err
	}
	return string(stdout), nil
}

func (c *Client) run(ctx context.Context, op, target string, args []string) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.opts.timeout())
	defer cancel()

	c.logger.Debug("running yt-dlp", logging.String("op", op), logging.Any("args", args))
	stdout, stderr, err := c.runner.Run(runCtx, c.opts.binary(), args)
	if err == nil {
		return stdout, nil
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) || errors.Is(err, ErrNotInstalled) {
		return nil, fmt.Errorf("%w: %s", ErrNotInstalled, c.opts.binary())
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, &CommandError{Op: op, Target: target, Message: "no result within " + c.opts.timeout().String(), Err: ErrTimeout}
	}

	cmdErr := &CommandError{Op: op, Target: target, ExitCode: -1, Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		cmdErr.ExitCode = exitErr.ExitCode()
	}
	if lines := errorLines(string(stderr)); len(lines) > 0 {
		cmdErr.Message = lines[len(lines)-1]
	}
	if kind := classifyStderr(string(stderr)); kind != nil {
		cmdErr.Err = kind
	}
	return stdout, cmdErr
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\r\n"), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
