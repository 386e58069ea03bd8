package ytdlp

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotInstalled is returned when the yt-dlp executable cannot be started.
	ErrNotInstalled = errors.New("yt-dlp is not installed")
	// ErrUnavailable marks videos that are private, removed, or region locked.
	ErrUnavailable = errors.New("video unavailable")
	// ErrRateLimited marks HTTP 429 responses relayed by yt-dlp.
	ErrRateLimited = errors.New("rate limited")
	// ErrTimeout is returned when an invocation exceeds Options.Timeout.
	ErrTimeout = errors.New("yt-dlp timed out")
)

// CommandError describes a failed yt-dlp invocation.
type CommandError struct {
	Op       string
	Target   string
	ExitCode int
	Message  string
	Err      error
}

func (e *CommandError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Target == "" {
		return fmt.Sprintf("yt-dlp %s: %s", e.Op, msg)
	}
	return fmt.Sprintf("yt-dlp %s %s: %s", e.Op, e.Target, msg)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// classifyStderr maps well-known yt-dlp failures onto sentinel errors.
func classifyStderr(stderr string) error {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "http error 429"),
		strings.Contains(lower, "too many requests"),
		strings.Contains(lower, "rate-limit"):
		return ErrRateLimited
	case strings.Contains(lower, "video unavailable"),
		strings.Contains(lower, "private video"),
		strings.Contains(lower, "does not exist"),
		strings.Contains(lower, "http error 404"):
		return ErrUnavailable
	}
	return nil
}

// errorLines returns the "ERROR:" lines of stderr, or its last non-empty
// line when none are marked.
func errorLines(stderr string) []string {
	var marked []string
	last := ""
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		last = line
		if strings.HasPrefix(line, "ERROR:") {
			marked = append(marked, strings.TrimSpace(strings.TrimPrefix(line, "ERROR:")))
		}
	}
	if len(marked) == 0 && last != "" {
		return []string{last}
	}
	return marked
}
