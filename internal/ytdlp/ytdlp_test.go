package ytdlp_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"ytkit/internal/config"
	"ytkit/internal/logging"
	"ytkit/internal/testsupport"
	"ytkit/internal/ytdlp"
)

type call struct {
	binary string
	args   []string
}

type response struct {
	stdout string
	stderr string
	err    error
	effect func(args []string)
}

// fakeRunner replays responses in order and records every call.
type fakeRunner struct {
	calls     []call
	responses []response
}

func (f *fakeRunner) Run(_ context.Context, binary string, args []string) ([]byte, []byte, error) {
	f.calls = append(f.calls, call{binary: binary, args: append([]string(nil), args...)})
	if len(f.responses) == 0 {
		return nil, nil, nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	if resp.effect != nil {
		resp.effect(args)
	}
	return []byte(resp.stdout), []byte(resp.stderr), resp.err
}

func argValue(args []string, flag string) string {
	i := slices.Index(args, flag)
	if i < 0 || i+1 >= len(args) {
		return ""
	}
	return args[i+1]
}

func newClient(t *testing.T, runner ytdlp.Runner, mutate func(*ytdlp.Options)) *ytdlp.Client {
	t.Helper()
	opts := ytdlp.OptionsFromConfig(config.Default().Download)
	opts.OutputDir = t.TempDir()
	opts.Impersonate = ""
	if mutate != nil {
		mutate(&opts)
	}
	return ytdlp.New(opts, runner, logging.NewNop())
}

func TestResolveEntriesPlaylist(t *testing.T) {
	runner := &fakeRunner{responses: []response{{stdout: `{
		"_type": "playlist", "id": "PL1", "title": "Course",
		"entries": [
			{"id": "aaaaaaaaaaa", "title": "One"},
			{"_type": "playlist", "id": "tab", "entries": [{"id": "bbbbbbbbbbb", "title": "Two"}]},
			{"id": "aaaaaaaaaaa", "title": "One again"},
			{"title": "no id"}
		]}`}}}
	client := newClient(t, runner, func(o *ytdlp.Options) { o.Proxy = "http://127.0.0.1:8888" })

	entries, err := client.ResolveEntries(context.Background(), "https://www.youtube.com/playlist?list=PL1")
	if err != nil {
		t.Fatalf("ResolveEntries: %v", err)
	}
	want := []ytdlp.Entry{{ID: "aaaaaaaaaaa", Title: "One"}, {ID: "bbbbbbbbbbb", Title: "Two"}}
	if !slices.Equal(entries, want) {
		t.Fatalf("entries got %+v want %+v", entries, want)
	}
	if entries[0].URL() != "https://www.youtube.com/watch?v=aaaaaaaaaaa" {
		t.Fatalf("URL got %q", entries[0].URL())
	}
	args := runner.calls[0].args
	if !slices.Contains(args, "--flat-playlist") || argValue(args, "--proxy") != "http://127.0.0.1:8888" {
		t.Fatalf("unexpected args %q", args)
	}
	if args[len(args)-1] != "https://www.youtube.com/playlist?list=PL1" {
		t.Fatalf("source should be the last argument, got %q", args)
	}
}

func TestResolveEntriesSingleVideo(t *testing.T) {
	runner := &fakeRunner{responses: []response{{stdout: `{"id": "ccccccccccc", "title": "Solo"}`}}}
	entries, err := newClient(t, runner, nil).ResolveEntries(context.Background(), "https://youtu.be/ccccccccccc")
	if err != nil {
		t.Fatalf("ResolveEntries: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "ccccccccccc" {
		t.Fatalf("entries got %+v", entries)
	}
}

func TestNotInstalled(t *testing.T) {
	runner := &fakeRunner{responses: []response{{err: &os.PathError{Op: "fork/exec", Path: "/nope", Err: os.ErrNotExist}}}}
	_, err := newClient(t, runner, nil).ResolveEntries(context.Background(), "x")
	if !errors.Is(err, ytdlp.ErrNotInstalled) {
		t.Fatalf("expected ErrNotInstalled, got %v", err)
	}
}

func TestCommandErrorClassification(t *testing.T) {
	runner := &fakeRunner{responses: []response{{
		stderr: "WARNING: something\nERROR: [youtube] xyz: Private video. Sign in if you've been granted access\n",
		err:    errors.New("exit status 1"),
	}}}
	_, err := newClient(t, runner, nil).ProbeTitle(context.Background(), "https://youtu.be/xyz")
	if !errors.Is(err, ytdlp.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	var cmdErr *ytdlp.CommandError
	if !errors.As(err, &cmdErr) || !strings.Contains(cmdErr.Message, "Private video") {
		t.Fatalf("expected CommandError with stderr message, got %#v", err)
	}
}

func TestFindExisting(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFiles(t, dir, "Bai Giang 1.mp3", "Bài Giảng #2.txt", "notes.m4a")
	if name, ok := ytdlp.FindExisting(dir, "Bài Giảng #1"); !ok || name != "Bai Giang 1.mp3" {
		t.Fatalf("FindExisting got %q, %v", name, ok)
	}
	if _, ok := ytdlp.FindExisting(dir, "Bài Giảng #2"); ok {
		t.Fatal("non-media files must not match")
	}
	if _, ok := ytdlp.FindExisting(filepath.Join(dir, "missing"), "x"); ok {
		t.Fatal("missing dir must not match")
	}
}

func TestFetchAudioSkipsExisting(t *testing.T) {
	runner := &fakeRunner{responses: []response{{stdout: "Bài Giảng: Số 1\n"}}}
	client := newClient(t, runner, nil)
	testsupport.WriteFiles(t, client.Options().OutputDir, "Bai Giang So 1.m4a")

	outcome, err := client.FetchAudio(context.Background(), "https://youtu.be/one")
	if err != nil {
		t.Fatalf("FetchAudio: %v", err)
	}
	if outcome.Status != ytdlp.StatusSkipped || outcome.Existing != "Bai Giang So 1.m4a" {
		t.Fatalf("outcome got %+v", outcome)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("expected only the title lookup call, got %d", len(runner.calls))
	}
}

func TestFetchAudioFallsBackThroughFormats(t *testing.T) {
	runner := &fakeRunner{responses: []response{
		{stdout: "Talk: Part 1?\n"},
		{stderr: "ERROR: Requested format is not available\n", err: errors.New("exit status 1")},
		{stdout: "/music/Talk Part 1.mp3\n"},
	}}
	client := newClient(t, runner, func(o *ytdlp.Options) {
		o.FormatCandidates = []string{"first", "second", "third"}
	})

	outcome, err := client.FetchAudio(context.Background(), "https://youtu.be/talk")
	if err != nil {
		t.Fatalf("FetchAudio: %v", err)
	}
	if outcome.Status != ytdlp.StatusDownloaded || outcome.Format != "second" || outcome.Attempts != 2 {
		t.Fatalf("outcome got %+v", outcome)
	}
	if outcome.Stem != "Talk Part 1" || outcome.Path != "/music/Talk Part 1.mp3" {
		t.Fatalf("stem/path got %q / %q", outcome.Stem, outcome.Path)
	}
	download := runner.calls[2].args
	if argValue(download, "--format") != "second" || argValue(download, "--audio-format") != "mp3" {
		t.Fatalf("unexpected download args %q", download)
	}
	wantTmpl := filepath.Join(client.Options().OutputDir, "Talk Part 1.%(ext)s")
	if got := argValue(download, "--output"); got != wantTmpl {
		t.Fatalf("outtmpl got %q want %q", got, wantTmpl)
	}
	if !slices.Contains(download, "--no-playlist") || !slices.Contains(download, "--no-overwrites") {
		t.Fatalf("expected playlist and overwrite guards in %q", download)
	}
}

func TestFetchAudioReportsFailure(t *testing.T) {
	runner := &fakeRunner{responses: []response{
		{stdout: "Gone\n"},
		{stderr: "ERROR: Video unavailable\n", err: errors.New("exit status 1")},
	}}
	client := newClient(t, runner, func(o *ytdlp.Options) { o.FormatCandidates = []string{"a", "b"} })
	outcome, err := client.FetchAudio(context.Background(), "https://youtu.be/gone")
	if err != nil {
		t.Fatalf("FetchAudio: %v", err)
	}
	if outcome.Status != ytdlp.StatusFailed || outcome.Attempts != 1 || !strings.Contains(outcome.Error, "Video unavailable") {
		t.Fatalf("outcome got %+v", outcome)
	}
}

func TestFetchAudioSimulate(t *testing.T) {
	runner := &fakeRunner{responses: []response{
		{stdout: "Talk\n"},
		{stdout: "/music/Talk.mp3\n"},
	}}
	outDir := filepath.Join(t.TempDir(), "not-yet")
	client := newClient(t, runner, func(o *ytdlp.Options) {
		o.OutputDir = outDir
		o.Simulate = true
	})

	outcome, err := client.FetchAudio(context.Background(), "https://youtu.be/talk")
	if err != nil {
		t.Fatalf("FetchAudio: %v", err)
	}
	if outcome.Status != ytdlp.StatusSimulated || outcome.Path != "/music/Talk.mp3" {
		t.Fatalf("outcome got %+v", outcome)
	}
	args := runner.calls[1].args
	if !slices.Contains(args, "--simulate") || slices.Contains(args, "--no-simulate") {
		t.Fatalf("expected --simulate without --no-simulate in %q", args)
	}
	if argValue(args, "--print") != "filename" {
		t.Fatalf("simulate should print the planned filename, got %q", args)
	}
	if _, err := os.Stat(outDir); !os.IsNotExist(err) {
		t.Fatalf("simulate must not create the output dir, stat err = %v", err)
	}
}

func TestListFormats(t *testing.T) {
	table := "ID  EXT  RESOLUTION\n140 m4a  audio only\n"
	runner := &fakeRunner{responses: []response{{stdout: table}}}
	client := newClient(t, runner, func(o *ytdlp.Options) { o.CookiesFromBrowser = "firefox" })

	got, err := client.ListFormats(context.Background(), "https://youtu.be/talk")
	if err != nil {
		t.Fatalf("ListFormats: %v", err)
	}
	if got != table {
		t.Fatalf("table got %q want %q", got, table)
	}
	args := runner.calls[0].args
	if !slices.Contains(args, "--list-formats") || argValue(args, "--cookies-from-browser") != "firefox" {
		t.Fatalf("unexpected args %q", args)
	}
	if tail := args[len(args)-2:]; !slices.Equal(tail, []string{"--", "https://youtu.be/talk"}) {
		t.Fatalf("url should trail the args, got %q", tail)
	}
}

func TestFetchSubtitlesWithVideoHonoursMaxFilesize(t *testing.T) {
	cfg := config.Default()
	cfg.Download.MaxFilesize = "500M"
	opts := ytdlp.OptionsFromConfig(cfg.Download)
	if opts.MaxFilesize != "500M" {
		t.Fatalf("OptionsFromConfig dropped max_filesize: %q", opts.MaxFilesize)
	}

	runner := &fakeRunner{}
	client := newClient(t, runner, func(o *ytdlp.Options) {
		o.IncludeVideo = true
		o.MaxFilesize = opts.MaxFilesize
	})
	if _, err := client.FetchSubtitles(context.Background(), []string{"u1"}, t.TempDir()); err != nil {
		t.Fatalf("FetchSubtitles: %v", err)
	}
	args := runner.calls[0].args
	if argValue(args, "--max-filesize") != "500M" || slices.Contains(args, "--skip-download") {
		t.Fatalf("unexpected video args %q", args)
	}

	runner = &fakeRunner{}
	client = newClient(t, runner, func(o *ytdlp.Options) { o.MaxFilesize = "500M" })
	if _, err := client.FetchSubtitles(context.Background(), []string{"u1"}, t.TempDir()); err != nil {
		t.Fatalf("FetchSubtitles: %v", err)
	}
	if slices.Contains(runner.calls[0].args, "--max-filesize") {
		t.Fatalf("caption-only runs must not pass --max-filesize: %q", runner.calls[0].args)
	}
}

func TestFetchSubtitles(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFiles(t, dir, "Old [aaaaaaaaaaa] - 2023-01-01.vi.vtt")
	runner := &fakeRunner{responses: []response{{
		stderr: "ERROR: [youtube] bbbbbbbbbbb: Video unavailable\n",
		err:    errors.New("exit status 1"),
		effect: func([]string) {
			testsupport.WriteFiles(t, dir, "Talk [ccccccccccc] - 2024-01-01.en.vtt")
		},
	}}}
	client := newClient(t, runner, func(o *ytdlp.Options) { o.SubtitleLanguages = []string{"vi", "en"} })

	result, err := client.FetchSubtitles(context.Background(), []string{"u1", "u2"}, dir)
	if err != nil {
		t.Fatalf("FetchSubtitles: %v", err)
	}
	want := []string{filepath.Join(dir, "Talk [ccccccccccc] - 2024-01-01.en.vtt")}
	if !slices.Equal(result.Written, want) {
		t.Fatalf("written got %q want %q", result.Written, want)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors got %q", result.Errors)
	}
	args := runner.calls[0].args
	if got := argValue(args, "--output"); got != filepath.Join(dir, ytdlp.SubtitleTemplate) {
		t.Fatalf("template got %q", got)
	}
	if argValue(args, "--sub-langs") != "vi,en" || !slices.Contains(args, "--skip-download") || !slices.Contains(args, "--write-auto-subs") {
		t.Fatalf("unexpected subtitle args %q", args)
	}
	if tail := args[len(args)-2:]; !slices.Equal(tail, []string{"u1", "u2"}) {
		t.Fatalf("urls should trail the args, got %q", tail)
	}
}

func TestExecRunnerWithStub(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedYtdlp(`echo '{"_type":"playlist","entries":[{"id":"ddddddddddd","title":"Stub"}]}'`))
	client := ytdlp.New(ytdlp.OptionsFromConfig(cfg.Download), nil, logging.NewNop())
	entries, err := client.ResolveEntries(context.Background(), "https://example.invalid/list")
	if err != nil {
		t.Fatalf("ResolveEntries: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "Stub" {
		t.Fatalf("entries got %+v", entries)
	}
}
