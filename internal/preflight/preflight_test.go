package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"ytkit/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	if result := CheckDirectoryAccess("test", dir); !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}

	missing := CheckDirectoryAccess("test", filepath.Join(dir, "nope"))
	if missing.Passed || missing.Detail == "" {
		t.Fatalf("expected failure with detail for missing dir, got %#v", missing)
	}

	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckDirectoryAccess("test", file); result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestRunAllCoversConfiguredDirectories(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	results := RunAll(cfg)
	if len(results) != 3 {
		t.Fatalf("expected state, log, and download checks, got %#v", results)
	}
	if !results[0].Passed {
		t.Fatalf("state dir should pass after EnsureDirectories: %s", results[0].Detail)
	}
	if results[1].Passed {
		t.Fatal("rename log dir was never created and should fail")
	}
}

func TestCheckSystemDeps(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedYtdlp("exit 0"))
	cfg.Download.FFmpegLocation = filepath.Join(t.TempDir(), "none")

	statuses := CheckSystemDeps(cfg)
	if len(statuses) != 2 {
		t.Fatalf("expected yt-dlp and ffmpeg, got %#v", statuses)
	}
	if !statuses[0].Available {
		t.Fatalf("stubbed yt-dlp should resolve: %#v", statuses[0])
	}
	if statuses[1].Available || !statuses[1].Optional {
		t.Fatalf("ffmpeg should be missing and optional: %#v", statuses[1])
	}
	if missing := Missing(statuses); len(missing) != 0 {
		t.Fatalf("optional ffmpeg must not count as missing: %#v", missing)
	}

	cfg.Download.Binary = filepath.Join(t.TempDir(), "yt-dlp")
	if missing := Missing(CheckSystemDeps(cfg)); len(missing) != 1 || missing[0].Name != "yt-dlp" {
		t.Fatalf("expected yt-dlp missing, got %#v", missing)
	}
}
