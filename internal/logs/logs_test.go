package logs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ytkit/internal/logs"
)

const sampleLog = `{"ts":"2024-05-01T10:00:00Z","level":"info","msg":"scan complete","component":"matcher","run_id":"aaaa-1","ready":2}
{"ts":"2024-05-01T10:00:01Z","level":"warn","msg":"rename failed","component":"matcher","run_id":"aaaa-1","path":"/x/a.mp3"}
not json at all
{"ts":"2024-05-01T10:05:00Z","level":"info","msg":"apply complete","component":"tagger","run_id":"bbbb-2"}
`

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ytkit.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestReadLastEntries(t *testing.T) {
	path := writeLog(t, sampleLog)

	entries, offset, err := logs.Read(path, logs.Filter{}, 2)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(entries) != 2 || entries[0].Message != "not json at all" || entries[1].Message != "apply complete" {
		t.Fatalf("unexpected entries: %#v", entries)
	}
	if offset != int64(len(sampleLog)) {
		t.Fatalf("offset = %d, want %d", offset, len(sampleLog))
	}
}

func TestReadFilters(t *testing.T) {
	path := writeLog(t, sampleLog)

	tests := []struct {
		name   string
		filter logs.Filter
		want   []string
	}{
		{"run prefix", logs.Filter{RunID: "aaaa"}, []string{"scan complete", "rename failed"}},
		{"component", logs.Filter{Component: "tagger"}, []string{"apply complete"}},
		{"min level", logs.Filter{MinLevel: "warn"}, []string{"rename failed"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, _, err := logs.Read(path, tt.filter, 0)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			var got []string
			for _, entry := range entries {
				got = append(got, entry.Message)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}

	entries, _, _ := logs.Read(path, logs.Filter{RunID: "aaaa-1", MinLevel: "warn"}, 0)
	if len(entries) != 1 || entries[0].Fields["path"] != "/x/a.mp3" {
		t.Fatalf("expected extra fields to survive, got %#v", entries)
	}
}

func TestReadMissingLog(t *testing.T) {
	entries, offset, err := logs.Read(filepath.Join(t.TempDir(), "none.log"), logs.Filter{}, 10)
	if err != nil || len(entries) != 0 || offset != 0 {
		t.Fatalf("missing log should read as empty, got %v %d %v", entries, offset, err)
	}
}

func TestFollowDeliversAppendedEntries(t *testing.T) {
	path := writeLog(t, sampleLog)
	_, offset, err := logs.Read(path, logs.Filter{}, 0)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	got := make(chan logs.Entry, 4)
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, offset, logs.Filter{RunID: "cccc"}, func(e logs.Entry) { got <- e })
	}()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	_, _ = f.WriteString(`{"level":"info","msg":"other run","run_id":"dddd"}` + "\n")
	_, _ = f.WriteString(`{"level":"info","msg":"later","run_id":"cccc-3"}` + "\n")
	_ = f.Close()

	select {
	case entry := <-got:
		if entry.Message != "later" {
			t.Fatalf("unexpected entry %#v", entry)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not deliver the appended entry")
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Follow returned %v, want context.Canceled", err)
	}
}
