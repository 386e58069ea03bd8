package main

import (
	"encoding/json"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"ytkit/internal/matcher"
	"ytkit/internal/testsupport"
)

func TestMatchScanApplyUndo(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := filepath.Join(env.baseDir, "lecture")
	testsupport.WriteFiles(t, dir,
		"clip [AAAAAAAAAAA].mp3",
		"Week 1 Intro [AAAAAAAAAAA].vi.vtt",
		"loose.mp3",
	)

	out, _, err := env.run(t, "match", "scan", dir, "--json")
	if err != nil {
		t.Fatalf("match scan: %v", err)
	}
	var plan matcher.Plan
	if err := json.Unmarshal([]byte(out), &plan); err != nil {
		t.Fatalf("decode plan: %v\n%s", err, out)
	}
	counts := plan.Counts()
	if counts[matcher.StatusReady] != 1 || counts[matcher.StatusNoIdentifier] != 1 {
		t.Fatalf("unexpected plan counts %v", counts)
	}
	if names := testsupport.ListNames(t, dir); !slices.Contains(names, "clip [AAAAAAAAAAA].mp3") {
		t.Fatalf("scan must not rename: %v", names)
	}

	out, _, err = env.run(t, "match", "apply", dir)
	if err != nil {
		t.Fatalf("match apply: %v", err)
	}
	requireContains(t, out, "1 succeeded")
	requireContains(t, out, matcher.UndoLogName)
	if names := testsupport.ListNames(t, dir); !slices.Contains(names, "Week 1 Intro [AAAAAAAAAAA].mp3") {
		t.Fatalf("expected renamed media, got %v", names)
	}

	out, _, err = env.run(t, "history", "--engine", "match")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "apply")
	requireContains(t, out, dir)

	out, _, err = env.run(t, "match", "undo", dir)
	if err != nil {
		t.Fatalf("match undo: %v", err)
	}
	requireContains(t, out, "Restored 1 file(s)")
	if names := testsupport.ListNames(t, dir); !slices.Contains(names, "clip [AAAAAAAAAAA].mp3") {
		t.Fatalf("expected original name after undo, got %v", names)
	}
}

func TestMatchUndoWithoutLog(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := filepath.Join(env.baseDir, "empty")
	testsupport.WriteFiles(t, dir, "a.mp3")

	_, _, err := env.run(t, "match", "undo", dir)
	if err == nil {
		t.Fatal("expected undo without a log to fail")
	}
	requireContains(t, err.Error(), "nothing to undo")
}

func TestMatchRejectsBadFlags(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := filepath.Join(env.baseDir, "media")
	testsupport.WriteFiles(t, dir, "a.mp3")

	if _, _, err := env.run(t, "match", "apply", dir, "--collision", "sideways"); err == nil {
		t.Fatal("expected unknown collision mode to fail")
	}
	if _, _, err := env.run(t, "match", "scan", dir, "--langs", "vi,english!"); err == nil {
		t.Fatal("expected invalid language preference to fail")
	}
	if _, _, err := env.run(t, "match", "scan", filepath.Join(env.baseDir, "missing")); err == nil {
		t.Fatal("expected a missing folder to fail")
	}
}

func TestMatchScanJSONKeepsFileNamesReadable(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := filepath.Join(env.baseDir, "qa")
	testsupport.WriteFiles(t, dir, "Q&A <live> [CCCCCCCCCCC].mp3", "Q&A Session [CCCCCCCCCCC].vtt")

	out, _, err := env.run(t, "match", "scan", dir, "--json")
	if err != nil {
		t.Fatalf("match scan --json: %v", err)
	}
	requireContains(t, out, "Q&A <live> [CCCCCCCCCCC].mp3")
	if strings.Contains(out, `\u0026`) || strings.Contains(out, `\u003c`) {
		t.Fatalf("expected unescaped file names in JSON output:\n%s", out)
	}
}
