package main

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"ytkit/internal/history"
	"ytkit/internal/testsupport"
)

func TestLogsShowOneRun(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Logging.RunLog = true
	env.configPath = testsupport.WriteConfigFile(t, env.cfg)

	dir := filepath.Join(env.baseDir, "media")
	testsupport.WriteFiles(t, dir, "x [CCCCCCCCCCC].mp3", "Named [CCCCCCCCCCC].en.vtt")
	if _, _, err := env.run(t, "match", "apply", dir); err != nil {
		t.Fatalf("match apply: %v", err)
	}

	out, _, err := env.run(t, "history", "--json")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var runs []history.Run
	if err := json.Unmarshal([]byte(out), &runs); err != nil || len(runs) != 1 {
		t.Fatalf("decode history: %v (%s)", err, out)
	}

	out, _, err = env.run(t, "logs", "--run", shortID(runs[0].ID), "--component", "matcher")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "apply complete")
	requireContains(t, out, "[matcher]")

	out, _, err = env.run(t, "logs", "--run", "no-such-run")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "No log entries")
}
