package main

import (
	"testing"

	"ytkit/internal/testsupport"
)

func TestHistoryEmptyAndDisabled(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := env.run(t, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")

	if _, _, err := env.run(t, "history", "--engine", "video"); err == nil {
		t.Fatal("expected unknown engine to fail")
	}

	out, _, err = env.run(t, "history", "prune", "--older-than", "1h")
	if err != nil {
		t.Fatalf("history prune: %v", err)
	}
	requireContains(t, out, "Removed 0 run(s)")

	disabled := setupCLITestEnv(t, testsupport.WithHistoryDisabled())
	_, _, err = disabled.run(t, "history")
	if err == nil {
		t.Fatal("expected history to fail when disabled")
	}
	requireContains(t, err.Error(), "disabled")
}
