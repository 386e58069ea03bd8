package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"ytkit/internal/config"
	"ytkit/internal/jobs"
)

// runJob runs fn as a background job keyed by root, streaming its progress
// to stderr until it returns. With lock set the per-root lock file is held
// for the duration so a second ytkit process cannot mutate the same tree.
func runJob(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, name, root string, lock bool, fn jobs.Func) (string, error) {
	lockDir := ""
	if lock {
		lockDir = cfg.LockDir()
	}
	runner := jobs.NewRunner(name, lockDir, logger)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	job, err := runner.Start(ctx, root, fn)
	if err != nil {
		if errors.Is(err, jobs.ErrBusy) {
			return "", fmt.Errorf("%s %s: another run holds the lock: %w", name, root, err)
		}
		return "", err
	}

	reporter := newProgressReporter(cmd.ErrOrStderr(), logger, name)
	for p := range job.Progress() {
		reporter.update(p)
	}
	reporter.finish()
	return job.ID, job.Wait()
}

// cancelledErr turns a cancelled batch into context.Canceled so main exits
// non-zero without printing the error a second time.
func cancelledErr(ctx context.Context, cancelled bool) error {
	if !cancelled {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return context.Canceled
}

// failedErr reports per-item failures as the command's exit status.
func failedErr(errored, total int) error {
	if errored == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d item(s) failed", errored, total)
}
