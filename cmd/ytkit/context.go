package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"ytkit/internal/config"
	"ytkit/internal/history"
	"ytkit/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

// loggerFor builds the command logger once. Console output follows the
// command's stderr so tests can capture it.
func (c *commandContext) loggerFor(cmd *cobra.Command) (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfigWriter(cfg, cmd.ErrOrStderr())
	})
	return c.logger, c.loggerErr
}

// setup returns the loaded config and logger for a command.
func (c *commandContext) setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.loggerFor(cmd)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

// openHistory opens the run ledger, or returns nil when it is disabled.
func (c *commandContext) openHistory() (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, nil
	}
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}

// recordRun stores run in the ledger. A ledger failure is logged, never
// returned: the filesystem work already happened.
func (c *commandContext) recordRun(ctx context.Context, logger *slog.Logger, run history.Run) {
	store, err := c.openHistory()
	if err != nil {
		logging.WarnWithContext(logger, "history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run not recorded"),
			logging.String(logging.FieldErrorHint, "check paths.state_dir permissions or set history.enabled = false"),
		)
		return
	}
	if store == nil {
		return
	}
	defer store.Close()
	if run.FinishedAt == nil {
		now := time.Now().UTC()
		run.FinishedAt = &now
	}
	// The signal context may already be cancelled; the record must still land.
	if _, err := store.Record(context.WithoutCancel(ctx), run); err != nil {
		logging.WarnWithContext(logger, "failed to record run", "history_record_failed",
			logging.Error(err),
			logging.String(logging.FieldRunID, run.ID),
			logging.String(logging.FieldImpact, "run missing from ytkit history"),
		)
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
