package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ytkit/internal/batch"
	"ytkit/internal/config"
	"ytkit/internal/fileutil"
	"ytkit/internal/history"
	"ytkit/internal/logging"
	"ytkit/internal/tagger"
)

type tagsFlags struct {
	exts        string
	collision   string
	noRecursive bool
	logDir      string
	jsonOut     bool
}

func (f *tagsFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.exts, "exts", "", "Comma separated extensions to rename (default from tags.extensions)")
	cmd.Flags().StringVar(&f.collision, "collision", "", "Collision mode: skip, overwrite, or unique (default from tags.collision)")
	cmd.Flags().BoolVar(&f.noRecursive, "no-recursive", false, "Only rename files directly inside the root")
	cmd.Flags().StringVar(&f.logDir, "log-dir", "", "Directory for rename logs (default from tags.log_dir)")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "Output as JSON")
}

func (f *tagsFlags) options(cmd *cobra.Command, cfg *config.Config) (tagger.Options, error) {
	opts := tagger.Options{
		Extensions: cfg.Tags.Extensions,
		Collision:  cfg.TagsCollision(),
		LogDir:     cfg.Tags.LogDir,
		Recursive:  cfg.Tags.Recursive,
	}
	if cmd.Flags().Changed("exts") {
		opts.Extensions = config.ParseExtensionList(f.exts)
	}
	if cmd.Flags().Changed("collision") {
		mode, err := batch.ParseCollision(f.collision)
		if err != nil {
			return opts, fmt.Errorf("--collision: %w", err)
		}
		opts.Collision = mode
	}
	if f.noRecursive {
		opts.Recursive = false
	}
	if cmd.Flags().Changed("log-dir") {
		dir, err := config.ExpandPath(strings.TrimSpace(f.logDir))
		if err != nil {
			return opts, fmt.Errorf("--log-dir: %w", err)
		}
		opts.LogDir = dir
	}
	return opts, nil
}

func (c *commandContext) newTagger(cmd *cobra.Command, flags *tagsFlags) (*config.Config, *slog.Logger, *tagger.Tagger, error) {
	cfg, logger, err := c.setup(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	opts, err := flags.options(cmd, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	t, err := tagger.New(opts, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, t, nil
}

func newTagsCommand(ctx *commandContext) *cobra.Command {
	tagsCmd := &cobra.Command{
		Use:   "tags",
		Short: "Copy \"[ID] - DATE\" tags from anchor files onto their untagged siblings",
	}
	tagsCmd.AddCommand(newTagsPlanCommand(ctx))
	tagsCmd.AddCommand(newTagsApplyCommand(ctx))
	tagsCmd.AddCommand(newTagsRevertCommand(ctx))
	return tagsCmd
}

func newTagsPlanCommand(ctx *commandContext) *cobra.Command {
	var flags tagsFlags
	cmd := &cobra.Command{
		Use:   "plan <root>",
		Short: "Show the renames tag propagation would make",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, t, err := ctx.newTagger(cmd, &flags)
			if err != nil {
				return err
			}
			root, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			var plan tagger.PlanResult
			_, err = runJob(cmd, cfg, logger, "tags", root, false, func(jobCtx context.Context, progress batch.ProgressFunc) error {
				files, err := t.Collect(jobCtx, root)
				if err != nil {
					return err
				}
				plan = t.Plan(jobCtx, files, progress)
				return nil
			})
			if err != nil {
				return err
			}
			if flags.jsonOut {
				if err := writeJSON(cmd, plan); err != nil {
					return err
				}
			} else {
				printTagPlan(cmd, root, plan)
			}
			return cancelledErr(cmd.Context(), plan.Summary.Cancelled)
		},
	}
	flags.register(cmd)
	return cmd
}

// tagsApplyOutput is the JSON shape of tags apply.
type tagsApplyOutput struct {
	Plan   batch.Summary       `json:"plan"`
	Result *tagger.ApplyResult `json:"result,omitempty"`
}

func newTagsApplyCommand(ctx *commandContext) *cobra.Command {
	var flags tagsFlags
	cmd := &cobra.Command{
		Use:   "apply <root>",
		Short: "Plan, write a rename log, and rename every planned file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, t, err := ctx.newTagger(cmd, &flags)
			if err != nil {
				return err
			}
			root, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			started := time.Now().UTC()
			var (
				plan    tagger.PlanResult
				result  tagger.ApplyResult
				applied bool
			)
			runID, err := runJob(cmd, cfg, logger, "tags", root, true, func(jobCtx context.Context, progress batch.ProgressFunc) error {
				files, err := t.Collect(jobCtx, root)
				if err != nil {
					return err
				}
				plan = t.Plan(jobCtx, files, progress)
				if plan.Summary.Cancelled || len(plan.Entries) == 0 {
					return nil
				}
				logPath, err := t.WriteLog(plan.Entries)
				if err != nil {
					return err
				}
				applied = true
				result, err = t.Apply(jobCtx, plan.Entries, logPath, progress)
				return err
			})
			if runID == "" || (err != nil && !applied) {
				return err
			}

			summary := plan.Summary
			if applied {
				summary = mergeSkips(result.Summary, plan.Summary)
				run := history.Run{
					ID:        runID,
					Engine:    history.EngineTags,
					Action:    history.ActionApply,
					Root:      root,
					LogPath:   result.LogPath,
					StartedAt: started,
				}
				run.ApplySummary(summary)
				if err != nil {
					run.ErrorMessage = err.Error()
				}
				ctx.recordRun(cmd.Context(), logger, run)
			}
			if err != nil {
				return err
			}

			if flags.jsonOut {
				output := tagsApplyOutput{Plan: plan.Summary}
				if applied {
					output.Result = &result
				}
				if err := writeJSON(cmd, output); err != nil {
					return err
				}
			} else {
				printTagApply(cmd, root, plan, result, applied, summary)
			}
			if err := cancelledErr(cmd.Context(), summary.Cancelled); err != nil {
				return err
			}
			return failedErr(summary.Errored, len(plan.Entries))
		},
	}
	flags.register(cmd)
	return cmd
}

func newTagsRevertCommand(ctx *commandContext) *cobra.Command {
	var (
		last    bool
		logDir  string
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "revert [log.csv]",
		Short: "Undo the renames recorded in a rename log",
		Long: "Undo the renames recorded in a rename log. Without an argument (or with --last) the\n" +
			"newest log from ytkit history is used, falling back to the newest log in the log directory.\n" +
			"With --log-dir only that directory is searched.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup(cmd)
			if err != nil {
				return err
			}
			if last && len(args) > 0 {
				return errors.New("pass a log path or --last, not both")
			}
			dir := cfg.Tags.LogDir
			explicitDir := cmd.Flags().Changed("log-dir")
			if explicitDir {
				if dir, err = config.ExpandPath(strings.TrimSpace(logDir)); err != nil {
					return fmt.Errorf("--log-dir: %w", err)
				}
			}

			var logPath string
			if len(args) == 1 {
				if logPath, err = filepath.Abs(args[0]); err != nil {
					return err
				}
			} else if logPath, err = ctx.latestTagLog(cmd.Context(), logger, dir, explicitDir); err != nil {
				return err
			}

			// Revert does not read extensions or collision; the defaults satisfy New.
			t, err := tagger.New(tagger.Options{Extensions: tagger.DefaultExtensions, LogDir: dir}, logger)
			if err != nil {
				return err
			}

			started := time.Now().UTC()
			var result tagger.RevertResult
			runID, err := runJob(cmd, cfg, logger, "tags", logPath, true, func(jobCtx context.Context, progress batch.ProgressFunc) error {
				var err error
				result, err = t.Revert(jobCtx, logPath, progress)
				return err
			})
			if runID == "" || errors.Is(err, tagger.ErrLogNotFound) {
				return err
			}
			run := history.Run{
				ID:        runID,
				Engine:    history.EngineTags,
				Action:    history.ActionRevert,
				Root:      filepath.Dir(logPath),
				LogPath:   logPath,
				StartedAt: started,
			}
			run.ApplySummary(result.Summary)
			if err != nil {
				run.ErrorMessage = err.Error()
			}
			ctx.recordRun(cmd.Context(), logger, run)
			if err != nil {
				return err
			}

			if jsonOut {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
			} else {
				printTagRevert(cmd, result)
			}
			if err := cancelledErr(cmd.Context(), result.Summary.Cancelled); err != nil {
				return err
			}
			return failedErr(result.Summary.Errored, result.Summary.Total())
		},
	}
	cmd.Flags().BoolVar(&last, "last", false, "Revert the most recent tags apply")
	cmd.Flags().StringVar(&logDir, "log-dir", "", "Directory searched for the newest log (default from tags.log_dir)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

// latestTagLog prefers the ledger's newest tags apply and falls back to the
// newest CSV in dir (the working directory when dir is empty). An explicit
// dir skips the ledger, and a ledger entry whose CSV is gone is ignored.
func (c *commandContext) latestTagLog(ctx context.Context, logger *slog.Logger, dir string, explicitDir bool) (string, error) {
	if !explicitDir {
		if path, ok := c.latestLoggedTagApply(ctx, logger); ok {
			return path, nil
		}
	}
	if dir == "" {
		dir = "."
	}
	return tagger.LatestLog(dir)
}

func (c *commandContext) latestLoggedTagApply(ctx context.Context, logger *slog.Logger) (string, bool) {
	store, err := c.openHistory()
	if err != nil {
		logger.Debug("history unavailable for revert lookup", logging.Error(err))
	}
	if store == nil {
		return "", false
	}
	defer store.Close()
	path, err := store.LatestLog(ctx, history.EngineTags, history.ActionApply)
	switch {
	case errors.Is(err, history.ErrNotFound):
		return "", false
	case err != nil:
		logger.Debug("history lookup failed", logging.Error(err))
		return "", false
	case !fileutil.Exists(path):
		logger.Debug("logged rename log is gone", logging.String(logging.FieldLogPath, path))
		return "", false
	}
	return path, true
}

// mergeSkips folds the planning skips into the apply summary so one line
// accounts for every file the tagger looked at.
func mergeSkips(applied, planned batch.Summary) batch.Summary {
	out := applied
	out.Skipped += planned.Skipped
	if len(planned.SkipReasons) > 0 {
		reasons := make(map[string]int, len(applied.SkipReasons)+len(planned.SkipReasons))
		for reason, n := range applied.SkipReasons {
			reasons[reason] += n
		}
		for reason, n := range planned.SkipReasons {
			reasons[reason] += n
		}
		out.SkipReasons = reasons
	}
	out.Cancelled = applied.Cancelled || planned.Cancelled
	return out
}

func printTagPlan(cmd *cobra.Command, root string, plan tagger.PlanResult) {
	out := cmd.OutOrStdout()
	if len(plan.Entries) > 0 {
		rows := make([][]string, 0, len(plan.Entries))
		for _, entry := range plan.Entries {
			rows = append(rows, []string{
				displayPath(root, entry.Old),
				filepath.Base(entry.New),
				entry.ID,
				entry.Date,
			})
		}
		fmt.Fprintln(out, renderTable([]string{"File", "New name", "ID", "Date"}, rows, nil))
	} else {
		fmt.Fprintln(out, "Nothing to rename")
	}
	fmt.Fprintf(out, "Plan: %s\n", plan.Summary)
}

func printTagApply(cmd *cobra.Command, root string, plan tagger.PlanResult, result tagger.ApplyResult, applied bool, summary batch.Summary) {
	out := cmd.OutOrStdout()
	if !applied {
		fmt.Fprintln(out, "Nothing to rename")
		fmt.Fprintf(out, "Summary: %s\n", summary)
		return
	}
	rows := make([][]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		rows = append(rows, []string{
			displayPath(root, row.Old),
			filepath.Base(row.New),
			row.Applied,
		})
	}
	fmt.Fprintln(out, renderTable([]string{"File", "New name", "Applied"}, rows, nil))
	fmt.Fprintf(out, "Summary: %s\n", summary)
	fmt.Fprintf(out, "Rename log: %s\n", result.LogPath)
}

func printTagRevert(cmd *cobra.Command, result tagger.RevertResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Rename log: %s\n", result.LogPath)
	if len(result.Errors) > 0 {
		rows := make([][]string, 0, len(result.Errors))
		for _, item := range result.Errors {
			rows = append(rows, []string{item.Path, item.Message})
		}
		fmt.Fprintln(out, renderTable([]string{"File", "Error"}, rows, nil))
	}
	fmt.Fprintf(out, "Reverted %d file(s)\n", result.Reverted())
	fmt.Fprintf(out, "Summary: %s\n", result.Summary)
}
