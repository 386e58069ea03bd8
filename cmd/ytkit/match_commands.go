package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"ytkit/internal/batch"
	"ytkit/internal/config"
	"ytkit/internal/history"
	"ytkit/internal/language"
	"ytkit/internal/matcher"
)

type matchFlags struct {
	recursive bool
	langs     string
	collision string
	jsonOut   bool
}

func (f *matchFlags) register(cmd *cobra.Command, withCollision bool) {
	cmd.Flags().BoolVarP(&f.recursive, "recursive", "r", false, "Descend into subfolders (default from match.recursive)")
	cmd.Flags().StringVar(&f.langs, "langs", "", "Caption language preference, e.g. vi,en,none (default from match.languages)")
	if withCollision {
		cmd.Flags().StringVar(&f.collision, "collision", "", "Collision mode: skip, overwrite, or suffix (default from match.collision)")
	}
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "Output as JSON")
}

func (f *matchFlags) options(cmd *cobra.Command, cfg *config.Config) (matcher.Options, error) {
	opts := matcher.Options{
		Recursive:         cfg.Match.Recursive,
		Languages:         cfg.MatchLanguages(),
		MediaExtensions:   cfg.Match.MediaExtensions,
		CaptionExtensions: cfg.Match.CaptionExtensions,
	}
	if cmd.Flags().Changed("recursive") {
		opts.Recursive = f.recursive
	}
	if cmd.Flags().Changed("langs") {
		prefs, err := language.ParsePreferences(f.langs)
		if err != nil {
			return opts, fmt.Errorf("--langs: %w", err)
		}
		opts.Languages = prefs
	}
	return opts, nil
}

func (f *matchFlags) collisionMode(cmd *cobra.Command, cfg *config.Config) (batch.Collision, error) {
	if !cmd.Flags().Changed("collision") {
		return cfg.MatchCollision(), nil
	}
	mode, err := batch.ParseCollision(f.collision)
	if err != nil {
		return mode, fmt.Errorf("--collision: %w", err)
	}
	return mode, nil
}

func newMatchCommand(ctx *commandContext) *cobra.Command {
	matchCmd := &cobra.Command{
		Use:   "match",
		Short: "Rename media files after the caption that shares their [ID]",
	}
	matchCmd.AddCommand(newMatchScanCommand(ctx))
	matchCmd.AddCommand(newMatchApplyCommand(ctx))
	matchCmd.AddCommand(newMatchUndoCommand(ctx))
	return matchCmd
}

func (c *commandContext) newMatcher(cmd *cobra.Command, flags *matchFlags) (*config.Config, *slog.Logger, *matcher.Matcher, error) {
	cfg, logger, err := c.setup(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	opts, err := flags.options(cmd, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	m, err := matcher.New(opts, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, m, nil
}

func newMatchScanCommand(ctx *commandContext) *cobra.Command {
	var flags matchFlags
	cmd := &cobra.Command{
		Use:   "scan <folder>",
		Short: "Show the proposed renames without touching any file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, m, err := ctx.newMatcher(cmd, &flags)
			if err != nil {
				return err
			}
			plan, err := m.Scan(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if flags.jsonOut {
				return writeJSON(cmd, plan)
			}
			printMatchPlan(cmd, plan)
			return nil
		},
	}
	flags.register(cmd, false)
	return cmd
}

func newMatchApplyCommand(ctx *commandContext) *cobra.Command {
	var flags matchFlags
	cmd := &cobra.Command{
		Use:   "apply <folder>",
		Short: "Scan the folder and rename every ready media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, m, err := ctx.newMatcher(cmd, &flags)
			if err != nil {
				return err
			}
			mode, err := flags.collisionMode(cmd, cfg)
			if err != nil {
				return err
			}
			root, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			started := time.Now().UTC()
			var result matcher.ApplyResult
			runID, err := runJob(cmd, cfg, logger, "match", root, true, func(jobCtx context.Context, progress batch.ProgressFunc) error {
				plan, err := m.Scan(jobCtx, root)
				if err != nil {
					return err
				}
				result, err = m.Apply(jobCtx, plan, mode, progress)
				return err
			})
			if runID == "" {
				return err
			}
			run := history.Run{
				ID:        runID,
				Engine:    history.EngineMatch,
				Action:    history.ActionApply,
				Root:      root,
				LogPath:   result.LogPath,
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

			if flags.jsonOut {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
			} else {
				printMatchOps(cmd, root, result)
			}
			if err := cancelledErr(cmd.Context(), result.Summary.Cancelled); err != nil {
				return err
			}
			return failedErr(result.Summary.Errored, result.Summary.Total())
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newMatchUndoCommand(ctx *commandContext) *cobra.Command {
	var flags matchFlags
	cmd := &cobra.Command{
		Use:   "undo <folder>",
		Short: "Reverse the last apply recorded in the folder's undo log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, m, err := ctx.newMatcher(cmd, &flags)
			if err != nil {
				return err
			}
			root, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			started := time.Now().UTC()
			var result matcher.UndoResult
			runID, err := runJob(cmd, cfg, logger, "match", root, true, func(jobCtx context.Context, progress batch.ProgressFunc) error {
				var err error
				result, err = m.Undo(jobCtx, root, progress)
				return err
			})
			if errors.Is(err, matcher.ErrNoUndoLog) {
				return fmt.Errorf("nothing to undo: %w", err)
			}
			if runID == "" {
				return err
			}
			run := history.Run{
				ID:        runID,
				Engine:    history.EngineMatch,
				Action:    history.ActionUndo,
				Root:      root,
				LogPath:   result.LogPath,
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

			if flags.jsonOut {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
			} else {
				printUndoResult(cmd, root, result)
			}
			if err := cancelledErr(cmd.Context(), result.Summary.Cancelled); err != nil {
				return err
			}
			return failedErr(result.Summary.Errored, result.Summary.Total())
		},
	}
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "Output as JSON")
	return cmd
}

func printMatchPlan(cmd *cobra.Command, plan matcher.Plan) {
	out := cmd.OutOrStdout()
	if len(plan.Rows) == 0 {
		fmt.Fprintf(out, "No media files in %s\n", plan.Folder)
		return
	}
	rows := make([][]string, 0, len(plan.Rows))
	for _, row := range plan.Rows {
		rows = append(rows, []string{
			displayPath(plan.Folder, row.Media),
			row.Identifier,
			displayPath(plan.Folder, row.Caption),
			displayPath(plan.Folder, row.Target),
			string(row.Status),
		})
	}
	fmt.Fprintln(out, renderTable([]string{"Media", "ID", "Caption", "New name", "Status"}, rows, nil))
	counts := plan.Counts()
	fmt.Fprintf(out, "%d ready, %d no match, %d no identifier\n",
		counts[matcher.StatusReady], counts[matcher.StatusNoMatch], counts[matcher.StatusNoIdentifier])
}

func printMatchOps(cmd *cobra.Command, root string, result matcher.ApplyResult) {
	out := cmd.OutOrStdout()
	if len(result.Ops) > 0 {
		rows := make([][]string, 0, len(result.Ops))
		for _, op := range result.Ops {
			rows = append(rows, []string{
				displayPath(root, op.Src),
				displayPath(root, op.Dst),
				string(op.Result),
				op.ErrorMessage(),
			})
		}
		fmt.Fprintln(out, renderTable([]string{"Source", "Destination", "Result", "Error"}, rows, nil))
	}
	fmt.Fprintf(out, "Summary: %s\n", result.Summary)
	if result.LogPath != "" {
		fmt.Fprintf(out, "Undo log: %s\n", result.LogPath)
	}
}

func printUndoResult(cmd *cobra.Command, root string, result matcher.UndoResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Undo log: %s (written %s)\n", result.LogPath, result.LoggedAt)
	if len(result.Errors) > 0 {
		rows := make([][]string, 0, len(result.Errors))
		for _, item := range result.Errors {
			rows = append(rows, []string{displayPath(root, item.Path), item.Message})
		}
		fmt.Fprintln(out, renderTable([]string{"File", "Error"}, rows, nil))
	}
	fmt.Fprintf(out, "Restored %d file(s)\n", result.Undone)
	fmt.Fprintf(out, "Summary: %s\n", result.Summary)
}
