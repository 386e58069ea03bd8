package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"ytkit/internal/history"
)

var errHistoryDisabled = errors.New("run history is disabled (history.enabled = false)")

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		engine  string
		action  string
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded apply, undo, and revert runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := history.Filter{Engine: history.Engine(engine), Action: history.Action(action), Limit: limit}
			switch filter.Engine {
			case "", history.EngineMatch, history.EngineTags:
			default:
				return fmt.Errorf("--engine: unknown engine %q (want match or tags)", engine)
			}
			switch filter.Action {
			case "", history.ActionApply, history.ActionUndo, history.ActionRevert:
			default:
				return fmt.Errorf("--action: unknown action %q (want apply, undo, or revert)", action)
			}

			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			if store == nil {
				return errHistoryDisabled
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if jsonOut {
				if runs == nil {
					runs = []history.Run{}
				}
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			now := time.Now()
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					string(run.Engine),
					string(run.Action),
					run.Root,
					humanize.RelTime(run.StartedAt, now, "ago", "from now"),
					formatDuration(run.Duration()),
					strconv.Itoa(run.Succeeded),
					strconv.Itoa(run.Skipped),
					strconv.Itoa(run.Errored),
					runStatus(run),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Engine", "Action", "Root", "Started", "Took", "OK", "Skipped", "Errors", "Status"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&engine, "engine", "", "Only show runs of this engine (match or tags)")
	cmd.Flags().StringVar(&action, "action", "", "Only show runs of this action (apply, undo, revert)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	cmd.AddCommand(newHistoryShowCommand(ctx))
	cmd.AddCommand(newHistoryPruneCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			if store == nil {
				return errHistoryDisabled
			}
			defer store.Close()

			run, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:        %s\n", run.ID)
			fmt.Fprintf(out, "Run:       %s %s\n", run.Engine, run.Action)
			fmt.Fprintf(out, "Root:      %s\n", run.Root)
			fmt.Fprintf(out, "Log:       %s\n", run.LogPath)
			fmt.Fprintf(out, "Started:   %s (%s)\n", run.StartedAt.Local().Format(time.DateTime), humanize.Time(run.StartedAt))
			fmt.Fprintf(out, "Took:      %s\n", formatDuration(run.Duration()))
			fmt.Fprintf(out, "Counts:    %d succeeded, %d skipped, %d errored\n", run.Succeeded, run.Skipped, run.Errored)
			fmt.Fprintf(out, "Cancelled: %s\n", yesNo(run.Cancelled))
			if run.ErrorMessage != "" {
				fmt.Fprintf(out, "Error:     %s\n", run.ErrorMessage)
			}
			return nil
		},
	}
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete runs older than a duration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return errors.New("--older-than must be positive")
			}
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			if store == nil {
				return errHistoryDisabled
			}
			defer store.Close()

			cutoff := time.Now().Add(-olderThan)
			removed, err := store.Prune(cmd.Context(), cutoff)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s run(s) started before %s\n",
				humanize.Comma(removed), cutoff.Local().Format(time.DateTime))
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age threshold, e.g. 720h")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}

func runStatus(run history.Run) string {
	switch {
	case run.ErrorMessage != "":
		return "failed"
	case run.Cancelled:
		return "cancelled"
	case run.Errored > 0:
		return "partial"
	default:
		return "ok"
	}
}
