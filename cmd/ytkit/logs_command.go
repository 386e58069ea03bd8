package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"ytkit/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines     int
		follow    bool
		runID     string
		component string
		level     string
		raw       bool
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show entries from the JSON run log",
		Long: "Show entries from the JSON run log under the state directory. Use --run with an ID\n" +
			"(or prefix) from `ytkit history` to see what one run did.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.LogPath()
			filter := logs.Filter{RunID: strings.TrimSpace(runID), Component: strings.TrimSpace(component), MinLevel: level}
			out := cmd.OutOrStdout()
			emit := func(entry logs.Entry) { printLogEntry(out, entry, raw) }

			entries, offset, err := logs.Read(path, filter, lines)
			if err != nil {
				return err
			}
			if len(entries) == 0 && !follow {
				if !cfg.Logging.RunLog {
					fmt.Fprintln(out, "The run log is disabled (logging.run_log = false)")
					return nil
				}
				fmt.Fprintf(out, "No log entries in %s\n", path)
				return nil
			}
			for _, entry := range entries {
				emit(entry)
			}
			if !follow {
				return nil
			}
			err = logs.Follow(cmd.Context(), path, offset, filter, emit)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of entries to show (0 for all)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new entries")
	cmd.Flags().StringVar(&runID, "run", "", "Only entries of this run ID or prefix")
	cmd.Flags().StringVar(&component, "component", "", "Only entries of this component (matcher, tagger, ytdlp, jobs)")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level: debug, info, warn, error")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the JSON lines unchanged")
	return cmd
}

func printLogEntry(w io.Writer, entry logs.Entry, raw bool) {
	if raw || entry.Level == "" {
		fmt.Fprintln(w, entry.Raw)
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s", entry.Time, strings.ToUpper(entry.Level))
	if entry.Component != "" {
		fmt.Fprintf(&b, " [%s]", entry.Component)
	}
	b.WriteString(" " + entry.Message)
	keys := make([]string, 0, len(entry.Fields))
	for key := range entry.Fields {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, entry.Fields[key])
	}
	fmt.Fprintln(w, b.String())
}
