package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ytkit/internal/deps"
	"ytkit/internal/preflight"
)

type statusOutput struct {
	ConfigPath   string             `json:"config_path"`
	ConfigExists bool               `json:"config_exists"`
	History      bool               `json:"history_enabled"`
	Dependencies []deps.Status      `json:"dependencies"`
	Directories  []preflight.Result `json:"directories"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report external binaries and directory access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			status := statusOutput{
				ConfigPath:   ctx.configPath,
				ConfigExists: ctx.configExists,
				History:      cfg.History.Enabled,
				Dependencies: preflight.CheckSystemDeps(cfg),
				Directories:  preflight.RunAll(cfg),
			}
			if jsonOut {
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config: %s (exists: %s)\n", status.ConfigPath, yesNo(status.ConfigExists))
			fmt.Fprintf(out, "History: %s\n\n", yesNo(status.History))

			depRows := make([][]string, 0, len(status.Dependencies))
			for _, dep := range status.Dependencies {
				state := "ok"
				switch {
				case !dep.Available && dep.Optional:
					state = "missing (optional)"
				case !dep.Available:
					state = "missing"
				}
				depRows = append(depRows, []string{dep.Name, dep.Command, state, dep.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Dependency", "Command", "State", "Detail"}, depRows, nil))

			dirRows := make([][]string, 0, len(status.Directories))
			for _, dir := range status.Directories {
				dirRows = append(dirRows, []string{dir.Name, yesNo(dir.Passed), dir.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Directory", "OK", "Detail"}, dirRows, nil))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
