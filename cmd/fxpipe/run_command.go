package main

import (
	"io"

	"github.com/spf13/cobra"

	"fxpipe/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts workflow.RunOptions
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Bring every artifact up to date",
		Long: "Run executes every stale task once: downloads, normalization, extraction, " +
			"monthly statistics, and coverage reconciliation. Tasks whose outputs are " +
			"newer than their inputs are skipped, so an interrupted run resumes where it stopped.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := ctx.newManager()
			if err != nil {
				return err
			}
			summary, runErr := mgr.Run(cmd.Context(), opts)
			if summary == nil {
				return runErr
			}
			colorize := shouldColorize(cmd.OutOrStdout())
			if err := printView(cmd, jsonOut, newRunView(summary), func(out io.Writer) {
				printRunSummary(out, summary, colorize)
			}); err != nil {
				return err
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "Re-run every task regardless of staleness")
	cmd.Flags().BoolVar(&opts.Offline, "offline", false, "Skip downloads and use the source artifacts already present")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the run summary as JSON")
	return cmd
}
