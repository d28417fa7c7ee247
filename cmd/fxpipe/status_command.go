package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"fxpipe/internal/preflight"
	"fxpipe/internal/taskgraph"
	"fxpipe/internal/workflow"
)

type preflightView struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

type statusView struct {
	Ready     bool            `json:"ready"`
	Preflight []preflightView `json:"preflight"`
	Plan      *runView        `json:"plan,omitempty"`
	PlanError string          `json:"plan_error,omitempty"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var opts workflow.StatusOptions
	var jsonOut bool
	var all bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show readiness checks and the plan of the next run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := ctx.newManager()
			if err != nil {
				return err
			}
			status := mgr.Status(cmd.Context(), opts)
			failed := preflight.Failed(status.Preflight)

			colorize := shouldColorize(cmd.OutOrStdout())
			if err := printView(cmd, jsonOut, newStatusView(status), func(out io.Writer) {
				printStatus(out, status, all, colorize)
			}); err != nil {
				return err
			}

			if status.PlanErr != nil {
				return fmt.Errorf("plan next run: %w", status.PlanErr)
			}
			if len(failed) > 0 {
				return fmt.Errorf("%d preflight check(s) failed", len(failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.CheckSource, "check-source", false, "Probe the ECB data API once")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Plan as if every task were stale")
	cmd.Flags().BoolVar(&opts.Offline, "offline", false, "Plan without downloads")
	cmd.Flags().BoolVar(&all, "all", false, "List fresh tasks as well")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit status as JSON")
	return cmd
}

func newStatusView(status workflow.StatusSummary) statusView {
	view := statusView{
		Ready:     len(preflight.Failed(status.Preflight)) == 0 && status.PlanErr == nil,
		Preflight: make([]preflightView, 0, len(status.Preflight)),
	}
	for _, r := range status.Preflight {
		view.Preflight = append(view.Preflight, preflightView{Name: r.Name, Passed: r.Passed, Detail: r.Detail})
	}
	if status.Plan != nil {
		plan := newRunView(status.Plan)
		view.Plan = &plan
	}
	if status.PlanErr != nil {
		view.PlanError = status.PlanErr.Error()
	}
	return view
}

func printStatus(out io.Writer, status workflow.StatusSummary, all, colorize bool) {
	for _, line := range renderSectionHeader("Preflight", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, r := range status.Preflight {
		kind := statusOK
		if !r.Passed {
			kind = statusError
		}
		fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Next run", colorize) {
		fmt.Fprintln(out, line)
	}
	if status.PlanErr != nil {
		fmt.Fprintln(out, renderStatusLine("Plan", statusError, status.PlanErr.Error(), colorize))
		return
	}
	result := status.Plan.Result
	pending := func(o taskgraph.Outcome) bool { return o.State != taskgraph.StateSkipped }
	if all {
		pending = nil
	}
	rendered := renderOutcomes(result.Outcomes, pending, colorize)
	if rendered == "" {
		fmt.Fprintln(out, renderStatusLine("Plan", statusOK, "all artifacts are up to date", colorize))
		return
	}
	fmt.Fprintln(out, renderStatusLine("Plan", statusInfo, countLine(result), colorize))
	fmt.Fprintln(out, rendered)
}
