package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"fxpipe/internal/taskgraph"
	"fxpipe/internal/workflow"
)

type taskView struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Stage      string `json:"stage,omitempty"`
	State      string `json:"state"`
	Reason     string `json:"reason,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}

type runView struct {
	RunID      string         `json:"run_id"`
	DryRun     bool           `json:"dry_run"`
	Started    time.Time      `json:"started"`
	DurationMS int64          `json:"duration_ms"`
	Success    bool           `json:"success"`
	Counts     map[string]int `json:"counts"`
	Tasks      []taskView     `json:"tasks"`
}

func newRunView(summary *workflow.Summary) runView {
	view := runView{
		RunID:      summary.RunID,
		DryRun:     summary.DryRun,
		Started:    summary.Started,
		DurationMS: summary.Duration.Milliseconds(),
		Success:    summary.Err() == nil,
		Counts:     map[string]int{},
	}
	if summary.Result == nil {
		return view
	}
	for state, n := range summary.Result.Counts() {
		view.Counts[string(state)] = n
	}
	view.Tasks = make([]taskView, 0, len(summary.Result.Outcomes))
	for _, o := range summary.Result.Outcomes {
		tv := taskView{
			ID:         o.ID,
			Kind:       string(o.Kind),
			Stage:      o.Stage,
			State:      string(o.State),
			Reason:     o.Reason,
			DurationMS: o.Duration.Milliseconds(),
		}
		if o.Err != nil {
			tv.Error = o.Err.Error()
		}
		view.Tasks = append(view.Tasks, tv)
	}
	return view
}

// countLine renders the non-zero state counts in a fixed order.
func countLine(result *taskgraph.Result) string {
	if result == nil {
		return "no tasks"
	}
	counts := result.Counts()
	order := []taskgraph.State{
		taskgraph.StateRan,
		taskgraph.StateSkipped,
		taskgraph.StatePlanned,
		taskgraph.StateDeferred,
		taskgraph.StateFailed,
		taskgraph.StateBlocked,
		taskgraph.StateNotStarted,
	}
	parts := make([]string, 0, len(order))
	for _, state := range order {
		if n := counts[state]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, state))
		}
	}
	if len(parts) == 0 {
		return "no tasks"
	}
	return strings.Join(parts, ", ")
}

func outcomeDetail(o taskgraph.Outcome) string {
	if o.Err != nil {
		return o.Err.Error()
	}
	return o.Reason
}

var outcomeColumns = []column{
	{title: "Task"},
	{title: "Stage"},
	{title: "State"},
	{title: "Detail", wrap: 72},
}

// renderOutcomes tabulates the outcomes accepted by keep.
func renderOutcomes(outcomes []taskgraph.Outcome, keep func(taskgraph.Outcome) bool, colorize bool) string {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		if keep != nil && !keep(o) {
			continue
		}
		rows = append(rows, []string{o.ID, o.Stage, colorState(o.State, colorize), outcomeDetail(o)})
	}
	if len(rows) == 0 {
		return ""
	}
	return renderTable(outcomeColumns, rows)
}

func printRunSummary(out io.Writer, summary *workflow.Summary, colorize bool) {
	kind := statusOK
	verdict := "complete"
	if summary.Err() != nil {
		kind = statusError
		verdict = "incomplete"
	}
	fmt.Fprintln(out, renderStatusLine("Run "+summary.RunID, kind,
		fmt.Sprintf("%s: %s in %s", verdict, countLine(summary.Result), summary.Duration.Round(time.Millisecond)), colorize))
	if summary.Result == nil {
		return
	}
	unsuccessful := func(o taskgraph.Outcome) bool { return !taskgraph.IsSuccessful(o.State) }
	if rendered := renderOutcomes(summary.Result.Outcomes, unsuccessful, colorize); rendered != "" {
		fmt.Fprintln(out, rendered)
	}
}
