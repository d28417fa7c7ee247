package pipeline

import (
	"context"

	"fxpipe/internal/fx"
	"fxpipe/internal/logging"
	"fxpipe/internal/stats"
	"fxpipe/internal/taskgraph"
)

// monthlyTask summarizes a pair's prices per calendar month. An empty
// source yields a header-only artifact.
func monthlyTask(p fx.Pair) taskgraph.Task {
	out := MonthlyStatsKey(p)
	return taskgraph.Task{
		ID:      monthlyTaskID(p),
		Stage:   StageAggregate,
		Deps:    []string{normalizeTaskID(p)},
		Inputs:  []string{PricesKey(p)},
		Outputs: []string{out},
		Run: func(_ context.Context, env *taskgraph.Env) error {
			records, err := readPrices(env.Store, p)
			if err != nil {
				return err
			}
			monthly := stats.Monthly(records)
			env.Logger.Debug("monthly statistics computed",
				logging.Int("rows", len(records)),
				logging.Int("months", len(monthly)),
			)
			return env.Out.Write(out, fx.MonthlyStatsTable(monthly))
		},
	}
}
