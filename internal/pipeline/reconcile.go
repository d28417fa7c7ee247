package pipeline

import (
	"context"
	"errors"
	"fmt"

	"fxpipe/internal/artifact"
	"fxpipe/internal/coverage"
	"fxpipe/internal/fx"
	"fxpipe/internal/logging"
	"fxpipe/internal/services"
	"fxpipe/internal/taskgraph"
)

// reconcileSpawn plans one reconciliation per pair listed in the global pair
// set. The coverage range is computed once per expansion and shared by value.
func reconcileSpawn(store *artifact.Store, monthlyFor map[fx.Pair]bool) taskgraph.Spawn {
	return taskgraph.Spawn{
		ID:    SpawnReconcile,
		Stage: StageReconcile,
		Deps:  []string{TaskCollectPairs, TaskCollectDates},
		Expand: func(context.Context) ([]taskgraph.Task, error) {
			pairs, err := readPairSet(store)
			if err != nil {
				return nil, err
			}
			dates, err := readDateSet(store)
			if err != nil {
				return nil, err
			}
			rng, err := coverage.RangeOf(dates)
			if err != nil {
				return nil, err
			}
			tasks := make([]taskgraph.Task, 0, len(pairs))
			for _, p := range pairs {
				tasks = append(tasks, reconcileTask(p, rng, monthlyFor[p]))
			}
			return tasks, nil
		},
	}
}

func reconcileTask(p fx.Pair, rng coverage.Range, hasMonthly bool) taskgraph.Task {
	statsKey, out := MonthlyStatsKey(p), MissingDataKey(p)
	deps := []string{TaskCollectDates}
	if hasMonthly {
		deps = append(deps, monthlyTaskID(p))
	}
	return taskgraph.Task{
		ID:      reconcileTaskID(p),
		Deps:    deps,
		Inputs:  []string{KeyDates, statsKey},
		Outputs: []string{out},
		Run: func(_ context.Context, env *taskgraph.Env) error {
			var monthly []fx.MonthlyStat
			table, err := env.Store.Read(statsKey)
			switch {
			case errors.Is(err, services.ErrNotFound):
				env.Logger.Info("no monthly statistics, reporting the whole range",
					logging.Artifact(statsKey),
					logging.String("range", rng.String()),
				)
			case err != nil:
				return err
			default:
				monthly, err = fx.DecodeMonthlyStats(table)
				if err != nil {
					return fmt.Errorf("%s: %w", statsKey, err)
				}
			}
			missing := coverage.Missing(p, rng.Months(), coverage.ObservedMonths(p, monthly))
			env.Logger.Debug("coverage reconciled",
				logging.String("range", rng.String()),
				logging.Int("missing_months", len(missing)),
			)
			return env.Out.Write(out, fx.MissingMonthsTable(missing))
		},
	}
}

func readPairSet(store *artifact.Store) ([]fx.Pair, error) {
	table, err := store.Read(KeyPairs)
	if err != nil {
		return nil, err
	}
	pairs, err := fx.DecodePairs(table)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyPairs, err)
	}
	return pairs, nil
}

func readDateSet(store *artifact.Store) ([]fx.Date, error) {
	table, err := store.Read(KeyDates)
	if err != nil {
		return nil, err
	}
	dates, err := fx.DecodeDates(table)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyDates, err)
	}
	return dates, nil
}
