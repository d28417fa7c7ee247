package pipeline

import (
	"context"
	"fmt"

	"fxpipe/internal/artifact"
	"fxpipe/internal/fx"
	"fxpipe/internal/logging"
	"fxpipe/internal/taskgraph"
)

// missingDataTask joins the per-pair reports in pair-set order.
func missingDataTask() taskgraph.Task {
	return taskgraph.Task{
		ID:      TaskMissingData,
		Stage:   StageSink,
		Deps:    []string{SpawnReconcile},
		Inputs:  []string{KeyPairs},
		Outputs: []string{KeyMissingData},
		Run: func(_ context.Context, env *taskgraph.Env) error {
			pairs, err := readPairSet(env.Store)
			if err != nil {
				return err
			}
			var all []fx.MissingMonth
			for _, p := range pairs {
				key := MissingDataKey(p)
				table, err := env.Store.Read(key)
				if err != nil {
					return err
				}
				missing, err := fx.DecodeMissingMonths(table)
				if err != nil {
					return fmt.Errorf("%s: %w", key, err)
				}
				all = append(all, missing...)
			}
			env.Logger.Info("missing data collected",
				logging.Int("pairs", len(pairs)),
				logging.Int("missing_months", len(all)),
			)
			return env.Out.Write(KeyMissingData, fx.MissingMonthsTable(all))
		},
	}
}

// ReadMissingData decodes the global missing-data report.
func ReadMissingData(store *artifact.Store) ([]fx.MissingMonth, error) {
	table, err := store.Read(KeyMissingData)
	if err != nil {
		return nil, err
	}
	missing, err := fx.DecodeMissingMonths(table)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyMissingData, err)
	}
	return missing, nil
}
