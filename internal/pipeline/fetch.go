package pipeline

import (
	"context"
	"fmt"
	"time"

	"fxpipe/internal/artifact"
	"fxpipe/internal/fx"
	"fxpipe/internal/logging"
	"fxpipe/internal/services"
	"fxpipe/internal/services/ecb"
	"fxpipe/internal/taskgraph"
)

func fetchTask(p fx.Pair, fetcher Fetcher, refresh time.Duration) taskgraph.Task {
	key := DownloadKey(p)
	return taskgraph.Task{
		ID:      fetchTaskID(p),
		Stage:   StageFetch,
		Outputs: []string{key},
		MaxAge:  refresh,
		Run: func(ctx context.Context, env *taskgraph.Env) error {
			data, err := fetcher.Fetch(ctx, p)
			if err != nil {
				return err
			}
			env.Logger.Info("source downloaded",
				logging.Artifact(key),
				logging.Int("bytes", len(data)),
			)
			return env.Out.WriteRaw(key, data)
		},
	}
}

func normalizeTask(p fx.Pair, deps []string) taskgraph.Task {
	source, out := DownloadKey(p), PricesKey(p)
	return taskgraph.Task{
		ID:      normalizeTaskID(p),
		Stage:   StageNormalize,
		Deps:    deps,
		Inputs:  []string{source},
		Outputs: []string{out},
		Run: func(_ context.Context, env *taskgraph.Env) error {
			raw, err := env.Store.ReadRaw(source)
			if err != nil {
				return err
			}
			table, err := artifact.DecodeTable(raw)
			if err != nil {
				return services.Wrap(services.ErrMalformedRecord, StageNormalize, source, "", err)
			}
			records, err := ecb.Normalize(table, p)
			if err != nil {
				return fmt.Errorf("%s: %w", source, err)
			}
			env.Logger.Debug("source normalized", logging.Int("rows", len(records)))
			return env.Out.Write(out, fx.PricesTable(records))
		},
	}
}
