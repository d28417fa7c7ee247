package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"

	"fxpipe/internal/artifact"
	"fxpipe/internal/fx"
	"fxpipe/internal/logging"
	"fxpipe/internal/services"
	"fxpipe/internal/taskgraph"
)

// pairsPartTask records the pair a source contributes. The pair comes from
// the source key, so an empty source still contributes it; every row must
// agree with it.
func pairsPartTask(p fx.Pair) taskgraph.Task {
	out := PairsPartKey(p)
	return taskgraph.Task{
		ID:      pairsPartTaskID(p),
		Stage:   StageExtract,
		Deps:    []string{normalizeTaskID(p)},
		Inputs:  []string{PricesKey(p)},
		Outputs: []string{out},
		Run: func(_ context.Context, env *taskgraph.Env) error {
			records, err := readPrices(env.Store, p)
			if err != nil {
				return err
			}
			for i, rec := range records {
				if rec.Pair != p {
					return services.Wrap(services.ErrMalformedRecord, StageExtract, PricesKey(p),
						fmt.Sprintf("line %d: row belongs to %s", i+2, rec.Pair), nil)
				}
			}
			return env.Out.Write(out, fx.PairsTable([]fx.Pair{p}))
		},
	}
}

// datesPartTask records the distinct dates observed in a source.
func datesPartTask(p fx.Pair) taskgraph.Task {
	out := DatesPartKey(p)
	return taskgraph.Task{
		ID:      datesPartTaskID(p),
		Stage:   StageExtract,
		Deps:    []string{normalizeTaskID(p)},
		Inputs:  []string{PricesKey(p)},
		Outputs: []string{out},
		Run: func(_ context.Context, env *taskgraph.Env) error {
			records, err := readPrices(env.Store, p)
			if err != nil {
				return err
			}
			dates := make([]fx.Date, 0, len(records))
			for _, rec := range records {
				dates = append(dates, rec.Date)
			}
			return env.Out.Write(out, fx.DatesTable(distinctDates(dates)))
		},
	}
}

// collectPairsTask unions the partial pair lists into the global pair set,
// sorted by canonical text.
func collectPairsTask(deps, parts []string) taskgraph.Task {
	return taskgraph.Task{
		ID:      TaskCollectPairs,
		Stage:   StageExtract,
		Deps:    deps,
		Inputs:  parts,
		Outputs: []string{KeyPairs},
		Verify:  verifyCollected(KeyPairs, collectPairs),
		Run: func(_ context.Context, env *taskgraph.Env) error {
			table, err := collectPairs(env.Store, env.Inputs)
			if err != nil {
				return err
			}
			env.Logger.Info("pair set collected",
				logging.Int("pairs", table.Len()),
				logging.Int("sources", len(env.Inputs)),
			)
			return env.Out.Write(KeyPairs, table)
		},
	}
}

// collectDatesTask unions the partial date lists into the global date set.
func collectDatesTask(deps, parts []string) taskgraph.Task {
	return taskgraph.Task{
		ID:      TaskCollectDates,
		Stage:   StageExtract,
		Deps:    deps,
		Inputs:  parts,
		Outputs: []string{KeyDates},
		Verify:  verifyCollected(KeyDates, collectDates),
		Run: func(_ context.Context, env *taskgraph.Env) error {
			table, err := collectDates(env.Store, env.Inputs)
			if err != nil {
				return err
			}
			env.Logger.Info("date set collected", logging.Int("dates", table.Len()))
			return env.Out.Write(KeyDates, table)
		},
	}
}

type collectFunc func(store *artifact.Store, parts []string) (artifact.Table, error)

func collectPairs(store *artifact.Store, parts []string) (artifact.Table, error) {
	var pairs []fx.Pair
	for _, key := range parts {
		table, err := store.Read(key)
		if err != nil {
			return artifact.Table{}, err
		}
		part, err := fx.DecodePairs(table)
		if err != nil {
			return artifact.Table{}, fmt.Errorf("%s: %w", key, err)
		}
		pairs = append(pairs, part...)
	}
	return fx.PairsTable(distinctPairs(pairs)), nil
}

func collectDates(store *artifact.Store, parts []string) (artifact.Table, error) {
	var dates []fx.Date
	for _, key := range parts {
		table, err := store.Read(key)
		if err != nil {
			return artifact.Table{}, err
		}
		part, err := fx.DecodeDates(table)
		if err != nil {
			return artifact.Table{}, fmt.Errorf("%s: %w", key, err)
		}
		dates = append(dates, part...)
	}
	return fx.DatesTable(distinctDates(dates)), nil
}

// verifyCollected recomputes a union and compares it with the stored copy.
// Dropping a source leaves every remaining part older than the union, so
// timestamps alone never notice the shrunk input set.
func verifyCollected(output string, collect collectFunc) taskgraph.VerifyFunc {
	return func(store *artifact.Store, inputs []string) (string, error) {
		want, err := collect(store, inputs)
		if err != nil {
			return "", err
		}
		encoded, err := want.Encode()
		if err != nil {
			return "", err
		}
		have, err := store.ReadRaw(output)
		if err != nil {
			return "", err
		}
		if !bytes.Equal(encoded, have) {
			return fmt.Sprintf("%s no longer matches its %d sources", output, len(inputs)), nil
		}
		return "", nil
	}
}

func distinctDates(dates []fx.Date) []fx.Date {
	out := slices.Clone(dates)
	slices.SortFunc(out, fx.Date.Compare)
	return slices.Compact(out)
}

func distinctPairs(pairs []fx.Pair) []fx.Pair {
	out := slices.Clone(pairs)
	slices.SortFunc(out, func(a, b fx.Pair) int {
		return strings.Compare(a.String(), b.String())
	})
	return slices.Compact(out)
}
