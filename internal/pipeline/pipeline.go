package pipeline

import (
	"context"
	"fmt"
	"time"

	"fxpipe/internal/artifact"
	"fxpipe/internal/fx"
	"fxpipe/internal/services"
	"fxpipe/internal/taskgraph"
)

// Fetcher downloads the raw source table of one pair.
type Fetcher interface {
	Fetch(ctx context.Context, pair fx.Pair) ([]byte, error)
}

// Options configures Build.
type Options struct {
	// Pairs is the source registry, in configuration order.
	Pairs []fx.Pair
	// Fetcher downloads sources. When nil no fetch tasks are planned and the
	// download artifacts must already exist in the store.
	Fetcher Fetcher
	// RefreshAge re-downloads a source once its artifact is older than this.
	// Zero downloads missing sources only.
	RefreshAge time.Duration
}

// Build assembles the task graph for the configured pairs. The reconcile
// spawn point and the missing-data join read store at run time.
func Build(store *artifact.Store, opts Options) (*taskgraph.Graph, error) {
	if store == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "build", "artifact store is required", nil)
	}
	if len(opts.Pairs) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "build", "no currency pairs configured", nil)
	}
	seen := make(map[fx.Pair]struct{}, len(opts.Pairs))
	for _, p := range opts.Pairs {
		if p.IsZero() {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "build", "empty currency pair", nil)
		}
		if _, dup := seen[p]; dup {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "build", fmt.Sprintf("pair %s configured twice", p), nil)
		}
		seen[p] = struct{}{}
	}

	g := taskgraph.New()
	var (
		pairParts  []string
		dateParts  []string
		pairTasks  []string
		dateTasks  []string
		monthlyFor = make(map[fx.Pair]bool, len(opts.Pairs))
	)
	for _, p := range opts.Pairs {
		var sourceDeps []string
		if opts.Fetcher != nil {
			if err := g.AddTask(fetchTask(p, opts.Fetcher, opts.RefreshAge)); err != nil {
				return nil, err
			}
			sourceDeps = []string{fetchTaskID(p)}
		}
		tasks := []taskgraph.Task{
			normalizeTask(p, sourceDeps),
			pairsPartTask(p),
			datesPartTask(p),
			monthlyTask(p),
		}
		for _, task := range tasks {
			if err := g.AddTask(task); err != nil {
				return nil, err
			}
		}
		monthlyFor[p] = true
		pairParts = append(pairParts, PairsPartKey(p))
		dateParts = append(dateParts, DatesPartKey(p))
		pairTasks = append(pairTasks, pairsPartTaskID(p))
		dateTasks = append(dateTasks, datesPartTaskID(p))
	}

	if err := g.AddTask(collectPairsTask(pairTasks, pairParts)); err != nil {
		return nil, err
	}
	if err := g.AddTask(collectDatesTask(dateTasks, dateParts)); err != nil {
		return nil, err
	}
	if err := g.AddSpawn(reconcileSpawn(store, monthlyFor)); err != nil {
		return nil, err
	}
	if err := g.AddTask(missingDataTask()); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// readPrices decodes the price artifact of a pair.
func readPrices(store *artifact.Store, p fx.Pair) ([]fx.PriceRecord, error) {
	table, err := store.Read(PricesKey(p))
	if err != nil {
		return nil, err
	}
	records, err := fx.DecodePrices(table)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", PricesKey(p), err)
	}
	return records, nil
}
