package preflight

import (
	"context"
	"strings"

	"fxpipe/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Options selects the optional checks of RunAll.
type Options struct {
	// Source probes the exchange-rate API once.
	Source bool
}

// RunAll executes the preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Artifact root (always checked)
	results = append(results, CheckDirectoryAccess("Artifact directory", cfg.Paths.ArtifactDir))

	// Log directory (when configured)
	if strings.TrimSpace(cfg.Paths.LogDir) != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	results = append(results, CheckRegistry(cfg))
	results = append(results, CheckRunLock(cfg.LockPath()))

	if opts.Source {
		results = append(results, CheckSource(ctx, cfg))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
