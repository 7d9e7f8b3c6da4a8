package preflight

import (
	"context"

	"stitch/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks only run for configured features: dataset B is skipped on dedup
// runs and the database check only runs when a database is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckFileReadable("Dataset A", cfg.DatasetA.Path))
	if !cfg.Dedup() {
		results = append(results, CheckFileReadable("Dataset B", cfg.DatasetB.Path))
	}
	results = append(results, CheckDirectoryAccess("Output directory", cfg.Output.Dir))
	if cfg.Database != nil {
		results = append(results, CheckDatabase(ctx, cfg.Database, cfg.Output.Dir))
	}

	return results
}

// AllPassed reports whether every check succeeded.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
