package preflight

import (
	"context"

	"datarecv/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Only the check matching the configured source kind runs.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}
	results = append(results, CheckSourceExecutables(cfg.Source)...)

	switch cfg.Source.Kind {
	case "file":
		results = append(results, CheckRecording(cfg.Source.Path))
	case "tcp":
		results = append(results, CheckEndpoint(ctx, cfg.Source.Address))
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
