// Package preflight provides readiness checks for the external services and
// filesystem paths the pipeline depends on.
//
// These checks run in two contexts:
//   - "scribe process" runs them before touching the queue, so a doomed
//     batch fails in seconds instead of after hours of transcription.
//   - "scribe status" uses the individual check functions to display health.
package preflight

import (
	"context"

	"scribe/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
		CheckDirectoryAccess("Archive directory", cfg.Paths.ArchiveDir),
		CheckDiskSpace("Staging disk space", cfg.Paths.StagingDir, minStagingBytes),
	}
	results = append(results, CheckBinaries(cfg)...)
	results = append(results, CheckZoom(ctx, cfg))
	results = append(results, CheckTranscriber(cfg))
	results = append(results, CheckClassifier(ctx, cfg))
	return results
}

// AllPassed reports whether every mandatory check succeeded.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
