package preflight

import (
	"context"
	"fmt"

	"muxprep/internal/config"
	"muxprep/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Options tunes RunAll.
type Options struct {
	// SkipOutput skips the output directory check, e.g. for dry runs.
	SkipOutput bool
	// Runner overrides the command runner used for ffmpeg capability checks.
	Runner deps.Runner
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Input directory", cfg.Paths.InputDir, AccessRead))
	if !opts.SkipOutput {
		results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir, AccessReadWrite))
	}
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir, AccessReadWrite))

	ffmpegAvailable := false
	for _, status := range CheckSystemDeps(cfg) {
		if status.Name == "FFmpeg" {
			ffmpegAvailable = status.Available
		}
		results = append(results, fromStatus(status))
	}

	if cfg.NormalizationEnabled() && ffmpegAvailable {
		results = append(results, CheckPeakFilter(ctx, cfg, opts.Runner))
	}
	return results
}

// FirstFailure returns the first failed result, if any.
func FirstFailure(results []Result) (Result, bool) {
	for _, r := range results {
		if !r.Passed {
			return r, true
		}
	}
	return Result{}, false
}

func fromStatus(status deps.Status) Result {
	switch {
	case status.Available:
		return Result{Name: status.Name, Passed: true, Detail: status.Path}
	case status.Optional:
		return Result{Name: status.Name, Passed: true, Detail: fmt.Sprintf("optional, %s", status.Detail)}
	default:
		return Result{Name: status.Name, Detail: status.Detail}
	}
}
