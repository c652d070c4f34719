package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"muxprep/internal/config"
	"muxprep/internal/deps"
)

// Access modes for directory checks.
const (
	AccessRead      = unix.R_OK | unix.X_OK
	AccessReadWrite = unix.R_OK | unix.W_OK | unix.X_OK
)

// CheckDirectoryAccess verifies that the directory exists and grants the
// requested access mode.
func CheckDirectoryAccess(name, path string, mode uint32) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	label := "read ok"
	if mode&unix.W_OK != 0 {
		label = "read/write ok"
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, label)}
}

// CheckSystemDeps evaluates the external binaries required by the given
// config. MediaInfo is optional: without it probing falls back to ffprobe.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Tools.FFmpeg,
			Description: "Required for remuxing and peak analysis",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Tools.FFprobe,
			Description: "Required for stream dispositions",
		},
		{
			Name:        "MediaInfo",
			Command:     cfg.Tools.MediaInfo,
			Description: "Primary metadata source",
			Optional:    true,
		},
	}
	return deps.CheckBinaries(requirements)
}

// CheckPeakFilter verifies ffmpeg ships the volumedetect filter used for
// peak normalization.
func CheckPeakFilter(ctx context.Context, cfg *config.Config, run deps.Runner) Result {
	const name = "volumedetect filter"
	ok, err := deps.FFmpegHasFilter(ctx, cfg.Tools.FFmpeg, "volumedetect", run)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if !ok {
		return Result{Name: name, Detail: "ffmpeg built without volumedetect; set normalization.mode = \"off\""}
	}
	return Result{Name: name, Passed: true, Detail: "available"}
}
