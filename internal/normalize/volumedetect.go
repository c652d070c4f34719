package normalize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"muxprep/internal/services"
)

// ErrNoPeakData is returned when ffmpeg output carries no max_volume line.
var ErrNoPeakData = errors.New("no peak data in volumedetect output")

var maxVolumePattern = regexp.MustCompile(`max_volume:\s*(-?\d+(\.\d+)?)\s*dB`)

// stderrRunner runs a command and returns its standard error.
type stderrRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// VolumeDetector measures peaks with ffmpeg's volumedetect filter.
type VolumeDetector struct {
	binary string
	run    stderrRunner
}

// NewVolumeDetector constructs a detector for the given ffmpeg binary.
func NewVolumeDetector(ffmpegBinary string) *VolumeDetector {
	binary := strings.TrimSpace(ffmpegBinary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &VolumeDetector{binary: binary, run: runCaptureStderr}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (d *VolumeDetector) WithCommandRunner(r func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	if d != nil && r != nil {
		d.run = r
	}
}

// MaxPeak implements PeakMeter.
func (d *VolumeDetector) MaxPeak(ctx context.Context, path string, audioIndex int) (float64, error) {
	if d == nil {
		return 0, errors.New("volume detector not initialized")
	}
	args := []string{
		"-hide_banner",
		"-nostats",
		"-i", path,
		"-map", fmt.Sprintf("0:a:%d", audioIndex),
		"-af", "volumedetect",
		"-f", "null",
		"-",
	}
	stderr, err := d.run(ctx, d.binary, args...)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, services.Wrap(services.ErrExternalTool, "normalize", "volumedetect", strings.TrimSpace(lastLine(stderr)), err)
	}
	return ParseMaxVolume(stderr)
}

// ParseMaxVolume extracts the max_volume value in dB from volumedetect output.
func ParseMaxVolume(output []byte) (float64, error) {
	match := maxVolumePattern.FindSubmatch(output)
	if match == nil {
		return 0, ErrNoPeakData
	}
	value, err := strconv.ParseFloat(string(match[1]), 64)
	if err != nil {
		return 0, fmt.Errorf("parse max_volume %q: %w", match[1], err)
	}
	return value, nil
}

func runCaptureStderr(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}

func lastLine(output []byte) string {
	trimmed := strings.TrimSpace(string(output))
	if idx := strings.LastIndexByte(trimmed, '\n'); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}
