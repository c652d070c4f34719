package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const versionTimeout = 5 * time.Second

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func defaultRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

// Version returns the first line of a tool's version banner, e.g.
// "ffmpeg version 6.1.1". mediainfo reports on its second line, so
// "MediaInfo Command line," prefixes are skipped.
func Version(ctx context.Context, binary string, run Runner) (string, error) {
	if run == nil {
		run = defaultRunner
	}
	flag := "-version"
	if strings.Contains(strings.ToLower(binary), "mediainfo") {
		flag = "--Version"
	}

	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	out, err := run(ctx, binary, flag)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", binary, flag, err)
	}
	return versionLine(string(out)), nil
}

// FFmpegHasFilter reports whether ffmpeg was built with the named filter.
func FFmpegHasFilter(ctx context.Context, binary, filter string, run Runner) (bool, error) {
	if run == nil {
		run = defaultRunner
	}
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	out, err := run(ctx, binary, "-hide_banner", "-filters")
	if err != nil {
		return false, fmt.Errorf("%s -filters: %w", binary, err)
	}
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == filter {
			return true, nil
		}
	}
	return false, nil
}

func versionLine(output string) string {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "MediaInfo Command line") {
			continue
		}
		return line
	}
	return ""
}
