package executor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"muxprep/internal/logging"
	"muxprep/internal/remuxplan"
	"muxprep/internal/services"
)

const stderrTailLines = 20

// lineRunner runs a command, passing each stdout line to onLine. The error
// should carry the tail of stderr.
type lineRunner func(ctx context.Context, name string, args []string, onLine func(string)) error

// Executor runs remux plans.
type Executor struct {
	binary string
	logger *slog.Logger
	run    lineRunner
	// timeout bounds one ffmpeg run; zero means no deadline.
	timeout time.Duration
}

// New constructs an executor for the given ffmpeg binary.
func New(ffmpegBinary string, logger *slog.Logger) *Executor {
	binary := strings.TrimSpace(ffmpegBinary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Executor{
		binary: binary,
		logger: logging.NewComponentLogger(logger, "executor"),
		run:    runStreaming,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (e *Executor) WithCommandRunner(r func(ctx context.Context, name string, args []string, onLine func(string)) error) {
	if e != nil && r != nil {
		e.run = r
	}
}

// WithTimeout sets the deadline for each remux.
func (e *Executor) WithTimeout(d time.Duration) *Executor {
	if e != nil && d > 0 {
		e.timeout = d
	}
	return e
}

// PartialPath returns the temporary path used while writing output.
func PartialPath(output string) string {
	dir := filepath.Dir(output)
	base := filepath.Base(output)
	ext := filepath.Ext(base)
	return filepath.Join(dir, "."+strings.TrimSuffix(base, ext)+".partial"+ext)
}

// Run executes the plan and moves the result to plan.Output on success.
func (e *Executor) Run(ctx context.Context, plan remuxplan.Plan, progress func(Progress)) error {
	if e == nil {
		return errors.New("executor not initialized")
	}
	if strings.TrimSpace(plan.Source) == "" || strings.TrimSpace(plan.Output) == "" {
		return services.Wrap(services.ErrValidation, "execute", "run", "plan source and output are required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(plan.Output), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	partial := PartialPath(plan.Output)
	args := append([]string{"-hide_banner", "-y", "-nostats", "-progress", "pipe:1"}, plan.ArgsTo(partial)...)

	logger := logging.WithContext(ctx, e.logger)
	logger.Debug("executing ffmpeg",
		logging.String("output", plan.Output),
		logging.Int("tracks", len(plan.Tracks)),
		logging.Bool("normalized", plan.Normalized != nil),
	)

	parser := newProgressParser(plan.Duration)
	onLine := func(line string) {
		if report, ok := parser.feed(line); ok && progress != nil {
			progress(report)
		}
	}

	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	if err := e.run(runCtx, e.binary, args, onLine); err != nil {
		_ = os.Remove(partial)
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "execute", "ffmpeg", fmt.Sprintf("exceeded %s", e.timeout), err)
		}
		return services.Wrap(services.ErrExternalTool, "execute", "ffmpeg", "", err)
	}

	if _, err := os.Stat(partial); err != nil {
		return services.Wrap(services.ErrExternalTool, "execute", "ffmpeg", "no output file produced", err)
	}
	if err := os.Rename(partial, plan.Output); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("move output into place: %w", err)
	}

	logger.Info("remux complete",
		logging.String(logging.FieldEventType, "remux_complete"),
		logging.String("output", plan.Output),
	)
	return nil
}

func runStreaming(ctx context.Context, name string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	tail := &tailBuffer{limit: stderrTailLines}
	cmd.Stderr = tail

	if err := cmd.Start(); err != nil {
		return err
	}
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		onLine(scanner.Text())
	}
	// Drain so ffmpeg never blocks on a full pipe after a scanner error.
	_, _ = io.Copy(io.Discard, stdout)

	if err := cmd.Wait(); err != nil {
		if msg := tail.String(); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// tailBuffer keeps the last lines written to it.
type tailBuffer struct {
	limit   int
	lines   []string
	partial string
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	data := t.partial + string(p)
	parts := strings.Split(data, "\n")
	t.partial = parts[len(parts)-1]
	for _, line := range parts[:len(parts)-1] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		t.lines = append(t.lines, line)
		if len(t.lines) > t.limit {
			t.lines = t.lines[len(t.lines)-t.limit:]
		}
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	lines := t.lines
	if rest := strings.TrimSpace(t.partial); rest != "" {
		lines = append(append([]string(nil), lines...), rest)
	}
	return strings.Join(lines, "; ")
}
