package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"muxprep/internal/config"
	"muxprep/internal/history"
	"muxprep/internal/logging"
	"muxprep/internal/preflight"
	"muxprep/internal/scanner"
	"muxprep/internal/workflow"
)

const lockFileName = "muxprep.lock"

func newRunCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var skipProcessed bool

	cmd := &cobra.Command{
		Use:   "run [dir]",
		Short: "Process every media file below the input directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			root := cfg.Paths.InputDir
			if len(args) == 1 {
				if root, err = config.ExpandPath(args[0]); err != nil {
					return fmt.Errorf("resolve input directory: %w", err)
				}
				cfg.Paths.InputDir = root
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			results := preflight.RunAll(signalCtx, cfg, preflight.Options{SkipOutput: dryRun})
			if failed, ok := preflight.FirstFailure(results); ok {
				return fmt.Errorf("preflight %s failed: %s (run `muxprep check` for details)", failed.Name, failed.Detail)
			}

			lock := flock.New(filepath.Join(cfg.Paths.StateDir, lockFileName))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !locked {
				return errors.New("another muxprep run is already in progress")
			}
			defer func() { _ = lock.Unlock() }()

			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			files, err := scanner.Find(root, scanner.Options{
				Extensions:  cfg.Scan.Extensions,
				SkipKeyword: cfg.Scan.SkipKeyword,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintf(out, "No media files found in %s\n", root)
				return nil
			}

			runID := uuid.NewString()
			logger.Info("run started",
				logging.String(logging.FieldEventType, "run_started"),
				logging.String("run_id", runID),
				logging.String("input_dir", root),
				logging.String("output_dir", cfg.Paths.OutputDir),
			)
			processor := workflow.NewProcessor(cfg, logger,
				workflow.WithRunID(runID),
				workflow.WithHistory(store),
				workflow.WithDryRun(dryRun),
				workflow.WithSkipProcessed(skipProcessed),
			)
			summary, runErr := processor.Run(signalCtx, files)

			writeRunSummary(out, summary, shouldColorize(out))
			if runErr != nil {
				if errors.Is(runErr, context.Canceled) {
					fmt.Fprintln(out, "Run interrupted; remaining files were not processed")
				}
				return runErr
			}
			if failed := summary.Failed(); failed > 0 {
				return fmt.Errorf("%d of %d files did not complete", failed, len(summary.Outcomes))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Build plans without running ffmpeg")
	cmd.Flags().BoolVar(&skipProcessed, "skip-processed", false, "Skip files already completed according to history")
	return cmd
}

func writeRunSummary(out io.Writer, summary workflow.Summary, colorize bool) {
	if len(summary.Outcomes) == 0 {
		return
	}
	rows := make([][]string, 0, len(summary.Outcomes))
	var totalSize uint64
	for _, o := range summary.Outcomes {
		target := ""
		if o.Plan != nil {
			target = filepath.Base(o.Plan.Output)
		}
		detail := target
		if o.Err != nil {
			detail = o.Err.Error()
		}
		if o.File.Size > 0 {
			totalSize += uint64(o.File.Size)
		}
		rows = append(rows, []string{
			colorStatus(o.Status, colorize),
			filepath.Base(o.File.Path),
			humanize.Bytes(uint64(max(o.File.Size, 0))),
			o.Duration().Round(time.Second).String(),
			detail,
		})
	}
	columns := []column{
		{Header: "Status"},
		{Header: "File", MaxWidth: 48},
		{Header: "Size", Align: alignRight},
		{Header: "Time", Align: alignRight},
		{Header: "Output / Error", MaxWidth: 60},
	}
	fmt.Fprintln(out, renderTable("", columns, rows))

	fmt.Fprintf(out, "%d files (%s): %s\n", len(summary.Outcomes), humanize.Bytes(totalSize), renderCounts(summary.Counts, colorize))
}
