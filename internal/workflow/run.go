package workflow

import (
	"context"

	"muxprep/internal/logging"
	"muxprep/internal/scanner"
)

// Run processes files sequentially. It returns ctx.Err() when cancelled;
// the summary then covers the files handled so far.
func (p *Processor) Run(ctx context.Context, files []scanner.File) (Summary, error) {
	var summary Summary
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_started"),
		logging.Int("files", len(files)),
		logging.Bool("dry_run", p.dryRun),
		logging.String("preset", p.cfg.ActivePreset),
	)

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			logger.Info("batch cancelled",
				logging.String(logging.FieldEventType, "batch_cancelled"),
				logging.Int("remaining", len(files)-i),
			)
			return summary, err
		}
		summary.add(p.ProcessFile(ctx, file))
	}

	logger.Info("batch finished",
		logging.String(logging.FieldEventType, "batch_finished"),
		logging.Int("files", len(files)),
		logging.Int("failed", summary.Failed()),
	)
	return summary, ctx.Err()
}
