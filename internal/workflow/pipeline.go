package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"muxprep/internal/executor"
	"muxprep/internal/history"
	"muxprep/internal/logging"
	"muxprep/internal/naming"
	"muxprep/internal/normalize"
	"muxprep/internal/remuxplan"
	"muxprep/internal/scanner"
	"muxprep/internal/selection"
	"muxprep/internal/services"
	"muxprep/internal/track"
)

// ErrOutputIsSource is returned when the planned output would overwrite the input.
var ErrOutputIsSource = errors.New("output path equals source path")

// ProcessFile runs the full pipeline for one file and records the outcome.
func (p *Processor) ProcessFile(ctx context.Context, file scanner.File) Outcome {
	outcome := Outcome{
		File:          file,
		CorrelationID: uuid.NewString(),
		StartedAt:     time.Now(),
	}
	ctx = services.WithRequestID(ctx, outcome.CorrelationID)
	ctx = services.WithFileID(ctx, file.Path)
	logger := logging.WithContext(ctx, p.logger)

	if p.skipProcessed && p.history != nil {
		done, err := p.history.Processed(ctx, file.Path)
		if err != nil {
			logging.WarnWithContext(logger, "history lookup failed; processing anyway", "history_lookup_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the history database in the state directory"),
				logging.String(logging.FieldImpact, "the file may be processed twice"),
			)
		} else if done {
			logger.Info("already processed; skipping",
				logging.Args(logging.DecisionAttrs("skip_processed", "skipped", "terminal history record")...)...)
			outcome.Status = history.StatusSkipped
			outcome.FinishedAt = time.Now()
			return outcome
		}
	}

	logger.Info("processing file", logging.Int64("size_bytes", file.Size))
	plan, decision, stage, err := p.process(ctx, logger, file)
	outcome.Normalization = decision
	outcome.FinishedAt = time.Now()
	outcome.Plan = plan

	switch {
	case err != nil:
		outcome.Err = err
		outcome.Stage = stage
		outcome.Status = services.FailureStatus(err)
		p.logFailure(ctx, logger, outcome)
	case p.dryRun:
		outcome.Status = history.StatusPlanned
		logger.Info("plan built (dry run)",
			logging.String(logging.FieldEventType, "plan_built"),
			logging.String("output", plan.Output),
			logging.Int("tracks", len(plan.Tracks)),
		)
	default:
		outcome.Status = history.StatusSucceeded
		logger.Info("file processed",
			logging.String(logging.FieldEventType, "file_processed"),
			logging.String("output", plan.Output),
			logging.Duration("elapsed", outcome.Duration()),
		)
	}

	p.record(ctx, logger, outcome)
	return outcome
}

// process returns the stage that failed alongside any error.
func (p *Processor) process(ctx context.Context, logger *slog.Logger, file scanner.File) (*remuxplan.Plan, normalize.Decision, string, error) {
	var decision normalize.Decision

	probeCtx := services.WithStage(ctx, StageProbe)
	report, err := p.source.Tracks(probeCtx, file.Path)
	if err != nil {
		return nil, decision, StageProbe, err
	}
	set := track.Separate(report.Tracks)
	videoCount, audioCount, subtitleCount := set.Counts()
	logger.Info("tracks probed",
		logging.String("source", report.Source),
		logging.Int("video", videoCount),
		logging.Int("audio", audioCount),
		logging.Int("subtitles", subtitleCount),
		logging.Int("warnings", len(report.Warnings)),
	)

	if videoCount == 0 {
		return nil, decision, StageSelect, services.Wrap(services.ErrValidation, StageSelect, "video check", "", remuxplan.ErrNoVideo)
	}

	selectLogger := logging.WithContext(services.WithStage(ctx, StageSelect), p.logger)
	audio := selection.SelectAudio(set.Audio, p.selection)
	if len(audio) == 0 {
		return nil, decision, StageSelect, services.Wrap(services.ErrValidation, StageSelect, "audio selection",
			fmt.Sprintf("none of %d audio tracks matched the language allow-list", audioCount), remuxplan.ErrNoAudio)
	}
	subtitles := selection.SelectSubtitles(set.Subtitles, p.selection)
	selectLogger.Info("tracks selected",
		logging.Args(append(logging.DecisionAttrs("track_selection", "selected", "language allow-list and priority tables"),
			logging.Int("audio_selected", len(audio)),
			logging.Int("audio_dropped", audioCount-len(audio)),
			logging.Int("subtitles_selected", len(subtitles)),
			logging.Int("subtitles_dropped", subtitleCount-len(subtitles)),
			logging.String("primary_audio", audio[0].Title),
		)...)...,
	)
	if len(subtitles) == 0 {
		selectLogger.Info("no subtitles after filtering",
			logging.String(logging.FieldEventType, "no_subtitles"),
			logging.Int("subtitles_in_source", subtitleCount),
		)
	}

	normCtx := services.WithStage(ctx, StageNormalize)
	planner := normalize.NewPlanner(p.meter, p.settings, p.logger)
	decision = planner.Plan(normCtx, file.Path, audio)
	if err := ctx.Err(); err != nil {
		return nil, decision, StageNormalize, err
	}

	var instruction *normalize.Instruction
	if decision.Applied() {
		instruction = decision.Instruction
	}
	output := p.outputPath(file)
	if sameFile(output, file.Path) {
		return nil, decision, StagePlan, services.Wrap(services.ErrConfiguration, StagePlan, "output path", output, ErrOutputIsSource)
	}

	plan, err := remuxplan.Build(remuxplan.Input{
		Source:          file.Path,
		Output:          output,
		Duration:        report.Duration,
		Video:           set.Video,
		Audio:           audio,
		Subtitles:       subtitles,
		Normalized:      instruction,
		EncodeVideo:     p.cfg.Video.Encode,
		EncodingOptions: p.cfg.Video.EncodingOptions,
		UnknownLanguage: p.cfg.Selection.DefaultLanguageForUnknown,
	})
	if err != nil {
		return nil, decision, StagePlan, err
	}
	if p.dryRun {
		return &plan, decision, "", nil
	}

	remuxCtx := services.WithStage(ctx, StageRemux)
	if err := p.runner.Run(remuxCtx, plan, p.progressFunc(remuxCtx, file.Path)); err != nil {
		return &plan, decision, StageRemux, err
	}
	return &plan, decision, "", nil
}

func (p *Processor) outputPath(file scanner.File) string {
	dir := p.cfg.Paths.OutputDir
	name := naming.OutputName(file.Name, naming.Options{
		Enabled: p.cfg.Rename.Enabled,
		Exists:  naming.ExistsIn(dir),
	})
	return filepath.Join(dir, name)
}

func (p *Processor) progressFunc(ctx context.Context, path string) func(executor.Progress) {
	logger := logging.WithContext(ctx, p.logger)
	sampler := logging.NewProgressSampler(10)
	return func(report executor.Progress) {
		if p.progress != nil {
			p.progress(path, report)
		}
		if !sampler.ShouldLog(report.Percent, StageRemux) && !report.Done {
			return
		}
		logger.Info("remux progress",
			logging.String(logging.FieldEventType, "remux_progress"),
			logging.Float64("percent", report.Percent),
			logging.Duration("out_time", report.OutTime),
			logging.Float64("fps", report.FPS),
			logging.String("speed", report.Speed),
		)
	}
}

func (p *Processor) logFailure(ctx context.Context, logger *slog.Logger, outcome Outcome) {
	if outcome.Stage != "" {
		logger = logging.WithContext(services.WithStage(ctx, outcome.Stage), p.logger)
	}
	hint := "check logs for details"
	switch {
	case errors.Is(outcome.Err, remuxplan.ErrNoVideo):
		hint = "the file has no video stream; remove it from the input directory"
	case errors.Is(outcome.Err, remuxplan.ErrNoAudio):
		hint = "add the file's audio language to selection.languages or keep unknown languages"
	case errors.Is(outcome.Err, services.ErrExternalTool), errors.Is(outcome.Err, services.ErrTimeout):
		hint = "run `muxprep check` and inspect the ffmpeg output above"
	}
	logging.ErrorWithContext(logger, "file processing failed", "file_failed",
		logging.Error(outcome.Err),
		logging.String("resolved_status", string(outcome.Status)),
		logging.String(logging.FieldErrorHint, hint),
	)
}

func (p *Processor) record(ctx context.Context, logger *slog.Logger, outcome Outcome) {
	if p.history == nil {
		return
	}
	rec := history.Record{
		RunID:         p.runID,
		SourcePath:    outcome.File.Path,
		Status:        outcome.Status,
		Stage:         outcome.Stage,
		Preset:        p.cfg.ActivePreset,
		Normalization: outcome.Normalization.State.String(),
		GainDB:        outcome.Normalization.GainDB,
		DryRun:        p.dryRun,
		StartedAt:     outcome.StartedAt,
		FinishedAt:    outcome.FinishedAt,
	}
	if outcome.Err != nil {
		rec.Error = outcome.Err.Error()
	}
	if outcome.Plan != nil {
		rec.OutputPath = outcome.Plan.Output
		rec.AudioTracks = outcome.Plan.Count(track.KindAudio)
		rec.SubtitleTracks = outcome.Plan.Count(track.KindSubtitle)
	}
	// A cancelled run still records the interrupted file.
	if _, err := p.history.Record(context.WithoutCancel(ctx), rec); err != nil {
		logging.WarnWithContext(logger, "failed to record history", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the history database in the state directory"),
			logging.String(logging.FieldImpact, "--skip-processed will not see this file"),
		)
	}
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return absA == absB
}
