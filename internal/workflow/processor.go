package workflow

import (
	"context"
	"log/slog"

	"muxprep/internal/config"
	"muxprep/internal/executor"
	"muxprep/internal/history"
	"muxprep/internal/logging"
	"muxprep/internal/media/probe"
	"muxprep/internal/normalize"
	"muxprep/internal/remuxplan"
	"muxprep/internal/selection"
)

// Stage names used in logs and history records.
const (
	StageProbe     = "probe"
	StageSelect    = "select"
	StageNormalize = "normalize"
	StagePlan      = "plan"
	StageRemux     = "remux"
)

// TrackSource returns the merged track list of a media file.
type TrackSource interface {
	Tracks(ctx context.Context, path string) (probe.Report, error)
}

// PlanRunner executes a remux plan.
type PlanRunner interface {
	Run(ctx context.Context, plan remuxplan.Plan, progress func(executor.Progress)) error
}

// HistoryStore records outcomes and answers whether a file is done.
type HistoryStore interface {
	Record(ctx context.Context, rec history.Record) (int64, error)
	Processed(ctx context.Context, sourcePath string) (bool, error)
}

// Processor runs the pipeline for individual files.
type Processor struct {
	cfg       *config.Config
	logger    *slog.Logger
	source    TrackSource
	meter     normalize.PeakMeter
	runner    PlanRunner
	history   HistoryStore
	selection selection.Options
	settings  normalize.Settings

	dryRun        bool
	skipProcessed bool
	runID         string
	progress      func(path string, p executor.Progress)
}

// Option configures optional Processor behavior.
type Option func(*Processor)

// WithDryRun builds plans without executing them.
func WithDryRun(enabled bool) Option {
	return func(p *Processor) { p.dryRun = enabled }
}

// WithSkipProcessed skips files whose latest history record is terminal.
func WithSkipProcessed(enabled bool) Option {
	return func(p *Processor) { p.skipProcessed = enabled }
}

// WithHistory sets the history store. Without one nothing is recorded.
func WithHistory(store HistoryStore) Option {
	return func(p *Processor) { p.history = store }
}

// WithTrackSource replaces the metadata provider.
func WithTrackSource(source TrackSource) Option {
	return func(p *Processor) { p.source = source }
}

// WithPeakMeter replaces the ffmpeg volumedetect meter.
func WithPeakMeter(meter normalize.PeakMeter) Option {
	return func(p *Processor) { p.meter = meter }
}

// WithPlanRunner replaces the ffmpeg executor.
func WithPlanRunner(runner PlanRunner) Option {
	return func(p *Processor) { p.runner = runner }
}

// WithRunID sets the batch identifier stored with every record.
func WithRunID(id string) Option {
	return func(p *Processor) { p.runID = id }
}

// WithProgress receives every executor progress report in addition to the
// sampled progress logs.
func WithProgress(fn func(path string, p executor.Progress)) Option {
	return func(p *Processor) { p.progress = fn }
}

// NewProcessor wires the default collaborators from cfg and applies opts.
func NewProcessor(cfg *config.Config, logger *slog.Logger, opts ...Option) *Processor {
	p := &Processor{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "workflow"),
		selection: selection.OptionsFromConfig(cfg),
		settings:  normalize.SettingsFromConfig(cfg),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.source == nil {
		p.source = probe.NewProvider(cfg, logger)
	}
	if p.meter == nil && cfg != nil {
		p.meter = normalize.NewVolumeDetector(cfg.Tools.FFmpeg)
	}
	if p.runner == nil && cfg != nil {
		p.runner = executor.New(cfg.Tools.FFmpeg, logger).WithTimeout(cfg.RemuxTimeout())
	}
	return p
}

// DryRun reports whether plans are only built.
func (p *Processor) DryRun() bool {
	return p != nil && p.dryRun
}
