package normalize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"muxprep/internal/classify"
	"muxprep/internal/config"
	"muxprep/internal/logging"
	"muxprep/internal/services"
	"muxprep/internal/track"
)

// ErrUnsupportedFormat marks tracks the normalizer cannot re-encode.
var ErrUnsupportedFormat = errors.New("unsupported format")

// MaxGainCeilingDB bounds the applied gain whatever the configured cap.
const MaxGainCeilingDB = 20.0

const (
	outputCodec     = "ac3"
	stereoBitrate   = "384k"
	surroundBitrate = "640k"
)

// PeakMeter measures the maximum sample peak of one audio stream in dBFS.
type PeakMeter interface {
	MaxPeak(ctx context.Context, path string, audioIndex int) (float64, error)
}

// Settings configures the planner.
type Settings struct {
	Enabled   bool
	MinGainDB float64
	MaxGainDB float64
	Branding  string
	Timeout   time.Duration
	Classify  classify.Options
}

// SettingsFromConfig extracts planner settings from the configuration.
func SettingsFromConfig(cfg *config.Config) Settings {
	if cfg == nil {
		return Settings{}
	}
	return Settings{
		Enabled:   cfg.NormalizationEnabled(),
		MinGainDB: cfg.Normalization.MinGainDB,
		MaxGainDB: cfg.Normalization.MaxGainDB,
		Branding:  cfg.Normalization.Branding,
		Timeout:   cfg.NormalizationTimeout(),
		Classify:  classify.Options{AtmosOverride: cfg.Selection.AtmosOverride},
	}
}

// Instruction describes the normalized track to synthesize. It is inserted
// as the first audio output and carries the default disposition.
type Instruction struct {
	// SourceIndex is the audio-local index of the source track.
	SourceIndex int
	GainDB      float64
	Codec       string
	Bitrate     string
	Channels    int
	Title       string
	Language    string
}

// Decision is the terminal outcome of planning.
type Decision struct {
	State       State
	PeakDB      float64
	GainDB      float64
	Reason      string
	Instruction *Instruction
	Err         error
}

// Applied reports whether a normalized track should be emitted.
func (d Decision) Applied() bool {
	return d.State == StateApplying && d.Instruction != nil
}

// Planner runs peak analysis on the primary audio track.
type Planner struct {
	meter    PeakMeter
	settings Settings
	logger   *slog.Logger
	state    State
}

// NewPlanner constructs a planner around the given meter.
func NewPlanner(meter PeakMeter, settings Settings, logger *slog.Logger) *Planner {
	return &Planner{
		meter:    meter,
		settings: settings,
		logger:   logging.NewComponentLogger(logger, "normalize"),
	}
}

// State returns the state reached by the last Plan call.
func (p *Planner) State() State {
	if p == nil {
		return StateIdle
	}
	return p.state
}

// Plan decides normalization for the track at output position 0 of the
// selected audio. Disabled normalization or an empty selection leaves the
// planner Idle.
func (p *Planner) Plan(ctx context.Context, path string, selected []track.Audio) Decision {
	p.state = StateIdle
	if !p.settings.Enabled || len(selected) == 0 {
		return Decision{State: StateIdle, Reason: "normalization disabled or no audio selected"}
	}
	primary := selected[0]

	semantic := classify.Audio(primary, p.settings.Classify)
	if !supported(semantic.Family, primary.Channels) {
		return p.fail(ctx, fmt.Errorf("%w: %s with %d channels", ErrUnsupportedFormat, semantic.Base(), primary.Channels), "unsupported format")
	}
	if p.meter == nil {
		return p.fail(ctx, errors.New("no peak meter configured"), "peak meter unavailable")
	}

	p.state = StateAnalyzing
	p.logger.Debug("measuring peak",
		logging.Int("audio_index", primary.LocalIndex),
		logging.String("semantic_type", semantic.String()),
	)

	measureCtx := ctx
	var cancel context.CancelFunc
	if p.settings.Timeout > 0 {
		measureCtx, cancel = context.WithTimeout(ctx, p.settings.Timeout)
		defer cancel()
	}
	peak, err := p.meter.MaxPeak(measureCtx, path, primary.LocalIndex)
	if err != nil {
		if errors.Is(measureCtx.Err(), context.DeadlineExceeded) {
			err = services.Wrap(services.ErrTimeout, "normalize", "measure peak", fmt.Sprintf("exceeded %s", p.settings.Timeout), err)
			return p.fail(ctx, err, "peak measurement timed out")
		}
		return p.fail(ctx, err, "peak measurement failed")
	}

	gain := -peak
	if gain <= p.settings.MinGainDB {
		p.state = StateSkipped
		reason := fmt.Sprintf("gain %.2f dB within threshold %.2f dB", gain, p.settings.MinGainDB)
		p.logger.Info("normalization skipped",
			logging.Args(append(logging.DecisionAttrs("normalization", "skipped", reason),
				logging.Float64("peak_db", peak))...)...,
		)
		return Decision{State: StateSkipped, PeakDB: peak, GainDB: gain, Reason: reason}
	}

	safe := math.Min(gain, p.maxGain())
	instruction := &Instruction{
		SourceIndex: primary.LocalIndex,
		GainDB:      safe,
		Codec:       outputCodec,
		Bitrate:     bitrateFor(primary.Channels),
		Channels:    primary.Channels,
		Title:       titleFor(primary.Channels, p.settings.Branding),
		Language:    primary.Language,
	}
	p.state = StateApplying
	reason := fmt.Sprintf("peak %.2f dB, applying %.2f dB", peak, safe)
	p.logger.Info("normalization planned",
		logging.Args(append(logging.DecisionAttrs("normalization", "applied", reason),
			logging.Float64("peak_db", peak),
			logging.Float64("gain_db", safe),
			logging.Bool("capped", safe < gain))...)...,
	)
	return Decision{State: StateApplying, PeakDB: peak, GainDB: safe, Reason: reason, Instruction: instruction}
}

// maxGain is the configured cap, bounded by MaxGainCeilingDB. A missing cap
// falls back to the ceiling.
func (p *Planner) maxGain() float64 {
	if p.settings.MaxGainDB <= 0 {
		return MaxGainCeilingDB
	}
	return math.Min(p.settings.MaxGainDB, MaxGainCeilingDB)
}

func (p *Planner) fail(ctx context.Context, err error, reason string) Decision {
	p.state = StateFailed
	logging.WarnWithContext(logging.WithContext(ctx, p.logger), "normalization failed", "normalization_failed",
		logging.Error(err),
		logging.String("decision_reason", reason),
		logging.String(logging.FieldErrorHint, "check the audio codec and ffmpeg availability"),
		logging.String(logging.FieldImpact, "output keeps the original audio without a normalized track"),
	)
	return Decision{State: StateFailed, Reason: reason, Err: err}
}

func supported(family classify.Family, channels int) bool {
	switch family {
	case classify.FamilyAC3, classify.FamilyEAC3, classify.FamilyDTS, classify.FamilyAAC:
	default:
		return false
	}
	return channels == 2 || channels == 6
}

func bitrateFor(channels int) string {
	if channels == 2 {
		return stereoBitrate
	}
	return surroundBitrate
}

func titleFor(channels int, branding string) string {
	base := "Dolby Digital 5.1"
	if channels == 2 {
		base = "Dolby Stereo"
	}
	return strings.TrimSpace(base + " " + branding)
}
