package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"muxprep/internal/config"
	"muxprep/internal/logging"
	"muxprep/internal/media/ffprobe"
	"muxprep/internal/media/mediainfo"
	"muxprep/internal/services"
	"muxprep/internal/track"
)

// Sources reported in Report.Source.
const (
	SourceCombined = "mediainfo+ffprobe"
	SourceFFprobe  = "ffprobe"
)

// Warning describes a disagreement between the metadata sources.
type Warning struct {
	StreamOrder int
	Field       string
	MediaInfo   bool
	FFprobe     bool
}

func (w Warning) String() string {
	return fmt.Sprintf("stream %d: %s flag differs (mediainfo=%t, ffprobe=%t)", w.StreamOrder, w.Field, w.MediaInfo, w.FFprobe)
}

// Report is the merged metadata of one file.
type Report struct {
	Path     string
	Source   string
	Tracks   []track.Track
	Warnings []Warning
	Duration time.Duration
}

type (
	ffprobeFunc   func(ctx context.Context, binary, path string) (ffprobe.Result, error)
	mediainfoFunc func(ctx context.Context, binary, path string) (mediainfo.Result, error)
)

// Provider probes files with mediainfo and ffprobe.
type Provider struct {
	ffprobeBinary   string
	mediainfoBinary string
	timeout         time.Duration
	dumpMetadata    bool
	logger          *slog.Logger

	inspectFFprobe   ffprobeFunc
	inspectMediaInfo mediainfoFunc
}

// NewProvider constructs a provider from the tool configuration.
func NewProvider(cfg *config.Config, logger *slog.Logger) *Provider {
	p := &Provider{
		ffprobeBinary:    "ffprobe",
		mediainfoBinary:  "mediainfo",
		logger:           logging.NewComponentLogger(logger, "probe"),
		inspectFFprobe:   ffprobe.Inspect,
		inspectMediaInfo: mediainfo.Inspect,
	}
	if cfg != nil {
		p.ffprobeBinary = cfg.Tools.FFprobe
		p.mediainfoBinary = cfg.Tools.MediaInfo
		p.timeout = cfg.ProbeTimeout()
		p.dumpMetadata = cfg.Debug.DumpMetadata
	}
	return p
}

// WithInspectors replaces the external tool calls, for tests.
func (p *Provider) WithInspectors(ff ffprobeFunc, mi mediainfoFunc) {
	if p == nil {
		return
	}
	if ff != nil {
		p.inspectFFprobe = ff
	}
	if mi != nil {
		p.inspectMediaInfo = mi
	}
}

// MediaInfoEnabled reports whether mediainfo is consulted.
func (p *Provider) MediaInfoEnabled() bool {
	return p != nil && strings.TrimSpace(p.mediainfoBinary) != ""
}

// Tracks probes path and returns the merged track list in source order.
func (p *Provider) Tracks(ctx context.Context, path string) (Report, error) {
	if p == nil {
		return Report{}, errors.New("probe provider not initialized")
	}
	logger := logging.WithContext(ctx, p.logger)

	ff, ffErr := p.runFFprobe(ctx, path)

	if !p.MediaInfoEnabled() {
		if ffErr != nil {
			return Report{}, ffErr
		}
		report := fromFFprobe(path, ff)
		p.dump(ctx, path, nil, ff)
		return report, nil
	}

	mi, miErr := p.runMediaInfo(ctx, path)
	switch {
	case miErr != nil && ffErr != nil:
		return Report{}, errors.Join(miErr, ffErr)
	case miErr != nil:
		logging.WarnWithContext(logger, "mediainfo failed; using ffprobe metadata", "probe_fallback",
			logging.Error(miErr),
			logging.String(logging.FieldErrorHint, "check the mediainfo installation"),
			logging.String(logging.FieldImpact, "spatial audio and DTS variants may be misclassified"),
		)
		report := fromFFprobe(path, ff)
		p.dump(ctx, path, nil, ff)
		return report, nil
	case ffErr != nil:
		logging.WarnWithContext(logger, "ffprobe failed; subtitle dispositions unavailable", "probe_partial",
			logging.Error(ffErr),
			logging.String(logging.FieldErrorHint, "check the ffprobe installation"),
		)
		ff = ffprobe.Result{}
	}

	report := merge(path, mi, ff, ffErr == nil)
	for _, w := range report.Warnings {
		logging.WarnWithContext(logger, "metadata sources disagree", "metadata_disagreement",
			logging.Int("stream_order", w.StreamOrder),
			logging.String("field", w.Field),
			logging.Bool("mediainfo", w.MediaInfo),
			logging.Bool("ffprobe", w.FFprobe),
			logging.String(logging.FieldErrorHint, "verify the subtitle flags with mkvinfo"),
			logging.String(logging.FieldImpact, "forced detection falls back to the track title"),
		)
	}
	p.dump(ctx, path, &mi, ff)
	return report, nil
}

func (p *Provider) runFFprobe(ctx context.Context, path string) (ffprobe.Result, error) {
	probeCtx, cancel := p.withTimeout(ctx)
	defer cancel()
	result, err := p.inspectFFprobe(probeCtx, p.ffprobeBinary, path)
	if err != nil {
		return ffprobe.Result{}, p.wrapToolError(probeCtx, "ffprobe", err)
	}
	return result, nil
}

func (p *Provider) runMediaInfo(ctx context.Context, path string) (mediainfo.Result, error) {
	probeCtx, cancel := p.withTimeout(ctx)
	defer cancel()
	result, err := p.inspectMediaInfo(probeCtx, p.mediainfoBinary, path)
	if err != nil {
		return mediainfo.Result{}, p.wrapToolError(probeCtx, "mediainfo", err)
	}
	return result, nil
}

func (p *Provider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}

func (p *Provider) wrapToolError(ctx context.Context, tool string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "probe", tool, fmt.Sprintf("exceeded %s", p.timeout), err)
	}
	return services.Wrap(services.ErrExternalTool, "probe", tool, "", err)
}
