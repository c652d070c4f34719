package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"muxprep/internal/classify"
	"muxprep/internal/config"
	"muxprep/internal/media/ffprobe"
	"muxprep/internal/media/mediainfo"
	"muxprep/internal/services"
	"muxprep/internal/track"
)

func loadFixtures(t *testing.T) (ffprobe.Result, mediainfo.Result) {
	t.Helper()
	ffData, err := os.ReadFile(filepath.Join("testdata", "ffprobe.json"))
	if err != nil {
		t.Fatalf("read ffprobe fixture: %v", err)
	}
	miData, err := os.ReadFile(filepath.Join("testdata", "mediainfo.json"))
	if err != nil {
		t.Fatalf("read mediainfo fixture: %v", err)
	}
	ff, err := ffprobe.Parse(ffData)
	if err != nil {
		t.Fatalf("parse ffprobe: %v", err)
	}
	mi, err := mediainfo.Parse(miData)
	if err != nil {
		t.Fatalf("parse mediainfo: %v", err)
	}
	return ff, mi
}

func newTestProvider(t *testing.T, mutate func(*config.Config)) *Provider {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	return NewProvider(&cfg, nil)
}

func stubInspectors(p *Provider, ff ffprobe.Result, ffErr error, mi mediainfo.Result, miErr error) {
	p.WithInspectors(
		func(context.Context, string, string) (ffprobe.Result, error) { return ff, ffErr },
		func(context.Context, string, string) (mediainfo.Result, error) { return mi, miErr },
	)
}

func TestTracksMergesSourcesAndFlagsDisagreement(t *testing.T) {
	ff, mi := loadFixtures(t)
	provider := newTestProvider(t, nil)
	stubInspectors(provider, ff, nil, mi, nil)

	report, err := provider.Tracks(context.Background(), "/in/movie.mkv")
	if err != nil {
		t.Fatalf("Tracks: %v", err)
	}
	if report.Source != SourceCombined {
		t.Fatalf("source = %q", report.Source)
	}
	if report.Duration != time.Duration(7254.336*float64(time.Second)) {
		t.Fatalf("duration = %v", report.Duration)
	}

	set := track.Separate(report.Tracks)
	if set.General == nil || len(set.Video) != 1 || len(set.Audio) != 2 || len(set.Subtitles) != 2 {
		t.Fatalf("unexpected set: %+v", set)
	}
	if got := classify.Audio(set.Audio[0], classify.Options{}).String(); got != "eac3_atmos_5" {
		t.Fatalf("first audio type = %q", got)
	}
	if got := classify.Audio(set.Audio[1], classify.Options{}).String(); got != "dts_hd_ma_7" {
		t.Fatalf("second audio type = %q", got)
	}

	if len(report.Warnings) != 1 || report.Warnings[0].Field != "forced" || report.Warnings[0].StreamOrder != 3 {
		t.Fatalf("warnings = %+v", report.Warnings)
	}
	forced := set.Subtitles[0]
	if !forced.FlagsUnreliable {
		t.Fatal("disagreeing subtitle should be marked unreliable")
	}
	if classify.SubtitleType(forced) != classify.TypeForced {
		t.Fatal("title should still classify the track as forced")
	}
	sdh := set.Subtitles[1]
	if sdh.FlagsUnreliable || !sdh.Disposition.HearingImpaired {
		t.Fatalf("sdh subtitle = %+v", sdh)
	}
	if sdh.Language != "en" {
		t.Fatalf("language = %q", sdh.Language)
	}
}

func TestTracksFFprobeOnlyWhenMediaInfoDisabled(t *testing.T) {
	ff, _ := loadFixtures(t)
	provider := newTestProvider(t, func(cfg *config.Config) { cfg.Tools.MediaInfo = "" })
	called := false
	provider.WithInspectors(
		func(context.Context, string, string) (ffprobe.Result, error) { return ff, nil },
		func(context.Context, string, string) (mediainfo.Result, error) {
			called = true
			return mediainfo.Result{}, nil
		},
	)

	report, err := provider.Tracks(context.Background(), "/in/movie.mkv")
	if err != nil {
		t.Fatalf("Tracks: %v", err)
	}
	if called {
		t.Fatal("mediainfo should not run when disabled")
	}
	if report.Source != SourceFFprobe {
		t.Fatalf("source = %q", report.Source)
	}
	set := track.Separate(report.Tracks)
	if len(set.Audio) != 2 || len(set.Subtitles) != 2 {
		t.Fatalf("unexpected set: %+v", set)
	}
	if got := classify.Audio(set.Audio[0], classify.Options{}).String(); got != "eac3_atmos_5" {
		t.Fatalf("profile should drive atmos detection, got %q", got)
	}
	if set.Audio[0].AdditionalFeatures != "JOC" || set.Audio[1].AdditionalFeatures != "" {
		t.Fatalf("atmos profile should map to the JOC feature only: %q, %q", set.Audio[0].AdditionalFeatures, set.Audio[1].AdditionalFeatures)
	}
	if got := classify.Audio(set.Audio[1], classify.Options{}).String(); got != "dts_hd_ma_7" {
		t.Fatalf("profile should drive dts variant, got %q", got)
	}
	if set.Audio[0].Language != "de" {
		t.Fatalf("language = %q", set.Audio[0].Language)
	}
	if set.General.Title != "Movie" {
		t.Fatalf("general title = %q", set.General.Title)
	}
}

func TestTracksFallsBackWhenMediaInfoFails(t *testing.T) {
	ff, _ := loadFixtures(t)
	provider := newTestProvider(t, nil)
	stubInspectors(provider, ff, nil, mediainfo.Result{}, errors.New("boom"))

	report, err := provider.Tracks(context.Background(), "/in/movie.mkv")
	if err != nil {
		t.Fatalf("Tracks: %v", err)
	}
	if report.Source != SourceFFprobe {
		t.Fatalf("source = %q", report.Source)
	}
}

func TestTracksFailsWhenBothSourcesFail(t *testing.T) {
	provider := newTestProvider(t, nil)
	stubInspectors(provider, ffprobe.Result{}, errors.New("ffprobe down"), mediainfo.Result{}, errors.New("mediainfo down"))

	_, err := provider.Tracks(context.Background(), "/in/movie.mkv")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestTracksTimeout(t *testing.T) {
	provider := newTestProvider(t, func(cfg *config.Config) { cfg.Tools.MediaInfo = "" })
	provider.timeout = 10 * time.Millisecond
	provider.WithInspectors(func(ctx context.Context, _, _ string) (ffprobe.Result, error) {
		<-ctx.Done()
		return ffprobe.Result{}, ctx.Err()
	}, nil)

	_, err := provider.Tracks(context.Background(), "/in/movie.mkv")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestTracksDumpsCombinedMetadata(t *testing.T) {
	ff, mi := loadFixtures(t)
	provider := newTestProvider(t, func(cfg *config.Config) { cfg.Debug.DumpMetadata = true })
	stubInspectors(provider, ff, nil, mi, nil)

	source := filepath.Join(t.TempDir(), "movie.mkv")
	if _, err := provider.Tracks(context.Background(), source); err != nil {
		t.Fatalf("Tracks: %v", err)
	}
	data, err := os.ReadFile(DumpPath(source))
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty dump")
	}
	if filepath.Base(DumpPath(source)) != "movie.mkv-combined.json" {
		t.Fatalf("dump path = %q", DumpPath(source))
	}
}
