package workflow_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"muxprep/internal/config"
	"muxprep/internal/executor"
	"muxprep/internal/history"
	"muxprep/internal/logging"
	"muxprep/internal/media/probe"
	"muxprep/internal/normalize"
	"muxprep/internal/remuxplan"
	"muxprep/internal/scanner"
	"muxprep/internal/services"
	"muxprep/internal/testsupport"
	"muxprep/internal/track"
	"muxprep/internal/workflow"
)

type fakeSource struct {
	tracks []track.Track
	err    error
	calls  int
}

func (f *fakeSource) Tracks(_ context.Context, path string) (probe.Report, error) {
	f.calls++
	if f.err != nil {
		return probe.Report{}, f.err
	}
	return probe.Report{Path: path, Source: probe.SourceCombined, Tracks: f.tracks}, nil
}

type fakeMeter struct{ peak float64 }

func (m fakeMeter) MaxPeak(context.Context, string, int) (float64, error) {
	return m.peak, nil
}

type fakeRunner struct {
	plans []remuxplan.Plan
	err   error
}

func (r *fakeRunner) Run(_ context.Context, plan remuxplan.Plan, progress func(executor.Progress)) error {
	r.plans = append(r.plans, plan)
	if progress != nil {
		progress(executor.Progress{Percent: 50})
		progress(executor.Progress{Percent: 100, Done: true})
	}
	return r.err
}

func movieTracks() []track.Track {
	return []track.Track{
		&track.General{Format: "Matroska"},
		&track.Video{Codec: "V_MPEG4/ISO/AVC", Width: 1920, Height: 1080},
		&track.Audio{Base: track.Base{Language: "ger", Title: "Deutsch", Default: true}, Codec: "A_AC3", Channels: 6},
		&track.Audio{Base: track.Base{Language: "eng"}, Codec: "A_DTS", Channels: 6},
		&track.Audio{Base: track.Base{Language: "fre"}, Codec: "A_AC3", Channels: 2},
		&track.Subtitle{Base: track.Base{Language: "ger", Title: "Forced", Forced: true}, Codec: "S_HDMV/PGS"},
		&track.Subtitle{Base: track.Base{Language: "eng"}, Codec: "S_TEXT/UTF8"},
	}
}

type harness struct {
	cfg     *config.Config
	source  *fakeSource
	runner  *fakeRunner
	history *history.Store
}

func newHarness(t *testing.T, tracks []track.Track, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	return &harness{
		cfg:     cfg,
		source:  &fakeSource{tracks: tracks},
		runner:  &fakeRunner{},
		history: testsupport.MustOpenHistory(t, cfg),
	}
}

func (h *harness) processor(opts ...workflow.Option) *workflow.Processor {
	base := []workflow.Option{
		workflow.WithTrackSource(h.source),
		workflow.WithPlanRunner(h.runner),
		workflow.WithPeakMeter(fakeMeter{peak: -6}),
		workflow.WithHistory(h.history),
		workflow.WithRunID("run-test"),
	}
	return workflow.NewProcessor(h.cfg, logging.NewNop(), append(base, opts...)...)
}

func (h *harness) file(name string) scanner.File {
	return scanner.File{
		Path: filepath.Join(h.cfg.Paths.InputDir, name+".mkv"),
		Name: name,
		Ext:  ".mkv",
		Size: 1024,
	}
}

func TestProcessFileSucceeds(t *testing.T) {
	h := newHarness(t, movieTracks(), testsupport.WithPeakNormalization())
	var reports int
	proc := h.processor(workflow.WithProgress(func(string, executor.Progress) { reports++ }))

	outcome := proc.ProcessFile(context.Background(), h.file("movie"))
	if outcome.Err != nil {
		t.Fatalf("unexpected error: %v", outcome.Err)
	}
	if outcome.Status != history.StatusSucceeded {
		t.Fatalf("expected succeeded, got %s", outcome.Status)
	}
	if outcome.CorrelationID == "" {
		t.Fatal("expected correlation id")
	}
	if len(h.runner.plans) != 1 {
		t.Fatalf("expected one executed plan, got %d", len(h.runner.plans))
	}
	if reports != 2 {
		t.Fatalf("expected 2 progress reports, got %d", reports)
	}

	plan := h.runner.plans[0]
	if want := filepath.Join(h.cfg.Paths.OutputDir, "movie.mkv"); plan.Output != want {
		t.Fatalf("unexpected output %q, want %q", plan.Output, want)
	}
	// ger ac3 + eng dts selected, fre dropped; normalized track prepended.
	if got := plan.Count(track.KindAudio); got != 3 {
		t.Fatalf("expected 3 audio outputs, got %d", got)
	}
	if plan.Normalized == nil || plan.Normalized.GainDB != 6 {
		t.Fatalf("expected 6 dB normalized track, got %#v", plan.Normalized)
	}
	if got := plan.Count(track.KindSubtitle); got != 2 {
		t.Fatalf("expected 2 subtitle outputs, got %d", got)
	}
	if outcome.Normalization.State != normalize.StateApplying {
		t.Fatalf("expected applying state, got %s", outcome.Normalization.State)
	}

	rec, err := h.history.Lookup(context.Background(), outcome.File.Path)
	if err != nil || rec == nil {
		t.Fatalf("expected history record, got %v err=%v", rec, err)
	}
	if rec.Status != history.StatusSucceeded || rec.RunID != "run-test" || rec.AudioTracks != 3 || rec.Normalization != "applying" {
		t.Fatalf("unexpected history record: %#v", rec)
	}
}

func TestProcessFileRejections(t *testing.T) {
	tests := []struct {
		name    string
		tracks  []track.Track
		wantErr error
	}{
		{
			name: "no video",
			tracks: []track.Track{
				&track.Audio{Base: track.Base{Language: "de"}, Codec: "A_AC3", Channels: 2},
			},
			wantErr: remuxplan.ErrNoVideo,
		},
		{
			name: "no allowed audio",
			tracks: []track.Track{
				&track.Video{Codec: "V_MPEG4/ISO/AVC"},
				&track.Audio{Base: track.Base{Language: "fre"}, Codec: "A_AC3", Channels: 2},
			},
			wantErr: remuxplan.ErrNoAudio,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, tc.tracks)
			outcome := h.processor().ProcessFile(context.Background(), h.file("clip"))
			if !errors.Is(outcome.Err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, outcome.Err)
			}
			if !errors.Is(outcome.Err, services.ErrValidation) {
				t.Fatalf("expected validation marker, got %v", outcome.Err)
			}
			if outcome.Status != history.StatusRejected || outcome.Stage != workflow.StageSelect {
				t.Fatalf("unexpected outcome status=%s stage=%s", outcome.Status, outcome.Stage)
			}
			if len(h.runner.plans) != 0 {
				t.Fatal("expected no plan execution")
			}
			rec, err := h.history.Lookup(context.Background(), outcome.File.Path)
			if err != nil || rec == nil || rec.Status != history.StatusRejected || rec.Stage != workflow.StageSelect {
				t.Fatalf("unexpected history record %#v err=%v", rec, err)
			}
		})
	}
}

func TestProcessFileFollowsLanguageAllowList(t *testing.T) {
	h := newHarness(t, movieTracks(), testsupport.WithLanguages("fr", "en"))

	outcome := h.processor().ProcessFile(context.Background(), h.file("movie"))
	if outcome.Err != nil {
		t.Fatalf("unexpected error: %v", outcome.Err)
	}
	plan := h.runner.plans[0]

	var audioSources, subtitleSources []int
	for _, out := range plan.Tracks {
		switch out.Kind {
		case track.KindAudio:
			audioSources = append(audioSources, out.SourceIndex)
		case track.KindSubtitle:
			subtitleSources = append(subtitleSources, out.SourceIndex)
		}
	}
	// fre (local 2) ranks ahead of eng (local 1); ger is not allow-listed.
	if len(audioSources) != 2 || audioSources[0] != 2 || audioSources[1] != 1 {
		t.Fatalf("unexpected audio sources %v", audioSources)
	}
	if len(subtitleSources) != 1 || subtitleSources[0] != 1 {
		t.Fatalf("unexpected subtitle sources %v", subtitleSources)
	}
}

func TestProcessFileFailures(t *testing.T) {
	t.Run("probe", func(t *testing.T) {
		h := newHarness(t, nil)
		h.source.err = services.Wrap(services.ErrExternalTool, "probe", "ffprobe", "", errors.New("exit status 1"))
		outcome := h.processor().ProcessFile(context.Background(), h.file("broken"))
		if outcome.Status != history.StatusFailed || outcome.Stage != workflow.StageProbe {
			t.Fatalf("unexpected outcome status=%s stage=%s", outcome.Status, outcome.Stage)
		}
	})

	t.Run("remux", func(t *testing.T) {
		h := newHarness(t, movieTracks())
		h.runner.err = services.Wrap(services.ErrExternalTool, "execute", "ffmpeg", "", errors.New("exit status 1"))
		outcome := h.processor().ProcessFile(context.Background(), h.file("movie"))
		if outcome.Status != history.StatusFailed || outcome.Stage != workflow.StageRemux {
			t.Fatalf("unexpected outcome status=%s stage=%s", outcome.Status, outcome.Stage)
		}
		rec, err := h.history.Lookup(context.Background(), outcome.File.Path)
		if err != nil || rec == nil || !strings.Contains(rec.Error, "exit status 1") {
			t.Fatalf("expected error recorded, got %#v err=%v", rec, err)
		}
	})
}

func TestProcessFileDryRun(t *testing.T) {
	h := newHarness(t, movieTracks())
	outcome := h.processor(workflow.WithDryRun(true)).ProcessFile(context.Background(), h.file("movie"))
	if outcome.Status != history.StatusPlanned {
		t.Fatalf("expected planned, got %s (%v)", outcome.Status, outcome.Err)
	}
	if outcome.Plan == nil {
		t.Fatal("expected plan on dry run")
	}
	if len(h.runner.plans) != 0 {
		t.Fatal("dry run must not execute")
	}
	if outcome.Normalization.State != normalize.StateIdle {
		t.Fatalf("expected idle normalization with mode off, got %s", outcome.Normalization.State)
	}
	rec, _ := h.history.Lookup(context.Background(), outcome.File.Path)
	if rec == nil || !rec.DryRun {
		t.Fatalf("expected dry-run record, got %#v", rec)
	}
}

func TestProcessFileSkipsProcessed(t *testing.T) {
	h := newHarness(t, movieTracks())
	file := h.file("movie")
	if first := h.processor().ProcessFile(context.Background(), file); first.Status != history.StatusSucceeded {
		t.Fatalf("first pass: %s (%v)", first.Status, first.Err)
	}

	second := h.processor(workflow.WithSkipProcessed(true)).ProcessFile(context.Background(), file)
	if second.Status != history.StatusSkipped {
		t.Fatalf("expected skipped, got %s", second.Status)
	}
	if h.source.calls != 1 {
		t.Fatalf("expected probe to run once, got %d", h.source.calls)
	}
}

func TestRunContinuesAfterFailure(t *testing.T) {
	h := newHarness(t, movieTracks())
	files := []scanner.File{h.file("a"), h.file("b")}
	h.runner.err = errors.New("disk full")

	summary, err := h.processor().Run(context.Background(), files)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Outcomes) != 2 || summary.Failed() != 2 {
		t.Fatalf("expected both files attempted and failed, got %#v", summary.Counts)
	}
}

func TestRunStopsWhenCancelled(t *testing.T) {
	h := newHarness(t, movieTracks())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := h.processor().Run(ctx, []scanner.File{h.file("a")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(summary.Outcomes) != 0 || h.source.calls != 0 {
		t.Fatalf("expected no files processed, got %d outcomes", len(summary.Outcomes))
	}
}
