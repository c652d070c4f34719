package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"muxprep/internal/history"
	"muxprep/internal/normalize"
	"muxprep/internal/preflight"
	"muxprep/internal/remuxplan"
	"muxprep/internal/testsupport"
	"muxprep/internal/track"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}

	out, _, err = runCLI(t, []string{"--preset", "uhd-copy", "config", "validate"}, target)
	if err != nil {
		t.Fatalf("config validate with preset: %v", err)
	}
	requireContains(t, out, "Preset uhd-copy applied")
}

func TestConfigPresets(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "config.toml")
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err != nil {
		t.Fatalf("config init: %v", err)
	}
	out, _, err := runCLI(t, []string{"config", "presets"}, target)
	if err != nil {
		t.Fatalf("config presets: %v", err)
	}
	for _, name := range []string{"anime-copy", "anime-encode", "uhd-copy", "uhd-encode"} {
		requireContains(t, out, name)
	}
}

func TestUnknownPresetFails(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"--preset", "nope", "config", "validate"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "unknown preset") {
		t.Fatalf("expected unknown preset error, got %v", err)
	}
}

func TestHistoryCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No files processed yet")

	store := testsupport.MustOpenHistory(t, env.cfg)
	now := time.Now()
	if _, err := store.Record(context.Background(), history.Record{
		SourcePath:     filepath.Join(env.cfg.Paths.InputDir, "movie.mkv"),
		OutputPath:     filepath.Join(env.cfg.Paths.OutputDir, "movie-out.mkv"),
		Status:         history.StatusSucceeded,
		GainDB:         4.25,
		AudioTracks:    2,
		SubtitleTracks: 1,
		StartedAt:      now.Add(-time.Minute),
		FinishedAt:     now,
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	store.Close()

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "movie.mkv")
	requireContains(t, out, "movie-out.mkv")
	requireContains(t, out, "4.25 dB")
	requireContains(t, out, "2/1")
}

func TestCheckCommand(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries("ffmpeg", "ffprobe"))
	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "== Preflight ==")
	requireContains(t, out, "FFprobe:")
	requireContains(t, out, "[OK]")
}

func TestRunEmptyInput(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries("ffmpeg", "ffprobe"))
	out, _, err := runCLI(t, []string{"run", "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "No media files found")
}

func TestWritePlan(t *testing.T) {
	plan, err := remuxplan.Build(remuxplan.Input{
		Source: "/in/movie.mkv",
		Output: "/out/movie.mkv",
		Video:  []track.Video{{Codec: "h264"}},
		Audio: []track.Audio{
			{Base: track.Base{Language: "de", Title: "Dolby Digital 5.1", Default: true}, Codec: "ac3", Channels: 6},
		},
		Subtitles: []track.Subtitle{
			{Base: track.Base{Language: "de", Title: "Deutsch Erzwungen", Forced: true, Default: true}, Codec: "S_HDMV/PGS"},
		},
		Normalized: &normalize.Instruction{
			SourceIndex: 0, GainDB: 3.5, Codec: "ac3", Bitrate: "640k", Channels: 6,
			Title: "Dolby Digital 5.1 [Sky Mix]", Language: "de",
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var buf strings.Builder
	writePlan(&buf, plan, "ffmpeg")
	out := buf.String()
	requireContains(t, out, "0 (peak)")
	requireContains(t, out, "ac3 @ 640k")
	requireContains(t, out, "default+forced")
	requireContains(t, out, "volume=3.5dB")

	view := newPlanView(plan, "ffmpeg")
	if view.GainDB == nil || *view.GainDB != 3.5 {
		t.Fatalf("unexpected gain in view: %v", view.GainDB)
	}
	if view.Tracks[0].Disposition != "" {
		t.Fatalf("video tracks carry no disposition, got %q", view.Tracks[0].Disposition)
	}
}

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("FFmpeg", statusOK, "/usr/bin/ffmpeg", false)
	if !strings.Contains(line, "FFmpeg:") || !strings.Contains(line, "[OK] /usr/bin/ffmpeg") {
		t.Fatalf("unexpected status line %q", line)
	}
	colored := renderStatusLine("FFmpeg", statusError, "", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected red status line, got %q", colored)
	}
	if got := colorStatus(history.StatusRejected, false); got != "rejected" {
		t.Fatalf("unexpected plain status %q", got)
	}
}

func TestStatusKinds(t *testing.T) {
	tests := []struct {
		name string
		got  statusKind
		want statusKind
	}{
		{"preflight pass", preflightKind(preflight.Result{Name: "FFmpeg", Passed: true, Detail: "/usr/bin/ffmpeg"}), statusOK},
		{"preflight optional", preflightKind(preflight.Result{Name: "MediaInfo", Passed: true, Detail: "optional, not found"}), statusWarn},
		{"preflight fail", preflightKind(preflight.Result{Name: "FFprobe", Passed: false}), statusError},
		{"normalization applying", normalizationKind(normalize.StateApplying), statusOK},
		{"normalization skipped", normalizationKind(normalize.StateSkipped), statusInfo},
		{"normalization failed", normalizationKind(normalize.StateFailed), statusWarn},
		{"outcome succeeded", outcomeKind(history.StatusSucceeded), statusOK},
		{"outcome rejected", outcomeKind(history.StatusRejected), statusWarn},
		{"outcome failed", outcomeKind(history.StatusFailed), statusError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Fatalf("kind = %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestRenderCounts(t *testing.T) {
	counts := map[history.Status]int{
		history.StatusFailed:    1,
		history.StatusSucceeded: 3,
		history.StatusSkipped:   0,
	}
	if got := renderCounts(counts, false); got != "3 succeeded, 1 failed" {
		t.Fatalf("plain counts = %q", got)
	}
	colored := renderCounts(counts, true)
	if !strings.Contains(colored, ansiGreen+"succeeded"+ansiReset) || !strings.Contains(colored, ansiRed+"failed"+ansiReset) {
		t.Fatalf("colored counts = %q", colored)
	}
}

func TestWriteNormalization(t *testing.T) {
	var buf bytes.Buffer
	writeNormalization(&buf, normalize.Decision{State: normalize.StateSkipped, Reason: "peak within target"}, false)
	if !strings.Contains(buf.String(), "Normalization:") || !strings.Contains(buf.String(), "[INFO] skipped, peak within target") {
		t.Fatalf("unexpected normalization line %q", buf.String())
	}
	buf.Reset()
	writeNormalization(&buf, normalize.Decision{State: normalize.StateIdle}, false)
	if buf.Len() != 0 {
		t.Fatalf("decision without reason should print nothing, got %q", buf.String())
	}
}
