package history_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"muxprep/internal/history"
	"muxprep/internal/testsupport"
)

func TestRecordAndLookup(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	id, err := store.Record(ctx, history.Record{
		RunID:          "run-1",
		SourcePath:     "/in/movie.mkv",
		OutputPath:     "/out/movie.mkv",
		Status:         history.StatusSucceeded,
		Normalization:  "applied",
		GainDB:         3.5,
		AudioTracks:    2,
		SubtitleTracks: 3,
		StartedAt:      start,
		FinishedAt:     start.Add(90 * time.Second),
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected record ID to be assigned")
	}

	rec, err := store.Lookup(ctx, "/in/movie.mkv")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if rec == nil {
		t.Fatal("expected record")
	}
	if rec.OutputPath != "/out/movie.mkv" || rec.GainDB != 3.5 || rec.AudioTracks != 2 || rec.SubtitleTracks != 3 {
		t.Fatalf("unexpected record: %#v", rec)
	}
	if rec.Duration() != 90*time.Second {
		t.Fatalf("expected 90s duration, got %s", rec.Duration())
	}
	if rec.Stage != "" || rec.Error != "" {
		t.Fatalf("expected empty nullable fields, got stage=%q error=%q", rec.Stage, rec.Error)
	}
}

func TestLookupMissing(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	rec, err := store.Lookup(context.Background(), "/nowhere.mkv")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil record, got %#v", rec)
	}
}

func TestRecordValidation(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	ctx := context.Background()
	if _, err := store.Record(ctx, history.Record{Status: history.StatusFailed}); err == nil {
		t.Fatal("expected error without source path")
	}
	if _, err := store.Record(ctx, history.Record{SourcePath: "/in/a.mkv"}); err == nil {
		t.Fatal("expected error without status")
	}
}

func TestRecentNewestFirst(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"a", "b", "c"} {
		if _, err := store.Record(ctx, history.Record{
			SourcePath: "/in/" + name + ".mkv",
			Status:     history.StatusSucceeded,
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			FinishedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("Record %s failed: %v", name, err)
		}
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recent))
	}
	if recent[0].SourcePath != "/in/c.mkv" || recent[1].SourcePath != "/in/b.mkv" {
		t.Fatalf("unexpected order: %s, %s", recent[0].SourcePath, recent[1].SourcePath)
	}
}

func TestProcessed(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		path   string
		status history.Status
		dryRun bool
		want   bool
	}{
		{name: "succeeded", path: "/in/ok.mkv", status: history.StatusSucceeded, want: true},
		{name: "rejected", path: "/in/rejected.mkv", status: history.StatusRejected, want: true},
		{name: "failed", path: "/in/failed.mkv", status: history.StatusFailed, want: false},
		{name: "dry run", path: "/in/planned.mkv", status: history.StatusPlanned, dryRun: true, want: false},
	}
	for i, tc := range tests {
		if _, err := store.Record(ctx, history.Record{
			SourcePath: tc.path,
			Status:     tc.status,
			DryRun:     tc.dryRun,
			FinishedAt: base.Add(time.Duration(i) * time.Second),
		}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := store.Processed(ctx, tc.path)
			if err != nil {
				t.Fatalf("Processed failed: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Processed(%s) = %v, want %v", tc.path, got, tc.want)
			}
		})
	}

	got, err := store.Processed(ctx, "/in/never.mkv")
	if err != nil || got {
		t.Fatalf("expected unprocessed file, got %v err=%v", got, err)
	}
}

func TestLatestRecordWins(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if _, err := store.Record(ctx, history.Record{SourcePath: "/in/x.mkv", Status: history.StatusFailed, Stage: "remux", Error: "boom", FinishedAt: base}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if _, err := store.Record(ctx, history.Record{SourcePath: "/in/x.mkv", Status: history.StatusSucceeded, FinishedAt: base.Add(time.Hour)}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	rec, err := store.Lookup(ctx, "/in/x.mkv")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if rec.Status != history.StatusSucceeded {
		t.Fatalf("expected latest status, got %s", rec.Status)
	}

	counts, err := store.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if counts[history.StatusFailed] != 1 || counts[history.StatusSucceeded] != 1 {
		t.Fatalf("unexpected counts: %#v", counts)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	path := store.Path()
	if filepath.Base(path) != history.DatabaseName {
		t.Fatalf("unexpected database path %q", path)
	}
	store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("update schema version: %v", err)
	}
	db.Close()

	if _, err := history.Open(cfg); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
