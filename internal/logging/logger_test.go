package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"muxprep/internal/config"
	"muxprep/internal/logging"
	"muxprep/internal/services"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestConsoleLoggerFormatsHeaderAndFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "selection")
	logger.Info("audio selected",
		logging.String(logging.FieldFile, "/in/Show.S01E01.mkv"),
		logging.String(logging.FieldStage, "select"),
		logging.String(logging.FieldCorrelationID, "1f0c9a2b-77aa-4e3b-9d51-0c3e4b7f9a10"),
		logging.Int("kept", 2),
		logging.String("title", "Dolby Digital 5.1"),
	)

	content := readLog(t, logPath)
	for _, fragment := range []string{"INFO  [selection] Show.S01E01.mkv/select #1f0c9a2b: audio selected", "kept=2", `title="Dolby Digital 5.1"`} {
		if !strings.Contains(content, fragment) {
			t.Fatalf("expected %q in %q", fragment, content)
		}
	}
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information at info level, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("with caller")
	if content := readLog(t, logPath); !strings.Contains(content, "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestJSONLoggerRenamesKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("peak analysis failed", logging.String(logging.FieldEventType, "normalization_failed"))

	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record["level"] != "warn" {
		t.Fatalf("unexpected level: %v", record["level"])
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", record)
	}
	if record[logging.FieldEventType] != "normalization_failed" {
		t.Fatalf("unexpected event type: %v", record[logging.FieldEventType])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("run started")

	content := readLog(t, filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if !strings.Contains(content, `"msg":"run started"`) {
		t.Fatalf("expected json record in log file, got %q", content)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "metadata disagreement", "metadata_mismatch",
		logging.String(logging.FieldErrorHint, "verify the forced flag manually"))

	content := readLog(t, logPath)
	for _, fragment := range []string{`"event_type":"metadata_mismatch"`, `"error_hint":"verify the forced flag manually"`, `"impact":`} {
		if !strings.Contains(content, fragment) {
			t.Fatalf("expected %q in %q", fragment, content)
		}
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := services.WithFileID(context.Background(), "/in/movie.mkv")
	ctx = services.WithStage(ctx, "probe")
	ctx = services.WithRequestID(ctx, "run-1")

	fields := logging.ContextFields(ctx)
	if len(fields) != 3 {
		t.Fatalf("expected 3 context fields, got %d", len(fields))
	}
	if fields[0].Key != logging.FieldFile || fields[2].Key != logging.FieldCorrelationID {
		t.Fatalf("unexpected field order: %v", fields)
	}
	if logging.WithContext(context.Background(), nil) == nil {
		t.Fatal("expected non-nil logger for empty context")
	}
}

func TestTeeHandlerCollapsesNil(t *testing.T) {
	if _, ok := logging.TeeHandler(nil, nil).(logging.NoopHandler); !ok {
		t.Fatal("expected noop handler when all handlers are nil")
	}
}
