package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"muxprep/internal/config"
)

// DatabaseName is the history file inside the state directory.
const DatabaseName = "history.db"

// Store persists processing records in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open initializes or connects to the history database in the state directory.
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("history: nil config")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.StateDir, DatabaseName))
}

// OpenPath opens the database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts a processing record and returns its ID.
func (s *Store) Record(ctx context.Context, rec Record) (int64, error) {
	if strings.TrimSpace(rec.SourcePath) == "" {
		return 0, errors.New("history: source path required")
	}
	if rec.Status == "" {
		return 0, errors.New("history: status required")
	}
	now := time.Now().UTC()
	if rec.StartedAt.IsZero() {
		rec.StartedAt = now
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = now
	}

	var id int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO runs (
                run_id, source_path, output_path, status, stage, error_message, preset,
                normalization, gain_db, audio_tracks, subtitle_tracks, dry_run, started_at, finished_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.RunID,
			rec.SourcePath,
			nullableString(rec.OutputPath),
			string(rec.Status),
			nullableString(rec.Stage),
			nullableString(rec.Error),
			nullableString(rec.Preset),
			nullableString(rec.Normalization),
			rec.GainDB,
			rec.AudioTracks,
			rec.SubtitleTracks,
			boolToInt(rec.DryRun),
			rec.StartedAt.UTC().Format(time.RFC3339Nano),
			rec.FinishedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("insert history record: %w", err)
	}
	return id, nil
}

const selectColumns = `id, run_id, source_path, output_path, status, stage, error_message, preset,
    normalization, gain_db, audio_tracks, subtitle_tracks, dry_run, started_at, finished_at`

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM runs ORDER BY finished_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Lookup returns the latest record for a source path, or nil when the file
// was never processed.
func (s *Store) Lookup(ctx context.Context, sourcePath string) (*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM runs WHERE source_path = ? ORDER BY finished_at DESC, id DESC LIMIT 1`, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("lookup history: %w", err)
	}
	defer rows.Close()
	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// Processed reports whether the latest record for sourcePath is terminal.
func (s *Store) Processed(ctx context.Context, sourcePath string) (bool, error) {
	rec, err := s.Lookup(ctx, sourcePath)
	if err != nil || rec == nil {
		return false, err
	}
	return rec.Status.Terminal() && !rec.DryRun, nil
}

// CountByStatus returns the number of records per status.
func (s *Store) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count history: %w", err)
	}
	defer rows.Close()
	counts := make(map[Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan history count: %w", err)
		}
		counts[Status(status)] = n
	}
	return counts, rows.Err()
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var (
			rec                                          Record
			output, stage, errMsg, preset, normalization sql.NullString
			gain                                         sql.NullFloat64
			status, started, finished                    string
			dryRun                                       int
		)
		if err := rows.Scan(
			&rec.ID, &rec.RunID, &rec.SourcePath, &output, &status, &stage, &errMsg, &preset,
			&normalization, &gain, &rec.AudioTracks, &rec.SubtitleTracks, &dryRun, &started, &finished,
		); err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		rec.OutputPath = output.String
		rec.Status = Status(status)
		rec.Stage = stage.String
		rec.Error = errMsg.String
		rec.Preset = preset.String
		rec.Normalization = normalization.String
		rec.GainDB = gain.Float64
		rec.DryRun = dryRun != 0
		rec.StartedAt = parseTime(started)
		rec.FinishedAt = parseTime(finished)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return records, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
