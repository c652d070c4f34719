package history

import "time"

// Status is the outcome recorded for a file.
type Status string

const (
	// StatusSucceeded marks a file remuxed into the output directory.
	StatusSucceeded Status = "succeeded"
	// StatusPlanned marks a dry run that built a plan without executing it.
	StatusPlanned Status = "planned"
	// StatusSkipped marks a file left alone, e.g. already processed.
	StatusSkipped Status = "skipped"
	// StatusRejected marks a file whose content cannot be processed as
	// configured (no video, no allowed audio).
	StatusRejected Status = "rejected"
	// StatusFailed marks tool or I/O failures worth retrying.
	StatusFailed Status = "failed"
)

// Terminal reports whether the status means the file needs no further work.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusRejected
}

// Record is one processed file.
type Record struct {
	ID             int64
	RunID          string
	SourcePath     string
	OutputPath     string
	Status         Status
	Stage          string
	Error          string
	Preset         string
	Normalization  string
	GainDB         float64
	AudioTracks    int
	SubtitleTracks int
	DryRun         bool
	StartedAt      time.Time
	FinishedAt     time.Time
}

// Duration returns how long processing took.
func (r Record) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
