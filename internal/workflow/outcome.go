package workflow

import (
	"time"

	"muxprep/internal/history"
	"muxprep/internal/normalize"
	"muxprep/internal/remuxplan"
	"muxprep/internal/scanner"
)

// Outcome is the result of processing one file.
type Outcome struct {
	File          scanner.File
	CorrelationID string
	Status        history.Status
	// Stage is where processing stopped; empty on success.
	Stage         string
	Plan          *remuxplan.Plan
	Normalization normalize.Decision
	Err           error
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Duration returns the wall time spent on the file.
func (o Outcome) Duration() time.Duration {
	return o.FinishedAt.Sub(o.StartedAt)
}

// Summary aggregates the outcomes of a batch.
type Summary struct {
	Outcomes []Outcome
	Counts   map[history.Status]int
}

func (s *Summary) add(o Outcome) {
	if s.Counts == nil {
		s.Counts = make(map[history.Status]int)
	}
	s.Outcomes = append(s.Outcomes, o)
	s.Counts[o.Status]++
}

// Failed returns the number of failed or rejected files.
func (s Summary) Failed() int {
	return s.Counts[history.StatusFailed] + s.Counts[history.StatusRejected]
}
