// Package ledger records attendance events: at most one record per person
// per calendar day, append-only, durable across runs.
package ledger

import (
	"context"
	"math"
	"time"
)

// Storage layouts for the date and time-of-day columns.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Outcome reports what a Mark call did.
type Outcome int

const (
	// Marked means a new record was appended.
	Marked Outcome = iota
	// AlreadyMarked means a record for that person and day already existed;
	// nothing was written.
	AlreadyMarked
)

func (o Outcome) String() string {
	switch o {
	case Marked:
		return "marked"
	case AlreadyMarked:
		return "already_marked"
	default:
		return "unknown"
	}
}

// Record is one attendance event.
type Record struct {
	Name       string  `json:"name"`
	Date       string  `json:"date"` // YYYY-MM-DD, local time
	Time       string  `json:"time"` // HH:MM:SS, local time
	Confidence float64 `json:"confidence"`
}

// Ledger is the single owner of the attendance collection. Mark is
// idempotent per (name, calendar day): the first call writes, later calls on
// the same day return AlreadyMarked and keep the first record's values.
type Ledger interface {
	Mark(ctx context.Context, name string, confidence float64, now time.Time) (Outcome, error)
	Records(ctx context.Context) ([]Record, error)
}

// RoundConfidence rounds to 4 decimal digits for stable storage and
// comparison across read/write cycles.
func RoundConfidence(c float64) float64 {
	return math.Round(c*10000) / 10000
}
