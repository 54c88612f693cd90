package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/ledger"
)

// Ledger is the PostgreSQL implementation of ledger.Ledger. Idempotence is
// enforced by the (name, date) primary key, so concurrent writers cannot
// produce duplicate records.
type Ledger struct {
	pool *Pool
}

// NewLedger creates a ledger backed by the given pool.
func NewLedger(pool *Pool) *Ledger {
	return &Ledger{pool: pool}
}

// Mark inserts an attendance record unless one exists for the same name and
// calendar day. The existing record always wins.
func (l *Ledger) Mark(ctx context.Context, name string, confidence float64, now time.Time) (ledger.Outcome, error) {
	res, err := l.pool.db.ExecContext(ctx, `
		INSERT INTO attendance (name, date, time, confidence)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name, date) DO NOTHING
	`, name, now.Format(ledger.DateLayout), now.Format(ledger.TimeLayout), ledger.RoundConfidence(confidence))
	if err != nil {
		return 0, fmt.Errorf("insert attendance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("attendance rows affected: %w", err)
	}
	if affected == 0 {
		return ledger.AlreadyMarked, nil
	}
	return ledger.Marked, nil
}

// Records returns all attendance records ordered by day and time-of-day.
func (l *Ledger) Records(ctx context.Context) ([]ledger.Record, error) {
	rows, err := l.pool.db.QueryContext(ctx, `
		SELECT name, to_char(date, 'YYYY-MM-DD'), to_char(time, 'HH24:MI:SS'), confidence
		FROM attendance
		ORDER BY date, time, name
	`)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	var records []ledger.Record
	for rows.Next() {
		var r ledger.Record
		if err := rows.Scan(&r.Name, &r.Date, &r.Time, &r.Confidence); err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}
	return records, nil
}
