package ledger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestCSV(t *testing.T) (*CSV, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "attendance.csv")
	l, err := NewCSV(path)
	if err != nil {
		t.Fatalf("failed to create ledger: %v", err)
	}
	return l, path
}

func TestNewCSVCreatesHeaderFile(t *testing.T) {
	_, path := newTestCSV(t)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ledger file not created: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "Name,Date,Time,Confidence" {
		t.Errorf("expected header row only, got %q", got)
	}
}

func TestNewCSVCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "attendance.csv")
	if _, err := NewCSV(path); err != nil {
		t.Fatalf("failed to create ledger in nested directory: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("ledger file missing: %v", err)
	}
}

func TestMarkOncePerDay(t *testing.T) {
	l, _ := newTestCSV(t)
	ctx := context.Background()
	morning := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	afternoon := time.Date(2026, 8, 29, 14, 30, 0, 0, time.UTC)

	outcome, err := l.Mark(ctx, "Alice", 0.93, morning)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != Marked {
		t.Errorf("first mark: expected Marked, got %v", outcome)
	}

	outcome, err = l.Mark(ctx, "Alice", 0.99, afternoon)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != AlreadyMarked {
		t.Errorf("second mark same day: expected AlreadyMarked, got %v", outcome)
	}

	records, err := l.Records(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	// The first record wins; the afternoon sighting must not update it.
	r := records[0]
	if r.Name != "Alice" || r.Date != "2026-08-29" || r.Time != "09:00:00" {
		t.Errorf("unexpected record: %+v", r)
	}
	if r.Confidence != 0.93 {
		t.Errorf("expected original confidence 0.93, got %v", r.Confidence)
	}
}

func TestMarkDifferentDays(t *testing.T) {
	l, _ := newTestCSV(t)
	ctx := context.Background()

	day1 := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

	for _, now := range []time.Time{day1, day2} {
		outcome, err := l.Mark(ctx, "Alice", 0.9, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome != Marked {
			t.Errorf("mark on %s: expected Marked, got %v", now.Format(DateLayout), outcome)
		}
	}

	records, err := l.Records(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestMarkDifferentPeopleSameDay(t *testing.T) {
	l, _ := newTestCSV(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)

	for _, name := range []string{"Alice", "Bob", "Carol"} {
		outcome, err := l.Mark(ctx, name, 0.9, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome != Marked {
			t.Errorf("mark for %s: expected Marked, got %v", name, outcome)
		}
	}

	records, err := l.Records(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
}

func TestLedgerPersistsAcrossReopen(t *testing.T) {
	l, path := newTestCSV(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)

	if _, err := l.Mark(ctx, "Alice", 0.95, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reopened, err := NewCSV(path)
	if err != nil {
		t.Fatalf("failed to reopen ledger: %v", err)
	}

	outcome, err := reopened.Mark(ctx, "Alice", 0.99, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != AlreadyMarked {
		t.Errorf("expected AlreadyMarked after reopen, got %v", outcome)
	}

	records, err := reopened.Records(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record after reopen, got %d", len(records))
	}
}

func TestMarkRoundsConfidence(t *testing.T) {
	l, _ := newTestCSV(t)
	ctx := context.Background()

	if _, err := l.Mark(ctx, "Alice", 0.123456789, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := l.Records(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if records[0].Confidence != 0.1235 {
		t.Errorf("expected confidence rounded to 0.1235, got %v", records[0].Confidence)
	}
}

func TestRecordsOnCorruptLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendance.csv")
	if err := os.WriteFile(path, []byte("Name,Date,Time,Confidence\nAlice,2026-08-29,09:00:00,not-a-number\n"), 0o644); err != nil {
		t.Fatalf("failed to seed ledger: %v", err)
	}

	l, err := NewCSV(path)
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}
	if _, err := l.Records(context.Background()); err == nil {
		t.Fatal("expected error for invalid confidence column")
	}
}

func TestRoundConfidence(t *testing.T) {
	tests := []struct {
		in       float64
		expected float64
	}{
		{0.123449, 0.1234},
		{0.123456, 0.1235},
		{1, 1},
		{0, 0},
	}
	for _, tt := range tests {
		if got := RoundConfidence(tt.in); got != tt.expected {
			t.Errorf("RoundConfidence(%v) = %v, expected %v", tt.in, got, tt.expected)
		}
	}
}

func TestOutcomeString(t *testing.T) {
	if Marked.String() != "marked" {
		t.Errorf("unexpected string for Marked: %s", Marked.String())
	}
	if AlreadyMarked.String() != "already_marked" {
		t.Errorf("unexpected string for AlreadyMarked: %s", AlreadyMarked.String())
	}
}
