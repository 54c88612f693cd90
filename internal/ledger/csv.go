package ledger

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"
)

var csvHeader = []string{"Name", "Date", "Time", "Confidence"}

// CSV is a file-backed ledger with the legacy attendance.csv layout. Writes
// go through read-full-then-write-full with an atomic rename, guarded by an
// advisory file lock so two processes marking at once cannot lose a record.
type CSV struct {
	path string
	lock *flock.Flock
}

// NewCSV opens (or creates) a CSV ledger at path. A missing file is created
// with the column header so downstream tooling always sees a valid table.
func NewCSV(path string) (*CSV, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	c := &CSV{
		path: path,
		lock: flock.New(path + ".lock"),
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := c.writeAll(nil); err != nil {
			return nil, fmt.Errorf("failed to create ledger: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat ledger: %w", err)
	}

	return c, nil
}

// Mark appends an attendance record unless one already exists for the same
// name and calendar day.
func (c *CSV) Mark(ctx context.Context, name string, confidence float64, now time.Time) (Outcome, error) {
	if err := c.lock.Lock(); err != nil {
		return 0, fmt.Errorf("failed to lock ledger: %w", err)
	}
	defer c.lock.Unlock()

	records, err := c.readAll()
	if err != nil {
		return 0, err
	}

	date := now.Format(DateLayout)
	for _, r := range records {
		if r.Name == name && r.Date == date {
			return AlreadyMarked, nil
		}
	}

	records = append(records, Record{
		Name:       name,
		Date:       date,
		Time:       now.Format(TimeLayout),
		Confidence: RoundConfidence(confidence),
	})

	if err := c.writeAll(records); err != nil {
		return 0, err
	}
	return Marked, nil
}

// Records returns all attendance records in file order.
func (c *CSV) Records(ctx context.Context) ([]Record, error) {
	if err := c.lock.RLock(); err != nil {
		return nil, fmt.Errorf("failed to lock ledger: %w", err)
	}
	defer c.lock.Unlock()

	return c.readAll()
}

func (c *CSV) readAll() ([]Record, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse ledger: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("ledger %s is missing its header row", c.path)
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != len(csvHeader) {
			return nil, fmt.Errorf("ledger row %d has %d columns, expected %d", i+2, len(row), len(csvHeader))
		}
		conf, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return nil, fmt.Errorf("ledger row %d has invalid confidence '%s': %w", i+2, row[3], err)
		}
		records = append(records, Record{
			Name:       row[0],
			Date:       row[1],
			Time:       row[2],
			Confidence: conf,
		})
	}
	return records, nil
}

// writeAll rewrites the whole ledger through a temp file and rename, so a
// crash mid-write never leaves a truncated ledger behind.
func (c *CSV) writeAll(records []Record) error {
	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".attendance-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp ledger: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write ledger header: %w", err)
	}
	for _, r := range records {
		row := []string{r.Name, r.Date, r.Time, strconv.FormatFloat(r.Confidence, 'f', -1, 64)}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write ledger row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp ledger: %w", err)
	}

	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("failed to replace ledger: %w", err)
	}
	return nil
}
