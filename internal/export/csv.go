// Package export writes a day of attendance to CSV files, on demand or on a
// cron schedule.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/kozaktomas/face-attendance/internal/ledger"
)

// TimeLayout is the time-of-day format of the Time column.
const TimeLayout = "15:04:05"

var header = []string{"ID", "Name", "Time", "Date"}

// WriteCSV writes the records with an ID,Name,Time,Date header.
func WriteCSV(w io.Writer, records []ledger.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write([]string{r.ID, r.Name, r.Timestamp.Format(TimeLayout), r.Date}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileName returns the export file name for date.
func FileName(date string) string {
	return fmt.Sprintf("attendance_%s.csv", date)
}

// Exporter writes per-day CSV files into a directory.
type Exporter struct {
	ledger *ledger.Ledger
	dir    string
}

// NewExporter creates an exporter writing into dir.
func NewExporter(l *ledger.Ledger, dir string) *Exporter {
	return &Exporter{ledger: l, dir: dir}
}

// Dir returns the output directory.
func (e *Exporter) Dir() string {
	return e.dir
}

// ExportDay writes the records of date and returns the file path. A day
// without records produces no file and an empty path.
func (e *Exporter) ExportDay(ctx context.Context, date string) (string, error) {
	records, err := e.ledger.RecordsFor(ctx, date)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	path := filepath.Join(e.dir, FileName(date))
	tmp, err := os.CreateTemp(e.dir, ".attendance-*.csv")
	if err != nil {
		return "", fmt.Errorf("creating export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, records); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("moving export into place: %w", err)
	}

	return path, nil
}

// ExportToday exports the current day in the ledger time zone.
func (e *Exporter) ExportToday(ctx context.Context, now time.Time) (string, error) {
	return e.ExportDay(ctx, e.ledger.DateOf(now))
}
