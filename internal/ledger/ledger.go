// Package ledger keeps the attendance log and enforces one record per person
// per calendar day.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-attendance/internal/database"
)

var (
	// ErrLedgerUnavailable wraps failures of the backing repository.
	ErrLedgerUnavailable = errors.New("attendance ledger unavailable")
	// ErrInvalidDate is returned for dates not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("invalid attendance date")
	// ErrInvalidRecord is returned when the person id or name is empty.
	ErrInvalidRecord = errors.New("invalid attendance record")
)

// Record is one attendance event.
type Record struct {
	RecordID  string
	ID        string
	Name      string
	Timestamp time.Time
	Date      string
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLocation sets the time zone calendar days are derived in.
func WithLocation(loc *time.Location) Option {
	return func(l *Ledger) {
		if loc != nil {
			l.loc = loc
		}
	}
}

// WithClock replaces time.Now, used by Today.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// Ledger serializes check-and-insert so concurrent captures of the same person
// on the same day produce a single record.
type Ledger struct {
	repo database.AttendanceWriter
	loc  *time.Location
	now  func() time.Time
	mu   sync.Mutex
}

// New creates a ledger over repo. Days are derived in local time unless
// WithLocation is given.
func New(repo database.AttendanceWriter, opts ...Option) *Ledger {
	l := &Ledger{
		repo: repo,
		loc:  time.Local,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Location returns the time zone used for calendar days.
func (l *Ledger) Location() *time.Location {
	return l.loc
}

// DateOf returns the calendar day of ts in the ledger time zone.
func (l *Ledger) DateOf(ts time.Time) string {
	return ts.In(l.loc).Format(database.DateLayout)
}

// HasRecorded reports whether id already has a record on date.
func (l *Ledger) HasRecorded(ctx context.Context, id, date string) (bool, error) {
	if err := ValidateDate(date); err != nil {
		return false, err
	}
	ok, err := l.repo.HasAttendance(ctx, strings.TrimSpace(id), date)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrLedgerUnavailable, err)
	}
	return ok, nil
}

// Record appends an attendance event for id at ts unless one exists for the
// same day. It returns true only after the repository committed the row.
func (l *Ledger) Record(ctx context.Context, id, name string, ts time.Time) (bool, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" || name == "" {
		return false, fmt.Errorf("%w: id and name are required", ErrInvalidRecord)
	}

	date := l.DateOf(ts)

	l.mu.Lock()
	defer l.mu.Unlock()

	exists, err := l.repo.HasAttendance(ctx, id, date)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrLedgerUnavailable, err)
	}
	if exists {
		return false, nil
	}

	inserted, err := l.repo.InsertAttendance(ctx, database.StoredAttendance{
		RecordID:  uuid.NewString(),
		PersonID:  id,
		Name:      name,
		Timestamp: ts,
		Date:      date,
	})
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrLedgerUnavailable, err)
	}
	return inserted, nil
}

// RecordsFor returns the records of date ordered by timestamp.
func (l *Ledger) RecordsFor(ctx context.Context, date string) ([]Record, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}

	stored, err := l.repo.ListAttendanceByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLedgerUnavailable, err)
	}

	records := make([]Record, len(stored))
	for i, s := range stored {
		records[i] = Record{
			RecordID:  s.RecordID,
			ID:        s.PersonID,
			Name:      s.Name,
			Timestamp: s.Timestamp.In(l.loc),
			Date:      s.Date,
		}
	}
	return records, nil
}

// Today returns the records of the current day.
func (l *Ledger) Today(ctx context.Context) ([]Record, error) {
	return l.RecordsFor(ctx, l.DateOf(l.now()))
}

// Dates returns every day that has at least one record.
func (l *Ledger) Dates(ctx context.Context) ([]string, error) {
	dates, err := l.repo.ListAttendanceDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLedgerUnavailable, err)
	}
	return dates, nil
}

// ValidateDate checks that date is a real calendar day in YYYY-MM-DD form.
func ValidateDate(date string) error {
	if _, err := time.Parse(database.DateLayout, date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return nil
}
