package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// InsertAttendance appends a record unless the person already has one on that date.
func (s *Store) InsertAttendance(ctx context.Context, record database.StoredAttendance) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO attendance (record_id, person_id, name, ts, attendance_date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (person_id, attendance_date) DO NOTHING
	`, record.RecordID, record.PersonID, record.Name, record.Timestamp.UnixNano(), record.Date)
	if err != nil {
		return false, fmt.Errorf("insert attendance: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert attendance rows affected: %w", err)
	}
	return n == 1, nil
}

// HasAttendance checks if the person has a record on the date.
func (s *Store) HasAttendance(ctx context.Context, personID, date string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM attendance WHERE person_id = ? AND attendance_date = ?)",
		personID, date,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check attendance exists: %w", err)
	}
	return exists, nil
}

// ListAttendanceByDate returns a day's records ordered by timestamp.
func (s *Store) ListAttendanceByDate(ctx context.Context, date string) ([]database.StoredAttendance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record_id, person_id, name, ts, attendance_date
		FROM attendance
		WHERE attendance_date = ?
		ORDER BY ts, person_id
	`, date)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	var records []database.StoredAttendance
	for rows.Next() {
		var rec database.StoredAttendance
		var ts int64
		if err := rows.Scan(&rec.RecordID, &rec.PersonID, &rec.Name, &ts, &rec.Date); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		rec.Timestamp = time.Unix(0, ts)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance: %w", err)
	}
	return records, nil
}

// ListAttendanceDates returns all dates with at least one record.
func (s *Store) ListAttendanceDates(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT attendance_date FROM attendance ORDER BY attendance_date")
	if err != nil {
		return nil, fmt.Errorf("query attendance dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan attendance date: %w", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance dates: %w", err)
	}
	return dates, nil
}
