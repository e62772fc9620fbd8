package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// AttendanceRepository provides PostgreSQL-backed attendance storage.
// The (person_id, attendance_date) unique constraint makes inserts safe
// across processes sharing the database.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository.
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// InsertAttendance appends a record unless the person already has one on that date.
func (r *AttendanceRepository) InsertAttendance(ctx context.Context, record database.StoredAttendance) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		INSERT INTO attendance (record_id, person_id, name, ts, attendance_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (person_id, attendance_date) DO NOTHING
	`, record.RecordID, record.PersonID, record.Name, record.Timestamp, record.Date)
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
func (r *AttendanceRepository) HasAttendance(ctx context.Context, personID, date string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM attendance WHERE person_id = $1 AND attendance_date = $2)",
		personID, date,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check attendance exists: %w", err)
	}
	return exists, nil
}

// ListAttendanceByDate returns a day's records ordered by timestamp.
func (r *AttendanceRepository) ListAttendanceByDate(ctx context.Context, date string) ([]database.StoredAttendance, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT record_id, person_id, name, ts, attendance_date
		FROM attendance
		WHERE attendance_date = $1
		ORDER BY ts, person_id
	`, date)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	var records []database.StoredAttendance
	for rows.Next() {
		var rec database.StoredAttendance
		if err := rows.Scan(&rec.RecordID, &rec.PersonID, &rec.Name, &rec.Timestamp, &rec.Date); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		rec.Date = strings.TrimSpace(rec.Date)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance: %w", err)
	}
	return records, nil
}

// ListAttendanceDates returns all dates with at least one record.
func (r *AttendanceRepository) ListAttendanceDates(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, "SELECT DISTINCT attendance_date FROM attendance ORDER BY attendance_date")
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
		dates = append(dates, strings.TrimSpace(d))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance dates: %w", err)
	}
	return dates, nil
}
