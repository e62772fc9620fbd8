package database

import (
	"context"
)

// IdentityReader provides read-only access to enrolled identities
type IdentityReader interface {
	// ListIdentities returns every identity, oldest registration first
	ListIdentities(ctx context.Context) ([]StoredIdentity, error)
	// CountIdentities returns the number of enrolled identities
	CountIdentities(ctx context.Context) (int, error)
}

// IdentityWriter provides write access to enrolled identities
type IdentityWriter interface {
	IdentityReader

	// SaveIdentity inserts the identity or replaces the one with the same person ID.
	// The original registration time is kept on replace.
	SaveIdentity(ctx context.Context, identity StoredIdentity) error
}

// NearestFinder is implemented by backends that can rank identities by
// Euclidean distance on the server side
type NearestFinder interface {
	// FindNearestIdentities returns up to limit identities ordered by ascending distance
	FindNearestIdentities(ctx context.Context, embedding []float64, limit int) ([]Neighbor, error)
}

// AttendanceReader provides read-only access to the attendance log
type AttendanceReader interface {
	// HasAttendance reports whether a record exists for the person on the date
	HasAttendance(ctx context.Context, personID, date string) (bool, error)
	// ListAttendanceByDate returns the records of a date ordered by timestamp ascending
	ListAttendanceByDate(ctx context.Context, date string) ([]StoredAttendance, error)
	// ListAttendanceDates returns every date that has at least one record, ascending
	ListAttendanceDates(ctx context.Context) ([]string, error)
}

// AttendanceWriter provides append access to the attendance log
type AttendanceWriter interface {
	AttendanceReader

	// InsertAttendance appends the record unless one already exists for
	// (PersonID, Date). Returns true only when a row was written and committed.
	InsertAttendance(ctx context.Context, record StoredAttendance) (bool, error)
}

// Backend bundles both repositories of one storage engine
type Backend interface {
	IdentityWriter
	AttendanceWriter

	// Close releases the underlying connections
	Close() error
}
