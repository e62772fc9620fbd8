package database

import (
	"time"
)

// DateLayout is the attendance date format (calendar day, no time).
const DateLayout = "2006-01-02"

// StoredIdentity represents an enrolled person stored in the database
type StoredIdentity struct {
	PersonID  string
	Name      string
	Embedding []float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Dim returns the embedding dimensionality.
func (s StoredIdentity) Dim() int {
	return len(s.Embedding)
}

// StoredAttendance represents one attendance event stored in the database
type StoredAttendance struct {
	RecordID  string // UUID primary key
	PersonID  string
	Name      string
	Timestamp time.Time
	Date      string // YYYY-MM-DD in the ledger time zone
}

// Neighbor is an identity returned by a server-side nearest-neighbor query
type Neighbor struct {
	Identity StoredIdentity
	Distance float64
}
