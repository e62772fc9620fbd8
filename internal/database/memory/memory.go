// Package memory provides an in-process storage backend. It is used for the
// "memory" STORAGE_BACKEND and as a test double with error injection.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// Backend is a non-durable implementation of database.Backend.
type Backend struct {
	mu         sync.RWMutex
	identities map[string]*database.StoredIdentity
	order      []string
	attendance []database.StoredAttendance

	// Error injection
	SaveIdentityError     error
	ListIdentitiesError   error
	InsertAttendanceError error
	HasAttendanceError    error
	ListAttendanceError   error
}

// NewBackend creates an empty backend.
func NewBackend() *Backend {
	return &Backend{
		identities: make(map[string]*database.StoredIdentity),
	}
}

// SaveIdentity inserts or replaces an identity.
func (b *Backend) SaveIdentity(ctx context.Context, identity database.StoredIdentity) error {
	if b.SaveIdentityError != nil {
		return b.SaveIdentityError
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	identity.Embedding = slices.Clone(identity.Embedding)
	identity.UpdatedAt = now
	if existing, ok := b.identities[identity.PersonID]; ok {
		identity.CreatedAt = existing.CreatedAt
	} else {
		identity.CreatedAt = now
		b.order = append(b.order, identity.PersonID)
	}
	b.identities[identity.PersonID] = &identity
	return nil
}

// ListIdentities returns identities in registration order.
func (b *Backend) ListIdentities(ctx context.Context) ([]database.StoredIdentity, error) {
	if b.ListIdentitiesError != nil {
		return nil, b.ListIdentitiesError
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]database.StoredIdentity, 0, len(b.order))
	for _, id := range b.order {
		identity := *b.identities[id]
		identity.Embedding = slices.Clone(identity.Embedding)
		out = append(out, identity)
	}
	return out, nil
}

// CountIdentities returns the number of identities.
func (b *Backend) CountIdentities(ctx context.Context) (int, error) {
	if b.ListIdentitiesError != nil {
		return 0, b.ListIdentitiesError
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.identities), nil
}

// InsertAttendance appends a record unless (PersonID, Date) already exists.
func (b *Backend) InsertAttendance(ctx context.Context, record database.StoredAttendance) (bool, error) {
	if b.InsertAttendanceError != nil {
		return false, b.InsertAttendanceError
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.hasLocked(record.PersonID, record.Date) {
		return false, nil
	}
	b.attendance = append(b.attendance, record)
	return true, nil
}

// HasAttendance checks if the person has a record on the date.
func (b *Backend) HasAttendance(ctx context.Context, personID, date string) (bool, error) {
	if b.HasAttendanceError != nil {
		return false, b.HasAttendanceError
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.hasLocked(personID, date), nil
}

func (b *Backend) hasLocked(personID, date string) bool {
	for _, r := range b.attendance {
		if r.PersonID == personID && r.Date == date {
			return true
		}
	}
	return false
}

// ListAttendanceByDate returns a day's records ordered by timestamp.
func (b *Backend) ListAttendanceByDate(ctx context.Context, date string) ([]database.StoredAttendance, error) {
	if b.ListAttendanceError != nil {
		return nil, b.ListAttendanceError
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []database.StoredAttendance
	for _, r := range b.attendance {
		if r.Date == date {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// ListAttendanceDates returns all dates with at least one record.
func (b *Backend) ListAttendanceDates(ctx context.Context) ([]string, error) {
	if b.ListAttendanceError != nil {
		return nil, b.ListAttendanceError
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	seen := make(map[string]struct{})
	var dates []string
	for _, r := range b.attendance {
		if _, ok := seen[r.Date]; !ok {
			seen[r.Date] = struct{}{}
			dates = append(dates, r.Date)
		}
	}
	sort.Strings(dates)
	return dates, nil
}

// Close is a no-op.
func (b *Backend) Close() error {
	return nil
}
