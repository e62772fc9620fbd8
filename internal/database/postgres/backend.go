package postgres

import "context"

// Backend serves identities and attendance from one PostgreSQL pool.
type Backend struct {
	*IdentityRepository
	*AttendanceRepository
	pool *Pool
}

// NewBackend wraps an open pool.
func NewBackend(pool *Pool) *Backend {
	return &Backend{
		IdentityRepository:   NewIdentityRepository(pool),
		AttendanceRepository: NewAttendanceRepository(pool),
		pool:                 pool,
	}
}

// Pool returns the underlying connection pool.
func (b *Backend) Pool() *Pool {
	return b.pool
}

// Close closes the connection pool.
func (b *Backend) Close() error {
	return b.pool.Close()
}

// MigrationsApplied returns the list of applied migrations.
func (b *Backend) MigrationsApplied(ctx context.Context) ([]string, error) {
	return b.pool.MigrationsApplied(ctx)
}
