package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// SaveIdentity inserts or replaces an identity, keeping its original created_at.
func (s *Store) SaveIdentity(ctx context.Context, identity database.StoredIdentity) error {
	now := time.Now().UnixNano()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO identities (person_id, name, embedding, dim, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (person_id) DO UPDATE SET
			name = excluded.name,
			embedding = excluded.embedding,
			dim = excluded.dim,
			updated_at = excluded.updated_at
	`, identity.PersonID, identity.Name, encodeEmbedding(identity.Embedding), identity.Dim(), now, now)
	if err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}

// ListIdentities returns all identities ordered by registration time.
func (s *Store) ListIdentities(ctx context.Context) ([]database.StoredIdentity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT person_id, name, embedding, dim, created_at, updated_at
		FROM identities
		ORDER BY created_at, person_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	var identities []database.StoredIdentity
	for rows.Next() {
		var identity database.StoredIdentity
		var blob []byte
		var dim int
		var created, updated int64
		if err := rows.Scan(&identity.PersonID, &identity.Name, &blob, &dim, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		identity.Embedding, err = decodeEmbedding(blob, dim)
		if err != nil {
			return nil, fmt.Errorf("identity %s: %w", identity.PersonID, err)
		}
		identity.CreatedAt = time.Unix(0, created)
		identity.UpdatedAt = time.Unix(0, updated)
		identities = append(identities, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return identities, nil
}

// CountIdentities returns the number of enrolled identities.
func (s *Store) CountIdentities(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM identities").Scan(&count); err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return count, nil
}
