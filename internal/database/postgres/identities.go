package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// IdentityRepository provides PostgreSQL-backed identity storage.
// The exact float64 embedding lives in a DOUBLE PRECISION[] column; a
// single-precision pgvector copy serves server-side distance queries.
type IdentityRepository struct {
	pool *Pool
}

// NewIdentityRepository creates a new PostgreSQL identity repository.
func NewIdentityRepository(pool *Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

func toVector(embedding []float64) pgvector.Vector {
	v := make([]float32, len(embedding))
	for i, x := range embedding {
		v[i] = float32(x)
	}
	return pgvector.NewVector(v)
}

// SaveIdentity inserts or replaces an identity, keeping its original created_at.
func (r *IdentityRepository) SaveIdentity(ctx context.Context, identity database.StoredIdentity) error {
	query := `
		INSERT INTO identities (person_id, name, embedding, embedding_vec, dim, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (person_id) DO UPDATE SET
			name = EXCLUDED.name,
			embedding = EXCLUDED.embedding,
			embedding_vec = EXCLUDED.embedding_vec,
			dim = EXCLUDED.dim,
			updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query,
		identity.PersonID,
		identity.Name,
		pq.Float64Array(identity.Embedding),
		toVector(identity.Embedding),
		identity.Dim(),
	)
	if err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}

// ListIdentities returns all identities ordered by registration time.
func (r *IdentityRepository) ListIdentities(ctx context.Context) ([]database.StoredIdentity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT person_id, name, embedding, created_at, updated_at
		FROM identities
		ORDER BY created_at, person_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	var identities []database.StoredIdentity
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		identities = append(identities, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return identities, nil
}

// CountIdentities returns the number of enrolled identities.
func (r *IdentityRepository) CountIdentities(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM identities").Scan(&count); err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return count, nil
}

// FindNearestIdentities ranks identities with pgvector's L2 operator.
// Distances are computed in single precision by PostgreSQL.
func (r *IdentityRepository) FindNearestIdentities(
	ctx context.Context, embedding []float64, limit int,
) ([]database.Neighbor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT person_id, name, embedding, created_at, updated_at, embedding_vec <-> $1 AS distance
		FROM identities
		WHERE dim = $3
		ORDER BY embedding_vec <-> $1
		LIMIT $2
	`, toVector(embedding), limit, len(embedding))
	if err != nil {
		return nil, fmt.Errorf("query nearest identities: %w", err)
	}
	defer rows.Close()

	var neighbors []database.Neighbor
	for rows.Next() {
		var n database.Neighbor
		var emb pq.Float64Array
		if err := rows.Scan(
			&n.Identity.PersonID, &n.Identity.Name, &emb,
			&n.Identity.CreatedAt, &n.Identity.UpdatedAt, &n.Distance,
		); err != nil {
			return nil, fmt.Errorf("scan nearest identity: %w", err)
		}
		n.Identity.Embedding = []float64(emb)
		neighbors = append(neighbors, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nearest identities: %w", err)
	}
	return neighbors, nil
}

func scanIdentity(rows *sql.Rows) (database.StoredIdentity, error) {
	var identity database.StoredIdentity
	var emb pq.Float64Array
	if err := rows.Scan(&identity.PersonID, &identity.Name, &emb, &identity.CreatedAt, &identity.UpdatedAt); err != nil {
		return identity, fmt.Errorf("scan identity: %w", err)
	}
	identity.Embedding = []float64(emb)
	return identity, nil
}
