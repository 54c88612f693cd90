package postgres

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/face-attendance/internal/roster"
)

// RosterStore persists enrolled reference embeddings. Loading returns
// identities sorted by name, matching the sorted file order a directory load
// produces, so tie-breaking stays identical between the two sources.
type RosterStore struct {
	pool *Pool
}

// NewRosterStore creates a roster store backed by the given pool.
func NewRosterStore(pool *Pool) *RosterStore {
	return &RosterStore{pool: pool}
}

// Upsert stores or replaces the embedding for one identity.
func (s *RosterStore) Upsert(ctx context.Context, id roster.Identity, model string) error {
	vec := pgvector.NewVector(id.Embedding)
	_, err := s.pool.db.ExecContext(ctx, `
		INSERT INTO roster (name, normalized_name, embedding, dim, model)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE
		SET normalized_name = EXCLUDED.normalized_name,
		    embedding = EXCLUDED.embedding,
		    dim = EXCLUDED.dim,
		    model = EXCLUDED.model,
		    enrolled_at = NOW()
	`, id.Name, roster.NormalizeName(id.Name), vec, len(id.Embedding), model)
	if err != nil {
		return fmt.Errorf("upsert roster entry for '%s': %w", id.Name, err)
	}
	return nil
}

// LoadIdentities returns all enrolled identities for the given model in name
// order.
func (s *RosterStore) LoadIdentities(ctx context.Context, model string) ([]roster.Identity, error) {
	rows, err := s.pool.db.QueryContext(ctx, `
		SELECT name, embedding
		FROM roster
		WHERE model = $1
		ORDER BY name
	`, model)
	if err != nil {
		return nil, fmt.Errorf("query roster: %w", err)
	}
	defer rows.Close()

	var identities []roster.Identity
	for rows.Next() {
		var name string
		var vec pgvector.Vector
		if err := rows.Scan(&name, &vec); err != nil {
			return nil, fmt.Errorf("scan roster entry: %w", err)
		}
		identities = append(identities, roster.Identity{Name: name, Embedding: vec.Slice()})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roster entries: %w", err)
	}
	return identities, nil
}

// Count returns the number of enrolled identities for the given model.
func (s *RosterStore) Count(ctx context.Context, model string) (int, error) {
	var n int
	err := s.pool.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM roster WHERE model = $1", model).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count roster entries: %w", err)
	}
	return n, nil
}
