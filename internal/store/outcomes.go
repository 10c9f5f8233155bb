package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Decision is an extracted outcome: something the participants settled.
type Decision struct {
	ID          uuid.UUID
	ChunkID     uuid.UUID
	Description string
	Rationale   string
}

// Action is an extracted outcome with an owner and a mutable status. Status
// transitions happen outside this service; the core only creates actions.
type Action struct {
	ID          uuid.UUID
	ChunkID     uuid.UUID
	Description string
	Owner       string
	Status      string // pending | in_progress | completed
}

func (s *Store) WriteDecision(ctx context.Context, d Decision) (uuid.UUID, error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO decisions (id, chunk_id, description, rationale)
		VALUES ($1, $2, $3, $4)`,
		d.ID, d.ChunkID, d.Description, d.Rationale,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert decision: %w", err)
	}
	return d.ID, nil
}

func (s *Store) WriteAction(ctx context.Context, a Action) (uuid.UUID, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = "pending"
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO actions (id, chunk_id, description, owner, status)
		VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.ChunkID, a.Description, a.Owner, a.Status,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert action: %w", err)
	}
	return a.ID, nil
}

// UpdateActionStatus is called by the external task tracker, never by the
// reasoning loop.
func (s *Store) UpdateActionStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE actions SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update action status: %w", err)
	}
	return nil
}

// DecisionsByChunk returns the decisions extracted from a chunk.
func (s *Store) DecisionsByChunk(ctx context.Context, chunkID uuid.UUID) ([]Decision, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, chunk_id, description, rationale
		FROM decisions WHERE chunk_id = $1
		ORDER BY created_at ASC`, chunkID)
	if err != nil {
		return nil, fmt.Errorf("decisions by chunk: %w", err)
	}
	defer rows.Close()

	var out []Decision
	for rows.Next() {
		var d Decision
		if err := rows.Scan(&d.ID, &d.ChunkID, &d.Description, &d.Rationale); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
