package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Entity is a canonical named thing linked from chunks. One id per
// (name, type) pair — UpsertEntity merges on that key.
type Entity struct {
	ID   uuid.UUID
	Name string
	Type string // Person | Organization | Country | Topic
	Role string
	Org  string
}

// ErrEntityNotFound is returned by EntityLookup when no entity matches.
var ErrEntityNotFound = errors.New("entity not found")

// UpsertEntity merges an entity on (name, type) and returns its canonical id.
// Role and org are only overwritten when the new values are non-empty.
func (s *Store) UpsertEntity(ctx context.Context, e Entity) (uuid.UUID, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `
		INSERT INTO entities (id, name, entity_type, role, org)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name, entity_type) DO UPDATE SET
			role = CASE WHEN EXCLUDED.role <> '' THEN EXCLUDED.role ELSE entities.role END,
			org  = CASE WHEN EXCLUDED.org <> '' THEN EXCLUDED.org ELSE entities.org END
		RETURNING id`,
		e.ID, e.Name, e.Type, e.Role, e.Org,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upsert entity: %w", err)
	}
	return id, nil
}

// EntityLookup finds an entity by exact name, any type.
func (s *Store) EntityLookup(ctx context.Context, name string) (*Entity, error) {
	var e Entity
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, entity_type, role, org
		FROM entities
		WHERE lower(name) = lower($1)
		ORDER BY entity_type
		LIMIT 1`,
		name,
	).Scan(&e.ID, &e.Name, &e.Type, &e.Role, &e.Org)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEntityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("entity lookup: %w", err)
	}
	return &e, nil
}

// EntityNames returns all canonical entity names, for the planner's
// substring index.
func (s *Store) EntityNames(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT name FROM entities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("entity names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// InsertMentions links a chunk to the entities it references. Mentions are
// created with the chunk and never deleted independently.
func (s *Store) InsertMentions(ctx context.Context, chunkID uuid.UUID, entityIDs []uuid.UUID) error {
	if len(entityIDs) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, eid := range entityIDs {
		_, err := tx.Exec(ctx, `
			INSERT INTO mentions (chunk_id, entity_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			chunkID, eid,
		)
		if err != nil {
			return fmt.Errorf("insert mention: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
