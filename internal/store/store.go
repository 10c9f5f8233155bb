package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the Knowledge Store adapter. The pool is shared read-mostly across
// concurrent query loops; only the ingestion pipeline writes.
type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sources (
			id UUID PRIMARY KEY,
			source_type TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			source_date DATE,
			fingerprint TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id UUID PRIMARY KEY,
			source_id UUID NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			sequence INT NOT NULL,
			start_time TIMESTAMPTZ,
			end_time TIMESTAMPTZ,
			speakers TEXT[] NOT NULL DEFAULT '{}',
			chunk_type TEXT NOT NULL,
			importance DOUBLE PRECISION NOT NULL,
			source_type TEXT NOT NULL,
			source_date DATE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (source_id, sequence)
		)`,
		`CREATE INDEX IF NOT EXISTS chunks_content_fts
			ON chunks USING gin (to_tsvector('english', content))`,
		`CREATE INDEX IF NOT EXISTS chunks_source_date ON chunks (source_date)`,
		`CREATE TABLE IF NOT EXISTS entities (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT '',
			org TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (name, entity_type)
		)`,
		`CREATE TABLE IF NOT EXISTS mentions (
			chunk_id UUID NOT NULL REFERENCES chunks(id) ON DELETE CASCADE,
			entity_id UUID NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
			PRIMARY KEY (chunk_id, entity_id)
		)`,
		`CREATE TABLE IF NOT EXISTS decisions (
			id UUID PRIMARY KEY,
			chunk_id UUID NOT NULL REFERENCES chunks(id) ON DELETE CASCADE,
			description TEXT NOT NULL,
			rationale TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS actions (
			id UUID PRIMARY KEY,
			chunk_id UUID NOT NULL REFERENCES chunks(id) ON DELETE CASCADE,
			description TEXT NOT NULL,
			owner TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS conversation_turns (
			id UUID PRIMARY KEY,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
