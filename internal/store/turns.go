package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// WriteConversationTurn persists one logical exchange turn. The transport
// layer may split the delivered answer into many pieces; exactly one turn is
// recorded per logical answer regardless.
func (s *Store) WriteConversationTurn(ctx context.Context, role, content string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO conversation_turns (id, role, content)
		VALUES ($1, $2, $3)`,
		id, role, content,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert conversation turn: %w", err)
	}
	return id, nil
}

// RecentTurns returns the last n conversation turns, oldest first.
func (s *Store) RecentTurns(ctx context.Context, n int) ([]Turn, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT role, content FROM (
			SELECT role, content, created_at
			FROM conversation_turns
			ORDER BY created_at DESC
			LIMIT $1
		) t ORDER BY created_at ASC`, n)
	if err != nil {
		return nil, fmt.Errorf("recent turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.Role, &t.Content); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Turn is a persisted conversation turn.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}
