package store

import (
	"context"
	"fmt"
	"strings"
)

// SchemaDescribe returns a human-readable description of the stored tables
// and their columns, for the reasoning loop's schema introspection tool.
func (s *Store) SchemaDescribe(ctx context.Context) (string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT table_name, column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = 'public'
			AND table_name IN ('sources', 'chunks', 'entities', 'mentions',
				'decisions', 'actions', 'conversation_turns')
		ORDER BY table_name, ordinal_position`)
	if err != nil {
		return "", fmt.Errorf("describe schema: %w", err)
	}
	defer rows.Close()

	var sb strings.Builder
	lastTable := ""
	for rows.Next() {
		var table, column, dataType string
		if err := rows.Scan(&table, &column, &dataType); err != nil {
			return "", fmt.Errorf("scan column: %w", err)
		}
		if table != lastTable {
			if lastTable != "" {
				sb.WriteString("\n")
			}
			sb.WriteString(table + ":\n")
			lastTable = table
		}
		sb.WriteString(fmt.Sprintf("  %s %s\n", column, dataType))
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("rows error: %w", err)
	}
	return sb.String(), nil
}
