package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/oracle/internal/segment"
)

const chunkColumns = `id, source_id, content, sequence, start_time, end_time,
	speakers, chunk_type, importance, source_type, source_date`

// InsertSource registers a source and its fingerprint. Chunks cascade-delete
// with their source.
func (s *Store) InsertSource(ctx context.Context, src segment.SourceMeta, fingerprint string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sources (id, source_type, title, source_date, fingerprint)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`,
		src.ID, src.Type, src.Title, dateOrNil(src.Date), fingerprint,
	)
	if err != nil {
		return fmt.Errorf("insert source: %w", err)
	}
	return nil
}

// SourceFingerprintExists reports whether a source with this fingerprint is
// already stored, so the ingest pipeline can skip duplicates.
func (s *Store) SourceFingerprintExists(ctx context.Context, fingerprint string) (bool, error) {
	if fingerprint == "" {
		return false, nil
	}
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM sources WHERE fingerprint = $1)`, fingerprint,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check fingerprint: %w", err)
	}
	return exists, nil
}

// InsertChunks writes all chunks of one source in a single transaction.
func (s *Store) InsertChunks(ctx context.Context, chunks []segment.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, c := range chunks {
		_, err := tx.Exec(ctx, `
			INSERT INTO chunks (id, source_id, content, sequence, start_time, end_time,
				speakers, chunk_type, importance, source_type, source_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			c.ID, c.SourceID, c.Text, c.Sequence, timeOrNil(c.StartTime), timeOrNil(c.EndTime),
			c.Speakers, string(c.Type), c.Importance, c.SourceType, dateOrNil(c.SourceDate),
		)
		if err != nil {
			return fmt.Errorf("insert chunk %d: %w", c.Sequence, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetChunk fetches one chunk by id.
func (s *Store) GetChunk(ctx context.Context, id uuid.UUID) (*segment.Chunk, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE id = $1`, id)
	c, err := scanChunk(row)
	if err != nil {
		return nil, fmt.Errorf("get chunk: %w", err)
	}
	return c, nil
}

// FullTextSearch runs a websearch-syntax full text query over chunk content.
func (s *Store) FullTextSearch(ctx context.Context, query string, limit int) ([]segment.Chunk, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+chunkColumns+`
		FROM chunks
		WHERE to_tsvector('english', content) @@ websearch_to_tsquery('english', $1)
		ORDER BY ts_rank(to_tsvector('english', content), websearch_to_tsquery('english', $1)) DESC,
			importance DESC
		LIMIT $2`,
		query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("full text search: %w", err)
	}
	return collectChunks(rows)
}

// ChunksByEntity returns chunks that mention the given entity.
func (s *Store) ChunksByEntity(ctx context.Context, entityID uuid.UUID, limit int) ([]segment.Chunk, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+chunkColumnsPrefixed("c")+`
		FROM chunks c
		JOIN mentions m ON m.chunk_id = c.id
		WHERE m.entity_id = $1
		ORDER BY c.importance DESC, c.source_date DESC NULLS LAST, c.sequence ASC
		LIMIT $2`,
		entityID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("chunks by entity: %w", err)
	}
	return collectChunks(rows)
}

// ChunksByDateRange returns chunks whose source date falls in [start, end].
func (s *Store) ChunksByDateRange(ctx context.Context, start, end time.Time, limit int) ([]segment.Chunk, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+chunkColumns+`
		FROM chunks
		WHERE source_date >= $1 AND source_date <= $2
		ORDER BY importance DESC, source_date DESC, sequence ASC
		LIMIT $3`,
		start, end, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("chunks by date range: %w", err)
	}
	return collectChunks(rows)
}

// RecentChunks returns chunks from the most recent source date at or after floor.
func (s *Store) RecentChunks(ctx context.Context, floor time.Time, limit int) ([]segment.Chunk, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+chunkColumns+`
		FROM chunks
		WHERE source_date = (
			SELECT max(source_date) FROM chunks
			WHERE $1::date IS NULL OR source_date >= $1
		)
		ORDER BY importance DESC, sequence ASC
		LIMIT $2`,
		dateOrNil(floor), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent chunks: %w", err)
	}
	return collectChunks(rows)
}

// ChunkNeighbors returns the chunks surrounding id within the same source,
// ordered by sequence, the anchor included.
func (s *Store) ChunkNeighbors(ctx context.Context, id uuid.UUID, before, after int) ([]segment.Chunk, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+chunkColumnsPrefixed("c")+`
		FROM chunks c
		JOIN chunks anchor ON anchor.id = $1
		WHERE c.source_id = anchor.source_id
			AND c.sequence BETWEEN anchor.sequence - $2 AND anchor.sequence + $3
		ORDER BY c.sequence ASC`,
		id, before, after,
	)
	if err != nil {
		return nil, fmt.Errorf("chunk neighbors: %w", err)
	}
	return collectChunks(rows)
}

// ListSourceDates returns the distinct source dates in the store, newest first.
func (s *Store) ListSourceDates(ctx context.Context) ([]time.Time, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT source_date FROM chunks
		WHERE source_date IS NOT NULL
		ORDER BY source_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list source dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// DeleteSource removes a source; chunks, mentions, and outcomes cascade.
func (s *Store) DeleteSource(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	return nil
}

func scanChunk(row pgx.Row) (*segment.Chunk, error) {
	var c segment.Chunk
	var chunkType string
	var start, end, srcDate *time.Time
	err := row.Scan(&c.ID, &c.SourceID, &c.Text, &c.Sequence, &start, &end,
		&c.Speakers, &chunkType, &c.Importance, &c.SourceType, &srcDate)
	if err != nil {
		return nil, err
	}
	c.Type = segment.ChunkType(chunkType)
	if start != nil {
		c.StartTime = *start
	}
	if end != nil {
		c.EndTime = *end
	}
	if srcDate != nil {
		c.SourceDate = *srcDate
	}
	return &c, nil
}

func collectChunks(rows pgx.Rows) ([]segment.Chunk, error) {
	defer rows.Close()

	var chunks []segment.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return chunks, nil
}

func chunkColumnsPrefixed(alias string) string {
	return alias + `.id, ` + alias + `.source_id, ` + alias + `.content, ` + alias + `.sequence, ` +
		alias + `.start_time, ` + alias + `.end_time, ` + alias + `.speakers, ` + alias + `.chunk_type, ` +
		alias + `.importance, ` + alias + `.source_type, ` + alias + `.source_date`
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func dateOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
