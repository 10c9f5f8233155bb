package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/oracle/internal/extractor"
	"github.com/MikeSquared-Agency/oracle/internal/hermes"
	"github.com/MikeSquared-Agency/oracle/internal/segment"
	"github.com/MikeSquared-Agency/oracle/internal/store"
	"github.com/MikeSquared-Agency/oracle/internal/turns"
)

// Publisher is the event hand-off the processor needs from NATS.
type Publisher interface {
	Publish(subject string, data any) error
}

// Processor runs oracle's ingestion pipeline: utterances → chunks →
// entities/outcomes → store. Ingestion is serialized — one source at a
// time — and never shares a code path with the query loops.
type Processor struct {
	store     *store.Store
	extractor *extractor.Extractor
	hermes    Publisher
	segCfg    segment.Config
	logger    *slog.Logger

	mu sync.Mutex // serializes source ingestion
}

func New(s *store.Store, ext *extractor.Extractor, h Publisher, segCfg segment.Config, logger *slog.Logger) *Processor {
	return &Processor{
		store:     s,
		extractor: ext,
		hermes:    h,
		segCfg:    segCfg,
		logger:    logger,
	}
}

// HandleSourceStored is the NATS handler for swarm.oracle.source.stored.
func (p *Processor) HandleSourceStored(subject string, data []byte) {
	ctx := context.Background()

	var evt hermes.SourceStoredEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		p.logger.Error("failed to parse source event", "error", err)
		return
	}

	meta, utts, err := p.parseEvent(evt)
	if err != nil {
		// A malformed source aborts that source only.
		p.logger.Error("failed to parse source", "source_id", evt.SourceID, "error", err)
		return
	}

	chunkIDs, err := p.IngestSource(ctx, utts, meta)
	if err != nil {
		p.logger.Error("ingestion failed", "source_id", meta.ID, "error", err)
		return
	}

	p.logger.Info("source processed", "source_id", meta.ID, "chunks", len(chunkIDs))
}

func (p *Processor) parseEvent(evt hermes.SourceStoredEvent) (segment.SourceMeta, []turns.Utterance, error) {
	meta := segment.SourceMeta{
		Type:  evt.SourceType,
		Title: evt.Title,
	}
	if meta.Type == "" {
		meta.Type = "document"
	}

	id, err := uuid.Parse(evt.SourceID)
	if err != nil {
		return meta, nil, fmt.Errorf("invalid source id %q: %w", evt.SourceID, err)
	}
	meta.ID = id

	if evt.Date != "" {
		date, err := time.Parse("2006-01-02", evt.Date)
		if err != nil {
			return meta, nil, fmt.Errorf("invalid source date %q: %w", evt.Date, err)
		}
		meta.Date = date
	}

	var utts []turns.Utterance
	switch evt.Format {
	case "chat_jsonl":
		utts, err = turns.ParseChatJSONL(strings.NewReader(evt.Content))
		if err != nil {
			return meta, nil, fmt.Errorf("parse chat jsonl: %w", err)
		}
	default:
		utts = turns.ParseTranscript(evt.Content, meta.Date)
	}

	return meta, utts, nil
}

// IngestSource is the ingestion entry point: segments the utterances,
// persists the chunks, extracts entities and outcomes per chunk, and links
// mentions. Returns the created chunk ids. Duplicate sources (by content
// fingerprint) are skipped without error.
func (p *Processor) IngestSource(ctx context.Context, utts []turns.Utterance, meta segment.SourceMeta) ([]uuid.UUID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(utts) == 0 {
		return nil, nil
	}
	if meta.ID == uuid.Nil {
		meta.ID = uuid.New()
	}

	fp := Fingerprint(utts)
	exists, err := p.store.SourceFingerprintExists(ctx, fp)
	if err != nil {
		return nil, fmt.Errorf("fingerprint check: %w", err)
	}
	if exists {
		p.logger.Info("skipping duplicate source", "source_id", meta.ID, "fingerprint", fp[:12])
		return nil, nil
	}

	chunks := segment.Segment(utts, meta, p.segCfg)
	if len(chunks) == 0 {
		return nil, nil
	}

	if err := p.store.InsertSource(ctx, meta, fp); err != nil {
		return nil, fmt.Errorf("insert source: %w", err)
	}
	if err := p.store.InsertChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("insert chunks: %w", err)
	}

	entityCount := 0
	for _, c := range chunks {
		n, err := p.enrichChunk(ctx, c)
		if err != nil {
			// Extraction is best-effort: the chunk is already searchable by
			// full text, so log and move on.
			p.logger.Warn("chunk enrichment failed", "chunk_id", c.ID, "error", err)
			continue
		}
		entityCount += n
	}

	chunkIDs := make([]uuid.UUID, len(chunks))
	for i, c := range chunks {
		chunkIDs[i] = c.ID
	}

	if p.hermes != nil {
		ids := make([]string, len(chunkIDs))
		for i, id := range chunkIDs {
			ids[i] = id.String()
		}
		if err := p.hermes.Publish(hermes.SubjectSourceIngested, hermes.SourceIngestedEvent{
			SourceID: meta.ID.String(),
			ChunkIDs: ids,
			Entities: entityCount,
		}); err != nil {
			p.logger.Warn("failed to publish ingested event", "error", err)
		}
	}

	p.logger.Info("source ingested",
		"source_id", meta.ID,
		"chunks", len(chunkIDs),
		"entities", entityCount,
	)

	return chunkIDs, nil
}

// enrichChunk extracts entities and outcomes from one chunk and persists
// them, returning the number of entities linked.
func (p *Processor) enrichChunk(ctx context.Context, c segment.Chunk) (int, error) {
	if p.extractor == nil {
		return 0, nil
	}

	res, err := p.extractor.Extract(ctx, c.Text)
	if err != nil {
		return 0, fmt.Errorf("extract: %w", err)
	}

	var entityIDs []uuid.UUID
	for _, e := range res.Entities {
		id, err := p.store.UpsertEntity(ctx, store.Entity{
			Name: e.Name,
			Type: e.Type,
			Role: e.Role,
			Org:  e.Org,
		})
		if err != nil {
			return 0, fmt.Errorf("upsert entity %q: %w", e.Name, err)
		}
		entityIDs = append(entityIDs, id)
	}
	if err := p.store.InsertMentions(ctx, c.ID, entityIDs); err != nil {
		return 0, fmt.Errorf("insert mentions: %w", err)
	}

	for _, d := range res.Decisions {
		if _, err := p.store.WriteDecision(ctx, store.Decision{
			ChunkID:     c.ID,
			Description: d.Description,
			Rationale:   d.Rationale,
		}); err != nil {
			return 0, fmt.Errorf("write decision: %w", err)
		}
	}
	for _, a := range res.Actions {
		if _, err := p.store.WriteAction(ctx, store.Action{
			ChunkID:     c.ID,
			Description: a.Description,
			Owner:       a.Owner,
		}); err != nil {
			return 0, fmt.Errorf("write action: %w", err)
		}
	}

	return len(entityIDs), nil
}
