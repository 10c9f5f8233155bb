package assemble

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/oracle/internal/planner"
	"github.com/MikeSquared-Agency/oracle/internal/segment"
	"github.com/MikeSquared-Agency/oracle/internal/store"
)

// Querier is the slice of the Knowledge Store the assembler needs.
type Querier interface {
	FullTextSearch(ctx context.Context, query string, limit int) ([]segment.Chunk, error)
	EntityLookup(ctx context.Context, name string) (*store.Entity, error)
	ChunksByEntity(ctx context.Context, entityID uuid.UUID, limit int) ([]segment.Chunk, error)
	ChunksByDateRange(ctx context.Context, start, end time.Time, limit int) ([]segment.Chunk, error)
	RecentChunks(ctx context.Context, floor time.Time, limit int) ([]segment.Chunk, error)
}

// Context is the assembled retrieval result: the surviving chunks and their
// rendered, source-attributed text block.
type Context struct {
	Chunks []segment.Chunk
	Text   string
}

// Assembler executes a retrieval strategy and packs the results under a
// character budget.
type Assembler struct {
	q Querier
}

func New(q Querier) *Assembler {
	return &Assembler{q: q}
}

// Assemble runs the strategy, deduplicates by chunk id keeping the
// best-ranked occurrence, ranks, truncates to limit, and renders. The
// rendered text never exceeds budget: whole lowest-ranked chunks are dropped
// until it fits or a single chunk remains.
func (a *Assembler) Assemble(ctx context.Context, strat planner.Strategy, limit, budget int) (*Context, error) {
	chunks, err := a.execute(ctx, strat, limit)
	if err != nil {
		return nil, err
	}

	chunks = dedupe(chunks)
	rank(chunks)
	if len(chunks) > limit {
		chunks = chunks[:limit]
	}

	// Budget compliance: drop whole chunks from the bottom, never truncate
	// mid-chunk.
	text := render(chunks)
	for len(text) > budget && len(chunks) > 1 {
		chunks = chunks[:len(chunks)-1]
		text = render(chunks)
	}

	return &Context{Chunks: chunks, Text: text}, nil
}

func (a *Assembler) execute(ctx context.Context, strat planner.Strategy, limit int) ([]segment.Chunk, error) {
	switch strat.Kind {
	case planner.KindRecent:
		return a.q.RecentChunks(ctx, strat.Floor, limit)

	case planner.KindDateScoped:
		return a.q.ChunksByDateRange(ctx, strat.Date, strat.Date, limit)

	case planner.KindEntityAnchored:
		return a.entityFanOut(ctx, strat.Entities, limit)

	case planner.KindFullText:
		return a.q.FullTextSearch(ctx, strat.Query, limit)

	default:
		return nil, fmt.Errorf("unknown strategy kind %q", strat.Kind)
	}
}

// entityFanOut looks up each named entity and fetches its chunks in
// parallel. The lookups are side-effect free, and results are merged by
// entity name, so arrival order does not matter.
func (a *Assembler) entityFanOut(ctx context.Context, names []string, limit int) ([]segment.Chunk, error) {
	results := make([][]segment.Chunk, len(names))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			ent, err := a.q.EntityLookup(gctx, name)
			if errors.Is(err, store.ErrEntityNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("lookup %q: %w", name, err)
			}
			chunks, err := a.q.ChunksByEntity(gctx, ent.ID, limit)
			if err != nil {
				return fmt.Errorf("chunks for %q: %w", name, err)
			}
			results[i] = chunks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Deterministic merge: slot order follows the input name order.
	var merged []segment.Chunk
	for _, chunks := range results {
		merged = append(merged, chunks...)
	}
	return merged, nil
}

// dedupe keeps one occurrence per chunk id. Occurrences are identical rows,
// so the first is as good as any.
func dedupe(chunks []segment.Chunk) []segment.Chunk {
	seen := make(map[uuid.UUID]bool, len(chunks))
	out := chunks[:0]
	for _, c := range chunks {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}

// rank orders chunks by importance desc, source date desc, sequence asc.
// The sort is stable so a larger limit always extends, never reshuffles,
// the prefix returned at a smaller limit.
func rank(chunks []segment.Chunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		a, b := chunks[i], chunks[j]
		if a.Importance != b.Importance {
			return a.Importance > b.Importance
		}
		if !a.SourceDate.Equal(b.SourceDate) {
			return a.SourceDate.After(b.SourceDate)
		}
		return a.Sequence < b.Sequence
	})
}

// render produces the source-attributed context block handed to the model.
// Each chunk carries enough attribution to cite: source type, date, speakers.
func render(chunks []segment.Chunk) string {
	var sb strings.Builder
	for i, c := range chunks {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("[%d] %s", i+1, c.SourceType))
		if !c.SourceDate.IsZero() {
			sb.WriteString(" " + c.SourceDate.Format("2006-01-02"))
		}
		if len(c.Speakers) > 0 {
			sb.WriteString(" — " + strings.Join(c.Speakers, ", "))
		}
		sb.WriteString(fmt.Sprintf(" (%s)\n", c.Type))
		sb.WriteString(c.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}
