package loop

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/oracle/internal/anthropic"
)

// delegate fans each instruction out to an isolated worker. Workers are
// side-effect free reads, so independent sub-goals run concurrently; their
// summaries are merged in instruction order, never arrival order. A worker
// failure becomes part of the combined summary rather than killing the
// supervisor — the supervisor decides what to do with a gap.
func (l *Loop) delegate(ctx context.Context, instructions []string) (string, error) {
	summaries := make([]string, len(instructions))

	g, gctx := errgroup.WithContext(ctx)
	for i, instruction := range instructions {
		g.Go(func() error {
			summary, err := l.runWorker(gctx, instruction)
			if err != nil {
				if !transient(KindOf(err)) && KindOf(err) != KindTimeout && KindOf(err) != KindQuerySyntax {
					return err
				}
				summary = fmt.Sprintf("worker failed: %s", UserMessage(err))
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var sb strings.Builder
	for i, s := range summaries {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(fmt.Sprintf("worker %d (%s):\n%s", i+1, truncate(instructions[i], 80), s))
	}
	return sb.String(), nil
}

// runWorker executes one scoped instruction in an isolated session: fresh
// message context, query tools only, its own side store, a tighter step
// budget. It returns a bounded-size summary, never raw results.
func (l *Loop) runWorker(ctx context.Context, instruction string) (string, error) {
	w := &Loop{
		llm:         l.llm,
		store:       l.store,
		assembler:   l.assembler,
		cfg:         l.cfg,
		logger:      l.logger.With("role", "worker"),
		state:       StateExecuting,
		side:        newSideStore(),
		syntaxFails: make(map[string]int),
	}

	messages := []anthropic.Message{{Role: "user", Content: instruction}}
	summary, err := w.run(ctx, workerPrompt, messages, queryTools(), false, l.cfg.WorkerMaxSteps)
	if err != nil {
		return "", err
	}
	return truncate(summary, l.cfg.SummaryMax), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
