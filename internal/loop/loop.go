package loop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/oracle/internal/anthropic"
	"github.com/MikeSquared-Agency/oracle/internal/assemble"
	"github.com/MikeSquared-Agency/oracle/internal/planner"
	"github.com/MikeSquared-Agency/oracle/internal/segment"
	"github.com/MikeSquared-Agency/oracle/internal/store"
)

// State names the reasoning loop's position in its machine.
type State string

const (
	StatePlanning     State = "planning"
	StateExecuting    State = "executing"
	StateObserving    State = "observing"
	StateRetrying     State = "retrying"
	StateSynthesizing State = "synthesizing"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// LLM is the completion capability the loop consumes.
type LLM interface {
	CompleteWithTools(ctx context.Context, system string, messages []anthropic.Message, tools []anthropic.Tool, maxTokens int) (*anthropic.Result, error)
}

// Store is the read-only slice of the Knowledge Store the loop may touch.
// Query loops never mutate store state; ingestion is a separate pipeline.
type Store interface {
	assemble.Querier
	ChunkNeighbors(ctx context.Context, id uuid.UUID, before, after int) ([]segment.Chunk, error)
	SchemaDescribe(ctx context.Context) (string, error)
	EntityNames(ctx context.Context) ([]string, error)
	ListSourceDates(ctx context.Context) ([]time.Time, error)
}

// Config bounds one loop instance.
type Config struct {
	MaxSteps        int           // supervisor tool-call budget
	WorkerMaxSteps  int           // per-worker tool-call budget
	InlineThreshold int           // tool output above this is offloaded
	SummaryMax      int           // worker summary cap, chars
	SyntaxRetryCap  int           // consecutive bad queries from one call site before Failed
	RetryAttempts   int           // transient-failure attempts per call
	CallTimeout     time.Duration // per tool/LLM call
	QueryTimeout    time.Duration // whole query
	ContextLimit    int           // chunks pre-assembled for the question
	TokenBudget     int           // pre-assembled context budget, chars
	MaxTokens       int           // model output budget
}

// DefaultConfig returns the loop defaults.
func DefaultConfig() Config {
	return Config{
		MaxSteps:        12,
		WorkerMaxSteps:  6,
		InlineThreshold: 2000,
		SummaryMax:      1200,
		SyntaxRetryCap:  3,
		RetryAttempts:   3,
		CallTimeout:     45 * time.Second,
		QueryTimeout:    3 * time.Minute,
		ContextLimit:    8,
		TokenBudget:     6000,
		MaxTokens:       2048,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxSteps <= 0 {
		c.MaxSteps = d.MaxSteps
	}
	if c.WorkerMaxSteps <= 0 {
		c.WorkerMaxSteps = d.WorkerMaxSteps
	}
	if c.InlineThreshold <= 0 {
		c.InlineThreshold = d.InlineThreshold
	}
	if c.SummaryMax <= 0 {
		c.SummaryMax = d.SummaryMax
	}
	if c.SyntaxRetryCap <= 0 {
		c.SyntaxRetryCap = d.SyntaxRetryCap
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = d.RetryAttempts
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = d.CallTimeout
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = d.QueryTimeout
	}
	if c.ContextLimit <= 0 {
		c.ContextLimit = d.ContextLimit
	}
	if c.TokenBudget <= 0 {
		c.TokenBudget = d.TokenBudget
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = d.MaxTokens
	}
	return c
}

// Loop answers one question end to end. One instance per query; instances
// share nothing but the read-mostly store.
type Loop struct {
	llm       LLM
	store     Store
	assembler *assemble.Assembler
	cfg       Config
	logger    *slog.Logger

	state       State
	plan        *Plan
	side        *sideStore
	syntaxFails map[string]int // consecutive query-syntax failures per tool
}

// New creates a loop instance for a single query.
func New(llm LLM, st Store, cfg Config, logger *slog.Logger) *Loop {
	return &Loop{
		llm:         llm,
		store:       st,
		assembler:   assemble.New(st),
		cfg:         cfg.withDefaults(),
		logger:      logger,
		state:       StatePlanning,
		side:        newSideStore(),
		syntaxFails: make(map[string]int),
	}
}

// Answer routes the question, assembles initial context, and runs the
// supervisor session until it synthesizes an answer or fails with a typed
// error. The answer is one complete string; delivery splitting is the
// transport layer's concern.
func (l *Loop) Answer(ctx context.Context, question string, history []store.Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.QueryTimeout)
	defer cancel()

	retrieved := l.preAssemble(ctx, question)

	messages := historyMessages(history)
	userContent := question
	if retrieved != "" {
		userContent = fmt.Sprintf("%s\n\nRetrieved context:\n%s", question, retrieved)
	}
	messages = append(messages, anthropic.Message{Role: "user", Content: userContent})

	answer, err := l.run(ctx, supervisorPrompt, messages, supervisorTools(), true, l.cfg.MaxSteps)
	if err != nil {
		l.state = StateFailed
		return "", err
	}
	l.state = StateDone
	return answer, nil
}

// preAssemble routes the question through the retrieval planner and packs an
// initial context block. Failures here degrade to an empty block — the model
// can still reach the store through tools.
func (l *Loop) preAssemble(ctx context.Context, question string) string {
	names, err := l.store.EntityNames(ctx)
	if err != nil {
		l.logger.Warn("entity index unavailable", "error", err)
	}
	dates, err := l.store.ListSourceDates(ctx)
	if err != nil {
		l.logger.Warn("source dates unavailable", "error", err)
	}

	strat := planner.Classify(question, time.Now().UTC(), planner.Index{
		EntityNames: names,
		SourceDates: dates,
	})
	l.logger.Info("question routed", "strategy", string(strat.Kind))

	retrieved, err := l.assembler.Assemble(ctx, strat, l.cfg.ContextLimit, l.cfg.TokenBudget)
	if err != nil {
		l.logger.Warn("context assembly failed", "error", err)
		return ""
	}
	return retrieved.Text
}

// run drives the state machine: Executing issues one model call, Observing
// inspects tool output (offloading oversized results), Synthesizing fires
// once the model stops calling tools and the plan, if any, is fully terminal.
func (l *Loop) run(ctx context.Context, system string, messages []anthropic.Message, tools []anthropic.Tool, supervisor bool, maxSteps int) (string, error) {
	planReminded := false

	for step := 0; step < maxSteps; step++ {
		l.state = StateExecuting

		res, err := l.complete(ctx, system, messages, tools)
		if err != nil {
			return "", err
		}

		if len(res.ToolCalls) == 0 {
			l.state = StateSynthesizing

			// Plan integrity: every task terminal before the final answer.
			if supervisor && l.plan != nil && !l.plan.AllTerminal() {
				if !planReminded {
					planReminded = true
					messages = append(messages,
						anthropic.Message{Role: "assistant", Content: res.Text},
						anthropic.Message{Role: "user", Content: "The plan still has unfinished tasks:\n" + l.plan.String() + "\nFinish or fail each task before answering."},
					)
					continue
				}
				// The reminder was spent: fail the open tasks so the plan
				// still ends terminal and the shortfall is on record.
				failed := l.plan.FailRemaining()
				l.logger.Warn("answering with unfinished plan tasks",
					"tasks_failed", failed,
				)
			}
			if res.Text == "" {
				return "", newError(KindUnavailable, "model returned an empty answer", nil)
			}
			return res.Text, nil
		}

		// Exactly one tool call per step: dispatch the first, bounce the rest.
		blocks := make([]anthropic.ToolResultBlock, 0, len(res.ToolCalls))
		first := res.ToolCalls[0]

		l.state = StateObserving
		output, derr := l.observe(ctx, first, supervisor)
		if derr != nil {
			return "", derr
		}
		blocks = append(blocks, output)

		for _, extra := range res.ToolCalls[1:] {
			blocks = append(blocks, anthropic.ToolResultBlock{
				ToolUseID: extra.ID,
				Content:   "issue exactly one tool call per step; repeat this call on its own",
				IsError:   true,
			})
		}

		messages = append(messages, anthropic.AssistantTurn(res), anthropic.ToolResults(blocks))
	}

	return "", newError(KindTimeout, fmt.Sprintf("step budget (%d) exhausted without an answer", maxSteps), nil)
}

// complete calls the model under the per-call timeout, retrying transient
// failures with bounded backoff.
func (l *Loop) complete(ctx context.Context, system string, messages []anthropic.Message, tools []anthropic.Tool) (*anthropic.Result, error) {
	rcfg := retryConfig{Attempts: l.cfg.RetryAttempts, InitialWait: 500 * time.Millisecond, MaxWait: 8 * time.Second}

	var res *anthropic.Result
	first := true
	err := withRetry(ctx, l.logger, "llm_complete", rcfg, func() error {
		if !first {
			l.state = StateRetrying
		}
		first = false
		cctx, cancel := context.WithTimeout(ctx, l.cfg.CallTimeout)
		defer cancel()
		r, err := l.llm.CompleteWithTools(cctx, system, messages, tools, l.cfg.MaxTokens)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		kind := KindOf(err)
		return nil, newError(kind, "model call failed", err)
	}
	return res, nil
}

// observe validates and dispatches one tool call, then sizes the result:
// small outputs return inline, oversized ones go to the side store and only
// a handle re-enters the context. Query-syntax failures are bounced back to
// the model with a corrective hint up to the cap, then fail the loop.
func (l *Loop) observe(ctx context.Context, tu anthropic.ToolUse, supervisor bool) (anthropic.ToolResultBlock, error) {
	fail := func(err error) (anthropic.ToolResultBlock, error) {
		if KindOf(err) != KindQuerySyntax {
			return anthropic.ToolResultBlock{}, err
		}
		l.syntaxFails[tu.Name]++
		if l.syntaxFails[tu.Name] >= l.cfg.SyntaxRetryCap {
			return anthropic.ToolResultBlock{}, newError(KindQuerySyntax,
				fmt.Sprintf("%s failed %d consecutive times", tu.Name, l.syntaxFails[tu.Name]), err)
		}
		return anthropic.ToolResultBlock{
			ToolUseID: tu.ID,
			Content:   err.Error() + syntaxHint,
			IsError:   true,
		}, nil
	}

	tc, err := parseToolCall(tu)
	if err != nil {
		return fail(err)
	}
	if !supervisor && (tc.Name == toolDelegate || tc.Name == toolPlanCreate ||
		tc.Name == toolPlanUpdate || tc.Name == toolPlanRead) {
		return fail(newError(KindQuerySyntax, fmt.Sprintf("tool %q is not available here", tc.Name), nil))
	}

	output, err := l.dispatch(ctx, tc)
	if err != nil {
		if KindOf(err) == KindQuerySyntax {
			return fail(err)
		}
		return anthropic.ToolResultBlock{}, err
	}
	l.syntaxFails[tu.Name] = 0

	// fetch_result is exempt: offloading a fetch would hand back another
	// handle and the model could never read the content.
	if tc.Name != toolFetchResult && len(output) > l.cfg.InlineThreshold {
		l.logger.Info("offloading oversized tool result",
			"tool", tc.Name,
			"size", len(output),
		)
		output = l.side.offload(output, 100)
	}

	return anthropic.ToolResultBlock{ToolUseID: tu.ID, Content: output}, nil
}

// dispatch executes a validated tool call. Store calls get one extra attempt
// on unavailability before the error propagates.
func (l *Loop) dispatch(ctx context.Context, tc *ToolCall) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, l.cfg.CallTimeout)
	defer cancel()

	storeCall := func(fn func() (string, error)) (string, error) {
		var out string
		rcfg := retryConfig{Attempts: 2, InitialWait: time.Second, MaxWait: 2 * time.Second}
		err := withRetry(cctx, l.logger, tc.Name, rcfg, func() error {
			var ferr error
			out, ferr = fn()
			return ferr
		})
		return out, err
	}

	switch tc.Name {
	case toolSearchChunks:
		return storeCall(func() (string, error) {
			chunks, err := l.store.FullTextSearch(cctx, tc.Search.Query, limitOr(tc.Search.Limit, 10))
			if err != nil {
				return "", classifyStoreErr("full text search", err)
			}
			return formatChunks(chunks), nil
		})

	case toolLookupEntity:
		return storeCall(func() (string, error) {
			ent, err := l.store.EntityLookup(cctx, tc.Entity.Name)
			if errors.Is(err, store.ErrEntityNotFound) {
				return fmt.Sprintf("no entity named %q", tc.Entity.Name), nil
			}
			if err != nil {
				return "", classifyStoreErr("entity lookup", err)
			}
			return fmt.Sprintf("entity %s: %s (%s) role=%q org=%q", ent.ID, ent.Name, ent.Type, ent.Role, ent.Org), nil
		})

	case toolChunksByEntity:
		return storeCall(func() (string, error) {
			ent, err := l.store.EntityLookup(cctx, tc.ByEntity.Name)
			if errors.Is(err, store.ErrEntityNotFound) {
				return fmt.Sprintf("no entity named %q", tc.ByEntity.Name), nil
			}
			if err != nil {
				return "", classifyStoreErr("entity lookup", err)
			}
			chunks, err := l.store.ChunksByEntity(cctx, ent.ID, limitOr(tc.ByEntity.Limit, 10))
			if err != nil {
				return "", classifyStoreErr("chunks by entity", err)
			}
			return formatChunks(chunks), nil
		})

	case toolChunksByDate:
		start, err := time.Parse("2006-01-02", tc.ByDate.Start)
		if err != nil {
			return "", newError(KindQuerySyntax, fmt.Sprintf("bad start date %q", tc.ByDate.Start), err)
		}
		end, err := time.Parse("2006-01-02", tc.ByDate.End)
		if err != nil {
			return "", newError(KindQuerySyntax, fmt.Sprintf("bad end date %q", tc.ByDate.End), err)
		}
		return storeCall(func() (string, error) {
			chunks, err := l.store.ChunksByDateRange(cctx, start, end, limitOr(tc.ByDate.Limit, 10))
			if err != nil {
				return "", classifyStoreErr("chunks by date", err)
			}
			return formatChunks(chunks), nil
		})

	case toolChunkNeighbors:
		id, err := uuid.Parse(tc.Neighbors.ChunkID)
		if err != nil {
			return "", newError(KindQuerySyntax, fmt.Sprintf("bad chunk id %q", tc.Neighbors.ChunkID), err)
		}
		return storeCall(func() (string, error) {
			chunks, err := l.store.ChunkNeighbors(cctx, id, limitOr(tc.Neighbors.Before, 1), limitOr(tc.Neighbors.After, 1))
			if err != nil {
				return "", classifyStoreErr("chunk neighbors", err)
			}
			return formatChunks(chunks), nil
		})

	case toolDescribeSchema:
		return storeCall(func() (string, error) {
			desc, err := l.store.SchemaDescribe(cctx)
			if err != nil {
				return "", classifyStoreErr("schema describe", err)
			}
			return desc, nil
		})

	case toolFetchResult:
		content, ok := l.side.Get(tc.Fetch.Handle)
		if !ok {
			return "", newError(KindQuerySyntax, fmt.Sprintf("no offloaded result %q", tc.Fetch.Handle), nil)
		}
		return content, nil

	case toolDelegate:
		return l.delegate(ctx, tc.Delegate.Instructions)

	case toolPlanCreate:
		if l.plan != nil {
			return "", newError(KindQuerySyntax, "plan already exists; use plan_update", nil)
		}
		l.plan = NewPlan(tc.PlanNew.Tasks)
		l.logger.Info("plan created", "tasks", len(l.plan.Tasks))
		return "plan created:\n" + l.plan.String(), nil

	case toolPlanUpdate:
		if l.plan == nil {
			return "", newError(KindQuerySyntax, "no plan exists; call plan_create first", nil)
		}
		if err := l.plan.SetStatus(tc.PlanSet.Index, TaskStatus(tc.PlanSet.Status)); err != nil {
			return "", newError(KindQuerySyntax, "plan update rejected", err)
		}
		return "plan:\n" + l.plan.String(), nil

	case toolPlanRead:
		if l.plan == nil {
			return "no plan", nil
		}
		return "plan:\n" + l.plan.String(), nil

	default:
		return "", newError(KindQuerySyntax, fmt.Sprintf("unknown tool %q", tc.Name), nil)
	}
}

// classifyStoreErr maps a store failure into the taxonomy. Context deadline
// becomes Timeout; anything else is upstream unavailability.
func classifyStoreErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimeout, op+" timed out", err)
	}
	return newError(KindUnavailable, op+" failed", err)
}

func limitOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func historyMessages(history []store.Turn) []anthropic.Message {
	msgs := make([]anthropic.Message, 0, len(history))
	for _, t := range history {
		role := t.Role
		if role != "user" && role != "assistant" {
			continue
		}
		msgs = append(msgs, anthropic.Message{Role: role, Content: t.Content})
	}
	return msgs
}
