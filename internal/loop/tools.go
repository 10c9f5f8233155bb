package loop

import (
	"encoding/json"
	"fmt"

	"github.com/MikeSquared-Agency/oracle/internal/anthropic"
)

// Tool names. Plan tools are supervisor-only: coordination is never
// delegated, so task status has a single source of truth.
const (
	toolSearchChunks   = "search_chunks"
	toolLookupEntity   = "lookup_entity"
	toolChunksByEntity = "chunks_by_entity"
	toolChunksByDate   = "chunks_by_date"
	toolChunkNeighbors = "chunk_neighbors"
	toolDescribeSchema = "describe_schema"
	toolFetchResult    = "fetch_result"
	toolDelegate       = "delegate_worker"
	toolPlanCreate     = "plan_create"
	toolPlanUpdate     = "plan_update"
	toolPlanRead       = "plan_read"
)

// ToolCall is the validated, tagged-union form of a model tool request.
// Exactly one variant field is non-nil, selected by Name.
type ToolCall struct {
	ID   string
	Name string

	Search    *SearchArgs
	Entity    *EntityArgs
	ByEntity  *ByEntityArgs
	ByDate    *ByDateArgs
	Neighbors *NeighborsArgs
	Fetch     *FetchArgs
	Delegate  *DelegateArgs
	PlanNew   *PlanCreateArgs
	PlanSet   *PlanUpdateArgs
}

type SearchArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type EntityArgs struct {
	Name string `json:"name"`
}

type ByEntityArgs struct {
	Name  string `json:"name"`
	Limit int    `json:"limit"`
}

type ByDateArgs struct {
	Start string `json:"start"` // YYYY-MM-DD
	End   string `json:"end"`
	Limit int    `json:"limit"`
}

type NeighborsArgs struct {
	ChunkID string `json:"chunk_id"`
	Before  int    `json:"before"`
	After   int    `json:"after"`
}

type FetchArgs struct {
	Handle string `json:"handle"`
}

type DelegateArgs struct {
	Instructions []string `json:"instructions"` // one isolated worker per entry
}

type PlanCreateArgs struct {
	Tasks []string `json:"tasks"`
}

type PlanUpdateArgs struct {
	Index  int    `json:"index"`
	Status string `json:"status"`
}

// parseToolCall validates a raw tool request against the fixed argument
// schema for its name. Invalid requests come back as query-syntax errors so
// the loop can hand the model a corrective hint.
func parseToolCall(tu anthropic.ToolUse) (*ToolCall, error) {
	tc := &ToolCall{ID: tu.ID, Name: tu.Name}

	unmarshal := func(v any) error {
		if len(tu.Input) == 0 {
			return nil
		}
		if err := json.Unmarshal(tu.Input, v); err != nil {
			return newError(KindQuerySyntax, fmt.Sprintf("invalid arguments for %s", tu.Name), err)
		}
		return nil
	}

	switch tu.Name {
	case toolSearchChunks:
		args := &SearchArgs{}
		if err := unmarshal(args); err != nil {
			return nil, err
		}
		if args.Query == "" {
			return nil, newError(KindQuerySyntax, "search_chunks requires a non-empty query", nil)
		}
		tc.Search = args

	case toolLookupEntity:
		args := &EntityArgs{}
		if err := unmarshal(args); err != nil {
			return nil, err
		}
		if args.Name == "" {
			return nil, newError(KindQuerySyntax, "lookup_entity requires a name", nil)
		}
		tc.Entity = args

	case toolChunksByEntity:
		args := &ByEntityArgs{}
		if err := unmarshal(args); err != nil {
			return nil, err
		}
		if args.Name == "" {
			return nil, newError(KindQuerySyntax, "chunks_by_entity requires a name", nil)
		}
		tc.ByEntity = args

	case toolChunksByDate:
		args := &ByDateArgs{}
		if err := unmarshal(args); err != nil {
			return nil, err
		}
		if args.Start == "" || args.End == "" {
			return nil, newError(KindQuerySyntax, "chunks_by_date requires start and end (YYYY-MM-DD)", nil)
		}
		tc.ByDate = args

	case toolChunkNeighbors:
		args := &NeighborsArgs{}
		if err := unmarshal(args); err != nil {
			return nil, err
		}
		if args.ChunkID == "" {
			return nil, newError(KindQuerySyntax, "chunk_neighbors requires a chunk_id", nil)
		}
		tc.Neighbors = args

	case toolDescribeSchema:
		// no arguments

	case toolFetchResult:
		args := &FetchArgs{}
		if err := unmarshal(args); err != nil {
			return nil, err
		}
		if args.Handle == "" {
			return nil, newError(KindQuerySyntax, "fetch_result requires a handle", nil)
		}
		tc.Fetch = args

	case toolDelegate:
		args := &DelegateArgs{}
		if err := unmarshal(args); err != nil {
			return nil, err
		}
		if len(args.Instructions) == 0 {
			return nil, newError(KindQuerySyntax, "delegate_worker requires at least one instruction", nil)
		}
		tc.Delegate = args

	case toolPlanCreate:
		args := &PlanCreateArgs{}
		if err := unmarshal(args); err != nil {
			return nil, err
		}
		if len(args.Tasks) == 0 {
			return nil, newError(KindQuerySyntax, "plan_create requires at least one task", nil)
		}
		tc.PlanNew = args

	case toolPlanUpdate:
		args := &PlanUpdateArgs{}
		if err := unmarshal(args); err != nil {
			return nil, err
		}
		switch TaskStatus(args.Status) {
		case TaskPending, TaskInProgress, TaskCompleted, TaskFailed:
		default:
			return nil, newError(KindQuerySyntax,
				fmt.Sprintf("plan_update status must be pending|in_progress|completed|failed, got %q", args.Status), nil)
		}
		tc.PlanSet = args

	case toolPlanRead:
		// no arguments

	default:
		return nil, newError(KindQuerySyntax, fmt.Sprintf("unknown tool %q", tu.Name), nil)
	}

	return tc, nil
}

func intSchema(desc string) map[string]any {
	return map[string]any{"type": "integer", "description": desc}
}

func strSchema(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func objSchema(props map[string]any, required ...string) map[string]any {
	s := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// queryTools is the palette available to both supervisor and workers.
func queryTools() []anthropic.Tool {
	return []anthropic.Tool{
		{
			Name:        toolSearchChunks,
			Description: "Full-text search over stored conversation chunks.",
			InputSchema: objSchema(map[string]any{
				"query": strSchema("search query"),
				"limit": intSchema("max results, default 10"),
			}, "query"),
		},
		{
			Name:        toolLookupEntity,
			Description: "Look up a canonical entity (person, organization, country, topic) by name.",
			InputSchema: objSchema(map[string]any{
				"name": strSchema("entity name"),
			}, "name"),
		},
		{
			Name:        toolChunksByEntity,
			Description: "Fetch chunks that mention a named entity.",
			InputSchema: objSchema(map[string]any{
				"name":  strSchema("entity name"),
				"limit": intSchema("max results, default 10"),
			}, "name"),
		},
		{
			Name:        toolChunksByDate,
			Description: "Fetch chunks from sources dated within a range.",
			InputSchema: objSchema(map[string]any{
				"start": strSchema("start date YYYY-MM-DD"),
				"end":   strSchema("end date YYYY-MM-DD"),
				"limit": intSchema("max results, default 10"),
			}, "start", "end"),
		},
		{
			Name:        toolChunkNeighbors,
			Description: "Fetch the chunks surrounding a chunk in its source, for more context.",
			InputSchema: objSchema(map[string]any{
				"chunk_id": strSchema("chunk UUID"),
				"before":   intSchema("chunks before, default 1"),
				"after":    intSchema("chunks after, default 1"),
			}, "chunk_id"),
		},
		{
			Name:        toolDescribeSchema,
			Description: "Describe the knowledge store's tables and columns.",
			InputSchema: objSchema(map[string]any{}),
		},
		{
			Name:        toolFetchResult,
			Description: "Read a previously offloaded oversized result by its handle.",
			InputSchema: objSchema(map[string]any{
				"handle": strSchema("result handle, e.g. result-3"),
			}, "handle"),
		},
	}
}

// supervisorTools adds plan ownership and delegation on top of the query
// palette. Workers never receive these.
func supervisorTools() []anthropic.Tool {
	tools := queryTools()
	tools = append(tools,
		anthropic.Tool{
			Name:        toolDelegate,
			Description: "Delegate execution-heavy research to isolated workers. Each instruction runs as its own worker; independent sub-goals run concurrently. Workers return bounded summaries.",
			InputSchema: objSchema(map[string]any{
				"instructions": map[string]any{
					"type":        "array",
					"items":       strSchema("scoped instruction for one worker"),
					"description": "one entry per worker",
				},
			}, "instructions"),
		},
		anthropic.Tool{
			Name:        toolPlanCreate,
			Description: "Create the task plan for a multi-step question. Call once, before executing.",
			InputSchema: objSchema(map[string]any{
				"tasks": map[string]any{
					"type":        "array",
					"items":       strSchema("task description"),
					"description": "ordered task list",
				},
			}, "tasks"),
		},
		anthropic.Tool{
			Name:        toolPlanUpdate,
			Description: "Update a plan task's status (1-based index).",
			InputSchema: objSchema(map[string]any{
				"index":  intSchema("task index, 1-based"),
				"status": strSchema("pending | in_progress | completed | failed"),
			}, "index", "status"),
		},
		anthropic.Tool{
			Name:        toolPlanRead,
			Description: "Read the current plan and task statuses.",
			InputSchema: objSchema(map[string]any{}),
		},
	)
	return tools
}
