package extractor

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MikeSquared-Agency/oracle/internal/anthropic"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func llmServer(t *testing.T, text string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"content":     []map[string]any{{"type": "text", "text": text}},
			"stop_reason": "end_turn",
		})
	}))
}

func TestExtract_Success(t *testing.T) {
	extraction := Result{
		Entities: []Entity{
			{Name: "Angela Merkel", Type: "Person", Role: "Chancellor", Org: "German government"},
			{Name: "Germany", Type: "Country"},
		},
		Decisions: []Decision{
			{Description: "Adopt the revised trade terms", Rationale: "better tariff position"},
		},
		Actions: []Action{
			{Description: "Circulate the revised draft", Owner: "Bob"},
		},
	}
	payload, _ := json.Marshal(extraction)

	server := llmServer(t, string(payload))
	defer server.Close()

	llm := anthropic.NewClient("test-key", "test-model")
	llm.SetTestTransport(server.URL)

	ext := New(llm, discardLogger())
	result, err := ext.Extract(context.Background(), "Alice: Angela Merkel confirmed Germany accepts the terms")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(result.Entities))
	}
	if result.Entities[0].Name != "Angela Merkel" || result.Entities[0].Type != "Person" {
		t.Errorf("entity 0 = %+v", result.Entities[0])
	}
	if len(result.Decisions) != 1 || result.Decisions[0].Description != "Adopt the revised trade terms" {
		t.Errorf("decisions = %+v", result.Decisions)
	}
	if len(result.Actions) != 1 || result.Actions[0].Owner != "Bob" {
		t.Errorf("actions = %+v", result.Actions)
	}
}

func TestExtract_FencedJSON(t *testing.T) {
	payload, _ := json.Marshal(Result{Entities: []Entity{{Name: "Acme Corp", Type: "Organization"}}})
	server := llmServer(t, "```json\n"+string(payload)+"\n```")
	defer server.Close()

	llm := anthropic.NewClient("test-key", "test-model")
	llm.SetTestTransport(server.URL)

	result, err := New(llm, discardLogger()).Extract(context.Background(), "some chunk")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entities) != 1 || result.Entities[0].Name != "Acme Corp" {
		t.Errorf("entities = %+v", result.Entities)
	}
}

func TestExtract_InvalidJSON(t *testing.T) {
	server := llmServer(t, "this is not json")
	defer server.Close()

	llm := anthropic.NewClient("test-key", "test-model")
	llm.SetTestTransport(server.URL)

	if _, err := New(llm, discardLogger()).Extract(context.Background(), "some chunk"); err == nil {
		t.Fatal("expected error for invalid JSON response")
	}
}

func TestExtract_EmptyLists(t *testing.T) {
	server := llmServer(t, `{"entities":[],"decisions":[],"actions":[]}`)
	defer server.Close()

	llm := anthropic.NewClient("test-key", "test-model")
	llm.SetTestTransport(server.URL)

	result, err := New(llm, discardLogger()).Extract(context.Background(), "idle chit-chat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entities) != 0 || len(result.Decisions) != 0 || len(result.Actions) != 0 {
		t.Errorf("expected empty extraction, got %+v", result)
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"{}", "{}"},
		{"```json\n{}\n```", "{}"},
		{"```\n{}\n```", "{}"},
		{"  {}  ", "{}"},
	}
	for _, c := range cases {
		if got := stripFences(c.in); got != c.want {
			t.Errorf("stripFences(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
