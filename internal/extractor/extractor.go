package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MikeSquared-Agency/oracle/internal/anthropic"
)

// LLM is the completion capability the extractor consumes.
type LLM interface {
	Complete(ctx context.Context, system string, messages []anthropic.Message, maxTokens int) (string, error)
}

type Extractor struct {
	llm    LLM
	logger *slog.Logger
}

func New(llm LLM, logger *slog.Logger) *Extractor {
	return &Extractor{llm: llm, logger: logger}
}

// Extract runs the LLM over one chunk's text and returns the structured
// entities, decisions, and actions it contains.
func (e *Extractor) Extract(ctx context.Context, chunkText string) (*Result, error) {
	prompt := fmt.Sprintf(userPromptTemplate, chunkText)

	messages := []anthropic.Message{
		{Role: "user", Content: prompt},
	}

	raw, err := e.llm.Complete(ctx, systemPrompt, messages, 4096)
	if err != nil {
		return nil, fmt.Errorf("llm extraction: %w", err)
	}

	var res Result
	if err := json.Unmarshal([]byte(stripFences(raw)), &res); err != nil {
		e.logger.Error("failed to parse extraction response",
			"error", err,
			"raw", raw,
		)
		return nil, fmt.Errorf("parse extraction: %w", err)
	}

	e.logger.Info("extraction complete",
		"entities", len(res.Entities),
		"decisions", len(res.Decisions),
		"actions", len(res.Actions),
	)

	return &res, nil
}

// stripFences removes a markdown code fence if the model wrapped its JSON in
// one.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
