package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const apiURL = "https://api.anthropic.com/v1/messages"

type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: apiURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// SetTestTransport points the client at a test server.
func (c *Client) SetTestTransport(url string) {
	c.baseURL = url
}

// Message is one turn in the conversation sent to the model. Content is
// either a plain string or a slice of content blocks (tool results).
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// Tool describes a callable tool advertised to the model.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolUse is a tool invocation requested by the model.
type ToolUse struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResultBlock carries a tool's output back to the model.
type ToolResultBlock struct {
	Type      string `json:"type"` // always "tool_result"
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
	IsError   bool   `json:"is_error,omitempty"`
}

// Result is the model's reply: text, any requested tool calls, and the stop
// reason ("end_turn" or "tool_use").
type Result struct {
	Text       string
	ToolCalls  []ToolUse
	StopReason string
	Raw        []contentOut // full content blocks, needed to echo the assistant turn back
}

// APIError is a non-2xx reply from the API, typed so callers can distinguish
// transient failures from fatal ones.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s — %s", e.Status, e.Type, e.Message)
}

// IsRateLimited reports whether the error is a 429-class rate limit.
func (e *APIError) IsRateLimited() bool {
	return e.Status == http.StatusTooManyRequests || e.Status == 529
}

// IsTransient reports whether the call is worth retrying.
func (e *APIError) IsTransient() bool {
	return e.IsRateLimited() || e.Status >= 500
}

type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
	Tools     []Tool    `json:"tools,omitempty"`
}

type contentOut struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type response struct {
	Content    []contentOut `json:"content"`
	StopReason string       `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends a plain completion request and returns the text response.
func (c *Client) Complete(ctx context.Context, system string, messages []Message, maxTokens int) (string, error) {
	res, err := c.CompleteWithTools(ctx, system, messages, nil, maxTokens)
	if err != nil {
		return "", err
	}
	if res.Text == "" {
		return "", fmt.Errorf("empty response content")
	}
	return res.Text, nil
}

// CompleteWithTools sends a completion request with a tool palette. The model
// either answers in text or requests one or more tool calls.
func (c *Client) CompleteWithTools(ctx context.Context, system string, messages []Message, tools []Tool, maxTokens int) (*Result, error) {
	reqBody := request{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  messages,
		Tools:     tools,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode}
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil {
			apiErr.Type = errResp.Error.Type
			apiErr.Message = errResp.Error.Message
		} else {
			apiErr.Message = string(respBody)
		}
		return nil, apiErr
	}

	var apiResp response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	res := &Result{StopReason: apiResp.StopReason, Raw: apiResp.Content}
	for _, block := range apiResp.Content {
		switch block.Type {
		case "text":
			if res.Text != "" {
				res.Text += "\n"
			}
			res.Text += block.Text
		case "tool_use":
			res.ToolCalls = append(res.ToolCalls, ToolUse{
				ID:    block.ID,
				Name:  block.Name,
				Input: block.Input,
			})
		}
	}

	return res, nil
}

// AssistantTurn rebuilds the assistant message for a prior result so it can
// be appended to the conversation before the tool results.
func AssistantTurn(res *Result) Message {
	return Message{Role: "assistant", Content: res.Raw}
}

// ToolResults wraps tool outputs as a user turn.
func ToolResults(blocks []ToolResultBlock) Message {
	content := make([]any, len(blocks))
	for i, b := range blocks {
		b.Type = "tool_result"
		content[i] = b
	}
	return Message{Role: "user", Content: content}
}
