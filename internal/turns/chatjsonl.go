package turns

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"
)

// chatLine is a single line of a chat-export JSONL stream. Replies reference
// their parent by id — a weak back-reference, never an owning pointer, so
// cyclic threads cannot form ownership cycles.
type chatLine struct {
	Type      string      `json:"type"`
	ID        string      `json:"id"`
	ParentID  *string     `json:"parentId"`
	Timestamp string      `json:"timestamp"`
	Message   chatMessage `json:"message"`
}

type chatMessage struct {
	Role    string          `json:"role"`
	Speaker string          `json:"speaker,omitempty"`
	Content json.RawMessage `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ParseChatJSONL parses a chat-export JSONL stream into ordered utterances.
// Reply chains are followed via parentId; orphaned messages are appended in
// timestamp order. Tool and system roles are skipped. Malformed lines are
// skipped, not fatal.
func ParseChatJSONL(r io.Reader) ([]Utterance, error) {
	byID := make(map[string]*chatLine)
	children := make(map[string]string) // parent id → child id
	var roots []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)
	for scanner.Scan() {
		var line chatLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			continue
		}
		if line.Type != "message" && line.Type != "user" && line.Type != "assistant" {
			continue
		}
		role := line.Message.Role
		if role == "" {
			role = line.Type
		}
		if role != "user" && role != "assistant" {
			continue
		}

		byID[line.ID] = &line
		if line.ParentID == nil || *line.ParentID == "" {
			roots = append(roots, line.ID)
		} else {
			children[*line.ParentID] = line.ID
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if len(byID) == 0 {
		return nil, nil
	}

	// Walk reply chains from each root.
	visited := make(map[string]bool)
	var ordered []*chatLine
	for _, rootID := range roots {
		current := rootID
		for current != "" && !visited[current] {
			line, ok := byID[current]
			if !ok {
				break
			}
			visited[current] = true
			ordered = append(ordered, line)
			current = children[current]
		}
	}

	// Orphans (parent outside the file, broken chains) fall back to timestamp order.
	var orphans []*chatLine
	for id, line := range byID {
		if !visited[id] {
			orphans = append(orphans, line)
		}
	}
	sort.Slice(orphans, func(i, j int) bool {
		return orphans[i].Timestamp < orphans[j].Timestamp
	})
	ordered = append(ordered, orphans...)

	var utts []Utterance
	for _, line := range ordered {
		text := extractText(line.Message.Content)
		if text == "" {
			continue
		}
		ts, _ := time.Parse(time.RFC3339Nano, line.Timestamp)

		speaker := line.Message.Speaker
		if speaker == "" {
			role := line.Message.Role
			if role == "" {
				role = line.Type
			}
			speaker = role
		}

		utts = append(utts, Utterance{
			Speaker:   speaker,
			Timestamp: ts,
			Text:      text,
			Index:     len(utts),
		})
	}

	return utts, nil
}

// extractText pulls text content from a message body that is either a plain
// string or an array of content blocks (text blocks only, tool blocks skipped).
func extractText(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}

	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}

	var text string
	for _, b := range blocks {
		if b.Type == "text" && b.Text != "" {
			if text != "" {
				text += "\n"
			}
			text += b.Text
		}
	}
	return text
}
