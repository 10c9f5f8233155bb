package turns

import "time"

// Utterance is a single attributed turn in a source document or conversation.
type Utterance struct {
	Speaker   string
	Timestamp time.Time
	Text      string
	Index     int
}
