package segment

import (
	"time"

	"github.com/google/uuid"
)

// ChunkType classifies what a chunk of conversation is about.
type ChunkType string

const (
	TypeDecision   ChunkType = "decision"
	TypeAction     ChunkType = "action_assignment"
	TypeAssessment ChunkType = "assessment"
	TypeQuestion   ChunkType = "question"
	TypeDiscussion ChunkType = "discussion"
)

// SourceMeta describes the document or conversation a chunk came from.
type SourceMeta struct {
	ID    uuid.UUID
	Type  string // "meeting", "chat", "document"
	Title string
	Date  time.Time
}

// Chunk is the atomic retrieval unit: a bounded slice of source text with
// classification and an importance score. Chunks are created once at
// ingestion and never mutated.
type Chunk struct {
	ID         uuid.UUID
	Text       string
	Sequence   int // strictly increasing per source, no gaps
	StartTime  time.Time
	EndTime    time.Time
	Speakers   []string
	Type       ChunkType
	Importance float64 // [0,1]
	SourceID   uuid.UUID
	SourceType string
	SourceDate time.Time
}
