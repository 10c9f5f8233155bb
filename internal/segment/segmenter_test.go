package segment

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/oracle/internal/turns"
)

func testSource() SourceMeta {
	return SourceMeta{
		ID:    uuid.MustParse("f47ac10b-58cc-4372-a567-0e02b2c3d479"),
		Type:  "meeting",
		Title: "weekly sync",
		Date:  time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC),
	}
}

func makeUtterances(n int, gap time.Duration) []turns.Utterance {
	base := time.Date(2026, 2, 11, 10, 0, 0, 0, time.UTC)
	utts := make([]turns.Utterance, n)
	for i := range utts {
		utts[i] = turns.Utterance{
			Speaker:   "Alice",
			Timestamp: base.Add(time.Duration(i) * gap),
			Text:      fmt.Sprintf("this is filler conversation number %d about nothing in particular", i),
			Index:     i,
		}
	}
	return utts
}

func TestSegment_EmptyInput(t *testing.T) {
	if chunks := Segment(nil, testSource(), DefaultConfig()); len(chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}
}

func TestSegment_DecisionTurnYieldsDecisionChunk(t *testing.T) {
	base := time.Date(2026, 2, 11, 10, 0, 0, 0, time.UTC)
	texts := []string{
		"quick status on the migration before we start",
		"the staging run finished last night without trouble",
		"latency looks flat week over week",
		"okay, we've decided to go with option B for the rollout",
		"makes sense, staging numbers back that up",
		"fine by me",
		"moving on to the hiring update then",
	}
	utts := make([]turns.Utterance, len(texts))
	for i, text := range texts {
		utts[i] = turns.Utterance{
			Speaker:   "Alice",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Text:      text,
			Index:     i,
		}
	}

	chunks := Segment(utts, testSource(), DefaultConfig())
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}

	var decision *Chunk
	for i := range chunks {
		if strings.Contains(chunks[i].Text, "option B") {
			decision = &chunks[i]
			break
		}
	}
	if decision == nil {
		t.Fatal("no chunk contains the decision turn")
	}
	if decision.Type != TypeDecision {
		t.Errorf("chunk type = %v, want %v", decision.Type, TypeDecision)
	}
	for _, c := range chunks {
		if c.Type == TypeDiscussion && c.Importance >= decision.Importance {
			t.Errorf("discussion chunk importance %v >= decision chunk %v", c.Importance, decision.Importance)
		}
	}
}

func TestSegment_RespectsMaxChars(t *testing.T) {
	chunks := Segment(makeUtterances(100, time.Second), testSource(), DefaultConfig())
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks for 100 utterances, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c.Text) > defaultMaxChars {
			t.Errorf("chunk %d has %d chars, max is %d", i, len(c.Text), defaultMaxChars)
		}
		if i < len(chunks)-1 && len(c.Text) < defaultMinChars {
			t.Errorf("non-trailing chunk %d has %d chars, min is %d", i, len(c.Text), defaultMinChars)
		}
	}
}

func TestSegment_SplitsOnTimeGap(t *testing.T) {
	base := time.Date(2026, 2, 11, 10, 0, 0, 0, time.UTC)
	cfg := Config{MinChars: 20, MaxChars: 1000, TimeGap: 5 * time.Minute}
	utts := []turns.Utterance{
		{Speaker: "Alice", Timestamp: base, Text: "first topic runs for a bit here", Index: 0},
		{Speaker: "Bob", Timestamp: base.Add(time.Minute), Text: "yes still the first topic", Index: 1},
		// Half an hour later.
		{Speaker: "Alice", Timestamp: base.Add(30 * time.Minute), Text: "entirely new subject after the break", Index: 2},
	}

	chunks := Segment(utts, testSource(), cfg)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks across the gap, got %d", len(chunks))
	}
	if !strings.Contains(chunks[1].Text, "new subject") {
		t.Errorf("second chunk = %q", chunks[1].Text)
	}
}

func TestSegment_SplitsOnLexicalMarker(t *testing.T) {
	cfg := Config{MinChars: 20, MaxChars: 1000, TimeGap: time.Hour}
	utts := []turns.Utterance{
		{Speaker: "Alice", Text: "we talked about the venue for the offsite", Index: 0},
		{Speaker: "Bob", Text: "the catering options were fine overall", Index: 1},
		{Speaker: "Alice", Text: "we decided on the vendor contract terms", Index: 2},
	}

	chunks := Segment(utts, testSource(), cfg)
	if len(chunks) != 2 {
		t.Fatalf("expected marker to open a new chunk, got %d chunks", len(chunks))
	}
	if chunks[1].Type != TypeDecision {
		t.Errorf("second chunk type = %v, want %v", chunks[1].Type, TypeDecision)
	}
}

func TestSegment_AgreementStaysInDecisionChunk(t *testing.T) {
	base := time.Date(2026, 2, 11, 10, 0, 0, 0, time.UTC)
	cfg := Config{MinChars: 10, MaxChars: 1500, TimeGap: time.Hour}
	utts := []turns.Utterance{
		{Speaker: "Alice", Timestamp: base, Text: "let's decide on budget", Index: 0},
		{Speaker: "Bob", Timestamp: base.Add(time.Minute), Text: "agreed, $500", Index: 1},
	}

	chunks := Segment(utts, testSource(), cfg)
	if len(chunks) != 1 {
		t.Fatalf("the agreement continues the decision, got %d chunks", len(chunks))
	}
	if chunks[0].Type != TypeDecision {
		t.Errorf("chunk type = %v, want %v", chunks[0].Type, TypeDecision)
	}
	baseline := Score(TypeDiscussion, chunks[0].Text, float64(len(chunks[0].Text))/float64(cfg.MaxChars), cfg.Weights)
	if chunks[0].Importance <= baseline {
		t.Errorf("decision importance %v not above discussion baseline %v", chunks[0].Importance, baseline)
	}
}

func TestSegment_HigherPriorityMarkerStillSplits(t *testing.T) {
	cfg := Config{MinChars: 20, MaxChars: 1000, TimeGap: time.Hour}
	utts := []turns.Utterance{
		{Speaker: "Alice", Text: "any thoughts on the rollout sequencing here?", Index: 0},
		{Speaker: "Bob", Text: "we decided to ship the first region on Monday", Index: 1},
	}

	chunks := Segment(utts, testSource(), cfg)
	if len(chunks) != 2 {
		t.Fatalf("decision marker must split a question buffer, got %d chunks", len(chunks))
	}
	if chunks[1].Type != TypeDecision {
		t.Errorf("second chunk type = %v, want %v", chunks[1].Type, TypeDecision)
	}
}

func TestSegment_NoSplitBelowMinChars(t *testing.T) {
	cfg := Config{MinChars: 500, MaxChars: 1000, TimeGap: time.Hour}
	utts := []turns.Utterance{
		{Speaker: "Alice", Text: "short opener", Index: 0},
		{Speaker: "Bob", Text: "we decided something big", Index: 1}, // marker, but buffer is tiny
	}

	chunks := Segment(utts, testSource(), cfg)
	if len(chunks) != 1 {
		t.Fatalf("undersized buffer must not split, got %d chunks", len(chunks))
	}
}

func TestSegment_SequentialAndDeterministic(t *testing.T) {
	utts := makeUtterances(50, time.Second)

	first := Segment(utts, testSource(), DefaultConfig())
	second := Segment(utts, testSource(), DefaultConfig())
	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Sequence != i {
			t.Errorf("chunk %d has sequence %d", i, first[i].Sequence)
		}
		if first[i].ID != second[i].ID {
			t.Errorf("chunk %d id differs between runs: %s vs %s", i, first[i].ID, second[i].ID)
		}
		if first[i].Importance != second[i].Importance {
			t.Errorf("chunk %d importance differs between runs", i)
		}
	}
}

func TestSegment_CollectsSpeakers(t *testing.T) {
	cfg := Config{MinChars: 10, MaxChars: 5000, TimeGap: time.Hour}
	utts := []turns.Utterance{
		{Speaker: "Bob", Text: "some opening remarks about the quarter", Index: 0},
		{Speaker: "Alice", Text: "a response with more remarks in it", Index: 1},
		{Speaker: "Bob", Text: "closing out the thread here", Index: 2},
	}

	chunks := Segment(utts, testSource(), cfg)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	got := chunks[0].Speakers
	if len(got) != 2 || got[0] != "Alice" || got[1] != "Bob" {
		t.Errorf("speakers = %v, want [Alice Bob]", got)
	}
}
