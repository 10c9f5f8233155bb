package turns

import (
	"testing"
	"time"
)

func TestParseTranscript_FullTimestamps(t *testing.T) {
	raw := "[2026-02-11 10:04] Alice: let's decide on the budget\n" +
		"[2026-02-11 10:05] Bob: agreed, we'll go with option two\n"

	utts := ParseTranscript(raw, time.Time{})
	if len(utts) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(utts))
	}
	if utts[0].Speaker != "Alice" {
		t.Errorf("speaker = %q, want Alice", utts[0].Speaker)
	}
	want := time.Date(2026, 2, 11, 10, 4, 0, 0, time.UTC)
	if !utts[0].Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", utts[0].Timestamp, want)
	}
	if utts[1].Text != "agreed, we'll go with option two" {
		t.Errorf("text = %q", utts[1].Text)
	}
}

func TestParseTranscript_ClockOnlyAnchorsToBaseDate(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	utts := ParseTranscript("10:04 Alice: morning\n10:05:30 Bob: hi\n", base)

	if len(utts) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(utts))
	}
	if got, want := utts[0].Timestamp, time.Date(2026, 3, 1, 10, 4, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("utterance 0 timestamp = %v, want %v", got, want)
	}
	if got, want := utts[1].Timestamp, time.Date(2026, 3, 1, 10, 5, 30, 0, time.UTC); !got.Equal(want) {
		t.Errorf("utterance 1 timestamp = %v, want %v", got, want)
	}
}

func TestParseTranscript_ContinuationLines(t *testing.T) {
	raw := "Alice: first line\n" +
		"  and this continues the thought\n" +
		"Bob: reply\n"

	utts := ParseTranscript(raw, time.Time{})
	if len(utts) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(utts))
	}
	if utts[0].Text != "first line\nand this continues the thought" {
		t.Errorf("merged text = %q", utts[0].Text)
	}
}

func TestParseTranscript_SpeakerlessLeadingLine(t *testing.T) {
	utts := ParseTranscript("a bare note with no speaker\nAlice: hello\n", time.Time{})
	if len(utts) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(utts))
	}
	if utts[0].Speaker != "" {
		t.Errorf("speaker = %q, want empty", utts[0].Speaker)
	}
	if utts[0].Text != "a bare note with no speaker" {
		t.Errorf("text = %q", utts[0].Text)
	}
}

func TestParseTranscript_IndexesAreSequential(t *testing.T) {
	utts := ParseTranscript("Alice: one\nBob: two\nAlice: three\n", time.Time{})
	for i, u := range utts {
		if u.Index != i {
			t.Errorf("utterance %d has index %d", i, u.Index)
		}
	}
}

func TestParseTranscript_EmptyInput(t *testing.T) {
	if utts := ParseTranscript("", time.Time{}); len(utts) != 0 {
		t.Errorf("expected no utterances, got %d", len(utts))
	}
	if utts := ParseTranscript("\n\n  \n", time.Time{}); len(utts) != 0 {
		t.Errorf("expected no utterances for blank lines, got %d", len(utts))
	}
}
