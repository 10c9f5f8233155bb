package ingest

import (
	"testing"
	"time"

	"github.com/MikeSquared-Agency/oracle/internal/turns"
)

func TestFingerprint_StableForSameContent(t *testing.T) {
	base := time.Date(2026, 2, 11, 10, 0, 0, 0, time.UTC)
	utts := []turns.Utterance{
		{Speaker: "Alice", Timestamp: base, Text: "opening remarks"},
		{Speaker: "Bob", Timestamp: base.Add(time.Minute), Text: "a reply"},
	}

	if Fingerprint(utts) != Fingerprint(utts) {
		t.Error("same utterances must fingerprint identically")
	}
}

func TestFingerprint_DiffersByContent(t *testing.T) {
	base := time.Date(2026, 2, 11, 10, 0, 0, 0, time.UTC)
	a := []turns.Utterance{{Speaker: "Alice", Timestamp: base, Text: "topic one"}}
	b := []turns.Utterance{{Speaker: "Alice", Timestamp: base, Text: "topic two"}}

	if Fingerprint(a) == Fingerprint(b) {
		t.Error("different texts must fingerprint differently")
	}
}

func TestFingerprint_DiffersByTimestamps(t *testing.T) {
	text := "same words both times"
	a := []turns.Utterance{{Text: text, Timestamp: time.Date(2026, 2, 11, 10, 0, 0, 0, time.UTC)}}
	b := []turns.Utterance{{Text: text, Timestamp: time.Date(2026, 2, 12, 10, 0, 0, 0, time.UTC)}}

	if Fingerprint(a) == Fingerprint(b) {
		t.Error("different session times must fingerprint differently")
	}
}

func TestFingerprint_EmptyInput(t *testing.T) {
	if Fingerprint(nil) != "" {
		t.Error("empty input has no fingerprint")
	}
}
