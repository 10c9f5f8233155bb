package planner

import (
	"testing"
	"time"
)

var testNow = time.Date(2026, 2, 11, 15, 0, 0, 0, time.UTC)

func testIndex() Index {
	return Index{
		EntityNames: []string{"Germany", "Angela Merkel", "Acme Corp"},
		SourceDates: []time.Time{
			time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestClassify_RecencyPhrasing(t *testing.T) {
	questions := []string{
		"What did we discuss in the last meeting?",
		"Summarize the most recent standup",
		"What happened recently with the migration?",
	}
	for _, q := range questions {
		s := Classify(q, testNow, testIndex())
		if s.Kind != KindRecent {
			t.Errorf("Classify(%q).Kind = %v, want %v", q, s.Kind, KindRecent)
			continue
		}
		want := testNow.AddDate(0, 0, -90)
		if !s.Floor.Equal(want) {
			t.Errorf("Classify(%q).Floor = %v, want %v", q, s.Floor, want)
		}
	}
}

func TestClassify_RecencyBeatsEntity(t *testing.T) {
	// Carries both a recency phrase and a known entity; recency wins.
	s := Classify("What did we say about Germany in the last meeting?", testNow, testIndex())
	if s.Kind != KindRecent {
		t.Errorf("Kind = %v, want %v", s.Kind, KindRecent)
	}
}

func TestClassify_DateScoped_Yesterday(t *testing.T) {
	s := Classify("What was agreed yesterday?", testNow, testIndex())
	if s.Kind != KindDateScoped {
		t.Fatalf("Kind = %v, want %v", s.Kind, KindDateScoped)
	}
	want := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	if !sameDate(s.Date, want) {
		t.Errorf("Date = %v, want %v", s.Date, want)
	}
}

func TestClassify_DateScoped_MonthDay(t *testing.T) {
	s := Classify("Pull up the notes from January 15", testNow, testIndex())
	if s.Kind != KindDateScoped {
		t.Fatalf("Kind = %v, want %v", s.Kind, KindDateScoped)
	}
	if !sameDate(s.Date, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", s.Date)
	}
}

func TestClassify_MonthDayResolvesToPastOccurrence(t *testing.T) {
	// November is after "now" in the calendar year, so it means last November.
	s := Classify("the discussion on November 3rd", testNow, testIndex())
	if s.Kind != KindDateScoped {
		t.Fatalf("Kind = %v, want %v", s.Kind, KindDateScoped)
	}
	if !sameDate(s.Date, time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v, want 2025-11-03", s.Date)
	}
}

func TestClassify_UnknownDateFallsThrough(t *testing.T) {
	// 2026-02-01 parses, but no source carries that date, so the entity rule
	// gets its turn.
	s := Classify("What did Germany report on 2026-02-01?", testNow, testIndex())
	if s.Kind != KindEntityAnchored {
		t.Fatalf("Kind = %v, want %v", s.Kind, KindEntityAnchored)
	}
	if len(s.Entities) != 1 || s.Entities[0] != "Germany" {
		t.Errorf("Entities = %v, want [Germany]", s.Entities)
	}
}

func TestClassify_EntityAnchored(t *testing.T) {
	s := Classify("What do we know about Germany?", testNow, testIndex())
	if s.Kind != KindEntityAnchored {
		t.Fatalf("Kind = %v, want %v", s.Kind, KindEntityAnchored)
	}
	if len(s.Entities) != 1 || s.Entities[0] != "Germany" {
		t.Errorf("Entities = %v, want [Germany]", s.Entities)
	}
}

func TestClassify_MultiWordEntity(t *testing.T) {
	s := Classify("did angela merkel attend?", testNow, testIndex())
	if s.Kind != KindEntityAnchored {
		t.Fatalf("Kind = %v, want %v", s.Kind, KindEntityAnchored)
	}
	if len(s.Entities) != 1 || s.Entities[0] != "Angela Merkel" {
		t.Errorf("Entities = %v, want [Angela Merkel]", s.Entities)
	}
}

func TestClassify_WholeWordEntityMatch(t *testing.T) {
	// "Germanys" must not match the entity "Germany".
	s := Classify("something about Germanys neighbours", testNow, testIndex())
	if s.Kind != KindFullText {
		t.Errorf("Kind = %v, want %v", s.Kind, KindFullText)
	}
}

func TestClassify_FullTextFallback(t *testing.T) {
	q := "how is the budget shaping up"
	s := Classify(q, testNow, testIndex())
	if s.Kind != KindFullText {
		t.Fatalf("Kind = %v, want %v", s.Kind, KindFullText)
	}
	if s.Query != q {
		t.Errorf("Query = %q, want %q", s.Query, q)
	}
}
