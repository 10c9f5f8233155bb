package segment

import "testing"

func TestScore_Deterministic(t *testing.T) {
	text := "Alice: we agreed to ship the Berlin release on Friday"
	a := Score(TypeDecision, text, 0.8, DefaultWeights)
	b := Score(TypeDecision, text, 0.8, DefaultWeights)
	if a != b {
		t.Errorf("same input scored %v then %v", a, b)
	}
}

func TestScore_DecisionOutranksDiscussion(t *testing.T) {
	text := "same text either way"
	dec := Score(TypeDecision, text, 0.5, DefaultWeights)
	disc := Score(TypeDiscussion, text, 0.5, DefaultWeights)
	if dec <= disc {
		t.Errorf("decision %v should outrank discussion %v", dec, disc)
	}
}

func TestScore_WithinUnitRange(t *testing.T) {
	cases := []struct {
		typ      ChunkType
		text     string
		lenRatio float64
	}{
		{TypeDecision, "Alice Bob Carol Dave Eve Frank met in Berlin with Angela", 1.0},
		{TypeDiscussion, "", 0},
		{TypeDecision, "x", 5.0}, // over-long ratio must still clamp
	}
	for _, c := range cases {
		got := Score(c.typ, c.text, c.lenRatio, DefaultWeights)
		if got < 0 || got > 1 {
			t.Errorf("Score(%v, %q, %v) = %v, outside [0,1]", c.typ, c.text, c.lenRatio, got)
		}
	}
}

func TestScore_ZeroWeightsFallBackToDefaults(t *testing.T) {
	got := Score(TypeDecision, "plain text", 0.5, Weights{})
	want := Score(TypeDecision, "plain text", 0.5, DefaultWeights)
	if got != want {
		t.Errorf("zero weights scored %v, defaults scored %v", got, want)
	}
}

func TestEntityDensity_CapitalisedMidSentence(t *testing.T) {
	dense := entityDensity("we met Angela Merkel in Berlin near the Brandenburg Gate")
	sparse := entityDensity("we met some people in a city near a gate somewhere")
	if dense <= sparse {
		t.Errorf("entity-heavy text %v should exceed plain text %v", dense, sparse)
	}
}

func TestEntityDensity_SentenceStartNotCounted(t *testing.T) {
	// Every capital here opens a sentence, so none count as entities.
	if got := entityDensity("Yes. No. Maybe."); got != 0 {
		t.Errorf("entityDensity = %v, want 0", got)
	}
}
