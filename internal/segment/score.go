package segment

import (
	"strings"
	"unicode"
)

// Weights controls the importance-score mix. The defaults are a tuned
// heuristic, not gospel — deployments override them via config.
type Weights struct {
	Marker  float64 // weight of the chunk-type class
	Density float64 // weight of capitalised-token density
	Length  float64 // weight of buffer-length ratio
}

// DefaultWeights is the mix used when config leaves the weights unset.
var DefaultWeights = Weights{Marker: 0.5, Density: 0.3, Length: 0.2}

// classBase maps a chunk type to its base score contribution.
func classBase(t ChunkType) float64 {
	switch t {
	case TypeDecision:
		return 1.0
	case TypeAction:
		return 0.85
	case TypeAssessment:
		return 0.6
	case TypeQuestion:
		return 0.45
	default:
		return 0.25
	}
}

// Score computes the importance of a chunk as a weighted sum of its
// classification, entity density, and length ratio. Deterministic: identical
// input always yields an identical score.
func Score(t ChunkType, text string, lenRatio float64, w Weights) float64 {
	if w.Marker == 0 && w.Density == 0 && w.Length == 0 {
		w = DefaultWeights
	}
	if lenRatio > 1 {
		lenRatio = 1
	}
	score := w.Marker*classBase(t) + w.Density*entityDensity(text) + w.Length*lenRatio
	return clamp(score)
}

// entityDensity approximates named-entity density as the fraction of tokens
// that are capitalised mid-sentence. Proper extraction happens later in the
// LLM pass; this only needs to be cheap and deterministic.
func entityDensity(text string) float64 {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return 0
	}

	capitalised := 0
	sentenceStart := true
	for _, tok := range tokens {
		trimmed := strings.TrimFunc(tok, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if trimmed == "" {
			continue
		}
		first := []rune(trimmed)[0]
		if unicode.IsUpper(first) && !sentenceStart {
			capitalised++
		}
		sentenceStart = strings.HasSuffix(tok, ".") || strings.HasSuffix(tok, "!") || strings.HasSuffix(tok, "?")
	}

	density := float64(capitalised) / float64(len(tokens))
	// Normalise: ~20% capitalised tokens already counts as entity-heavy.
	return clamp(density * 5)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
