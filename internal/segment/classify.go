package segment

import "strings"

// Marker lexicons, checked in priority order. A decision marker beats an
// action marker beats an assessment marker and so on, regardless of where
// each appears in the text.
var (
	decisionMarkers = []string{
		"decide", "decided", "decision", "let's go with", "we will go with",
		"approved", "agreed", "final call", "settled on", "signing off on",
	}
	actionMarkers = []string{
		"action item", "will take care of", "assigned to", "follow up",
		"to do", "todo", "take ownership", "by next week", "deadline",
		"will handle", "will prepare", "will send",
	}
	assessmentMarkers = []string{
		"i think", "in my view", "assessment", "my impression", "it seems",
		"we believe", "risk is", "concern is", "strength is", "weakness is",
	}
	questionMarkers = []string{
		"?", "what about", "how should", "can we", "should we", "any thoughts",
	}
)

// Classify scans text against the marker lexicons and returns the
// highest-priority chunk type that fires. Default is discussion.
func Classify(text string) ChunkType {
	lower := strings.ToLower(text)

	if containsAny(lower, decisionMarkers) {
		return TypeDecision
	}
	if containsAny(lower, actionMarkers) {
		return TypeAction
	}
	if containsAny(lower, assessmentMarkers) {
		return TypeAssessment
	}
	if containsAny(lower, questionMarkers) {
		return TypeQuestion
	}
	return TypeDiscussion
}

// classRank orders chunk types by marker priority.
func classRank(t ChunkType) int {
	switch t {
	case TypeDecision:
		return 4
	case TypeAction:
		return 3
	case TypeAssessment:
		return 2
	case TypeQuestion:
		return 1
	default:
		return 0
	}
}

// shiftClass returns the strongest shift-capable marker class in text.
// Assessment markers never open a chunk on their own, so they report
// discussion here.
func shiftClass(text string) ChunkType {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, decisionMarkers):
		return TypeDecision
	case containsAny(lower, actionMarkers):
		return TypeAction
	case containsAny(lower, questionMarkers):
		return TypeQuestion
	}
	return TypeDiscussion
}

// topicShiftMarker reports whether text opens a new topic relative to a
// buffer already classified as current. A marker of the same or lower
// priority continues the running topic: "agreed" right after "let's decide"
// extends the decision rather than starting a new one.
func topicShiftMarker(text string, current ChunkType) bool {
	class := shiftClass(text)
	if class == TypeDiscussion {
		return false
	}
	return classRank(class) > classRank(current)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
