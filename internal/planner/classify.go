package planner

import (
	"regexp"
	"strings"
	"time"
)

// Index is the lexical routing context: canonical entity names and the
// source dates known to the store.
type Index struct {
	EntityNames []string
	SourceDates []time.Time
}

// Classify routes a question to a retrieval strategy. Rules run in order and
// the first match wins: recency phrasing, resolvable date, entity-name match,
// full-text fallback. Cheap lexical routing keeps generic questions away from
// broad full-text scans that surface boilerplate.
func Classify(question string, now time.Time, idx Index) Strategy {
	if floor, ok := isRecencyQuestion(question, now); ok {
		return Strategy{Kind: KindRecent, Floor: floor}
	}
	if date, ok := resolveDate(question, now, idx.SourceDates); ok {
		return Strategy{Kind: KindDateScoped, Date: date}
	}
	if names := matchEntities(question, idx.EntityNames); len(names) > 0 {
		return Strategy{Kind: KindEntityAnchored, Entities: names}
	}
	return Strategy{Kind: KindFullText, Query: question}
}

var recencyPhrases = []string{
	"last meeting", "latest meeting", "most recent", "recently", "recent",
	"last time", "last session", "latest", "last discussion",
}

// isRecencyQuestion fires on temporal-recency phrasing. The floor is a
// 90-day lookback so "recent" never dredges up ancient sources.
func isRecencyQuestion(question string, now time.Time) (time.Time, bool) {
	lower := strings.ToLower(question)
	for _, p := range recencyPhrases {
		if strings.Contains(lower, p) {
			return now.AddDate(0, 0, -90), true
		}
	}
	return time.Time{}, false
}

var (
	reISODate   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	reMonthDay  = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	reDayMonth  = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(january|february|march|april|may|june|july|august|september|october|november|december)\b`)
	monthByName = map[string]time.Month{
		"january": time.January, "february": time.February, "march": time.March,
		"april": time.April, "may": time.May, "june": time.June, "july": time.July,
		"august": time.August, "september": time.September, "october": time.October,
		"november": time.November, "december": time.December,
	}
)

// resolveDate extracts a date expression and resolves it against the known
// source dates. A date that matches no stored source does not fire — the
// question falls through to the next rule instead of returning nothing.
func resolveDate(question string, now time.Time, known []time.Time) (time.Time, bool) {
	lower := strings.ToLower(question)

	var candidate time.Time
	switch {
	case strings.Contains(lower, "yesterday"):
		candidate = now.AddDate(0, 0, -1)
	case strings.Contains(lower, "today"):
		candidate = now
	default:
		if m := reISODate.FindStringSubmatch(question); m != nil {
			t, err := time.Parse("2006-01-02", m[0])
			if err == nil {
				candidate = t
			}
		} else if m := reMonthDay.FindStringSubmatch(lower); m != nil {
			candidate = monthDayDate(m[1], m[2], now)
		} else if m := reDayMonth.FindStringSubmatch(lower); m != nil {
			candidate = monthDayDate(m[2], m[1], now)
		}
	}

	if candidate.IsZero() {
		return time.Time{}, false
	}
	for _, d := range known {
		if sameDate(d, candidate) {
			return d, true
		}
	}
	return time.Time{}, false
}

func monthDayDate(monthName, day string, now time.Time) time.Time {
	month, ok := monthByName[strings.ToLower(monthName)]
	if !ok {
		return time.Time{}
	}
	d := 0
	for _, r := range day {
		if r < '0' || r > '9' {
			return time.Time{}
		}
		d = d*10 + int(r-'0')
	}
	if d < 1 || d > 31 {
		return time.Time{}
	}
	year := now.Year()
	candidate := time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
	// A month/day without a year means the most recent past occurrence.
	if candidate.After(now) {
		candidate = candidate.AddDate(-1, 0, 0)
	}
	return candidate
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// matchEntities finds canonical entity names appearing in the question as
// whole words, case-insensitive. Multiple matches all anchor the search.
func matchEntities(question string, names []string) []string {
	lower := " " + strings.ToLower(stripPunctuation(question)) + " "

	var matched []string
	for _, name := range names {
		if name == "" {
			continue
		}
		needle := " " + strings.ToLower(name) + " "
		if strings.Contains(lower, needle) {
			matched = append(matched, name)
		}
	}
	return matched
}

func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '?', '!', '.', ',', ';', ':', '"', '\'', '(', ')':
			return ' '
		}
		return r
	}, s)
}
