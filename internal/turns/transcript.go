package turns

import (
	"bufio"
	"regexp"
	"strings"
	"time"
)

// Transcript line shapes we accept, most specific first:
//
//	[2026-02-11 10:04] Alice: let's decide on the budget
//	10:04:31 Alice: let's decide on the budget
//	10:04 Alice: let's decide on the budget
//	Alice: let's decide on the budget
var (
	reFullStamp  = regexp.MustCompile(`^\[(\d{4}-\d{2}-\d{2}) (\d{2}:\d{2}(?::\d{2})?)\]\s+([^:]+):\s*(.*)$`)
	reClockStamp = regexp.MustCompile(`^(\d{1,2}:\d{2}(?::\d{2})?)\s+([^:]+):\s*(.*)$`)
	reSpeaker    = regexp.MustCompile(`^([A-Za-z][\w .'-]{0,40}):\s+(.*)$`)
)

// ParseTranscript splits raw transcript text into attributed utterances.
// Lines that carry no recognisable speaker prefix continue the previous
// utterance, or become a speakerless utterance when there is none. Clock-only
// timestamps are anchored to baseDate. Malformed input never errors; empty
// input yields an empty slice.
func ParseTranscript(raw string, baseDate time.Time) []Utterance {
	var utts []Utterance

	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}

		speaker, ts, text, ok := parseLine(line, baseDate)
		if !ok {
			// Continuation of the previous utterance.
			if n := len(utts); n > 0 {
				utts[n-1].Text += "\n" + strings.TrimSpace(line)
				continue
			}
			text = strings.TrimSpace(line)
		}
		if text == "" {
			continue
		}

		utts = append(utts, Utterance{
			Speaker:   speaker,
			Timestamp: ts,
			Text:      text,
			Index:     len(utts),
		})
	}

	return utts
}

func parseLine(line string, baseDate time.Time) (speaker string, ts time.Time, text string, ok bool) {
	if m := reFullStamp.FindStringSubmatch(line); m != nil {
		ts = parseStamp(m[1], m[2])
		return strings.TrimSpace(m[3]), ts, strings.TrimSpace(m[4]), true
	}
	if m := reClockStamp.FindStringSubmatch(line); m != nil {
		ts = parseClock(m[1], baseDate)
		return strings.TrimSpace(m[2]), ts, strings.TrimSpace(m[3]), true
	}
	if m := reSpeaker.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), time.Time{}, strings.TrimSpace(m[2]), true
	}
	return "", time.Time{}, "", false
}

func parseStamp(date, clock string) time.Time {
	layout := "2006-01-02 15:04"
	if strings.Count(clock, ":") == 2 {
		layout = "2006-01-02 15:04:05"
	}
	ts, err := time.Parse(layout, date+" "+clock)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func parseClock(clock string, baseDate time.Time) time.Time {
	layout := "15:04"
	if strings.Count(clock, ":") == 2 {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, clock)
	if err != nil {
		return time.Time{}
	}
	if baseDate.IsZero() {
		return time.Time{}
	}
	return time.Date(baseDate.Year(), baseDate.Month(), baseDate.Day(),
		t.Hour(), t.Minute(), t.Second(), 0, baseDate.Location())
}
