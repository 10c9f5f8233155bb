package segment

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/oracle/internal/turns"
)

const (
	defaultMinChars = 200
	defaultMaxChars = 1500
	defaultTimeGap  = 10 * time.Minute
)

// Config bounds chunk size and controls the topic-shift signals.
type Config struct {
	MinChars int
	MaxChars int
	TimeGap  time.Duration
	Weights  Weights
}

// DefaultConfig returns the segmentation defaults.
func DefaultConfig() Config {
	return Config{
		MinChars: defaultMinChars,
		MaxChars: defaultMaxChars,
		TimeGap:  defaultTimeGap,
		Weights:  DefaultWeights,
	}
}

func (c Config) withDefaults() Config {
	if c.MinChars <= 0 {
		c.MinChars = defaultMinChars
	}
	if c.MaxChars <= c.MinChars {
		c.MaxChars = defaultMaxChars
		if c.MaxChars <= c.MinChars {
			c.MaxChars = c.MinChars * 4
		}
	}
	if c.TimeGap <= 0 {
		c.TimeGap = defaultTimeGap
	}
	return c
}

// Segment groups utterances into bounded chunks. A chunk closes when the
// buffer reaches MaxChars, or when it already holds MinChars and a topic
// shift fires: a time gap above the threshold between consecutive
// utterances, or a lexical marker in the incoming utterance that outranks
// the buffer's running classification. The trailing buffer is emitted even
// when undersized. Empty input yields an empty list.
func Segment(utts []turns.Utterance, src SourceMeta, cfg Config) []Chunk {
	cfg = cfg.withDefaults()

	var chunks []Chunk
	var buf []turns.Utterance
	bufLen := 0
	bufClass := TypeDiscussion
	seq := 0

	flush := func() {
		if len(buf) == 0 {
			return
		}
		chunks = append(chunks, buildChunk(buf, src, seq, cfg))
		buf = nil
		bufLen = 0
		bufClass = TypeDiscussion
		seq++
	}

	for _, u := range utts {
		if strings.TrimSpace(u.Text) == "" {
			continue
		}
		ulen := renderedLen(u)

		if bufLen >= cfg.MinChars && len(buf) > 0 {
			prev := buf[len(buf)-1]
			gap := !u.Timestamp.IsZero() && !prev.Timestamp.IsZero() &&
				u.Timestamp.Sub(prev.Timestamp) > cfg.TimeGap
			// Close early rather than overshoot the max bound.
			if gap || topicShiftMarker(u.Text, bufClass) || bufLen+1+ulen > cfg.MaxChars {
				flush()
			}
		}

		buf = append(buf, u)
		if c := Classify(u.Text); classRank(c) > classRank(bufClass) {
			bufClass = c
		}
		if bufLen > 0 {
			bufLen++ // joining newline
		}
		bufLen += ulen

		if bufLen >= cfg.MaxChars {
			flush()
		}
	}
	flush()

	return chunks
}

// renderedLen is the number of characters the utterance contributes to the
// chunk text, speaker prefix included.
func renderedLen(u turns.Utterance) int {
	n := len(u.Text)
	if u.Speaker != "" {
		n += len(u.Speaker) + 2
	}
	return n
}

func buildChunk(buf []turns.Utterance, src SourceMeta, seq int, cfg Config) Chunk {
	var sb strings.Builder
	speakerSet := make(map[string]bool)
	for i, u := range buf {
		if i > 0 {
			sb.WriteString("\n")
		}
		if u.Speaker != "" {
			sb.WriteString(u.Speaker)
			sb.WriteString(": ")
			speakerSet[u.Speaker] = true
		}
		sb.WriteString(u.Text)
	}
	text := sb.String()

	speakers := make([]string, 0, len(speakerSet))
	for s := range speakerSet {
		speakers = append(speakers, s)
	}
	sort.Strings(speakers)

	chunkType := Classify(text)
	lenRatio := float64(len(text)) / float64(cfg.MaxChars)

	c := Chunk{
		// Deterministic id: re-segmenting the same source yields the same ids.
		ID:         uuid.NewSHA1(src.ID, []byte(fmt.Sprintf("chunk-%d", seq))),
		Text:       text,
		Sequence:   seq,
		Speakers:   speakers,
		Type:       chunkType,
		Importance: Score(chunkType, text, lenRatio, cfg.Weights),
		SourceID:   src.ID,
		SourceType: src.Type,
		SourceDate: src.Date,
	}
	if !buf[0].Timestamp.IsZero() {
		c.StartTime = buf[0].Timestamp
	}
	if last := buf[len(buf)-1]; !last.Timestamp.IsZero() {
		c.EndTime = last.Timestamp
	}
	return c
}
