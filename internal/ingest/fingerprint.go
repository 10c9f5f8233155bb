package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/MikeSquared-Agency/oracle/internal/turns"
)

// Fingerprint identifies a source's content so the same transcript arriving
// twice (re-delivered event, overlapping exports) is ingested once. It hashes
// the utterance count, the first few texts, and the first/last timestamps —
// enough to survive cosmetic differences in source metadata.
func Fingerprint(utts []turns.Utterance) string {
	if len(utts) == 0 {
		return ""
	}

	h := sha256.New()
	fmt.Fprintf(h, "n=%d;", len(utts))
	for i, u := range utts {
		if i >= 3 {
			break
		}
		text := u.Text
		if len(text) > 100 {
			text = text[:100]
		}
		h.Write([]byte(strings.TrimSpace(text)))
		h.Write([]byte{0})
	}
	if ts := utts[0].Timestamp; !ts.IsZero() {
		fmt.Fprintf(h, "start=%d;", ts.Unix())
	}
	if ts := utts[len(utts)-1].Timestamp; !ts.IsZero() {
		fmt.Fprintf(h, "end=%d;", ts.Unix())
	}

	return hex.EncodeToString(h.Sum(nil))
}
