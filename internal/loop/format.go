package loop

import (
	"fmt"
	"strings"

	"github.com/MikeSquared-Agency/oracle/internal/segment"
)

// formatChunks renders store results for the model: id for follow-up calls,
// attribution for citation, then the content.
func formatChunks(chunks []segment.Chunk) string {
	if len(chunks) == 0 {
		return "no chunks found"
	}

	var sb strings.Builder
	for i, c := range chunks {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("chunk %s (%s", c.ID, c.SourceType))
		if !c.SourceDate.IsZero() {
			sb.WriteString(" " + c.SourceDate.Format("2006-01-02"))
		}
		if len(c.Speakers) > 0 {
			sb.WriteString(", " + strings.Join(c.Speakers, ", "))
		}
		sb.WriteString(fmt.Sprintf(", %s, importance %.2f)\n", c.Type, c.Importance))
		sb.WriteString(c.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}
