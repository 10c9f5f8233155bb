package planner

import "time"

// Kind tags the chosen retrieval strategy.
type Kind string

const (
	KindRecent         Kind = "recent"
	KindDateScoped     Kind = "date_scoped"
	KindEntityAnchored Kind = "entity_anchored"
	KindFullText       Kind = "full_text"
)

// Strategy is the retrieval method chosen for a question. Exactly one of the
// variant fields is populated, selected by Kind.
type Strategy struct {
	Kind Kind

	// Recent: only sources at or after Floor are considered.
	Floor time.Time

	// DateScoped: the resolved source date.
	Date time.Time

	// EntityAnchored: canonical entity names to fan out over.
	Entities []string

	// FullText: the raw question used as the search query.
	Query string
}
