package extractor

// Entity is a named thing found in a chunk.
type Entity struct {
	Name string `json:"name"`
	Type string `json:"type"` // Person | Organization | Country | Topic
	Role string `json:"role,omitempty"`
	Org  string `json:"org,omitempty"`
}

// Decision is a settled outcome found in a chunk.
type Decision struct {
	Description string `json:"description"`
	Rationale   string `json:"rationale,omitempty"`
}

// Action is an assigned follow-up found in a chunk. Status starts pending;
// downstream trackers mutate it, the extractor never does.
type Action struct {
	Description string `json:"description"`
	Owner       string `json:"owner,omitempty"`
}

// Result holds everything extracted from one chunk.
type Result struct {
	Entities  []Entity   `json:"entities"`
	Decisions []Decision `json:"decisions"`
	Actions   []Action   `json:"actions"`
}
