package dto

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// Concept is the API representation of a concept node.
type Concept struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	CanonicalName string   `json:"canonical_name,omitempty"`
	Aliases       []string `json:"aliases,omitempty"`
	Type          string   `json:"type,omitempty"`
	Description   string   `json:"description,omitempty"`
}

// Path is a relationship path between two concepts.
type Path struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Length      int    `json:"length"`
	Explanation string `json:"explanation"`
}

// Neighborhood lists the concepts reachable from a concept.
type Neighborhood struct {
	ConceptID string    `json:"concept_id"`
	MaxHops   int       `json:"max_hops"`
	Concepts  []Concept `json:"concepts"`
	Total     int       `json:"total"`
}

// Source is the API representation of a source.
type Source struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Authors           []string `json:"authors,omitempty"`
	Year              int      `json:"year,omitempty"`
	Type              string   `json:"type"`
	CitationAuthority float64  `json:"citation_authority"`
}

// CitationsResponse lists the citation links of one source.
type CitationsResponse struct {
	SourceID string   `json:"source_id"`
	Citing   []Source `json:"citing"`
	Cited    []Source `json:"cited"`
}

// AuthorityResponse reports an offline authority recomputation.
type AuthorityResponse struct {
	Sources    int     `json:"sources"`
	Citations  int     `json:"citations"`
	Iterations int     `json:"iterations"`
	MaxScore   float64 `json:"max_score"`
}
