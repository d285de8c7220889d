package types

// ContextType selects a lexical/semantic weight preset for a search.
type ContextType string

const (
	// BuildingContext favors semantic breadth (20% FTS, 80% vector).
	BuildingContext ContextType = "building"
	// AuditingContext favors lexical precision (50% FTS, 50% vector).
	AuditingContext ContextType = "auditing"
	// BalancedContext is the default (30% FTS, 70% vector).
	BalancedContext ContextType = "balanced"
)

// Weights returns the (fts, vector) weight pair for the context type.
func (c ContextType) Weights() (float64, float64) {
	switch c {
	case BuildingContext:
		return 0.2, 0.8
	case AuditingContext:
		return 0.5, 0.5
	default:
		return 0.3, 0.7
	}
}

// SearchQuery describes one retrieval request. Weights are raw inputs;
// the pipeline normalizes the active subset before use and never mutates
// the query.
type SearchQuery struct {
	// Text is the lexical query. Optional when Embedding is set.
	Text string `json:"text,omitempty"`
	// Embedding is the dense query vector. Optional when Text is set;
	// when set it must have EmbeddingDim elements.
	Embedding []float32 `json:"embedding,omitempty"`

	FTSWeight      float64 `json:"fts_weight"`
	VectorWeight   float64 `json:"vector_weight"`
	GraphWeight    float64 `json:"graph_weight,omitempty"`
	CitationWeight float64 `json:"citation_weight,omitempty"`

	UseGraph     bool `json:"use_graph,omitempty"`
	UseCitations bool `json:"use_citations,omitempty"`

	// MaxHops bounds graph traversal depth for graph scoring.
	MaxHops int `json:"max_hops,omitempty"`

	Limit        int        `json:"limit"`
	SourceFilter SourceType `json:"source_filter,omitempty"`
}

// DefaultSearchQuery returns a query with the balanced preset applied.
// The graph and citation weights are inert until the corresponding Use
// flag is set.
func DefaultSearchQuery(text string) *SearchQuery {
	fts, vector := BalancedContext.Weights()
	return &SearchQuery{
		Text:           text,
		FTSWeight:      fts,
		VectorWeight:   vector,
		GraphWeight:    0.2,
		CitationWeight: 0.1,
		MaxHops:        2,
		Limit:          10,
	}
}

// ExpandedQuery is the result of query expansion: the original text plus
// the terms each strategy contributed.
type ExpandedQuery struct {
	Original string `json:"original"`
	// Terms are the expansion terms in the order strategies produced
	// them, deduplicated against the original query and each other.
	Terms []string `json:"terms,omitempty"`
	// ByStrategy records which strategy contributed which terms
	// ("synonym", "graph", "llm").
	ByStrategy map[string][]string `json:"by_strategy,omitempty"`
	// FTSQuery is the weighted full-text query string built from the
	// original tokens and expansion terms.
	FTSQuery string `json:"fts_query,omitempty"`
}

// ExpandedText renders the original query followed by expansion terms,
// for logging and API responses.
func (e *ExpandedQuery) ExpandedText() string {
	text := e.Original
	for _, t := range e.Terms {
		text += " " + t
	}
	return text
}

// ScoreBreakdown carries each signal's normalized contribution to a
// result. Signals that were inactive or degraded for the request are 0.
type ScoreBreakdown struct {
	FTS      float64 `json:"fts"`
	Vector   float64 `json:"vector"`
	Graph    float64 `json:"graph"`
	Citation float64 `json:"citation"`
	Rerank   float64 `json:"rerank,omitempty"`
	Combined float64 `json:"combined"`
}

// SearchResult is one ranked chunk with its source and score breakdown.
type SearchResult struct {
	Chunk  *Chunk         `json:"chunk"`
	Source *Source        `json:"source"`
	Scores ScoreBreakdown `json:"scores"`
	// CombinedScore duplicates Scores.Combined for sorting convenience.
	CombinedScore float64 `json:"combined_score"`
	// Rank is 1-based position in the final ordering.
	Rank int `json:"rank"`
	// ConceptIDs are the graph concepts linked to the chunk, when graph
	// scoring ran for the request.
	ConceptIDs []string `json:"concept_ids,omitempty"`
	// GraphExplanations describe the strongest concept paths behind the
	// graph score, when the weighted scorer produced them.
	GraphExplanations []string `json:"graph_explanations,omitempty"`
}

// SearchResponse wraps the ranked results with request metadata and a
// timing breakdown.
type SearchResponse struct {
	Query         string          `json:"query"`
	ExpandedQuery string          `json:"expanded_query,omitempty"`
	Results       []*SearchResult `json:"results"`
	ExecutionMs   float64         `json:"execution_time_ms"`
	EmbeddingMs   float64         `json:"embedding_time_ms"`
	SearchMs      float64         `json:"search_time_ms"`
	// Degraded lists soft signals that failed and were scored as 0 for
	// this request.
	Degraded []string `json:"degraded,omitempty"`
}
