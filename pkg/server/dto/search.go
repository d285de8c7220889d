package dto

import (
	"errors"
	"strings"
)

// MaxQueryLength caps query text accepted over the API.
const MaxQueryLength = 2000

// ErrQueryTooLong is returned when a query exceeds MaxQueryLength.
var ErrQueryTooLong = errors.New("query exceeds maximum length")

// SearchRequest is the POST /search payload. Weights and flags default
// to the balanced hybrid profile when omitted.
type SearchRequest struct {
	Query          string   `json:"query" binding:"required"`
	Context        string   `json:"context,omitempty"` // building, auditing, balanced
	FTSWeight      *float64 `json:"fts_weight,omitempty"`
	VectorWeight   *float64 `json:"vector_weight,omitempty"`
	GraphWeight    *float64 `json:"graph_weight,omitempty"`
	CitationWeight *float64 `json:"citation_weight,omitempty"`
	UseGraph       bool     `json:"use_graph,omitempty"`
	UseCitations   bool     `json:"use_citations,omitempty"`
	MaxHops        int      `json:"max_hops,omitempty"`
	Limit          int      `json:"limit,omitempty"`
	SourceType     string   `json:"source_type,omitempty"`
	Expand         bool     `json:"expand,omitempty"`
	Rerank         bool     `json:"rerank,omitempty"`
}

// Validate performs validation on SearchRequest.
func (r *SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return errors.New("query cannot be empty")
	}
	if len(r.Query) > MaxQueryLength {
		return ErrQueryTooLong
	}
	switch r.Context {
	case "", "building", "auditing", "balanced":
	default:
		return errors.New("context must be building, auditing, or balanced")
	}
	return nil
}

// SearchResult is one ranked chunk in the API response.
type SearchResult struct {
	Rank          int      `json:"rank"`
	ChunkID       string   `json:"chunk_id"`
	Content       string   `json:"content"`
	SourceID      string   `json:"source_id,omitempty"`
	SourceTitle   string   `json:"source_title,omitempty"`
	PageStart     int      `json:"page_start,omitempty"`
	PageEnd       int      `json:"page_end,omitempty"`
	CombinedScore float64  `json:"combined_score"`
	FTSScore      float64  `json:"fts_score"`
	VectorScore   float64  `json:"vector_score"`
	GraphScore    float64  `json:"graph_score,omitempty"`
	CitationScore float64  `json:"citation_score,omitempty"`
	RerankScore   float64  `json:"rerank_score,omitempty"`
	Explanations  []string `json:"explanations,omitempty"`
}

// SearchResponse is the POST /search response envelope.
type SearchResponse struct {
	Query         string         `json:"query"`
	ExpandedQuery string         `json:"expanded_query,omitempty"`
	Results       []SearchResult `json:"results"`
	Total         int            `json:"total"`
	Degraded      []string       `json:"degraded,omitempty"`
	ExecutionMs   float64        `json:"execution_ms"`
}
