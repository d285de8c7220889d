// Package crossencoder provides passage reranking for the second
// retrieval stage. A cross-encoder scores each (query, passage) pair
// jointly, which ranks better than the bi-encoder scores used for
// candidate generation but costs more per passage, so it only sees the
// over-fetched candidate window.
package crossencoder

import (
	"context"
)

// RankedPassage is a passage with its relevance score, higher is more
// relevant. Index refers back to the caller's passage slice.
type RankedPassage struct {
	Index   int     `json:"index"`
	Passage string  `json:"passage"`
	Score   float64 `json:"score"`
}

// Client ranks passages against a query.
type Client interface {
	// Rank scores every passage against the query and returns them in
	// descending score order.
	Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error)

	// Available probes whether the reranker can serve requests. The
	// orchestrator calls it once per request and skips reranking when
	// it reports false.
	Available(ctx context.Context) bool

	// Close cleans up any resources.
	Close() error
}

// Config holds common reranker settings.
type Config struct {
	Model          string `json:"model,omitempty"`
	MaxConcurrency int    `json:"max_concurrency,omitempty"`
}
