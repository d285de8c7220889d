package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/researchkb/researchkb/pkg/crossencoder"
	"github.com/researchkb/researchkb/pkg/types"
)

// DefaultFetchMultiplier is how many times the requested limit stage 1
// over-fetches when a reranker will run, so the cross-encoder sees a
// wider candidate window than the final page.
const DefaultFetchMultiplier = 5

// Reranker orchestrates the second ranking stage. Reranking is a soft
// signal: any failure falls back to the stage-1 ordering with a logged
// warning, never an error.
type Reranker struct {
	client  crossencoder.Client
	logger  *slog.Logger
	timeout time.Duration
}

// NewReranker creates a rerank orchestrator. timeout bounds the whole
// rerank call; zero disables the bound.
func NewReranker(client crossencoder.Client, timeout time.Duration, logger *slog.Logger) *Reranker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reranker{client: client, logger: logger, timeout: timeout}
}

// Rerank reorders results by cross-encoder relevance and truncates to
// limit. The stage-1 ordering is replaced entirely by the reranker's;
// rerank scores are recorded in each result's breakdown while the
// fused combined score is kept for reference. On probe failure, rank
// failure, or empty input the stage-1 ordering is truncated instead.
func (r *Reranker) Rerank(ctx context.Context, query string, results []*types.SearchResult, limit int) []*types.SearchResult {
	if r.client == nil || len(results) == 0 {
		return Truncate(results, limit)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if !r.client.Available(ctx) {
		r.logger.Warn("reranker unavailable, keeping stage-1 order", "candidates", len(results))
		return Truncate(results, limit)
	}

	passages := make([]string, len(results))
	for i, result := range results {
		passages[i] = result.Chunk.Content
	}

	ranked, err := r.client.Rank(ctx, query, passages)
	if err != nil {
		r.logger.Warn("rerank failed, keeping stage-1 order", "error", err, "candidates", len(results))
		return Truncate(results, limit)
	}
	if len(ranked) != len(results) {
		r.logger.Warn("reranker returned partial ranking, keeping stage-1 order",
			"expected", len(results), "got", len(ranked))
		return Truncate(results, limit)
	}

	reranked := make([]*types.SearchResult, len(ranked))
	for i, rp := range ranked {
		result := results[rp.Index]
		result.Scores.Rerank = rp.Score
		reranked[i] = result
	}
	return Truncate(reranked, limit)
}
