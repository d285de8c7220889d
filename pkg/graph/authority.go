package graph

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/researchkb/researchkb/pkg/types"
)

// AuthorityStore is the store surface the offline authority job needs.
type AuthorityStore interface {
	SourceIDs(ctx context.Context) ([]string, error)
	CitationEdges(ctx context.Context) ([]types.CitationEdge, error)
	SetCitationAuthority(ctx context.Context, scores map[string]float64) error
}

// AuthorityConfig tunes the PageRank computation. Iterations is the
// hard cap; when Epsilon > 0 the loop also stops once the largest
// per-node delta of an iteration drops below it.
type AuthorityConfig struct {
	Damping    float64
	Iterations int
	Epsilon    float64
}

// DefaultAuthorityConfig matches the standard damping factor and an
// iteration count that converges on corpus-sized citation graphs.
func DefaultAuthorityConfig() AuthorityConfig {
	return AuthorityConfig{
		Damping:    0.85,
		Iterations: 20,
		Epsilon:    1e-6,
	}
}

// AuthorityStats summarizes one authority run.
type AuthorityStats struct {
	Sources    int
	Citations  int
	Iterations int
	MaxScore   float64
}

// ComputeAuthority runs PageRank over the citation graph and persists
// the scores, rescaled so the most authoritative source gets 1.0. This
// is an offline job; search requests only read the persisted scores.
func ComputeAuthority(ctx context.Context, store AuthorityStore, cfg AuthorityConfig, logger *slog.Logger) (*AuthorityStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Damping <= 0 || cfg.Damping >= 1 {
		cfg.Damping = 0.85
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = 20
	}

	sourceIDs, err := store.SourceIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	if len(sourceIDs) == 0 {
		return &AuthorityStats{}, nil
	}

	edges, err := store.CitationEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list citation edges: %w", err)
	}

	// A source's rank flows to the sources it cites, split across its
	// out-degree.
	outDegree := make(map[string]int, len(sourceIDs))
	incoming := make(map[string][]string, len(sourceIDs))
	known := make(map[string]bool, len(sourceIDs))
	for _, id := range sourceIDs {
		known[id] = true
	}
	for _, edge := range edges {
		if !known[edge.CitingSourceID] || !known[edge.CitedSourceID] {
			continue
		}
		outDegree[edge.CitingSourceID]++
		incoming[edge.CitedSourceID] = append(incoming[edge.CitedSourceID], edge.CitingSourceID)
	}

	n := float64(len(sourceIDs))
	base := (1 - cfg.Damping) / n

	scores := make(map[string]float64, len(sourceIDs))
	for _, id := range sourceIDs {
		scores[id] = 1 / n
	}

	iterations := 0
	for iter := 0; iter < cfg.Iterations; iter++ {
		next := make(map[string]float64, len(sourceIDs))
		var maxDelta float64
		for _, id := range sourceIDs {
			var rank float64
			for _, citing := range incoming[id] {
				rank += scores[citing] / float64(outDegree[citing])
			}
			next[id] = base + cfg.Damping*rank
			if delta := math.Abs(next[id] - scores[id]); delta > maxDelta {
				maxDelta = delta
			}
		}
		scores = next
		iterations = iter + 1
		if cfg.Epsilon > 0 && maxDelta < cfg.Epsilon {
			break
		}
	}

	// Rescale so scores land in [0, 1] regardless of graph size.
	var maxScore float64
	for _, score := range scores {
		if score > maxScore {
			maxScore = score
		}
	}
	if maxScore > 0 {
		for id := range scores {
			scores[id] /= maxScore
		}
	}

	if err := store.SetCitationAuthority(ctx, scores); err != nil {
		return nil, fmt.Errorf("failed to persist authority scores: %w", err)
	}

	stats := &AuthorityStats{
		Sources:    len(sourceIDs),
		Citations:  len(edges),
		Iterations: iterations,
		MaxScore:   1.0,
	}
	logger.Info("citation authority computed",
		"sources", stats.Sources,
		"citations", stats.Citations,
		"iterations", stats.Iterations)
	return stats, nil
}
