package search

import (
	"sort"

	"github.com/researchkb/researchkb/pkg/types"
)

// Fuse combines each candidate's per-signal scores into one weighted
// sum and returns results sorted by it, descending. The sort is stable
// so candidates with equal combined scores keep their retrieval order,
// and ranks run 1..N with no gaps.
func Fuse(candidates []*Candidate, weights SignalWeights) []*types.SearchResult {
	results := make([]*types.SearchResult, len(candidates))
	for i, c := range candidates {
		combined := weights.FTS*c.FTS +
			weights.Vector*c.Vector +
			weights.Graph*c.Graph +
			weights.Citation*c.Citation

		results[i] = &types.SearchResult{
			Chunk:  c.Chunk,
			Source: c.Source,
			Scores: types.ScoreBreakdown{
				FTS:      c.FTS,
				Vector:   c.Vector,
				Graph:    c.Graph,
				Citation: c.Citation,
				Combined: combined,
			},
			CombinedScore:     combined,
			ConceptIDs:        c.ConceptIDs,
			GraphExplanations: c.GraphExplanations,
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CombinedScore > results[j].CombinedScore
	})
	for i, result := range results {
		result.Rank = i + 1
	}
	return results
}

// Truncate cuts results to limit and reassigns ranks.
func Truncate(results []*types.SearchResult, limit int) []*types.SearchResult {
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	for i, result := range results {
		result.Rank = i + 1
	}
	return results
}
