package graph

import (
	"context"
	"fmt"
	"sort"
)

// PairExplanation describes the path behind one query/chunk concept
// pair's contribution to a graph score.
type PairExplanation struct {
	QueryConceptID string  `json:"query_concept_id"`
	ChunkConceptID string  `json:"chunk_concept_id"`
	Path           string  `json:"path"`
	Contribution   float64 `json:"contribution"`
}

// Scorer computes graph relevance between query concepts and chunk
// concepts. The unweighted form scores a pair 1/(pathLen+1); the
// weighted form multiplies in the edge weights along the path. Pair
// results are memoized per Scorer, so one instance should serve one
// request.
type Scorer struct {
	graph    Adjacency
	maxHops  int
	weighted bool

	pairCache map[pairKey]pairResult
}

type pairKey struct {
	query string
	chunk string
}

type pairResult struct {
	contribution float64
	path         *Path
}

// NewScorer creates a per-request scorer. maxHops bounds every pair's
// path search.
func NewScorer(g Adjacency, maxHops int, weighted bool) *Scorer {
	return &Scorer{
		graph:     g,
		maxHops:   maxHops,
		weighted:  weighted,
		pairCache: make(map[pairKey]pairResult),
	}
}

// Score computes the relevance between two concept sets: the sum of
// pair contributions divided by |query|*|chunk|, clamped to [0, 1].
// Either set being empty yields 0 without touching the graph.
func (s *Scorer) Score(ctx context.Context, queryConceptIDs, chunkConceptIDs []string) (float64, error) {
	score, _, err := s.score(ctx, queryConceptIDs, chunkConceptIDs, false)
	return score, err
}

// ScoreWithExplanations is Score plus the top pair explanations (at
// most 3), strongest contribution first.
func (s *Scorer) ScoreWithExplanations(ctx context.Context, queryConceptIDs, chunkConceptIDs []string) (float64, []PairExplanation, error) {
	return s.score(ctx, queryConceptIDs, chunkConceptIDs, true)
}

func (s *Scorer) score(ctx context.Context, queryConceptIDs, chunkConceptIDs []string, explain bool) (float64, []PairExplanation, error) {
	if len(queryConceptIDs) == 0 || len(chunkConceptIDs) == 0 {
		return 0, nil, nil
	}

	var total float64
	var explanations []PairExplanation

	for _, qc := range queryConceptIDs {
		for _, cc := range chunkConceptIDs {
			result, err := s.pair(ctx, qc, cc)
			if err != nil {
				return 0, nil, err
			}
			total += result.contribution
			if explain && result.contribution > 0 && result.path != nil {
				explanations = append(explanations, PairExplanation{
					QueryConceptID: qc,
					ChunkConceptID: cc,
					Path:           result.path.String(),
					Contribution:   result.contribution,
				})
			}
		}
	}

	score := total / float64(len(queryConceptIDs)*len(chunkConceptIDs))
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	if explain {
		sort.SliceStable(explanations, func(i, j int) bool {
			return explanations[i].Contribution > explanations[j].Contribution
		})
		if len(explanations) > 3 {
			explanations = explanations[:3]
		}
	}
	return score, explanations, nil
}

func (s *Scorer) pair(ctx context.Context, queryConceptID, chunkConceptID string) (pairResult, error) {
	key := pairKey{query: queryConceptID, chunk: chunkConceptID}
	if cached, ok := s.pairCache[key]; ok {
		return cached, nil
	}

	path, err := ShortestPath(ctx, s.graph, queryConceptID, chunkConceptID, s.maxHops)
	if err != nil {
		return pairResult{}, fmt.Errorf("pair path search failed: %w", err)
	}

	var result pairResult
	if path != nil {
		contribution := 1.0 / float64(path.Length()+1)
		if s.weighted {
			contribution = path.EdgeWeightProduct() / float64(path.Length()+1)
		}
		result = pairResult{contribution: contribution, path: path}
	}

	s.pairCache[key] = result
	return result, nil
}

// ScoreChunks scores every chunk's concept set against the query
// concepts, sharing the pair memo across chunks. Returns scores keyed
// by chunk id, plus rendered explanations per chunk when the scorer is
// weighted.
func (s *Scorer) ScoreChunks(ctx context.Context, queryConceptIDs []string, chunkConcepts map[string][]string) (map[string]float64, map[string][]string, error) {
	scores := make(map[string]float64, len(chunkConcepts))
	explanations := make(map[string][]string)

	for chunkID, conceptIDs := range chunkConcepts {
		if s.weighted {
			score, pairs, err := s.ScoreWithExplanations(ctx, queryConceptIDs, conceptIDs)
			if err != nil {
				return nil, nil, err
			}
			scores[chunkID] = score
			for _, p := range pairs {
				explanations[chunkID] = append(explanations[chunkID], p.Path)
			}
			continue
		}
		score, err := s.Score(ctx, queryConceptIDs, conceptIDs)
		if err != nil {
			return nil, nil, err
		}
		scores[chunkID] = score
	}
	return scores, explanations, nil
}
