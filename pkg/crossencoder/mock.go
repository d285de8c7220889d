package crossencoder

import (
	"context"
	"errors"
	"sort"
	"strings"
)

var errMockFailure = errors.New("mock reranker failure")

// MockRerankerClient is a deterministic reranker for tests: passages
// are scored by term overlap with the query.
type MockRerankerClient struct {
	// Fail makes Rank return an error, to exercise fallback paths.
	Fail bool
	// Unavailable makes Available report false.
	Unavailable bool
	// Scores, when set, overrides scoring by passage index.
	Scores map[int]float64
}

// NewMockRerankerClient creates a mock reranker.
func NewMockRerankerClient() *MockRerankerClient {
	return &MockRerankerClient{}
}

func (c *MockRerankerClient) Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error) {
	if c.Fail {
		return nil, errMockFailure
	}

	queryTerms := strings.Fields(strings.ToLower(query))
	ranked := make([]RankedPassage, len(passages))
	for i, passage := range passages {
		score, ok := c.Scores[i]
		if !ok {
			lower := strings.ToLower(passage)
			var hits int
			for _, term := range queryTerms {
				if strings.Contains(lower, term) {
					hits++
				}
			}
			if len(queryTerms) > 0 {
				score = float64(hits) / float64(len(queryTerms))
			}
		}
		ranked[i] = RankedPassage{Index: i, Passage: passage, Score: score}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}

func (c *MockRerankerClient) Available(ctx context.Context) bool {
	return !c.Unavailable
}

func (c *MockRerankerClient) Close() error {
	return nil
}
