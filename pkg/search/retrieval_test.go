package search_test

import (
	"context"
	"testing"

	"github.com/researchkb/researchkb/pkg/search"
	"github.com/researchkb/researchkb/pkg/store"
	"github.com/researchkb/researchkb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// corpusStore builds a small corpus with known lexical and vector
// geometry: c1 matches the query twice lexically and exactly in vector
// space, c2 matches once and is orthogonal, c3 is lexically unrelated
// and points the opposite way.
func corpusStore() *store.MemoryStore {
	st := store.NewMemoryStore()
	st.AddSource(&types.Source{ID: "s1", Title: "Mostly Harmless Econometrics", Type: types.TextbookSourceType})
	st.AddSource(&types.Source{ID: "s2", Title: "Weak Instruments Survey", Type: types.PaperSourceType})

	st.AddChunk(&types.Chunk{
		ID:        "c1",
		SourceID:  "s1",
		Content:   "regression analysis and regression diagnostics",
		Embedding: []float32{1, 0, 0},
	})
	st.AddChunk(&types.Chunk{
		ID:        "c2",
		SourceID:  "s2",
		Content:   "regression with weak instruments",
		Embedding: []float32{0, 1, 0},
	})
	st.AddChunk(&types.Chunk{
		ID:        "c3",
		SourceID:  "s2",
		Content:   "matching estimators for panel data",
		Embedding: []float32{-1, 0, 0},
	})
	return st
}

func TestRetrieveFTSOnlyMaxNormalizes(t *testing.T) {
	r := search.NewRetriever(corpusStore())

	q := &types.SearchQuery{Text: "regression", FTSWeight: 1, Limit: 10}
	candidates, err := r.Retrieve(context.Background(), q, "", 10)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	byID := candidatesByID(candidates)
	assert.InDelta(t, 1.0, byID["c1"].FTS, 1e-9)
	assert.InDelta(t, 0.5, byID["c2"].FTS, 1e-9)
	assert.Zero(t, byID["c1"].Vector)
}

func TestRetrieveVectorSimilarityEndpoints(t *testing.T) {
	r := search.NewRetriever(corpusStore())

	q := &types.SearchQuery{Embedding: []float32{1, 0, 0}, VectorWeight: 1, Limit: 10}
	candidates, err := r.Retrieve(context.Background(), q, "", 10)
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	byID := candidatesByID(candidates)
	// distance 0 -> 1.0, orthogonal -> 0.5, opposite -> 0.0
	assert.InDelta(t, 1.0, byID["c1"].Vector, 1e-6)
	assert.InDelta(t, 0.5, byID["c2"].Vector, 1e-6)
	assert.InDelta(t, 0.0, byID["c3"].Vector, 1e-6)
}

func TestRetrieveVectorSimilarityMonotonic(t *testing.T) {
	r := search.NewRetriever(corpusStore())

	q := &types.SearchQuery{Embedding: []float32{1, 0.2, 0}, VectorWeight: 1, Limit: 10}
	candidates, err := r.Retrieve(context.Background(), q, "", 10)
	require.NoError(t, err)

	byID := candidatesByID(candidates)
	assert.Greater(t, byID["c1"].Vector, byID["c2"].Vector)
	assert.Greater(t, byID["c2"].Vector, byID["c3"].Vector)
}

func TestRetrieveHybridOuterJoin(t *testing.T) {
	r := search.NewRetriever(corpusStore())

	q := &types.SearchQuery{
		Text:         "regression",
		Embedding:    []float32{-1, 0, 0},
		FTSWeight:    0.3,
		VectorWeight: 0.7,
		Limit:        10,
	}
	candidates, err := r.Retrieve(context.Background(), q, "", 10)
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	byID := candidatesByID(candidates)

	// c3 is vector-only: kept with zero FTS contribution.
	assert.Zero(t, byID["c3"].FTS)
	assert.InDelta(t, 1.0, byID["c3"].Vector, 1e-6)

	// c1 appears in both legs with both contributions.
	assert.InDelta(t, 1.0, byID["c1"].FTS, 1e-9)
	assert.InDelta(t, 0.0, byID["c1"].Vector, 1e-6)
}

func TestRetrieveSourceFilter(t *testing.T) {
	r := search.NewRetriever(corpusStore())

	q := &types.SearchQuery{
		Text:         "regression",
		FTSWeight:    1,
		Limit:        10,
		SourceFilter: types.PaperSourceType,
	}
	candidates, err := r.Retrieve(context.Background(), q, "", 10)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "c2", candidates[0].Chunk.ID)
	// Sole hit in the batch max-normalizes to 1.0.
	assert.InDelta(t, 1.0, candidates[0].FTS, 1e-9)
}

func TestFuseWorkedExample(t *testing.T) {
	r := search.NewRetriever(corpusStore())

	q := &types.SearchQuery{
		Text:         "regression",
		Embedding:    []float32{0, 1, 0},
		FTSWeight:    0.3,
		VectorWeight: 0.7,
		Limit:        10,
	}
	candidates, err := r.Retrieve(context.Background(), q, "", 10)
	require.NoError(t, err)

	weights, err := search.NormalizeWeights(q)
	require.NoError(t, err)
	results := search.Fuse(candidates, weights)

	require.Len(t, results, 3)
	scores := make(map[string]float64, len(results))
	for _, result := range results {
		scores[result.Chunk.ID] = result.CombinedScore
	}

	// c1: fts 1.0, vector 0.5 -> 0.3*1.0 + 0.7*0.5 = 0.65
	// c2: fts 0.5, vector 1.0 -> 0.3*0.5 + 0.7*1.0 = 0.85
	// c3: fts 0.0, vector 0.5 -> 0.35
	assert.InDelta(t, 0.65, scores["c1"], 1e-6)
	assert.InDelta(t, 0.85, scores["c2"], 1e-6)
	assert.InDelta(t, 0.35, scores["c3"], 1e-6)

	assert.Equal(t, "c2", results[0].Chunk.ID)
	for i, result := range results {
		assert.Equal(t, i+1, result.Rank)
	}
}

func TestFuseStableOrderOnTies(t *testing.T) {
	candidates := []*search.Candidate{
		{Chunk: &types.Chunk{ID: "a"}, FTS: 0.5},
		{Chunk: &types.Chunk{ID: "b"}, FTS: 0.5},
		{Chunk: &types.Chunk{ID: "c"}, FTS: 0.9},
	}
	results := search.Fuse(candidates, search.SignalWeights{FTS: 1})

	require.Len(t, results, 3)
	assert.Equal(t, "c", results[0].Chunk.ID)
	assert.Equal(t, "a", results[1].Chunk.ID)
	assert.Equal(t, "b", results[2].Chunk.ID)
}

func TestTruncateReassignsRanks(t *testing.T) {
	results := search.Fuse([]*search.Candidate{
		{Chunk: &types.Chunk{ID: "a"}, FTS: 0.9},
		{Chunk: &types.Chunk{ID: "b"}, FTS: 0.8},
		{Chunk: &types.Chunk{ID: "c"}, FTS: 0.7},
	}, search.SignalWeights{FTS: 1})

	truncated := search.Truncate(results, 2)
	require.Len(t, truncated, 2)
	assert.Equal(t, 1, truncated[0].Rank)
	assert.Equal(t, 2, truncated[1].Rank)
}

func candidatesByID(candidates []*search.Candidate) map[string]*search.Candidate {
	byID := make(map[string]*search.Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.Chunk.ID] = c
	}
	return byID
}
