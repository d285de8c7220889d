package store_test

import (
	"context"
	"testing"

	"github.com/researchkb/researchkb/pkg/store"
	"github.com/researchkb/researchkb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchChunksFTSWeightClasses(t *testing.T) {
	st := store.NewMemoryStore()
	st.AddSource(&types.Source{ID: "s1", Title: "Notes", Type: types.TextbookSourceType})
	st.AddChunk(&types.Chunk{ID: "c1", SourceID: "s1", Content: "instrumental variables"})
	st.AddChunk(&types.Chunk{ID: "c2", SourceID: "s1", Content: "two stage least squares"})

	// c1 matches the A-class token, c2 the B-class one: A must outrank B.
	hits, err := st.SearchChunksFTS(context.Background(), "instrumental:A | squares:B", 10, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "c1", hits[0].Chunk.ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Equal(t, "c2", hits[1].Chunk.ID)
	assert.InDelta(t, 0.4, hits[1].Score, 1e-9)
}

func TestSearchChunksFTSTermFrequency(t *testing.T) {
	st := store.NewMemoryStore()
	st.AddSource(&types.Source{ID: "s1", Title: "Notes", Type: types.TextbookSourceType})
	st.AddChunk(&types.Chunk{ID: "c1", SourceID: "s1", Content: "regression and more regression"})
	st.AddChunk(&types.Chunk{ID: "c2", SourceID: "s1", Content: "one regression"})
	st.AddChunk(&types.Chunk{ID: "c3", SourceID: "s1", Content: "matching only"})

	hits, err := st.SearchChunksFTS(context.Background(), "regression", 10, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "c1", hits[0].Chunk.ID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestSearchChunksFTSSourceFilter(t *testing.T) {
	st := store.NewMemoryStore()
	st.AddSource(&types.Source{ID: "s1", Title: "Notes", Type: types.TextbookSourceType})
	st.AddSource(&types.Source{ID: "s2", Title: "Survey", Type: types.PaperSourceType})
	st.AddChunk(&types.Chunk{ID: "c1", SourceID: "s1", Content: "regression diagnostics"})
	st.AddChunk(&types.Chunk{ID: "c2", SourceID: "s2", Content: "regression methods"})

	hits, err := st.SearchChunksFTS(context.Background(), "regression", 10,
		&store.Filter{SourceType: types.PaperSourceType})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c2", hits[0].Chunk.ID)
	assert.Equal(t, "s2", hits[0].Source.ID)
}

func TestSearchChunksByVectorOrdersByDistance(t *testing.T) {
	st := store.NewMemoryStore()
	st.AddSource(&types.Source{ID: "s1", Title: "Notes", Type: types.TextbookSourceType})
	st.AddChunk(&types.Chunk{ID: "near", SourceID: "s1", Content: "a", Embedding: []float32{1, 0}})
	st.AddChunk(&types.Chunk{ID: "mid", SourceID: "s1", Content: "b", Embedding: []float32{0, 1}})
	st.AddChunk(&types.Chunk{ID: "far", SourceID: "s1", Content: "c", Embedding: []float32{-1, 0}})
	st.AddChunk(&types.Chunk{ID: "none", SourceID: "s1", Content: "d"})

	hits, err := st.SearchChunksByVector(context.Background(), []float32{1, 0}, 10, nil)
	require.NoError(t, err)

	// Chunks without embeddings are not candidates.
	require.Len(t, hits, 3)
	assert.Equal(t, "near", hits[0].Chunk.ID)
	assert.Equal(t, "mid", hits[1].Chunk.ID)
	assert.Equal(t, "far", hits[2].Chunk.ID)
	assert.InDelta(t, 0.0, hits[0].Distance, 1e-6)
	assert.InDelta(t, 1.0, hits[1].Distance, 1e-6)
	assert.InDelta(t, 2.0, hits[2].Distance, 1e-6)
}

func TestSearchChunksByVectorLimit(t *testing.T) {
	st := store.NewMemoryStore()
	st.AddSource(&types.Source{ID: "s1", Title: "Notes", Type: types.TextbookSourceType})
	for _, id := range []string{"c1", "c2", "c3"} {
		st.AddChunk(&types.Chunk{ID: id, SourceID: "s1", Content: id, Embedding: []float32{1, 0}})
	}

	hits, err := st.SearchChunksByVector(context.Background(), []float32{1, 0}, 2, nil)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestMatchConceptsMostSpecificFirst(t *testing.T) {
	st := store.NewMemoryStore()
	st.AddConcept(&types.Concept{ID: "reg", Name: "regression"})
	st.AddConcept(&types.Concept{ID: "rdd", Name: "regression discontinuity"})
	st.AddConcept(&types.Concept{ID: "iv", Name: "instrumental variables", Aliases: []string{"iv estimation"}})

	concepts, err := st.MatchConcepts(context.Background(),
		"sharp regression discontinuity with iv estimation", 10)
	require.NoError(t, err)
	require.Len(t, concepts, 3)

	// Longest matched name wins.
	assert.Equal(t, "rdd", concepts[0].ID)
	assert.Equal(t, "iv", concepts[1].ID)
	assert.Equal(t, "reg", concepts[2].ID)
}

func TestMatchConceptsTiesBreakByID(t *testing.T) {
	st := store.NewMemoryStore()
	st.AddConcept(&types.Concept{ID: "z", Name: "panel"})
	st.AddConcept(&types.Concept{ID: "a", Name: "fixed"})

	concepts, err := st.MatchConcepts(context.Background(), "fixed panel", 10)
	require.NoError(t, err)
	require.Len(t, concepts, 2)
	assert.Equal(t, "a", concepts[0].ID)
	assert.Equal(t, "z", concepts[1].ID)
}

func TestMatchConceptsLimit(t *testing.T) {
	st := store.NewMemoryStore()
	st.AddConcept(&types.Concept{ID: "a", Name: "panel"})
	st.AddConcept(&types.Concept{ID: "b", Name: "fixed"})

	concepts, err := st.MatchConcepts(context.Background(), "fixed panel", 1)
	require.NoError(t, err)
	assert.Len(t, concepts, 1)
}

func TestConceptsForChunksOmitsUnlinked(t *testing.T) {
	st := store.NewMemoryStore()
	st.LinkChunkConcept("c1", "iv")
	st.LinkChunkConcept("c1", "tsls")

	links, err := st.ConceptsForChunks(context.Background(), []string{"c1", "c2"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"c1": {"iv", "tsls"}}, links)
}

func TestCitationDirections(t *testing.T) {
	st := store.NewMemoryStore()
	st.AddSource(&types.Source{ID: "a", Title: "A", Type: types.PaperSourceType})
	st.AddSource(&types.Source{ID: "b", Title: "B", Type: types.PaperSourceType})
	st.AddSource(&types.Source{ID: "c", Title: "C", Type: types.PaperSourceType})
	st.AddCitation("a", "b")
	st.AddCitation("c", "b")
	ctx := context.Background()

	citing, err := st.CitingSources(ctx, "b")
	require.NoError(t, err)
	require.Len(t, citing, 2)

	cited, err := st.CitedSources(ctx, "a")
	require.NoError(t, err)
	require.Len(t, cited, 1)
	assert.Equal(t, "b", cited[0].ID)

	cited, err = st.CitedSources(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, cited)
}

func TestSourceIDsSorted(t *testing.T) {
	st := store.NewMemoryStore()
	st.AddSource(&types.Source{ID: "c", Title: "C", Type: types.PaperSourceType})
	st.AddSource(&types.Source{ID: "a", Title: "A", Type: types.PaperSourceType})
	st.AddSource(&types.Source{ID: "b", Title: "B", Type: types.PaperSourceType})

	ids, err := st.SourceIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestCitationAuthorityRoundTrip(t *testing.T) {
	st := store.NewMemoryStore()
	st.AddSource(&types.Source{ID: "a", Title: "A", Type: types.PaperSourceType})
	ctx := context.Background()

	require.NoError(t, st.SetCitationAuthority(ctx, map[string]float64{"a": 0.8}))

	scores, err := st.CitationAuthority(ctx, []string{"a", "unknown"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"a": 0.8}, scores)
}
