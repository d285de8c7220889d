package graph_test

import (
	"context"
	"testing"

	"github.com/researchkb/researchkb/pkg/graph"
	"github.com/researchkb/researchkb/pkg/store"
	"github.com/researchkb/researchkb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func citationStore() *store.MemoryStore {
	st := store.NewMemoryStore()
	st.AddSource(&types.Source{ID: "a", Title: "Working Paper", Type: types.PaperSourceType})
	st.AddSource(&types.Source{ID: "b", Title: "Seminal Paper", Type: types.PaperSourceType})
	st.AddCitation("a", "b")
	return st
}

func TestComputeAuthoritySingleCitation(t *testing.T) {
	st := citationStore()

	stats, err := graph.ComputeAuthority(context.Background(), st, graph.DefaultAuthorityConfig(), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Sources)
	assert.Equal(t, 1, stats.Citations)
	assert.InDelta(t, 1.0, stats.MaxScore, 1e-9)
	// Converges well before the iteration cap.
	assert.Less(t, stats.Iterations, 20)

	scores, err := st.CitationAuthority(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	// The cited source carries the maximum; with damping 0.85 the citing
	// source settles at (1-d)/2 against base + d*(1-d)/2 = 1/1.85 of it.
	assert.InDelta(t, 1.0, scores["b"], 1e-6)
	assert.InDelta(t, 1.0/1.85, scores["a"], 1e-6)
	assert.Greater(t, scores["b"], scores["a"])
}

func TestComputeAuthoritySymmetricCycleConvergesImmediately(t *testing.T) {
	st := store.NewMemoryStore()
	st.AddSource(&types.Source{ID: "a", Title: "A", Type: types.PaperSourceType})
	st.AddSource(&types.Source{ID: "b", Title: "B", Type: types.PaperSourceType})
	st.AddCitation("a", "b")
	st.AddCitation("b", "a")

	stats, err := graph.ComputeAuthority(context.Background(), st, graph.DefaultAuthorityConfig(), nil)
	require.NoError(t, err)

	// Uniform scores are the fixed point, so the first iteration's delta
	// is already below epsilon.
	assert.Equal(t, 1, stats.Iterations)

	scores, err := st.CitationAuthority(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, scores["a"], 1e-9)
	assert.InDelta(t, 1.0, scores["b"], 1e-9)
}

func TestComputeAuthorityEmptyStore(t *testing.T) {
	stats, err := graph.ComputeAuthority(context.Background(), store.NewMemoryStore(), graph.AuthorityConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, &graph.AuthorityStats{}, stats)
}

func TestComputeAuthorityDefaultsInvalidConfig(t *testing.T) {
	st := citationStore()

	stats, err := graph.ComputeAuthority(context.Background(), st, graph.AuthorityConfig{Damping: 1.5}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Sources)
	assert.InDelta(t, 1.0, stats.MaxScore, 1e-9)
}

func TestComputeAuthorityIgnoresEdgesToUnknownSources(t *testing.T) {
	st := citationStore()
	st.AddCitation("a", "ghost")

	_, err := graph.ComputeAuthority(context.Background(), st, graph.DefaultAuthorityConfig(), nil)
	require.NoError(t, err)

	scores, err := st.CitationAuthority(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	// b still holds the maximum despite a's inflated raw out-degree.
	assert.InDelta(t, 1.0, scores["b"], 1e-6)
}

func TestComputeAuthorityPersistsOnSources(t *testing.T) {
	st := store.NewMemoryStore()
	cited := &types.Source{ID: "b", Title: "Seminal Paper", Type: types.PaperSourceType}
	st.AddSource(&types.Source{ID: "a", Title: "Working Paper", Type: types.PaperSourceType})
	st.AddSource(cited)
	st.AddCitation("a", "b")

	_, err := graph.ComputeAuthority(context.Background(), st, graph.DefaultAuthorityConfig(), nil)
	require.NoError(t, err)

	// Persisted scores surface on the source record search reads.
	assert.InDelta(t, 1.0, cited.CitationAuthority, 1e-6)
}
