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

func TestShortestPathPrefersFewerHops(t *testing.T) {
	st := store.NewMemoryStore()
	for _, id := range []string{"a", "b", "d"} {
		st.AddConcept(&types.Concept{ID: id, Name: id})
	}
	// Two routes from a to d: direct, and through b.
	st.AddRelationship(&types.ConceptRelationship{
		ID: "r1", SourceConceptID: "a", TargetConceptID: "b", Type: types.RelUses,
	})
	st.AddRelationship(&types.ConceptRelationship{
		ID: "r2", SourceConceptID: "b", TargetConceptID: "d", Type: types.RelUses,
	})
	st.AddRelationship(&types.ConceptRelationship{
		ID: "r3", SourceConceptID: "a", TargetConceptID: "d", Type: types.RelExtends,
	})

	path, err := graph.ShortestPath(context.Background(), st, "a", "d", 3)
	require.NoError(t, err)
	require.NotNil(t, path)
	assert.Equal(t, 1, path.Length())
	assert.Equal(t, types.RelExtends, path.Relationships[0].Type)
}

func TestShortestPathSurvivesCycles(t *testing.T) {
	st := store.NewMemoryStore()
	for _, id := range []string{"a", "b", "c"} {
		st.AddConcept(&types.Concept{ID: id, Name: id})
	}
	st.AddRelationship(&types.ConceptRelationship{
		ID: "r1", SourceConceptID: "a", TargetConceptID: "b", Type: types.RelUses,
	})
	st.AddRelationship(&types.ConceptRelationship{
		ID: "r2", SourceConceptID: "b", TargetConceptID: "a", Type: types.RelUses,
	})
	st.AddRelationship(&types.ConceptRelationship{
		ID: "r3", SourceConceptID: "b", TargetConceptID: "c", Type: types.RelUses,
	})

	path, err := graph.ShortestPath(context.Background(), st, "a", "c", 4)
	require.NoError(t, err)
	require.NotNil(t, path)
	assert.Equal(t, 2, path.Length())
}

func TestShortestPathSameConcept(t *testing.T) {
	st := store.NewMemoryStore()
	st.AddConcept(&types.Concept{ID: "a", Name: "panel data"})

	path, err := graph.ShortestPath(context.Background(), st, "a", "a", 3)
	require.NoError(t, err)
	require.NotNil(t, path)
	assert.Equal(t, 0, path.Length())
	assert.Equal(t, "panel data", path.String())
}

func TestShortestPathNoPathWithinBound(t *testing.T) {
	path, err := graph.ShortestPath(context.Background(), chainStore(), "a", "d", 0)
	require.NoError(t, err)
	assert.Nil(t, path)

	path, err = graph.ShortestPath(context.Background(), chainStore(), "d", "a", 5)
	require.NoError(t, err)
	assert.Nil(t, path)
}

func TestPathStringRendering(t *testing.T) {
	path, err := graph.ShortestPath(context.Background(), chainStore(), "a", "c", 3)
	require.NoError(t, err)
	require.NotNil(t, path)
	assert.Equal(t, "concept a → (REQUIRES) → concept b → (USES) → concept c", path.String())
}

func TestGetNeighborhoodBounded(t *testing.T) {
	nb, err := graph.GetNeighborhood(context.Background(), chainStore(), "a", 2, nil)
	require.NoError(t, err)

	require.NotNil(t, nb.Center)
	assert.Equal(t, "a", nb.Center.ID)
	assert.Len(t, nb.Concepts, 2) // b and c; d is 3 hops out
	assert.Len(t, nb.Relationships, 2)
}

func TestGetNeighborhoodRelTypeFilterConstrainsTraversal(t *testing.T) {
	// a -REQUIRES-> b -USES-> c: filtering to REQUIRES must not reach c
	// through the excluded edge.
	nb, err := graph.GetNeighborhood(context.Background(), chainStore(), "a", 3,
		[]types.RelationshipType{types.RelRequires})
	require.NoError(t, err)

	require.Len(t, nb.Concepts, 1)
	assert.Equal(t, "b", nb.Concepts[0].ID)
	require.Len(t, nb.Relationships, 1)
	assert.Equal(t, types.RelRequires, nb.Relationships[0].Type)
}

func TestGetNeighborhoodUnknownCenter(t *testing.T) {
	nb, err := graph.GetNeighborhood(context.Background(), chainStore(), "missing", 2, nil)
	require.NoError(t, err)
	assert.Nil(t, nb.Center)
	assert.Empty(t, nb.Concepts)
}
