package types_test

import (
	"errors"
	"testing"

	"github.com/researchkb/researchkb/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestContextTypeWeights(t *testing.T) {
	tests := []struct {
		context    types.ContextType
		wantFTS    float64
		wantVector float64
	}{
		{types.BuildingContext, 0.2, 0.8},
		{types.AuditingContext, 0.5, 0.5},
		{types.BalancedContext, 0.3, 0.7},
		{types.ContextType("unknown"), 0.3, 0.7},
	}

	for _, tt := range tests {
		t.Run(string(tt.context), func(t *testing.T) {
			fts, vector := tt.context.Weights()
			assert.InDelta(t, tt.wantFTS, fts, 1e-9)
			assert.InDelta(t, tt.wantVector, vector, 1e-9)
		})
	}
}

func TestDefaultSearchQuery(t *testing.T) {
	q := types.DefaultSearchQuery("instrumental variables")

	assert.Equal(t, "instrumental variables", q.Text)
	assert.InDelta(t, 0.3, q.FTSWeight, 1e-9)
	assert.InDelta(t, 0.7, q.VectorWeight, 1e-9)
	assert.Equal(t, 2, q.MaxHops)
	assert.Equal(t, 10, q.Limit)

	// Boost weights are present but inert until the flags are set.
	assert.False(t, q.UseGraph)
	assert.False(t, q.UseCitations)
	assert.InDelta(t, 0.2, q.GraphWeight, 1e-9)
	assert.InDelta(t, 0.1, q.CitationWeight, 1e-9)
}

func TestExpandedText(t *testing.T) {
	e := &types.ExpandedQuery{
		Original: "iv",
		Terms:    []string{"instrumental variables", "2sls"},
	}
	assert.Equal(t, "iv instrumental variables 2sls", e.ExpandedText())
}

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("connection refused")

	err := types.NewRetrievalError("fts", cause)
	assert.ErrorIs(t, err, cause)
	var retrievalErr *types.RetrievalError
	assert.ErrorAs(t, err, &retrievalErr)
	assert.Equal(t, "fts", retrievalErr.Stage)

	soft := types.NewSoftSignalError("graph", cause)
	assert.ErrorIs(t, soft, cause)
	var softErr *types.SoftSignalError
	assert.ErrorAs(t, soft, &softErr)
	assert.Equal(t, "graph", softErr.Signal)
}
