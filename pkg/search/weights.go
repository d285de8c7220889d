package search

import (
	"github.com/researchkb/researchkb/pkg/types"
)

// SignalWeights is the normalized weight of each ranking signal for one
// request. Inactive signals hold 0. Values are derived from the query
// at construction and never mutated afterward; renormalization returns
// a fresh value.
type SignalWeights struct {
	FTS      float64
	Vector   float64
	Graph    float64
	Citation float64
}

// Sum adds the four weights.
func (w SignalWeights) Sum() float64 {
	return w.FTS + w.Vector + w.Graph + w.Citation
}

// NormalizeWeights validates the query and scales the active weights so
// they sum to 1.0 while preserving their ratios. The active set is
// fts and vector, plus graph when UseGraph and citation when
// UseCitations. All validation failures are configuration errors,
// raised before any I/O.
func NormalizeWeights(q *types.SearchQuery) (SignalWeights, error) {
	if q.Text == "" && len(q.Embedding) == 0 {
		return SignalWeights{}, types.NewConfigError(types.ErrNoQueryInput)
	}
	if len(q.Embedding) > 0 && len(q.Embedding) != types.EmbeddingDim {
		return SignalWeights{}, types.NewConfigError(types.ErrInvalidEmbedding)
	}
	if q.Limit <= 0 {
		return SignalWeights{}, types.NewConfigError(types.ErrInvalidLimit)
	}

	weights := SignalWeights{
		FTS:    q.FTSWeight,
		Vector: q.VectorWeight,
	}
	if q.UseGraph {
		weights.Graph = q.GraphWeight
	}
	if q.UseCitations {
		weights.Citation = q.CitationWeight
	}

	if weights.FTS < 0 || weights.Vector < 0 || weights.Graph < 0 || weights.Citation < 0 {
		return SignalWeights{}, types.NewConfigError(types.ErrInvalidWeights)
	}
	total := weights.Sum()
	if total <= 0 {
		return SignalWeights{}, types.NewConfigError(types.ErrInvalidWeights)
	}

	weights.FTS /= total
	weights.Vector /= total
	weights.Graph /= total
	weights.Citation /= total
	return weights, nil
}

// Renormalize drops the flagged signals and rescales the remainder to
// sum 1.0 again, so a request where an optional signal contributed
// nothing ranks identically to one where the signal was never enabled.
// When dropping would leave nothing active the input is returned
// unchanged.
func Renormalize(w SignalWeights, dropGraph, dropCitation bool) SignalWeights {
	if !dropGraph && !dropCitation {
		return w
	}

	out := w
	if dropGraph {
		out.Graph = 0
	}
	if dropCitation {
		out.Citation = 0
	}

	total := out.Sum()
	if total <= 0 {
		return w
	}

	out.FTS /= total
	out.Vector /= total
	out.Graph /= total
	out.Citation /= total
	return out
}
