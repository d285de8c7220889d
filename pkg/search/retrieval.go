package search

import (
	"context"

	"github.com/researchkb/researchkb/pkg/store"
	"github.com/researchkb/researchkb/pkg/types"
)

// maxCosineDistance is the distance assigned to a candidate the vector
// leg did not return, equivalent to zero similarity.
const maxCosineDistance = 2.0

// Candidate is one chunk surviving stage-1 retrieval, carrying its
// normalized per-signal scores. FTS and Vector are filled by the
// retriever; Graph and Citation are attached by the pipeline before
// fusion.
type Candidate struct {
	Chunk  *types.Chunk
	Source *types.Source

	FTS      float64
	Vector   float64
	Graph    float64
	Citation float64

	ConceptIDs        []string
	GraphExplanations []string
}

// Retriever executes the retrieval legs against the store and produces
// normalized candidates.
type Retriever struct {
	store store.ChunkSearcher
}

// NewRetriever creates a retriever over the given store.
func NewRetriever(s store.ChunkSearcher) *Retriever {
	return &Retriever{store: s}
}

// Retrieve runs the retrieval mode the query selects: FTS-only when
// only text is present, vector-only when only an embedding is present,
// hybrid when both are. ftsQuery overrides the raw text for the lexical
// leg when expansion produced a weighted query. fetchLimit is the
// over-fetched candidate count, already scaled for reranking.
func (r *Retriever) Retrieve(ctx context.Context, q *types.SearchQuery, ftsQuery string, fetchLimit int) ([]*Candidate, error) {
	hasText := q.Text != ""
	hasVector := len(q.Embedding) > 0
	if ftsQuery == "" {
		ftsQuery = q.Text
	}
	filter := queryFilter(q)

	switch {
	case hasText && hasVector:
		return r.hybrid(ctx, ftsQuery, q.Embedding, fetchLimit, filter)
	case hasText:
		return r.ftsOnly(ctx, ftsQuery, fetchLimit, filter)
	default:
		return r.vectorOnly(ctx, q.Embedding, fetchLimit, filter)
	}
}

func queryFilter(q *types.SearchQuery) *store.Filter {
	if q.SourceFilter == "" {
		return nil
	}
	return &store.Filter{SourceType: q.SourceFilter}
}

// ftsOnly retrieves lexically and max-normalizes scores within the
// batch: the best hit gets 1.0, the rest keep their ratios.
func (r *Retriever) ftsOnly(ctx context.Context, ftsQuery string, limit int, filter *store.Filter) ([]*Candidate, error) {
	hits, err := r.store.SearchChunksFTS(ctx, ftsQuery, limit, filter)
	if err != nil {
		return nil, types.NewRetrievalError("fts", err)
	}

	var maxScore float64
	for _, hit := range hits {
		if hit.Score > maxScore {
			maxScore = hit.Score
		}
	}

	candidates := make([]*Candidate, len(hits))
	for i, hit := range hits {
		c := &Candidate{Chunk: hit.Chunk, Source: hit.Source}
		if maxScore > 0 {
			c.FTS = hit.Score / maxScore
		}
		candidates[i] = c
	}
	return candidates, nil
}

// vectorOnly retrieves by embedding similarity. Distances map to
// similarity 1 - d/2, so 0 distance scores 1.0 and the maximum cosine
// distance scores 0.0.
func (r *Retriever) vectorOnly(ctx context.Context, embedding []float32, limit int, filter *store.Filter) ([]*Candidate, error) {
	hits, err := r.store.SearchChunksByVector(ctx, embedding, limit, filter)
	if err != nil {
		return nil, types.NewRetrievalError("vector", err)
	}

	candidates := make([]*Candidate, len(hits))
	for i, hit := range hits {
		candidates[i] = &Candidate{
			Chunk:  hit.Chunk,
			Source: hit.Source,
			Vector: similarityFromDistance(hit.Distance),
		}
	}
	return candidates, nil
}

// hybrid runs both legs and outer-joins them by chunk id. A chunk seen
// by only one leg keeps a zero contribution from the other, it is not
// dropped.
func (r *Retriever) hybrid(ctx context.Context, ftsQuery string, embedding []float32, limit int, filter *store.Filter) ([]*Candidate, error) {
	ftsHits, err := r.store.SearchChunksFTS(ctx, ftsQuery, limit, filter)
	if err != nil {
		return nil, types.NewRetrievalError("fts", err)
	}
	vectorHits, err := r.store.SearchChunksByVector(ctx, embedding, limit, filter)
	if err != nil {
		return nil, types.NewRetrievalError("vector", err)
	}

	var maxFTS float64
	for _, hit := range ftsHits {
		if hit.Score > maxFTS {
			maxFTS = hit.Score
		}
	}

	byChunk := make(map[string]*Candidate, len(ftsHits)+len(vectorHits))
	var order []string

	for _, hit := range ftsHits {
		c := &Candidate{Chunk: hit.Chunk, Source: hit.Source}
		if maxFTS > 0 {
			c.FTS = hit.Score / maxFTS
		}
		byChunk[hit.Chunk.ID] = c
		order = append(order, hit.Chunk.ID)
	}

	for _, hit := range vectorHits {
		if c, ok := byChunk[hit.Chunk.ID]; ok {
			c.Vector = similarityFromDistance(hit.Distance)
			continue
		}
		byChunk[hit.Chunk.ID] = &Candidate{
			Chunk:  hit.Chunk,
			Source: hit.Source,
			Vector: similarityFromDistance(hit.Distance),
		}
		order = append(order, hit.Chunk.ID)
	}

	candidates := make([]*Candidate, len(order))
	for i, id := range order {
		candidates[i] = byChunk[id]
	}
	return candidates, nil
}

// similarityFromDistance converts a cosine distance in [0, 2] into a
// similarity in [0, 1], decreasing monotonically.
func similarityFromDistance(distance float64) float64 {
	if distance < 0 {
		distance = 0
	}
	if distance > maxCosineDistance {
		distance = maxCosineDistance
	}
	return 1 - distance/2
}
