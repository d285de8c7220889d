// Package store defines the persistence contract the ranking pipeline
// reads from: full-text ranking, vector k-NN, concept adjacency, chunk
// to concept links, and citation authority. The pipeline never writes
// except through the offline authority job.
package store

import (
	"context"
	"errors"

	"github.com/researchkb/researchkb/pkg/types"
)

var (
	// ErrNotFound reports a missing record.
	ErrNotFound = errors.New("store: not found")
)

// Filter constrains retrieval to a subset of the corpus.
type Filter struct {
	SourceType types.SourceType
}

// FTSHit is one lexical match with its raw relevance score. Scores are
// engine-specific and only comparable within a single result batch.
type FTSHit struct {
	Chunk  *types.Chunk
	Source *types.Source
	Score  float64
}

// VectorHit is one nearest-neighbor match with its cosine distance in
// [0, 2], smaller is closer.
type VectorHit struct {
	Chunk    *types.Chunk
	Source   *types.Source
	Distance float64
}

// ChunkSearcher serves the two retrieval legs.
//
// SearchChunksFTS accepts either plain text or a weighted query of the
// form "term:A | term:B" where the letter is a lexical weight class
// (A strongest). Implementations that cannot honor weight classes may
// ignore them.
type ChunkSearcher interface {
	SearchChunksFTS(ctx context.Context, query string, limit int, filter *Filter) ([]FTSHit, error)
	SearchChunksByVector(ctx context.Context, embedding []float32, limit int, filter *Filter) ([]VectorHit, error)
}

// ConceptGraph serves concept lookup and adjacency. Adjacency and
// chunk-link reads are batched: one call covers a whole frontier or
// candidate set.
type ConceptGraph interface {
	// GetConcepts resolves concept ids to concepts. Unknown ids are
	// silently omitted.
	GetConcepts(ctx context.Context, ids []string) ([]*types.Concept, error)

	// CountConcepts reports the size of the concept inventory.
	CountConcepts(ctx context.Context) (int, error)

	// MatchConcepts finds concepts whose name or aliases occur in the
	// text, most specific first, up to limit.
	MatchConcepts(ctx context.Context, text string, limit int) ([]*types.Concept, error)

	// RelationshipsFrom returns the outgoing edges of every listed
	// concept, keyed by source concept id.
	RelationshipsFrom(ctx context.Context, conceptIDs []string) (map[string][]*types.ConceptRelationship, error)

	// ConceptsForChunks returns the concept ids linked to each chunk,
	// keyed by chunk id. Chunks with no links are absent from the map.
	ConceptsForChunks(ctx context.Context, chunkIDs []string) (map[string][]string, error)
}

// CitationIndex serves the citation graph and its precomputed authority
// scores.
type CitationIndex interface {
	// CitationAuthority returns the authority score of each listed
	// source, keyed by source id. Sources without a score are absent.
	CitationAuthority(ctx context.Context, sourceIDs []string) (map[string]float64, error)

	// SourceIDs lists every source id, for the offline authority job.
	SourceIDs(ctx context.Context) ([]string, error)

	// CitationEdges lists every citation edge.
	CitationEdges(ctx context.Context) ([]types.CitationEdge, error)

	// SetCitationAuthority persists recomputed authority scores.
	SetCitationAuthority(ctx context.Context, scores map[string]float64) error

	// CitingSources returns sources that cite the given source.
	CitingSources(ctx context.Context, sourceID string) ([]*types.Source, error)

	// CitedSources returns sources the given source cites.
	CitedSources(ctx context.Context, sourceID string) ([]*types.Source, error)
}

// Store composes every capability the pipeline needs. Components should
// depend on the narrowest of the interfaces above instead.
type Store interface {
	ChunkSearcher
	ConceptGraph
	CitationIndex

	Close(ctx context.Context) error
}

// Compile-time checks that the implementations satisfy the contract.
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*Neo4jStore)(nil)
)
