package researchkb

import (
	"context"

	"github.com/researchkb/researchkb/pkg/graph"
	"github.com/researchkb/researchkb/pkg/search"
	"github.com/researchkb/researchkb/pkg/types"
)

// This file defines focused interfaces that follow the Interface Segregation Principle.
// Consumers should depend on the smallest interface that meets their needs.

// Searcher provides the ranking pipeline entry points.
// Use this interface when you only need to run searches.
type Searcher interface {
	// Search executes the ranking pipeline for a query.
	Search(ctx context.Context, q *types.SearchQuery, opts search.Options) (*types.SearchResponse, error)

	// SearchText runs a balanced hybrid search over plain text with
	// default options.
	SearchText(ctx context.Context, text string, limit int) (*types.SearchResponse, error)
}

// ConceptNavigator provides read-only traversal of the concept graph.
// Use this interface for explanation and exploration endpoints.
type ConceptNavigator interface {
	// MatchConcepts resolves concept mentions in text against the
	// concept inventory.
	MatchConcepts(ctx context.Context, text string, limit int) ([]*types.Concept, error)

	// ShortestPath finds the shortest relationship path between two
	// concepts within maxHops, or nil when none exists.
	ShortestPath(ctx context.Context, fromID, toID string, maxHops int) (*graph.Path, error)

	// Neighborhood returns the concepts reachable from a concept
	// within maxHops, optionally restricted to relationship types.
	Neighborhood(ctx context.Context, conceptID string, maxHops int, relTypes []types.RelationshipType) (*graph.Neighborhood, error)
}

// CitationAnalyzer provides operations over the citation graph.
type CitationAnalyzer interface {
	// ComputeAuthority recomputes citation authority scores over the
	// whole citation graph and persists them.
	ComputeAuthority(ctx context.Context) (*graph.AuthorityStats, error)

	// CitingSources returns the sources that cite the given source.
	CitingSources(ctx context.Context, sourceID string) ([]*types.Source, error)

	// CitedSources returns the sources the given source cites.
	CitedSources(ctx context.Context, sourceID string) ([]*types.Source, error)
}

// ResearchKB is the full client surface, composed from the focused
// interfaces plus lifecycle management.
type ResearchKB interface {
	Searcher
	ConceptNavigator
	CitationAnalyzer

	// Close closes all connections and cleans up resources.
	Close(ctx context.Context) error
}

// Compile-time check that Client implements the composed interface.
var _ ResearchKB = (*Client)(nil)
