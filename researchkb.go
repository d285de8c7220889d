package researchkb

import (
	"context"
	"log/slog"
	"time"

	"github.com/researchkb/researchkb/pkg/embedder"
	"github.com/researchkb/researchkb/pkg/expand"
	"github.com/researchkb/researchkb/pkg/graph"
	"github.com/researchkb/researchkb/pkg/search"
	"github.com/researchkb/researchkb/pkg/store"
	"github.com/researchkb/researchkb/pkg/types"
)

// Config holds configuration for the ResearchKB client.
type Config struct {
	// FetchMultiplier scales the candidate window fetched for the
	// reranker. Zero selects the pipeline default.
	FetchMultiplier int
	// WeightedGraph selects relationship-weighted graph scoring with
	// path explanations on results.
	WeightedGraph bool
	// SoftTimeout bounds each optional pipeline stage. Zero disables
	// the bound.
	SoftTimeout time.Duration
	// Authority tunes the offline citation authority computation.
	// Zero value selects graph.DefaultAuthorityConfig.
	Authority graph.AuthorityConfig
}

// Client is the main implementation of the ResearchKB interface.
type Client struct {
	store    store.Store
	searcher *search.Searcher
	config   *Config
	logger   *slog.Logger
}

// NewClient creates a new ResearchKB client over the given store. The
// store is the only required component; attach an embedder, expander
// and reranker with the Set methods to enable the optional stages.
func NewClient(s store.Store, config *Config, logger *slog.Logger) *Client {
	if config == nil {
		config = &Config{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	searcher := search.NewSearcher(s, search.Config{
		FetchMultiplier: config.FetchMultiplier,
		WeightedGraph:   config.WeightedGraph,
		SoftTimeout:     config.SoftTimeout,
	}, logger)

	return &Client{
		store:    s,
		searcher: searcher,
		config:   config,
		logger:   logger,
	}
}

// SetEmbedder sets the client used to embed query text. Wrap it in an
// embedder.Cache to bound repeated embedding cost.
func (c *Client) SetEmbedder(client embedder.Client) {
	c.searcher.SetEmbedder(client)
}

// SetExpander sets the query expander.
func (c *Client) SetExpander(e *expand.Expander) {
	c.searcher.SetExpander(e)
}

// SetConceptMatcher replaces the default store-backed concept matcher.
func (c *Client) SetConceptMatcher(m expand.ConceptMatcher) {
	c.searcher.SetConceptMatcher(m)
}

// SetReranker sets the second-stage reranker.
func (c *Client) SetReranker(r *search.Reranker) {
	c.searcher.SetReranker(r)
}

// Searcher exposes the underlying pipeline for callers that need
// per-request control beyond Search.
func (c *Client) Searcher() *search.Searcher {
	return c.searcher
}

// Search executes the ranking pipeline for a query.
func (c *Client) Search(ctx context.Context, q *types.SearchQuery, opts search.Options) (*types.SearchResponse, error) {
	return c.searcher.Search(ctx, q, opts)
}

// SearchText is a convenience wrapper running a balanced hybrid search
// over plain text with default options.
func (c *Client) SearchText(ctx context.Context, text string, limit int) (*types.SearchResponse, error) {
	q := types.DefaultSearchQuery(text)
	if limit > 0 {
		q.Limit = limit
	}
	return c.searcher.Search(ctx, q, search.Options{})
}

// MatchConcepts resolves concept mentions in text against the concept
// inventory.
func (c *Client) MatchConcepts(ctx context.Context, text string, limit int) ([]*types.Concept, error) {
	return c.store.MatchConcepts(ctx, text, limit)
}

// ShortestPath finds the shortest relationship path between two
// concepts within maxHops, or nil when none exists.
func (c *Client) ShortestPath(ctx context.Context, fromID, toID string, maxHops int) (*graph.Path, error) {
	return graph.ShortestPath(ctx, c.store, fromID, toID, maxHops)
}

// Neighborhood returns the concepts reachable from a concept within
// maxHops, optionally restricted to the given relationship types.
func (c *Client) Neighborhood(ctx context.Context, conceptID string, maxHops int, relTypes []types.RelationshipType) (*graph.Neighborhood, error) {
	return graph.GetNeighborhood(ctx, c.store, conceptID, maxHops, relTypes)
}

// ComputeAuthority recomputes citation authority scores over the whole
// citation graph and persists them. Run it offline after ingesting
// sources, not per request.
func (c *Client) ComputeAuthority(ctx context.Context) (*graph.AuthorityStats, error) {
	cfg := c.config.Authority
	if cfg.Damping == 0 {
		cfg = graph.DefaultAuthorityConfig()
	}
	return graph.ComputeAuthority(ctx, c.store, cfg, c.logger)
}

// CitingSources returns the sources that cite the given source.
func (c *Client) CitingSources(ctx context.Context, sourceID string) ([]*types.Source, error) {
	return c.store.CitingSources(ctx, sourceID)
}

// CitedSources returns the sources the given source cites.
func (c *Client) CitedSources(ctx context.Context, sourceID string) ([]*types.Source, error) {
	return c.store.CitedSources(ctx, sourceID)
}

// Close closes the underlying store.
func (c *Client) Close(ctx context.Context) error {
	return c.store.Close(ctx)
}
