// Package search implements the ranking pipeline: weight
// normalization, lexical/vector/hybrid retrieval, graph and citation
// boosting, score fusion and cross-encoder reranking.
package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/researchkb/researchkb/pkg/embedder"
	"github.com/researchkb/researchkb/pkg/expand"
	"github.com/researchkb/researchkb/pkg/graph"
	"github.com/researchkb/researchkb/pkg/store"
	"github.com/researchkb/researchkb/pkg/types"
)

const (
	defaultMaxHops = 2
	// maxQueryConcepts bounds how many concepts are matched from the
	// query text for graph scoring.
	maxQueryConcepts = 5
)

// Config tunes pipeline behavior shared across requests.
type Config struct {
	// FetchMultiplier scales the stage-1 candidate window when a
	// reranker will run. Zero selects DefaultFetchMultiplier.
	FetchMultiplier int
	// WeightedGraph selects the relationship-weighted graph scorer and
	// enables path explanations on results.
	WeightedGraph bool
	// SoftTimeout bounds each optional stage (concept matching, graph
	// scoring, citation lookup). Zero disables the bound.
	SoftTimeout time.Duration
}

// Searcher drives one search request through the pipeline. The store
// is required; embedder, expander, matcher and reranker are optional
// and their absence disables the corresponding stage.
type Searcher struct {
	store    store.Store
	config   Config
	logger   *slog.Logger
	embedder embedder.Client
	matcher  expand.ConceptMatcher
	expander *expand.Expander
	reranker *Reranker
}

// NewSearcher creates a searcher over the given store.
func NewSearcher(s store.Store, config Config, logger *slog.Logger) *Searcher {
	if config.FetchMultiplier <= 0 {
		config.FetchMultiplier = DefaultFetchMultiplier
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{
		store:   s,
		config:  config,
		logger:  logger,
		matcher: storeMatcher{s},
	}
}

// SetEmbedder sets the client used to embed text queries. Wrap it in
// an embedder.Cache to bound repeated query embedding cost.
func (s *Searcher) SetEmbedder(client embedder.Client) {
	s.embedder = client
}

// SetExpander sets the query expander.
func (s *Searcher) SetExpander(e *expand.Expander) {
	s.expander = e
}

// SetConceptMatcher replaces the default store-backed concept matcher,
// e.g. with a span-model matcher.
func (s *Searcher) SetConceptMatcher(m expand.ConceptMatcher) {
	s.matcher = m
}

// SetReranker sets the second-stage reranker.
func (s *Searcher) SetReranker(r *Reranker) {
	s.reranker = r
}

// Options selects per-request optional stages.
type Options struct {
	Expand    expand.Options
	UseRerank bool
}

// Search executes the full pipeline. Configuration and mandatory-stage
// failures return an error; optional signals degrade to zero and are
// listed in the response's Degraded field.
func (s *Searcher) Search(ctx context.Context, q *types.SearchQuery, opts Options) (*types.SearchResponse, error) {
	start := time.Now()

	weights, err := NormalizeWeights(q)
	if err != nil {
		return nil, err
	}

	response := &types.SearchResponse{Query: q.Text}

	// Expansion only applies to the lexical leg.
	var ftsQuery string
	wantExpand := opts.Expand.UseSynonyms || opts.Expand.UseGraph || opts.Expand.UseLLM
	if wantExpand && s.expander != nil && q.Text != "" {
		expanded := s.expander.Expand(ctx, q.Text, opts.Expand)
		if len(expanded.Terms) > 0 {
			ftsQuery = expanded.FTSQuery
			response.ExpandedQuery = expanded.ExpandedText()
		}
	}

	// The query stays immutable; the effective copy carries a
	// generated embedding when the caller supplied none.
	effective := *q
	if len(effective.Embedding) == 0 && effective.Text != "" && s.embedder != nil {
		embedStart := time.Now()
		embedding, err := s.embedder.EmbedSingle(ctx, effective.Text)
		if err != nil {
			return nil, types.NewRetrievalError("embedding", err)
		}
		effective.Embedding = embedding
		response.EmbeddingMs = float64(time.Since(embedStart).Microseconds()) / 1000
	}

	rerankActive := opts.UseRerank && s.reranker != nil
	fetchLimit := q.Limit
	if rerankActive {
		fetchLimit = q.Limit * s.config.FetchMultiplier
	}

	searchStart := time.Now()
	candidates, err := NewRetriever(s.store).Retrieve(ctx, &effective, ftsQuery, fetchLimit)
	if err != nil {
		return nil, err
	}

	graphContributed := false
	if q.UseGraph && weights.Graph > 0 {
		contributed, err := s.applyGraphScores(ctx, q, candidates)
		if err != nil {
			s.logger.Warn("graph signal degraded", "error", err)
			response.Degraded = append(response.Degraded, "graph")
		}
		graphContributed = contributed
	}

	citationContributed := false
	if q.UseCitations && weights.Citation > 0 {
		contributed, err := s.applyCitationScores(ctx, candidates)
		if err != nil {
			s.logger.Warn("citation signal degraded", "error", err)
			response.Degraded = append(response.Degraded, "citation")
		}
		citationContributed = contributed
	}

	// Signals that contributed nothing are dropped and the remainder
	// renormalized, so an inert optional signal cannot dilute ranking.
	effectiveWeights := Renormalize(weights,
		weights.Graph > 0 && !graphContributed,
		weights.Citation > 0 && !citationContributed)

	results := Fuse(candidates, effectiveWeights)
	response.SearchMs = float64(time.Since(searchStart).Microseconds()) / 1000

	if rerankActive {
		results = s.reranker.Rerank(ctx, q.Text, results, q.Limit)
	} else {
		results = Truncate(results, q.Limit)
	}

	response.Results = results
	response.ExecutionMs = float64(time.Since(start).Microseconds()) / 1000

	s.logger.Info("search complete",
		"query", truncateForLog(q.Text, 50),
		"results", len(results),
		"execution_ms", response.ExecutionMs)
	return response, nil
}

// applyGraphScores attaches graph relevance to every candidate in one
// batched pass: one concept match over the query, one chunk-concept
// lookup over the whole candidate set, then memoized pair scoring.
// Returns whether any candidate received a positive score.
func (s *Searcher) applyGraphScores(ctx context.Context, q *types.SearchQuery, candidates []*Candidate) (bool, error) {
	if len(candidates) == 0 {
		return false, nil
	}

	softCtx := ctx
	if s.config.SoftTimeout > 0 {
		var cancel context.CancelFunc
		softCtx, cancel = context.WithTimeout(ctx, s.config.SoftTimeout)
		defer cancel()
	}

	// An empty concept inventory disables the signal for the request
	// without counting as degradation.
	count, err := s.store.CountConcepts(softCtx)
	if err != nil {
		return false, types.NewSoftSignalError("graph", err)
	}
	if count == 0 {
		s.logger.Warn("no concepts in inventory, graph scoring skipped")
		return false, nil
	}

	queryConcepts, err := s.matcher.MatchConcepts(softCtx, q.Text, maxQueryConcepts)
	if err != nil {
		return false, types.NewSoftSignalError("graph", err)
	}
	if len(queryConcepts) == 0 {
		return false, nil
	}
	queryConceptIDs := make([]string, len(queryConcepts))
	for i, c := range queryConcepts {
		queryConceptIDs[i] = c.ID
	}

	chunkIDs := make([]string, len(candidates))
	for i, c := range candidates {
		chunkIDs[i] = c.Chunk.ID
	}
	chunkConcepts, err := s.store.ConceptsForChunks(softCtx, chunkIDs)
	if err != nil {
		return false, types.NewSoftSignalError("graph", err)
	}

	maxHops := q.MaxHops
	if maxHops <= 0 {
		maxHops = defaultMaxHops
	}
	scorer := graph.NewScorer(s.store, maxHops, s.config.WeightedGraph)
	scores, explanations, err := scorer.ScoreChunks(softCtx, queryConceptIDs, chunkConcepts)
	if err != nil {
		return false, types.NewSoftSignalError("graph", err)
	}

	contributed := false
	for _, c := range candidates {
		c.ConceptIDs = chunkConcepts[c.Chunk.ID]
		c.Graph = scores[c.Chunk.ID]
		c.GraphExplanations = explanations[c.Chunk.ID]
		if c.Graph > 0 {
			contributed = true
		}
	}
	return contributed, nil
}

// applyCitationScores attaches each candidate source's precomputed
// citation authority with one batched lookup.
func (s *Searcher) applyCitationScores(ctx context.Context, candidates []*Candidate) (bool, error) {
	if len(candidates) == 0 {
		return false, nil
	}

	softCtx := ctx
	if s.config.SoftTimeout > 0 {
		var cancel context.CancelFunc
		softCtx, cancel = context.WithTimeout(ctx, s.config.SoftTimeout)
		defer cancel()
	}

	seen := make(map[string]bool)
	var sourceIDs []string
	for _, c := range candidates {
		if c.Source != nil && !seen[c.Source.ID] {
			seen[c.Source.ID] = true
			sourceIDs = append(sourceIDs, c.Source.ID)
		}
	}

	authority, err := s.store.CitationAuthority(softCtx, sourceIDs)
	if err != nil {
		return false, types.NewSoftSignalError("citation", err)
	}

	contributed := false
	for _, c := range candidates {
		if c.Source == nil {
			continue
		}
		c.Citation = authority[c.Source.ID]
		if c.Citation > 0 {
			contributed = true
		}
	}
	return contributed, nil
}

// storeMatcher is the default concept matcher, alias matching through
// the store.
type storeMatcher struct {
	graph store.ConceptGraph
}

func (m storeMatcher) MatchConcepts(ctx context.Context, text string, limit int) ([]*types.Concept, error) {
	return m.graph.MatchConcepts(ctx, text, limit)
}

func truncateForLog(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
