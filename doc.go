// Package researchkb provides hybrid retrieval over a research
// knowledge base, combining full-text search, vector similarity,
// knowledge-graph proximity and citation authority into one ranked
// result list.
//
// # Basic Usage
//
// Create a client over a store and attach the optional components:
//
//	// Connect to Neo4j
//	st, err := store.NewNeo4jStore("bolt://localhost:7687", "neo4j", "password", "neo4j")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer st.Close(ctx)
//
//	client := researchkb.NewClient(st, nil, nil)
//
//	// Optional: embed queries locally
//	emb, err := embedder.NewEmbedEverythingClient(embedder.Config{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	client.SetEmbedder(embedder.NewCache(emb, embedder.DefaultCacheCapacity))
//
// # Searching
//
// Queries carry per-signal weights; the pipeline normalizes them,
// retrieves candidates, boosts with graph and citation signals, and
// fuses the scores:
//
//	q := types.DefaultSearchQuery("instrumental variables weak instruments")
//	q.UseGraph = true
//	resp, err := client.Search(ctx, q, search.Options{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, r := range resp.Results {
//		fmt.Printf("%d. %.3f %s\n", r.Rank, r.CombinedScore, r.Source.Title)
//	}
//
// Context presets pick weight profiles for common workflows:
//
//	fts, vec := types.BuildingContext.Weights() // 0.2 / 0.8
//
// # Signal Degradation
//
// FTS and vector retrieval are mandatory and fail the request. Graph
// and citation scoring are soft signals: when one fails or contributes
// nothing its weight is dropped, the remaining weights are
// renormalized, and the response's Degraded field records what was
// lost. Reranking likewise falls back to the fused ordering on any
// failure.
//
// # Citation Authority
//
// Authority scores are computed offline over the citation graph and
// persisted on sources:
//
//	stats, err := client.ComputeAuthority(ctx)
//
// # Architecture
//
//   - pkg/store: storage abstraction (Neo4j, in-memory)
//   - pkg/search: the ranking pipeline
//   - pkg/graph: traversal, graph scoring, citation authority
//   - pkg/expand: query expansion (synonyms, graph, LLM)
//   - pkg/embedder, pkg/crossencoder, pkg/nlp: model clients
//   - pkg/types: core type definitions
package researchkb
