package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/researchkb/researchkb/pkg/types"
)

const (
	chunkFulltextIndex = "chunk_content"
	chunkVectorIndex   = "chunk_embedding"
)

// Neo4jStore implements Store against a Neo4j database holding the
// corpus and concept graph. Chunks carry a full-text index on content
// and a vector index on embeddings; concepts and sources are nodes,
// relationships and citations are typed edges.
type Neo4jStore struct {
	client   neo4j.DriverWithContext
	database string
}

// NewNeo4jStore connects to a Neo4j instance.
func NewNeo4jStore(uri, username, password, database string) (*Neo4jStore, error) {
	client, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if database == "" {
		database = "neo4j"
	}
	return &Neo4jStore{client: client, database: database}, nil
}

func (n *Neo4jStore) session(ctx context.Context) neo4j.SessionWithContext {
	return n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
}

func (n *Neo4jStore) read(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
	session := n.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*neo4j.Record), nil
}

func (n *Neo4jStore) SearchChunksFTS(ctx context.Context, query string, limit int, filter *Filter) ([]FTSHit, error) {
	cypher := `
		CALL db.index.fulltext.queryNodes($index, $query)
		YIELD node, score
		MATCH (s:Source {id: node.source_id})
		WHERE $sourceType = '' OR s.source_type = $sourceType
		RETURN node, s, score
		ORDER BY score DESC
		LIMIT $limit
	`
	records, err := n.read(ctx, cypher, map[string]any{
		"index":      chunkFulltextIndex,
		"query":      luceneQuery(query),
		"sourceType": filterSourceType(filter),
		"limit":      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("fulltext query failed: %w", err)
	}

	hits := make([]FTSHit, 0, len(records))
	for _, record := range records {
		chunk, source, err := chunkSourceFromRecord(record)
		if err != nil {
			return nil, err
		}
		score, _ := record.Get("score")
		hits = append(hits, FTSHit{Chunk: chunk, Source: source, Score: asFloat(score)})
	}
	return hits, nil
}

func (n *Neo4jStore) SearchChunksByVector(ctx context.Context, embedding []float32, limit int, filter *Filter) ([]VectorHit, error) {
	cypher := `
		CALL db.index.vector.queryNodes($index, $limit, $embedding)
		YIELD node, score
		MATCH (s:Source {id: node.source_id})
		WHERE $sourceType = '' OR s.source_type = $sourceType
		RETURN node, s, score
	`
	records, err := n.read(ctx, cypher, map[string]any{
		"index":      chunkVectorIndex,
		"limit":      limit,
		"embedding":  embedding,
		"sourceType": filterSourceType(filter),
	})
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}

	hits := make([]VectorHit, 0, len(records))
	for _, record := range records {
		chunk, source, err := chunkSourceFromRecord(record)
		if err != nil {
			return nil, err
		}
		// The vector index yields cosine similarity normalized to
		// [0, 1]; convert back to cosine distance in [0, 2].
		score, _ := record.Get("score")
		distance := 2 * (1 - asFloat(score))
		hits = append(hits, VectorHit{Chunk: chunk, Source: source, Distance: distance})
	}
	return hits, nil
}

func (n *Neo4jStore) GetConcepts(ctx context.Context, ids []string) ([]*types.Concept, error) {
	records, err := n.read(ctx, `
		MATCH (c:Concept)
		WHERE c.id IN $ids
		RETURN c
	`, map[string]any{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("concept lookup failed: %w", err)
	}

	concepts := make([]*types.Concept, 0, len(records))
	for _, record := range records {
		value, _ := record.Get("c")
		node, ok := value.(dbtype.Node)
		if !ok {
			return nil, fmt.Errorf("unexpected type for concept: %T", value)
		}
		concepts = append(concepts, conceptFromNode(node))
	}
	return concepts, nil
}

func (n *Neo4jStore) CountConcepts(ctx context.Context) (int, error) {
	records, err := n.read(ctx, `MATCH (c:Concept) RETURN count(c) AS n`, nil)
	if err != nil {
		return 0, fmt.Errorf("concept count failed: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}
	value, _ := records[0].Get("n")
	count, _ := value.(int64)
	return int(count), nil
}

func (n *Neo4jStore) MatchConcepts(ctx context.Context, text string, limit int) ([]*types.Concept, error) {
	records, err := n.read(ctx, `
		MATCH (c:Concept)
		WITH c, [name IN [c.name, c.canonical_name] + coalesce(c.aliases, []) WHERE name <> '' AND toLower($text) CONTAINS toLower(name)] AS matched
		WHERE size(matched) > 0
		WITH c, reduce(longest = '', name IN matched | CASE WHEN size(name) > size(longest) THEN name ELSE longest END) AS best
		RETURN c
		ORDER BY size(best) DESC, c.id
		LIMIT $limit
	`, map[string]any{"text": text, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("concept match failed: %w", err)
	}

	concepts := make([]*types.Concept, 0, len(records))
	for _, record := range records {
		value, _ := record.Get("c")
		node, ok := value.(dbtype.Node)
		if !ok {
			return nil, fmt.Errorf("unexpected type for concept: %T", value)
		}
		concepts = append(concepts, conceptFromNode(node))
	}
	return concepts, nil
}

func (n *Neo4jStore) RelationshipsFrom(ctx context.Context, conceptIDs []string) (map[string][]*types.ConceptRelationship, error) {
	records, err := n.read(ctx, `
		MATCH (a:Concept)-[r:RELATES]->(b:Concept)
		WHERE a.id IN $ids
		RETURN a.id AS source, b.id AS target, r.id AS id, r.type AS type, r.confidence AS confidence
	`, map[string]any{"ids": conceptIDs})
	if err != nil {
		return nil, fmt.Errorf("adjacency query failed: %w", err)
	}

	out := make(map[string][]*types.ConceptRelationship)
	for _, record := range records {
		source := asString(record, "source")
		rel := &types.ConceptRelationship{
			ID:              asString(record, "id"),
			SourceConceptID: source,
			TargetConceptID: asString(record, "target"),
			Type:            types.RelationshipType(asString(record, "type")),
		}
		if v, ok := record.Get("confidence"); ok {
			rel.Confidence = asFloat(v)
		}
		out[source] = append(out[source], rel)
	}
	return out, nil
}

func (n *Neo4jStore) ConceptsForChunks(ctx context.Context, chunkIDs []string) (map[string][]string, error) {
	records, err := n.read(ctx, `
		MATCH (ch:Chunk)-[:MENTIONS]->(c:Concept)
		WHERE ch.id IN $ids
		RETURN ch.id AS chunk, collect(c.id) AS concepts
	`, map[string]any{"ids": chunkIDs})
	if err != nil {
		return nil, fmt.Errorf("chunk concept query failed: %w", err)
	}

	out := make(map[string][]string, len(records))
	for _, record := range records {
		chunkID := asString(record, "chunk")
		value, _ := record.Get("concepts")
		list, _ := value.([]any)
		ids := make([]string, 0, len(list))
		for _, v := range list {
			if s, ok := v.(string); ok {
				ids = append(ids, s)
			}
		}
		out[chunkID] = ids
	}
	return out, nil
}

func (n *Neo4jStore) CitationAuthority(ctx context.Context, sourceIDs []string) (map[string]float64, error) {
	records, err := n.read(ctx, `
		MATCH (s:Source)
		WHERE s.id IN $ids AND s.citation_authority IS NOT NULL
		RETURN s.id AS id, s.citation_authority AS authority
	`, map[string]any{"ids": sourceIDs})
	if err != nil {
		return nil, fmt.Errorf("citation authority query failed: %w", err)
	}

	out := make(map[string]float64, len(records))
	for _, record := range records {
		value, _ := record.Get("authority")
		out[asString(record, "id")] = asFloat(value)
	}
	return out, nil
}

func (n *Neo4jStore) SourceIDs(ctx context.Context) ([]string, error) {
	records, err := n.read(ctx, `MATCH (s:Source) RETURN s.id AS id ORDER BY id`, nil)
	if err != nil {
		return nil, fmt.Errorf("source listing failed: %w", err)
	}
	ids := make([]string, 0, len(records))
	for _, record := range records {
		ids = append(ids, asString(record, "id"))
	}
	return ids, nil
}

func (n *Neo4jStore) CitationEdges(ctx context.Context) ([]types.CitationEdge, error) {
	records, err := n.read(ctx, `
		MATCH (a:Source)-[:CITES]->(b:Source)
		RETURN a.id AS citing, b.id AS cited
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("citation edge query failed: %w", err)
	}
	edges := make([]types.CitationEdge, 0, len(records))
	for _, record := range records {
		edges = append(edges, types.CitationEdge{
			CitingSourceID: asString(record, "citing"),
			CitedSourceID:  asString(record, "cited"),
		})
	}
	return edges, nil
}

func (n *Neo4jStore) SetCitationAuthority(ctx context.Context, scores map[string]float64) error {
	rows := make([]map[string]any, 0, len(scores))
	for id, score := range scores {
		rows = append(rows, map[string]any{"id": id, "authority": score})
	}

	session := n.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			UNWIND $rows AS row
			MATCH (s:Source {id: row.id})
			SET s.citation_authority = row.authority
		`, map[string]any{"rows": rows})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to persist citation authority: %w", err)
	}
	return nil
}

func (n *Neo4jStore) CitingSources(ctx context.Context, sourceID string) ([]*types.Source, error) {
	return n.citationNeighbors(ctx, `
		MATCH (a:Source)-[:CITES]->(b:Source {id: $id})
		RETURN a AS s
	`, sourceID)
}

func (n *Neo4jStore) CitedSources(ctx context.Context, sourceID string) ([]*types.Source, error) {
	return n.citationNeighbors(ctx, `
		MATCH (a:Source {id: $id})-[:CITES]->(b:Source)
		RETURN b AS s
	`, sourceID)
}

func (n *Neo4jStore) citationNeighbors(ctx context.Context, cypher, sourceID string) ([]*types.Source, error) {
	records, err := n.read(ctx, cypher, map[string]any{"id": sourceID})
	if err != nil {
		return nil, fmt.Errorf("citation neighbor query failed: %w", err)
	}
	sources := make([]*types.Source, 0, len(records))
	for _, record := range records {
		value, _ := record.Get("s")
		node, ok := value.(dbtype.Node)
		if !ok {
			return nil, fmt.Errorf("unexpected type for source: %T", value)
		}
		sources = append(sources, sourceFromNode(node))
	}
	return sources, nil
}

func (n *Neo4jStore) Close(ctx context.Context) error {
	return n.client.Close(ctx)
}

// luceneQuery rewrites the pipeline's weighted query form
// ("token:A | token:B") into Lucene syntax for the full-text index:
// class-A tokens are boosted, lower classes kept plain, everything
// OR-joined. Lucene would otherwise read "token:A" as a field-scoped
// term on a nonexistent field. Plain tokens pass through unchanged.
func luceneQuery(query string) string {
	var parts []string
	for _, token := range strings.Fields(query) {
		if token == "|" {
			continue
		}
		if base, class, ok := strings.Cut(token, ":"); ok && base != "" {
			switch class {
			case "A":
				parts = append(parts, base+"^2")
				continue
			case "B", "C", "D":
				parts = append(parts, base)
				continue
			}
		}
		parts = append(parts, token)
	}
	return strings.Join(parts, " OR ")
}

func filterSourceType(filter *Filter) string {
	if filter == nil {
		return ""
	}
	return string(filter.SourceType)
}

func chunkSourceFromRecord(record *neo4j.Record) (*types.Chunk, *types.Source, error) {
	nodeValue, _ := record.Get("node")
	chunkNode, ok := nodeValue.(dbtype.Node)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected type for chunk: %T", nodeValue)
	}
	sourceValue, _ := record.Get("s")
	sourceNode, ok := sourceValue.(dbtype.Node)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected type for source: %T", sourceValue)
	}
	return chunkFromNode(chunkNode), sourceFromNode(sourceNode), nil
}

func chunkFromNode(node dbtype.Node) *types.Chunk {
	chunk := &types.Chunk{
		ID:        propString(node, "id"),
		SourceID:  propString(node, "source_id"),
		Content:   propString(node, "content"),
		PageStart: int(propInt(node, "page_start")),
		PageEnd:   int(propInt(node, "page_end")),
	}
	if raw, ok := node.Props["embedding"].([]any); ok {
		embedding := make([]float32, 0, len(raw))
		for _, v := range raw {
			if f, ok := v.(float64); ok {
				embedding = append(embedding, float32(f))
			}
		}
		chunk.Embedding = embedding
	}
	return chunk
}

func sourceFromNode(node dbtype.Node) *types.Source {
	source := &types.Source{
		ID:    propString(node, "id"),
		Title: propString(node, "title"),
		Year:  int(propInt(node, "year")),
		Type:  types.SourceType(propString(node, "source_type")),
	}
	if raw, ok := node.Props["authors"].([]any); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				source.Authors = append(source.Authors, s)
			}
		}
	}
	if f, ok := node.Props["citation_authority"].(float64); ok {
		source.CitationAuthority = f
	}
	return source
}

func conceptFromNode(node dbtype.Node) *types.Concept {
	concept := &types.Concept{
		ID:            propString(node, "id"),
		Name:          propString(node, "name"),
		CanonicalName: propString(node, "canonical_name"),
		Type:          propString(node, "concept_type"),
		Description:   propString(node, "description"),
	}
	if raw, ok := node.Props["aliases"].([]any); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				concept.Aliases = append(concept.Aliases, s)
			}
		}
	}
	return concept
}

func propString(node dbtype.Node, key string) string {
	if s, ok := node.Props[key].(string); ok {
		return s
	}
	return ""
}

func propInt(node dbtype.Node, key string) int64 {
	if i, ok := node.Props[key].(int64); ok {
		return i
	}
	return 0
}

func asString(record *neo4j.Record, key string) string {
	if v, ok := record.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func asFloat(v any) float64 {
	switch f := v.(type) {
	case float64:
		return f
	case int64:
		return float64(f)
	default:
		return 0
	}
}
