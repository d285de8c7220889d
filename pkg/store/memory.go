package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/researchkb/researchkb/pkg/types"
	"github.com/researchkb/researchkb/pkg/utils"
)

// MemoryStore is an in-memory Store used for tests and local corpora.
// Lexical scoring is term-frequency based with the same weight classes
// the SQL backends use, so ranking behavior matches within a batch.
type MemoryStore struct {
	mu sync.RWMutex

	sources       map[string]*types.Source
	chunks        map[string]*types.Chunk
	concepts      map[string]*types.Concept
	relationships map[string][]*types.ConceptRelationship
	chunkConcepts map[string][]string
	citations     []types.CitationEdge
	authority     map[string]float64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sources:       make(map[string]*types.Source),
		chunks:        make(map[string]*types.Chunk),
		concepts:      make(map[string]*types.Concept),
		relationships: make(map[string][]*types.ConceptRelationship),
		chunkConcepts: make(map[string][]string),
		authority:     make(map[string]float64),
	}
}

// AddSource registers a source.
func (m *MemoryStore) AddSource(s *types.Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[s.ID] = s
	if s.CitationAuthority > 0 {
		m.authority[s.ID] = s.CitationAuthority
	}
}

// AddChunk registers a chunk.
func (m *MemoryStore) AddChunk(c *types.Chunk) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks[c.ID] = c
}

// AddConcept registers a concept.
func (m *MemoryStore) AddConcept(c *types.Concept) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.concepts[c.ID] = c
}

// AddRelationship registers a directed concept edge.
func (m *MemoryStore) AddRelationship(r *types.ConceptRelationship) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relationships[r.SourceConceptID] = append(m.relationships[r.SourceConceptID], r)
}

// LinkChunkConcept links a chunk to a concept.
func (m *MemoryStore) LinkChunkConcept(chunkID, conceptID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunkConcepts[chunkID] = append(m.chunkConcepts[chunkID], conceptID)
}

// AddCitation records that citing cites cited.
func (m *MemoryStore) AddCitation(citingSourceID, citedSourceID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.citations = append(m.citations, types.CitationEdge{
		CitingSourceID: citingSourceID,
		CitedSourceID:  citedSourceID,
	})
}

// ftsTerm is one parsed token of a weighted full-text query.
type ftsTerm struct {
	token  string
	weight float64
}

// lexicalWeights maps weight classes to the multipliers PostgreSQL
// assigns by default, so in-memory ranking mirrors the SQL backends.
var lexicalWeights = map[string]float64{
	"A": 1.0,
	"B": 0.4,
	"C": 0.2,
	"D": 0.1,
}

func parseFTSQuery(query string) []ftsTerm {
	var terms []ftsTerm
	for _, part := range strings.Split(query, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		token, class, hasClass := strings.Cut(part, ":")
		weight := 1.0
		if hasClass {
			if w, ok := lexicalWeights[strings.ToUpper(class)]; ok {
				weight = w
			}
		}
		terms = append(terms, ftsTerm{token: strings.ToLower(token), weight: weight})
	}
	return terms
}

func (m *MemoryStore) SearchChunksFTS(ctx context.Context, query string, limit int, filter *Filter) ([]FTSHit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	terms := parseFTSQuery(query)
	if len(terms) == 0 {
		return nil, nil
	}

	var scored []utils.ScoredItem[FTSHit]
	for _, chunk := range m.chunks {
		source := m.sources[chunk.SourceID]
		if !m.matchesFilter(source, filter) {
			continue
		}
		content := strings.ToLower(chunk.Content)
		var score float64
		for _, t := range terms {
			score += float64(strings.Count(content, t.token)) * t.weight
		}
		if score <= 0 {
			continue
		}
		scored = append(scored, utils.ScoredItem[FTSHit]{
			Item:  FTSHit{Chunk: chunk, Source: source, Score: score},
			Score: score,
		})
	}

	top := utils.TopKByScore(scored, limit)
	hits := make([]FTSHit, len(top))
	for i, s := range top {
		hits[i] = s.Item
	}
	return hits, nil
}

func (m *MemoryStore) SearchChunksByVector(ctx context.Context, embedding []float32, limit int, filter *Filter) ([]VectorHit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var scored []utils.ScoredItem[VectorHit]
	for _, chunk := range m.chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		source := m.sources[chunk.SourceID]
		if !m.matchesFilter(source, filter) {
			continue
		}
		distance := utils.CosineDistance(embedding, chunk.Embedding)
		scored = append(scored, utils.ScoredItem[VectorHit]{
			Item:  VectorHit{Chunk: chunk, Source: source, Distance: distance},
			Score: -distance,
		})
	}

	top := utils.TopKByScore(scored, limit)
	hits := make([]VectorHit, len(top))
	for i, s := range top {
		hits[i] = s.Item
	}
	return hits, nil
}

func (m *MemoryStore) matchesFilter(source *types.Source, filter *Filter) bool {
	if filter == nil || filter.SourceType == "" {
		return true
	}
	return source != nil && source.Type == filter.SourceType
}

func (m *MemoryStore) GetConcepts(ctx context.Context, ids []string) ([]*types.Concept, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	concepts := make([]*types.Concept, 0, len(ids))
	for _, id := range ids {
		if c, ok := m.concepts[id]; ok {
			concepts = append(concepts, c)
		}
	}
	return concepts, nil
}

func (m *MemoryStore) CountConcepts(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.concepts), nil
}

func (m *MemoryStore) MatchConcepts(ctx context.Context, text string, limit int) ([]*types.Concept, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lower := strings.ToLower(text)
	type match struct {
		concept *types.Concept
		nameLen int
	}
	var matches []match
	for _, c := range m.concepts {
		names := append([]string{c.Name, c.CanonicalName}, c.Aliases...)
		for _, name := range names {
			if name == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(name)) {
				matches = append(matches, match{concept: c, nameLen: len(name)})
				break
			}
		}
	}

	// Longest matched name first: more specific concepts win.
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].nameLen != matches[j].nameLen {
			return matches[i].nameLen > matches[j].nameLen
		}
		return matches[i].concept.ID < matches[j].concept.ID
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	concepts := make([]*types.Concept, len(matches))
	for i, mt := range matches {
		concepts[i] = mt.concept
	}
	return concepts, nil
}

func (m *MemoryStore) RelationshipsFrom(ctx context.Context, conceptIDs []string) (map[string][]*types.ConceptRelationship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string][]*types.ConceptRelationship, len(conceptIDs))
	for _, id := range conceptIDs {
		if rels, ok := m.relationships[id]; ok {
			out[id] = rels
		}
	}
	return out, nil
}

func (m *MemoryStore) ConceptsForChunks(ctx context.Context, chunkIDs []string) (map[string][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string][]string, len(chunkIDs))
	for _, id := range chunkIDs {
		if concepts, ok := m.chunkConcepts[id]; ok {
			out[id] = concepts
		}
	}
	return out, nil
}

func (m *MemoryStore) CitationAuthority(ctx context.Context, sourceIDs []string) (map[string]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]float64, len(sourceIDs))
	for _, id := range sourceIDs {
		if score, ok := m.authority[id]; ok {
			out[id] = score
		}
	}
	return out, nil
}

func (m *MemoryStore) SourceIDs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sources))
	for id := range m.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryStore) CitationEdges(ctx context.Context) ([]types.CitationEdge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	edges := make([]types.CitationEdge, len(m.citations))
	copy(edges, m.citations)
	return edges, nil
}

func (m *MemoryStore) SetCitationAuthority(ctx context.Context, scores map[string]float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, score := range scores {
		m.authority[id] = score
		if s, ok := m.sources[id]; ok {
			s.CitationAuthority = score
		}
	}
	return nil
}

func (m *MemoryStore) CitingSources(ctx context.Context, sourceID string) ([]*types.Source, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*types.Source
	for _, edge := range m.citations {
		if edge.CitedSourceID == sourceID {
			if s, ok := m.sources[edge.CitingSourceID]; ok {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func (m *MemoryStore) CitedSources(ctx context.Context, sourceID string) ([]*types.Source, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*types.Source
	for _, edge := range m.citations {
		if edge.CitingSourceID == sourceID {
			if s, ok := m.sources[edge.CitedSourceID]; ok {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func (m *MemoryStore) Close(ctx context.Context) error {
	return nil
}
