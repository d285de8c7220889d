package types

import (
	"time"
)

// EmbeddingDim is the dimensionality of chunk and query embeddings.
const EmbeddingDim = 1024

// SourceType classifies where a source document comes from.
type SourceType string

const (
	PaperSourceType    SourceType = "paper"
	TextbookSourceType SourceType = "textbook"
)

// Source represents a document in the corpus (a paper or a textbook).
type Source struct {
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Authors []string   `json:"authors,omitempty"`
	Year    int        `json:"year,omitempty"`
	Type    SourceType `json:"source_type,omitempty"`

	// CitationAuthority is the precomputed PageRank authority of this
	// source within the citation graph, rescaled to [0, 1].
	CitationAuthority float64 `json:"citation_authority"`

	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at,omitempty"`
}

// Chunk is a contiguous span of source text, the unit of retrieval.
type Chunk struct {
	ID        string `json:"id"`
	SourceID  string `json:"source_id"`
	Content   string `json:"content"`
	PageStart int    `json:"page_start,omitempty"`
	PageEnd   int    `json:"page_end,omitempty"`

	// Embedding is the dense vector for the chunk content. When present
	// it has EmbeddingDim elements.
	Embedding []float32 `json:"embedding,omitempty"`

	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at,omitempty"`
}

// Section returns the section header the chunk was extracted from, if the
// extractor recorded one.
func (c *Chunk) Section() string {
	if c.Metadata == nil {
		return ""
	}
	if s, ok := c.Metadata["section_header"].(string); ok {
		return s
	}
	return ""
}

// Concept is a node in the knowledge graph.
type Concept struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	CanonicalName string    `json:"canonical_name,omitempty"`
	Aliases       []string  `json:"aliases,omitempty"`
	Type          string    `json:"concept_type,omitempty"`
	Description   string    `json:"description,omitempty"`
	Embedding     []float32 `json:"embedding,omitempty"`
}

// RelationshipType is the kind of a directed concept-to-concept edge.
type RelationshipType string

const (
	RelRequires      RelationshipType = "REQUIRES"
	RelExtends       RelationshipType = "EXTENDS"
	RelUses          RelationshipType = "USES"
	RelAddresses     RelationshipType = "ADDRESSES"
	RelSpecializes   RelationshipType = "SPECIALIZES"
	RelGeneralizes   RelationshipType = "GENERALIZES"
	RelAlternativeTo RelationshipType = "ALTERNATIVE_TO"
)

// relationshipWeights maps each relationship kind to its traversal weight.
// Stronger dependencies contribute more to graph relevance.
var relationshipWeights = map[RelationshipType]float64{
	RelRequires:      1.0,
	RelExtends:       0.9,
	RelUses:          0.8,
	RelAddresses:     0.7,
	RelSpecializes:   0.6,
	RelGeneralizes:   0.6,
	RelAlternativeTo: 0.5,
}

// Weight returns the traversal weight of the relationship type. Unknown
// kinds score 0.5 so additions to the edge taxonomy degrade gracefully.
func (t RelationshipType) Weight() float64 {
	if w, ok := relationshipWeights[t]; ok {
		return w
	}
	return 0.5
}

// ConceptRelationship is a typed, directed edge between two concepts.
type ConceptRelationship struct {
	ID              string           `json:"id"`
	SourceConceptID string           `json:"source_concept_id"`
	TargetConceptID string           `json:"target_concept_id"`
	Type            RelationshipType `json:"relationship_type"`
	Confidence      float64          `json:"confidence,omitempty"`
	Evidence        string           `json:"evidence,omitempty"`
}

// ChunkConcept links a chunk to a concept mentioned in it.
type ChunkConcept struct {
	ChunkID     string  `json:"chunk_id"`
	ConceptID   string  `json:"concept_id"`
	MentionType string  `json:"mention_type,omitempty"`
	Relevance   float64 `json:"relevance,omitempty"`
}

// CitationEdge records that one source cites another.
type CitationEdge struct {
	CitingSourceID string `json:"citing_source_id"`
	CitedSourceID  string `json:"cited_source_id"`
}
