package crossencoder

import (
	"context"
	"fmt"
	"sort"

	"github.com/researchkb/researchkb/pkg/embedder"
	"github.com/researchkb/researchkb/pkg/utils"
)

// EmbeddingRerankerClient reranks passages by cosine similarity of
// their embeddings to the query embedding. Weaker than a true
// cross-encoder but cheap and fully local.
type EmbeddingRerankerClient struct {
	embedder embedder.Client
	config   Config
}

// NewEmbeddingRerankerClient creates an embedding-based reranker.
func NewEmbeddingRerankerClient(embedderClient embedder.Client, config Config) *EmbeddingRerankerClient {
	return &EmbeddingRerankerClient{embedder: embedderClient, config: config}
}

// Rank scores each passage by similarity to the query.
func (c *EmbeddingRerankerClient) Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error) {
	if len(passages) == 0 {
		return []RankedPassage{}, nil
	}

	inputs := append([]string{query}, passages...)
	embeddings, err := c.embedder.Embed(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to embed passages: %w", err)
	}
	if len(embeddings) != len(inputs) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(inputs), len(embeddings))
	}

	queryVec := embeddings[0]
	ranked := make([]RankedPassage, len(passages))
	for i, passage := range passages {
		similarity := utils.CosineSimilarity(queryVec, embeddings[i+1])
		// Map [-1, 1] to [0, 1].
		ranked[i] = RankedPassage{
			Index:   i,
			Passage: passage,
			Score:   (similarity + 1) / 2,
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}

// Available probes the embedder with a tiny input.
func (c *EmbeddingRerankerClient) Available(ctx context.Context) bool {
	_, err := c.embedder.EmbedSingle(ctx, "probe")
	return err == nil
}

// Close closes the underlying embedder.
func (c *EmbeddingRerankerClient) Close() error {
	return c.embedder.Close()
}
