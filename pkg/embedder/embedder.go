// Package embedder provides embedding generation for queries, with a
// bounded read-through cache and local or API-backed implementations.
package embedder

import (
	"context"
)

// Client generates dense embeddings for text.
type Client interface {
	// Embed generates embeddings for the given texts, one vector per
	// input in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle generates an embedding for a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding dimensionality.
	Dimensions() int

	// Close cleans up any resources.
	Close() error
}

// Config holds common embedder settings.
type Config struct {
	Model      string
	APIKey     string
	BaseURL    string
	Dimensions int
}
