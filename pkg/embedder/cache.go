package embedder

import (
	"context"
	"sync"
)

const (
	// DefaultCacheCapacity is the maximum number of cached query
	// embeddings before eviction.
	DefaultCacheCapacity = 1000
)

// Cache is a bounded read-through wrapper around a Client. When the
// cache exceeds capacity, the oldest half of the entries is evicted in
// insertion order. It is safe for concurrent use and intended to be
// injected wherever query embeddings are generated, not shared through
// a global.
type Cache struct {
	client   Client
	capacity int

	mu      sync.Mutex
	entries map[string][]float32
	order   []string
}

// NewCache wraps client with a bounded cache. capacity <= 0 selects
// DefaultCacheCapacity.
func NewCache(client Client, capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		client:   client,
		capacity: capacity,
		entries:  make(map[string][]float32, capacity),
	}
}

// Embed serves each text from the cache when possible and embeds the
// misses in one underlying call.
func (c *Cache) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	var missTexts []string
	var missIndices []int

	c.mu.Lock()
	for i, text := range texts {
		if embedding, ok := c.entries[text]; ok {
			results[i] = embedding
		} else {
			missTexts = append(missTexts, text)
			missIndices = append(missIndices, i)
		}
	}
	c.mu.Unlock()

	if len(missTexts) == 0 {
		return results, nil
	}

	embeddings, err := c.client.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for i, embedding := range embeddings {
		results[missIndices[i]] = embedding
		c.put(missTexts[i], embedding)
	}
	c.mu.Unlock()

	return results, nil
}

// EmbedSingle serves a single text through the cache.
func (c *Cache) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	c.mu.Lock()
	if embedding, ok := c.entries[text]; ok {
		c.mu.Unlock()
		return embedding, nil
	}
	c.mu.Unlock()

	embedding, err := c.client.EmbedSingle(ctx, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.put(text, embedding)
	c.mu.Unlock()

	return embedding, nil
}

// put inserts an entry and evicts the oldest half once the cache grows
// past capacity. Caller holds the lock.
func (c *Cache) put(text string, embedding []float32) {
	if _, ok := c.entries[text]; ok {
		return
	}
	c.entries[text] = embedding
	c.order = append(c.order, text)

	if len(c.entries) > c.capacity {
		evict := c.capacity / 2
		for _, key := range c.order[:evict] {
			delete(c.entries, key)
		}
		c.order = append([]string(nil), c.order[evict:]...)
	}
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Dimensions returns the underlying client's dimensionality.
func (c *Cache) Dimensions() int {
	return c.client.Dimensions()
}

// Close closes the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}
