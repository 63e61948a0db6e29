package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/sefs/internal/core/ports/driven"
)

// Ensure EmbeddingCache implements the interface.
var _ driven.EmbeddingCache = (*EmbeddingCache)(nil)

// EmbeddingCache is an in-memory implementation of driven.EmbeddingCache.
// Entries live for the life of the process.
type EmbeddingCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]driven.CachedEmbedding
}

type cacheKey struct {
	model string
	hash  string
}

// NewEmbeddingCache creates a new in-memory embedding cache.
func NewEmbeddingCache() *EmbeddingCache {
	return &EmbeddingCache{
		entries: make(map[cacheKey]driven.CachedEmbedding),
	}
}

// Get returns a copy of the entry, or nil when absent.
func (c *EmbeddingCache) Get(_ context.Context, model, hash string) (*driven.CachedEmbedding, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[cacheKey{model, hash}]
	if !ok {
		return nil, nil
	}
	e.Embedding = append([]float32(nil), e.Embedding...)
	return &e, nil
}

// Put stores a copy of entry.
func (c *EmbeddingCache) Put(_ context.Context, model, hash string, entry driven.CachedEmbedding) error {
	entry.Embedding = append([]float32(nil), entry.Embedding...)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey{model, hash}] = entry
	return nil
}

// Len returns the number of entries.
func (c *EmbeddingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close is a no-op.
func (c *EmbeddingCache) Close() error {
	return nil
}
