package driven

import "context"

// EmbeddingCache stores vectors by content hash so unchanged content is
// never re-extracted or re-embedded, across moves and restarts.
type EmbeddingCache interface {
	// Get returns the cached entry for hash under model.
	// Returns nil and no error when there is no entry.
	Get(ctx context.Context, model, hash string) (*CachedEmbedding, error)

	// Put stores or replaces an entry.
	Put(ctx context.Context, model, hash string, entry CachedEmbedding) error

	// Close releases resources.
	Close() error
}

// CachedEmbedding is one cache entry.
type CachedEmbedding struct {
	// Embedding is the stored vector.
	Embedding []float32

	// Text is the extracted text the vector was computed from.
	Text string
}
