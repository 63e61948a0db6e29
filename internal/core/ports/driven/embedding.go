package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// Every vector returned by one instance has the same length.
//
// Implementations may include:
//   - Hashing (built-in bag-of-words, offline)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1536, 3072).
	// Zero means the size is learned from the first response.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	// Cached vectors are keyed by it.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
