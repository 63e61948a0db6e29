package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sefs/internal/core/ports/driven"
)

// embeddingCache implements driven.EmbeddingCache.
type embeddingCache struct {
	store *Store
	now   func() time.Time
}

var _ driven.EmbeddingCache = (*embeddingCache)(nil)

// Get returns the entry for hash under model, or nil when absent.
func (c *embeddingCache) Get(ctx context.Context, model, hash string) (*driven.CachedEmbedding, error) {
	var (
		dims   int
		vector []byte
		text   string
	)
	err := c.store.db.QueryRowContext(ctx, `
		SELECT dimensions, vector, text FROM embeddings
		WHERE model = ? AND content_hash = ?
	`, model, hash).Scan(&dims, &vector, &text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying embedding: %w", err)
	}
	if len(vector) != dims*4 {
		return nil, fmt.Errorf("corrupt embedding for %s: %d bytes for %d dimensions", hash, len(vector), dims)
	}

	return &driven.CachedEmbedding{
		Embedding: bytesToFloat32Slice(vector),
		Text:      text,
	}, nil
}

// Put stores or replaces an entry.
func (c *embeddingCache) Put(ctx context.Context, model, hash string, entry driven.CachedEmbedding) error {
	_, err := c.store.db.ExecContext(ctx, `
		INSERT INTO embeddings (model, content_hash, dimensions, vector, text, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(model, content_hash) DO UPDATE SET
			dimensions = excluded.dimensions,
			vector = excluded.vector,
			text = excluded.text,
			updated_at = excluded.updated_at
	`, model, hash, len(entry.Embedding), float32SliceToBytes(entry.Embedding), entry.Text, c.now().UnixNano())
	if err != nil {
		return fmt.Errorf("saving embedding: %w", err)
	}
	return nil
}

// Close is a no-op; the owning Store closes the database.
func (c *embeddingCache) Close() error {
	return nil
}
