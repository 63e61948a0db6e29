package driven

import (
	"context"

	"github.com/custodia-labs/sefs/internal/core/domain"
)

// AIConfigValidator validates AI provider configurations.
// Implementations verify that configurations are valid by testing connectivity
// to the underlying AI services.
type AIConfigValidator interface {
	// ValidateEmbedding checks the embedding provider is configured and reachable.
	ValidateEmbedding(ctx context.Context, config *domain.EmbeddingSettings) error

	// ValidateLLM checks the LLM is reachable.
	// Returns nil when no LLM is configured.
	ValidateLLM(ctx context.Context, config *domain.LLMSettings) error
}
