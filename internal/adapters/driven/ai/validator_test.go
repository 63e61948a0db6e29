package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sefs/internal/core/domain"
	"github.com/custodia-labs/sefs/internal/core/ports/driven"
)

func TestNewConfigValidator(t *testing.T) {
	require.NotNil(t, NewConfigValidator())
}

func TestConfigValidator_ImplementsInterface(t *testing.T) {
	var _ driven.AIConfigValidator = (*ConfigValidator)(nil)
}

func TestConfigValidator_ValidateEmbedding(t *testing.T) {
	v := NewConfigValidator()
	ctx := context.Background()

	assert.NoError(t, v.ValidateEmbedding(ctx, &domain.EmbeddingSettings{Provider: domain.AIProviderHashing}))
	assert.ErrorIs(t, v.ValidateEmbedding(ctx, nil), domain.ErrEmbeddingUnavailable)
	assert.ErrorIs(t, v.ValidateEmbedding(ctx, &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI}),
		domain.ErrEmbeddingUnavailable)
}

func TestConfigValidator_ValidateLLM(t *testing.T) {
	v := NewConfigValidator()
	ctx := context.Background()

	// Unconfigured is valid: naming falls back to keywords.
	assert.NoError(t, v.ValidateLLM(ctx, &domain.LLMSettings{}))
	assert.NoError(t, v.ValidateLLM(ctx, nil))

	srv := tagsServer(t)
	assert.NoError(t, v.ValidateLLM(ctx, &domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: srv.URL}))

	err := v.ValidateLLM(ctx, &domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: "http://127.0.0.1:1"})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}
