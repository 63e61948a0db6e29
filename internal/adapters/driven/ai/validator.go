package ai

import (
	"context"

	"github.com/custodia-labs/sefs/internal/core/domain"
	"github.com/custodia-labs/sefs/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator validates AI provider configurations by pinging them.
type ConfigValidator struct{}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding creates the embedder and pings it.
func (v *ConfigValidator) ValidateEmbedding(ctx context.Context, config *domain.EmbeddingSettings) error {
	svc, err := CreateAndValidateEmbeddingService(ctx, config)
	if err != nil {
		return err
	}
	return svc.Close()
}

// ValidateLLM creates the LLM and pings it. An unconfigured LLM is valid.
func (v *ConfigValidator) ValidateLLM(ctx context.Context, config *domain.LLMSettings) error {
	svc, err := CreateAndValidateLLMService(ctx, config)
	if err != nil || svc == nil {
		return err
	}
	return svc.Close()
}
