package driving

import (
	"context"

	"github.com/custodia-labs/sefs/internal/core/domain"
)

// SettingsService manages organiser settings.
type SettingsService interface {
	// Get returns the effective settings: stored values over defaults.
	Get() (*domain.Settings, error)

	// Set parses, validates and stores one setting by key.
	Set(key, value string) error

	// Value returns the effective value of one setting, formatted for display.
	Value(key string) (string, error)

	// List returns every known setting with its effective value.
	List() ([]domain.SettingEntry, error)

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetLLMProvider configures the naming LLM.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate checks that the stored settings can drive an organiser.
	// The root is not required because it is usually given on the command line.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig(ctx context.Context) error

	// ValidateLLMConfig pings the configured LLM. Nil when none is configured.
	ValidateLLMConfig(ctx context.Context) error
}
