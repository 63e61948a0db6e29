package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderHashing is the built-in offline bag-of-words embedder.
	AIProviderHashing AIProvider = "hashing"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderHashing, AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderHashing
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderHashing:
		return "Hashing (built-in, offline)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// ChunkSize is the number of characters embedded at once. Longer texts are
	// split and their vectors averaged. Zero embeds the whole text.
	ChunkSize int

	// ChunkOverlap is the number of characters shared by adjacent chunks.
	ChunkOverlap int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds the naming oracle configuration.
// An empty provider means names always come from keyword extraction.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderHashing {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// StabilitySettings controls the size-sampling gate.
type StabilitySettings struct {
	// Checks is the number of size samples taken.
	Checks int

	// Interval is the pause between samples.
	Interval time.Duration
}

// IgnoreSettings controls which paths are never admitted.
type IgnoreSettings struct {
	// Extensions are lower-case suffixes including the dot.
	Extensions []string

	// Globs are doublestar patterns matched against the root-relative path.
	Globs []string
}

// NamingSettings controls cluster naming.
type NamingSettings struct {
	// Timeout bounds each oracle call.
	Timeout time.Duration

	// MaxContext is the number of characters of member text sent to the oracle.
	MaxContext int

	// MaxLabel is the maximum length of a sanitised label.
	MaxLabel int

	// Rate is the maximum number of oracle calls per second. Zero disables throttling.
	Rate float64
}

// ServerSettings controls the live HTTP server.
type ServerSettings struct {
	// Addr is the listen address. Empty disables the server.
	Addr string
}

// Settings holds all organiser settings.
type Settings struct {
	// Root is the directory being organised.
	Root string

	// DataDir holds the database, prompts and config file.
	DataDir string

	// Debounce is the quiet period before a reorganisation run.
	Debounce time.Duration

	// Threshold is the cosine distance at which clusters stop merging.
	Threshold float64

	Stability StabilitySettings
	Ignore    IgnoreSettings
	Naming    NamingSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Server    ServerSettings
}

// DefaultSettings returns settings with sensible defaults.
// The LLM is left unconfigured so naming works offline out of the box.
func DefaultSettings() Settings {
	return Settings{
		Debounce:  3 * time.Second,
		Threshold: 0.35,
		Stability: StabilitySettings{
			Checks:   3,
			Interval: time.Second,
		},
		Ignore: IgnoreSettings{
			Extensions: DefaultIgnoredExtensions(),
			Globs:      DefaultIgnoredGlobs(),
		},
		Naming: NamingSettings{
			Timeout:    20 * time.Second,
			MaxContext: 2000,
			MaxLabel:   40,
			Rate:       2,
		},
		Embedding: EmbeddingSettings{
			Provider:     AIProviderHashing,
			ChunkSize:    4000,
			ChunkOverlap: 400,
		},
		Server: ServerSettings{
			Addr: "127.0.0.1:8484",
		},
	}
}

// Validate checks that the settings can drive an organiser.
func (s Settings) Validate() error {
	if s.Root == "" {
		return fmt.Errorf("%w: root is required", ErrInvalidInput)
	}
	if err := s.ValidateTunables(); err != nil {
		return err
	}
	if !s.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %q", ErrEmbeddingUnavailable, s.Embedding.Provider)
	}
	return nil
}

// ValidateTunables checks the numeric settings only.
func (s Settings) ValidateTunables() error {
	if s.Debounce <= 0 {
		return fmt.Errorf("%w: debounce must be positive", ErrInvalidInput)
	}
	if s.Threshold <= 0 || s.Threshold > 2 {
		return fmt.Errorf("%w: threshold must be in (0, 2]", ErrInvalidInput)
	}
	if s.Stability.Checks < 1 {
		return fmt.Errorf("%w: stability checks must be at least 1", ErrInvalidInput)
	}
	if s.Stability.Interval < 0 {
		return fmt.Errorf("%w: stability interval must not be negative", ErrInvalidInput)
	}
	if s.Naming.MaxLabel < 1 || s.Naming.MaxContext < 1 {
		return fmt.Errorf("%w: naming limits must be positive", ErrInvalidInput)
	}
	if s.Naming.Timeout <= 0 {
		return fmt.Errorf("%w: naming timeout must be positive", ErrInvalidInput)
	}
	if s.Naming.Rate < 0 {
		return fmt.Errorf("%w: naming rate must not be negative", ErrInvalidInput)
	}
	if s.Embedding.ChunkSize < 0 || s.Embedding.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk size and overlap must not be negative", ErrInvalidInput)
	}
	return nil
}

// SettingEntry is one configuration key with its effective value.
type SettingEntry struct {
	Key    string
	Value  string
	Secret bool
}

// Display returns the value with secrets masked.
func (e SettingEntry) Display() string {
	if !e.Secret || e.Value == "" {
		return e.Value
	}
	return MaskSecret(e.Value)
}

// MaskSecret hides all but the first and last four characters of s.
func MaskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// DefaultIgnoredExtensions returns media types that are never organised.
func DefaultIgnoredExtensions() []string {
	return []string{".png", ".jpg", ".jpeg", ".mp3", ".wav", ".mp4", ".avi", ".mov"}
}

// DefaultIgnoredGlobs returns patterns for editor locks and partial downloads.
func DefaultIgnoredGlobs() []string {
	return []string{"**/~$*", "**/*.tmp", "**/*.part", "**/*.crdownload", "**/*.swp"}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderHashing,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderHashing: "hashing-512",
		AIProviderOllama:  "nomic-embed-text",
		AIProviderOpenAI:  "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
	}
}
