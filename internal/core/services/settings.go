package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sefs/internal/core/domain"
	"github.com/custodia-labs/sefs/internal/core/ports/driven"
	"github.com/custodia-labs/sefs/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyRoot              = "root"
	keyDataDir           = "data_dir"
	keyDebounce          = "debounce"
	keyThreshold         = "threshold"
	keyStabilityChecks   = "stability.checks"
	keyStabilityInterval = "stability.interval"
	keyIgnoreExtensions  = "ignore.extensions"
	keyIgnoreGlobs       = "ignore.globs"
	keyNamingTimeout     = "naming.timeout"
	keyNamingMaxContext  = "naming.max_context"
	keyNamingMaxLabel    = "naming.max_label"
	keyNamingRate        = "naming.rate"
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyEmbedChunkSize    = "embedding.chunk_size"
	keyEmbedChunkOverlap = "embedding.chunk_overlap"
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMAPIKey         = "llm.api_key"
	keyServerAddr        = "server.addr"
)

// defaultOllamaURL is used when a local provider is chosen without a base URL.
const defaultOllamaURL = "http://localhost:11434"

// settingField binds a config key to a field of domain.Settings.
// parse converts user input into the stored form and writes it into s.
type settingField struct {
	secret bool
	format func(s *domain.Settings) string
	parse  func(s *domain.Settings, raw string) (any, error)
	load   func(s *domain.Settings, store driven.ConfigStore, key string)
}

// SettingsService manages organiser settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	fields      map[string]settingField
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		fields:      settingFields(),
	}
}

// Get returns defaults overlaid with every stored key.
// Stored values that do not parse keep the default.
func (s *SettingsService) Get() (*domain.Settings, error) {
	settings := domain.DefaultSettings()
	for key, f := range s.fields {
		if _, exists := s.configStore.Get(key); !exists {
			continue
		}
		f.load(&settings, s.configStore, key)
	}
	return &settings, nil
}

// Set parses value for key, checks the result and stores it.
func (s *SettingsService) Set(key, value string) error {
	f, ok := s.fields[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	stored, err := f.parse(settings, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}
	if err := settings.ValidateTunables(); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Value returns the effective value of key.
func (s *SettingsService) Value(key string) (string, error) {
	f, ok := s.fields[key]
	if !ok {
		return "", fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	settings, err := s.Get()
	if err != nil {
		return "", err
	}
	return f.format(settings), nil
}

// List returns every setting sorted by key.
func (s *SettingsService) List() ([]domain.SettingEntry, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(s.fields))
	for key := range s.fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entries := make([]domain.SettingEntry, 0, len(keys))
	for _, key := range keys {
		f := s.fields[key]
		entries = append(entries, domain.SettingEntry{
			Key:    key,
			Value:  f.format(settings),
			Secret: f.secret,
		})
	}
	return entries, nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !supports(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}
	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}
	baseURL := s.configStore.GetString(keyEmbedBaseURL)
	if provider == domain.AIProviderOllama && baseURL == "" {
		baseURL = defaultOllamaURL
	} else if !provider.IsLocal() {
		baseURL = ""
	}

	return s.store(map[string]any{
		keyEmbedProvider: provider.String(),
		keyEmbedModel:    model,
		keyEmbedBaseURL:  baseURL,
		keyEmbedAPIKey:   apiKey,
	})
}

// SetLLMProvider configures the naming LLM.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if !supports(domain.AllLLMProviders(), provider) {
		return fmt.Errorf("provider %s does not support naming", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}
	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}
	baseURL := s.configStore.GetString(keyLLMBaseURL)
	if provider.IsLocal() && baseURL == "" {
		baseURL = defaultOllamaURL
	} else if !provider.IsLocal() {
		baseURL = ""
	}

	return s.store(map[string]any{
		keyLLMProvider: provider.String(),
		keyLLMModel:    model,
		keyLLMBaseURL:  baseURL,
		keyLLMAPIKey:   apiKey,
	})
}

// Validate checks that the stored settings can drive an organiser.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := settings.ValidateTunables(); err != nil {
		return err
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %q is not fully configured",
			domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}
	if settings.LLM.Provider != "" && !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: llm provider %q is not fully configured",
			domain.ErrInvalidInput, settings.LLM.Provider)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// ValidateEmbeddingConfig pings the configured embedding provider.
func (s *SettingsService) ValidateEmbeddingConfig(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(ctx, &settings.Embedding)
}

// ValidateLLMConfig pings the configured LLM.
func (s *SettingsService) ValidateLLMConfig(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(ctx, &settings.LLM)
}

// store writes values in key order so failures are reported deterministically.
func (s *SettingsService) store(values map[string]any) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := s.configStore.Set(k, values[k]); err != nil {
			return fmt.Errorf("save %s: %w", k, err)
		}
	}
	return nil
}

func supports(providers []domain.AIProvider, p domain.AIProvider) bool {
	for _, candidate := range providers {
		if candidate == p {
			return true
		}
	}
	return false
}

// Field constructors.

func stringField(ptr func(*domain.Settings) *string, secret bool) settingField {
	return settingField{
		secret: secret,
		format: func(s *domain.Settings) string { return *ptr(s) },
		parse: func(s *domain.Settings, raw string) (any, error) {
			*ptr(s) = raw
			return raw, nil
		},
		load: func(s *domain.Settings, store driven.ConfigStore, key string) {
			*ptr(s) = store.GetString(key)
		},
	}
}

func intField(ptr func(*domain.Settings) *int) settingField {
	return settingField{
		format: func(s *domain.Settings) string { return strconv.Itoa(*ptr(s)) },
		parse: func(s *domain.Settings, raw string) (any, error) {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("not an integer: %q", raw)
			}
			*ptr(s) = n
			return int64(n), nil
		},
		load: func(s *domain.Settings, store driven.ConfigStore, key string) {
			if v, ok := numeric(store, key); ok {
				*ptr(s) = int(v)
			}
		},
	}
}

func floatField(ptr func(*domain.Settings) *float64) settingField {
	return settingField{
		format: func(s *domain.Settings) string { return strconv.FormatFloat(*ptr(s), 'g', -1, 64) },
		parse: func(s *domain.Settings, raw string) (any, error) {
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("not a number: %q", raw)
			}
			*ptr(s) = f
			return f, nil
		},
		load: func(s *domain.Settings, store driven.ConfigStore, key string) {
			if v, ok := numeric(store, key); ok {
				*ptr(s) = v
			}
		},
	}
}

func durationField(ptr func(*domain.Settings) *time.Duration) settingField {
	return settingField{
		format: func(s *domain.Settings) string { return ptr(s).String() },
		parse: func(s *domain.Settings, raw string) (any, error) {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return nil, fmt.Errorf("not a duration: %q", raw)
			}
			*ptr(s) = d
			return d.String(), nil
		},
		load: func(s *domain.Settings, store driven.ConfigStore, key string) {
			v, _ := store.Get(key)
			if str, ok := v.(string); ok {
				if d, err := time.ParseDuration(str); err == nil {
					*ptr(s) = d
				}
				return
			}
			if _, ok := numeric(store, key); ok {
				*ptr(s) = store.GetDuration(key)
			}
		},
	}
}

// listField parses comma-separated input. An empty value clears the list.
func listField(ptr func(*domain.Settings) *[]string, normalise func(string) string) settingField {
	return settingField{
		format: func(s *domain.Settings) string { return strings.Join(*ptr(s), ",") },
		parse: func(s *domain.Settings, raw string) (any, error) {
			items := []string{}
			for _, part := range strings.Split(raw, ",") {
				if part = strings.TrimSpace(part); part != "" {
					items = append(items, normalise(part))
				}
			}
			*ptr(s) = items
			return items, nil
		},
		load: func(s *domain.Settings, store driven.ConfigStore, key string) {
			items := store.GetStringSlice(key)
			out := make([]string, 0, len(items))
			for _, item := range items {
				out = append(out, normalise(item))
			}
			*ptr(s) = out
		},
	}
}

func providerField(ptr func(*domain.Settings) *domain.AIProvider, allowed []domain.AIProvider, optional bool) settingField {
	return settingField{
		format: func(s *domain.Settings) string { return ptr(s).String() },
		parse: func(s *domain.Settings, raw string) (any, error) {
			p := domain.AIProvider(strings.ToLower(raw))
			if !(optional && p == "") && !supports(allowed, p) {
				return nil, fmt.Errorf("unsupported provider %q", raw)
			}
			*ptr(s) = p
			return p.String(), nil
		},
		load: func(s *domain.Settings, store driven.ConfigStore, key string) {
			p := domain.AIProvider(store.GetString(key))
			if (optional && p == "") || supports(allowed, p) {
				*ptr(s) = p
			}
		},
	}
}

// numeric reports the key's value as a float when it is stored as a number
// or a numeric string.
func numeric(store driven.ConfigStore, key string) (float64, bool) {
	v, _ := store.Get(key)
	switch n := v.(type) {
	case int, int64, float64:
		return store.GetFloat(key), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func normaliseExtension(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func settingFields() map[string]settingField {
	keepGlob := func(g string) string { return g }
	return map[string]settingField{
		keyRoot:              stringField(func(s *domain.Settings) *string { return &s.Root }, false),
		keyDataDir:           stringField(func(s *domain.Settings) *string { return &s.DataDir }, false),
		keyDebounce:          durationField(func(s *domain.Settings) *time.Duration { return &s.Debounce }),
		keyThreshold:         floatField(func(s *domain.Settings) *float64 { return &s.Threshold }),
		keyStabilityChecks:   intField(func(s *domain.Settings) *int { return &s.Stability.Checks }),
		keyStabilityInterval: durationField(func(s *domain.Settings) *time.Duration { return &s.Stability.Interval }),
		keyIgnoreExtensions:  listField(func(s *domain.Settings) *[]string { return &s.Ignore.Extensions }, normaliseExtension),
		keyIgnoreGlobs:       listField(func(s *domain.Settings) *[]string { return &s.Ignore.Globs }, keepGlob),
		keyNamingTimeout:     durationField(func(s *domain.Settings) *time.Duration { return &s.Naming.Timeout }),
		keyNamingMaxContext:  intField(func(s *domain.Settings) *int { return &s.Naming.MaxContext }),
		keyNamingMaxLabel:    intField(func(s *domain.Settings) *int { return &s.Naming.MaxLabel }),
		keyNamingRate:        floatField(func(s *domain.Settings) *float64 { return &s.Naming.Rate }),
		keyEmbedProvider: providerField(func(s *domain.Settings) *domain.AIProvider { return &s.Embedding.Provider },
			domain.AllEmbeddingProviders(), false),
		keyEmbedModel:        stringField(func(s *domain.Settings) *string { return &s.Embedding.Model }, false),
		keyEmbedBaseURL:      stringField(func(s *domain.Settings) *string { return &s.Embedding.BaseURL }, false),
		keyEmbedAPIKey:       stringField(func(s *domain.Settings) *string { return &s.Embedding.APIKey }, true),
		keyEmbedChunkSize:    intField(func(s *domain.Settings) *int { return &s.Embedding.ChunkSize }),
		keyEmbedChunkOverlap: intField(func(s *domain.Settings) *int { return &s.Embedding.ChunkOverlap }),
		keyLLMProvider: providerField(func(s *domain.Settings) *domain.AIProvider { return &s.LLM.Provider },
			domain.AllLLMProviders(), true),
		keyLLMModel:   stringField(func(s *domain.Settings) *string { return &s.LLM.Model }, false),
		keyLLMBaseURL: stringField(func(s *domain.Settings) *string { return &s.LLM.BaseURL }, false),
		keyLLMAPIKey:  stringField(func(s *domain.Settings) *string { return &s.LLM.APIKey }, true),
		keyServerAddr: stringField(func(s *domain.Settings) *string { return &s.Server.Addr }, false),
	}
}
