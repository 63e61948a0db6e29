// Package app assembles an organiser from settings: the filesystem event
// source, extractors, AI services, SQLite storage, prompts and the root lock.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/sefs/internal/adapters/driven/ai"
	"github.com/custodia-labs/sefs/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sefs/internal/adapters/driven/lock"
	"github.com/custodia-labs/sefs/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sefs/internal/connectors/filesystem"
	"github.com/custodia-labs/sefs/internal/core/domain"
	"github.com/custodia-labs/sefs/internal/core/ports/driving"
	"github.com/custodia-labs/sefs/internal/core/services"
	"github.com/custodia-labs/sefs/internal/logger"
	"github.com/custodia-labs/sefs/internal/normalisers"
	"github.com/custodia-labs/sefs/internal/postprocessors/chunker"
)

// Options controls how an App is opened.
type Options struct {
	// Root overrides settings.Root when non-empty.
	Root string

	// Exclusive takes the per-root lock. Required for anything that moves files.
	Exclusive bool
}

// App owns an organiser and every resource behind it.
type App struct {
	settings  domain.Settings
	organiser *services.Organiser
	store     *sqlite.Store
	lock      *lock.RootLock
	ai        *ai.InitResult

	closeOnce sync.Once
	closeErr  error
}

// NewSettingsService returns the settings service over the TOML config in
// configDir (default ~/.sefs).
func NewSettingsService(configDir string) (*services.SettingsService, error) {
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	return services.NewSettingsService(store, ai.NewConfigValidator()), nil
}

// Open builds an organiser for settings. The caller must Close the App.
func Open(ctx context.Context, settings domain.Settings, opts Options) (a *App, err error) {
	if opts.Root != "" {
		settings.Root = opts.Root
	}
	if settings.Root != "" {
		abs, absErr := filepath.Abs(settings.Root)
		if absErr != nil {
			return nil, fmt.Errorf("resolve root: %w", absErr)
		}
		settings.Root = abs
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	source := filesystem.New(settings.Root)
	if err := source.Validate(ctx); err != nil {
		return nil, err
	}

	a = &App{settings: settings}
	defer func() {
		if err != nil {
			_ = a.Close()
			a = nil
		}
	}()

	if opts.Exclusive {
		l := lock.New(source.Root())
		if err := l.TryLock(); err != nil {
			return nil, err
		}
		a.lock = l
	}

	a.store, err = sqlite.NewStore(dataSubdir(settings.DataDir, "data"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a.ai, err = ai.Init(ctx, settings)
	if err != nil {
		return nil, err
	}
	for _, w := range a.ai.Warnings {
		logger.Warn("%s; naming falls back to keywords", w)
	}

	cfg := services.OrganiserConfig{
		Settings:   settings,
		Source:     source,
		Extractors: normalisers.NewDefaultRegistry(),
		Embedder:   a.ai.EmbeddingService,
		LLM:        a.ai.LLMService,
		Cache:      a.store.EmbeddingCache(),
		Runs:       a.store.RunStore(),
	}
	if settings.Embedding.ChunkSize > 0 {
		cfg.Splitter = chunker.New(
			chunker.WithChunkSize(settings.Embedding.ChunkSize),
			chunker.WithOverlap(settings.Embedding.ChunkOverlap),
		)
	}
	prompts, perr := file.NewPromptStore(dataSubdir(settings.DataDir, "prompts"), services.DefaultPrompts())
	if perr != nil {
		logger.Warn("prompts: %v; using built-in prompts", perr)
	} else {
		cfg.Prompts = prompts
	}

	a.organiser, err = services.NewOrganiser(cfg)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Organiser returns the assembled organiser.
func (a *App) Organiser() driving.Organiser {
	return a.organiser
}

// Settings returns the effective settings, root resolved.
func (a *App) Settings() domain.Settings {
	return a.settings
}

// Close stops the organiser and releases storage, AI clients and the lock.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		var errs []error
		if a.organiser != nil {
			errs = append(errs, a.organiser.Close())
		}
		if a.ai != nil {
			a.ai.Close()
		}
		if a.store != nil {
			errs = append(errs, a.store.Close())
		}
		if a.lock != nil {
			errs = append(errs, a.lock.Unlock())
		}
		a.closeErr = errors.Join(errs...)
	})
	return a.closeErr
}

// dataSubdir returns dataDir/name, or "" so each store picks its own default.
func dataSubdir(dataDir, name string) string {
	if dataDir == "" {
		return ""
	}
	return filepath.Join(dataDir, name)
}
