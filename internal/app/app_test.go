package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sefs/internal/adapters/driven/lock"
	"github.com/custodia-labs/sefs/internal/core/domain"
)

func testSettings(t *testing.T) domain.Settings {
	t.Helper()
	s := domain.DefaultSettings()
	s.DataDir = t.TempDir()
	s.Stability.Checks = 1
	s.Stability.Interval = 0
	s.Debounce = 50 * time.Millisecond
	return s
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestOpen_ScanAndReorganise(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "tax2021.txt", "tax return invoice income deduction refund")
	writeFile(t, root, "tax2022.txt", "tax return invoice income deduction payment")
	writeFile(t, root, "lasagne.txt", "pasta cheese tomato oven basil garlic")
	writeFile(t, root, "photo.png", "not text")

	ctx := context.Background()
	a, err := Open(ctx, testSettings(t), Options{Root: root, Exclusive: true})
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, root, a.Settings().Root)
	assert.FileExists(t, filepath.Join(root, lock.FileName))

	org := a.Organiser()
	require.NoError(t, org.Scan(ctx))
	run, err := org.Reorganise(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, run.Files)
	assert.Equal(t, 0, run.Failed)

	runs, err := org.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)

	assert.Equal(t, 3, org.Tree().Count())
	assert.FileExists(t, filepath.Join(root, "photo.png"))
	assert.DirExists(t, filepath.Join(a.Settings().DataDir, "prompts"))
}

func TestOpen_ExclusiveLockConflict(t *testing.T) {
	root := t.TempDir()
	settings := testSettings(t)
	ctx := context.Background()

	first, err := Open(ctx, settings, Options{Root: root, Exclusive: true})
	require.NoError(t, err)
	defer first.Close()

	_, err = Open(ctx, settings, Options{Root: root, Exclusive: true})
	assert.ErrorIs(t, err, domain.ErrLocked)

	shared, err := Open(ctx, settings, Options{Root: root})
	require.NoError(t, err)
	require.NoError(t, shared.Close())

	require.NoError(t, first.Close())
	again, err := Open(ctx, settings, Options{Root: root, Exclusive: true})
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

func TestOpen_RequiresRoot(t *testing.T) {
	_, err := Open(context.Background(), testSettings(t), Options{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestOpen_MissingRoot(t *testing.T) {
	_, err := Open(context.Background(), testSettings(t), Options{Root: filepath.Join(t.TempDir(), "nope")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestOpen_UnconfiguredEmbedder(t *testing.T) {
	settings := testSettings(t)
	settings.Embedding.Provider = domain.AIProviderOpenAI
	_, err := Open(context.Background(), settings, Options{Root: t.TempDir()})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestOpen_RelativeRootIsResolved(t *testing.T) {
	root := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	rel, err := filepath.Rel(wd, root)
	require.NoError(t, err)

	a, err := Open(context.Background(), testSettings(t), Options{Root: rel})
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, root, a.Settings().Root)
}

func TestApp_CloseIsIdempotent(t *testing.T) {
	a, err := Open(context.Background(), testSettings(t), Options{Root: t.TempDir(), Exclusive: true})
	require.NoError(t, err)
	require.NoError(t, a.Close())
	assert.NoError(t, a.Close())
}

func TestNewSettingsService(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewSettingsService(dir)
	require.NoError(t, err)

	require.NoError(t, svc.Set("threshold", "0.5"))
	got, err := svc.Get()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got.Threshold, 1e-9)
	assert.FileExists(t, filepath.Join(dir, "config.toml"))
}
