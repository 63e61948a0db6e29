package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sefs/internal/core/domain"
	"github.com/custodia-labs/sefs/internal/core/ports/driven"
)

var testDefaults = map[string]string{
	driven.PromptDomainLabel:  "Broad category for:\n%s",
	driven.PromptClusterLabel: "Folder name for:\n%s",
}

func newPromptStore(t *testing.T) (*PromptStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewPromptStore(dir, testDefaults)
	require.NoError(t, err)
	return store, dir
}

func TestPromptStore_ImplementsInterface(t *testing.T) {
	var _ driven.PromptStore = (*PromptStore)(nil)
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}
	store, err := NewPromptStore("", nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".sefs", "prompts"), store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	store, dir := newPromptStore(t)

	got, err := store.Load(driven.PromptDomainLabel)
	require.NoError(t, err)
	assert.Equal(t, testDefaults[driven.PromptDomainLabel], got)

	for _, f := range []string{"domain_label.txt", "cluster_label.txt", "README.md"} {
		assert.FileExists(t, filepath.Join(dir, f))
	}
	readme, err := os.ReadFile(filepath.Join(dir, "README.md"))
	require.NoError(t, err)
	assert.Contains(t, string(readme), "`cluster_label.txt`")
}

func TestPromptStore_Load_CustomContent(t *testing.T) {
	store, dir := newPromptStore(t)
	custom := "Name this topic in Spanish:\n%s"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cluster_label.txt"), []byte("  "+custom+"\n"), 0o600))

	got, err := store.Load(driven.PromptClusterLabel)
	require.NoError(t, err)
	assert.Equal(t, custom, got)
}

func TestPromptStore_DoesNotOverwriteExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "domain_label.txt"), []byte("mine %s"), 0o600))
	store, err := NewPromptStore(dir, testDefaults)
	require.NoError(t, err)

	got, err := store.Load(driven.PromptDomainLabel)
	require.NoError(t, err)
	assert.Equal(t, "mine %s", got)
}

func TestPromptStore_Load_EmptyOrDeletedFileFallsBack(t *testing.T) {
	store, dir := newPromptStore(t)
	_, err := store.Load(driven.PromptDomainLabel)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "cluster_label.txt"), []byte("\n"), 0o600))
	require.NoError(t, os.Remove(filepath.Join(dir, "domain_label.txt")))
	store.Reload()

	got, err := store.Load(driven.PromptClusterLabel)
	require.NoError(t, err)
	assert.Equal(t, testDefaults[driven.PromptClusterLabel], got)
	got, err = store.Load(driven.PromptDomainLabel)
	require.NoError(t, err)
	assert.Equal(t, testDefaults[driven.PromptDomainLabel], got)
}

func TestPromptStore_Load_Unknown(t *testing.T) {
	store, _ := newPromptStore(t)
	_, err := store.Load("nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPromptStore_CachesUntilReload(t *testing.T) {
	store, dir := newPromptStore(t)
	path := filepath.Join(dir, "cluster_label.txt")

	_, err := store.Load(driven.PromptClusterLabel)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("edited %s"), 0o600))

	got, _ := store.Load(driven.PromptClusterLabel)
	assert.Equal(t, testDefaults[driven.PromptClusterLabel], got)

	store.Reload()
	got, _ = store.Load(driven.PromptClusterLabel)
	assert.Equal(t, "edited %s", got)
}

func TestPromptStore_InitFailureUsesDefaults(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	store, err := NewPromptStore(filepath.Join(blocker, "prompts"), testDefaults)
	require.NoError(t, err)
	got, err := store.Load(driven.PromptDomainLabel)
	require.NoError(t, err)
	assert.Equal(t, testDefaults[driven.PromptDomainLabel], got)

	_, err = store.Load("nope")
	assert.Error(t, err)
}

func TestPromptStore_ConcurrentAccess(t *testing.T) {
	store, _ := newPromptStore(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Load(driven.PromptClusterLabel)
			assert.NoError(t, err)
			store.Reload()
		}()
	}
	wg.Wait()
}
