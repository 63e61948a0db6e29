package filesystem

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sefs/internal/core/domain"
)

type translatorFixture struct {
	root    string
	now     time.Time
	watched []string
	t       *translator
}

func newTranslatorFixture(t *testing.T) *translatorFixture {
	t.Helper()
	f := &translatorFixture{root: t.TempDir(), now: time.Unix(1_700_000_000, 0)}
	f.t = newTranslator(f.root, 250*time.Millisecond, func(dir string) error {
		f.watched = append(f.watched, dir)
		return nil
	})
	f.t.now = func() time.Time { return f.now }
	return f
}

func (f *translatorFixture) path(rel string) string {
	return filepath.Join(f.root, rel)
}

func (f *translatorFixture) event(rel string, op fsnotify.Op) []domain.FsEvent {
	return f.t.translate(fsnotify.Event{Name: f.path(rel), Op: op})
}

func TestTranslator_BasicOps(t *testing.T) {
	f := newTranslatorFixture(t)
	writeFile(t, f.path("a.txt"), "a")
	require.NoError(t, os.Mkdir(f.path("dir"), 0o755))

	assert.Equal(t, []domain.FsEvent{domain.Created{Path: f.path("a.txt")}}, f.event("a.txt", fsnotify.Create))
	assert.Equal(t, []domain.FsEvent{domain.Modified{Path: f.path("a.txt")}}, f.event("a.txt", fsnotify.Write))
	assert.Equal(t, []domain.FsEvent{domain.Modified{Path: f.path("a.txt")}}, f.event("a.txt", fsnotify.Write|fsnotify.Chmod))
	assert.Empty(t, f.event("a.txt", fsnotify.Chmod))
	assert.Empty(t, f.event("dir", fsnotify.Write))
	assert.Empty(t, f.event("vanished.txt", fsnotify.Write))
	assert.Empty(t, f.event("vanished.txt", fsnotify.Create))
	assert.Equal(t, []domain.FsEvent{domain.Deleted{Path: f.path("b.txt")}}, f.event("b.txt", fsnotify.Remove))
}

func TestTranslator_HiddenPathsIgnored(t *testing.T) {
	f := newTranslatorFixture(t)
	writeFile(t, f.path(".hidden.txt"), "x")
	writeFile(t, f.path(".git/config"), "x")

	assert.Empty(t, f.event(".hidden.txt", fsnotify.Create))
	assert.Empty(t, f.event(".git/config", fsnotify.Write))
	assert.Empty(t, f.event(".hidden.txt", fsnotify.Remove))
	assert.Empty(t, f.event(".hidden.txt", fsnotify.Rename))
	_, pending := f.t.nextDeadline()
	assert.False(t, pending)
}

func TestTranslator_RenamePairsWithCreate(t *testing.T) {
	f := newTranslatorFixture(t)
	writeFile(t, f.path("Work/Notes/a.txt"), "a")

	assert.Empty(t, f.event("a.txt", fsnotify.Rename))
	deadline, ok := f.t.nextDeadline()
	require.True(t, ok)
	assert.Equal(t, f.now.Add(250*time.Millisecond), deadline)

	f.now = f.now.Add(100 * time.Millisecond)
	got := f.event("Work/Notes/a.txt", fsnotify.Create)
	assert.Equal(t, []domain.FsEvent{domain.Moved{Src: f.path("a.txt"), Dst: f.path("Work/Notes/a.txt")}}, got)
	_, ok = f.t.nextDeadline()
	assert.False(t, ok)
}

func TestTranslator_PrefersSameBaseName(t *testing.T) {
	f := newTranslatorFixture(t)
	writeFile(t, f.path("D/C/b.txt"), "b")

	f.event("a.txt", fsnotify.Rename)
	f.event("b.txt", fsnotify.Rename)
	got := f.event("D/C/b.txt", fsnotify.Create)
	assert.Equal(t, []domain.FsEvent{domain.Moved{Src: f.path("b.txt"), Dst: f.path("D/C/b.txt")}}, got)

	f.now = f.now.Add(time.Second)
	assert.Equal(t, []domain.FsEvent{domain.Deleted{Path: f.path("a.txt")}}, f.t.expire())
}

func TestTranslator_UnpairedRenameExpires(t *testing.T) {
	f := newTranslatorFixture(t)
	f.event("a.txt", fsnotify.Rename)
	f.now = f.now.Add(100 * time.Millisecond)
	f.event("b.txt", fsnotify.Rename)

	f.now = f.now.Add(150 * time.Millisecond)
	assert.Equal(t, []domain.FsEvent{domain.Deleted{Path: f.path("a.txt")}}, f.t.expire())

	deadline, ok := f.t.nextDeadline()
	require.True(t, ok)
	assert.Equal(t, f.now.Add(100*time.Millisecond), deadline)

	f.now = deadline
	assert.Equal(t, []domain.FsEvent{domain.Deleted{Path: f.path("b.txt")}}, f.t.expire())
	assert.Empty(t, f.t.expire())
}

func TestTranslator_RenameOntoSelfIsCreate(t *testing.T) {
	f := newTranslatorFixture(t)
	writeFile(t, f.path("a.txt"), "a")
	f.event("a.txt", fsnotify.Rename)
	assert.Equal(t, []domain.FsEvent{domain.Created{Path: f.path("a.txt")}}, f.event("a.txt", fsnotify.Create))
}

func TestTranslator_DirectoryCreate(t *testing.T) {
	f := newTranslatorFixture(t)
	writeFile(t, f.path("Inbox/one.txt"), "1")
	writeFile(t, f.path("Inbox/deep/two.txt"), "2")
	writeFile(t, f.path("Inbox/.cache/skip.txt"), "x")

	got := f.event("Inbox", fsnotify.Create)
	assert.ElementsMatch(t, []domain.FsEvent{
		domain.Created{Path: f.path("Inbox/one.txt")},
		domain.Created{Path: f.path("Inbox/deep/two.txt")},
	}, got)
	assert.Equal(t, []string{f.path("Inbox")}, f.watched)
}

func TestTranslator_DirectoryRename(t *testing.T) {
	f := newTranslatorFixture(t)
	writeFile(t, f.path("New/one.txt"), "1")

	f.event("Old", fsnotify.Rename)
	got := f.event("New", fsnotify.Create)
	assert.Equal(t, []domain.FsEvent{
		domain.Deleted{Path: f.path("Old")},
		domain.Created{Path: f.path("New/one.txt")},
	}, got)
}
