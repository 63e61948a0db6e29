package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sefs/internal/core/domain"
	"github.com/custodia-labs/sefs/internal/logger"
)

// pendingRename is the old name of a rename awaiting its create.
type pendingRename struct {
	path string
	at   time.Time
}

// translator turns raw fsnotify events into domain events. fsnotify reports a
// rename as Rename on the old name followed by Create on the new one, so
// renames are held for the pair window and matched against later creates.
// Not safe for concurrent use.
type translator struct {
	root     string
	window   time.Duration
	now      func() time.Time
	addWatch func(dir string) error
	pending  []pendingRename
}

func newTranslator(root string, window time.Duration, addWatch func(string) error) *translator {
	return &translator{
		root:     root,
		window:   window,
		now:      time.Now,
		addWatch: addWatch,
	}
}

// translate returns the domain events for ev, possibly none.
func (t *translator) translate(ev fsnotify.Event) []domain.FsEvent {
	path := filepath.Clean(ev.Name)
	if t.hidden(path) {
		return nil
	}

	switch {
	case ev.Has(fsnotify.Remove):
		return []domain.FsEvent{domain.Deleted{Path: path}}
	case ev.Has(fsnotify.Rename):
		t.pending = append(t.pending, pendingRename{path: path, at: t.now()})
		return nil
	case ev.Has(fsnotify.Create):
		return t.created(path)
	case ev.Has(fsnotify.Write):
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		return []domain.FsEvent{domain.Modified{Path: path}}
	default:
		// Chmod alone.
		return nil
	}
}

func (t *translator) created(path string) []domain.FsEvent {
	src, paired := t.claim(path)
	var out []domain.FsEvent

	info, err := os.Lstat(path)
	switch {
	case err != nil:
		// Gone again before we looked.
		if paired {
			out = append(out, domain.Deleted{Path: src})
		}
	case info.IsDir():
		// A directory arrived or was renamed: drop what was under the old
		// name and announce every file now under the new one.
		if paired {
			out = append(out, domain.Deleted{Path: src})
		}
		if t.addWatch != nil {
			if err := t.addWatch(path); err != nil {
				logger.Warn("watch %s: %v", path, err)
			}
		}
		out = append(out, t.filesUnder(path)...)
	case !info.Mode().IsRegular():
		if paired {
			out = append(out, domain.Deleted{Path: src})
		}
	case paired:
		out = append(out, domain.Moved{Src: src, Dst: path})
	default:
		out = append(out, domain.Created{Path: path})
	}
	return out
}

// claim takes the pending rename that best matches a create of path: the
// oldest with the same base name, otherwise the oldest overall.
func (t *translator) claim(path string) (string, bool) {
	if len(t.pending) == 0 {
		return "", false
	}
	idx := 0
	base := filepath.Base(path)
	for i, p := range t.pending {
		if filepath.Base(p.path) == base {
			idx = i
			break
		}
	}
	src := t.pending[idx].path
	t.pending = append(t.pending[:idx], t.pending[idx+1:]...)
	if src == path {
		// Renamed onto itself: an in-place replace.
		return "", false
	}
	return src, true
}

// expire reports renames older than the window as deletions.
func (t *translator) expire() []domain.FsEvent {
	now := t.now()
	var out []domain.FsEvent
	kept := t.pending[:0]
	for _, p := range t.pending {
		if now.Sub(p.at) >= t.window {
			out = append(out, domain.Deleted{Path: p.path})
			continue
		}
		kept = append(kept, p)
	}
	t.pending = kept
	return out
}

// nextDeadline returns when the oldest pending rename expires.
func (t *translator) nextDeadline() (time.Time, bool) {
	if len(t.pending) == 0 {
		return time.Time{}, false
	}
	return t.pending[0].at.Add(t.window), true
}

func (t *translator) filesUnder(dir string) []domain.FsEvent {
	var out []domain.FsEvent
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path != dir && t.hidden(path) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			out = append(out, domain.Created{Path: path})
		}
		return nil
	})
	return out
}

func (t *translator) hidden(path string) bool {
	rel, err := filepath.Rel(t.root, path)
	if err != nil {
		return false
	}
	return isHidden(rel)
}
