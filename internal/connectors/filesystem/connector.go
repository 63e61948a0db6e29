// Package filesystem provides the event source for the organised root.
// It walks the root once at start-up and streams fsnotify notifications,
// turning rename pairs into moves.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sefs/internal/core/domain"
	"github.com/custodia-labs/sefs/internal/core/ports/driven"
	"github.com/custodia-labs/sefs/internal/logger"
)

// DefaultPairWindow is how long a rename waits for its matching create
// before it is reported as a deletion.
const DefaultPairWindow = 250 * time.Millisecond

// eventBuffer is the capacity of the channels returned by Scan and Watch.
const eventBuffer = 64

// Ensure Connector implements the interface.
var _ driven.EventSource = (*Connector)(nil)

// Connector is the filesystem event source for one root directory.
type Connector struct {
	rootPath   string
	pairWindow time.Duration

	mu       sync.Mutex
	closed   bool
	watchers map[*fsnotify.Watcher]struct{}
}

// Option configures a Connector.
type Option func(*Connector)

// WithPairWindow sets how long renames wait for a matching create.
func WithPairWindow(d time.Duration) Option {
	return func(c *Connector) {
		if d > 0 {
			c.pairWindow = d
		}
	}
}

// New creates a connector for rootPath. Relative paths are made absolute.
func New(rootPath string, opts ...Option) *Connector {
	root := filepath.Clean(rootPath)
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	c := &Connector{
		rootPath:   root,
		pairWindow: DefaultPairWindow,
		watchers:   make(map[*fsnotify.Watcher]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Root returns the absolute watched directory.
func (c *Connector) Root() string {
	return c.rootPath
}

// Validate checks the root exists and is a readable directory.
func (c *Connector) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(c.rootPath)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: root path %s does not exist", domain.ErrInvalidInput, c.rootPath)
	}
	if err != nil {
		return fmt.Errorf("stat root path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: root path %s is not a directory", domain.ErrInvalidInput, c.rootPath)
	}
	dir, err := os.Open(c.rootPath)
	if err != nil {
		return fmt.Errorf("root path %s is not readable: %w", c.rootPath, err)
	}
	return dir.Close()
}

// Scan walks the root and emits a Created event for every visible regular file.
// Unreadable subdirectories are logged and skipped; only a root failure is sent
// on the error channel. Cancellation stops the walk silently.
func (c *Connector) Scan(ctx context.Context) (<-chan domain.FsEvent, <-chan error) {
	events := make(chan domain.FsEvent, eventBuffer)
	errs := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errs)

		if err := c.Validate(ctx); err != nil {
			if ctx.Err() == nil {
				errs <- err
			}
			return
		}
		err := c.walkFiles(ctx, c.rootPath, func(path string) bool {
			select {
			case events <- domain.Created{Path: path}:
				return true
			case <-ctx.Done():
				return false
			}
		})
		if err != nil && ctx.Err() == nil {
			errs <- err
		}
	}()

	return events, errs
}

// Watch streams live notifications for the whole tree until ctx is cancelled
// or the connector is closed. New subdirectories are watched as they appear.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.FsEvent, error) {
	if err := c.Validate(ctx); err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errors.New("connector is closed")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	c.watchers[w] = struct{}{}
	c.mu.Unlock()

	if err := c.addTree(w, c.rootPath); err != nil {
		c.release(w)
		return nil, err
	}

	out := make(chan domain.FsEvent, eventBuffer)
	t := newTranslator(c.rootPath, c.pairWindow, func(dir string) error { return c.addTree(w, dir) })
	go c.loop(ctx, w, t, out)
	return out, nil
}

// Close stops every active watch. It is safe to call more than once.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	var errs []error
	for w := range c.watchers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(c.watchers, w)
	}
	return errors.Join(errs...)
}

func (c *Connector) loop(ctx context.Context, w *fsnotify.Watcher, t *translator, out chan<- domain.FsEvent) {
	defer close(out)
	defer c.release(w)

	send := func(evs []domain.FsEvent) bool {
		for _, ev := range evs {
			select {
			case out <- ev:
			case <-ctx.Done():
				return false
			}
		}
		return true
	}

	for {
		var expire <-chan time.Time
		if deadline, ok := t.nextDeadline(); ok {
			expire = time.After(time.Until(deadline))
		}

		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if !send(t.translate(ev)) {
				return
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				logger.Error("watch %s: event queue overflowed, rescanning", c.rootPath)
				if !c.resync(ctx, send) {
					return
				}
				continue
			}
			logger.Warn("watch %s: %v", c.rootPath, err)
		case <-expire:
			if !send(t.expire()) {
				return
			}
		}
	}
}

// resync re-emits a Created event for every visible file after the kernel
// dropped notifications. Unchanged files are recognised by their hash
// downstream. Returns false when ctx ends first.
func (c *Connector) resync(ctx context.Context, send func([]domain.FsEvent) bool) bool {
	ok := true
	err := c.walkFiles(ctx, c.rootPath, func(path string) bool {
		ok = send([]domain.FsEvent{domain.Created{Path: path}})
		return ok
	})
	if err != nil {
		logger.Warn("watch %s: rescan: %v", c.rootPath, err)
	}
	return ok && ctx.Err() == nil
}

// release closes w and forgets it.
func (c *Connector) release(w *fsnotify.Watcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.watchers[w]; ok {
		_ = w.Close()
		delete(c.watchers, w)
	}
}

// addTree watches dir and every visible directory below it.
func (c *Connector) addTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("watch %s: %w", path, err)
			}
			logger.Warn("watch: skipping %s: %v", path, err)
			return fs.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if path != c.rootPath && isHidden(c.rel(path)) {
			return fs.SkipDir
		}
		if err := w.Add(path); err != nil {
			if path == dir {
				return fmt.Errorf("watch %s: %w", path, err)
			}
			logger.Warn("watch: cannot add %s: %v", path, err)
		}
		return nil
	})
}

// walkFiles calls emit for every visible regular file under dir until emit
// returns false.
func (c *Connector) walkFiles(ctx context.Context, dir string, emit func(path string) bool) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if path == dir {
				return err
			}
			logger.Warn("scan: skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if path != c.rootPath && isHidden(c.rel(path)) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !emit(path) {
			return fs.SkipAll
		}
		return nil
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (c *Connector) rel(path string) string {
	rel, err := filepath.Rel(c.rootPath, path)
	if err != nil {
		return path
	}
	return rel
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && part[0] == '.' && part != ".." {
			return true
		}
	}
	return false
}
