// Package lock provides the per-root instance lock.
package lock

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/custodia-labs/sefs/internal/core/domain"
	"github.com/custodia-labs/sefs/internal/core/ports/driven"
)

// FileName is the lock file created inside the organised root.
// The leading dot keeps it out of ingestion.
const FileName = ".sefs.lock"

// Ensure RootLock implements the interface.
var _ driven.RootLock = (*RootLock)(nil)

// RootLock is an advisory file lock held for the lifetime of an organiser.
type RootLock struct {
	mu   sync.Mutex
	lock *flock.Flock
	held bool
}

// New returns an unlocked lock for root.
func New(root string) *RootLock {
	return &RootLock{lock: flock.New(filepath.Join(root, FileName))}
}

// TryLock acquires the lock without blocking.
func (l *RootLock) TryLock() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return nil
	}
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", l.lock.Path(), err)
	}
	if !locked {
		return fmt.Errorf("%w (lock: %s)", domain.ErrLocked, l.lock.Path())
	}
	l.held = true
	return nil
}

// Unlock releases the lock. The lock file is left in place.
func (l *RootLock) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.held {
		return nil
	}
	l.held = false
	return l.lock.Unlock()
}

// Path returns the lock file path.
func (l *RootLock) Path() string {
	return l.lock.Path()
}
