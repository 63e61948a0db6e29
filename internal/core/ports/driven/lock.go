package driven

// RootLock guarantees that a single organiser instance moves files under a root.
type RootLock interface {
	// TryLock acquires the lock without blocking.
	// Returns domain.ErrLocked when another process holds it.
	TryLock() error

	// Unlock releases the lock. Safe to call when not held.
	Unlock() error

	// Path returns the lock file path.
	Path() string
}
