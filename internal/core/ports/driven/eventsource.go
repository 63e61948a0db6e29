package driven

import (
	"context"

	"github.com/custodia-labs/sefs/internal/core/domain"
)

// EventSource produces the raw file-system notifications for the organised root.
type EventSource interface {
	// Root returns the absolute watched directory.
	Root() string

	// Validate checks the root exists and is a readable directory.
	Validate(ctx context.Context) error

	// Scan walks the root once and emits a Created event for every visible file.
	// Both channels are closed when the walk ends.
	Scan(ctx context.Context) (<-chan domain.FsEvent, <-chan error)

	// Watch streams live notifications until ctx is cancelled or Close is called.
	// The channel is closed when watching stops.
	Watch(ctx context.Context) (<-chan domain.FsEvent, error)

	// Close releases resources.
	Close() error
}
