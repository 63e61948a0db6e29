package driving

import (
	"context"

	"github.com/custodia-labs/sefs/internal/core/domain"
)

// Organiser is the entry point used by the CLI, the MCP server and the live
// HTTP server.
type Organiser interface {
	// Run scans the root, then consumes live events until ctx is cancelled.
	// Ingestion happens on a single goroutine in arrival order.
	Run(ctx context.Context) error

	// Scan ingests every file under the root once without watching.
	Scan(ctx context.Context) error

	// Reorganise performs one cluster, name and materialise pass immediately.
	Reorganise(ctx context.Context) (*domain.ReorganiseRun, error)

	// Tree returns the current hierarchy derived from the registry.
	Tree() *domain.TreeNode

	// Subscribe registers a listener for notifications.
	// The returned function unsubscribes and closes the channel.
	Subscribe() (<-chan domain.Notification, func())

	// Runs returns recent reorganisation runs, most recent first.
	Runs(ctx context.Context, limit int) ([]domain.ReorganiseRun, error)
}
