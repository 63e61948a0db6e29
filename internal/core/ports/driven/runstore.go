package driven

import (
	"context"

	"github.com/custodia-labs/sefs/internal/core/domain"
)

// RunStore persists reorganisation history.
type RunStore interface {
	// RecordRun stores a completed run.
	RecordRun(ctx context.Context, run *domain.ReorganiseRun) error

	// GetRun retrieves a run by ID.
	// Returns domain.ErrNotFound if the run does not exist.
	GetRun(ctx context.Context, id string) (*domain.ReorganiseRun, error)

	// ListRuns returns recent runs, most recent first.
	ListRuns(ctx context.Context, limit int) ([]domain.ReorganiseRun, error)

	// PruneRuns removes all but the most recent 'keep' runs.
	PruneRuns(ctx context.Context, keep int) error
}
