package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/sefs/internal/core/domain"
	"github.com/custodia-labs/sefs/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

// RunStore is an in-memory implementation of driven.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]domain.ReorganiseRun
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]domain.ReorganiseRun),
	}
}

// RecordRun stores or replaces a run.
func (s *RunStore) RecordRun(_ context.Context, run *domain.ReorganiseRun) error {
	if run == nil || run.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = *run
	return nil
}

// GetRun retrieves a run by ID.
func (s *RunStore) GetRun(_ context.Context, id string) (*domain.ReorganiseRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &run, nil
}

// ListRuns returns runs newest first. A non-positive limit returns all.
func (s *RunStore) ListRuns(_ context.Context, limit int) ([]domain.ReorganiseRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.runs, limit), nil
}

// PruneRuns keeps only the most recent keep runs.
func (s *RunStore) PruneRuns(_ context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if keep < 0 {
		keep = 0
	}
	kept := newestFirst(s.runs, 0)
	if len(kept) <= keep {
		return nil
	}
	for _, run := range kept[keep:] {
		delete(s.runs, run.ID)
	}
	return nil
}

func newestFirst(runs map[string]domain.ReorganiseRun, limit int) []domain.ReorganiseRun {
	out := make([]domain.ReorganiseRun, 0, len(runs))
	for _, run := range runs {
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
