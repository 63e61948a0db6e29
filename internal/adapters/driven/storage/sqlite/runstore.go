package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/sefs/internal/core/domain"
	"github.com/custodia-labs/sefs/internal/core/ports/driven"
)

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

const runColumns = `id, trigger_kind, started_at, ended_at, files, clusters, moved, failed, note`

// RecordRun stores a run, replacing one with the same ID.
func (s *runStore) RecordRun(ctx context.Context, run *domain.ReorganiseRun) error {
	if run == nil || run.ID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			trigger_kind = excluded.trigger_kind,
			started_at = excluded.started_at,
			ended_at = excluded.ended_at,
			files = excluded.files,
			clusters = excluded.clusters,
			moved = excluded.moved,
			failed = excluded.failed,
			note = excluded.note
	`, run.ID, string(run.Trigger), unixNano(run.StartedAt), unixNano(run.EndedAt),
		run.Files, run.Clusters, run.Moved, run.Failed, run.Note)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *runStore) GetRun(ctx context.Context, id string) (*domain.ReorganiseRun, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	return run, nil
}

// ListRuns returns runs newest first. A non-positive limit returns all.
func (s *runStore) ListRuns(ctx context.Context, limit int) ([]domain.ReorganiseRun, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+runColumns+` FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.ReorganiseRun //nolint:prealloc // size unknown from query
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// PruneRuns removes all but the most recent keep runs.
func (s *runStore) PruneRuns(ctx context.Context, keep int) error {
	if keep < 0 {
		keep = 0
	}
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY started_at DESC, id DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning runs: %w", err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.ReorganiseRun, error) {
	var (
		run              domain.ReorganiseRun
		trigger          string
		started, stopped int64
	)
	if err := row.Scan(&run.ID, &trigger, &started, &stopped,
		&run.Files, &run.Clusters, &run.Moved, &run.Failed, &run.Note); err != nil {
		return nil, err
	}
	run.Trigger = domain.RunTrigger(trigger)
	run.StartedAt = fromUnixNano(started)
	run.EndedAt = fromUnixNano(stopped)
	return &run, nil
}
