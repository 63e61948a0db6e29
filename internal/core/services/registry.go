package services

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sefs/internal/core/domain"
)

// Registry is the single source of truth mapping a file's current path to its
// derived metadata. All mutations take the write lock; readers receive clones.
//
// Paths can also be claimed across a slow read-compute-write sequence.
// Ingestion claims the paths of an event for its whole duration and the
// materialiser claims both ends of a move, so the two never interleave on
// the same path.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*domain.FileRecord
	dim     int

	claimMu sync.Mutex
	claimed map[string]struct{}
	freed   *sync.Cond
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{
		records: make(map[string]*domain.FileRecord),
		claimed: make(map[string]struct{}),
	}
	r.freed = sync.NewCond(&r.claimMu)
	return r
}

// Claim blocks until none of paths is claimed, then claims them all.
// The returned func releases the claim.
func (r *Registry) Claim(paths ...string) func() {
	r.claimMu.Lock()
	for r.anyClaimedLocked(paths) {
		r.freed.Wait()
	}
	r.claimLocked(paths)
	r.claimMu.Unlock()
	return func() { r.release(paths) }
}

// TryClaim claims paths only if none of them is claimed.
func (r *Registry) TryClaim(paths ...string) (func(), bool) {
	r.claimMu.Lock()
	defer r.claimMu.Unlock()
	if r.anyClaimedLocked(paths) {
		return nil, false
	}
	r.claimLocked(paths)
	return func() { r.release(paths) }, true
}

func (r *Registry) anyClaimedLocked(paths []string) bool {
	for _, p := range paths {
		if _, ok := r.claimed[p]; ok {
			return true
		}
	}
	return false
}

func (r *Registry) claimLocked(paths []string) {
	for _, p := range paths {
		r.claimed[p] = struct{}{}
	}
}

func (r *Registry) release(paths []string) {
	r.claimMu.Lock()
	for _, p := range paths {
		delete(r.claimed, p)
	}
	r.claimMu.Unlock()
	r.freed.Broadcast()
}

// Get returns a copy of the record at path.
func (r *Registry) Get(path string) (*domain.FileRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[path]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// Has reports whether path is registered.
func (r *Registry) Has(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.records[path]
	return ok
}

// Len returns the number of records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Dimension returns the embedding length established by the first vector,
// or 0 when no vector has been accepted yet.
func (r *Registry) Dimension() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dim
}

// Put inserts or overwrites the record keyed by rec.Path.
func (r *Registry) Put(rec *domain.FileRecord) error {
	if rec == nil || rec.Path == "" {
		return fmt.Errorf("%w: record without path", domain.ErrInvalidInput)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkDimLocked(rec); err != nil {
		return err
	}
	r.records[rec.Path] = rec.Clone()
	return nil
}

// Remove deletes the record at path. Returns false when nothing was registered.
func (r *Registry) Remove(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[path]; !ok {
		return false
	}
	delete(r.records, path)
	return true
}

// RemoveUnder deletes every record below dir and returns how many were removed.
func (r *Registry) RemoveUnder(dir string) int {
	prefix := strings.TrimSuffix(dir, string(filepath.Separator)) + string(filepath.Separator)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for p := range r.records {
		if strings.HasPrefix(p, prefix) {
			delete(r.records, p)
			n++
		}
	}
	return n
}

// Replace removes src and inserts rec as a single transition.
// A nil rec degenerates to removing src. Returns whether src was registered.
func (r *Registry) Replace(src string, rec *domain.FileRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec != nil {
		if rec.Path == "" {
			return false, fmt.Errorf("%w: record without path", domain.ErrInvalidInput)
		}
		if err := r.checkDimLocked(rec); err != nil {
			return false, err
		}
	}
	_, had := r.records[src]
	delete(r.records, src)
	if rec != nil {
		r.records[rec.Path] = rec.Clone()
	}
	return had, nil
}

// Relocate moves the record from oldPath to newPath and sets its cluster id.
// The old key disappears and the new key appears in one step.
func (r *Registry) Relocate(oldPath, newPath string, clusterID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[oldPath]
	if !ok {
		return fmt.Errorf("relocate %s: %w", oldPath, domain.ErrNotFound)
	}
	if oldPath != newPath {
		if _, exists := r.records[newPath]; exists {
			return fmt.Errorf("relocate to %s: %w", newPath, domain.ErrAlreadyExists)
		}
		delete(r.records, oldPath)
		rec.Path = newPath
		r.records[newPath] = rec
	}
	rec.ClusterID = domain.IntPtr(clusterID)
	return nil
}

// SetCluster updates the cluster id of the record at path.
func (r *Registry) SetCluster(path string, clusterID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[path]
	if !ok {
		return fmt.Errorf("set cluster %s: %w", path, domain.ErrNotFound)
	}
	rec.ClusterID = domain.IntPtr(clusterID)
	return nil
}

// Snapshot returns copies of all records ordered by path.
func (r *Registry) Snapshot() []*domain.FileRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.FileRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Clusterable returns copies of records with an embedding, ordered by path.
func (r *Registry) Clusterable() []*domain.FileRecord {
	all := r.Snapshot()
	out := all[:0]
	for _, rec := range all {
		if rec.Clusterable() {
			out = append(out, rec)
		}
	}
	return out
}

func (r *Registry) checkDimLocked(rec *domain.FileRecord) error {
	if len(rec.Embedding) == 0 {
		return nil
	}
	if r.dim == 0 {
		r.dim = len(rec.Embedding)
		return nil
	}
	if len(rec.Embedding) != r.dim {
		return fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(rec.Embedding), r.dim)
	}
	return nil
}
