package services

import (
	"context"
	"errors"
	"hash/fnv"
	"io/fs"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/sefs/internal/core/domain"
	"github.com/custodia-labs/sefs/internal/core/ports/driven"
)

// stubGate reports a fixed answer.
type stubGate struct{ stable bool }

func (g stubGate) IsStable(context.Context, string) bool { return g.stable }

// mockExtractors treats .txt and .md files as plain text.
// Content starting with "CORRUPT" fails extraction.
type mockExtractors struct{}

func (mockExtractors) Register(driven.Extractor) {}

func (mockExtractors) Get(string) driven.Extractor { return nil }

func (mockExtractors) Supports(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return true
	}
	return false
}

func (m mockExtractors) Extract(_ context.Context, path string, content []byte) (string, error) {
	if !m.Supports(path) {
		return "", domain.ErrUnsupportedType
	}
	if strings.HasPrefix(string(content), "CORRUPT") {
		return "", &domain.ExtractionError{Path: path, Err: errors.New("corrupt")}
	}
	return string(content), nil
}

func (mockExtractors) SupportedExtensions() []string { return []string{".md", ".txt"} }

// mockEmbedder hashes words into a fixed number of buckets, so texts sharing
// vocabulary land close together.
type mockEmbedder struct {
	mu    sync.Mutex
	dims  int
	calls int
	err   error
}

func newMockEmbedder() *mockEmbedder { return &mockEmbedder{dims: 64} }

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	err := m.err
	dims := m.dims
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	v := make([]float32, dims)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%uint32(dims)]++
	}
	var norm float64
	for _, x := range v {
		norm += float64(x * x)
	}
	if norm > 0 {
		n := float32(math.Sqrt(norm))
		for i := range v {
			v[i] /= n
		}
	}
	return v, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dims
}
func (m *mockEmbedder) ModelName() string          { return "mock" }
func (m *mockEmbedder) Ping(context.Context) error { return nil }
func (m *mockEmbedder) Close() error               { return nil }
func (m *mockEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
func (m *mockEmbedder) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}
func (m *mockEmbedder) SetDims(d int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dims = d
}

// mockCache is an in-memory EmbeddingCache.
type mockCache struct {
	mu      sync.Mutex
	entries map[string]driven.CachedEmbedding
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string]driven.CachedEmbedding)}
}

func (c *mockCache) Get(_ context.Context, model, hash string) (*driven.CachedEmbedding, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[model+"/"+hash]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (c *mockCache) Put(_ context.Context, model, hash string, entry driven.CachedEmbedding) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[model+"/"+hash] = entry
	return nil
}

func (c *mockCache) Close() error { return nil }

// mockLLM answers prompts from a function.
type mockLLM struct {
	mu      sync.Mutex
	calls   int
	respond func(prompt string) (string, error)
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.calls++
	respond := m.respond
	m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return respond(prompt)
}

func (m *mockLLM) ModelName() string          { return "mock-llm" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error               { return nil }
func (m *mockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockRunStore is an in-memory RunStore.
type mockRunStore struct {
	mu   sync.RWMutex
	runs []domain.ReorganiseRun
}

func (s *mockRunStore) RecordRun(_ context.Context, run *domain.ReorganiseRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, *run)
	return nil
}

func (s *mockRunStore) GetRun(_ context.Context, id string) (*domain.ReorganiseRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.runs {
		if s.runs[i].ID == id {
			r := s.runs[i]
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *mockRunStore) ListRuns(_ context.Context, limit int) ([]domain.ReorganiseRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]domain.ReorganiseRun(nil), s.runs...)
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *mockRunStore) PruneRuns(context.Context, int) error { return nil }

// fakeSource walks a real directory for scans and replays live events
// pushed onto its channel.
type fakeSource struct {
	root string
	live chan domain.FsEvent
}

func newFakeSource(root string) *fakeSource {
	return &fakeSource{root: root, live: make(chan domain.FsEvent, 16)}
}

func (s *fakeSource) Root() string { return s.root }

func (s *fakeSource) Validate(context.Context) error { return nil }

func (s *fakeSource) Scan(ctx context.Context) (<-chan domain.FsEvent, <-chan error) {
	events := make(chan domain.FsEvent)
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		defer close(events)
		err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			select {
			case events <- domain.Created{Path: p}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			errs <- err
		}
	}()
	return events, errs
}

func (s *fakeSource) Watch(context.Context) (<-chan domain.FsEvent, error) {
	return s.live, nil
}

func (s *fakeSource) Close() error { return nil }

// waitFor polls cond until it is true or the timeout elapses.
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
