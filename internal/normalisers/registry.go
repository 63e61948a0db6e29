package normalisers

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sefs/internal/core/domain"
	"github.com/custodia-labs/sefs/internal/core/ports/driven"
	"github.com/custodia-labs/sefs/internal/normalisers/csv"
	"github.com/custodia-labs/sefs/internal/normalisers/docx"
	"github.com/custodia-labs/sefs/internal/normalisers/html"
	"github.com/custodia-labs/sefs/internal/normalisers/markdown"
	"github.com/custodia-labs/sefs/internal/normalisers/pdf"
	"github.com/custodia-labs/sefs/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry dispatches extraction by lower-cased file extension.
// When several extractors claim an extension the highest priority wins,
// and on equal priority the one registered first.
type Registry struct {
	mu    sync.RWMutex
	byExt map[string][]driven.Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string][]driven.Extractor)}
}

// NewDefaultRegistry creates a registry with every built-in extractor.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(csv.New())
	r.Register(docx.New())
	r.Register(pdf.New())
	return r
}

// Register adds an extractor for each of its extensions.
func (r *Registry) Register(e driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range e.SupportedExtensions() {
		ext = strings.ToLower(ext)
		list := append(r.byExt[ext], e)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byExt[ext] = list
	}
}

// Get returns the preferred extractor for path, or nil.
func (r *Registry) Get(path string) driven.Extractor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.byExt[strings.ToLower(filepath.Ext(path))]
	if len(list) == 0 {
		return nil
	}
	return list[0]
}

// Supports reports whether any extractor handles path.
func (r *Registry) Supports(path string) bool {
	return r.Get(path) != nil
}

// Extract dispatches to the preferred extractor for path.
func (r *Registry) Extract(ctx context.Context, path string, content []byte) (string, error) {
	e := r.Get(path)
	if e == nil {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedType, filepath.Ext(path))
	}
	return e.Extract(ctx, path, content)
}

// SupportedExtensions returns every registered extension, sorted.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
