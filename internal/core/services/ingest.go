package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"

	"github.com/custodia-labs/sefs/internal/core/domain"
	"github.com/custodia-labs/sefs/internal/core/ports/driven"
	"github.com/custodia-labs/sefs/internal/logger"
)

// StabilityChecker reports whether a file has finished being written.
type StabilityChecker interface {
	IsStable(ctx context.Context, path string) bool
}

// Ingestor turns raw file-system events into registry mutations.
// It is driven from a single goroutine; the registry handles its own locking.
type Ingestor struct {
	root       string
	ignoreExt  map[string]struct{}
	globs      []string
	registry   *Registry
	gate       StabilityChecker
	extractors driven.ExtractorRegistry
	embedder   driven.EmbeddingService
	cache      driven.EmbeddingCache
	splitter   driven.TextSplitter

	readFile func(string) ([]byte, error)
	now      func() time.Time
}

// NewIngestor creates an ingestor for root.
func NewIngestor(
	root string,
	ignore domain.IgnoreSettings,
	registry *Registry,
	gate StabilityChecker,
	extractors driven.ExtractorRegistry,
	embedder driven.EmbeddingService,
) *Ingestor {
	ext := make(map[string]struct{}, len(ignore.Extensions))
	for _, e := range ignore.Extensions {
		ext[strings.ToLower(e)] = struct{}{}
	}
	return &Ingestor{
		root:       filepath.Clean(root),
		ignoreExt:  ext,
		globs:      ignore.Globs,
		registry:   registry,
		gate:       gate,
		extractors: extractors,
		embedder:   embedder,
		readFile:   os.ReadFile,
		now:        time.Now,
	}
}

// SetCache enables the embedding cache. A nil cache disables it.
func (in *Ingestor) SetCache(cache driven.EmbeddingCache) {
	in.cache = cache
}

// SetSplitter enables chunked embedding of long texts. A nil splitter embeds
// every text whole.
func (in *Ingestor) SetSplitter(splitter driven.TextSplitter) {
	in.splitter = splitter
}

// Ingest applies one event to the registry and reports what happened.
// It never panics on a bad file; failures are returned as outcomes.
// The event's paths stay claimed until the registry write, so a concurrent
// materialisation cannot move them in between.
func (in *Ingestor) Ingest(ctx context.Context, ev domain.FsEvent) domain.Outcome {
	if ev != nil {
		release := in.registry.Claim(ev.Paths()...)
		defer release()
	}
	switch e := ev.(type) {
	case domain.Created:
		return in.upsert(ctx, e.Path)
	case domain.Modified:
		return in.upsert(ctx, e.Path)
	case domain.Deleted:
		return in.remove(e.Path)
	case domain.Moved:
		return in.move(ctx, e.Src, e.Dst)
	default:
		return domain.Failed("", fmt.Errorf("%w: event %T", domain.ErrUnsupportedType, ev))
	}
}

// Admit returns an empty string when path may be ingested, otherwise the reason
// it is skipped.
func (in *Ingestor) Admit(path string) string {
	rel, err := filepath.Rel(in.root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "outside root"
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if strings.HasPrefix(part, ".") {
			return "hidden"
		}
	}
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := in.ignoreExt[ext]; ok {
		return "ignored extension"
	}
	slashRel := filepath.ToSlash(rel)
	for _, pattern := range in.globs {
		if ok, _ := doublestar.Match(pattern, slashRel); ok {
			return "ignored by " + pattern
		}
	}
	if !in.extractors.Supports(path) {
		return "no extractor"
	}
	return ""
}

func (in *Ingestor) remove(path string) domain.Outcome {
	if in.registry.Remove(path) {
		return domain.Outcome{Status: domain.OutcomeRemoved, Path: path}
	}
	// A removed directory takes its registered files with it.
	if n := in.registry.RemoveUnder(path); n > 0 {
		return domain.Outcome{Status: domain.OutcomeRemoved, Path: path, Reason: fmt.Sprintf("%d files under directory", n)}
	}
	return domain.Outcome{Status: domain.OutcomeUnchanged, Path: path, Reason: "not registered"}
}

func (in *Ingestor) upsert(ctx context.Context, path string) domain.Outcome {
	prev, hadPrev := in.registry.Get(path)

	b, out := in.build(ctx, path, prev)
	if b == nil {
		// A file whose text became empty no longer has a valid embedding.
		if hadPrev && out.Reason == reasonEmpty {
			in.registry.Remove(path)
			return domain.Outcome{Status: domain.OutcomeRemoved, Path: path, Reason: reasonEmpty}
		}
		return out
	}
	if b.reused && hadPrev {
		return domain.Outcome{Status: domain.OutcomeUnchanged, Path: path, Reason: "same content"}
	}
	if err := in.registry.Put(b.rec); err != nil {
		return domain.Failed(path, err)
	}
	return domain.Outcome{Status: domain.OutcomeIngested, Path: path}
}

func (in *Ingestor) move(ctx context.Context, src, dst string) domain.Outcome {
	prev, ok := in.registry.Get(src)
	if !ok {
		if n := in.registry.RemoveUnder(src); n > 0 {
			logger.Debug("ingest: directory %s moved, dropped %d records", src, n)
		}
		return in.upsert(ctx, dst)
	}

	b, out := in.build(ctx, dst, prev)
	var next *domain.FileRecord
	if b != nil {
		next = b.rec
	}
	if _, err := in.registry.Replace(src, next); err != nil {
		// The destination could not be stored; the source is gone either way.
		in.registry.Remove(src)
		return domain.Outcome{Status: domain.OutcomeRemoved, Path: src, Reason: err.Error(), Err: err}
	}
	if next == nil {
		return domain.Outcome{Status: domain.OutcomeRemoved, Path: src, Reason: out.Reason, Err: out.Err}
	}
	return domain.Outcome{Status: domain.OutcomeRelocated, Path: dst}
}

const reasonEmpty = "empty text"

type built struct {
	rec    *domain.FileRecord
	reused bool
}

// build computes the record for path. When prev has the same content hash its
// text and embedding are reused. A nil result comes with a skip or failure outcome.
func (in *Ingestor) build(ctx context.Context, path string, prev *domain.FileRecord) (*built, domain.Outcome) {
	if reason := in.Admit(path); reason != "" {
		return nil, domain.Skipped(path, reason)
	}
	if !in.gate.IsStable(ctx, path) {
		return nil, domain.Skipped(path, "unstable")
	}
	content, err := in.readFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.Skipped(path, "vanished")
		}
		return nil, domain.Failed(path, fmt.Errorf("read: %w", err))
	}
	hash := ContentHash(content)

	rec := &domain.FileRecord{
		Path:        path,
		ContentHash: hash,
		IngestedAt:  in.now(),
	}
	if prev != nil && prev.ContentHash == hash && prev.Clusterable() {
		rec.Text = prev.Text
		rec.Embedding = prev.Embedding
		return &built{rec: rec, reused: true}, domain.Outcome{}
	}

	if cached := in.lookup(ctx, hash); cached != nil {
		rec.Text = cached.Text
		rec.Embedding = cached.Embedding
		return &built{rec: rec}, domain.Outcome{}
	}

	text, err := in.extractors.Extract(ctx, path, content)
	if err != nil {
		return nil, domain.Failed(path, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.Skipped(path, reasonEmpty)
	}
	emb, err := in.embed(ctx, text)
	if err != nil {
		return nil, domain.Failed(path, fmt.Errorf("embed: %w", err))
	}
	if len(emb) == 0 {
		return nil, domain.Failed(path, fmt.Errorf("embed: %w: empty vector", domain.ErrEmbeddingUnavailable))
	}
	rec.Text = text
	rec.Embedding = emb
	in.store(ctx, hash, rec)
	return &built{rec: rec}, domain.Outcome{}
}

// embed returns the vector for text. Split texts get the mean of their
// chunk vectors.
func (in *Ingestor) embed(ctx context.Context, text string) ([]float32, error) {
	var chunks []string
	if in.splitter != nil {
		chunks = in.splitter.Split(text)
	}
	if len(chunks) <= 1 {
		return in.embedder.Embed(ctx, text)
	}
	vecs, err := in.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, err
	}
	return meanVector(vecs)
}

func meanVector(vecs [][]float32) ([]float32, error) {
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, nil
	}
	dim := len(vecs[0])
	sum := make([]float64, dim)
	for _, v := range vecs {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: chunk vectors of length %d and %d", domain.ErrDimensionMismatch, dim, len(v))
		}
		for i, x := range v {
			sum[i] += float64(x)
		}
	}
	out := make([]float32, dim)
	for i, x := range sum {
		out[i] = float32(x / float64(len(vecs)))
	}
	return out, nil
}

func (in *Ingestor) lookup(ctx context.Context, hash string) *driven.CachedEmbedding {
	if in.cache == nil {
		return nil
	}
	cached, err := in.cache.Get(ctx, in.embedder.ModelName(), hash)
	if err != nil {
		logger.Warn("ingest: cache lookup failed: %v", err)
		return nil
	}
	if cached == nil || len(cached.Embedding) == 0 {
		return nil
	}
	return cached
}

func (in *Ingestor) store(ctx context.Context, hash string, rec *domain.FileRecord) {
	if in.cache == nil {
		return
	}
	entry := driven.CachedEmbedding{Embedding: rec.Embedding, Text: rec.Text}
	if err := in.cache.Put(ctx, in.embedder.ModelName(), hash, entry); err != nil {
		logger.Warn("ingest: cache store failed: %v", err)
	}
}

// ContentHash returns the hex xxhash64 digest of content.
func ContentHash(content []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(content))
}
