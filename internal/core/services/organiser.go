package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sefs/internal/core/domain"
	"github.com/custodia-labs/sefs/internal/core/ports/driven"
	"github.com/custodia-labs/sefs/internal/core/ports/driving"
	"github.com/custodia-labs/sefs/internal/logger"
)

// Verify interface compliance.
var _ driving.Organiser = (*Organiser)(nil)

// selfMoveTTL bounds how long an expected watcher echo of our own move is kept.
const selfMoveTTL = 10 * time.Second

// echo is one expected watcher report of a move made by the materialiser.
type echo struct {
	until time.Time
	dst   bool
}

// OrganiserConfig holds the collaborators of an Organiser.
// LLM, Prompts, Cache, Runs, Splitter and Gate are optional.
type OrganiserConfig struct {
	Settings   domain.Settings
	Source     driven.EventSource
	Extractors driven.ExtractorRegistry
	Embedder   driven.EmbeddingService
	LLM        driven.LLMService
	Prompts    driven.PromptStore
	Cache      driven.EmbeddingCache
	Runs       driven.RunStore
	Splitter   driven.TextSplitter
	Gate       StabilityChecker
}

// Organiser drives the whole pipeline: events are ingested on one goroutine,
// ingestion ticks the debouncer, and each debounced run clusters, names and
// materialises the registry.
type Organiser struct {
	root         string
	source       driven.EventSource
	registry     *Registry
	ingestor     *Ingestor
	engine       *ClusterEngine
	materialiser *Materialiser
	runs         driven.RunStore
	notify       *Broadcaster
	debouncer    *Debouncer

	// runMu serialises reorganisation runs.
	runMu sync.Mutex

	mu      sync.Mutex
	baseCtx context.Context
	echoes  map[string]echo

	now func() time.Time
}

// NewOrganiser wires an organiser from cfg.
func NewOrganiser(cfg OrganiserConfig) (*Organiser, error) {
	if cfg.Source == nil || cfg.Extractors == nil || cfg.Embedder == nil {
		return nil, fmt.Errorf("%w: organiser needs an event source, extractors and an embedder", domain.ErrInvalidInput)
	}
	s := cfg.Settings
	root := cfg.Source.Root()

	gate := cfg.Gate
	if gate == nil {
		gate = NewStabilityGate(s.Stability.Checks, s.Stability.Interval)
	}

	registry := NewRegistry()
	ingestor := NewIngestor(root, s.Ignore, registry, gate, cfg.Extractors, cfg.Embedder)
	if cfg.Cache != nil {
		ingestor.SetCache(cfg.Cache)
	}
	if cfg.Splitter != nil {
		ingestor.SetSplitter(cfg.Splitter)
	}

	namer := NewNamer(cfg.LLM, s.Naming)
	if cfg.Prompts != nil {
		namer.SetPromptStore(cfg.Prompts)
	}

	o := &Organiser{
		root:         root,
		source:       cfg.Source,
		registry:     registry,
		ingestor:     ingestor,
		engine:       NewClusterEngine(s.Threshold),
		materialiser: NewMaterialiser(root, registry, namer),
		runs:         cfg.Runs,
		notify:       NewBroadcaster(),
		baseCtx:      context.Background(),
		echoes:       make(map[string]echo),
		now:          time.Now,
	}
	o.materialiser.OnMove(o.expectMove, o.forgetMove)
	o.debouncer = NewDebouncer(s.Debounce, o.debounced)
	return o, nil
}

// Run scans the root, then consumes live events until ctx is cancelled.
// Watching starts before the scan so files appearing meanwhile are not lost.
func (o *Organiser) Run(ctx context.Context) error {
	if err := o.source.Validate(ctx); err != nil {
		return err
	}
	o.mu.Lock()
	o.baseCtx = ctx
	o.mu.Unlock()

	events, err := o.source.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch %s: %w", o.root, err)
	}
	if err := o.Scan(ctx); err != nil {
		if ctx.Err() != nil {
			o.debouncer.Stop()
			return nil
		}
		return err
	}
	o.debouncer.Tick()
	logger.Info("organiser: watching %s (%d files)", o.root, o.registry.Len())

	for {
		select {
		case <-ctx.Done():
			o.debouncer.Stop()
			return nil
		case ev, ok := <-events:
			if !ok {
				o.debouncer.Stop()
				return nil
			}
			o.handle(ctx, ev)
		}
	}
}

// Scan ingests every file under the root once.
func (o *Organiser) Scan(ctx context.Context) error {
	events, errs := o.source.Scan(ctx)
	for ev := range events {
		o.handle(ctx, ev)
	}
	var first error
	for err := range errs {
		logger.Warn("organiser: scan: %v", err)
		if first == nil {
			first = err
		}
	}
	if first != nil {
		return fmt.Errorf("scan %s: %w", o.root, first)
	}
	return ctx.Err()
}

// Reorganise runs one pass now. A pending debounced trigger is dropped
// because this run covers it.
func (o *Organiser) Reorganise(ctx context.Context) (*domain.ReorganiseRun, error) {
	o.debouncer.Cancel()
	return o.reorganise(ctx, domain.TriggerManual)
}

// Tree returns the current hierarchy.
func (o *Organiser) Tree() *domain.TreeNode {
	return BuildTree(o.root, o.registry.Snapshot())
}

// Subscribe registers a notification listener.
func (o *Organiser) Subscribe() (<-chan domain.Notification, func()) {
	return o.notify.Subscribe()
}

// Runs returns recent runs, most recent first.
func (o *Organiser) Runs(ctx context.Context, limit int) ([]domain.ReorganiseRun, error) {
	if o.runs == nil {
		return nil, nil
	}
	return o.runs.ListRuns(ctx, limit)
}

// Registry exposes the registry for read-only inspection.
func (o *Organiser) Registry() *Registry {
	return o.registry
}

// Close stops the debouncer, waits for an in-flight run and releases the
// event source. Subscriber channels are closed.
func (o *Organiser) Close() error {
	o.debouncer.Stop()
	o.notify.Close()
	return o.source.Close()
}

func (o *Organiser) handle(ctx context.Context, ev domain.FsEvent) {
	if o.isEcho(ev) {
		logger.Debug("organiser: ignoring own %s %v", ev.Kind(), ev.Paths())
		return
	}
	out := o.ingestor.Ingest(ctx, ev)
	switch out.Status {
	case domain.OutcomeFailed:
		logger.Warn("ingest %s: %v", out.Path, out.Err)
	case domain.OutcomeSkipped:
		logger.Debug("ingest %s: skipped (%s)", out.Path, out.Reason)
	case domain.OutcomeUnchanged:
		logger.Debug("ingest %s: unchanged (%s)", out.Path, out.Reason)
	default:
		logger.Debug("ingest %s: %s", out.Path, out.Status)
	}
	if !out.Mutated() {
		return
	}
	o.debouncer.Tick()
	paths := ev.Paths()
	o.publish(ev.Kind(), paths[len(paths)-1])
}

func (o *Organiser) debounced() {
	o.mu.Lock()
	ctx := o.baseCtx
	o.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	if _, err := o.reorganise(ctx, domain.TriggerDebounce); err != nil {
		logger.Error("reorganise: %v", err)
	}
}

func (o *Organiser) reorganise(ctx context.Context, trigger domain.RunTrigger) (*domain.ReorganiseRun, error) {
	o.runMu.Lock()
	defer o.runMu.Unlock()

	run := &domain.ReorganiseRun{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		StartedAt: o.now(),
	}
	records := o.registry.Clusterable()
	run.Files = len(records)

	res, err := o.engine.Cluster(records)
	if err != nil {
		run.Note = err.Error()
		o.finish(ctx, run)
		return run, fmt.Errorf("cluster: %w", err)
	}
	if res.NoOp {
		run.Note = res.Reason
		logger.Info("reorganise: nothing to do, %s", res.Reason)
		o.finish(ctx, run)
		return run, nil
	}

	o.materialiser.Label(ctx, res.Clusters)
	mres := o.materialiser.Apply(ctx, res.Clusters)
	run.Clusters = len(res.Clusters)
	run.Moved = mres.Moved
	run.Failed = mres.Failed
	if len(mres.Pruned) > 0 {
		logger.Debug("reorganise: pruned %d empty directories", len(mres.Pruned))
	}
	if mres.Deferred > 0 {
		logger.Debug("reorganise: %d files busy, scheduling another run", mres.Deferred)
		o.debouncer.Tick()
	}
	logger.Info("reorganise: %d files in %d clusters, %d moved, %d failed",
		run.Files, run.Clusters, run.Moved, run.Failed)

	o.finish(ctx, run)
	return run, nil
}

// finish stamps, stores and announces a run.
func (o *Organiser) finish(ctx context.Context, run *domain.ReorganiseRun) {
	run.EndedAt = o.now()
	if o.runs != nil {
		if err := o.runs.RecordRun(ctx, run); err != nil {
			logger.Warn("reorganise: record run: %v", err)
		} else if err := o.runs.PruneRuns(ctx, domain.DefaultRunHistoryLimit); err != nil {
			logger.Warn("reorganise: prune runs: %v", err)
		}
	}
	o.publish(domain.EventReorganized, o.root)
}

func (o *Organiser) publish(kind domain.EventKind, path string) {
	if o.notify.Subscribers() == 0 {
		return
	}
	o.notify.Publish(domain.Notification{
		Event:     kind,
		Path:      path,
		Timestamp: o.now(),
		Tree:      o.Tree(),
	})
}

// expectMove records both ends of a move we are about to make so the
// watcher's report of it can be dropped.
func (o *Organiser) expectMove(src, dst string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	until := o.now().Add(selfMoveTTL)
	o.echoes[src] = echo{until: until}
	o.echoes[dst] = echo{until: until, dst: true}
}

// forgetMove drops the echoes recorded for a move that did not happen, so a
// later real event on either path is ingested.
func (o *Organiser) forgetMove(src, dst string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.echoes, src)
	delete(o.echoes, dst)
}

// isEcho reports whether ev is the watcher's view of one of our own moves:
// the pair itself, the disappearance of a source or the appearance of a
// destination. Matching entries are consumed.
func (o *Organiser) isEcho(ev domain.FsEvent) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	for p, e := range o.echoes {
		if now.After(e.until) {
			delete(o.echoes, p)
		}
	}

	match := func(path string, dst bool) bool {
		e, ok := o.echoes[path]
		return ok && e.dst == dst
	}
	var consumed []string
	switch e := ev.(type) {
	case domain.Moved:
		if match(e.Src, false) && match(e.Dst, true) {
			consumed = []string{e.Src, e.Dst}
		}
	case domain.Deleted:
		if match(e.Path, false) {
			consumed = []string{e.Path}
		}
	case domain.Created:
		if match(e.Path, true) {
			consumed = []string{e.Path}
		}
	}
	for _, p := range consumed {
		delete(o.echoes, p)
	}
	return len(consumed) > 0
}
