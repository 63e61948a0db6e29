package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/sefs/internal/core/domain"
	"github.com/custodia-labs/sefs/internal/logger"
)

// MaterialiseResult summarises one materialisation pass.
type MaterialiseResult struct {
	// Moved counts files that changed location.
	Moved int

	// Failed counts moves that did not happen.
	Failed int

	// Deferred counts files skipped because ingestion held their path.
	// They are placed by a later run.
	Deferred int

	// Pruned lists directories removed because moves emptied them.
	Pruned []string
}

// errPathBusy reports a path claimed by ingestion.
var errPathBusy = errors.New("path is being ingested")

// Materialiser names clusters and moves their members into
// root/<domain>/<cluster>/. It is the only component that moves
// registered files.
type Materialiser struct {
	root     string
	registry *Registry
	namer    *Namer

	// onMove is told about a move just before it happens and onMoveFailed
	// when it then did not happen.
	onMove       func(src, dst string)
	onMoveFailed func(src, dst string)

	rename func(oldpath, newpath string) error
	mkdirs func(path string, perm os.FileMode) error
	lstat  func(path string) (os.FileInfo, error)
}

// NewMaterialiser creates a materialiser for root.
func NewMaterialiser(root string, registry *Registry, namer *Namer) *Materialiser {
	return &Materialiser{
		root:     filepath.Clean(root),
		registry: registry,
		namer:    namer,
		rename:   os.Rename,
		mkdirs:   os.MkdirAll,
		lstat:    os.Lstat,
	}
}

// OnMove registers hooks invoked before every physical move and after a
// move that failed. Either may be nil.
func (m *Materialiser) OnMove(before, failed func(src, dst string)) {
	m.onMove = before
	m.onMoveFailed = failed
}

// Label sets DomainLabel and ClusterLabel on every cluster. Larger clusters
// are labelled first so they win a contested existing placement. A cluster
// keeps an existing root/D/C placement when at least half of its members
// already live there and no larger cluster claimed it; otherwise the namer
// is consulted.
func (m *Materialiser) Label(ctx context.Context, clusters []domain.Cluster) {
	order := make([]int, len(clusters))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return clusters[order[a]].Size() > clusters[order[b]].Size()
	})

	claimed := make(map[domain.Placement]bool)
	for _, idx := range order {
		c := &clusters[idx]
		if p, ok := m.sticky(c.Members); ok && !claimed[p] {
			claimed[p] = true
			c.DomainLabel, c.ClusterLabel = p.Domain, p.Cluster
			logger.Debug("materialise: cluster %d keeps %s/%s", c.ID, p.Domain, p.Cluster)
			continue
		}
		p := m.namer.Name(ctx, m.texts(c.Members))
		claimed[p] = true
		c.DomainLabel, c.ClusterLabel = p.Domain, p.Cluster
		logger.Debug("materialise: cluster %d named %s/%s", c.ID, p.Domain, p.Cluster)
	}
}

// sticky returns the most common existing placement among members when it
// covers at least half of them. Ties go to the lexically smaller placement.
func (m *Materialiser) sticky(members []string) (domain.Placement, bool) {
	counts := make(map[domain.Placement]int)
	for _, path := range members {
		if p, ok := m.PlacementOf(path); ok {
			counts[p]++
		}
	}
	var best domain.Placement
	bestN := 0
	for p, n := range counts {
		if n > bestN || (n == bestN && placementLess(p, best)) {
			best, bestN = p, n
		}
	}
	if bestN == 0 || bestN*2 < len(members) {
		return domain.Placement{}, false
	}
	return best, true
}

func placementLess(a, b domain.Placement) bool {
	if a.Domain != b.Domain {
		return a.Domain < b.Domain
	}
	return a.Cluster < b.Cluster
}

// PlacementOf reports the (domain, cluster) pair a path currently lives
// under, if it is exactly root/D/C/file.
func (m *Materialiser) PlacementOf(path string) (domain.Placement, bool) {
	return placementOf(m.root, path)
}

func placementOf(root, path string) (domain.Placement, bool) {
	rel, ok := relInside(root, path)
	if !ok {
		return domain.Placement{}, false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 3 {
		return domain.Placement{}, false
	}
	return domain.Placement{Domain: parts[0], Cluster: parts[1]}, true
}

func (m *Materialiser) texts(members []string) []string {
	out := make([]string, 0, len(members))
	for _, path := range members {
		if rec, ok := m.registry.Get(path); ok && strings.TrimSpace(rec.Text) != "" {
			out = append(out, rec.Text)
		}
	}
	return out
}

// Apply moves every member of the labelled clusters to its target and
// records the new cluster ids. Failures are isolated per file.
func (m *Materialiser) Apply(ctx context.Context, clusters []domain.Cluster) MaterialiseResult {
	var res MaterialiseResult
	emptied := make(map[string]struct{})

	for _, c := range clusters {
		p := domain.Placement{Domain: c.DomainLabel, Cluster: c.ClusterLabel}
		if p.IsZero() {
			p = domain.Placement{Domain: FallbackDomain, Cluster: FallbackCluster}
		}
		for _, path := range c.Members {
			if ctx.Err() != nil {
				return res
			}
			moved, err := m.place(path, p, c.ID)
			switch {
			case errors.Is(err, errPathBusy):
				res.Deferred++
				logger.Debug("materialise: %s busy, deferred", path)
			case err != nil:
				res.Failed++
				logger.Warn("materialise: %v", err)
			case moved:
				res.Moved++
				emptied[filepath.Dir(path)] = struct{}{}
			}
		}
	}
	res.Pruned = m.prune(emptied)
	return res
}

// place moves a single file. It reports whether the file changed location.
func (m *Materialiser) place(path string, p domain.Placement, clusterID int) (bool, error) {
	target := p.Target(m.root, path)
	release, ok := m.registry.TryClaim(path, target)
	if !ok {
		return false, errPathBusy
	}
	defer release()

	if !m.registry.Has(path) {
		return false, nil
	}
	if target == path {
		if err := m.registry.SetCluster(path, clusterID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return false, err
		}
		return false, nil
	}

	if err := m.mkdirs(filepath.Dir(target), 0o755); err != nil {
		return false, fmt.Errorf("create %s: %w", filepath.Dir(target), err)
	}
	if _, err := m.lstat(target); err == nil {
		return false, fmt.Errorf("move %s to %s: %w", path, target, domain.ErrMoveCollision)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat %s: %w", target, err)
	}

	if m.onMove != nil {
		m.onMove(path, target)
	}
	if err := m.rename(path, target); err != nil {
		if m.onMoveFailed != nil {
			m.onMoveFailed(path, target)
		}
		if _, statErr := m.lstat(path); errors.Is(statErr, fs.ErrNotExist) {
			m.registry.Remove(path)
			logger.Debug("materialise: %s vanished, record removed", path)
		}
		return false, fmt.Errorf("move %s: %w", path, err)
	}
	err := m.registry.Relocate(path, target, clusterID)
	if errors.Is(err, domain.ErrAlreadyExists) {
		// A stale record sits at the target; the file we just moved wins.
		if rec, ok := m.registry.Get(path); ok {
			rec.Path = target
			rec.ClusterID = domain.IntPtr(clusterID)
			_, err = m.registry.Replace(path, rec)
		}
	}
	if err != nil {
		return true, fmt.Errorf("relocate %s: %w", path, err)
	}
	return true, nil
}

// prune removes directories under the root that moves left empty, walking
// up towards the root. The root itself is never removed.
func (m *Materialiser) prune(dirs map[string]struct{}) []string {
	list := make([]string, 0, len(dirs))
	for d := range dirs {
		list = append(list, d)
	}
	// Deepest first so parents see their children gone.
	sort.Slice(list, func(i, j int) bool {
		di, dj := strings.Count(list[i], string(filepath.Separator)), strings.Count(list[j], string(filepath.Separator))
		if di != dj {
			return di > dj
		}
		return list[i] < list[j]
	})

	var pruned []string
	for _, dir := range list {
		for m.under(dir) {
			entries, err := os.ReadDir(dir)
			if err != nil || len(entries) > 0 {
				break
			}
			if err := os.Remove(dir); err != nil {
				break
			}
			pruned = append(pruned, dir)
			dir = filepath.Dir(dir)
		}
	}
	return pruned
}

// under reports whether dir is strictly inside the root.
func (m *Materialiser) under(dir string) bool {
	_, ok := relInside(m.root, dir)
	return ok
}

// relInside returns path relative to root when path is strictly below root.
func relInside(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}
