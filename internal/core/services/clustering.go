package services

import (
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/sefs/internal/core/domain"
)

// ClusterResult is the partition produced by one clustering run.
type ClusterResult struct {
	// Clusters are ordered by ID; members are in path order.
	Clusters []domain.Cluster

	// Assignments maps each member path to its cluster ID.
	Assignments map[string]int

	// NoOp is set when there were too few records to cluster.
	NoOp bool

	// Reason explains a no-op.
	Reason string
}

// ClusterEngine partitions embeddings with agglomerative clustering:
// cosine distance, average linkage, merging while the closest pair is nearer
// than the threshold.
type ClusterEngine struct {
	threshold float64
}

// NewClusterEngine creates an engine with the given distance threshold.
func NewClusterEngine(threshold float64) *ClusterEngine {
	return &ClusterEngine{threshold: threshold}
}

// Threshold returns the merge threshold.
func (e *ClusterEngine) Threshold() float64 {
	return e.threshold
}

// Cluster partitions the records that carry an embedding. The result depends
// only on the set of (path, embedding) pairs, not on input order.
func (e *ClusterEngine) Cluster(records []*domain.FileRecord) (*ClusterResult, error) {
	items := make([]*domain.FileRecord, 0, len(records))
	for _, r := range records {
		if r.Clusterable() {
			items = append(items, r)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })

	n := len(items)
	if n < 2 {
		return &ClusterResult{
			Assignments: map[string]int{},
			NoOp:        true,
			Reason:      fmt.Sprintf("%d clusterable files, need at least 2", n),
		}, nil
	}
	dim := len(items[0].Embedding)
	for _, it := range items[1:] {
		if len(it.Embedding) != dim {
			return nil, fmt.Errorf("cluster %s: %w", it.Path, domain.ErrDimensionMismatch)
		}
	}

	vecs := make([][]float32, n)
	for i, it := range items {
		vecs[i] = it.Embedding
	}
	groups := agglomerate(distanceMatrix(vecs), e.threshold)

	res := &ClusterResult{
		Clusters:    make([]domain.Cluster, len(groups)),
		Assignments: make(map[string]int, n),
	}
	for id, g := range groups {
		members := make([]string, len(g))
		for k, idx := range g {
			members[k] = items[idx].Path
			res.Assignments[items[idx].Path] = id
		}
		res.Clusters[id] = domain.Cluster{ID: id, Members: members}
	}
	return res, nil
}

// CosineDistance returns 1 - cosine similarity, clamped to [0, 2].
// A zero vector is at distance 1 from everything.
func CosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	den := math.Sqrt(na) * math.Sqrt(nb)
	if den == 0 {
		return 1
	}
	d := 1 - dot/den
	return math.Max(0, math.Min(2, d))
}

func distanceMatrix(vecs [][]float32) [][]float64 {
	n := len(vecs)
	d := make([][]float64, n)
	for i := range d {
		d[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := CosineDistance(vecs[i], vecs[j])
			d[i][j] = v
			d[j][i] = v
		}
	}
	return d
}

// agglomerate merges the closest pair of active clusters until the smallest
// distance reaches threshold. Ties go to the lowest (i, j) index pair. Each
// row caches its nearest higher-indexed neighbour so a merge only rescans the
// rows it invalidates. Groups are returned ordered by first member.
func agglomerate(d [][]float64, threshold float64) [][]int {
	n := len(d)
	active := make([]bool, n)
	size := make([]int, n)
	members := make([][]int, n)
	best := make([]int, n)
	bestDist := make([]float64, n)
	for i := 0; i < n; i++ {
		active[i] = true
		size[i] = 1
		members[i] = []int{i}
	}

	rescan := func(i int) {
		best[i] = -1
		bestDist[i] = math.Inf(1)
		for j := i + 1; j < n; j++ {
			if active[j] && d[i][j] < bestDist[i] {
				best[i] = j
				bestDist[i] = d[i][j]
			}
		}
	}
	for i := 0; i < n; i++ {
		rescan(i)
	}

	for {
		a, b := -1, -1
		minDist := math.Inf(1)
		for i := 0; i < n; i++ {
			if active[i] && best[i] >= 0 && bestDist[i] < minDist {
				a, b = i, best[i]
				minDist = bestDist[i]
			}
		}
		if a < 0 || minDist >= threshold {
			break
		}

		// Lance-Williams update for average linkage.
		na, nb := float64(size[a]), float64(size[b])
		for k := 0; k < n; k++ {
			if !active[k] || k == a || k == b {
				continue
			}
			v := (na*d[a][k] + nb*d[b][k]) / (na + nb)
			d[a][k] = v
			d[k][a] = v
		}
		active[b] = false
		size[a] += size[b]
		members[a] = append(members[a], members[b]...)
		members[b] = nil

		rescan(a)
		for k := 0; k < b; k++ {
			if !active[k] || k == a {
				continue
			}
			switch {
			case best[k] == a || best[k] == b:
				rescan(k)
			case k < a && (d[k][a] < bestDist[k] || (d[k][a] == bestDist[k] && a < best[k])):
				best[k] = a
				bestDist[k] = d[k][a]
			}
		}
	}

	var groups [][]int
	for i := 0; i < n; i++ {
		if active[i] {
			g := members[i]
			sort.Ints(g)
			groups = append(groups, g)
		}
	}
	// Row a always holds the lowest index of its group, so groups are
	// already ordered by first member.
	return groups
}
