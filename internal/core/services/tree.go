package services

import (
	"path/filepath"
	"sort"

	"github.com/custodia-labs/sefs/internal/core/domain"
)

// BuildTree derives the root/domain/cluster/file view from records.
// Records that are not exactly root/D/C/file are listed under
// Unsorted/Files. Children are sorted by name.
func BuildTree(root string, records []*domain.FileRecord) *domain.TreeNode {
	root = filepath.Clean(root)
	tree := &domain.TreeNode{Name: filepath.Base(root), Type: domain.NodeRoot, Path: root}

	domains := make(map[string]*domain.TreeNode)
	clusters := make(map[domain.Placement]*domain.TreeNode)

	for _, rec := range records {
		p, ok := placementOf(root, rec.Path)
		if !ok {
			p = domain.Placement{Domain: domain.UnsortedDomain, Cluster: domain.UnsortedCluster}
		}
		d, ok := domains[p.Domain]
		if !ok {
			d = &domain.TreeNode{Name: p.Domain, Type: domain.NodeDomain}
			if p.Domain != domain.UnsortedDomain {
				d.Path = filepath.Join(root, p.Domain)
			}
			domains[p.Domain] = d
			tree.Children = append(tree.Children, d)
		}
		c, ok := clusters[p]
		if !ok {
			c = &domain.TreeNode{Name: p.Cluster, Type: domain.NodeCluster}
			if p.Domain != domain.UnsortedDomain {
				c.Path = p.Dir(root)
			}
			clusters[p] = c
			d.Children = append(d.Children, c)
		}
		c.Children = append(c.Children, &domain.TreeNode{
			Name: filepath.Base(rec.Path),
			Type: domain.NodeFile,
			Path: rec.Path,
		})
	}

	sortTree(tree)
	return tree
}

func sortTree(n *domain.TreeNode) {
	sort.Slice(n.Children, func(i, j int) bool {
		a, b := n.Children[i], n.Children[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Path < b.Path
	})
	for _, c := range n.Children {
		sortTree(c)
	}
}
