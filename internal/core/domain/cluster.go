package domain

import "path/filepath"

// Cluster is one group produced by a clustering run. It is ephemeral:
// ids are recomputed from scratch every run and carry no meaning across runs.
type Cluster struct {
	// ID is the discriminator, numbered by first member in path order.
	ID int

	// Members are the member paths in ascending order.
	Members []string

	// DomainLabel is the broad folder name, set by naming.
	DomainLabel string

	// ClusterLabel is the specific folder name, set by naming.
	ClusterLabel string
}

// Size returns the number of members.
func (c Cluster) Size() int {
	return len(c.Members)
}

// Placement is a (domain, cluster) folder pair under the root.
type Placement struct {
	Domain  string
	Cluster string
}

// IsZero reports whether the placement is unset.
func (p Placement) IsZero() bool {
	return p.Domain == "" && p.Cluster == ""
}

// Dir returns root/Domain/Cluster.
func (p Placement) Dir(root string) string {
	return filepath.Join(root, p.Domain, p.Cluster)
}

// Target returns the destination for a file at path.
func (p Placement) Target(root, path string) string {
	return filepath.Join(p.Dir(root), filepath.Base(path))
}
