package domain

import "time"

// NodeType is the level of a node in the live tree.
type NodeType string

// Node types.
const (
	NodeRoot    NodeType = "root"
	NodeDomain  NodeType = "domain"
	NodeCluster NodeType = "cluster"
	NodeFile    NodeType = "file"
)

// Names used for records that are not under a domain/cluster pair.
const (
	UnsortedDomain  = "Unsorted"
	UnsortedCluster = "Files"
)

// TreeNode is a read-only view of the organised hierarchy.
type TreeNode struct {
	Name     string      `json:"name"`
	Type     NodeType    `json:"type"`
	Path     string      `json:"path,omitempty"`
	Children []*TreeNode `json:"children,omitempty"`
}

// Count returns the number of file nodes below n.
func (n *TreeNode) Count() int {
	if n == nil {
		return 0
	}
	if n.Type == NodeFile {
		return 1
	}
	total := 0
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// Notification is pushed to live consumers after each ingestion step
// and each reorganisation run.
type Notification struct {
	Event     EventKind `json:"event"`
	Path      string    `json:"path,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Tree      *TreeNode `json:"tree,omitempty"`
}
