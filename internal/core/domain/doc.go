// Package domain defines the core entities of the semantic file organiser.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - FileRecord: A registered file with its hash, embedding and text
//   - FsEvent: A sealed set of file-system notifications
//   - Outcome: The explicit result of ingesting one event
//   - Cluster: One group from a clustering run
//   - TreeNode: The read-only live view of the hierarchy
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
