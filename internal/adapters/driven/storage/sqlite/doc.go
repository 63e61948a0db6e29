// Package sqlite provides the SQLite-backed embedding cache and run history.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. One database connection serves:
//
//   - EmbeddingCache: vectors and extracted text keyed by model and content hash
//   - RunStore: reorganisation history, pruned to the most recent runs
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.sefs/data/sefs.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
