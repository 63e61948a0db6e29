package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or file type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrOutsideRoot indicates a path that is not below the organised root.
	ErrOutsideRoot = errors.New("path outside root")

	// ErrDimensionMismatch indicates an embedding whose length differs from the
	// dimension already established for the running instance.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrExtractionFailed indicates content could not be extracted from a file.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrMoveCollision indicates the materialisation target already exists.
	// Collisions are never resolved by renaming or overwriting.
	ErrMoveCollision = errors.New("destination already exists")

	// ErrLocked indicates another organiser instance owns the root.
	ErrLocked = errors.New("root is locked by another instance")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Naming falls back to keyword extraction without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// ExtractionError is returned by extractors when a file's content cannot be read
// or decoded. It always matches ErrExtractionFailed via errors.Is.
type ExtractionError struct {
	// Path is the file that failed.
	Path string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrExtractionFailed.
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtractionFailed
}
