package driven

import "context"

// Extractor turns the raw bytes of one family of file types into plain text.
type Extractor interface {
	// SupportedExtensions returns lower-case extensions including the dot.
	SupportedExtensions() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific extractors return 50-100, fallbacks 1-9.
	Priority() int

	// Extract returns the text content of the file at path.
	// Failures are *domain.ExtractionError.
	Extract(ctx context.Context, path string, content []byte) (string, error)
}

// ExtractorRegistry selects an extractor by file extension.
type ExtractorRegistry interface {
	// Register adds an extractor.
	Register(e Extractor)

	// Get returns the preferred extractor for path, or nil when none applies.
	Get(path string) Extractor

	// Supports reports whether any extractor handles path.
	Supports(path string) bool

	// Extract dispatches to the preferred extractor.
	// Returns domain.ErrUnsupportedType when none applies.
	Extract(ctx context.Context, path string, content []byte) (string, error)

	// SupportedExtensions returns every registered extension, sorted.
	SupportedExtensions() []string
}
