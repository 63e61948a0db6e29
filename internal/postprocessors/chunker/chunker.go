// Package chunker provides a fixed-size text splitter.
package chunker

import (
	"unicode"

	"github.com/custodia-labs/sefs/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.TextSplitter = (*Chunker)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 4000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 400

// Chunker splits text into fixed-size, overlapping chunks of runes.
// A chunk boundary is pulled back to the last space when one is close.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}
	return c
}

// Split returns the chunks of text. Text that fits in one chunk is returned whole.
func (c *Chunker) Split(text string) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) <= c.chunkSize {
		return []string{text}
	}

	chunks := make([]string, 0, len(runes)/(c.chunkSize-c.overlap)+1)
	start := 0
	for start < len(runes) {
		end := start + c.chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		end = c.wordBoundary(runes, start, end)
		chunks = append(chunks, string(runes[start:end]))

		next := end - c.overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// wordBoundary moves end back to just after a space within the last tenth
// of the chunk, if there is one.
func (c *Chunker) wordBoundary(runes []rune, start, end int) int {
	limit := end - c.chunkSize/10
	if limit <= start {
		return end
	}
	for i := end; i > limit; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}
