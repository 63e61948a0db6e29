// Package hashing provides an offline embedding service based on feature hashing.
//
// Each lower-cased word is hashed into one of a fixed number of buckets with a
// hash-derived sign, weighted by sublinear term frequency, and the vector is
// L2-normalised. Texts sharing vocabulary end up close in cosine distance, which
// is enough to group documents without a model server.
package hashing

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/custodia-labs/sefs/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultDimensions is the default number of hash buckets.
const DefaultDimensions = 512

// minTokenLen drops one-letter tokens.
const minTokenLen = 2

// stopWords carry no topical signal.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {}, "you": {},
	"all": {}, "any": {}, "can": {}, "her": {}, "was": {}, "one": {}, "our": {},
	"out": {}, "has": {}, "his": {}, "how": {}, "its": {}, "may": {}, "who": {},
	"did": {}, "yes": {}, "this": {}, "that": {}, "with": {}, "from": {}, "have": {},
	"they": {}, "will": {}, "been": {}, "were": {}, "what": {}, "when": {}, "your": {},
	"into": {}, "than": {}, "then": {}, "them": {}, "there": {}, "their": {}, "which": {},
	"would": {}, "about": {}, "these": {}, "those": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "it": {}, "on": {}, "at": {}, "as": {}, "be": {}, "by": {}, "or": {},
	"an": {}, "we": {}, "so": {}, "if": {}, "do": {}, "no": {}, "up": {},
}

// EmbeddingService embeds text without any network access.
type EmbeddingService struct {
	dimensions int
}

// New creates a hashing embedder with the given number of buckets.
// A non-positive value uses DefaultDimensions.
func New(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &EmbeddingService{dimensions: dimensions}
}

// Embed returns the hashed bag-of-words vector for text.
// Text without any usable token yields the zero vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, tok := range Tokenize(text) {
		counts[tok]++
	}

	vec := make([]float64, s.dimensions)
	for tok, n := range counts {
		h := xxhash.Sum64String(tok)
		bucket := h % uint64(s.dimensions)
		weight := 1 + math.Log(float64(n))
		if h&(1<<63) != 0 {
			weight = -weight
		}
		vec[bucket] += weight
	}

	var norm float64
	for _, x := range vec {
		norm += x * x
	}
	out := make([]float32, s.dimensions)
	if norm == 0 {
		return out, nil
	}
	norm = math.Sqrt(norm)
	for i, x := range vec {
		out[i] = float32(x / norm)
	}
	return out, nil
}

// EmbedBatch embeds each text in turn.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns the number of buckets.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName identifies the vector space, including its size.
func (s *EmbeddingService) ModelName() string {
	return fmt.Sprintf("hashing-%d", s.dimensions)
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

// Tokenize splits text into lower-cased words of letters and digits,
// dropping stop words, pure numbers and one-letter tokens.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < minTokenLen || isNumber(f) {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
