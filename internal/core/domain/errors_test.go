package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrAlreadyExists", ErrAlreadyExists},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrOutsideRoot", ErrOutsideRoot},
		{"ErrDimensionMismatch", ErrDimensionMismatch},
		{"ErrExtractionFailed", ErrExtractionFailed},
		{"ErrMoveCollision", ErrMoveCollision},
		{"ErrLocked", ErrLocked},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrors_Distinct tests that no two sentinels match each other
func TestErrors_Distinct(t *testing.T) {
	all := []error{
		ErrNotFound, ErrAlreadyExists, ErrInvalidInput, ErrUnsupportedType,
		ErrOutsideRoot, ErrDimensionMismatch, ErrExtractionFailed, ErrMoveCollision,
		ErrLocked, ErrLLMUnavailable, ErrEmbeddingUnavailable,
	}
	for i, a := range all {
		for j, b := range all {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
		}
	}
}

func TestErrors_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("move /a to /b: %w", ErrMoveCollision)
	assert.True(t, errors.Is(wrapped, ErrMoveCollision))
	assert.Contains(t, wrapped.Error(), "destination already exists")
}

func TestExtractionError(t *testing.T) {
	cause := errors.New("bad zip")
	err := &ExtractionError{Path: "/root/a.docx", Err: cause}

	assert.Equal(t, "extract /root/a.docx: bad zip", err.Error())
	assert.True(t, errors.Is(err, ErrExtractionFailed))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrNotFound))

	var target *ExtractionError
	wrapped := fmt.Errorf("ingest: %w", err)
	assert.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "/root/a.docx", target.Path)
}
