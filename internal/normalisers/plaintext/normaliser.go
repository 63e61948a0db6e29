package plaintext

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/sefs/internal/core/domain"
	"github.com/custodia-labs/sefs/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Extractor = (*Normaliser)(nil)

// errBinary is returned for content that is clearly not text.
var errBinary = errors.New("binary content")

// Normaliser handles plain text and source code files.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{
		".txt",
		".text",
		".log",
		".py",
		".java",
		".c",
		".h",
		".cpp",
		".hpp",
		".cc",
		".js",
		".jsx",
		".ts",
		".tsx",
		".go",
		".rs",
		".rb",
		".sh",
		".sql",
		".json",
		".yaml",
		".yml",
		".toml",
		".xml",
		".css",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Extract returns the file content as text. Invalid UTF-8 sequences are
// dropped; content containing NUL bytes is rejected as binary.
func (n *Normaliser) Extract(_ context.Context, path string, content []byte) (string, error) {
	if bytes.IndexByte(content, 0) >= 0 {
		return "", &domain.ExtractionError{Path: path, Err: errBinary}
	}
	text := string(content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	return text, nil
}
