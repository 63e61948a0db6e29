package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sefs/internal/core/domain"
	"github.com/custodia-labs/sefs/internal/core/ports/driven"
)

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.IsType(t, &Normaliser{}, normaliser)
}

func TestSupportedExtensions(t *testing.T) {
	exts := New().SupportedExtensions()

	require.NotEmpty(t, exts)
	for _, want := range []string{".txt", ".py", ".java", ".cpp", ".c", ".js"} {
		assert.Contains(t, exts, want)
	}
	assert.NotContains(t, exts, ".md")
	assert.NotContains(t, exts, ".csv")
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 5, New().Priority())
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Extractor = (*Normaliser)(nil)
}

func TestExtract_Success(t *testing.T) {
	text, err := New().Extract(context.Background(), "/path/to/document.txt", []byte("This is plain text content."))
	require.NoError(t, err)
	assert.Equal(t, "This is plain text content.", text)
}

func TestExtract_EmptyContent(t *testing.T) {
	text, err := New().Extract(context.Background(), "/path/to/empty.txt", []byte(""))
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestExtract_UnicodeContent(t *testing.T) {
	unicodeContent := "多语言文本测试\nこんにちは世界\nПривет мир\n🚀 Emoji test 🎉"

	text, err := New().Extract(context.Background(), "/path/unicode.txt", []byte(unicodeContent))
	require.NoError(t, err)
	assert.Equal(t, unicodeContent, text)
}

func TestExtract_InvalidUTF8Dropped(t *testing.T) {
	text, err := New().Extract(context.Background(), "/path/latin1.txt", []byte("caf\xe9 menu"))
	require.NoError(t, err)
	assert.Equal(t, "caf menu", text)
}

func TestExtract_BinaryRejected(t *testing.T) {
	_, err := New().Extract(context.Background(), "/path/blob.txt", []byte{'a', 0, 'b'})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)

	var extractErr *domain.ExtractionError
	require.ErrorAs(t, err, &extractErr)
	assert.Equal(t, "/path/blob.txt", extractErr.Path)
}

func TestExtract_LargeContent(t *testing.T) {
	largeContent := make([]byte, 1024*1024) // 1MB
	for i := range largeContent {
		largeContent[i] = byte('A' + (i % 26))
	}

	text, err := New().Extract(context.Background(), "/path/large.txt", largeContent)
	require.NoError(t, err)
	assert.Len(t, text, len(largeContent))
}
