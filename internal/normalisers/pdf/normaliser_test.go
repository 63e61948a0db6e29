package pdf

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sefs/internal/core/domain"
	"github.com/custodia-labs/sefs/internal/core/ports/driven"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error
	name   string
	args   []string
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.name = name
	m.args = args
	return m.output, m.err
}

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.IsType(t, &Normaliser{}, normaliser)
}

func TestSupportedExtensions(t *testing.T) {
	assert.Equal(t, []string{".pdf"}, New().SupportedExtensions())
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "pdftotext")
	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Extractor = (*Normaliser)(nil)
}

func TestErrPDFToolNotFound(t *testing.T) {
	assert.Error(t, ErrPDFToolNotFound)
	assert.Contains(t, ErrPDFToolNotFound.Error(), "pdftotext")
}

func TestNewWithRunner(t *testing.T) {
	runner := &mockRunner{output: []byte("test output")}
	normaliser := NewWithRunner(runner)
	require.NotNil(t, normaliser)
	assert.Equal(t, runner, normaliser.runner)
}

func TestExtract_WithMockRunner(t *testing.T) {
	runner := &mockRunner{output: []byte("PDF Title   \n\fThis is the content of the PDF.\n\n")}
	normaliser := NewWithRunner(runner)

	text, err := normaliser.Extract(context.Background(), "/path/to/document.pdf", nil)
	require.NoError(t, err)
	assert.Equal(t, "PDF Title\n\nThis is the content of the PDF.", text)
	assert.Equal(t, "pdftotext", runner.name)
	assert.Equal(t, []string{"-enc", "UTF-8", "-layout", "/path/to/document.pdf", "-"}, runner.args)
}

func TestExtract_RunnerError(t *testing.T) {
	runner := &mockRunner{err: errors.New("pdftotext crashed")}
	normaliser := NewWithRunner(runner)

	_, err := normaliser.Extract(context.Background(), "/path/to/document.pdf", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
	assert.Contains(t, err.Error(), "pdftotext failed")
}

func TestExtract_ToolMissing(t *testing.T) {
	normaliser := NewWithRunner(&mockRunner{})
	normaliser.lookPath = func(string) (string, error) { return "", errors.New("not found") }

	_, err := normaliser.Extract(context.Background(), "/path/to/document.pdf", nil)
	assert.ErrorIs(t, err, ErrPDFToolNotFound)
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}

// Integration test - only runs if pdftotext is available.
func TestExtract_Integration(t *testing.T) {
	if err := CheckAvailable(); err != nil {
		t.Skip("pdftotext not available, skipping integration test")
	}
	t.Skip("integration test requires sample PDF file")
}
