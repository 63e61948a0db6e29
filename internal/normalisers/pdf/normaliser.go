package pdf

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/custodia-labs/sefs/internal/core/domain"
	"github.com/custodia-labs/sefs/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Extractor = (*Normaliser)(nil)

// toolName is the poppler text extractor invoked for PDFs.
const toolName = "pdftotext"

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil && stderr.Len() > 0 {
		return out, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, err
}

// Normaliser extracts PDF text by shelling out to pdftotext.
type Normaliser struct {
	runner   CommandRunner
	lookPath func(string) (string, error)
}

// New creates a PDF normaliser that runs the installed pdftotext.
func New() *Normaliser {
	return &Normaliser{runner: execRunner{}, lookPath: exec.LookPath}
}

// NewWithRunner creates a PDF normaliser with a custom command runner.
func NewWithRunner(runner CommandRunner) *Normaliser {
	return &Normaliser{
		runner:   runner,
		lookPath: func(name string) (string, error) { return name, nil },
	}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Extract runs pdftotext on the file at path and returns its output.
// The file is read by the tool directly, so content is unused.
func (n *Normaliser) Extract(ctx context.Context, path string, _ []byte) (string, error) {
	if _, err := n.lookPath(toolName); err != nil {
		return "", &domain.ExtractionError{Path: path, Err: ErrPDFToolNotFound}
	}
	out, err := n.runner.Run(ctx, toolName, "-enc", "UTF-8", "-layout", path, "-")
	if err != nil {
		return "", &domain.ExtractionError{Path: path, Err: fmt.Errorf("pdftotext failed: %w", err)}
	}
	return cleanText(string(out)), nil
}

// cleanText drops form feeds and trailing spaces left by layout mode.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\f", "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// CheckAvailable reports whether pdftotext can be found.
func CheckAvailable() error {
	if _, err := exec.LookPath(toolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns platform hints for installing pdftotext.
func InstallInstructions() string {
	return `PDF extraction needs pdftotext from poppler:
  macOS:         brew install poppler
  Debian/Ubuntu: apt install poppler-utils
  Fedora:        dnf install poppler-utils`
}
