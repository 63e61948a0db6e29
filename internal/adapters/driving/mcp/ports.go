package mcp

import (
	"github.com/custodia-labs/sefs/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Organiser serves the tree, the run history and manual runs.
	Organiser driving.Organiser

	// Settings exposes the effective configuration. Optional.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Organiser == nil {
		return ErrMissingOrganiser
	}
	return nil
}
