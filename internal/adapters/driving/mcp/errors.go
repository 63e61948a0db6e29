// Package mcp provides an MCP (Model Context Protocol) server adapter for SEFS.
// It lets AI assistants inspect the organised tree, list past runs and
// trigger a reorganisation.
package mcp

import "errors"

// ErrMissingOrganiser is returned when the organiser is not provided.
var ErrMissingOrganiser = errors.New("mcp: organiser is required")
