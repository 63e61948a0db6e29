package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// URIScheme is the custom URI scheme for SEFS resources.
	uriScheme = "sefs://"

	mimeJSON = "application/json"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "tree",
		Name:        "tree",
		Description: "Current domain, cluster and file hierarchy",
		MIMEType:    mimeJSON,
	}, s.handleTreeResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "runs",
		Name:        "runs",
		Description: "Recent reorganisation runs",
		MIMEType:    mimeJSON,
	}, s.handleRunsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "settings",
		Name:        "settings",
		Description: "Effective configuration with secrets masked",
		MIMEType:    mimeJSON,
	}, s.handleSettingsResource)

	// Template for a single domain.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "domains/{domain}",
		Name:        "domain",
		Description: "Clusters and files of one top-level domain",
		MIMEType:    mimeJSON,
	}, s.handleDomainResource)
}

// handleTreeResource returns the full tree.
func (s *Server) handleTreeResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResult(req.Params.URI, s.ports.Organiser.Tree())
}

// handleRunsResource returns the most recent runs.
func (s *Server) handleRunsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	runs, err := s.ports.Organiser.Runs(ctx, defaultRunsLimit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	out := make([]RunOutput, len(runs))
	for i := range runs {
		out[i] = newRunOutput(runs[i])
	}
	return jsonResult(req.Params.URI, out)
}

// handleSettingsResource returns every setting as a key/value map.
func (s *Server) handleSettingsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Settings == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	entries, err := s.ports.Settings.List()
	if err != nil {
		return nil, fmt.Errorf("listing settings: %w", err)
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.Key] = e.Display()
	}
	return jsonResult(req.Params.URI, out)
}

// handleDomainResource returns one domain from the flattened tree.
func (s *Server) handleDomainResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	name := extractDomain(req.Params.URI)
	if name == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	for _, d := range flattenTree(s.ports.Organiser.Tree()).Domains {
		if strings.EqualFold(d.Name, name) {
			return jsonResult(req.Params.URI, d)
		}
	}
	return nil, mcp.ResourceNotFoundError(req.Params.URI)
}

// extractDomain extracts the domain name from a URI like sefs://domains/{domain}.
func extractDomain(uri string) string {
	const prefix = uriScheme + "domains/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	name := strings.TrimPrefix(uri, prefix)
	if strings.Contains(name, "/") {
		return ""
	}
	return name
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: mimeJSON,
			Text:     string(data),
		}},
	}, nil
}
