package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sefs/internal/core/domain"
)

// defaultRunsLimit is used when list_runs is called without a limit.
const defaultRunsLimit = 10

// GetTreeInput is the input schema for the get_tree tool.
type GetTreeInput struct {
	Domain string `json:"domain,omitempty" jsonschema:"only return this top-level domain (case-insensitive)"`
}

// TreeOutput is a flattened view of the organised hierarchy.
type TreeOutput struct {
	Root    string         `json:"root"`
	Files   int            `json:"files"`
	Domains []DomainOutput `json:"domains"`
}

// DomainOutput is one top-level directory.
type DomainOutput struct {
	Name     string          `json:"name"`
	Path     string          `json:"path,omitempty"`
	Clusters []ClusterOutput `json:"clusters"`
}

// ClusterOutput is one second-level directory and its files.
type ClusterOutput struct {
	Name  string   `json:"name"`
	Path  string   `json:"path,omitempty"`
	Files []string `json:"files"`
}

// ListRunsInput is the input schema for the list_runs tool.
type ListRunsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of runs to return (default 10)"`
}

// ListRunsOutput is the output schema for the list_runs tool.
type ListRunsOutput struct {
	Runs  []RunOutput `json:"runs"`
	Count int         `json:"count"`
}

// RunOutput represents a single reorganisation run.
type RunOutput struct {
	ID         string `json:"id"`
	Trigger    string `json:"trigger"`
	StartedAt  string `json:"started_at"`
	DurationMS int64  `json:"duration_ms"`
	Files      int    `json:"files"`
	Clusters   int    `json:"clusters"`
	Moved      int    `json:"moved"`
	Failed     int    `json:"failed"`
	Note       string `json:"note,omitempty"`
}

// ReorganiseInput is the input schema for the reorganise tool.
type ReorganiseInput struct{}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_tree",
		Description: "Show how files are currently grouped into domain and cluster folders",
	}, s.handleGetTree)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_runs",
		Description: "List recent reorganisation runs, most recent first",
	}, s.handleListRuns)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reorganise",
		Description: "Cluster, name and move all indexed files now",
	}, s.handleReorganise)
}

// handleGetTree handles the get_tree tool invocation.
func (s *Server) handleGetTree(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input GetTreeInput,
) (*mcp.CallToolResult, TreeOutput, error) {
	out := flattenTree(s.ports.Organiser.Tree())
	if input.Domain == "" {
		return nil, out, nil
	}

	for _, d := range out.Domains {
		if strings.EqualFold(d.Name, input.Domain) {
			out.Domains = []DomainOutput{d}
			out.Files = d.count()
			return nil, out, nil
		}
	}
	return nil, TreeOutput{}, fmt.Errorf("domain %q: %w", input.Domain, domain.ErrNotFound)
}

// handleListRuns handles the list_runs tool invocation.
func (s *Server) handleListRuns(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListRunsInput,
) (*mcp.CallToolResult, ListRunsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultRunsLimit
	}

	runs, err := s.ports.Organiser.Runs(ctx, limit)
	if err != nil {
		return nil, ListRunsOutput{}, err
	}

	output := ListRunsOutput{
		Runs:  make([]RunOutput, len(runs)),
		Count: len(runs),
	}
	for i := range runs {
		output.Runs[i] = newRunOutput(runs[i])
	}
	return nil, output, nil
}

// handleReorganise handles the reorganise tool invocation.
func (s *Server) handleReorganise(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ReorganiseInput,
) (*mcp.CallToolResult, RunOutput, error) {
	run, err := s.ports.Organiser.Reorganise(ctx)
	if err != nil {
		return nil, RunOutput{}, fmt.Errorf("reorganise: %w", err)
	}
	return nil, newRunOutput(*run), nil
}

func newRunOutput(r domain.ReorganiseRun) RunOutput {
	return RunOutput{
		ID:         r.ID,
		Trigger:    string(r.Trigger),
		StartedAt:  r.StartedAt.Format(time.RFC3339),
		DurationMS: r.Duration().Milliseconds(),
		Files:      r.Files,
		Clusters:   r.Clusters,
		Moved:      r.Moved,
		Failed:     r.Failed,
		Note:       r.Note,
	}
}

// flattenTree converts the three-level tree into domains and clusters.
func flattenTree(root *domain.TreeNode) TreeOutput {
	out := TreeOutput{Domains: []DomainOutput{}}
	if root == nil {
		return out
	}
	out.Root = root.Path
	out.Files = root.Count()

	for _, d := range root.Children {
		dom := DomainOutput{Name: d.Name, Path: d.Path, Clusters: []ClusterOutput{}}
		for _, c := range d.Children {
			cl := ClusterOutput{Name: c.Name, Path: c.Path, Files: []string{}}
			for _, f := range c.Children {
				cl.Files = append(cl.Files, f.Name)
			}
			dom.Clusters = append(dom.Clusters, cl)
		}
		out.Domains = append(out.Domains, dom)
	}
	return out
}

func (d DomainOutput) count() int {
	n := 0
	for _, c := range d.Clusters {
		n += len(c.Files)
	}
	return n
}
