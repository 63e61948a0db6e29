package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sefs/internal/core/domain"
)

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid domain URI",
			uri:      "sefs://domains/Finance",
			expected: "Finance",
		},
		{
			name:     "invalid prefix",
			uri:      "file://domains/Finance",
			expected: "",
		},
		{
			name:     "nested path",
			uri:      "sefs://domains/Finance/Tax",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractDomain(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleTreeResource(t *testing.T) {
	server, err := NewServer(&Ports{Organiser: &mockOrganiser{tree: sampleTree()}})
	require.NoError(t, err)

	result, err := server.handleTreeResource(context.Background(), makeReadResourceRequest("sefs://tree"))
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)

	var tree domain.TreeNode
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &tree))
	assert.Equal(t, 3, tree.Count())
}

func TestServer_handleRunsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns runs", func(t *testing.T) {
		server, err := NewServer(&Ports{Organiser: &mockOrganiser{runs: []domain.ReorganiseRun{sampleRun()}}})
		require.NoError(t, err)

		result, err := server.handleRunsResource(ctx, makeReadResourceRequest("sefs://runs"))
		require.NoError(t, err)
		assert.Contains(t, result.Contents[0].Text, "run-1")
	})

	t.Run("empty history is an empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Organiser: &mockOrganiser{}})
		require.NoError(t, err)

		result, err := server.handleRunsResource(ctx, makeReadResourceRequest("sefs://runs"))
		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		server, err := NewServer(&Ports{Organiser: &mockOrganiser{err: errors.New("database error")}})
		require.NoError(t, err)

		_, err = server.handleRunsResource(ctx, makeReadResourceRequest("sefs://runs"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing runs")
	})
}

func TestServer_handleSettingsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil settings service returns not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Organiser: &mockOrganiser{}})
		require.NoError(t, err)

		_, err = server.handleSettingsResource(ctx, makeReadResourceRequest("sefs://settings"))
		require.Error(t, err)
	})

	t.Run("masks secrets", func(t *testing.T) {
		settings := &mockSettingsService{entries: []domain.SettingEntry{
			{Key: "threshold", Value: "0.8"},
			{Key: "llm.api_key", Value: "sk-abcdefghijklmnop", Secret: true},
		}}
		server, err := NewServer(&Ports{Organiser: &mockOrganiser{}, Settings: settings})
		require.NoError(t, err)

		result, err := server.handleSettingsResource(ctx, makeReadResourceRequest("sefs://settings"))
		require.NoError(t, err)

		var got map[string]string
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
		assert.Equal(t, "0.8", got["threshold"])
		assert.Equal(t, "sk-a...mnop", got["llm.api_key"])
		assert.NotContains(t, result.Contents[0].Text, "abcdefghijkl")
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		settings := &mockSettingsService{err: errors.New("config unreadable")}
		server, err := NewServer(&Ports{Organiser: &mockOrganiser{}, Settings: settings})
		require.NoError(t, err)

		_, err = server.handleSettingsResource(ctx, makeReadResourceRequest("sefs://settings"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing settings")
	})
}

func TestServer_handleDomainResource(t *testing.T) {
	ctx := context.Background()
	server, err := NewServer(&Ports{Organiser: &mockOrganiser{tree: sampleTree()}})
	require.NoError(t, err)

	t.Run("returns the domain", func(t *testing.T) {
		result, err := server.handleDomainResource(ctx, makeReadResourceRequest("sefs://domains/finance"))
		require.NoError(t, err)

		var got DomainOutput
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
		assert.Equal(t, "Finance", got.Name)
		require.Len(t, got.Clusters, 1)
		assert.Len(t, got.Clusters[0].Files, 2)
	})

	t.Run("unknown domain returns not found", func(t *testing.T) {
		_, err := server.handleDomainResource(ctx, makeReadResourceRequest("sefs://domains/Recipes"))
		require.Error(t, err)
	})

	t.Run("invalid URI returns not found", func(t *testing.T) {
		_, err := server.handleDomainResource(ctx, makeReadResourceRequest("sefs://invalid/uri"))
		require.Error(t, err)
	})
}
