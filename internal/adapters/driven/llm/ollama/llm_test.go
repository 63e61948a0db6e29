package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sefs/internal/core/ports/driven"
)

func TestNewLLMService_Defaults(t *testing.T) {
	svc := NewLLMService(LLMConfig{})
	assert.Equal(t, DefaultBaseURL, svc.baseURL)
	assert.Equal(t, DefaultLLMModel, svc.ModelName())
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		assert.Equal(t, systemPrompt, req.System)
		require.NotNil(t, req.Options)
		assert.Equal(t, 16, req.Options.NumPredict)
		_, _ = w.Write([]byte(`{"response":"Recipes","done":true}`))
	}))
	defer srv.Close()

	svc := NewLLMService(LLMConfig{BaseURL: srv.URL})
	out, err := svc.Generate(context.Background(), "name", driven.GenerateOptions{MaxTokens: 16})
	require.NoError(t, err)
	assert.Equal(t, "Recipes", out)
}

func TestGenerate_NoOptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Nil(t, req.Options)
		_, _ = w.Write([]byte(`{"response":"ok","done":true}`))
	}))
	defer srv.Close()

	_, err := NewLLMService(LLMConfig{BaseURL: srv.URL}).Generate(context.Background(), "x", driven.GenerateOptions{})
	assert.NoError(t, err)
}

func TestGenerate_ModelMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'llama3.2' not found"}`))
	}))
	defer srv.Close()

	_, err := NewLLMService(LLMConfig{BaseURL: srv.URL}).Generate(context.Background(), "x", driven.GenerateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	assert.Error(t, NewLLMService(LLMConfig{BaseURL: srv.URL}).Ping(context.Background()))
}
