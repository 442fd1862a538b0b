package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Vector
		expected float64
		delta    float64
	}{
		{"identical", Vector{1, 0, 0}, Vector{1, 0, 0}, 1.0, 0.001},
		{"orthogonal", Vector{1, 0, 0}, Vector{0, 1, 0}, 0.0, 0.001},
		{"opposite", Vector{1, 0, 0}, Vector{-1, 0, 0}, -1.0, 0.001},
		{"similar", Vector{1, 1, 0}, Vector{1, 0, 0}, 0.707, 0.01},
		{"empty", Vector{}, Vector{}, 0.0, 0.001},
		{"different lengths", Vector{1, 0}, Vector{1, 0, 0}, 0.0, 0.001},
		{"zero vector", Vector{0, 0, 0}, Vector{1, 0, 0}, 0.0, 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.expected) > tt.delta {
				t.Errorf("CosineSimilarity(%v, %v) = %f, want %f (±%f)", tt.a, tt.b, got, tt.expected, tt.delta)
			}
		})
	}
}

func TestNew_Disabled(t *testing.T) {
	assert.Nil(t, New(Options{}))
	assert.Nil(t, New(Options{Provider: "openai"}), "openai without key or url")
	assert.NotNil(t, New(Options{Provider: "openai", APIKey: "k"}))
	assert.Equal(t, 768, New(Options{Provider: "ollama", BaseURL: "http://localhost:11434"}).Dims())
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	var gotInput []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotInput = req.Input

		// Answer out of order; the embedder must restore input order.
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","model":"m","data":[
			{"object":"embedding","index":1,"embedding":[0,1]},
			{"object":"embedding","index":0,"embedding":[1,0]}
		]}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(srv.URL, "key", "m", 2)
	vecs, err := e.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, gotInput)
	assert.Equal(t, []Vector{{1, 0}, {0, 1}}, vecs)
	assert.Equal(t, 2, e.Dims())
}

func TestOpenAIEmbedder_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIEmbedder(srv.URL, "key", "m", 2).Embed(context.Background(), []string{"a"})
	assert.Error(t, err)
}

func TestCheckDims(t *testing.T) {
	e := NewOpenAIEmbedder("", "key", "", 3)
	assert.NoError(t, CheckDims(e, []Vector{{1, 2, 3}, {0, 0, 0}}))
	assert.ErrorIs(t, CheckDims(e, []Vector{{1, 2, 3}, {1, 2}}), ErrDimensionMismatch)

	unknown := &OpenAIEmbedder{}
	assert.NoError(t, CheckDims(unknown, []Vector{{1}}))
}

func TestNew_OllamaDimsOverride(t *testing.T) {
	e := New(Options{Provider: "ollama", Model: "mxbai-embed-large", Dims: 1024})
	require.NotNil(t, e)
	assert.Equal(t, 1024, e.Dims())
}
