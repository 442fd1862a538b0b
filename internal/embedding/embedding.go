// Package embedding provides a pluggable interface for text embedding providers.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Vector is a float32 embedding vector.
type Vector = []float32

// Embedder generates embedding vectors from text, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([]Vector, error)
	Dims() int
}

// CosineSimilarity computes cosine similarity between two vectors.
func CosineSimilarity(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// OpenAIEmbedder uses any OpenAI-compatible embedding API, including
// Ollama's /v1 endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	dims   int
}

// NewOpenAIEmbedder creates an embedder. Empty arguments fall back to the
// public OpenAI endpoint and text-embedding-ada-002 (1536 dims).
func NewOpenAIEmbedder(baseURL, apiKey, model string, dims int) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = string(openai.AdaEmbeddingV2)
	}
	if dims == 0 {
		dims = 1536
	}
	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		dims:   dims,
	}
}

// NewOllamaEmbedder creates an embedder against a local Ollama instance.
// Default model: nomic-embed-text (768 dims), all-minilm (384 dims).
func NewOllamaEmbedder(host, model string) *OpenAIEmbedder {
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	if host == "" {
		host = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	dims := 768
	if model == "all-minilm" {
		dims = 384
	}
	return NewOpenAIEmbedder(strings.TrimRight(host, "/")+"/v1", "ollama", model, dims)
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([]Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	out := make([]Vector, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

func (e *OpenAIEmbedder) Dims() int { return e.dims }

// ErrDisabled is returned by callers that need an embedder when none is
// configured.
var ErrDisabled = errors.New("embeddings not configured")

// ErrDimensionMismatch means vectors of different lengths met.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// CheckDims verifies every vector has e.Dims() components. An embedder
// reporting zero dims is not checked.
func CheckDims(e Embedder, vecs []Vector) error {
	want := e.Dims()
	if want <= 0 {
		return nil
	}
	for i, v := range vecs {
		if len(v) != want {
			return fmt.Errorf("%w: vector %d has %d dims, want %d", ErrDimensionMismatch, i, len(v), want)
		}
	}
	return nil
}

// Options selects and configures a provider.
type Options struct {
	Provider string // "openai" | "ollama" | "" (disabled)
	BaseURL  string
	APIKey   string
	Model    string
	Dims     int
}

// New creates an embedder from opts, or nil when the provider is empty or
// openai is selected without an API key.
func New(opts Options) Embedder {
	switch opts.Provider {
	case "ollama":
		e := NewOllamaEmbedder(opts.BaseURL, opts.Model)
		if opts.Dims > 0 {
			e.dims = opts.Dims
		}
		return e
	case "openai":
		if opts.APIKey == "" && opts.BaseURL == "" {
			return nil
		}
		return NewOpenAIEmbedder(opts.BaseURL, opts.APIKey, opts.Model, opts.Dims)
	default:
		return nil
	}
}
