// Package rag implements the backend pipeline: document upload, index build
// and retrieval-augmented query answering.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rcliao/ragwire/internal/chunker"
	"github.com/rcliao/ragwire/internal/ctxlog"
	"github.com/rcliao/ragwire/internal/embedding"
	"github.com/rcliao/ragwire/internal/ingest"
	"github.com/rcliao/ragwire/internal/llm"
	"github.com/rcliao/ragwire/internal/store"
)

var (
	ErrNoPendingDocuments = errors.New("no documents to process")
	ErrEmptyQuery         = errors.New("query is required")
	ErrNoFiles            = errors.New("no files uploaded")
	ErrNoLLM              = errors.New("no language model configured")
)

// LLMNotConnected is the answer when the caller has not wired the LLM stage.
const LLMNotConnected = "LLM is not connected"

// Options tunes the pipeline.
type Options struct {
	Chunk       chunker.Options
	TopK        int
	MaxTokens   int
	EmbedBatch  int
	Concurrency int
}

// DefaultOptions returns the pipeline defaults.
func DefaultOptions() Options {
	return Options{
		Chunk:       chunker.DefaultOptions(),
		TopK:        3,
		MaxTokens:   150,
		EmbedBatch:  16,
		Concurrency: 4,
	}
}

// Upload is one file received by the ingest stage.
type Upload struct {
	Filename string
	Data     []byte
}

// QueryParams holds parameters for answering a query.
type QueryParams struct {
	Query       string
	UseVectorDB bool
	UseLLM      bool
}

// Service runs the pipeline stages against a store.
type Service struct {
	store    store.Store
	embedder embedding.Embedder
	llm      llm.Completer
	opts     Options
}

// NewService creates a service. embedder and completer may be nil; the
// stages that need them then fail with a descriptive error.
func NewService(s store.Store, e embedding.Embedder, c llm.Completer, opts Options) *Service {
	def := DefaultOptions()
	if opts.TopK <= 0 {
		opts.TopK = def.TopK
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = def.MaxTokens
	}
	if opts.EmbedBatch <= 0 {
		opts.EmbedBatch = def.EmbedBatch
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	return &Service{store: s, embedder: e, llm: c, opts: opts}
}

// Upload extracts and stores each file as a pending document. Either every
// file is accepted or none is.
func (s *Service) Upload(ctx context.Context, files []Upload) (string, error) {
	logger := ctxlog.FromContext(ctx)
	if len(files) == 0 {
		return "", ErrNoFiles
	}

	texts := make([]string, len(files))
	for i, f := range files {
		text, err := ingest.ExtractBytes(f.Filename, f.Data)
		if err != nil {
			return "", fmt.Errorf("extract %s: %w", f.Filename, err)
		}
		logger.Debug("extracted text", "file", f.Filename, "chars", len(text))
		texts[i] = text
	}
	for i, f := range files {
		if _, err := s.store.AddDocument(ctx, store.AddDocumentParams{Filename: f.Filename, Content: texts[i]}); err != nil {
			return "", fmt.Errorf("store %s: %w", f.Filename, err)
		}
	}

	logger.Info("uploaded documents", "count", len(files))
	return fmt.Sprintf("Uploaded %d PDFs successfully", len(files)), nil
}

// Process chunks, embeds and indexes every pending document.
func (s *Service) Process(ctx context.Context) (string, error) {
	logger := ctxlog.FromContext(ctx)
	pending, err := s.store.PendingDocuments(ctx)
	if err != nil {
		return "", fmt.Errorf("load pending documents: %w", err)
	}
	if len(pending) == 0 {
		return "", ErrNoPendingDocuments
	}
	if s.embedder == nil {
		return "", embedding.ErrDisabled
	}

	for _, doc := range pending {
		pieces := chunker.Chunk(doc.Content, s.opts.Chunk)
		vecs, err := s.embedAll(ctx, pieces)
		if err != nil {
			return "", fmt.Errorf("embed %s: %w", doc.Filename, err)
		}

		chunks := make([]store.ChunkParams, len(pieces))
		for i, p := range pieces {
			chunks[i] = store.ChunkParams{Text: p.Text, Offset: p.Offset, Embedding: vecs[i]}
		}
		if err := s.store.IndexDocument(ctx, doc.ID, chunks); err != nil {
			return "", fmt.Errorf("index %s: %w", doc.Filename, err)
		}
		logger.Debug("indexed document", "file", doc.Filename, "chunks", len(chunks))
	}

	logger.Info("created vector embeddings", "documents", len(pending))
	return "Vector embeddings created", nil
}

// embedAll embeds pieces in batches, running up to opts.Concurrency
// requests at once. Output order matches input order.
func (s *Service) embedAll(ctx context.Context, pieces []chunker.ChunkResult) ([]embedding.Vector, error) {
	out := make([]embedding.Vector, len(pieces))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for start := 0; start < len(pieces); start += s.opts.EmbedBatch {
		end := min(start+s.opts.EmbedBatch, len(pieces))
		g.Go(func() error {
			texts := make([]string, 0, end-start)
			for _, p := range pieces[start:end] {
				texts = append(texts, p.Text)
			}
			vecs, err := s.embedder.Embed(gctx, texts)
			if err != nil {
				return err
			}
			if len(vecs) != len(texts) {
				return fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(texts))
			}
			if err := embedding.CheckDims(s.embedder, vecs); err != nil {
				return err
			}
			copy(out[start:end], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Query answers p.Query, grounding the prompt in the closest indexed chunks
// when p.UseVectorDB is set and the index is not empty.
func (s *Service) Query(ctx context.Context, p QueryParams) (string, error) {
	logger := ctxlog.FromContext(ctx)
	if strings.TrimSpace(p.Query) == "" {
		return "", ErrEmptyQuery
	}
	if !p.UseLLM {
		return LLMNotConnected, nil
	}
	if s.llm == nil {
		return "", ErrNoLLM
	}

	prompt := p.Query
	if p.UseVectorDB {
		n, err := s.store.ChunkCount(ctx)
		if err != nil {
			return "", fmt.Errorf("count chunks: %w", err)
		}
		logger.Debug("index size", "chunks", n)
		if n > 0 {
			prompt, err = s.groundedPrompt(ctx, p.Query)
			if err != nil {
				return "", fmt.Errorf("retrieve context: %w", err)
			}
		}
	}

	answer, err := s.llm.Complete(ctx, prompt, s.opts.MaxTokens)
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}
	return answer, nil
}

func (s *Service) groundedPrompt(ctx context.Context, query string) (string, error) {
	if s.embedder == nil {
		return "", embedding.ErrDisabled
	}
	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return "", err
	}
	if len(vecs) != 1 {
		return "", fmt.Errorf("embedder returned %d vectors for the query", len(vecs))
	}
	if err := embedding.CheckDims(s.embedder, vecs); err != nil {
		return "", err
	}
	results, err := s.store.Search(ctx, store.SearchParams{Vector: vecs[0], Limit: s.opts.TopK})
	if err != nil {
		return "", err
	}
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}
	return BuildPrompt(query, texts), nil
}

// BuildPrompt wraps query with the retrieved context.
func BuildPrompt(query string, contexts []string) string {
	return fmt.Sprintf("Based on the following documents:\n%s\n\nAnswer the query: %s",
		strings.Join(contexts, "\n"), query)
}
