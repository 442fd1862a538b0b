// Package store provides document and vector index storage backed by SQLite.
package store

import (
	"context"
	"errors"

	"github.com/rcliao/ragwire/internal/embedding"
	"github.com/rcliao/ragwire/internal/model"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("not found")

// AddDocumentParams holds parameters for storing an uploaded document.
type AddDocumentParams struct {
	Filename string
	Content  string
}

// ListParams holds parameters for listing documents.
type ListParams struct {
	PendingOnly bool
	Limit       int
}

// ChunkParams is one chunk to be indexed.
type ChunkParams struct {
	Text      string
	Offset    int
	Embedding embedding.Vector
}

// SearchParams holds parameters for a similarity search.
type SearchParams struct {
	Vector embedding.Vector
	Limit  int
}

// SearchResult is an indexed chunk scored against a query vector.
type SearchResult struct {
	model.Chunk
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
}

// Store defines the document storage interface.
type Store interface {
	// AddDocument stores an uploaded document as pending.
	AddDocument(ctx context.Context, p AddDocumentParams) (*model.Document, error)

	// PendingDocuments returns documents not yet indexed, oldest first.
	PendingDocuments(ctx context.Context) ([]model.Document, error)

	// IndexDocument stores chunks for a document and marks it processed.
	IndexDocument(ctx context.Context, documentID string, chunks []ChunkParams) error

	// Search returns the chunks most similar to the query vector.
	Search(ctx context.Context, p SearchParams) ([]SearchResult, error)

	// ChunkCount returns the number of indexed chunks.
	ChunkCount(ctx context.Context) (int, error)

	// List lists documents.
	List(ctx context.Context, p ListParams) ([]model.Document, error)

	// Close closes the store.
	Close() error
}
