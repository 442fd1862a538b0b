package model

import "time"

// Document is an uploaded file's extracted text.
type Document struct {
	ID          string     `json:"id"`
	Filename    string     `json:"filename"`
	Content     string     `json:"content"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	ChunkCount  int        `json:"chunks,omitempty"`
}

// Chunk is an indexed slice of a document.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Seq        int       `json:"seq"`
	Text       string    `json:"text"`
	Offset     int       `json:"offset"`
	Embedding  []float32 `json:"-"`
}
