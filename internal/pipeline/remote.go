package pipeline

import "context"

// Processor builds the index from ingested documents.
type Processor interface {
	ProcessIngestedDocuments(ctx context.Context) (string, error)
}

// Querier answers an utterance, optionally consulting the index.
type Querier interface {
	QueryPipeline(ctx context.Context, utterance string, useIndex bool) (string, error)
}

// File is a document handed to the ingest stage.
type File struct {
	Name string
	Data []byte
}

// Uploader hands documents to the ingest stage.
type Uploader interface {
	UploadDocuments(ctx context.Context, files []File) (string, error)
}

// Remote is the full set of backend operations the engine consumes.
type Remote interface {
	Processor
	Querier
	Uploader
}
