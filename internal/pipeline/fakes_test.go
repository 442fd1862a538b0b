package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rcliao/ragwire/internal/model"
)

func newTestGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := NewGraph(model.DefaultNodes())
	require.NoError(t, err)
	return g
}

func newTestEngine(t *testing.T, remote Remote, notifier Notifier) *Engine {
	t.Helper()
	e, err := NewEngine(remote, notifier, model.DefaultNodes())
	require.NoError(t, err)
	return e
}

type queryCall struct {
	Utterance string
	UseIndex  bool
}

// fakeRemote records calls. When gate is non-nil, ProcessIngestedDocuments
// blocks until it is closed; queryGate does the same for QueryPipeline.
type fakeRemote struct {
	gate         chan struct{}
	started      chan struct{}
	queryGate    chan struct{}
	queryStarted chan struct{}
	processErr   error
	queryErr     error
	uploadErr    error
	answer       string

	processCalls atomic.Int32
	mu           sync.Mutex
	queries      []queryCall
	uploads      [][]File
}

func (f *fakeRemote) ProcessIngestedDocuments(ctx context.Context) (string, error) {
	f.processCalls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.processErr != nil {
		return "", f.processErr
	}
	return "Vector embeddings created", nil
}

func (f *fakeRemote) QueryPipeline(ctx context.Context, utterance string, useIndex bool) (string, error) {
	f.mu.Lock()
	f.queries = append(f.queries, queryCall{Utterance: utterance, UseIndex: useIndex})
	f.mu.Unlock()
	if f.queryStarted != nil {
		f.queryStarted <- struct{}{}
	}
	if f.queryGate != nil {
		<-f.queryGate
	}
	if f.queryErr != nil {
		return "", f.queryErr
	}
	return f.answer, nil
}

func (f *fakeRemote) UploadDocuments(ctx context.Context, files []File) (string, error) {
	f.mu.Lock()
	f.uploads = append(f.uploads, files)
	f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return "Uploaded 1 PDFs successfully", nil
}

func (f *fakeRemote) queryCalls() []queryCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]queryCall(nil), f.queries...)
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *recordingNotifier) Notify(_ context.Context, n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recordingNotifier) all() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}
