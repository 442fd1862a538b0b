package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/ragwire/internal/pipeline"
)

type stubRemote struct {
	// When queryGate is set, QueryPipeline signals queryStarted and blocks
	// until the gate is closed.
	queryGate    chan struct{}
	queryStarted chan struct{}

	mu        sync.Mutex
	processed int
	queries   []string
	useIndex  []bool
	uploaded  []string
}

func (r *stubRemote) ProcessIngestedDocuments(context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed++
	return "Vector embeddings created", nil
}

func (r *stubRemote) QueryPipeline(_ context.Context, q string, useIndex bool) (string, error) {
	r.mu.Lock()
	r.queries = append(r.queries, q)
	r.useIndex = append(r.useIndex, useIndex)
	r.mu.Unlock()
	if r.queryGate != nil {
		r.queryStarted <- struct{}{}
		<-r.queryGate
	}
	return "answer to " + q, nil
}

func (r *stubRemote) UploadDocuments(_ context.Context, files []pipeline.File) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range files {
		r.uploaded = append(r.uploaded, f.Name)
	}
	return "Uploaded 1 PDFs successfully", nil
}

// syncBuffer guards a bytes.Buffer for writes from trigger goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func runScript(t *testing.T, r pipeline.Remote, lines ...string) string {
	t.Helper()
	var out syncBuffer
	s, err := newSession(r, &out)
	require.NoError(t, err)
	require.NoError(t, s.run(context.Background(), strings.NewReader(strings.Join(lines, "\n"))))
	return out.String()
}

func TestChat_UnwiredQuery(t *testing.T) {
	r := &stubRemote{}
	out := runScript(t, r, "hello", "   ", "/caps")

	assert.Contains(t, out, pipeline.WireQueryPrompt)
	assert.Contains(t, out, "indexing: false, querying: false")
	assert.Empty(t, r.queries)
}

func TestChat_WiringFlow(t *testing.T) {
	r := &stubRemote{}
	out := runScript(t, r,
		"/connect vectorDB pdf",
		"/connect llm vectorDB",
		"/caps",
		"what is in the docs?",
		"/edges",
		"/quit",
		"never sent",
	)

	assert.Contains(t, out, "connected vectorDB -> pdf (ingest->index)")
	assert.Contains(t, out, "connected llm -> vectorDB (index->query)")
	assert.Contains(t, out, "indexing: true, querying: true")
	assert.Contains(t, out, "answer to what is in the docs?")
	assert.Contains(t, out, "! Vector embeddings created")
	assert.Equal(t, 1, r.processed)
	assert.Equal(t, []string{"what is in the docs?"}, r.queries)
	assert.Equal(t, []bool{true}, r.useIndex)
}

func TestChat_QueryWithoutIndex(t *testing.T) {
	r := &stubRemote{}
	runScript(t, r, "/connect vectorDB llm", "hi")

	assert.Equal(t, 0, r.processed)
	assert.Equal(t, []bool{false}, r.useIndex)
}

func TestChat_Disconnect(t *testing.T) {
	r := &stubRemote{}
	out := runScript(t, r,
		"/connect vectorDB llm",
		"/disconnect llm vectorDB",
		"/caps",
		"hi",
		"/edges",
	)

	assert.Contains(t, out, "removed 1 edge(s)")
	assert.Contains(t, out, "indexing: false, querying: false")
	assert.Contains(t, out, pipeline.WireQueryPrompt)
	assert.Contains(t, out, "no edges")
	assert.Empty(t, r.queries)
}

func TestChat_Errors(t *testing.T) {
	out := runScript(t, &stubRemote{},
		"/connect pdf nowhere",
		"/connect pdf",
		"/bogus",
		"/upload",
	)

	assert.Contains(t, out, "error: ")
	assert.Contains(t, out, "usage: /connect A B")
	assert.Contains(t, out, "unknown command /bogus")
	assert.Contains(t, out, "usage: /upload FILE...")
}

func TestChat_Upload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("some notes"), 0o644))

	r := &stubRemote{}
	out := runScript(t, r, "/upload "+path, "/upload "+filepath.Join(dir, "missing.pdf"))

	assert.Contains(t, out, "! Uploaded 1 PDFs successfully")
	assert.Equal(t, []string{"notes.txt"}, r.uploaded)
	assert.Contains(t, out, "error: ")
}

func TestReadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("# a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.bin"), []byte{0}, 0o644))

	files, err := readFiles([]string{dir})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a.md", files[0].Name)

	_, err = readFiles([]string{filepath.Join(dir, "skip.bin")})
	assert.Error(t, err)

	_, err = readFiles([]string{t.TempDir()})
	assert.Error(t, err)
}

func TestChat_PromptStaysFreeWhileReplyPending(t *testing.T) {
	r := &stubRemote{queryGate: make(chan struct{}), queryStarted: make(chan struct{}, 1)}
	var out syncBuffer
	s, err := newSession(r, &out)
	require.NoError(t, err)

	in, feed := io.Pipe()
	done := make(chan error, 1)
	go func() { done <- s.run(context.Background(), in) }()

	fmt.Fprintln(feed, "/connect vectorDB llm")
	fmt.Fprintln(feed, "slow question")
	<-r.queryStarted

	fmt.Fprintln(feed, "/status")
	fmt.Fprintln(feed, "/connect pdf vectorDB")
	assert.Eventually(t, func() bool {
		o := out.String()
		return strings.Contains(o, "pending sends: 1") &&
			strings.Contains(o, "! Vector embeddings created")
	}, 3*time.Second, 10*time.Millisecond)
	assert.NotContains(t, out.String(), "answer to slow question")

	close(r.queryGate)
	feed.Close()
	require.NoError(t, <-done)
	assert.Contains(t, out.String(), "answer to slow question")
	assert.Equal(t, 1, r.processed)
}
