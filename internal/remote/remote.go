// Package remote is the HTTP client for the pipeline backend. It implements
// pipeline.Remote against the /upload_pdfs, /process_pdfs and /query routes.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rcliao/ragwire/internal/ctxlog"
	"github.com/rcliao/ragwire/internal/pipeline"
)

// DefaultBaseURL is where the backend listens unless configured otherwise.
const DefaultBaseURL = "http://localhost:8000"

// DefaultTimeout bounds a single backend call.
const DefaultTimeout = 2 * time.Minute

// Client talks to the backend over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
}

var _ pipeline.Remote = (*Client)(nil)

// New creates a client. Empty baseURL and non-positive timeout use defaults.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

type queryRequest struct {
	Query       string `json:"query"`
	UseVectorDB bool   `json:"useVectorDB"`
	UseLLM      bool   `json:"useLLM"`
}

type queryResponse struct {
	Answer string `json:"answer"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// ProcessIngestedDocuments asks the backend to build the index.
func (c *Client) ProcessIngestedDocuments(ctx context.Context) (string, error) {
	var out messageResponse
	if err := c.do(ctx, "process", "/process_pdfs", "application/json", nil, "Failed to create embeddings", &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// QueryPipeline sends an utterance. The LLM stage is always requested; the
// caller only reaches here once it is wired.
func (c *Client) QueryPipeline(ctx context.Context, utterance string, useIndex bool) (string, error) {
	body, _ := json.Marshal(queryRequest{Query: utterance, UseVectorDB: useIndex, UseLLM: true})
	var out queryResponse
	if err := c.do(ctx, "query", "/query", "application/json", bytes.NewReader(body), "Query failed", &out); err != nil {
		return "", err
	}
	return out.Answer, nil
}

// UploadDocuments posts files as a multipart form under the "files" field.
func (c *Client) UploadDocuments(ctx context.Context, files []pipeline.File) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		fw, err := mw.CreateFormFile("files", f.Name)
		if err != nil {
			return "", fmt.Errorf("build upload form: %w", err)
		}
		if _, err := fw.Write(f.Data); err != nil {
			return "", fmt.Errorf("build upload form: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}

	var out messageResponse
	if err := c.do(ctx, "upload", "/upload_pdfs", mw.FormDataContentType(), &buf, "Upload failed", &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// do posts body to path and decodes a 2xx response into out. Failures to
// reach the backend become TransportError; everything else the backend
// says no to becomes ApplicationError carrying its detail, or fallback when
// it gave none.
func (c *Client) do(ctx context.Context, op, path, contentType string, body io.Reader, fallback string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", contentType)

	log := ctxlog.FromContext(ctx)
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		log.Warn("backend unreachable", "op", op, "error", err)
		return &pipeline.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	log.Debug("backend call", "op", op, "status", resp.StatusCode, "duration", time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &pipeline.TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := fallback
		var e errorResponse
		if json.Unmarshal(data, &e) == nil && e.Detail != "" {
			reason = e.Detail
		}
		return &pipeline.ApplicationError{Op: op, Status: resp.StatusCode, Reason: reason}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &pipeline.ApplicationError{Op: op, Status: resp.StatusCode, Reason: fallback}
	}
	return nil
}
