package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rcliao/ragwire/internal/ctxlog"
	"github.com/rcliao/ragwire/internal/rag"
)

type messageResponse struct {
	Message string `json:"message"`
}

type queryRequest struct {
	Query       string `json:"query" validate:"required"`
	UseVectorDB bool   `json:"useVectorDB"`
	UseLLM      bool   `json:"useLLM"`
}

type queryResponse struct {
	Answer string `json:"answer"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) uploadDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := ctxlog.WithLogger(r.Context(), s.logger)
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Upload failed: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "Upload failed: no files")
		return
	}

	uploads := make([]rag.Upload, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Upload failed: "+err.Error())
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Upload failed: "+err.Error())
			return
		}
		uploads = append(uploads, rag.Upload{Filename: h.Filename, Data: data})
	}

	msg, err := s.pipeline.Upload(ctx, uploads)
	if err != nil {
		s.logger.Error("upload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Upload failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

func (s *Server) processDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := ctxlog.WithLogger(r.Context(), s.logger)
	msg, err := s.pipeline.Process(ctx)
	switch {
	case errors.Is(err, rag.ErrNoPendingDocuments):
		writeError(w, http.StatusBadRequest, "No PDFs to process")
	case err != nil:
		s.logger.Error("embedding creation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Embedding creation failed: "+err.Error())
	default:
		writeJSON(w, http.StatusOK, messageResponse{Message: msg})
	}
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	ctx := ctxlog.WithLogger(r.Context(), s.logger)
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}

	answer, err := s.pipeline.Query(ctx, rag.QueryParams{
		Query:       req.Query,
		UseVectorDB: req.UseVectorDB,
		UseLLM:      req.UseLLM,
	})
	switch {
	case errors.Is(err, rag.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, "Query is required")
	case err != nil:
		s.logger.Error("query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Query failed: "+err.Error())
	default:
		writeJSON(w, http.StatusOK, queryResponse{Answer: answer})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
