// Copyright 2026 Tutorstack Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/tutorstack/corpus/core"
	"github.com/tutorstack/corpus/ingest"
	"github.com/tutorstack/corpus/search"
	"github.com/tutorstack/corpus/storage"
)

// DefaultMaxUploadBytes caps multipart upload size at 100 MiB.
const DefaultMaxUploadBytes = 100 << 20

// Server exposes the ingestion and retrieval API over HTTP.
type Server struct {
	pipeline  *ingest.Pipeline
	searcher  *search.Searcher
	verifier  *search.Verifier
	vectors   storage.VectorRepository
	documents storage.DocumentRepository
	logger    *slog.Logger

	maxUploadBytes int64
	webhookClient  *http.Client
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxUploadBytes caps the accepted upload size.
func WithMaxUploadBytes(limit int64) Option {
	return func(s *Server) {
		if limit > 0 {
			s.maxUploadBytes = limit
		}
	}
}

// WithWebhookClient sets the HTTP client used for callback notifications.
func WithWebhookClient(client *http.Client) Option {
	return func(s *Server) {
		if client != nil {
			s.webhookClient = client
		}
	}
}

// NewServer wires the API around an ingestion pipeline and its repositories.
func NewServer(
	pipeline *ingest.Pipeline,
	searcher *search.Searcher,
	verifier *search.Verifier,
	vectors storage.VectorRepository,
	documents storage.DocumentRepository,
	opts ...Option,
) *Server {
	s := &Server{
		pipeline:       pipeline,
		searcher:       searcher,
		verifier:       verifier,
		vectors:        vectors,
		documents:      documents,
		logger:         slog.Default().With("component", "http-server"),
		maxUploadBytes: DefaultMaxUploadBytes,
		webhookClient:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /educator/upload", s.handleUpload)
	mux.HandleFunc("GET /educator/verify/{id}", s.handleVerify)
	mux.HandleFunc("GET /educator/documents", s.handleListDocuments)
	mux.HandleFunc("GET /educator/chunks/{id}", s.handleChunks)
	mux.HandleFunc("DELETE /educator/documents/{id}", s.handleDeleteDocument)
	mux.HandleFunc("POST /educator/search", s.handleSearch)
	mux.HandleFunc("GET /health", s.handleHealth)

	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("response write failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// statusFromError maps storage and validation errors to HTTP statuses.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ingest.ErrDocumentBusy):
		return http.StatusConflict
	case errors.Is(err, search.ErrEmptyQuery), errors.Is(err, ingest.ErrEmptyUpload),
		errors.Is(err, core.ErrInvalidDocument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
