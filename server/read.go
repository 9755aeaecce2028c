package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tutorstack/corpus/core"
	"github.com/tutorstack/corpus/search"
	"github.com/tutorstack/corpus/storage"
)

type documentResponse struct {
	ID          string    `json:"id"`
	SourceName  string    `json:"source_name"`
	FileType    string    `json:"file_type,omitempty"`
	SizeBytes   int64     `json:"size_bytes"`
	Stage       string    `json:"stage"`
	FailedStage string    `json:"failed_stage,omitempty"`
	ChunkCount  int       `json:"chunk_count"`
	TextLength  int       `json:"text_length"`
	Warning     string    `json:"warning,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toDocumentResponse(doc *core.Document) documentResponse {
	resp := documentResponse{
		ID:         doc.ID,
		SourceName: doc.SourceName,
		FileType:   doc.FileType,
		SizeBytes:  doc.SizeBytes,
		Stage:      doc.Stage.String(),
		ChunkCount: doc.ChunkCount,
		TextLength: doc.TextLength,
		Warning:    doc.Warning,
		Error:      doc.Error,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
	if doc.Stage == core.StageError && doc.FailedStage.Valid() {
		resp.FailedStage = doc.FailedStage.String()
	}
	return resp
}

type chunkResponse struct {
	ID         string            `json:"id"`
	Index      int               `json:"index"`
	Text       string            `json:"text"`
	TokenCount int               `json:"token_count,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// verifyResponse is the verification record as it crosses the wire.
// vectorsStored and vectorCount keep their camelCase names; existing upload
// tooling matches on them.
type verifyResponse struct {
	DocumentID    string `json:"document_id"`
	VectorsStored bool   `json:"vectorsStored"`
	VectorCount   int    `json:"vectorCount"`
	Status        string `json:"status"`
	Expected      int    `json:"expected"`
	Complete      bool   `json:"complete"`
}

func toVerifyResponse(result *search.VerifyResult) verifyResponse {
	status := "No vectors found"
	if result.Stored {
		status = fmt.Sprintf("Found %d vectors", result.Count)
	}
	return verifyResponse{
		DocumentID:    result.DocumentID,
		VectorsStored: result.Stored,
		VectorCount:   result.Count,
		Status:        status,
		Expected:      result.Expected,
		Complete:      result.Complete,
	}
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("document id is required"))
		return
	}

	result, err := s.verifier.Verify(r.Context(), id)
	if err != nil {
		s.writeError(w, statusFromError(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, toVerifyResponse(result))
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.documents.ListDocuments(r.Context())
	if err != nil {
		s.writeError(w, statusFromError(err), err)
		return
	}

	responses := make([]documentResponse, len(docs))
	for i, doc := range docs {
		responses[i] = toDocumentResponse(doc)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"documents": responses,
		"count":     len(responses),
	})
}

func (s *Server) handleChunks(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}

	chunks, err := s.vectors.ChunksByDocument(r.Context(), id, limit)
	if err != nil {
		s.writeError(w, statusFromError(err), err)
		return
	}

	responses := make([]chunkResponse, len(chunks))
	for i, chunk := range chunks {
		responses[i] = chunkResponse{
			ID:         chunk.ID,
			Index:      chunk.Index,
			Text:       chunk.Text,
			TokenCount: chunk.TokenCount,
			Metadata:   chunk.Metadata,
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"document_id": id,
		"chunks":      responses,
		"count":       len(responses),
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	removed, err := s.vectors.DeleteByDocument(r.Context(), id)
	if err != nil {
		s.writeError(w, statusFromError(err), err)
		return
	}

	recordErr := s.documents.DeleteDocument(r.Context(), id)
	if recordErr != nil && !errors.Is(recordErr, storage.ErrNotFound) {
		s.writeError(w, statusFromError(recordErr), recordErr)
		return
	}
	// Orphan vectors without a record still count as a successful delete;
	// a fully unknown id does not.
	if removed == 0 && errors.Is(recordErr, storage.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("%w: document %s", storage.ErrNotFound, id))
		return
	}

	s.logger.Info("document deleted", "document_id", id, "chunks_removed", removed)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"document_id":    id,
		"chunks_removed": removed,
	})
}

type searchRequest struct {
	Query       string   `json:"query"`
	TopK        int      `json:"top_k"`
	DocumentIDs []string `json:"document_ids"`
	Module      string   `json:"module"`
}

type searchResult struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Text       string  `json:"text"`
	Score      float32 `json:"score"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}

	scored, err := s.searcher.Retrieve(r.Context(), search.Query{
		Text:        strings.TrimSpace(req.Query),
		TopK:        req.TopK,
		DocumentIDs: req.DocumentIDs,
		Module:      req.Module,
	})
	if errors.Is(err, search.ErrNoMatches) {
		s.writeJSON(w, http.StatusOK, map[string]any{"results": []searchResult{}, "count": 0})
		return
	}
	if err != nil {
		s.writeError(w, statusFromError(err), err)
		return
	}

	results := make([]searchResult, len(scored))
	for i, sc := range scored {
		results[i] = searchResult{
			ChunkID:    sc.Chunk.ID,
			DocumentID: sc.Chunk.DocumentID,
			Text:       sc.Chunk.Text,
			Score:      sc.Score,
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"count":   len(results),
		"context": search.BuildContext(scored),
	})
}
