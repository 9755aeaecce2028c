package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/tutorstack/corpus/core"
	"github.com/tutorstack/corpus/ingest"
)

// wireEvent is the NDJSON record streamed back during an upload. Terminal
// records carry the document summary fields; error records carry the kind
// clients use for retry decisions.
type wireEvent struct {
	Status     string `json:"status"`
	Progress   int    `json:"progress"`
	Message    string `json:"message,omitempty"`
	DocumentID string `json:"document_id,omitempty"`
	Filename   string `json:"filename,omitempty"`
	Chunks     int    `json:"chunks,omitempty"`
	TextLength int    `json:"text_length,omitempty"`
	FileType   string `json:"file_type,omitempty"`
	Kind       string `json:"kind,omitempty"`
}

func toWireEvent(event core.IngestionEvent) wireEvent {
	we := wireEvent{
		Status:   string(event.Status),
		Progress: event.Progress,
		Message:  event.Message,
	}
	if event.Terminal() {
		we.DocumentID = event.DocumentID
		we.Filename = event.Filename
		we.Chunks = event.Chunks
		we.TextLength = event.TextLength
		we.FileType = event.FileType
	}
	if event.Status == core.StatusError {
		we.Kind = event.ErrKind.String()
	}
	return we
}

// handleUpload accepts a multipart file and streams ingestion progress as
// NDJSON. The ingestion keeps running if the client disconnects; the stream
// is advisory, the document record is the source of truth.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("parsing multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("missing file field: %w", err))
		return
	}
	defer file.Close()

	tmpPath, size, err := s.spoolUpload(file, header.Filename)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	req := ingest.UploadRequest{
		DocumentID: r.FormValue("document_id"),
		SourceName: header.Filename,
		FilePath:   tmpPath,
		SizeBytes:  size,
		ModuleCode: r.FormValue("module_code"),
	}
	callbackURL := r.FormValue("callback_url")

	events, err := s.pipeline.Ingest(r.Context(), req)
	if err != nil {
		os.Remove(tmpPath)
		s.writeError(w, statusFromError(err), err)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	encoder := json.NewEncoder(w)

	// Drain every event even after the client goes away: the terminal event
	// drives the cleanup and the optional callback.
	clientGone := false
	var terminal *core.IngestionEvent
	for event := range events {
		if event.Terminal() {
			e := event
			terminal = &e
		}
		if clientGone {
			continue
		}
		if err := encoder.Encode(toWireEvent(event)); err != nil {
			clientGone = true
			s.logger.Debug("upload stream client disconnected", "document_id", event.DocumentID)
			continue
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	os.Remove(tmpPath)

	if terminal != nil && callbackURL != "" {
		s.notifyCallback(callbackURL, *terminal)
	}
}

// spoolUpload copies the multipart part to a temp file the pipeline can read
// after this handler returns.
func (s *Server) spoolUpload(file io.Reader, name string) (string, int64, error) {
	tmp, err := os.CreateTemp("", "corpus-upload-*"+filepath.Ext(name))
	if err != nil {
		return "", 0, fmt.Errorf("spooling upload: %w", err)
	}

	size, err := io.Copy(tmp, file)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("spooling upload: %w", err)
	}
	return tmp.Name(), size, nil
}

type callbackPayload struct {
	DocumentID string `json:"documentId"`
	Status     string `json:"status"`
	Chunks     int    `json:"chunks,omitempty"`
	TextLength int    `json:"textLength,omitempty"`
	FileType   string `json:"fileType,omitempty"`
	Error      string `json:"error,omitempty"`
}

// notifyCallback posts the terminal outcome to the caller-provided URL.
// Failures are logged and not retried.
func (s *Server) notifyCallback(url string, event core.IngestionEvent) {
	payload := callbackPayload{
		DocumentID: event.DocumentID,
		Status:     string(event.Status),
		Chunks:     event.Chunks,
		TextLength: event.TextLength,
		FileType:   event.FileType,
	}
	if event.Status == core.StatusError {
		payload.Error = event.Message
	}

	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("callback payload encoding failed", "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		s.logger.Error("callback request failed", "url", url, "err", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.webhookClient.Do(req)
	if err != nil {
		s.logger.Warn("callback delivery failed", "url", url, "err", err)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	s.logger.Info("callback delivered", "url", url, "status_code", resp.StatusCode,
		"document_id", event.DocumentID)
}
