package client

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/tutorstack/corpus/core"
)

// maxStreamLine bounds one NDJSON record. Progress records are small; the
// margin covers long error messages.
const maxStreamLine = 1 << 20

// Progress is one parsed record from the upload stream.
type Progress struct {
	Status     string `json:"status"`
	Progress   int    `json:"progress"`
	Message    string `json:"message"`
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Chunks     int    `json:"chunks"`
	TextLength int    `json:"text_length"`
	FileType   string `json:"file_type"`
	Kind       string `json:"kind"`
}

// UploadResult is the terminal outcome of a successful upload.
type UploadResult struct {
	DocumentID string
	Status     string
	Chunks     int
	TextLength int
	FileType   string
	Warning    string
}

// parseStream follows the NDJSON progress stream to its terminal record.
// Malformed lines are logged and skipped; the terminal record decides the
// outcome.
func parseStream(r io.Reader, logger *slog.Logger, onProgress func(Progress)) (*UploadResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLine)

	var terminal *Progress
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record Progress
		if err := json.Unmarshal(line, &record); err != nil {
			logger.Warn("skipping malformed progress line", "err", err)
			continue
		}
		if onProgress != nil {
			onProgress(record)
		}

		switch record.Status {
		case string(core.StatusComplete), string(core.StatusCompleteWithWarning), string(core.StatusError):
			rec := record
			terminal = &rec
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading upload stream: %w", err)
	}

	if terminal == nil {
		return nil, errors.New("upload stream ended without a terminal record")
	}
	if terminal.Status == string(core.StatusError) {
		return nil, &IngestionError{
			Kind:    core.ParseErrorKind(terminal.Kind),
			Message: terminal.Message,
		}
	}
	if terminal.DocumentID == "" {
		return nil, errors.New("terminal record missing document id")
	}
	if terminal.Chunks < 0 {
		return nil, fmt.Errorf("terminal record reports negative chunk count %d", terminal.Chunks)
	}

	result := &UploadResult{
		DocumentID: terminal.DocumentID,
		Status:     terminal.Status,
		Chunks:     terminal.Chunks,
		TextLength: terminal.TextLength,
		FileType:   terminal.FileType,
	}
	if terminal.Status == string(core.StatusCompleteWithWarning) {
		result.Warning = terminal.Message
	}
	return result, nil
}
