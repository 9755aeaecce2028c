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

package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tutorstack/corpus/core"
)

// Upload timeouts by size class. Large files spend most of the budget in
// transcription and embedding, not transfer.
const (
	smallFileLimit  = 10 << 20
	mediumFileLimit = 50 << 20

	smallFileTimeout  = 5 * time.Minute
	mediumFileTimeout = 15 * time.Minute
	largeFileTimeout  = 30 * time.Minute
)

// Client uploads files to a corpus server and reads back results.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	logger      *slog.Logger
	maxAttempts int
	baseDelay   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport. The client applies per-upload
// timeouts itself, so the given client should not set one.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithRetry configures whole-upload retry behavior.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *Client) {
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
		if baseDelay > 0 {
			c.baseDelay = baseDelay
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{},
		logger:      slog.Default().With("component", "corpus-client"),
		maxAttempts: 3,
		baseDelay:   2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UploadOptions describes one upload.
type UploadOptions struct {
	// FilePath is the local file to upload. Required.
	FilePath string

	// DocumentID pins the server-side document id. Optional.
	DocumentID string

	// ModuleCode tags the document's chunks with a course module. Optional.
	ModuleCode string

	// OnProgress receives every parsed progress record. Optional.
	OnProgress func(Progress)
}

func uploadTimeout(size int64) time.Duration {
	switch {
	case size < smallFileLimit:
		return smallFileTimeout
	case size < mediumFileLimit:
		return mediumFileTimeout
	default:
		return largeFileTimeout
	}
}

// Upload sends the file and follows the progress stream to its terminal
// record. Transient failures retry the whole upload with exponential
// backoff; failures the server classifies as permanent do not.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) (*UploadResult, error) {
	info, err := os.Stat(opts.FilePath)
	if err != nil {
		return nil, fmt.Errorf("stat upload file: %w", err)
	}
	timeout := uploadTimeout(info.Size())

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := c.uploadOnce(ctx, opts, timeout)
		if err == nil {
			if attempt > 1 {
				c.logger.Info("upload succeeded after retry", "attempt", attempt,
					"file", opts.FilePath)
			}
			return result, nil
		}
		lastErr = err

		if !retryable(err) {
			c.logger.Warn("upload failed permanently", "file", opts.FilePath, "err", err)
			return nil, err
		}
		if attempt == c.maxAttempts {
			break
		}

		delay := c.baseDelay
		for i := 1; i < attempt; i++ {
			delay *= 2
		}
		c.logger.Warn("upload failed, retrying", "attempt", attempt,
			"delay", delay, "err", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, fmt.Errorf("upload failed after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *Client) uploadOnce(ctx context.Context, opts UploadOptions, timeout time.Duration) (*UploadResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	file, err := os.Open(opts.FilePath)
	if err != nil {
		return nil, fmt.Errorf("opening upload file: %w", err)
	}
	defer file.Close()

	// Stream the multipart body through a pipe so large files never sit in
	// memory.
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		err := writeMultipart(writer, file, filepath.Base(opts.FilePath), opts)
		writer.Close()
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/educator/upload", pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("upload rejected with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, &permanentError{err}
		}
		return nil, err
	}

	return parseStream(resp.Body, c.logger, opts.OnProgress)
}

func writeMultipart(writer *multipart.Writer, file io.Reader, filename string, opts UploadOptions) error {
	if opts.DocumentID != "" {
		if err := writer.WriteField("document_id", opts.DocumentID); err != nil {
			return err
		}
	}
	if opts.ModuleCode != "" {
		if err := writer.WriteField("module_code", opts.ModuleCode); err != nil {
			return err
		}
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}

// permanentError marks a failure that retrying cannot fix.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// retryable reports whether a whole-upload retry could help. Server-side
// failures carry the error kind from the stream; validation and consistency
// failures are permanent.
func retryable(err error) bool {
	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}
	var ing *IngestionError
	if errors.As(err, &ing) {
		return ing.Kind.Retryable()
	}
	return true
}

// IngestionError is a terminal error record from the upload stream.
type IngestionError struct {
	Kind    core.ErrorKind
	Message string
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingestion failed (%s): %s", e.Kind, e.Message)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, out)
}

// Verify asks the server whether a document's vectors are fully persisted.
func (c *Client) Verify(ctx context.Context, documentID string) (*VerifyResult, error) {
	var result VerifyResult
	if err := c.getJSON(ctx, "/educator/verify/"+url.PathEscape(documentID), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Documents lists every document record on the server, most recent first.
func (c *Client) Documents(ctx context.Context) ([]Document, error) {
	var result struct {
		Documents []Document `json:"documents"`
	}
	if err := c.getJSON(ctx, "/educator/documents", &result); err != nil {
		return nil, err
	}
	return result.Documents, nil
}

// Chunks fetches a document's chunks ordered by index.
func (c *Client) Chunks(ctx context.Context, documentID string, limit int) ([]Chunk, error) {
	path := fmt.Sprintf("/educator/chunks/%s?limit=%d", url.PathEscape(documentID), limit)
	var result struct {
		Chunks []Chunk `json:"chunks"`
	}
	if err := c.getJSON(ctx, path, &result); err != nil {
		return nil, err
	}
	return result.Chunks, nil
}

// Delete removes a document and its vectors, returning how many chunks were
// removed.
func (c *Client) Delete(ctx context.Context, documentID string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/educator/documents/"+url.PathEscape(documentID), nil)
	if err != nil {
		return 0, err
	}
	var result struct {
		ChunksRemoved int `json:"chunks_removed"`
	}
	if err := c.doJSON(req, &result); err != nil {
		return 0, err
	}
	return result.ChunksRemoved, nil
}
