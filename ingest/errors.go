package ingest

import "errors"

var (
	// ErrVectorRepositoryRequired is returned when a vector repository is not provided.
	ErrVectorRepositoryRequired = errors.New("vector repository required")

	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidMaxAttempts is returned for a non-positive retry attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrDocumentBusy is returned when a document is already being ingested.
	ErrDocumentBusy = errors.New("document ingestion already in progress")

	// ErrEmptyUpload is returned for an upload with no readable content.
	ErrEmptyUpload = errors.New("upload has no content")

	// ErrNoChunks is returned when conversion produced text but chunking
	// yielded nothing.
	ErrNoChunks = errors.New("document produced no chunks")

	// ErrPipelineClosed is returned when ingesting after Release.
	ErrPipelineClosed = errors.New("pipeline is closed")
)
