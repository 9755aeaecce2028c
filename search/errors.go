package search

import "errors"

var (
	// ErrNoMatches indicates a query returned no scored chunks.
	ErrNoMatches = errors.New("no matching chunks found")

	// ErrEmptyQuery indicates an empty or whitespace-only query string.
	ErrEmptyQuery = errors.New("query text is empty")

	// ErrVectorRepositoryRequired indicates a nil vector repository.
	ErrVectorRepositoryRequired = errors.New("vector repository is required")

	// ErrDocumentRepositoryRequired indicates a nil document repository.
	ErrDocumentRepositoryRequired = errors.New("document repository is required")

	// ErrEmbedderRequired indicates a nil embedder.
	ErrEmbedderRequired = errors.New("embedder is required")
)
