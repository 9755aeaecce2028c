package storage

import (
	"context"

	"github.com/tutorstack/corpus/core"
)

// QueryFilter restricts a similarity query to a subset of the store.
// Zero value means no filtering.
type QueryFilter struct {
	// DocumentIDs limits results to chunks of the listed documents.
	DocumentIDs []string

	// Module limits results to chunks whose module_code metadata matches.
	Module string
}

// Repository provides common storage operations shared across all
// repositories. Implementations must be thread-safe and support concurrent
// access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// VectorRepository provides operations for managing vector entries.
type VectorRepository interface {
	Repository

	// UpsertEntries writes one or more vector entries atomically. Either all
	// entries in the call are visible after it returns, or none are. Writing
	// an existing chunk id replaces the previous entry.
	UpsertEntries(ctx context.Context, entries ...*core.VectorEntry) error

	// GetEntry retrieves a single vector entry by chunk id.
	// Returns ErrNotFound if the entry doesn't exist.
	GetEntry(ctx context.Context, chunkID string) (*core.VectorEntry, error)

	// Query finds entries similar to the given vector.
	// Returns up to limit results ordered by similarity score (highest
	// first), restricted by filter.
	Query(ctx context.Context, vector []float32, limit int, filter QueryFilter) ([]*core.ScoredChunk, error)

	// CountByDocument returns the number of entries stored for a document.
	CountByDocument(ctx context.Context, documentID string) (int, error)

	// ChunksByDocument retrieves a document's chunks ordered by index.
	// Returns up to limit chunks; limit <= 0 means no limit.
	ChunksByDocument(ctx context.Context, documentID string, limit int) ([]*core.Chunk, error)

	// DeleteByDocument removes all entries belonging to a document and
	// returns how many were removed. Deleting an unknown document removes
	// zero entries and is not an error.
	DeleteByDocument(ctx context.Context, documentID string) (int, error)
}

// DocumentRepository provides operations for managing document records.
type DocumentRepository interface {
	Repository

	// PutDocument creates or replaces a document record.
	PutDocument(ctx context.Context, doc *core.Document) error

	// GetDocument retrieves a single document by id.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id string) (*core.Document, error)

	// ListDocuments retrieves all document records ordered by creation time,
	// most recent first.
	ListDocuments(ctx context.Context) ([]*core.Document, error)

	// DeleteDocument removes a document record.
	// Returns ErrNotFound if the document doesn't exist.
	DeleteDocument(ctx context.Context, id string) error
}
