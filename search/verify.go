package search

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tutorstack/corpus/storage"
)

// VerifyResult reports whether a document's vectors survived ingestion.
type VerifyResult struct {
	// DocumentID is the document that was checked.
	DocumentID string

	// Stored is true when at least one vector exists for the document.
	Stored bool

	// Count is the number of vectors found.
	Count int

	// Expected is the chunk count recorded on the document, zero when the
	// document record is missing.
	Expected int

	// Complete is true when Count matches Expected and Expected is known.
	Complete bool
}

// Verifier checks persisted documents against their vector entries.
type Verifier struct {
	vectors   storage.VectorRepository
	documents storage.DocumentRepository
	logger    *slog.Logger
}

// NewVerifier creates a verifier over the given repositories.
func NewVerifier(vectors storage.VectorRepository, documents storage.DocumentRepository) (*Verifier, error) {
	if vectors == nil {
		return nil, ErrVectorRepositoryRequired
	}
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	return &Verifier{
		vectors:   vectors,
		documents: documents,
		logger:    slog.Default().With("component", "verifier"),
	}, nil
}

// Verify counts the stored vectors for a document and compares them with the
// chunk count on its record. A missing document record is not an error; the
// result then reports only what the vector store holds.
func (v *Verifier) Verify(ctx context.Context, documentID string) (*VerifyResult, error) {
	count, err := v.vectors.CountByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{
		DocumentID: documentID,
		Stored:     count > 0,
		Count:      count,
	}

	doc, err := v.documents.GetDocument(ctx, documentID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return result, nil
	case err != nil:
		return nil, err
	}

	result.Expected = doc.ChunkCount
	result.Complete = doc.ChunkCount > 0 && count == doc.ChunkCount

	if !result.Complete {
		v.logger.Warn("verification mismatch", "document_id", documentID,
			"stored", count, "expected", doc.ChunkCount)
	}
	return result, nil
}
