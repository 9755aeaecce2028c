package core

import (
	"fmt"
	"strings"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - ID must not be empty and must not contain ':' (the storage key
//     separator; an id containing it would leak into neighbouring key
//     prefixes)
//   - SourceName must not be empty
//   - Stage must be a known stage value
//
// NOT validated (populated by the pipeline):
//   - ChunkCount / TextLength (0 until chunking/conversion ran)
//   - FileType (empty until detection ran)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if doc.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyDocumentID)
	}
	if strings.Contains(doc.ID, ":") {
		return fmt.Errorf("%w: id %q contains reserved character ':'", ErrInvalidDocument, doc.ID)
	}
	if doc.SourceName == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptySourceName)
	}
	if !doc.Stage.Valid() {
		return fmt.Errorf("%w: %w: %d", ErrInvalidDocument, ErrUnknownStage, int(doc.Stage))
	}
	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - DocumentID must not be empty
//   - Index must not be negative
//   - ID must match the deterministic chunk id for (DocumentID, Index)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}
	if chunk.DocumentID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyDocumentID)
	}
	if chunk.Index < 0 {
		return fmt.Errorf("%w: negative index %d", ErrInvalidChunk, chunk.Index)
	}
	if want := ChunkID(chunk.DocumentID, chunk.Index); chunk.ID != want {
		return fmt.Errorf("%w: id %q does not match %q", ErrInvalidChunk, chunk.ID, want)
	}
	return nil
}

// ValidateVectorEntry validates a VectorEntry before it is persisted.
//
// Validation rules:
//   - ChunkID and DocumentID must not be empty
//   - DocumentID must not contain the ':' key separator
//   - Embedding must not be empty
func ValidateVectorEntry(entry *VectorEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidVectorEntry)
	}
	if entry.ChunkID == "" {
		return fmt.Errorf("%w: chunk id cannot be empty", ErrInvalidVectorEntry)
	}
	if entry.DocumentID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidVectorEntry, ErrEmptyDocumentID)
	}
	if strings.Contains(entry.DocumentID, ":") {
		return fmt.Errorf("%w: document id %q contains reserved character ':'", ErrInvalidVectorEntry, entry.DocumentID)
	}
	if len(entry.Embedding) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidVectorEntry, ErrEmptyEmbedding)
	}
	return nil
}
