package core

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// Fingerprint is a deterministic 64-bit content hash. Identical text always
// produces the same fingerprint, which is what makes re-ingestion idempotent
// at the chunk level.
type Fingerprint uint64

// FingerprintFromContent hashes text with BLAKE2b into a Fingerprint.
func FingerprintFromContent(text string) Fingerprint {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return Fingerprint(binary.LittleEndian.Uint64(sum))
}

// Document represents one uploaded source file moving through the ingestion
// pipeline. It is created when an upload begins and mutated only by the
// pipeline; deletion is an explicit operation that cascades to all chunks.
type Document struct {
	ID          string
	SourceName  string
	FormatHint  string // file extension or declared type
	FileType    string // detected type class (pdf, audio, text, ...)
	SizeBytes   int64
	Stage       Stage
	FailedStage Stage // stage the pipeline was in when Stage == StageError
	ChunkCount  int
	TextLength  int
	Warning     string // populated for StageCompleteWithWarning
	Error       string // populated for StageError
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Chunk is a bounded segment of a document's extracted text. Chunks are
// immutable once created and destroyed only via document deletion.
type Chunk struct {
	ID          string // deterministic: "<documentID>_chunk_<index>"
	DocumentID  string
	Index       int // dense, zero-based per document
	Text        string
	TokenCount  int
	ContentHash Fingerprint
	Metadata    map[string]string
}

// ChunkID returns the deterministic vector id for a document chunk.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, index)
}

// Metadata keys attached to every chunk.
const (
	MetaDocumentID   = "document_id"
	MetaDocumentName = "document_name"
	MetaChunkIndex   = "chunk_index"
	MetaChunkTotal   = "chunk_total"
	MetaUploadDate   = "upload_date"
	MetaModuleCode   = "module_code"
)

// VectorEntry is the durable record stored per chunk: the embedding plus the
// chunk text and metadata needed to serve retrieval without a second lookup.
// The embedding dimension is constant across the whole store.
type VectorEntry struct {
	ChunkID    string
	DocumentID string
	Index      int
	Text       string
	Embedding  []float32
	Metadata   map[string]string
}

// ScoredChunk is a retrieval result: a chunk and its similarity score.
type ScoredChunk struct {
	Chunk *Chunk
	Score float32
}

// IngestionEvent is one progress record emitted by the pipeline. Events are
// ephemeral: produced and consumed during one upload session, never stored.
type IngestionEvent struct {
	DocumentID string
	Stage      Stage
	Status     Status
	Progress   int // monotonic 0..100 within a document
	Message    string

	// Populated on terminal events only.
	Filename   string
	Chunks     int
	TextLength int
	FileType   string
	ErrKind    ErrorKind
}

// Terminal reports whether the event ends the upload session.
func (e *IngestionEvent) Terminal() bool {
	return e.Status == StatusComplete ||
		e.Status == StatusCompleteWithWarning ||
		e.Status == StatusError
}
