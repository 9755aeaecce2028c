package chunk

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/tutorstack/corpus/core"
)

// Defaults match the embedding model's sweet spot: segments small enough to
// embed well, with enough overlap that a sentence split across a boundary
// still lands whole in one chunk.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Chunker splits extracted document text into bounded, overlapping segments.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	counter      *TokenCounter
	logger       *slog.Logger
}

// Option is a functional option for configuring a Chunker.
type Option func(*Chunker)

// WithChunkSize sets the maximum chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		c.chunkSize = size
	}
}

// WithChunkOverlap sets the overlap between adjacent chunks in characters.
func WithChunkOverlap(overlap int) Option {
	return func(c *Chunker) {
		c.chunkOverlap = overlap
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chunker) {
		c.logger = logger
	}
}

// New creates a Chunker with the default size and overlap.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		counter:      NewTokenCounter(),
		logger:       slog.Default().With("component", "chunker"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Split divides text into chunks for the given document. Chunk ids are
// deterministic and indexes are dense and zero-based. Empty or
// whitespace-only text yields zero chunks and no error.
//
// The extra map is merged into every chunk's metadata; use it for fields
// like the module code.
func (c *Chunker) Split(documentID, documentName, text string, extra map[string]string) ([]*core.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(c.chunkSize),
		textsplitter.WithChunkOverlap(c.chunkOverlap),
		textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
	)

	pieces, err := splitter.SplitText(text)
	if err != nil {
		return nil, err
	}

	uploadDate := time.Now().UTC().Format(time.RFC3339)
	total := strconv.Itoa(len(pieces))

	chunks := make([]*core.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		metadata := map[string]string{
			core.MetaDocumentID:   documentID,
			core.MetaDocumentName: documentName,
			core.MetaChunkIndex:   strconv.Itoa(i),
			core.MetaChunkTotal:   total,
			core.MetaUploadDate:   uploadDate,
		}
		for k, v := range extra {
			metadata[k] = v
		}

		chunks = append(chunks, &core.Chunk{
			ID:          core.ChunkID(documentID, i),
			DocumentID:  documentID,
			Index:       i,
			Text:        piece,
			TokenCount:  c.counter.Count(piece),
			ContentHash: core.FingerprintFromContent(piece),
			Metadata:    metadata,
		})
	}

	c.logger.Debug("split document text", "document_id", documentID,
		"chars", len(text), "chunks", len(chunks))
	return chunks, nil
}
