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

package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tutorstack/corpus/ai"
	"github.com/tutorstack/corpus/core"
	"github.com/tutorstack/corpus/ingest"
	"github.com/tutorstack/corpus/storage"
)

// DefaultTopK is the number of chunks returned when the caller does not ask
// for a specific count.
const DefaultTopK = 10

// Searcher answers similarity queries over the vector store.
type Searcher struct {
	vectors  storage.VectorRepository
	embedder ai.Embedder
	logger   *slog.Logger
	topK     int
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithTopK sets the default result count for queries that do not specify one.
func WithTopK(k int) Option {
	return func(s *Searcher) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSearcher creates a searcher over the given repository and embedder.
func NewSearcher(vectors storage.VectorRepository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if vectors == nil {
		return nil, ErrVectorRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		vectors:  vectors,
		embedder: embedder,
		logger:   slog.Default().With("component", "searcher"),
		topK:     DefaultTopK,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Query describes one retrieval request.
type Query struct {
	// Text is the natural language query. Required.
	Text string

	// TopK caps the number of results. Zero means the searcher default.
	TopK int

	// DocumentIDs limits retrieval to the listed documents.
	DocumentIDs []string

	// Module limits retrieval to chunks tagged with this module code.
	Module string
}

// Retrieve embeds the query text and returns the most similar chunks,
// highest score first. Returns ErrNoMatches when nothing qualifies.
func (s *Searcher) Retrieve(ctx context.Context, query Query) ([]*core.ScoredChunk, error) {
	if strings.TrimSpace(query.Text) == "" {
		return nil, ErrEmptyQuery
	}

	topK := query.TopK
	if topK <= 0 {
		topK = s.topK
	}

	vector, err := s.embedder.EmbedText(ctx, query.Text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	scored, err := s.vectors.Query(ctx, ingest.NormalizeVector(vector), topK, storage.QueryFilter{
		DocumentIDs: query.DocumentIDs,
		Module:      query.Module,
	})
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	if len(scored) == 0 {
		return nil, ErrNoMatches
	}

	s.logger.Debug("retrieval complete", "results", len(scored), "top_k", topK)
	return scored, nil
}

// BuildContext joins retrieved chunks into a single prompt context block.
// Chunks are separated by a source line naming the document they came from.
func BuildContext(scored []*core.ScoredChunk) string {
	if len(scored) == 0 {
		return ""
	}

	var b strings.Builder
	for i, sc := range scored {
		if i > 0 {
			b.WriteString("\n\n")
		}
		name := sc.Chunk.Metadata[core.MetaDocumentName]
		if name == "" {
			name = sc.Chunk.DocumentID
		}
		fmt.Fprintf(&b, "[Source: %s]\n%s", name, sc.Chunk.Text)
	}
	return b.String()
}
