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

package corpus

import (
	"log/slog"

	"github.com/tutorstack/corpus/ai"
	"github.com/tutorstack/corpus/ai/openai"
	"github.com/tutorstack/corpus/ingest"
	"github.com/tutorstack/corpus/search"
	"github.com/tutorstack/corpus/storage"
	"github.com/tutorstack/corpus/storage/badger"
)

// Store owns the storage backend and the AI provider, and hands out the
// pipelines and searchers built on top of them.
type Store struct {
	backend   *badger.Backend
	vectors   storage.VectorRepository
	documents storage.DocumentRepository
	provider  ai.Provider
	logger    *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	aiConfig *ai.Config
	inMemory bool
}

// WithAIConfig overrides the embedding provider configuration.
func WithAIConfig(cfg *ai.Config) StoreOption {
	return func(o *storeOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithInMemoryStorage keeps everything in memory. For tests and throwaway
// environments.
func WithInMemoryStorage() StoreOption {
	return func(o *storeOptions) {
		o.inMemory = true
	}
}

// NewStore opens the vector store at filePath and connects the embedding
// provider.
func NewStore(filePath string, opts ...StoreOption) (*Store, error) {
	options := &storeOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Store{
		backend:   backend,
		vectors:   badger.NewVectorRepository(backend),
		documents: badger.NewDocumentRepository(backend),
		provider:  provider,
		logger:    slog.Default(),
	}, nil
}

func (s *Store) Close() error {
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (s *Store) VectorRepository() storage.VectorRepository {
	return s.vectors
}

func (s *Store) DocumentRepository() storage.DocumentRepository {
	return s.documents
}

func (s *Store) NewIngestionPipeline(opts ...ingest.Option) (*ingest.Pipeline, error) {
	return ingest.NewPipeline(s.vectors, s.documents, s.provider.Embedder(), opts...)
}

func (s *Store) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(s.vectors, s.provider.Embedder(), opts...)
}

func (s *Store) NewVerifier() (*search.Verifier, error) {
	return search.NewVerifier(s.vectors, s.documents)
}
