package badger

import (
	"context"
	"errors"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/tutorstack/corpus/core"
	"github.com/tutorstack/corpus/storage"
)

// VectorRepository implements storage.VectorRepository for BadgerDB.
type VectorRepository struct {
	backend *Backend
}

var _ storage.VectorRepository = (*VectorRepository)(nil)

// NewVectorRepository creates a new VectorRepository.
func NewVectorRepository(backend *Backend) *VectorRepository {
	return &VectorRepository{backend: backend}
}

// Close is a no-op; the backend owns the database handle.
func (r *VectorRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *VectorRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// UpsertEntries writes one or more vector entries in a single transaction.
// Either all entries become visible or none do.
func (r *VectorRepository) UpsertEntries(ctx context.Context, entries ...*core.VectorEntry) error {
	for _, entry := range entries {
		if err := core.ValidateVectorEntry(entry); err != nil {
			return err
		}
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, entry := range entries {
			key := makeVectorKey(entry.ChunkID)
			if err := tx.Set(key, storage.MarshalVectorEntry(entry)); err != nil {
				return err
			}

			indexKey := makeVectorIndexKey(entry.DocumentID, entry.Index)
			if err := tx.Set(indexKey, []byte(entry.ChunkID)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetEntry retrieves a single vector entry by chunk id.
func (r *VectorRepository) GetEntry(ctx context.Context, chunkID string) (*core.VectorEntry, error) {
	var entry *core.VectorEntry

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		entry, err = readVectorEntry(tx, makeVectorKey(chunkID))
		if err != nil {
			return err
		}
		if entry == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Query finds entries similar to the given vector. Scans the vector record
// prefix and scores each candidate with a dot product; embeddings are stored
// normalized so this equals cosine similarity.
func (r *VectorRepository) Query(ctx context.Context, vector []float32, limit int, filter storage.QueryFilter) ([]*core.ScoredChunk, error) {
	if len(vector) == 0 {
		return nil, storage.ErrInvalidQuery
	}
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var wantDocs map[string]struct{}
	if len(filter.DocumentIDs) > 0 {
		wantDocs = make(map[string]struct{}, len(filter.DocumentIDs))
		for _, id := range filter.DocumentIDs {
			wantDocs[id] = struct{}{}
		}
	}

	var results []*core.ScoredChunk

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(vectorRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var entry *core.VectorEntry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalVectorEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			if entry == nil || len(entry.Embedding) == 0 {
				continue
			}

			if wantDocs != nil {
				if _, ok := wantDocs[entry.DocumentID]; !ok {
					continue
				}
			}
			if filter.Module != "" && entry.Metadata[core.MetaModuleCode] != filter.Module {
				continue
			}

			results = append(results, &core.ScoredChunk{
				Chunk: chunkFromEntry(entry),
				Score: dotProduct(vector, entry.Embedding),
			})
		}

		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b *core.ScoredChunk) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// CountByDocument returns the number of entries stored for a document.
func (r *VectorRepository) CountByDocument(ctx context.Context, documentID string) (int, error) {
	count := 0

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialVectorIndexKey(documentID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)

	if err != nil {
		return 0, err
	}
	return count, nil
}

// ChunksByDocument retrieves a document's chunks ordered by index.
// The index keys sort by chunk index, so iteration order is chunk order.
func (r *VectorRepository) ChunksByDocument(ctx context.Context, documentID string, limit int) ([]*core.Chunk, error) {
	var chunks []*core.Chunk

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialVectorIndexKey(documentID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if limit > 0 && len(chunks) >= limit {
				break
			}

			var chunkID string
			err := iter.Item().Value(func(val []byte) error {
				chunkID = string(val)
				return nil
			})
			if err != nil {
				return err
			}

			entry, err := readVectorEntry(tx, makeVectorKey(chunkID))
			if err != nil {
				return err
			}
			if entry == nil {
				// Index key without a record means a torn write; skip it.
				continue
			}
			chunks = append(chunks, chunkFromEntry(entry))
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// DeleteByDocument removes all entries belonging to a document.
func (r *VectorRepository) DeleteByDocument(ctx context.Context, documentID string) (int, error) {
	deleted := 0

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialVectorIndexKey(documentID)
		iter := tx.NewIterator(opts)

		type pair struct {
			indexKey []byte
			chunkID  string
		}
		var pairs []pair

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			var chunkID string
			err := item.Value(func(val []byte) error {
				chunkID = string(val)
				return nil
			})
			if err != nil {
				iter.Close()
				return err
			}
			pairs = append(pairs, pair{indexKey: item.KeyCopy(nil), chunkID: chunkID})
		}
		iter.Close()

		for _, p := range pairs {
			if err := tx.Delete(makeVectorKey(p.chunkID)); err != nil {
				return err
			}
			if err := tx.Delete(p.indexKey); err != nil {
				return err
			}
			deleted++
		}

		return tx.Commit()
	}, true)

	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// readVectorEntry reads and deserializes a vector entry within a transaction.
// Returns nil (no error) if the key doesn't exist.
func readVectorEntry(tx *badger.Txn, key []byte) (*core.VectorEntry, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var entry *core.VectorEntry
	err = item.Value(func(val []byte) error {
		var err error
		entry, err = storage.UnmarshalVectorEntry(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// chunkFromEntry rebuilds the chunk view of a stored vector entry.
func chunkFromEntry(entry *core.VectorEntry) *core.Chunk {
	return &core.Chunk{
		ID:          entry.ChunkID,
		DocumentID:  entry.DocumentID,
		Index:       entry.Index,
		Text:        entry.Text,
		ContentHash: core.FingerprintFromContent(entry.Text),
		Metadata:    entry.Metadata,
	}
}
