package ingest

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tutorstack/corpus/ai"
	"github.com/tutorstack/corpus/core"
)

// DefaultBatchSize is the number of chunks sent to the embedding API per
// request. It is also the storage write granularity.
const DefaultBatchSize = 50

// batchEmbedder turns chunk batches into vector entries. Batches run with
// bounded parallelism; results are reassembled in chunk order so entry i
// always belongs to chunk i.
type batchEmbedder struct {
	embedder    ai.Embedder
	batchSize   int
	concurrency int
	maxAttempts int
	baseDelay   time.Duration
}

// embedAll embeds every chunk and returns vector entries aligned with the
// input slice. onBatch is called after each batch completes, with the number
// of chunks embedded so far; it may be nil.
func (b *batchEmbedder) embedAll(ctx context.Context, chunks []*core.Chunk, onBatch func(done int)) ([]*core.VectorEntry, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	entries := make([]*core.VectorEntry, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	var completed atomic.Int64

	for start := 0; start < len(chunks); start += b.batchSize {
		end := min(start+b.batchSize, len(chunks))
		batch := chunks[start:end]
		offset := start

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, chunk := range batch {
				texts[i] = chunk.Text
			}

			var vectors [][]float32
			err := RetryWithBackoff(gctx, func() error {
				var embedErr error
				vectors, embedErr = b.embedder.EmbedTexts(gctx, texts)
				return embedErr
			}, b.maxAttempts, b.baseDelay)
			if err != nil {
				return core.NewPipelineError(core.KindTransientIO, core.StageEmbedding,
					fmt.Errorf("embedding batch at %d: %w", offset, err))
			}
			if len(vectors) != len(batch) {
				return core.NewPipelineError(core.KindConsistency, core.StageEmbedding,
					fmt.Errorf("embedding batch at %d returned %d vectors for %d chunks",
						offset, len(vectors), len(batch)))
			}

			for i, chunk := range batch {
				entries[offset+i] = &core.VectorEntry{
					ChunkID:    chunk.ID,
					DocumentID: chunk.DocumentID,
					Index:      chunk.Index,
					Text:       chunk.Text,
					Embedding:  NormalizeVector(vectors[i]),
					Metadata:   chunk.Metadata,
				}
			}

			if onBatch != nil {
				onBatch(int(completed.Add(int64(len(batch)))))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}
