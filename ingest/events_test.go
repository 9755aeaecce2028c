package ingest

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorstack/corpus/ai/mock"
	"github.com/tutorstack/corpus/core"
)

func TestEmitter_DropsUnderBackpressure(t *testing.T) {
	e := newEmitter("doc-1", 3, slog.Default())

	// Nobody is draining. Two slots are usable, one is reserved.
	for i := 0; i < 5; i++ {
		e.progress(core.StagePending, core.StatusUploading, 5, "hello")
	}
	assert.Equal(t, 3, e.dropped)

	// The terminal event must still go through without blocking.
	e.terminal(core.IngestionEvent{Stage: core.StageComplete, Status: core.StatusComplete, Progress: 100})

	var got []core.IngestionEvent
	for event := range e.events() {
		got = append(got, event)
	}
	require.Len(t, got, 3)
	assert.Equal(t, core.StatusComplete, got[2].Status)
	assert.Equal(t, "doc-1", got[2].DocumentID)
}

func TestEmitter_TerminalClosesChannel(t *testing.T) {
	e := newEmitter("doc-2", 8, slog.Default())
	e.terminal(core.IngestionEvent{Stage: core.StageError, Status: core.StatusError})

	event, ok := <-e.events()
	require.True(t, ok)
	assert.Equal(t, core.StatusError, event.Status)

	_, ok = <-e.events()
	assert.False(t, ok)
}

func TestBatchEmbedder_PreservesChunkOrder(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.Dimension = 8

	chunks := make([]*core.Chunk, 23)
	for i := range chunks {
		chunks[i] = &core.Chunk{
			ID:         core.ChunkID("doc-order", i),
			DocumentID: "doc-order",
			Index:      i,
			Text:       "chunk number " + string(rune('a'+i%26)),
		}
	}

	be := &batchEmbedder{
		embedder:    embedder,
		batchSize:   5,
		concurrency: 4,
		maxAttempts: 1,
	}

	entries, err := be.embedAll(context.Background(), chunks, nil)
	require.NoError(t, err)
	require.Len(t, entries, len(chunks))

	for i, entry := range entries {
		assert.Equal(t, chunks[i].ID, entry.ChunkID)
		assert.Equal(t, i, entry.Index)
		assert.Len(t, entry.Embedding, 8)
	}
}

func TestBatchEmbedder_ReportsProgress(t *testing.T) {
	be := &batchEmbedder{
		embedder:    mock.NewMockEmbedder(),
		batchSize:   10,
		concurrency: 1,
		maxAttempts: 1,
	}

	chunks := make([]*core.Chunk, 25)
	for i := range chunks {
		chunks[i] = &core.Chunk{
			ID:         core.ChunkID("doc-progress", i),
			DocumentID: "doc-progress",
			Index:      i,
			Text:       "text",
		}
	}

	var reports []int
	_, err := be.embedAll(context.Background(), chunks, func(done int) {
		reports = append(reports, done)
	})
	require.NoError(t, err)

	require.Len(t, reports, 3)
	assert.Equal(t, 25, reports[len(reports)-1])
}

func TestBatchEmbedder_VectorCountMismatch(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 0}}, nil
	}

	be := &batchEmbedder{
		embedder:    embedder,
		batchSize:   5,
		concurrency: 1,
		maxAttempts: 1,
	}

	chunks := []*core.Chunk{
		{ID: "a_chunk_0", DocumentID: "a", Index: 0, Text: "one"},
		{ID: "a_chunk_1", DocumentID: "a", Index: 1, Text: "two"},
	}

	_, err := be.embedAll(context.Background(), chunks, nil)
	require.Error(t, err)
	assert.Equal(t, core.KindConsistency, core.KindOf(err))
}

func TestBatchEmbedder_EmptyInput(t *testing.T) {
	be := &batchEmbedder{embedder: mock.NewMockEmbedder(), batchSize: 5, concurrency: 1, maxAttempts: 1}
	entries, err := be.embedAll(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Nil(t, entries)
}
