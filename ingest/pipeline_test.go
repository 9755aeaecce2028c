package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorstack/corpus/ai/mock"
	"github.com/tutorstack/corpus/core"
	"github.com/tutorstack/corpus/storage"
	badgerstore "github.com/tutorstack/corpus/storage/badger"
)

func newTestPipeline(t *testing.T, embedder *mock.MockEmbedder, opts ...Option) (*Pipeline, storage.VectorRepository, storage.DocumentRepository) {
	t.Helper()

	vectors, documents, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	pipeline, err := NewPipeline(vectors, documents, embedder, opts...)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	return pipeline, vectors, documents
}

func writeUpload(t *testing.T, name, content string) (string, int64) {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path, int64(len(content))
}

func collectEvents(t *testing.T, events <-chan core.IngestionEvent) []core.IngestionEvent {
	t.Helper()
	var collected []core.IngestionEvent
	timeout := time.After(10 * time.Second)
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return collected
			}
			collected = append(collected, event)
		case <-timeout:
			t.Fatal("timed out waiting for ingestion events")
		}
	}
}

func TestPipeline_IngestTextFile(t *testing.T) {
	pipeline, vectors, documents := newTestPipeline(t, mock.NewMockEmbedder())

	content := "Photosynthesis converts light energy into chemical energy.\n\n" +
		"Chlorophyll absorbs light in the red and blue wavelengths."
	path, size := writeUpload(t, "biology-notes.txt", content)

	events, err := pipeline.Ingest(context.Background(), UploadRequest{
		DocumentID: "doc-bio",
		SourceName: "biology-notes.txt",
		FilePath:   path,
		SizeBytes:  size,
		ModuleCode: "BIO101",
	})
	require.NoError(t, err)

	collected := collectEvents(t, events)
	require.NotEmpty(t, collected)

	terminal := collected[len(collected)-1]
	assert.Equal(t, core.StatusComplete, terminal.Status)
	assert.Equal(t, 100, terminal.Progress)
	assert.Equal(t, "doc-bio", terminal.DocumentID)
	assert.Equal(t, "biology-notes.txt", terminal.Filename)
	assert.Equal(t, "text", terminal.FileType)
	assert.Equal(t, len(content), terminal.TextLength)
	assert.Positive(t, terminal.Chunks)

	// Progress never decreases before the terminal event.
	last := 0
	for _, event := range collected {
		assert.GreaterOrEqual(t, event.Progress, last)
		assert.Equal(t, "doc-bio", event.DocumentID)
		last = event.Progress
	}

	doc, err := documents.GetDocument(context.Background(), "doc-bio")
	require.NoError(t, err)
	assert.Equal(t, core.StageComplete, doc.Stage)
	assert.Equal(t, terminal.Chunks, doc.ChunkCount)

	count, err := vectors.CountByDocument(context.Background(), "doc-bio")
	require.NoError(t, err)
	assert.Equal(t, terminal.Chunks, count)

	chunks, err := vectors.ChunksByDocument(context.Background(), "doc-bio", 0)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Equal(t, "BIO101", chunks[0].Metadata[core.MetaModuleCode])
}

func TestPipeline_StatusSequence(t *testing.T) {
	pipeline, _, _ := newTestPipeline(t, mock.NewMockEmbedder())

	path, size := writeUpload(t, "lecture.md", "# Lecture\n\nSome lecture notes about thermodynamics.")

	events, err := pipeline.Ingest(context.Background(), UploadRequest{
		SourceName: "lecture.md",
		FilePath:   path,
		SizeBytes:  size,
	})
	require.NoError(t, err)

	var statuses []core.Status
	for _, event := range collectEvents(t, events) {
		statuses = append(statuses, event.Status)
	}

	want := []core.Status{
		core.StatusUploading,
		core.StatusDetecting,
		core.StatusConverting,
		core.StatusConversionComplete,
		core.StatusChunking,
		core.StatusChunkingComplete,
		core.StatusEmbedding,
		core.StatusEmbeddingComplete,
		core.StatusStoring,
		core.StatusStoringComplete,
		core.StatusComplete,
	}
	assert.Equal(t, want, statuses)
}

func TestPipeline_GeneratesDocumentID(t *testing.T) {
	pipeline, _, _ := newTestPipeline(t, mock.NewMockEmbedder())

	path, size := writeUpload(t, "notes.txt", "some text worth chunking")

	events, err := pipeline.Ingest(context.Background(), UploadRequest{
		SourceName: "notes.txt",
		FilePath:   path,
		SizeBytes:  size,
	})
	require.NoError(t, err)

	collected := collectEvents(t, events)
	require.NotEmpty(t, collected)
	assert.NotEmpty(t, collected[len(collected)-1].DocumentID)
}

func TestPipeline_EmbeddingFailure(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("embedding service unavailable")
	}

	pipeline, _, documents := newTestPipeline(t, embedder,
		WithRetry(2, time.Millisecond))

	path, size := writeUpload(t, "notes.txt", "text that will fail to embed")

	events, err := pipeline.Ingest(context.Background(), UploadRequest{
		DocumentID: "doc-fail",
		SourceName: "notes.txt",
		FilePath:   path,
		SizeBytes:  size,
	})
	require.NoError(t, err)

	collected := collectEvents(t, events)
	require.NotEmpty(t, collected)

	terminal := collected[len(collected)-1]
	assert.Equal(t, core.StatusError, terminal.Status)
	assert.Equal(t, 0, terminal.Progress)
	assert.Equal(t, core.KindTransientIO, terminal.ErrKind)
	assert.Contains(t, terminal.Message, "embedding service unavailable")

	doc, err := documents.GetDocument(context.Background(), "doc-fail")
	require.NoError(t, err)
	assert.Equal(t, core.StageError, doc.Stage)
	assert.Equal(t, core.StageEmbedding, doc.FailedStage)
	assert.NotEmpty(t, doc.Error)
}

func TestPipeline_UnsupportedFileType(t *testing.T) {
	pipeline, _, documents := newTestPipeline(t, mock.NewMockEmbedder())

	path, size := writeUpload(t, "archive.tar.gz", "binary-ish content")

	events, err := pipeline.Ingest(context.Background(), UploadRequest{
		DocumentID: "doc-unsupported",
		SourceName: "archive.tar.gz",
		FilePath:   path,
		SizeBytes:  size,
	})
	require.NoError(t, err)

	collected := collectEvents(t, events)
	terminal := collected[len(collected)-1]
	assert.Equal(t, core.StatusError, terminal.Status)
	assert.Equal(t, core.KindValidation, terminal.ErrKind)

	doc, err := documents.GetDocument(context.Background(), "doc-unsupported")
	require.NoError(t, err)
	assert.Equal(t, core.StageError, doc.Stage)
}

func TestPipeline_WhitespaceOnlyFile(t *testing.T) {
	pipeline, _, _ := newTestPipeline(t, mock.NewMockEmbedder())

	path, size := writeUpload(t, "blank.txt", "   \n\n\t  \n")

	events, err := pipeline.Ingest(context.Background(), UploadRequest{
		SourceName: "blank.txt",
		FilePath:   path,
		SizeBytes:  size,
	})
	require.NoError(t, err)

	collected := collectEvents(t, events)
	terminal := collected[len(collected)-1]
	assert.Equal(t, core.StatusError, terminal.Status)
	assert.Equal(t, core.KindValidation, terminal.ErrKind)
	assert.Contains(t, terminal.Message, ErrNoChunks.Error())
}

func TestPipeline_PartialStorageWarning(t *testing.T) {
	vectors, documents, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	lossy := &droppingVectorRepository{VectorRepository: vectors}

	pipeline, err := NewPipeline(lossy, documents, mock.NewMockEmbedder())
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	path, size := writeUpload(t, "notes.txt", "text that will be partially stored")

	events, err := pipeline.Ingest(context.Background(), UploadRequest{
		DocumentID: "doc-partial",
		SourceName: "notes.txt",
		FilePath:   path,
		SizeBytes:  size,
	})
	require.NoError(t, err)

	collected := collectEvents(t, events)
	terminal := collected[len(collected)-1]
	assert.Equal(t, core.StatusCompleteWithWarning, terminal.Status)
	assert.Equal(t, 100, terminal.Progress)
	assert.NotEmpty(t, terminal.Message)

	doc, err := documents.GetDocument(context.Background(), "doc-partial")
	require.NoError(t, err)
	assert.Equal(t, core.StageCompleteWithWarning, doc.Stage)
	assert.NotEmpty(t, doc.Warning)
}

func TestPipeline_ReingestReplacesVectors(t *testing.T) {
	pipeline, vectors, documents := newTestPipeline(t, mock.NewMockEmbedder())

	longContent := strings.Repeat("A long paragraph about cellular respiration and the Krebs cycle.\n\n", 40)
	longPath, longSize := writeUpload(t, "notes-v1.txt", longContent)

	events, err := pipeline.Ingest(context.Background(), UploadRequest{
		DocumentID: "doc-re",
		SourceName: "notes-v1.txt",
		FilePath:   longPath,
		SizeBytes:  longSize,
	})
	require.NoError(t, err)

	first := collectEvents(t, events)
	firstChunks := first[len(first)-1].Chunks
	require.Greater(t, firstChunks, 1)

	shortPath, shortSize := writeUpload(t, "notes-v2.txt", "A much shorter revision.")

	// The worker releases the per-id lock just after the event channel
	// closes, so the second ingest may briefly see the document as busy.
	var second <-chan core.IngestionEvent
	deadline := time.Now().Add(5 * time.Second)
	for {
		ch, err := pipeline.Ingest(context.Background(), UploadRequest{
			DocumentID: "doc-re",
			SourceName: "notes-v2.txt",
			FilePath:   shortPath,
			SizeBytes:  shortSize,
		})
		if err == nil {
			second = ch
			break
		}
		require.ErrorIs(t, err, ErrDocumentBusy)
		require.True(t, time.Now().Before(deadline), "document lock never released")
		time.Sleep(10 * time.Millisecond)
	}

	collected := collectEvents(t, second)
	terminal := collected[len(collected)-1]
	assert.Equal(t, core.StatusComplete, terminal.Status)
	assert.Less(t, terminal.Chunks, firstChunks)

	count, err := vectors.CountByDocument(context.Background(), "doc-re")
	require.NoError(t, err)
	assert.Equal(t, terminal.Chunks, count)

	doc, err := documents.GetDocument(context.Background(), "doc-re")
	require.NoError(t, err)
	assert.Equal(t, core.StageComplete, doc.Stage)
	assert.Equal(t, terminal.Chunks, doc.ChunkCount)
	assert.Empty(t, doc.Warning)
}

func TestPipeline_ConcurrentSameDocument(t *testing.T) {
	pipeline, _, _ := newTestPipeline(t, mock.NewMockEmbedder())

	path, size := writeUpload(t, "notes.txt", "some content for a slow-ish ingestion")

	first, err := pipeline.Ingest(context.Background(), UploadRequest{
		DocumentID: "doc-shared",
		SourceName: "notes.txt",
		FilePath:   path,
		SizeBytes:  size,
	})
	require.NoError(t, err)

	_, err = pipeline.Ingest(context.Background(), UploadRequest{
		DocumentID: "doc-shared",
		SourceName: "notes.txt",
		FilePath:   path,
		SizeBytes:  size,
	})
	assert.ErrorIs(t, err, ErrDocumentBusy)

	collectEvents(t, first)
}

func TestPipeline_RequestValidation(t *testing.T) {
	pipeline, _, _ := newTestPipeline(t, mock.NewMockEmbedder())

	_, err := pipeline.Ingest(context.Background(), UploadRequest{
		FilePath:  "/tmp/somewhere",
		SizeBytes: 10,
	})
	assert.ErrorIs(t, err, core.ErrEmptySourceName)

	_, err = pipeline.Ingest(context.Background(), UploadRequest{
		SourceName: "notes.txt",
	})
	assert.ErrorIs(t, err, ErrEmptyUpload)
}

func TestPipeline_ClosedRejectsUploads(t *testing.T) {
	pipeline, _, _ := newTestPipeline(t, mock.NewMockEmbedder())
	pipeline.Release()

	_, err := pipeline.Ingest(context.Background(), UploadRequest{
		SourceName: "notes.txt",
		FilePath:   "/tmp/notes.txt",
		SizeBytes:  10,
	})
	assert.ErrorIs(t, err, ErrPipelineClosed)
}

func TestPipeline_ReleaseDuringIngest(t *testing.T) {
	pipeline, _, _ := newTestPipeline(t, mock.NewMockEmbedder())

	path, size := writeUpload(t, "notes.txt", "content submitted while shutting down")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			events, err := pipeline.Ingest(context.Background(), UploadRequest{
				DocumentID: fmt.Sprintf("doc-race-%d", n),
				SourceName: "notes.txt",
				FilePath:   path,
				SizeBytes:  size,
			})
			if err != nil {
				return
			}
			for range events {
			}
		}(i)
	}
	pipeline.Release()
	wg.Wait()
}

func TestNewPipeline_MissingDependencies(t *testing.T) {
	vectors, documents, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	_, err = NewPipeline(nil, documents, mock.NewMockEmbedder())
	assert.ErrorIs(t, err, ErrVectorRepositoryRequired)

	_, err = NewPipeline(vectors, nil, mock.NewMockEmbedder())
	assert.ErrorIs(t, err, ErrDocumentRepositoryRequired)

	_, err = NewPipeline(vectors, documents, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

// droppingVectorRepository silently drops the last entry of every upsert to
// simulate partial persistence.
type droppingVectorRepository struct {
	storage.VectorRepository
}

func (d *droppingVectorRepository) UpsertEntries(ctx context.Context, entries ...*core.VectorEntry) error {
	if len(entries) > 0 {
		entries = entries[:len(entries)-1]
	}
	return d.VectorRepository.UpsertEntries(ctx, entries...)
}
