package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/tutorstack/corpus/ai"
	"github.com/tutorstack/corpus/chunk"
	"github.com/tutorstack/corpus/convert"
	"github.com/tutorstack/corpus/core"
	"github.com/tutorstack/corpus/storage"
)

// Pipeline drives documents through the ingestion state machine:
//
//	Pending → Converting → Chunking → Embedding → Storing → terminal
//
// Each upload runs on a worker from a shared pool; progress is streamed
// through a per-session event channel. A failure at any stage moves the
// document to the Error terminal with the failing stage recorded.
type Pipeline struct {
	vectors   storage.VectorRepository
	documents storage.DocumentRepository
	embedder  ai.Embedder
	converter *convert.Service
	chunker   *chunk.Chunker

	pool        *ants.Pool
	locks       *documentLocks
	logger      *slog.Logger
	batchSize   int
	concurrency int
	maxAttempts int
	baseDelay   time.Duration
	eventBuffer int
	closed      atomic.Bool
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent document ingestions.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithConverter sets the file converter.
func WithConverter(converter *convert.Service) Option {
	return func(p *Pipeline) error {
		p.converter = converter
		return nil
	}
}

// WithChunker sets the text chunker.
func WithChunker(chunker *chunk.Chunker) Option {
	return func(p *Pipeline) error {
		p.chunker = chunker
		return nil
	}
}

// WithBatchSize sets the embedding and storage batch size.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithEmbedConcurrency bounds how many embedding batches run in parallel.
func WithEmbedConcurrency(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			n = 1
		}
		p.concurrency = n
		return nil
	}
}

// WithRetry configures per-batch retry behavior for the embedding API.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts < 1 {
			return ErrInvalidMaxAttempts
		}
		p.maxAttempts = maxAttempts
		p.baseDelay = baseDelay
		return nil
	}
}

// WithEventBuffer sets the per-session event channel capacity.
func WithEventBuffer(size int) Option {
	return func(p *Pipeline) error {
		if size < 2 {
			size = 2
		}
		p.eventBuffer = size
		return nil
	}
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(
	vectors storage.VectorRepository,
	documents storage.DocumentRepository,
	embedder ai.Embedder,
	opts ...Option,
) (*Pipeline, error) {
	if vectors == nil {
		return nil, ErrVectorRepositoryRequired
	}
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		vectors:     vectors,
		documents:   documents,
		embedder:    embedder,
		converter:   convert.NewService(),
		chunker:     chunk.New(),
		pool:        pool,
		locks:       newDocumentLocks(),
		logger:      slog.Default().With("component", "ingest-pipeline"),
		batchSize:   DefaultBatchSize,
		concurrency: 4,
		maxAttempts: 3,
		baseDelay:   time.Second,
		eventBuffer: 64,
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// UploadRequest describes one file to ingest.
type UploadRequest struct {
	// DocumentID identifies the document; a fresh UUID is generated when
	// empty. Re-using an id replaces the previous ingestion's vectors.
	DocumentID string

	// SourceName is the original upload filename. Its extension drives file
	// type detection.
	SourceName string

	// FilePath points at the uploaded bytes on local disk.
	FilePath string

	// SizeBytes is the upload size, recorded on the document.
	SizeBytes int64

	// ModuleCode optionally tags every chunk with a course module.
	ModuleCode string
}

// Ingest validates the request, registers the document, and starts the
// pipeline on a pool worker. The returned channel streams progress events
// and closes after the terminal event; consumers must drain it.
//
// The passed context covers validation only. The ingestion itself runs
// detached so a disconnected client does not abort a half-done upload.
func (p *Pipeline) Ingest(ctx context.Context, req UploadRequest) (<-chan core.IngestionEvent, error) {
	if p.closed.Load() {
		return nil, ErrPipelineClosed
	}
	if req.SourceName == "" {
		return nil, core.ErrEmptySourceName
	}
	if req.FilePath == "" || req.SizeBytes == 0 {
		return nil, ErrEmptyUpload
	}
	if req.DocumentID == "" {
		req.DocumentID = uuid.New().String()
	}

	if !p.locks.acquire(req.DocumentID) {
		return nil, fmt.Errorf("%w: %s", ErrDocumentBusy, req.DocumentID)
	}

	doc := &core.Document{
		ID:         req.DocumentID,
		SourceName: req.SourceName,
		FormatHint: req.SourceName,
		SizeBytes:  req.SizeBytes,
		Stage:      core.StagePending,
	}
	if err := p.documents.PutDocument(ctx, doc); err != nil {
		p.locks.release(req.DocumentID)
		return nil, err
	}

	emitter := newEmitter(req.DocumentID, p.eventBuffer, p.logger)

	err := p.pool.Submit(func() {
		defer p.locks.release(req.DocumentID)
		p.run(context.Background(), req, doc, emitter)
	})
	if err != nil {
		p.locks.release(req.DocumentID)
		return nil, err
	}

	return emitter.events(), nil
}

// run executes the full state machine for one document.
func (p *Pipeline) run(ctx context.Context, req UploadRequest, doc *core.Document, emitter *emitter) {
	logger := p.logger.With("document_id", doc.ID, "name", req.SourceName)
	logger.Info("ingestion started", "size_bytes", req.SizeBytes)

	emitter.progress(core.StagePending, core.StatusUploading, progressUploading,
		fmt.Sprintf("Received %s", req.SourceName))

	// Detection
	emitter.progress(core.StagePending, core.StatusDetecting, progressDetecting, "Detecting file type")
	fileType, err := convert.DetectFileType(req.SourceName)
	if err != nil {
		p.fail(ctx, doc, core.StageConverting, err, emitter, logger)
		return
	}
	doc.FileType = fileType

	// Conversion
	if !p.advance(ctx, doc, core.StageConverting, emitter, logger) {
		return
	}
	emitter.progress(core.StageConverting, core.StatusConverting, progressConverting,
		fmt.Sprintf("Converting %s file to text", fileType))

	result, err := p.converter.Convert(ctx, req.FilePath, req.SourceName)
	if err != nil {
		p.fail(ctx, doc, core.StageConverting, err, emitter, logger)
		return
	}
	doc.TextLength = len(result.Text)
	if result.Placeholder {
		doc.Warning = "conversion produced placeholder text only"
	}
	emitter.progress(core.StageConverting, core.StatusConversionComplete, progressConversionComplete,
		fmt.Sprintf("Extracted %d characters", doc.TextLength))

	// Chunking
	if !p.advance(ctx, doc, core.StageChunking, emitter, logger) {
		return
	}
	emitter.progress(core.StageChunking, core.StatusChunking, progressChunking, "Splitting text into chunks")

	var extra map[string]string
	if req.ModuleCode != "" {
		extra = map[string]string{core.MetaModuleCode: req.ModuleCode}
	}
	chunks, err := p.chunker.Split(doc.ID, req.SourceName, result.Text, extra)
	if err != nil {
		p.fail(ctx, doc, core.StageChunking, err, emitter, logger)
		return
	}
	if len(chunks) == 0 {
		p.fail(ctx, doc, core.StageChunking,
			core.NewPipelineError(core.KindValidation, core.StageChunking, ErrNoChunks),
			emitter, logger)
		return
	}
	doc.ChunkCount = len(chunks)
	emitter.progress(core.StageChunking, core.StatusChunkingComplete, progressChunkingComplete,
		fmt.Sprintf("Created %d chunks", len(chunks)))

	// Embedding
	if !p.advance(ctx, doc, core.StageEmbedding, emitter, logger) {
		return
	}
	emitter.progress(core.StageEmbedding, core.StatusEmbedding, progressEmbedding,
		fmt.Sprintf("Embedding %d chunks in batches of %d", len(chunks), p.batchSize))

	be := &batchEmbedder{
		embedder:    p.embedder,
		batchSize:   p.batchSize,
		concurrency: p.concurrency,
		maxAttempts: p.maxAttempts,
		baseDelay:   p.baseDelay,
	}
	entries, err := be.embedAll(ctx, chunks, func(done int) {
		logger.Debug("embedding progress", "done", done, "total", len(chunks))
	})
	if err != nil {
		p.fail(ctx, doc, core.StageEmbedding, err, emitter, logger)
		return
	}
	emitter.progress(core.StageEmbedding, core.StatusEmbeddingComplete, progressEmbeddingComplete,
		"Embeddings generated")

	// Storage. Entries go in batch-sized transactions; a failure here leaves
	// earlier batches in place for inspection until the next ingestion of the
	// same id clears them.
	if !p.advance(ctx, doc, core.StageStoring, emitter, logger) {
		return
	}
	emitter.progress(core.StageStoring, core.StatusStoring, progressStoring, "Persisting vectors")

	// A re-ingestion under an existing id replaces the old vectors wholesale;
	// without the delete, a shorter document would leave stale high-index
	// entries queryable.
	if _, err := p.vectors.DeleteByDocument(ctx, doc.ID); err != nil {
		p.fail(ctx, doc, core.StageStoring,
			core.NewPipelineError(core.KindTransientIO, core.StageStoring, err),
			emitter, logger)
		return
	}

	for start := 0; start < len(entries); start += p.batchSize {
		end := min(start+p.batchSize, len(entries))
		if err := p.vectors.UpsertEntries(ctx, entries[start:end]...); err != nil {
			p.fail(ctx, doc, core.StageStoring,
				core.NewPipelineError(core.KindTransientIO, core.StageStoring, err),
				emitter, logger)
			return
		}
	}
	emitter.progress(core.StageStoring, core.StatusStoringComplete, progressStoringComplete,
		"Vectors persisted")

	// Verify persistence before declaring success.
	stored, err := p.vectors.CountByDocument(ctx, doc.ID)
	warning := doc.Warning
	switch {
	case err != nil:
		warning = fmt.Sprintf("persistence check failed: %v", err)
	case stored != len(chunks):
		warning = fmt.Sprintf("stored %d of %d vectors", stored, len(chunks))
	}

	terminal := core.IngestionEvent{
		Stage:      core.StageComplete,
		Status:     core.StatusComplete,
		Progress:   progressComplete,
		Filename:   req.SourceName,
		Chunks:     len(chunks),
		TextLength: doc.TextLength,
		FileType:   doc.FileType,
	}

	if warning != "" {
		doc.Stage = core.StageCompleteWithWarning
		doc.Warning = warning
		terminal.Stage = core.StageCompleteWithWarning
		terminal.Status = core.StatusCompleteWithWarning
		terminal.Message = warning
		logger.Warn("ingestion finished with warning", "warning", warning)
	} else {
		doc.Stage = core.StageComplete
		logger.Info("ingestion complete", "chunks", len(chunks), "text_length", doc.TextLength)
	}

	if err := p.documents.PutDocument(ctx, doc); err != nil {
		logger.Error("failed to persist terminal document state", "err", err)
	}
	emitter.terminal(terminal)
}

// advance transitions the document to the next stage and persists it.
// Returns false (after failing the ingestion) if the transition is illegal
// or the write fails.
func (p *Pipeline) advance(ctx context.Context, doc *core.Document, next core.Stage, emitter *emitter, logger *slog.Logger) bool {
	if !doc.Stage.CanTransition(next) {
		err := fmt.Errorf("%w: %s to %s", core.ErrStageTransition, doc.Stage, next)
		p.fail(ctx, doc, next, core.NewPipelineError(core.KindValidation, next, err), emitter, logger)
		return false
	}
	doc.Stage = next
	if err := p.documents.PutDocument(ctx, doc); err != nil {
		p.fail(ctx, doc, next, err, emitter, logger)
		return false
	}
	return true
}

// fail moves the document to the Error terminal and emits the error event.
func (p *Pipeline) fail(ctx context.Context, doc *core.Document, at core.Stage, err error, emitter *emitter, logger *slog.Logger) {
	kind := classify(err)
	logger.Error("ingestion failed", "stage", at, "kind", kind, "err", err)

	doc.Stage = core.StageError
	doc.FailedStage = at
	doc.Error = err.Error()
	if putErr := p.documents.PutDocument(ctx, doc); putErr != nil {
		logger.Error("failed to persist error state", "err", putErr)
	}

	emitter.terminal(core.IngestionEvent{
		Stage:    core.StageError,
		Status:   core.StatusError,
		Progress: 0,
		Message:  err.Error(),
		Filename: doc.SourceName,
		FileType: doc.FileType,
		ErrKind:  kind,
	})
}

// classify maps an error to its retry classification. Converter validation
// failures are permanent; everything unclassified counts as transient.
func classify(err error) core.ErrorKind {
	switch {
	case errors.Is(err, convert.ErrUnsupportedType),
		errors.Is(err, convert.ErrNoText),
		errors.Is(err, convert.ErrInvalidFile):
		return core.KindValidation
	default:
		return core.KindOf(err)
	}
}

// Release shuts down the worker pool. In-flight ingestions finish first.
func (p *Pipeline) Release() {
	p.closed.Store(true)
	if p.pool != nil {
		p.pool.Release()
	}
}
