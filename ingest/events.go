package ingest

import (
	"log/slog"

	"github.com/tutorstack/corpus/core"
)

// Wire progress percentages. Each stage emits an entry status when work
// starts and a milestone status when it finishes; the sequence is strictly
// increasing within one ingestion.
const (
	progressUploading          = 5
	progressDetecting          = 10
	progressConverting         = 15
	progressConversionComplete = 50
	progressChunking           = 60
	progressChunkingComplete   = 70
	progressEmbedding          = 75
	progressEmbeddingComplete  = 85
	progressStoring            = 90
	progressStoringComplete    = 95
	progressComplete           = 100
)

// emitter delivers progress events to the upload session's channel.
//
// Non-terminal events are advisory: when the consumer falls behind and the
// buffer fills, they are dropped rather than stalling the pipeline. The
// terminal event is always delivered; consumers must drain the channel until
// it closes.
type emitter struct {
	documentID string
	ch         chan core.IngestionEvent
	logger     *slog.Logger
	dropped    int
}

func newEmitter(documentID string, buffer int, logger *slog.Logger) *emitter {
	if buffer < 1 {
		buffer = 1
	}
	return &emitter{
		documentID: documentID,
		ch:         make(chan core.IngestionEvent, buffer),
		logger:     logger,
	}
}

// events returns the consumer side of the channel.
func (e *emitter) events() <-chan core.IngestionEvent {
	return e.ch
}

// progress emits a non-terminal event, dropping it under backpressure.
// One buffer slot is always kept free for the terminal event. Events are
// sent from a single pipeline goroutine, so the capacity check cannot race
// with another producer.
func (e *emitter) progress(stage core.Stage, status core.Status, progress int, message string) {
	event := core.IngestionEvent{
		DocumentID: e.documentID,
		Stage:      stage,
		Status:     status,
		Progress:   progress,
		Message:    message,
	}

	if len(e.ch) < cap(e.ch)-1 {
		e.ch <- event
		return
	}

	e.dropped++
	e.logger.Debug("progress event dropped", "document_id", e.documentID,
		"status", status, "dropped_total", e.dropped)
}

// terminal emits the final event and closes the channel. The reserved buffer
// slot guarantees the send never blocks, even when the consumer is gone.
func (e *emitter) terminal(event core.IngestionEvent) {
	event.DocumentID = e.documentID
	e.ch <- event
	close(e.ch)
}
