package core

import "fmt"

// Stage identifies where a document is in the ingestion state machine.
//
// The legal transitions are:
//
//	Pending → Converting → Chunking → Embedding → Storing → Complete
//
// with CompleteWithWarning as an alternate terminal from Storing, and Error
// reachable from every non-terminal stage.
type Stage int

const (
	// StagePending means the document has been accepted but processing has
	// not started.
	StagePending Stage = iota + 1
	// StageConverting means raw bytes are being turned into plain text.
	StageConverting
	// StageChunking means extracted text is being split into segments.
	StageChunking
	// StageEmbedding means chunk texts are being embedded in batches.
	StageEmbedding
	// StageStoring means vector entries are being persisted.
	StageStoring
	// StageComplete means ingestion finished and the stored vector count was
	// confirmed to equal the chunk count.
	StageComplete
	// StageCompleteWithWarning means ingestion finished but the stored count
	// could not be confirmed to match the chunk count.
	StageCompleteWithWarning
	// StageError means ingestion failed; FailedStage on the document records
	// where.
	StageError
)

var stageNames = map[Stage]string{
	StagePending:             "PENDING",
	StageConverting:          "CONVERTING",
	StageChunking:            "CHUNKING",
	StageEmbedding:           "EMBEDDING",
	StageStoring:             "STORING",
	StageComplete:            "COMPLETE",
	StageCompleteWithWarning: "COMPLETE_WITH_WARNING",
	StageError:               "ERROR",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Valid reports whether s is a known stage value.
func (s Stage) Valid() bool {
	_, ok := stageNames[s]
	return ok
}

// Terminal reports whether no further transitions are possible from s.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageCompleteWithWarning || s == StageError
}

var stageSuccessors = map[Stage][]Stage{
	StagePending:    {StageConverting},
	StageConverting: {StageChunking},
	StageChunking:   {StageEmbedding},
	StageEmbedding:  {StageStoring},
	StageStoring:    {StageComplete, StageCompleteWithWarning},
}

// CanTransition reports whether moving from s to next is legal. Error is
// reachable from any non-terminal stage.
func (s Stage) CanTransition(next Stage) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s.Terminal() {
		return false
	}
	if next == StageError {
		return true
	}
	for _, succ := range stageSuccessors[s] {
		if succ == next {
			return true
		}
	}
	return false
}

// ParseStage converts a stage name back to its Stage value.
func ParseStage(name string) (Stage, error) {
	for s, n := range stageNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStage, name)
}

// Status is the wire-level status string carried on progress records. Several
// statuses map to one Stage: stages emit an entry status when work starts and
// a milestone status when it finishes.
type Status string

const (
	StatusUploading           Status = "uploading"
	StatusDetecting           Status = "detecting"
	StatusConverting          Status = "converting"
	StatusConversionComplete  Status = "conversion_complete"
	StatusChunking            Status = "chunking"
	StatusChunkingComplete    Status = "chunking_complete"
	StatusEmbedding           Status = "embedding"
	StatusEmbeddingComplete   Status = "embedding_complete"
	StatusStoring             Status = "storing"
	StatusStoringComplete     Status = "storing_complete"
	StatusComplete            Status = "complete"
	StatusCompleteWithWarning Status = "complete_with_warning"
	StatusError               Status = "error"
)
