// Copyright 2026 Tutorstack Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"errors"
	"fmt"
)

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidVectorEntry indicates a VectorEntry failed validation.
	ErrInvalidVectorEntry = errors.New("invalid vector entry")

	// ErrEmptyDocumentID indicates a missing document identifier.
	ErrEmptyDocumentID = errors.New("document id cannot be empty")

	// ErrEmptySourceName indicates a missing source file name.
	ErrEmptySourceName = errors.New("source name cannot be empty")

	// ErrEmptyEmbedding indicates a vector entry with no embedding.
	ErrEmptyEmbedding = errors.New("embedding cannot be empty")

	// ErrUnknownStage indicates an unrecognized stage name.
	ErrUnknownStage = errors.New("unknown stage")

	// ErrStageTransition indicates an illegal state-machine transition.
	ErrStageTransition = errors.New("illegal stage transition")
)

// ErrorKind classifies a pipeline failure for retry decisions. Only
// TransientIO and ResourceExhausted failures are worth retrying; Validation
// and Consistency failures will fail the same way every time.
type ErrorKind int

const (
	// KindValidation marks unsupported or corrupt input. Never retried.
	KindValidation ErrorKind = iota + 1
	// KindTransientIO marks network or storage hiccups. Retried with backoff.
	KindTransientIO
	// KindResourceExhausted marks memory pressure during conversion or
	// embedding. Retried after degrading (smaller batch or model).
	KindResourceExhausted
	// KindConsistency marks a chunk-count/vector-count divergence. Surfaced
	// as a warning, never retried.
	KindConsistency
)

var kindNames = map[ErrorKind]string{
	KindValidation:        "validation",
	KindTransientIO:       "transient_io",
	KindResourceExhausted: "resource_exhausted",
	KindConsistency:       "consistency",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Retryable reports whether failures of this kind may succeed on retry.
func (k ErrorKind) Retryable() bool {
	return k == KindTransientIO || k == KindResourceExhausted
}

// ParseErrorKind converts a wire kind string back to its ErrorKind. Unknown
// strings map to KindTransientIO so that an unclassified server error stays
// retryable.
func ParseErrorKind(name string) ErrorKind {
	for k, n := range kindNames {
		if n == name {
			return k
		}
	}
	return KindTransientIO
}

// PipelineError wraps a stage failure with its classification.
type PipelineError struct {
	Kind  ErrorKind
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Stage, e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError classifies err as kind at the given stage.
func NewPipelineError(kind ErrorKind, stage Stage, err error) *PipelineError {
	return &PipelineError{Kind: kind, Stage: stage, Err: err}
}

// KindOf extracts the classification from err. Unclassified errors default to
// KindTransientIO, keeping them retryable.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindTransientIO
}
