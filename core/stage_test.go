package core

import (
	"errors"
	"testing"
)

func TestStage_String(t *testing.T) {
	tests := []struct {
		stage Stage
		want  string
	}{
		{StagePending, "PENDING"},
		{StageConverting, "CONVERTING"},
		{StageChunking, "CHUNKING"},
		{StageEmbedding, "EMBEDDING"},
		{StageStoring, "STORING"},
		{StageComplete, "COMPLETE"},
		{StageCompleteWithWarning, "COMPLETE_WITH_WARNING"},
		{StageError, "ERROR"},
		{Stage(99), "Stage(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.stage.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStage_Terminal(t *testing.T) {
	terminal := []Stage{StageComplete, StageCompleteWithWarning, StageError}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}

	active := []Stage{StagePending, StageConverting, StageChunking, StageEmbedding, StageStoring}
	for _, s := range active {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestStage_CanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Stage
		to   Stage
		want bool
	}{
		{"pending to converting", StagePending, StageConverting, true},
		{"converting to chunking", StageConverting, StageChunking, true},
		{"chunking to embedding", StageChunking, StageEmbedding, true},
		{"embedding to storing", StageEmbedding, StageStoring, true},
		{"storing to complete", StageStoring, StageComplete, true},
		{"storing to warning terminal", StageStoring, StageCompleteWithWarning, true},
		{"any active stage to error", StageChunking, StageError, true},
		{"pending to error", StagePending, StageError, true},
		{"skip a stage", StagePending, StageChunking, false},
		{"backwards", StageEmbedding, StageConverting, false},
		{"out of complete", StageComplete, StageConverting, false},
		{"out of error", StageError, StagePending, false},
		{"error to error", StageError, StageError, false},
		{"unknown target", StagePending, Stage(42), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestParseStage(t *testing.T) {
	for s, name := range stageNames {
		got, err := ParseStage(name)
		if err != nil {
			t.Fatalf("ParseStage(%q) returned error: %v", name, err)
		}
		if got != s {
			t.Errorf("ParseStage(%q) = %v, want %v", name, got, s)
		}
	}

	_, err := ParseStage("bogus")
	if !errors.Is(err, ErrUnknownStage) {
		t.Errorf("ParseStage(bogus) error = %v, want ErrUnknownStage", err)
	}
}

func TestParseErrorKind(t *testing.T) {
	tests := []struct {
		name string
		want ErrorKind
	}{
		{"validation", KindValidation},
		{"transient_io", KindTransientIO},
		{"resource_exhausted", KindResourceExhausted},
		{"consistency", KindConsistency},
		{"something_new", KindTransientIO},
		{"", KindTransientIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseErrorKind(tt.name); got != tt.want {
				t.Errorf("ParseErrorKind(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestErrorKind_Retryable(t *testing.T) {
	if KindValidation.Retryable() {
		t.Error("validation errors must not be retryable")
	}
	if KindConsistency.Retryable() {
		t.Error("consistency errors must not be retryable")
	}
	if !KindTransientIO.Retryable() {
		t.Error("transient io errors must be retryable")
	}
	if !KindResourceExhausted.Retryable() {
		t.Error("resource exhausted errors must be retryable")
	}
}

func TestKindOf(t *testing.T) {
	wrapped := NewPipelineError(KindValidation, StageConverting, errors.New("bad file"))
	if got := KindOf(wrapped); got != KindValidation {
		t.Errorf("KindOf(pipeline error) = %v, want KindValidation", got)
	}

	deep := errors.Join(errors.New("outer"), wrapped)
	if got := KindOf(deep); got != KindValidation {
		t.Errorf("KindOf(joined error) = %v, want KindValidation", got)
	}

	if got := KindOf(errors.New("plain")); got != KindTransientIO {
		t.Errorf("KindOf(plain error) = %v, want KindTransientIO", got)
	}
}
