package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Default external tool names. Overridable for nonstandard installs.
const (
	defaultFFmpeg      = "ffmpeg"
	defaultWhisper     = "whisper-cli"
	defaultTesseract   = "tesseract"
	defaultLibreOffice = "libreoffice"
	defaultPDFToText   = "pdftotext"
)

// Result is the outcome of converting one file to text.
type Result struct {
	// Text is the extracted plain text.
	Text string

	// FileType is the detected type class (pdf, audio, text, ...).
	FileType string

	// Placeholder is true when real extraction was impossible and Text is a
	// descriptive stand-in (legacy Office formats without LibreOffice).
	Placeholder bool
}

// Service converts uploaded files to plain text.
type Service struct {
	runner       CommandRunner
	logger       *slog.Logger
	whisperModel string
	vadModel     string

	ffmpeg      string
	whisper     string
	tesseract   string
	libreOffice string
	pdfToText   string
}

// Option is a functional option for configuring a Service.
type Option func(*Service)

// WithRunner sets the external tool runner.
func WithRunner(runner CommandRunner) Option {
	return func(s *Service) {
		s.runner = runner
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithWhisperModel sets the path to the whisper model file used for
// transcription.
func WithWhisperModel(path string) Option {
	return func(s *Service) {
		s.whisperModel = path
	}
}

// WithVADModel sets the path to the voice activity detection model whisper
// uses to skip silent segments.
func WithVADModel(path string) Option {
	return func(s *Service) {
		s.vadModel = path
	}
}

// NewService creates a converter service.
func NewService(opts ...Option) *Service {
	s := &Service{
		runner:       NewExecRunner(),
		logger:       slog.Default().With("component", "converter"),
		whisperModel: "models/ggml-tiny.en.bin",
		vadModel:     "models/ggml-silero-v5.1.2.bin",
		ffmpeg:       defaultFFmpeg,
		whisper:      defaultWhisper,
		tesseract:    defaultTesseract,
		libreOffice:  defaultLibreOffice,
		pdfToText:    defaultPDFToText,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Convert extracts plain text from the file at path. The source name carries
// the original upload filename; its extension decides the extraction path.
func (s *Service) Convert(ctx context.Context, path, sourceName string) (*Result, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	fileType, err := DetectFileType(sourceName)
	if err != nil {
		return nil, err
	}

	s.logger.Info("converting file", "name", sourceName, "type", fileType)

	var result *Result
	switch fileType {
	case TypeAudio:
		result, err = s.convertAudio(ctx, path)
	case TypeVideo:
		result, err = s.convertVideo(ctx, path)
	case TypePDF:
		result, err = s.convertPDF(ctx, path)
	case TypePresentation:
		result, err = s.convertPresentation(ctx, path, sourceName)
	case TypeWord:
		result, err = s.convertWord(ctx, path, sourceName)
	case TypeSpreadsheet:
		result, err = s.convertSpreadsheet(ctx, path, sourceName)
	case TypeCode:
		result, err = s.convertCode(path, sourceName)
	case TypeImage:
		result, err = s.convertImage(ctx, path)
	case TypeText:
		result, err = s.convertText(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, fileType)
	}

	if err != nil {
		s.logger.Error("conversion failed", "name", sourceName, "type", fileType, "err", err)
		return nil, err
	}

	result.FileType = fileType
	s.logger.Info("conversion done", "name", sourceName, "type", fileType,
		"chars", len(result.Text), "placeholder", result.Placeholder)
	return result, nil
}
