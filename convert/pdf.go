package convert

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// convertPDF extracts text from a PDF. pdfcpu validates the file and reports
// the page count; pdftotext does the actual extraction.
func (s *Service) convertPDF(ctx context.Context, path string) (*Result, error) {
	if err := api.ValidateFile(path, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	pages, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	s.logger.Debug("extracting pdf text", "pages", pages)

	// "-" sends extracted text to stdout
	out, err := s.runner.Run(ctx, s.pdfToText, "-layout", path, "-")
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(string(out))
	if text == "" {
		return nil, fmt.Errorf("%w: pdf has %d pages but no text layer", ErrNoText, pages)
	}

	return &Result{Text: text}, nil
}
