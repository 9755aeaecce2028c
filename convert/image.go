package convert

import (
	"context"
	"strings"
)

// convertImage runs OCR over an image. An image with no recognizable text is
// not an error; the stand-in line keeps the document ingestible.
func (s *Service) convertImage(ctx context.Context, path string) (*Result, error) {
	out, err := s.runner.Run(ctx, s.tesseract, path, "stdout")
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(string(out))
	if text == "" {
		return &Result{Text: "No text detected in image", Placeholder: true}, nil
	}

	return &Result{Text: text}, nil
}
