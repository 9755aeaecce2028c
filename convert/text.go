package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// convertText reads a plain text file as-is.
func (s *Service) convertText(path string) (*Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: not valid utf-8", ErrInvalidFile)
	}
	return &Result{Text: string(content)}, nil
}

// convertCode reads a source file and prepends a small metadata header so
// retrieval hits can be traced back to the file.
func (s *Service) convertCode(path, sourceName string) (*Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: not valid utf-8", ErrInvalidFile)
	}

	text := string(content)
	header := fmt.Sprintf("File: %s\nType: %s\nLines: %d\n%s\n\n",
		filepath.Base(sourceName),
		filepath.Ext(sourceName),
		len(strings.Split(text, "\n")),
		strings.Repeat("=", 50))

	return &Result{Text: header + text}, nil
}
