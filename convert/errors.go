package convert

import "errors"

var (
	// ErrUnsupportedType indicates a file extension no converter handles.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrNoText indicates conversion ran but produced no usable text.
	ErrNoText = errors.New("no extractable text")

	// ErrInvalidFile indicates the file content does not match its format.
	ErrInvalidFile = errors.New("invalid file content")

	// ErrToolFailed indicates an external conversion tool failed.
	ErrToolFailed = errors.New("conversion tool failed")
)
