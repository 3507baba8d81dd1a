package documents

import "errors"

var (
	// ErrNotFound is returned when a document does not exist or was deleted.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidInput is returned for missing files, names or unsupported types.
	ErrInvalidInput = errors.New("invalid input")
	// ErrTooLarge is returned when an upload exceeds the size limit.
	ErrTooLarge = errors.New("file too large")
	// ErrProcessing is returned when a stored file cannot be read as a document.
	ErrProcessing = errors.New("document processing failed")
)
