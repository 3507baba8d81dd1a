package analyses

import "errors"

var (
	// ErrInvalidInput is returned for requests missing the intent or document id.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotAnalyzed is returned when exporting a document that has no analysis yet.
	ErrNotAnalyzed = errors.New("document has not been analyzed")
	// ErrEmptyAnalysis is returned when the model produced no text.
	ErrEmptyAnalysis = errors.New("model returned an empty analysis")
)
