package payments

import "errors"

var (
	// ErrNotFound is returned when no payment or intent exists for an id.
	ErrNotFound = errors.New("payment not found")
	// ErrInvalidInput is returned for missing intent or document ids.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotSucceeded is returned when the intent has not been paid.
	ErrNotSucceeded = errors.New("payment not completed")
	// ErrDocumentMismatch is returned when an intent was created for another document.
	ErrDocumentMismatch = errors.New("payment does not belong to document")
	// ErrDuplicate is returned by repos when the provider payment id is already recorded.
	ErrDuplicate = errors.New("payment already recorded")
)
