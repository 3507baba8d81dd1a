package workflow

import (
	"errors"
	"fmt"
)

// Kind classifies a workflow failure.
type Kind string

const (
	KindValidation          Kind = "validation_error"
	KindUpload              Kind = "upload_error"
	KindPaymentProvider     Kind = "payment_provider_error"
	KindPaymentNotification Kind = "payment_notification_error"
)

// Error is returned by controller operations that fail a step. Message is the text
// surfaced to the user.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a workflow Error of kind k.
func IsKind(err error, k Kind) bool {
	var we *Error
	return errors.As(err, &we) && we.Kind == k
}

var (
	// ErrBusy is returned when a file arrives while another upload or payment is running.
	ErrBusy = errors.New("operation already in progress")
	// ErrInvalidState is returned when an action does not apply to the current state.
	ErrInvalidState = errors.New("action not allowed in current state")
	// ErrSuperseded is returned by an operation whose result was discarded because a
	// newer file replaced it.
	ErrSuperseded = errors.New("superseded by a newer upload")
)

// User-facing messages.
const (
	MsgInvalidType        = "Please upload a PDF or Word document"
	MsgTooLarge           = "File size must be less than 20MB"
	MsgUploadFailed       = "Error processing document"
	MsgUploaded           = "Document uploaded successfully"
	MsgPaymentFailed      = "Payment failed"
	MsgPaymentNotified    = "Error processing payment"
	MsgPaymentSucceeded   = "Payment successful"
	MsgBusy               = "An upload is already in progress"
	MsgUnsupportedExport  = "Unsupported export format"
	MsgAnalysisMissing    = "No analysis was returned for this document"
	MsgPaymentUnavailable = "Payment could not be initialized"
)

// ServerError carries the error field of a non-2xx backend response.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server responded %d: %s", e.Status, e.Message)
}

// userMessage picks the backend's message when one is present, else fallback.
func userMessage(err error, fallback string) string {
	var se *ServerError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return fallback
}
