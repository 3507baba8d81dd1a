package workflow

import (
	"context"
	"io"
)

// State is a step of the upload, pay and render workflow.
type State int

const (
	StateIdle State = iota
	StateUploading
	StateAwaitingPayment
	StateConfirming
	StateRendering
	StateDone
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateUploading:
		return "uploading"
	case StateAwaitingPayment:
		return "awaiting_payment"
	case StateConfirming:
		return "confirming"
	case StateRendering:
		return "rendering"
	case StateDone:
		return "done"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Panel is a top-level container whose visibility the controller toggles.
type Panel int

const (
	PanelNone Panel = iota
	PanelProgress
	PanelPayment
	PanelResult
)

func (p Panel) String() string {
	switch p {
	case PanelProgress:
		return "progress"
	case PanelPayment:
		return "payment"
	case PanelResult:
		return "result"
	default:
		return "none"
	}
}

// UploadRequest is a file chosen by the user. It is validated before any network call.
type UploadRequest struct {
	FileName         string
	DeclaredMimeType string
	SizeBytes        int64
	Body             io.Reader
}

// UploadResult is the backend's answer to an upload.
type UploadResult struct {
	DocumentID          string         `json:"document_id"`
	PaymentClientSecret string         `json:"client_secret"`
	PaymentPublicKey    string         `json:"publishable_key"`
	Metadata            map[string]any `json:"metadata,omitempty"`
	// Analysis is set by backends that analyze on upload, without a payment step.
	Analysis *AnalysisResult `json:"analysis_result,omitempty"`
}

// PaymentOutcome is what the payment provider reports after confirmation.
type PaymentOutcome struct {
	Succeeded            bool
	ProviderErrorMessage string
	PaymentIntentID      string
}

// AnalysisOptions are the optional analysis topics requested with a payment.
type AnalysisOptions struct {
	CharacterAnalysis     bool `json:"characterAnalysis"`
	PlotAnalysis          bool `json:"plotAnalysis"`
	ThematicAnalysis      bool `json:"thematicAnalysis"`
	ReadabilityAssessment bool `json:"readabilityAssessment"`
	SentimentAnalysis     bool `json:"sentimentAnalysis"`
	StyleConsistency      bool `json:"styleConsistency"`
}

// AllAnalysisOptions enables every optional topic.
func AllAnalysisOptions() AnalysisOptions {
	return AnalysisOptions{true, true, true, true, true, true}
}

// PaymentSuccessRequest is sent to the backend once the provider confirmed a payment.
type PaymentSuccessRequest struct {
	PaymentIntentID string           `json:"payment_intent_id"`
	DocumentID      string           `json:"document_id"`
	AnalysisOptions *AnalysisOptions `json:"analysis_options,omitempty"`
}

// AnalysisBody holds the analysis text returned by the backend.
type AnalysisBody struct {
	Summary string `json:"summary"`
}

// AnalysisResult is the analysis currently shown and available for export.
type AnalysisResult struct {
	DocumentID       string           `json:"id"`
	Analysis         AnalysisBody     `json:"analysis"`
	Metadata         map[string]any   `json:"metadata,omitempty"`
	OptionsRequested *AnalysisOptions `json:"options,omitempty"`
}

// Backend is the document analysis HTTP API.
type Backend interface {
	Upload(ctx context.Context, req UploadRequest) (UploadResult, error)
	NotifyPaymentSuccess(ctx context.Context, req PaymentSuccessRequest) (AnalysisResult, error)
	ExportPDFURL(documentID string) string
}

// PaymentProvider mounts a payment form for one client secret and confirms it.
type PaymentProvider interface {
	Init(publishableKey, clientSecret string) error
	Confirm(ctx context.Context) (PaymentOutcome, error)
}

// Level classifies a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a short-lived message for the user.
type Notification struct {
	Level   Level
	Message string
}

// View receives every visible side effect of the controller.
type View interface {
	ShowPanel(p Panel)
	Progress(step string, percent int)
	SetSubmit(enabled bool, label string)
	Notify(n Notification)
	RenderSections(html string)
	RenderSummary(html string)
}

// Downloader stores an exported file.
type Downloader interface {
	Save(fileName, contentType string, data []byte) error
}
