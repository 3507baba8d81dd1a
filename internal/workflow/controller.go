package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"doc-analyzer/internal/export"
	"doc-analyzer/internal/sections"
	"doc-analyzer/internal/shared/telemetry"
)

// Controller drives one session through upload, payment and rendering. View methods
// are invoked while the controller's lock is held and must not call back into it.
type Controller struct {
	opts     Options
	backend  Backend
	payments PaymentProvider
	view     View
	download Downloader

	mu           sync.Mutex
	state        State
	panel        Panel
	generation   uint64
	cancel       context.CancelFunc
	documentID   string
	clientSecret string
	options      *AnalysisOptions
	paymentReady bool
	current      *AnalysisResult
}

// New constructs a Controller in StateIdle. payments may be nil when opts.PaymentStep
// is false.
func New(opts Options, backend Backend, payments PaymentProvider, view View, download Downloader) *Controller {
	return &Controller{
		opts:     opts.withDefaults(),
		backend:  backend,
		payments: payments,
		view:     view,
		download: download,
		state:    StateIdle,
		panel:    PanelNone,
	}
}

// State returns the current workflow state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// VisiblePanel returns the single panel currently shown.
func (c *Controller) VisiblePanel() Panel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.panel
}

// CurrentAnalysis returns a copy of the analysis available for export, if any.
func (c *Controller) CurrentAnalysis() (AnalysisResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return AnalysisResult{}, false
	}
	return *c.current, true
}

// SetAnalysisOptions sets the topics sent with the next payment notification.
func (c *Controller) SetAnalysisOptions(opts AnalysisOptions) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.options = &opts
}

// HandleFile validates a dropped or selected file and uploads it. A valid file
// discards the current analysis. A rejected file leaves the visible panel, the armed
// payment and the current analysis untouched.
func (c *Controller) HandleFile(ctx context.Context, req UploadRequest) error {
	c.mu.Lock()
	busy := c.state == StateUploading || c.state == StateConfirming
	if busy && c.opts.OverlapPolicy != OverlapCancel {
		c.view.Notify(Notification{Level: LevelWarning, Message: MsgBusy})
		c.mu.Unlock()
		return ErrBusy
	}

	if msg, ok := c.validate(req); !ok {
		verr := &Error{Kind: KindValidation, Message: msg}
		if busy {
			// the in-flight operation keeps running
			c.view.Notify(Notification{Level: LevelError, Message: msg})
			c.mu.Unlock()
			return verr
		}
		err := c.fail(verr, c.panel)
		c.mu.Unlock()
		return err
	}

	if busy && c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++

	c.current = nil
	c.documentID = ""
	c.clientSecret = ""
	c.paymentReady = false
	c.enter(StateUploading, PanelProgress)
	c.view.Progress(StepUpload, 0)

	gen := c.generation
	opCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	res, err := c.backend.Upload(opCtx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		cancel()
		return ErrSuperseded
	}
	c.cancel = nil
	cancel()

	if err != nil {
		return c.fail(&Error{Kind: KindUpload, Message: userMessage(err, MsgUploadFailed), Err: err}, PanelNone)
	}
	c.view.Progress(StepProcess, 60)

	if !c.opts.PaymentStep {
		if res.Analysis == nil {
			return c.fail(&Error{Kind: KindUpload, Message: MsgAnalysisMissing}, PanelNone)
		}
		c.view.Progress(StepAnalyze, 90)
		c.render(*res.Analysis)
		c.view.Notify(Notification{Level: LevelSuccess, Message: MsgUploaded})
		return nil
	}

	if res.DocumentID == "" || res.PaymentClientSecret == "" {
		return c.fail(&Error{Kind: KindUpload, Message: MsgUploadFailed}, PanelNone)
	}
	c.view.Progress(StepAnalyze, 90)

	if c.payments == nil {
		return c.fail(&Error{Kind: KindPaymentProvider, Message: MsgPaymentUnavailable}, PanelNone)
	}
	if err := c.payments.Init(res.PaymentPublicKey, res.PaymentClientSecret); err != nil {
		return c.fail(&Error{Kind: KindPaymentProvider, Message: MsgPaymentUnavailable, Err: err}, PanelNone)
	}

	c.documentID = res.DocumentID
	c.clientSecret = res.PaymentClientSecret
	c.paymentReady = true
	c.enter(StateAwaitingPayment, PanelPayment)
	c.view.SetSubmit(true, c.opts.SubmitLabel)
	c.view.Notify(Notification{Level: LevelSuccess, Message: MsgUploaded})
	return nil
}

// SubmitPayment confirms the payment with the provider and, only if that succeeded,
// notifies the backend. The submit control stays disabled while this runs.
func (c *Controller) SubmitPayment(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateConfirming {
		c.mu.Unlock()
		return ErrBusy
	}
	if !c.paymentReady || (c.state != StateAwaitingPayment && c.state != StateError) {
		c.mu.Unlock()
		return ErrInvalidState
	}

	c.enter(StateConfirming, PanelPayment)
	c.view.SetSubmit(false, c.opts.ProcessingLabel)

	gen := c.generation
	documentID := c.documentID
	clientSecret := c.clientSecret
	options := c.options
	opCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	outcome, err := c.payments.Confirm(opCtx)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil || outcome.ProviderErrorMessage != "" || !outcome.Succeeded {
		msg := outcome.ProviderErrorMessage
		if msg == "" && err != nil {
			msg = err.Error()
		}
		if msg == "" {
			msg = MsgPaymentFailed
		}
		ferr := c.failPayment(&Error{Kind: KindPaymentProvider, Message: msg, Err: err})
		c.mu.Unlock()
		return ferr
	}
	c.mu.Unlock()

	intentID := outcome.PaymentIntentID
	if intentID == "" {
		intentID = intentFromSecret(clientSecret)
	}
	result, err := c.backend.NotifyPaymentSuccess(opCtx, PaymentSuccessRequest{
		PaymentIntentID: intentID,
		DocumentID:      documentID,
		AnalysisOptions: options,
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return ErrSuperseded
	}
	c.cancel = nil
	if err != nil {
		return c.failPayment(&Error{Kind: KindPaymentNotification, Message: userMessage(err, MsgPaymentNotified), Err: err})
	}

	c.paymentReady = false
	if result.DocumentID == "" {
		result.DocumentID = documentID
	}
	if result.OptionsRequested == nil {
		result.OptionsRequested = options
	}
	c.render(result)
	c.view.Notify(Notification{Level: LevelSuccess, Message: MsgPaymentSucceeded})
	return nil
}

// Export saves the current analysis in the given format. Without a current analysis it
// does nothing and reports false.
func (c *Controller) Export(f export.Format) (bool, error) {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return false, nil
	}
	current := *c.current
	if !c.opts.offers(f) {
		c.view.Notify(Notification{Level: LevelWarning, Message: MsgUnsupportedExport})
		c.mu.Unlock()
		return false, fmt.Errorf("%w: %q", export.ErrUnsupportedFormat, f)
	}
	c.mu.Unlock()

	var (
		data []byte
		err  error
	)
	switch f {
	case export.FormatJSON:
		data, err = export.JSON(current)
	case export.FormatCSV:
		data, err = export.CSV(current.Analysis.Summary)
	default:
		err = fmt.Errorf("%w: %q", export.ErrUnsupportedFormat, f)
	}
	if err == nil {
		err = c.download.Save(export.FileName(f), export.ContentType(f), data)
	}
	if err != nil {
		c.mu.Lock()
		c.view.Notify(Notification{Level: LevelError, Message: err.Error()})
		c.mu.Unlock()
		return false, err
	}
	return true, nil
}

// ExportPDFURL returns the server-side PDF export address for the current analysis.
func (c *Controller) ExportPDFURL() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return "", false
	}
	return c.backend.ExportPDFURL(c.current.DocumentID), true
}

func (c *Controller) validate(req UploadRequest) (string, bool) {
	mimeType := strings.ToLower(strings.TrimSpace(strings.Split(req.DeclaredMimeType, ";")[0]))
	allowed := false
	for _, t := range c.opts.AllowedTypes {
		if t == mimeType {
			allowed = true
			break
		}
	}
	if !allowed {
		return MsgInvalidType, false
	}
	if req.SizeBytes > c.opts.MaxUploadBytes {
		return tooLargeMessage(c.opts.MaxUploadBytes), false
	}
	return "", true
}

// enter moves to state s and shows exactly panel p. Callers hold c.mu.
func (c *Controller) enter(s State, p Panel) {
	from := c.state
	c.state = s
	c.panel = p
	c.view.ShowPanel(p)
	telemetry.Info("workflow.transition", map[string]any{
		"status_transition": from.String() + "->" + s.String(),
		"panel":             p.String(),
		"document_id":       c.documentID,
	})
}

// fail enters StateError showing panel p and surfaces the message. Callers hold c.mu.
func (c *Controller) fail(err *Error, p Panel) error {
	c.enter(StateError, p)
	c.view.Notify(Notification{Level: LevelError, Message: err.Message})
	fields := map[string]any{"kind": string(err.Kind), "message": err.Message}
	if err.Err != nil {
		fields["error"] = err.Err.Error()
	}
	telemetry.Error("workflow.error", fields)
	return err
}

// failPayment keeps the payment panel visible and re-enables submit so the user can
// retry. Callers hold c.mu.
func (c *Controller) failPayment(err *Error) error {
	c.cancel = nil
	ferr := c.fail(err, PanelPayment)
	c.view.SetSubmit(true, c.opts.SubmitLabel)
	return ferr
}

// render shows the analysis and makes it current. Callers hold c.mu.
func (c *Controller) render(result AnalysisResult) {
	c.enter(StateRendering, c.panel)
	summary := result.Analysis.Summary
	switch c.opts.Layout {
	case LayoutFlat:
		html, err := sections.RenderFlat(summary)
		if err != nil {
			html = "<p>" + sections.Placeholder + "</p>"
		}
		c.view.RenderSummary(html)
	default:
		c.view.RenderSections(sections.RenderAccordion(sections.Extract(summary, c.opts.Sections)))
	}
	c.current = &result
	c.enter(StateDone, PanelResult)
}

func intentFromSecret(secret string) string {
	id, _, _ := strings.Cut(secret, "_secret_")
	return id
}

func tooLargeMessage(limit int64) string {
	return fmt.Sprintf("File size must be less than %dMB", limit/(1024*1024))
}
