package analyses

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"doc-analyzer/internal/documents"
	"doc-analyzer/internal/extract"
	"doc-analyzer/internal/llm"
	"doc-analyzer/internal/payments"
	"doc-analyzer/internal/report"
	"doc-analyzer/internal/sections"
	"doc-analyzer/internal/shared/metrics"
	"doc-analyzer/internal/shared/telemetry"
)

// ExportFileName is the download name of the PDF export.
const ExportFileName = "document-analysis.pdf"

// PaymentVerifier confirms that a payment intent paid for a document.
type PaymentVerifier interface {
	Verify(ctx context.Context, intentID, documentID string) (payments.Payment, error)
}

// Service runs paid analyses and exports them.
type Service struct {
	Docs     *documents.Service
	Payments PaymentVerifier
	LLM      llm.Client
	Report   report.Renderer
	// Specs is the full section list; DefaultSpecs when empty.
	Specs []sections.SectionSpec
	// Timeout bounds one model call when positive.
	Timeout    time.Duration
	RetryDelay time.Duration

	inflight singleflight.Group
}

func (s *Service) specs() []sections.SectionSpec {
	if len(s.Specs) > 0 {
		return s.Specs
	}
	return sections.DefaultSpecs()
}

// Complete verifies the payment and returns the analysis of the paid document. A stored
// analysis for the same sections is returned without calling the model again.
func (s *Service) Complete(ctx context.Context, req Request) (Result, error) {
	req.PaymentIntentID = strings.TrimSpace(req.PaymentIntentID)
	req.DocumentID = strings.TrimSpace(req.DocumentID)
	if req.PaymentIntentID == "" || req.DocumentID == "" {
		return Result{}, ErrInvalidInput
	}

	// The shared call outlives any single caller; each caller stops waiting on its own ctx.
	key := req.DocumentID + "|" + req.PaymentIntentID
	ch := s.inflight.DoChan(key, func() (any, error) {
		return s.complete(context.WithoutCancel(ctx), req)
	})
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return Result{}, r.Err
		}
		return r.Val.(Result), nil
	}
}

func (s *Service) complete(ctx context.Context, req Request) (Result, error) {
	payment, err := s.Payments.Verify(ctx, req.PaymentIntentID, req.DocumentID)
	if err != nil {
		metrics.IncPaymentRejected()
		return Result{}, err
	}
	metrics.IncPaymentVerified()

	doc, err := s.Docs.Get(ctx, req.DocumentID)
	if err != nil {
		return Result{}, err
	}

	opts := AllOptions()
	if req.Options != nil {
		opts = *req.Options
	}
	ids := opts.SectionIDs()

	if doc.Analyzed() && doc.AnalysisSummary != "" && slices.Equal(doc.AnalysisSections, ids) {
		telemetry.Info("analysis.reused", map[string]any{
			"document_id":       doc.ID,
			"payment_intent_id": req.PaymentIntentID,
			"request_id":        requestIDFromContext(ctx),
		})
		return s.result(doc, doc.AnalysisSummary, opts, true), nil
	}

	text, err := s.Docs.Text(ctx, doc)
	if err != nil {
		metrics.IncAnalysisFailed()
		return Result{}, err
	}
	if strings.TrimSpace(text) == "" {
		metrics.IncAnalysisFailed()
		return Result{}, llm.ErrEmptyDocument
	}

	llmCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		llmCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	started := time.Now()
	client := newRetryingLLM(s.LLM, doc.ID, s.RetryDelay)
	summary, err := client.Analyze(llmCtx, llm.AnalyzeInput{
		Text:     text,
		Sections: specsFor(s.specs(), ids),
	})
	metrics.ObserveAnalysisDurationMs(float64(time.Since(started).Milliseconds()))
	if err == nil && strings.TrimSpace(summary) == "" {
		err = ErrEmptyAnalysis
	}
	if err != nil {
		metrics.IncAnalysisFailed()
		telemetry.Error("analysis.failed", map[string]any{
			"document_id":       doc.ID,
			"payment_intent_id": req.PaymentIntentID,
			"request_id":        requestIDFromContext(ctx),
			"error":             err.Error(),
		})
		return Result{}, fmt.Errorf("analyze document %s: %w", doc.ID, err)
	}

	if err := s.Docs.SaveAnalysis(ctx, doc.ID, documents.Analysis{
		Summary:  summary,
		Sections: ids,
		Cost:     payment.Amount,
	}); err != nil {
		metrics.IncAnalysisFailed()
		return Result{}, fmt.Errorf("save analysis: %w", err)
	}
	metrics.IncAnalysisCompleted()

	telemetry.Info("analysis.completed", map[string]any{
		"document_id":       doc.ID,
		"payment_intent_id": req.PaymentIntentID,
		"request_id":        requestIDFromContext(ctx),
		"sections":          len(ids),
		"summary_chars":     len([]rune(summary)),
		"duration_ms":       time.Since(started).Milliseconds(),
	})
	return s.result(doc, summary, opts, false), nil
}

func (s *Service) result(doc documents.Document, summary string, opts Options, reused bool) Result {
	return Result{
		ID:       doc.ID,
		Analysis: Body{Summary: summary},
		Metadata: doc.Metadata.Map(),
		Options:  &opts,
		Reused:   reused,
	}
}

// ExportPDF renders the stored analysis of a document.
func (s *Service) ExportPDF(ctx context.Context, documentID string) ([]byte, error) {
	doc, err := s.Docs.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !doc.Analyzed() {
		return nil, ErrNotAnalyzed
	}

	title := doc.Title
	if title == "" || title == extract.Unknown {
		title = doc.OriginalFilename
	}
	data, err := s.Report.Render(title, doc.AnalysisSummary, specsFor(s.specs(), doc.AnalysisSections))
	if err != nil {
		return nil, fmt.Errorf("export pdf %s: %w", doc.ID, err)
	}
	return data, nil
}
