package analyses

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"doc-analyzer/internal/documents"
	"doc-analyzer/internal/llm"
	"doc-analyzer/internal/payments"
	"doc-analyzer/internal/sections"
	localstore "doc-analyzer/internal/shared/storage/object/local"
	"doc-analyzer/internal/shared/testutil"
)

type fakeLLM struct {
	mu     sync.Mutex
	calls  int
	inputs []llm.AnalyzeInput
	errs   []error
	resp   string
	// enter and gate, when set, let a test hold the call open.
	enter chan struct{}
	gate  chan struct{}
}

func (f *fakeLLM) Analyze(ctx context.Context, input llm.AnalyzeInput) (string, error) {
	if f.enter != nil {
		f.enter <- struct{}{}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.inputs = append(f.inputs, input)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return "", err
		}
	}
	if f.resp != "" {
		return f.resp, nil
	}
	return "摘要：A\n\n人物分析：B", nil
}

type fixture struct {
	svc      *Service
	docs     *documents.Service
	payments *payments.Service
	model    *fakeLLM
	docID    string
	intentID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	docs := &documents.Service{Store: localstore.New(t.TempDir()), Repo: documents.NewMemoryRepo()}
	pay := &payments.Service{
		Gateway:        payments.NewDevGateway(),
		Repo:           payments.NewMemoryRepo(),
		PublishableKey: "pk_dev",
		Amount:         300,
		Currency:       "cny",
	}
	model := &fakeLLM{}

	doc, err := docs.Upload(ctx, "session-1", "novel.docx", bytes.NewReader(testutil.DOCX(t, "The Novel", "Once upon a time.")))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	co, err := pay.Checkout(ctx, doc.ID)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	return &fixture{
		svc:      &Service{Docs: docs, Payments: pay, LLM: model, RetryDelay: time.Millisecond},
		docs:     docs,
		payments: pay,
		model:    model,
		docID:    doc.ID,
		intentID: co.IntentID,
	}
}

func sectionIDs(specs []sections.SectionSpec) []string {
	out := make([]string, 0, len(specs))
	for _, s := range specs {
		out = append(out, s.ID)
	}
	return out
}

func TestCompleteRunsAnalysisAndStoresIt(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Complete(context.Background(), Request{PaymentIntentID: f.intentID, DocumentID: f.docID})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res.ID != f.docID || res.Analysis.Summary != "摘要：A\n\n人物分析：B" || res.Reused {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Metadata["title"] != "The Novel" {
		t.Fatalf("unexpected metadata: %v", res.Metadata)
	}
	if res.Options == nil || *res.Options != AllOptions() {
		t.Fatalf("expected all options, got %+v", res.Options)
	}
	if f.model.calls != 1 {
		t.Fatalf("expected one model call, got %d", f.model.calls)
	}
	if got := sectionIDs(f.model.inputs[0].Sections); len(got) != 7 || got[0] != "summary" {
		t.Fatalf("unexpected sections: %v", got)
	}
	if f.model.inputs[0].Text != "Once upon a time." {
		t.Fatalf("unexpected text: %q", f.model.inputs[0].Text)
	}

	doc, err := f.docs.Get(context.Background(), f.docID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !doc.Analyzed() || doc.AnalysisSummary != res.Analysis.Summary || doc.AnalysisCost != 300 {
		t.Fatalf("analysis not stored: %+v", doc)
	}
}

func TestCompleteReplayReusesStoredAnalysis(t *testing.T) {
	f := newFixture(t)
	req := Request{PaymentIntentID: f.intentID, DocumentID: f.docID}

	if _, err := f.svc.Complete(context.Background(), req); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	res, err := f.svc.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("replayed Complete: %v", err)
	}
	if !res.Reused || f.model.calls != 1 {
		t.Fatalf("expected stored analysis, reused=%v calls=%d", res.Reused, f.model.calls)
	}
}

func TestCompleteRequestsOnlySelectedSections(t *testing.T) {
	f := newFixture(t)
	opts := Options{PlotAnalysis: true, StyleConsistency: true}

	res, err := f.svc.Complete(context.Background(), Request{PaymentIntentID: f.intentID, DocumentID: f.docID, Options: &opts})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	got := sectionIDs(f.model.inputs[0].Sections)
	want := []string{"summary", "plot", "style"}
	if len(got) != len(want) {
		t.Fatalf("sections = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sections = %v, want %v", got, want)
		}
	}
	if *res.Options != opts {
		t.Fatalf("unexpected options echo: %+v", res.Options)
	}
}

func TestCompleteRejectsPaymentForOtherDocument(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Complete(context.Background(), Request{PaymentIntentID: f.intentID, DocumentID: "other-doc"})
	if !errors.Is(err, payments.ErrDocumentMismatch) {
		t.Fatalf("expected ErrDocumentMismatch, got %v", err)
	}
	if f.model.calls != 0 {
		t.Fatalf("model called for unpaid document")
	}
}

func TestCompleteValidatesInput(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Complete(context.Background(), Request{DocumentID: f.docID}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCompleteSharedCallSurvivesFirstCallerCancel(t *testing.T) {
	f := newFixture(t)
	f.model.enter = make(chan struct{}, 2)
	f.model.gate = make(chan struct{})
	req := Request{PaymentIntentID: f.intentID, DocumentID: f.docID}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := f.svc.Complete(firstCtx, req)
		first <- err
	}()
	<-f.model.enter

	type outcome struct {
		res Result
		err error
	}
	second := make(chan outcome, 1)
	go func() {
		res, err := f.svc.Complete(context.Background(), req)
		second <- outcome{res: res, err: err}
	}()

	cancelFirst()
	if err := <-first; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected first caller to see context.Canceled, got %v", err)
	}
	close(f.model.gate)

	got := <-second
	if got.err != nil {
		t.Fatalf("second caller: %v", got.err)
	}
	if got.res.Analysis.Summary != "摘要：A\n\n人物分析：B" {
		t.Fatalf("unexpected summary: %q", got.res.Analysis.Summary)
	}
	if f.model.calls != 1 {
		t.Fatalf("expected one model call, got %d", f.model.calls)
	}
}

func TestCompleteRetriesTransientModelErrors(t *testing.T) {
	f := newFixture(t)
	f.model.errs = []error{errors.New("read tcp: connection reset by peer")}

	if _, err := f.svc.Complete(context.Background(), Request{PaymentIntentID: f.intentID, DocumentID: f.docID}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if f.model.calls != 2 {
		t.Fatalf("expected a retry, got %d calls", f.model.calls)
	}
}

func TestCompleteModelFailureLeavesDocumentUnanalyzed(t *testing.T) {
	f := newFixture(t)
	f.model.errs = []error{llm.ErrNotImplemented}

	_, err := f.svc.Complete(context.Background(), Request{PaymentIntentID: f.intentID, DocumentID: f.docID})
	if !errors.Is(err, llm.ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
	if f.model.calls != 1 {
		t.Fatalf("permanent errors must not be retried, got %d calls", f.model.calls)
	}
	doc, _ := f.docs.Get(context.Background(), f.docID)
	if doc.Analyzed() {
		t.Fatalf("document marked analyzed after failure")
	}
}

func TestExportPDF(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.ExportPDF(ctx, f.docID); !errors.Is(err, ErrNotAnalyzed) {
		t.Fatalf("expected ErrNotAnalyzed, got %v", err)
	}
	if _, err := f.svc.ExportPDF(ctx, "missing"); !errors.Is(err, documents.ErrNotFound) {
		t.Fatalf("expected documents.ErrNotFound, got %v", err)
	}

	if _, err := f.svc.Complete(ctx, Request{PaymentIntentID: f.intentID, DocumentID: f.docID}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	data, err := f.svc.ExportPDF(ctx, f.docID)
	if err != nil {
		t.Fatalf("ExportPDF: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("export is not a pdf")
	}
}

func TestShouldRetryLLM(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.DeadlineExceeded, true},
		{context.Canceled, false},
		{llm.ErrEmptyDocument, false},
		{errors.New("openai error status=503: overloaded (server_error)"), true},
		{errors.New("openai error status=400: bad request (invalid_request_error)"), false},
	}
	for _, tc := range cases {
		if got := shouldRetryLLM(tc.err); got != tc.want {
			t.Fatalf("shouldRetryLLM(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
