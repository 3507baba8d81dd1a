package payments

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestService() (*Service, *DevGateway, *MemoryRepo) {
	gw := NewDevGateway()
	repo := NewMemoryRepo()
	svc := &Service{
		Gateway:        gw,
		Repo:           repo,
		PublishableKey: "pk_test_1",
		Amount:         300,
		Currency:       "cny",
		Now:            func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	}
	return svc, gw, repo
}

func TestCheckoutCreatesTaggedIntent(t *testing.T) {
	svc, gw, _ := newTestService()

	co, err := svc.Checkout(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if co.PublishableKey != "pk_test_1" || co.Amount != 300 || co.Currency != "cny" {
		t.Fatalf("unexpected checkout: %+v", co)
	}
	if IntentIDFromSecret(co.ClientSecret) != co.IntentID {
		t.Fatalf("client secret %q does not carry intent id %q", co.ClientSecret, co.IntentID)
	}

	intent, err := gw.GetIntent(context.Background(), co.IntentID)
	if err != nil {
		t.Fatalf("GetIntent: %v", err)
	}
	if intent.Metadata["service"] != MetadataService || intent.Metadata["document_id"] != "doc-1" {
		t.Fatalf("unexpected metadata: %v", intent.Metadata)
	}
}

func TestCheckoutRequiresDocument(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.Checkout(context.Background(), " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestVerifyRecordsPaymentOnce(t *testing.T) {
	svc, _, repo := newTestService()
	ctx := context.Background()
	co, err := svc.Checkout(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	first, err := svc.Verify(ctx, co.IntentID, "doc-1")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if first.Status != StatusSucceeded || first.Amount != 300 || first.DocumentID != "doc-1" {
		t.Fatalf("unexpected payment: %+v", first)
	}

	again, err := svc.Verify(ctx, co.IntentID, "doc-1")
	if err != nil {
		t.Fatalf("replayed Verify: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("replay recorded a new payment: %s vs %s", again.ID, first.ID)
	}
	stored, err := repo.GetByProviderID(ctx, co.IntentID)
	if err != nil || stored.ID != first.ID {
		t.Fatalf("unexpected stored payment: %+v %v", stored, err)
	}
}

func TestVerifyRejectsOtherDocument(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	co, _ := svc.Checkout(ctx, "doc-1")

	if _, err := svc.Verify(ctx, co.IntentID, "doc-2"); !errors.Is(err, ErrDocumentMismatch) {
		t.Fatalf("expected ErrDocumentMismatch, got %v", err)
	}

	if _, err := svc.Verify(ctx, co.IntentID, "doc-1"); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if _, err := svc.Verify(ctx, co.IntentID, "doc-2"); !errors.Is(err, ErrDocumentMismatch) {
		t.Fatalf("expected ErrDocumentMismatch on replay, got %v", err)
	}
}

type stubGateway struct {
	intent Intent
	err    error
}

func (g stubGateway) CreateIntent(context.Context, IntentParams) (Intent, error) {
	return g.intent, g.err
}

func (g stubGateway) GetIntent(context.Context, string) (Intent, error) {
	return g.intent, g.err
}

func TestVerifyRequiresSucceededStatus(t *testing.T) {
	svc := &Service{
		Gateway: stubGateway{intent: Intent{ID: "pi_1", Status: "requires_payment_method", Metadata: map[string]string{"document_id": "doc-1"}}},
		Repo:    NewMemoryRepo(),
	}
	if _, err := svc.Verify(context.Background(), "pi_1", "doc-1"); !errors.Is(err, ErrNotSucceeded) {
		t.Fatalf("expected ErrNotSucceeded, got %v", err)
	}
}

func TestVerifyUnknownIntent(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.Verify(context.Background(), "pi_missing", "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Verify(context.Background(), "", "doc-1"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestVerifyWrapsGatewayErrors(t *testing.T) {
	boom := errors.New("provider down")
	svc := &Service{Gateway: stubGateway{err: boom}, Repo: NewMemoryRepo()}
	if _, err := svc.Verify(context.Background(), "pi_1", "doc-1"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}
