package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"doc-analyzer/internal/shared/telemetry"
)

// Service creates payment intents for uploads and verifies them before analysis.
type Service struct {
	Gateway             Gateway
	Repo                PaymentsRepo
	PublishableKey      string
	Amount              int64
	Currency            string
	PaymentMethodConfig string
	Now                 func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Checkout creates an intent for one analysis of documentID.
func (s *Service) Checkout(ctx context.Context, documentID string) (Checkout, error) {
	if strings.TrimSpace(documentID) == "" {
		return Checkout{}, ErrInvalidInput
	}
	intent, err := s.Gateway.CreateIntent(ctx, IntentParams{
		Amount:   s.Amount,
		Currency: s.Currency,
		Metadata: map[string]string{
			"service":     MetadataService,
			"document_id": documentID,
		},
		PaymentMethodConfiguration: s.PaymentMethodConfig,
	})
	if err != nil {
		return Checkout{}, fmt.Errorf("create intent: %w", err)
	}

	telemetry.Info("payment.intent_created", map[string]any{
		"document_id":       documentID,
		"payment_intent_id": intent.ID,
		"amount":            intent.Amount,
		"currency":          intent.Currency,
	})
	return Checkout{
		IntentID:       intent.ID,
		ClientSecret:   intent.ClientSecret,
		PublishableKey: s.PublishableKey,
		Amount:         intent.Amount,
		Currency:       intent.Currency,
	}, nil
}

// Verify checks with the provider that intentID was paid for documentID and records the
// payment. A replayed intent returns the payment recorded the first time.
func (s *Service) Verify(ctx context.Context, intentID, documentID string) (Payment, error) {
	intentID = strings.TrimSpace(intentID)
	documentID = strings.TrimSpace(documentID)
	if intentID == "" || documentID == "" {
		return Payment{}, ErrInvalidInput
	}

	if existing, err := s.Repo.GetByProviderID(ctx, intentID); err == nil {
		if existing.DocumentID != documentID {
			return Payment{}, ErrDocumentMismatch
		}
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return Payment{}, fmt.Errorf("load payment: %w", err)
	}

	intent, err := s.Gateway.GetIntent(ctx, intentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Payment{}, ErrNotFound
		}
		return Payment{}, fmt.Errorf("get intent: %w", err)
	}
	if intent.Status != StatusSucceeded {
		telemetry.Warn("payment.not_succeeded", map[string]any{
			"payment_intent_id": intentID,
			"document_id":       documentID,
			"status":            intent.Status,
		})
		return Payment{}, ErrNotSucceeded
	}
	if intent.Metadata["document_id"] != documentID {
		telemetry.Warn("payment.document_mismatch", map[string]any{
			"payment_intent_id": intentID,
			"document_id":       documentID,
		})
		return Payment{}, ErrDocumentMismatch
	}

	p := Payment{
		ID:                uuid.NewString(),
		DocumentID:        documentID,
		ProviderPaymentID: intentID,
		Amount:            intent.Amount,
		Currency:          intent.Currency,
		Status:            intent.Status,
		CreatedAt:         s.now(),
	}
	if err := s.Repo.Create(ctx, p); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return s.Repo.GetByProviderID(ctx, intentID)
		}
		return Payment{}, fmt.Errorf("record payment: %w", err)
	}

	telemetry.Info("payment.verified", map[string]any{
		"payment_intent_id": intentID,
		"document_id":       documentID,
		"amount":            p.Amount,
	})
	return p, nil
}
