package payments

import "context"

// PaymentsRepo defines persistence operations for payments.
type PaymentsRepo interface {
	Create(ctx context.Context, p Payment) error
	GetByProviderID(ctx context.Context, providerPaymentID string) (Payment, error)
}
