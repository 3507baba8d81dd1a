package payments

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of PaymentsRepo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Payment
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Payment)}
}

// Create stores a payment keyed by its provider id.
func (r *MemoryRepo) Create(ctx context.Context, p Payment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[p.ProviderPaymentID]; ok {
		return ErrDuplicate
	}
	r.data[p.ProviderPaymentID] = p
	return nil
}

// GetByProviderID returns the payment recorded for a provider payment id.
func (r *MemoryRepo) GetByProviderID(ctx context.Context, providerPaymentID string) (Payment, error) {
	if err := ctx.Err(); err != nil {
		return Payment{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.data[providerPaymentID]
	if !ok {
		return Payment{}, ErrNotFound
	}
	return p, nil
}

var _ PaymentsRepo = (*MemoryRepo)(nil)
