package payments

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PGRepo implements PaymentsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const uniqueViolation = "23505"

// Create inserts a payment. A second insert for the same provider id returns ErrDuplicate.
func (r *PGRepo) Create(ctx context.Context, p Payment) error {
	const query = `
INSERT INTO payments (id, document_id, provider_payment_id, amount, currency, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.ExecContext(ctx, query, p.ID, p.DocumentID, p.ProviderPaymentID, p.Amount, p.Currency, p.Status, p.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

// GetByProviderID returns the payment recorded for a provider payment id.
func (r *PGRepo) GetByProviderID(ctx context.Context, providerPaymentID string) (Payment, error) {
	const query = `
SELECT id, document_id, provider_payment_id, amount, currency, status, created_at
FROM payments
WHERE provider_payment_id = $1`
	var p Payment
	err := r.DB.QueryRowContext(ctx, query, providerPaymentID).Scan(
		&p.ID,
		&p.DocumentID,
		&p.ProviderPaymentID,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Payment{}, ErrNotFound
		}
		return Payment{}, err
	}
	return p, nil
}

var _ PaymentsRepo = (*PGRepo)(nil)
