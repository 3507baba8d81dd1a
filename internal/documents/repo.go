package documents

import (
	"context"
	"time"
)

// DocumentsRepo defines persistence operations for documents.
type DocumentsRepo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, id string) (Document, error)
	UpdateAnalysis(ctx context.Context, id string, a Analysis) error
	// ListUnpaidBefore returns live documents created before cutoff that were never analyzed.
	ListUnpaidBefore(ctx context.Context, cutoff time.Time, limit int) ([]Document, error)
	MarkDeleted(ctx context.Context, id string, at time.Time) error
}
