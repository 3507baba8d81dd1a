package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of DocumentsRepo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Document
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Document),
	}
}

// Create stores a new document.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[doc.ID] = doc
	return nil
}

// GetByID returns a live document by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.data[id]
	if !ok || doc.DeletedAt != nil {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// UpdateAnalysis stores the analysis for a document.
func (r *MemoryRepo) UpdateAnalysis(ctx context.Context, id string, a Analysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[id]
	if !ok || doc.DeletedAt != nil {
		return ErrNotFound
	}
	at := a.AnalyzedAt
	doc.AnalysisSummary = a.Summary
	doc.AnalysisSections = append([]string(nil), a.Sections...)
	doc.AnalysisCost = a.Cost
	doc.AnalyzedAt = &at
	r.data[id] = doc
	return nil
}

// ListUnpaidBefore returns never-analyzed live documents created before cutoff, oldest first.
func (r *MemoryRepo) ListUnpaidBefore(ctx context.Context, cutoff time.Time, limit int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Document, 0)
	for _, doc := range r.data {
		if doc.DeletedAt == nil && doc.AnalyzedAt == nil && doc.CreatedAt.Before(cutoff) {
			out = append(out, doc)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkDeleted soft-deletes a document.
func (r *MemoryRepo) MarkDeleted(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[id]
	if !ok || doc.DeletedAt != nil {
		return ErrNotFound
	}
	doc.DeletedAt = &at
	r.data[id] = doc
	return nil
}

var _ DocumentsRepo = (*MemoryRepo)(nil)
