// Package sweeper removes uploads that were never paid for.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"doc-analyzer/internal/documents"
	"doc-analyzer/internal/shared/metrics"
	"doc-analyzer/internal/shared/telemetry"
)

const defaultBatchSize = 100

// Documents is the part of the documents service the sweeper needs.
type Documents interface {
	ListUnpaid(ctx context.Context, cutoff time.Time, limit int) ([]documents.Document, error)
	Discard(ctx context.Context, doc documents.Document) error
}

// Sweeper deletes the stored files of documents left unpaid for longer than TTL.
type Sweeper struct {
	Docs      Documents
	TTL       time.Duration
	BatchSize int
	Now       func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// New constructs a Sweeper.
func New(docs Documents, ttl time.Duration) *Sweeper {
	return &Sweeper{Docs: docs, TTL: ttl, BatchSize: defaultBatchSize}
}

// RunOnce discards every expired unpaid document and returns how many were removed.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	if s.TTL <= 0 {
		return 0, errors.New("sweeper ttl must be positive")
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	batch := s.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	cutoff := now().UTC().Add(-s.TTL)

	removed := 0
	for {
		docs, err := s.Docs.ListUnpaid(ctx, cutoff, batch)
		if err != nil {
			return removed, fmt.Errorf("list unpaid documents: %w", err)
		}
		progressed := 0
		for _, doc := range docs {
			if err := ctx.Err(); err != nil {
				return removed, err
			}
			if err := s.Docs.Discard(ctx, doc); err != nil {
				telemetry.Warn("sweeper.discard_failed", map[string]any{
					"document_id": doc.ID,
					"error":       err.Error(),
				})
				continue
			}
			progressed++
		}
		removed += progressed
		if len(docs) < batch || progressed == 0 {
			break
		}
	}

	if removed > 0 {
		metrics.AddDocumentsSwept(removed)
	}
	telemetry.Info("sweeper.run", map[string]any{
		"removed": removed,
		"cutoff":  cutoff.Format(time.RFC3339),
	})
	return removed, nil
}

// Start runs the sweeper on schedule, a cron spec or descriptor such as "@every 1h".
// Runs never overlap.
func (s *Sweeper) Start(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return errors.New("sweeper already running")
	}

	logger := cronLogger{}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))
	if _, err := c.AddFunc(schedule, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			telemetry.Error("sweeper.failed", map[string]any{"error": err.Error()})
		}
	}); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	c.Start()
	s.cron = c
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish or ctx to end.
func (s *Sweeper) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
}

// cronLogger routes cron's own logs to telemetry.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := map[string]any{"error": err.Error()}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if k, ok := keysAndValues[i].(string); ok {
			fields[k] = keysAndValues[i+1]
		}
	}
	telemetry.Error("cron."+msg, fields)
}
