package analyses

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"doc-analyzer/internal/llm"
	"doc-analyzer/internal/shared/telemetry"
)

const llmRetryBaseDelay = 300 * time.Millisecond

// retryingLLM retries a failed call once when the failure looks transient.
type retryingLLM struct {
	base       llm.Client
	delay      time.Duration
	documentID string
}

func newRetryingLLM(base llm.Client, documentID string, delay time.Duration) llm.Client {
	if base == nil {
		return nil
	}
	if delay <= 0 {
		delay = llmRetryBaseDelay
	}
	return retryingLLM{base: base, delay: delay, documentID: documentID}
}

func (r retryingLLM) Analyze(ctx context.Context, input llm.AnalyzeInput) (string, error) {
	resp, err := r.base.Analyze(ctx, input)
	if err == nil || !shouldRetryLLM(err) {
		return resp, err
	}

	telemetry.Warn("llm.retry", map[string]any{
		"attempt":     1,
		"request_id":  requestIDFromContext(ctx),
		"document_id": r.documentID,
		"error":       err.Error(),
	})
	select {
	case <-time.After(r.delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	return r.base.Analyze(ctx, input)
}

func shouldRetryLLM(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, llm.ErrNotImplemented) || errors.Is(err, llm.ErrEmptyDocument) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "status=5") || strings.Contains(msg, "status=429") || strings.Contains(msg, "server_error") {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "unexpected eof") {
		return true
	}
	return false
}
