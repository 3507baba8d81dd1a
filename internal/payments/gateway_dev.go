package payments

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// DevGateway is a local provider for development. Intents are created already paid and
// nothing leaves the process.
type DevGateway struct {
	mu      sync.RWMutex
	intents map[string]Intent
}

// NewDevGateway constructs a DevGateway.
func NewDevGateway() *DevGateway {
	return &DevGateway{intents: make(map[string]Intent)}
}

// CreateIntent records a succeeded intent with a Stripe-shaped id and client secret.
func (g *DevGateway) CreateIntent(ctx context.Context, params IntentParams) (Intent, error) {
	if err := ctx.Err(); err != nil {
		return Intent{}, err
	}
	id := "pi_dev_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	meta := make(map[string]string, len(params.Metadata))
	for k, v := range params.Metadata {
		meta[k] = v
	}
	intent := Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16],
		Status:       StatusSucceeded,
		Amount:       params.Amount,
		Currency:     params.Currency,
		Metadata:     meta,
	}

	g.mu.Lock()
	g.intents[id] = intent
	g.mu.Unlock()
	return intent, nil
}

// GetIntent returns a previously created intent.
func (g *DevGateway) GetIntent(ctx context.Context, intentID string) (Intent, error) {
	if err := ctx.Err(); err != nil {
		return Intent{}, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	intent, ok := g.intents[intentID]
	if !ok {
		return Intent{}, ErrNotFound
	}
	return intent, nil
}

var _ Gateway = (*DevGateway)(nil)
