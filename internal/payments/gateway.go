package payments

import "context"

// Gateway talks to the payment provider.
type Gateway interface {
	CreateIntent(ctx context.Context, params IntentParams) (Intent, error)
	GetIntent(ctx context.Context, intentID string) (Intent, error)
}
