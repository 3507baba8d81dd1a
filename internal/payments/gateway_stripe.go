package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeGateway creates and reads payment intents through the Stripe API.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway builds a gateway for a secret key. backends may be nil to use the
// public Stripe endpoints.
func NewStripeGateway(secretKey string, backends *stripe.Backends) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, backends)
	return &StripeGateway{api: api}
}

// CreateIntent creates an intent with automatic payment methods enabled.
func (g *StripeGateway) CreateIntent(ctx context.Context, params IntentParams) (Intent, error) {
	p := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(params.Amount),
		Currency: stripe.String(params.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	p.Context = ctx
	for k, v := range params.Metadata {
		p.AddMetadata(k, v)
	}
	if params.PaymentMethodConfiguration != "" {
		p.AddExtra("payment_method_configuration", params.PaymentMethodConfiguration)
	}

	pi, err := g.api.PaymentIntents.New(p)
	if err != nil {
		return Intent{}, fmt.Errorf("stripe create intent: %w", err)
	}
	return intentFromStripe(pi), nil
}

// GetIntent retrieves an intent by id.
func (g *StripeGateway) GetIntent(ctx context.Context, intentID string) (Intent, error) {
	p := &stripe.PaymentIntentParams{}
	p.Context = ctx
	pi, err := g.api.PaymentIntents.Get(intentID, p)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.HTTPStatusCode == http.StatusNotFound {
			return Intent{}, ErrNotFound
		}
		return Intent{}, fmt.Errorf("stripe get intent: %w", err)
	}
	return intentFromStripe(pi), nil
}

func intentFromStripe(pi *stripe.PaymentIntent) Intent {
	return Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
}

var _ Gateway = (*StripeGateway)(nil)
