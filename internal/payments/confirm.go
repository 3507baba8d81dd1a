package payments

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"doc-analyzer/internal/workflow"
)

// IntentIDFromSecret returns the intent id a client secret was issued for.
func IntentIDFromSecret(secret string) string {
	id, _, _ := strings.Cut(secret, "_secret_")
	return id
}

// StripeConfirmer confirms an intent from the client side with the publishable key, the
// way the hosted payment form does.
type StripeConfirmer struct {
	// PaymentMethod is the payment method id or test token to confirm with.
	PaymentMethod string
	// Backends overrides the Stripe endpoints. Nil uses the public API.
	Backends *stripe.Backends

	api          *client.API
	clientSecret string
}

// Init prepares the confirmer for one client secret.
func (s *StripeConfirmer) Init(publishableKey, clientSecret string) error {
	if publishableKey == "" || clientSecret == "" {
		return errors.New("publishable key and client secret are required")
	}
	s.api = &client.API{}
	s.api.Init(publishableKey, s.Backends)
	s.clientSecret = clientSecret
	return nil
}

// Confirm confirms the intent. Card errors are reported in the outcome, not as an error.
func (s *StripeConfirmer) Confirm(ctx context.Context) (workflow.PaymentOutcome, error) {
	if s.api == nil {
		return workflow.PaymentOutcome{}, errors.New("payment form not initialized")
	}
	params := &stripe.PaymentIntentConfirmParams{}
	params.Context = ctx
	if s.PaymentMethod != "" {
		params.PaymentMethod = stripe.String(s.PaymentMethod)
	}
	params.AddExtra("client_secret", s.clientSecret)

	pi, err := s.api.PaymentIntents.Confirm(IntentIDFromSecret(s.clientSecret), params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.Msg != "" {
			return workflow.PaymentOutcome{ProviderErrorMessage: se.Msg}, nil
		}
		return workflow.PaymentOutcome{}, err
	}
	return workflow.PaymentOutcome{
		Succeeded:       pi.Status == stripe.PaymentIntentStatusSucceeded,
		PaymentIntentID: pi.ID,
	}, nil
}

// DevConfirmer accepts every payment unless Decline is set, in which case it reports
// Decline as the provider error.
type DevConfirmer struct {
	Decline string

	clientSecret string
}

// Init stores the client secret.
func (d *DevConfirmer) Init(publishableKey, clientSecret string) error {
	if clientSecret == "" {
		return errors.New("client secret is required")
	}
	d.clientSecret = clientSecret
	return nil
}

// Confirm reports success for the intent behind the stored secret.
func (d *DevConfirmer) Confirm(ctx context.Context) (workflow.PaymentOutcome, error) {
	if err := ctx.Err(); err != nil {
		return workflow.PaymentOutcome{}, err
	}
	if d.Decline != "" {
		return workflow.PaymentOutcome{ProviderErrorMessage: d.Decline}, nil
	}
	return workflow.PaymentOutcome{
		Succeeded:       true,
		PaymentIntentID: IntentIDFromSecret(d.clientSecret),
	}, nil
}

var (
	_ workflow.PaymentProvider = (*StripeConfirmer)(nil)
	_ workflow.PaymentProvider = (*DevConfirmer)(nil)
)
