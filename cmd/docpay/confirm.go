package main

import (
	"context"
	"strings"

	"doc-analyzer/internal/payments"
	"doc-analyzer/internal/workflow"
)

// autoConfirmer picks the dev or Stripe confirmer from the publishable key the
// backend hands out with each upload.
type autoConfirmer struct {
	PaymentMethod string
	Decline       string

	active workflow.PaymentProvider
}

func (a *autoConfirmer) Init(publishableKey, clientSecret string) error {
	var p workflow.PaymentProvider
	if isDevKey(publishableKey) {
		p = &payments.DevConfirmer{Decline: a.Decline}
	} else {
		p = &payments.StripeConfirmer{PaymentMethod: a.PaymentMethod}
	}
	if err := p.Init(publishableKey, clientSecret); err != nil {
		return err
	}
	a.active = p
	return nil
}

func (a *autoConfirmer) Confirm(ctx context.Context) (workflow.PaymentOutcome, error) {
	if a.active == nil {
		return workflow.PaymentOutcome{ProviderErrorMessage: workflow.MsgPaymentUnavailable}, nil
	}
	return a.active.Confirm(ctx)
}

func isDevKey(key string) bool {
	return key == "" || strings.HasPrefix(key, "pk_dev")
}
