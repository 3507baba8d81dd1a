package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stripe/stripe-go/v76"
)

func testBackends(t *testing.T, handler http.Handler) *stripe.Backends {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		HTTPClient:        srv.Client(),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return &stripe.Backends{API: backend, Connect: backend, Uploads: backend}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestStripeGatewayCreateIntent(t *testing.T) {
	var form map[string]string
	backends := testBackends(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/payment_intents" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_1" {
			t.Errorf("unexpected authorization %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		form = map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id":            "pi_1",
			"object":        "payment_intent",
			"client_secret": "pi_1_secret_abc",
			"status":        "requires_payment_method",
			"amount":        300,
			"currency":      "cny",
			"metadata":      map[string]string{"document_id": "doc-1", "service": MetadataService},
		})
	}))

	gw := NewStripeGateway("sk_test_1", backends)
	intent, err := gw.CreateIntent(context.Background(), IntentParams{
		Amount:                     300,
		Currency:                   "cny",
		Metadata:                   map[string]string{"document_id": "doc-1", "service": MetadataService},
		PaymentMethodConfiguration: "pmc_1",
	})
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if intent.ID != "pi_1" || intent.ClientSecret != "pi_1_secret_abc" || intent.Amount != 300 {
		t.Fatalf("unexpected intent: %+v", intent)
	}

	want := map[string]string{
		"amount":                            "300",
		"currency":                          "cny",
		"automatic_payment_methods[enabled]": "true",
		"metadata[document_id]":             "doc-1",
		"metadata[service]":                 MetadataService,
		"payment_method_configuration":      "pmc_1",
	}
	for k, v := range want {
		if form[k] != v {
			t.Fatalf("form %s = %q, want %q (form %v)", k, form[k], v, form)
		}
	}
}

func TestStripeGatewayGetIntentNotFound(t *testing.T) {
	backends := testBackends(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": map[string]any{
				"type":    "invalid_request_error",
				"code":    "resource_missing",
				"message": "No such payment_intent: 'pi_x'",
			},
		})
	}))

	gw := NewStripeGateway("sk_test_1", backends)
	if _, err := gw.GetIntent(context.Background(), "pi_x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStripeGatewayGetIntent(t *testing.T) {
	backends := testBackends(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/payment_intents/pi_1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id":       "pi_1",
			"object":   "payment_intent",
			"status":   "succeeded",
			"amount":   300,
			"currency": "cny",
			"metadata": map[string]string{"document_id": "doc-1"},
		})
	}))

	intent, err := NewStripeGateway("sk_test_1", backends).GetIntent(context.Background(), "pi_1")
	if err != nil {
		t.Fatalf("GetIntent: %v", err)
	}
	if intent.Status != StatusSucceeded || intent.Metadata["document_id"] != "doc-1" {
		t.Fatalf("unexpected intent: %+v", intent)
	}
}
