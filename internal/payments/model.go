package payments

import "time"

// StatusSucceeded is the provider status of a captured payment.
const StatusSucceeded = "succeeded"

// MetadataService tags intents created for document analysis.
const MetadataService = "document_analysis"

// Payment is a verified payment recorded against a document.
type Payment struct {
	ID                string
	DocumentID        string
	ProviderPaymentID string
	Amount            int64
	Currency          string
	Status            string
	CreatedAt         time.Time
}

// Intent is the provider's view of a payment intent.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
	Metadata     map[string]string
}

// IntentParams describes an intent to create.
type IntentParams struct {
	Amount   int64
	Currency string
	Metadata map[string]string
	// PaymentMethodConfiguration selects a provider-side payment method set when non-empty.
	PaymentMethodConfiguration string
}

// Checkout is handed to the client so it can confirm the payment itself.
type Checkout struct {
	IntentID       string
	ClientSecret   string
	PublishableKey string
	Amount         int64
	Currency       string
}
