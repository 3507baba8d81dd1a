package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaultsValidate(t *testing.T) {
	chdir(t, t.TempDir())

	cfg := Load()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.PriceAmount != 300 || cfg.PriceCurrency != "cny" {
		t.Fatalf("unexpected price: %d %s", cfg.PriceAmount, cfg.PriceCurrency)
	}
	if cfg.MaxUploadBytes != 20*1024*1024 {
		t.Fatalf("unexpected max upload: %d", cfg.MaxUploadBytes)
	}
	if cfg.UnpaidTTL != 24*time.Hour {
		t.Fatalf("unexpected unpaid ttl: %s", cfg.UnpaidTTL)
	}
	if cfg.PaymentProvider != "dev" || cfg.LLMProvider != "static" {
		t.Fatalf("unexpected providers: %s %s", cfg.PaymentProvider, cfg.LLMProvider)
	}
}

func TestValidateRequiresStripeKeys(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PAYMENT_PROVIDER", "stripe")

	cfg := Load()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error without stripe keys")
	}

	t.Setenv("STRIPE_SECRET_KEY", "sk_test_1")
	t.Setenv("STRIPE_PUBLISHABLE_KEY", "pk_test_1")
	if err := Load().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRequiresDatabaseInProduction(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ENV", "prod")

	if err := Load().Validate(); err == nil {
		t.Fatalf("expected validation error without DATABASE_URL")
	}
}

func TestInvalidNumbersFallBack(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PRICE_AMOUNT", "three")
	t.Setenv("UNPAID_TTL", "-1h")

	cfg := Load()
	if cfg.PriceAmount != 300 {
		t.Fatalf("expected fallback price, got %d", cfg.PriceAmount)
	}
	if cfg.UnpaidTTL != 24*time.Hour {
		t.Fatalf("expected fallback ttl, got %s", cfg.UnpaidTTL)
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
