package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds application configuration.
type Config struct {
	Port            string   `validate:"required,numeric"`
	Env             string   `validate:"oneof=dev local staging production"`
	DatabaseURL     string   `validate:"required_if=Env production"`
	CORSAllowOrigin []string `validate:"dive,required"`

	ObjectStoreType string `validate:"oneof=local s3 minio"`
	LocalStoreDir   string `validate:"required_if=ObjectStoreType local"`
	AWSRegion       string
	S3Bucket        string `validate:"required_if=ObjectStoreType s3"`
	S3Prefix        string
	SSEKMSKeyID     string
	MinioEndpoint   string `validate:"required_if=ObjectStoreType minio"`
	MinioAccessKey  string
	MinioSecretKey  string
	MinioBucket     string `validate:"required_if=ObjectStoreType minio"`
	MinioUseSSL     bool

	LLMProvider      string `validate:"oneof=openai static"`
	LLMModel         string
	LLMMaxInputRunes int `validate:"gt=0"`
	OpenAIAPIKey     string

	PaymentProvider           string `validate:"oneof=stripe dev"`
	StripeSecretKey           string `validate:"required_if=PaymentProvider stripe"`
	StripePublishableKey      string `validate:"required_if=PaymentProvider stripe"`
	StripePaymentMethodConfig string
	PriceAmount               int64  `validate:"gt=0"`
	PriceCurrency             string `validate:"len=3"`
	MaxUploadBytes            int64  `validate:"gt=0"`
	PDFFontPath               string `validate:"omitempty,file"`
	SweepSchedule             string `validate:"required"`
	UnpaidTTL                 time.Duration
	RateLimitRPS              float64 `validate:"gte=0"`
	RateLimitBurst            int     `validate:"gte=0"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		DatabaseURL:     dbURL,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
		MinioEndpoint:   getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:  getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:  getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:     getEnv("MINIO_BUCKET", "documents"),
		MinioUseSSL:     getBool("MINIO_USE_SSL", false),

		LLMProvider:      normalizeLLMProvider(getEnv("LLM_PROVIDER", "static")),
		LLMModel:         getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMMaxInputRunes: getInt("LLM_MAX_INPUT_RUNES", 24000),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),

		PaymentProvider:           normalizePaymentProvider(getEnv("PAYMENT_PROVIDER", "dev")),
		StripeSecretKey:           getEnv("STRIPE_SECRET_KEY", ""),
		StripePublishableKey:      getEnv("STRIPE_PUBLISHABLE_KEY", ""),
		StripePaymentMethodConfig: getEnv("STRIPE_PAYMENT_METHOD_CONFIG", ""),
		PriceAmount:               int64(getInt("PRICE_AMOUNT", 300)),
		PriceCurrency:             strings.ToLower(getEnv("PRICE_CURRENCY", "cny")),
		MaxUploadBytes:            int64(getInt("MAX_UPLOAD_BYTES", 20*1024*1024)),
		PDFFontPath:               getEnv("PDF_FONT_PATH", ""),
		SweepSchedule:             getEnv("SWEEP_SCHEDULE", "@every 1h"),
		UnpaidTTL:                 getDuration("UNPAID_TTL", 24*time.Hour),
		RateLimitRPS:              getFloat("RATE_LIMIT_RPS", 1),
		RateLimitBurst:            getInt("RATE_LIMIT_BURST", 5),
	}
}

// Validate checks the loaded values against their constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: %s=%q is not an integer, using %d", key, raw, def)
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config: %s=%q is not a number, using %g", key, raw, def)
		return def
	}
	return f
}

func getBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("config: %s=%q is not a positive duration, using %s", key, raw, def)
		return def
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "minio":
		return "minio"
	default:
		return "local"
	}
}

func normalizeLLMProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	default:
		return "static"
	}
}

func normalizePaymentProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "stripe":
		return "stripe"
	default:
		return "dev"
	}
}
