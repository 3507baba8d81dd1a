package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"doc-analyzer/internal/analyses"
	"doc-analyzer/internal/documents"
	"doc-analyzer/internal/llm"
	openai "doc-analyzer/internal/llm/openai"
	"doc-analyzer/internal/payments"
	"doc-analyzer/internal/report"
	"doc-analyzer/internal/services/health"
	"doc-analyzer/internal/shared/config"
	"doc-analyzer/internal/shared/server"
	"doc-analyzer/internal/shared/server/middleware"
	"doc-analyzer/internal/shared/storage/db"
	"doc-analyzer/internal/shared/storage/object"
	localstore "doc-analyzer/internal/shared/storage/object/local"
	miniostore "doc-analyzer/internal/shared/storage/object/minio"
	s3store "doc-analyzer/internal/shared/storage/object/s3"
	"doc-analyzer/internal/shared/telemetry"
	"doc-analyzer/internal/sweeper"
)

const (
	devPublishableKey = "pk_dev_local"
	analysisTimeout   = 2 * time.Minute
)

// App holds shared dependencies.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Store            object.ObjectStore
	Gateway          payments.Gateway
	DocumentsRepo    documents.DocumentsRepo
	PaymentsRepo     payments.PaymentsRepo
	DocumentsService *documents.Service
	PaymentsService  *payments.Service
	AnalysesService  *analyses.Service
	DocumentsHandler *documents.Handler
	AnalysisHandler  *analyses.Handler
	Health           *health.Service
	Sweeper          *sweeper.Sweeper
}

// Overrides replaces external collaborators, for tests and local tooling.
type Overrides struct {
	Store   object.ObjectStore
	Gateway payments.Gateway
	LLM     llm.Client
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	return BuildWith(context.Background(), cfg, Overrides{})
}

// BuildWith is Build with collaborators from ov used in place of the configured ones.
func BuildWith(ctx context.Context, cfg config.Config, ov Overrides) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store := ov.Store
	if store == nil {
		if store, err = buildStore(ctx, cfg); err != nil {
			return nil, err
		}
	}

	gateway := ov.Gateway
	if gateway == nil {
		gateway = buildGateway(cfg)
	}

	llmClient := ov.LLM
	if llmClient == nil {
		if llmClient, err = buildLLM(cfg); err != nil {
			return nil, err
		}
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Store:   store,
		Gateway: gateway,
	}
	if err := buildServices(app, llmClient); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		Health:          app.Health,
		DocumentHandler: app.DocumentsHandler,
		AnalysisHandler: app.AnalysisHandler,
		RateLimiter:     middleware.NewRateLimiter(nil),
	})

	return app, nil
}

// Close releases the database connection.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Info("bootstrap.memory_repos", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "database connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}

	if isDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "minio":
		return miniostore.New(ctx, miniostore.Options{
			Endpoint:  cfg.MinioEndpoint,
			Region:    cfg.AWSRegion,
			Bucket:    cfg.MinioBucket,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildGateway(cfg config.Config) payments.Gateway {
	if cfg.PaymentProvider == "stripe" {
		return payments.NewStripeGateway(cfg.StripeSecretKey, nil)
	}
	return payments.NewDevGateway()
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	if cfg.LLMProvider != "openai" {
		return llm.StaticClient{}, nil
	}
	client, err := openai.NewClient(openai.Options{
		APIKey:        cfg.OpenAIAPIKey,
		Model:         cfg.LLMModel,
		MaxInputRunes: cfg.LLMMaxInputRunes,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func buildServices(app *App, llmClient llm.Client) error {
	var docRepo documents.DocumentsRepo
	var paymentRepo payments.PaymentsRepo
	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		paymentRepo = &payments.PGRepo{DB: app.DB}
	} else {
		docRepo = documents.NewMemoryRepo()
		paymentRepo = payments.NewMemoryRepo()
	}

	docSvc := &documents.Service{
		Store:          app.Store,
		Repo:           docRepo,
		MaxUploadBytes: app.Config.MaxUploadBytes,
	}

	publishableKey := app.Config.StripePublishableKey
	if publishableKey == "" && app.Config.PaymentProvider != "stripe" {
		publishableKey = devPublishableKey
	}
	paySvc := &payments.Service{
		Gateway:             app.Gateway,
		Repo:                paymentRepo,
		PublishableKey:      publishableKey,
		Amount:              app.Config.PriceAmount,
		Currency:            app.Config.PriceCurrency,
		PaymentMethodConfig: app.Config.StripePaymentMethodConfig,
	}

	analysisSvc := &analyses.Service{
		Docs:     docSvc,
		Payments: paySvc,
		LLM:      llmClient,
		Report:   report.Renderer{FontPath: app.Config.PDFFontPath},
		Timeout:  analysisTimeout,
	}

	app.DocumentsRepo = docRepo
	app.PaymentsRepo = paymentRepo
	app.DocumentsService = docSvc
	app.PaymentsService = paySvc
	app.AnalysesService = analysisSvc
	app.DocumentsHandler = documents.NewHandler(docSvc, paySvc)
	app.AnalysisHandler = analyses.NewHandler(analysisSvc)
	app.Health = health.NewService(app.DB)
	app.Sweeper = sweeper.New(docSvc, app.Config.UnpaidTTL)

	if app.DocumentsHandler == nil || app.AnalysisHandler == nil {
		return errors.New("failed to initialize handlers")
	}
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
