package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"doc-analyzer/internal/analyses"
	"doc-analyzer/internal/documents"
	"doc-analyzer/internal/services/health"
	"doc-analyzer/internal/shared/config"
	"doc-analyzer/internal/shared/metrics"
	"doc-analyzer/internal/shared/server/middleware"
	"doc-analyzer/internal/shared/server/respond"
)

const (
	rateGroupUpload  = "UPLOAD"
	rateGroupPayment = "PAYMENT"
)

// RouterDeps carries the handlers mounted by NewRouter.
type RouterDeps struct {
	Config          config.Config
	Health          *health.Service
	DocumentHandler *documents.Handler
	AnalysisHandler *analyses.Handler
	RateLimiter     *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Session(),
		middleware.RateLimit(rateLimitConfig(deps.Config, deps.RateLimiter)),
	)

	if deps.Health != nil {
		r.GET("/health", deps.Health.Handler())
	} else {
		r.GET("/health", func(c *gin.Context) {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
		})
	}
	r.GET("/metrics", metrics.Handler())

	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(r)
	}
	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.RegisterRoutes(r)
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "Not found", nil)
	})

	return r
}

// rateLimitConfig limits only the two endpoints that spend storage or money.
// A zero RATE_LIMIT_RPS disables limiting.
func rateLimitConfig(cfg config.Config, limiter *middleware.RateLimiter) middleware.RateLimitConfig {
	rules := map[string]middleware.RateLimitRule{}
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		rule := middleware.RateLimitRule{Rate: cfg.RateLimitRPS, Burst: burst}
		rules[rateGroupUpload] = rule
		rules[rateGroupPayment] = rule
	}
	return middleware.RateLimitConfig{
		Rules:   rules,
		Limiter: limiter,
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method != http.MethodPost {
				return ""
			}
			switch c.Request.URL.Path {
			case "/upload":
				return rateGroupUpload
			case "/payment/success":
				return rateGroupPayment
			}
			return ""
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
