package health

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"doc-analyzer/internal/shared/storage/db"
	"doc-analyzer/internal/shared/telemetry"
)

// Service encapsulates health-related checks.
type Service struct {
	DB          *sql.DB
	PingTimeout time.Duration
}

// NewService constructs a new health service. conn may be nil when running on memory repos.
func NewService(conn *sql.DB) *Service {
	return &Service{DB: conn, PingTimeout: 2 * time.Second}
}

// Status reports overall health and, when a database is configured, its reachability.
func (s *Service) Status(ctx context.Context) (map[string]any, bool) {
	out := map[string]any{"ok": true}
	if s == nil || s.DB == nil {
		out["database"] = "memory"
		return out, true
	}
	if err := db.Ping(ctx, s.DB, s.PingTimeout); err != nil {
		telemetry.Warn("health.db_unreachable", map[string]any{"error": err.Error()})
		out["ok"] = false
		out["database"] = "unreachable"
		return out, false
	}
	out["database"] = "ok"
	return out, true
}

// Handler serves GET /health.
func (s *Service) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status, ok := s.Status(c.Request.Context())
		code := http.StatusOK
		if !ok {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	}
}
