package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/site-analytics/internal/auth"
	"github.com/PratikDhanave/site-analytics/internal/config"
	"github.com/PratikDhanave/site-analytics/internal/handlers"
	"github.com/PratikDhanave/site-analytics/internal/metrics"
)

// Store is what the router needs from the configured backend.
type Store interface {
	handlers.RankingsReader
	Ping(ctx context.Context) error
}

// NewRouter wires public endpoints and authenticated APIs.
// Public: /health, /ready, /metrics, POST /api/send
// Authenticated: GET /api/website/:websiteId/rankings
func NewRouter(cfg config.Config, st Store, events handlers.EventSaver) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: confirms the configured backend is reachable.
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "backend": cfg.Backend})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	handlers.RegisterEventRoutes(r, events)

	// Website group enforces X-API-Key -> website access.
	websiteGroup := r.Group("/api/website/:" + auth.WebsiteParam)
	websiteGroup.Use(auth.WebsiteKeyMiddleware(cfg.APIKeys))

	handlers.RegisterRankingRoutes(websiteGroup, st)

	return r
}
