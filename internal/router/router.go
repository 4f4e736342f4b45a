package router

import (
	"net/http"

	"fanout/internal/common"
	"fanout/internal/config"
	"fanout/internal/domain/notification"
	"fanout/internal/infra/metrics"
	"fanout/internal/middleware"

	"github.com/gin-gonic/gin"
)

// New creates and configures the Gin router with all middleware and routes.
// prom may be nil, in which case neither /metrics nor request metrics are installed.
func New(
	cfg *config.Config,
	notificationHandler *notification.Handler,
	prom *metrics.Prometheus,
) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()

	// Global middleware stack (order matters)
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	if prom != nil {
		r.Use(middleware.Metrics(prom))
	}
	r.Use(middleware.CORS(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
	))

	if cfg.RateLimit.RequestsPerSecond > 0 {
		rateLimiter := middleware.NewRateLimiter(
			cfg.RateLimit.RequestsPerSecond,
			cfg.RateLimit.Burst,
		)
		r.Use(rateLimiter.Middleware())
	}

	// Public routes
	r.GET("/health", healthCheck)
	if prom != nil {
		r.GET("/metrics", gin.WrapH(prom.Handler()))
	}

	// API routes, key-protected when keys are configured
	api := r.Group("/api/v1")
	api.Use(middleware.Auth(cfg.Auth.APIKeys))
	notificationHandler.RegisterRoutes(api)

	r.NoRoute(func(c *gin.Context) {
		common.Error(c, http.StatusNotFound, "route not found")
	})

	return r
}

// healthCheck handles GET /health
func healthCheck(c *gin.Context) {
	common.Success(c, http.StatusOK, "", gin.H{
		"status":  "ok",
		"service": "fanout",
	})
}
