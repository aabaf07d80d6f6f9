package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/railzwaylabs/planchange/internal/api/middleware"
	"github.com/railzwaylabs/planchange/internal/auth"
	"github.com/railzwaylabs/planchange/internal/config"
	"github.com/railzwaylabs/planchange/internal/domain/plan"
	"github.com/railzwaylabs/planchange/internal/planchange"
	"github.com/railzwaylabs/planchange/pkg/metrics"
)

// CatalogInvalidator drops cached catalog entries.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context) error
}

type Router struct {
	engine       *gin.Engine
	server       *http.Server
	cfg          *config.Config
	catalog      plan.Catalog
	invalidator  CatalogInvalidator
	orchestrator *planchange.Orchestrator
	authMW       *auth.Middleware
	metrics      *metrics.Metrics
	logger       *zap.Logger

	// streamInterval is how often a flow stream polls for changes.
	streamInterval time.Duration
}

func NewRouter(
	cfg *config.Config,
	catalog plan.Catalog,
	invalidator CatalogInvalidator,
	orchestrator *planchange.Orchestrator,
	authMW *auth.Middleware,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Router {
	// Disable GIN default logger
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Add recovery middleware
	r.Use(gin.Recovery())

	// Add custom middleware
	r.Use(middleware.RequestID())
	r.Use(m.Middleware())
	r.Use(middleware.Logger(logger))

	api := &Router{
		engine:         r,
		cfg:            cfg,
		catalog:        catalog,
		invalidator:    invalidator,
		orchestrator:   orchestrator,
		authMW:         authMW,
		metrics:        m,
		logger:         logger,
		streamInterval: time.Second,
	}

	api.RegisterRoutes()
	return api
}

func (r *Router) RegisterRoutes() {
	// Simple health check
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Prometheus metrics endpoint
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public catalog
	api := r.engine.Group("/api")
	{
		api.GET("/plans", r.ListPlans)
		api.GET("/plans/:id", r.GetPlan)
		api.POST("/proration/preview", r.authMW.Handler(), r.PreviewProration)
	}

	// Plan change flows (Protected)
	user := r.engine.Group("/user")
	user.Use(r.authMW.Handler())
	{
		user.GET("/subscription", r.GetSubscription)

		flows := user.Group("/plan-change")
		{
			flows.POST("", r.StartPlanChange)
			flows.GET("/:id", r.GetPlanChange)
			flows.GET("/:id/stream", r.StreamPlanChange)
			flows.POST("/:id/select", r.SelectPlan)
			flows.POST("/:id/proceed", r.ProceedPlanChange)
			flows.POST("/:id/confirm", r.ConfirmPlanChange)
			flows.POST("/:id/acknowledge", r.AcknowledgePlanChange)
			flows.POST("/:id/cancel", r.CancelPlanChange)
		}
	}

	// Admin Routes (Protected by ADMIN_API_TOKEN)
	admin := r.engine.Group("/admin")
	admin.Use(r.adminAuth())
	{
		admin.POST("/catalog/invalidate", r.InvalidateCatalog)
	}

	// SPA Fallback
	r.RegisterFallback()
}

// Handler exposes the engine for tests and embedding.
func (r *Router) Handler() http.Handler {
	return r.engine
}

func (r *Router) Run() error {
	r.server = &http.Server{
		Addr:         ":" + r.cfg.Port,
		Handler:      r.engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // flow streams are long-lived
		IdleTimeout:  60 * time.Second,
	}

	return r.server.ListenAndServe()
}

func (r *Router) adminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := strings.TrimSpace(r.cfg.AdminAPIToken)
		if expected == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin_token_not_configured"})
			return
		}

		provided := strings.TrimSpace(c.GetHeader("X-Admin-Token"))
		if provided == "" {
			authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
			if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
				provided = strings.TrimSpace(authHeader[7:])
			}
		}

		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// Shutdown gracefully shuts down the HTTP server
func (r *Router) Shutdown(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	return r.server.Shutdown(ctx)
}

// resolveOrgID reads the organization from the verified token. Clients never
// choose it.
func (r *Router) resolveOrgID(c *gin.Context) (int64, bool) {
	p, ok := auth.FromContext(c)
	if !ok || p.OrgID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, false
	}
	return p.OrgID, true
}
