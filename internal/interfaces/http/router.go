package http

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/patent-normalizer/internal/interfaces/http/handlers"
	"github.com/turtacn/patent-normalizer/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies of the
// route tree.  Nil handlers leave their routes unregistered; nil
// middleware is skipped.
type RouterConfig struct {
	// Handlers
	ParseHandler    *handlers.ParseHandler
	LookupHandler   *handlers.LookupHandler
	DocumentHandler *handlers.DocumentHandler
	HealthHandler   *handlers.HealthHandler

	// Middleware
	CORS        *middleware.CORSConfig
	Logging     *middleware.LoggingConfig
	RateLimiter middleware.RateLimiter
	RateLimit   middleware.RateLimitConfig
	Metrics     *prometheus.NormalizerMetrics
	MaxBodySize int64

	// Infrastructure
	Logger           logging.Logger
	MetricsCollector prometheus.MetricsCollector
	// MetricsPath defaults to /metrics.
	MetricsPath string
}

// NewRouter builds the route tree.  Global middleware order is
// Recovery, RequestID, CORS, Logging, Metrics, RateLimit.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(gin.Recovery(), middleware.RequestID())
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	if cfg.Logger != nil {
		lc := middleware.DefaultLoggingConfig()
		if cfg.Logging != nil {
			lc = *cfg.Logging
		}
		r.Use(middleware.RequestLogging(cfg.Logger, lc))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimit(cfg.RateLimiter, cfg.RateLimit))
	}

	if h := cfg.HealthHandler; h != nil {
		r.GET("/healthz", h.Liveness)
		r.GET("/readyz", h.Readiness)
	}
	if cfg.MetricsCollector != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	api := r.Group("/api/v1")
	registerParseRoutes(api, cfg.ParseHandler, cfg.MaxBodySize)
	registerLookupRoutes(api, cfg.LookupHandler)
	registerDocumentRoutes(api, cfg.DocumentHandler)

	return r
}

func registerParseRoutes(g *gin.RouterGroup, h *handlers.ParseHandler, maxBody int64) {
	if h == nil {
		return
	}
	if maxBody > 0 {
		g = g.Group("", middleware.BodyLimit(maxBody))
	}
	g.POST("/parse", h.Parse)
	g.POST("/detect", h.Detect)
}

func registerLookupRoutes(g *gin.RouterGroup, h *handlers.LookupHandler) {
	if h == nil {
		return
	}
	g.GET("/classifications/:standard/*code", h.Classification)
	g.GET("/document-ids/*text", h.DocumentID)
}

func registerDocumentRoutes(g *gin.RouterGroup, h *handlers.DocumentHandler) {
	if h == nil {
		return
	}
	g.GET("/documents/:id", h.Get)
	g.GET("/search", h.Search)
	g.GET("/facets/:standard", h.Facets)
}

//Personal.AI order the ending
