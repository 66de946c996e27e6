package cli

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/turtacn/patent-normalizer/internal/bootstrap"
	httpapi "github.com/turtacn/patent-normalizer/internal/interfaces/http"
	"github.com/turtacn/patent-normalizer/internal/interfaces/http/handlers"
	"github.com/turtacn/patent-normalizer/internal/interfaces/http/middleware"
)

func newServeCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if port > 0 {
				c.Config.Server.Port = port
			}
			ctx, cancel := commandContext(cmd, c)
			defer cancel()
			rt, err := c.Runtime(ctx)
			if err != nil {
				return err
			}
			defer c.Close()
			return RunServer(ctx, rt)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port; overrides server.port")
	return cmd
}

// healthCheckers adapts the runtime readiness checks.
func healthCheckers(rt *bootstrap.Runtime) []handlers.HealthChecker {
	out := make([]handlers.HealthChecker, 0, len(rt.Checks))
	for _, ch := range rt.Checks {
		out = append(out, handlers.CheckFunc{CheckName: ch.Name, Fn: ch.Fn})
	}
	return out
}

// NewAPIRouter builds the HTTP API over rt.
func NewAPIRouter(rt *bootstrap.Runtime) *gin.Engine {
	cfg := rt.Config
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	var searcher handlers.Searcher
	if rt.Searcher != nil {
		searcher = rt.Searcher
	}
	rc := httpapi.RouterConfig{
		ParseHandler:    handlers.NewParseHandler(rt.Service),
		LookupHandler:   handlers.NewLookupHandler(cfg.Parser.KeepLeadingZeros),
		DocumentHandler: handlers.NewDocumentHandler(rt.Service, searcher),
		HealthHandler:   handlers.NewHealthHandler(Version, healthCheckers(rt)...),
		Metrics:         rt.Metrics,
		MaxBodySize:     cfg.Server.MaxBodySize,
		Logger:          rt.Logger,
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		cors := middleware.DefaultCORSConfig()
		cors.AllowedOrigins = cfg.Server.CORSOrigins
		rc.CORS = &cors
	}
	if cfg.Server.RateLimit > 0 {
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.Server.RateLimit
		if cfg.Server.RateBurst > 0 {
			rl.BurstSize = cfg.Server.RateBurst
		}
		if cfg.Metrics.Path != "" {
			rl.SkipPaths = append(rl.SkipPaths, cfg.Metrics.Path)
		}
		rc.RateLimit = rl
		rc.RateLimiter = middleware.NewTokenBucketLimiter(rl)
	}
	if cfg.Metrics.Enabled {
		rc.MetricsCollector = rt.Collector
		rc.MetricsPath = cfg.Metrics.Path
	}
	return httpapi.NewRouter(rc)
}

// RunServer serves the HTTP API until ctx is done, then shuts down
// gracefully.
func RunServer(ctx context.Context, rt *bootstrap.Runtime) error {
	router := NewAPIRouter(rt)
	srv := httpapi.NewServer(rt.Config.Server, router, rt.Logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	return srv.Stop(context.Background())
}

//Personal.AI order the ending
