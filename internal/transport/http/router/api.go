package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"library-lending/internal/core/config"
	"library-lending/internal/core/server"
	mdw "library-lending/internal/transport/http/middleware"
	resp "library-lending/internal/transport/http/response"
	"library-lending/internal/transport/http/validate"
)

// Health reports whether a dependency is reachable.
type Health func(ctx context.Context) error

type EngineOptions struct {
	Server server.Options
	Limits config.Limits
	Health Health
}

const slowRequest = time.Second

func newEngine(l *zap.Logger, o EngineOptions) *gin.Engine {
	validate.Register()

	r := server.NewRouter(l, o.Server)
	lim := o.Limits
	r.Use(
		mdw.RequestID(),
		mdw.AccessLog(l, slowRequest),
		mdw.Metrics(o.Server.Name),
	)
	if lim.GlobalRPS > 0 {
		r.Use(mdw.RateLimit(rate.Limit(lim.GlobalRPS), lim.GlobalBurst))
	}
	if lim.PerIPRPS > 0 {
		r.Use(mdw.RateLimitPerIP(rate.Limit(lim.PerIPRPS), lim.PerIPBurst))
	}
	if lim.MaxInFlight > 0 {
		r.Use(mdw.ConcurrencyLimit(lim.MaxInFlight))
	}
	if lim.MaxBodyBytes > 0 {
		r.Use(mdw.MaxBodyBytes(lim.MaxBodyBytes))
	}
	if lim.RequestTimeoutSec > 0 {
		r.Use(mdw.Timeout(time.Duration(lim.RequestTimeoutSec) * time.Second))
	}

	r.GET("/healthz", func(c *gin.Context) {
		if o.Health != nil {
			if err := o.Health(c.Request.Context()); err != nil {
				l.Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, resp.Error(resp.CodeServerBusy, "unhealthy"))
				return
			}
		}
		c.JSON(http.StatusOK, resp.OK(gin.H{"ok": 1}))
	})
	r.GET("/metrics", mdw.MetricsHandler())
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, resp.Error(resp.CodeNotFound, "route not found"))
	})
	return r
}

// NewAPIEngine serves the member and librarian API under /api/v1.
func NewAPIEngine(l *zap.Logger, o EngineOptions, reg *Registry) *gin.Engine {
	r := newEngine(l, o)
	reg.MountAllAPI(r.Group("/api/v1"))
	return r
}
