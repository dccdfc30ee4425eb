package router

import (
	"context"
	"net/http"
	"time"

	apphttp "vhc_backend/internal/http"
	"vhc_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	healthTimeout = 2 * time.Second
	apiRateLimit  = rate.Limit(20)
	apiRateBurst  = 40
)

// New builds the gin engine with shared middleware and every module's routes.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(cors.New(corsConfig(app.Config)))

	engine.GET("/api/health", healthHandler(app.Health))

	limiter := httpkit.NewIPRateLimiter(apiRateLimit, apiRateBurst, app.Logger)
	v1 := engine.Group("/api/v1")
	v1.Use(limiter.RateLimit())

	protected := v1.Group("")
	protected.Use(httpkit.AuthRequired(app.Config))

	rc := &apphttp.RouterContext{Public: v1, Protected: protected}
	for _, m := range app.Modules {
		m.RegisterRoutes(rc)
		app.Logger.Info("module routes registered", "module", m.Name())
	}

	return engine
}

func corsConfig(cfg apphttp.RouterConfig) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPatch, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: cfg.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	if cfg.GetCORSAllowAll() || len(cfg.GetCORSOrigins()) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.GetCORSOrigins()
	}
	return c
}

func healthHandler(checks []apphttp.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		for _, check := range checks {
			if check == nil {
				continue
			}
			if err := check.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
