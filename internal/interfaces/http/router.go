// Package http wires the gin route tree and server lifecycle for the
// recognition API.
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/FigureLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FigureLens/internal/interfaces/http/handlers"
	"github.com/turtacn/FigureLens/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and infrastructure the route tree
// needs.
type RouterConfig struct {
	RecognitionHandler *handlers.RecognitionHandler
	CatalogHandler     *handlers.CatalogHandler
	HealthHandler      *handlers.HealthHandler

	Logger   logging.Logger
	Registry *prometheus.Registry // nil disables the /metrics endpoint
	Mode     string               // gin mode: debug, release or test
}

// NewRouter constructs the complete route tree.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(middleware.CORSConfig{}))
	r.Use(middleware.RequestLogging(cfg.Logger, middleware.LoggingConfig{
		SkipPaths: []string{"/healthz", "/readyz", "/metrics"},
	}))
	r.Use(middleware.NewHTTPMetrics(registererOrNil(cfg.Registry)).Middleware())

	r.GET("/healthz", cfg.HealthHandler.Live)
	r.GET("/readyz", cfg.HealthHandler.Ready)
	if cfg.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/catalog", cfg.CatalogHandler.List)
		v1.GET("/catalog/:id", cfg.CatalogHandler.Get)

		rec := v1.Group("/recognitions")
		rec.POST("/image", cfg.RecognitionHandler.RecognizeImage)
		rec.POST("/text", cfg.RecognitionHandler.RecognizeText)
		rec.POST("/multimodal", cfg.RecognitionHandler.RecognizeMultiModal)
	}

	return r
}

func registererOrNil(reg *prometheus.Registry) prometheus.Registerer {
	if reg == nil {
		return nil
	}
	return reg
}
