package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/FigureLens/internal/infrastructure/monitoring/logging"
)

// LoggingConfig tunes the request logging middleware.
type LoggingConfig struct {
	// SkipPaths suppresses logging for high-frequency endpoints such as
	// health checks and metrics scrapes.
	SkipPaths []string

	// SlowThreshold promotes requests slower than this to warn level.
	SlowThreshold time.Duration
}

// RequestLogging logs one line per request with method, path, status and
// latency.  5xx log at error level, 4xx and slow requests at warn.
func RequestLogging(log logging.Logger, cfg LoggingConfig) gin.HandlerFunc {
	if cfg.SlowThreshold <= 0 {
		cfg.SlowThreshold = 2 * time.Second
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		status := c.Writer.Status()
		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", status),
			logging.Int64("duration_ms", elapsed.Milliseconds()),
			logging.Int("bytes", c.Writer.Size()),
			logging.String("request_id", GetRequestID(c)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logging.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			log.Error("HTTP request failed", fields...)
		case status >= 400 || elapsed > cfg.SlowThreshold:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}
