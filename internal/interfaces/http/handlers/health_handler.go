package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/FigureLens/internal/infrastructure/monitoring/logging"
)

// HealthChecker probes one dependency.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to HealthChecker.
type CheckerFunc struct {
	CheckerName string
	Fn          func(ctx context.Context) error
}

func (c CheckerFunc) Name() string                    { return c.CheckerName }
func (c CheckerFunc) Check(ctx context.Context) error { return c.Fn(ctx) }

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	checkers []HealthChecker
	logger   logging.Logger
}

// NewHealthHandler builds the probe handler.  Checkers run on readiness only;
// liveness never touches dependencies.
func NewHealthHandler(log logging.Logger, checkers ...HealthChecker) *HealthHandler {
	return &HealthHandler{checkers: checkers, logger: log.Named("http.health")}
}

// Live answers the liveness probe.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready answers the readiness probe, running every dependency check with a
// short timeout.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checkers))
	for _, chk := range h.checkers {
		if err := chk.Check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[chk.Name()] = err.Error()
			h.logger.Warn("Readiness check failed",
				logging.String("checker", chk.Name()),
				logging.Err(err),
			)
			continue
		}
		results[chk.Name()] = "ok"
	}

	overall := "ready"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{"status": overall, "checks": results})
}
