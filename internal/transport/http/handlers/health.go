package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ReadinessProbe reports whether a dependency is reachable.
type ReadinessProbe func(ctx context.Context) error

// HealthHandler exposes liveness and readiness endpoints.
type HealthHandler struct {
	startedAt time.Time
	probes    map[string]ReadinessProbe
}

// NewHealthHandler builds a new health handler instance.
func NewHealthHandler(probes map[string]ReadinessProbe) *HealthHandler {
	return &HealthHandler{
		startedAt: time.Now().UTC(),
		probes:    probes,
	}
}

// Status godoc
// @Summary Service health check
// @Description Returns the status and start time of the service.
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /healthz [get]
func (h *HealthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		StartedAt: h.startedAt,
	})
}

// Ready godoc
// @Summary Service readiness check
// @Description Verifies connectivity to backing services.
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /readyz [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	result := make(map[string]string, len(h.probes)+1)
	for name, probe := range h.probes {
		if err := probe(ctx); err != nil {
			result[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		result[name] = "ok"
	}

	if status == http.StatusOK {
		result["status"] = "ready"
	} else {
		result["status"] = "unavailable"
	}

	c.JSON(status, result)
}
