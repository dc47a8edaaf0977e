package handler

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lifeguard-api/internal/service"
	appErrors "github.com/noah-isme/lifeguard-api/pkg/errors"
)

// CheckFunc reports whether a dependency is reachable.
type CheckFunc func(ctx context.Context) error

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	checks  map[string]CheckFunc
	timeout time.Duration
}

// NewMetricsHandler constructs a metrics handler. Readiness runs every check in checks.
func NewMetricsHandler(metrics *service.MetricsService, checks map[string]CheckFunc) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, checks: checks, timeout: 2 * time.Second}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health godoc
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready godoc
// @Summary Readiness probe checking the database and cache
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /ready [get]
func (h *MetricsHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]string, len(names))
	var failed []string
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			failed = append(failed, name)
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}

	if len(failed) > 0 {
		appErr := appErrors.Clone(appErrors.ErrServiceUnavailable, "dependency check failed: "+strings.Join(failed, ", "))
		c.JSON(appErr.Status, gin.H{"status": "unavailable", "checks": results, "error": appErr})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": results})
}
