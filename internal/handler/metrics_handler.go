package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-api/internal/service"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
	"github.com/noah-isme/classroom-api/pkg/response"
)

const readinessTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	db      Pinger
	now     func() time.Time
}

// NewMetricsHandler constructs a metrics handler. db may be nil, in which
// case readiness always succeeds.
func NewMetricsHandler(metrics *service.MetricsService, db Pinger) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, db: db, now: time.Now}
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
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"message":   "Teacher-Student API is running",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// Ready godoc
// @Summary Readiness probe
// @Description Pings the database.
// @Tags Health
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /ready [get]
func (h *MetricsHandler) Ready(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			response.Error(c, appErrors.Wrap(err, "NOT_READY", http.StatusServiceUnavailable, "database unavailable"))
			return
		}
	}
	response.OK(c, gin.H{"status": "ready"})
}

// NotFound renders unmatched routes with the error envelope.
func NotFound(c *gin.Context) {
	response.Error(c, appErrors.WithDetails(
		appErrors.Clone(appErrors.ErrNotFound, "route not found"),
		c.Request.Method+" "+c.Request.URL.Path,
	))
}
