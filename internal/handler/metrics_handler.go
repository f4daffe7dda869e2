package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hiufpe/hub-api/internal/service"
	appErrors "github.com/hiufpe/hub-api/pkg/errors"
	"github.com/hiufpe/hub-api/pkg/response"
)

var errReconcileDisabled = appErrors.New("RECONCILE_DISABLED", http.StatusServiceUnavailable, "reconciliation is not enabled")

// MetricsHandler exposes observability and maintenance endpoints.
type MetricsHandler struct {
	metrics   *service.MetricsService
	reconcile *service.ReconcileService
}

// NewMetricsHandler constructs a metrics handler. reconcile may be nil.
func NewMetricsHandler(metrics *service.MetricsService, reconcile *service.ReconcileService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, reconcile: reconcile}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for readiness/liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Snapshot godoc
// @Summary Aggregated service counters
// @Tags System
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /system/metrics [get]
func (h *MetricsHandler) Snapshot(c *gin.Context) {
	payload := gin.H{"metrics": h.metrics.Snapshot()}
	if h.reconcile != nil {
		payload["reconcile"] = h.reconcile.Stats()
	}
	response.OK(c, payload)
}

// Reconcile godoc
// @Summary Queue a recomputation of every enrollment
// @Tags System
// @Produce json
// @Security BearerAuth
// @Success 202 {object} response.Envelope
// @Router /system/reconcile [post]
func (h *MetricsHandler) Reconcile(c *gin.Context) {
	if h.reconcile == nil {
		response.Error(c, errReconcileDisabled)
		return
	}
	queued, err := h.reconcile.Sweep(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"queued": queued})
}
