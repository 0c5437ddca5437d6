package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/teacher-ratings-api/internal/service"
)

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics  *service.MetricsService
	teachers *service.TeacherService
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, teachers *service.TeacherService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, teachers: teachers}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	if h.teachers != nil {
		h.metrics.SetTeacherCount(h.teachers.Count(c.Request.Context()))
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness checks.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports how many teachers are loaded.
func (h *MetricsHandler) Ready(c *gin.Context) {
	count := 0
	if h.teachers != nil {
		count = h.teachers.Count(c.Request.Context())
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "teachers": count})
}
