package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is anything whose liveness the health check reports
type Pinger interface {
	Health(ctx context.Context) error
}

// HealthHandler reports service and dependency status
type HealthHandler struct {
	database Pinger
	version  string
}

// NewHealthHandler creates a health handler; database may be nil when running on the file store
func NewHealthHandler(database Pinger, version string) *HealthHandler {
	return &HealthHandler{database: database, version: version}
}

// Health handles GET /health. A failing database degrades the status but still answers 200.
func (h *HealthHandler) Health(c *gin.Context) {
	status := "healthy"
	dbStatus := "not_configured"

	if h.database != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.database.Health(ctx); err != nil {
			status = "degraded"
			dbStatus = "unavailable"
		} else {
			dbStatus = "ok"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"database": dbStatus,
		"version":  h.version,
		"time":     time.Now().UTC(),
	})
}
