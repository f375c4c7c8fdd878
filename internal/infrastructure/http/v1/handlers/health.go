package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether the document store can serve requests.
type Pinger interface {
	Ready(ctx context.Context) error
}

// HealthHandler serves the /health endpoints.
type HealthHandler struct {
	db      Pinger
	driver  string
	app     string
	version string
}

// NewHealthHandler creates a HealthHandler. driver is reported by Info only.
func NewHealthHandler(db Pinger, driver, app, version string) *HealthHandler {
	return &HealthHandler{db: db, driver: driver, app: app, version: version}
}

// Live always answers 200 while the process runs.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready answers 503 when the store cannot be reached, since no number can be
// allocated without it.
func (h *HealthHandler) Ready(c *gin.Context) {
	status, store := http.StatusOK, "healthy"
	if err := h.db.Ready(c.Request.Context()); err != nil {
		status, store = http.StatusServiceUnavailable, "unhealthy: "+err.Error()
	}

	body := gin.H{"status": "ok", "checks": gin.H{"database": store}}
	if status != http.StatusOK {
		body["status"] = "error"
	}
	c.JSON(status, body)
}

// Info reports build and backend details.
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"app":      h.app,
		"version":  h.version,
		"database": h.driver,
	})
}
