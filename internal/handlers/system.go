package handlers

import (
	"context"
	"net/http"
	"time"

	"sentinel/internal/manager"
	"sentinel/internal/models"
	"sentinel/internal/version"

	"github.com/gin-gonic/gin"
)

// SystemHandlers serves unauthenticated health, status and host metrics.
type SystemHandlers struct {
	manager *manager.Manager
}

func NewSystemHandlers(mgr *manager.Manager) *SystemHandlers {
	return &SystemHandlers{manager: mgr}
}

func (h *SystemHandlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": h.manager.Config.AppName + " Backend is running.",
		"version": version.APIVersion,
		"docs":    "/docs",
	})
}

func (h *SystemHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": h.manager.Config.AppName + " Backend"})
}

func (h *SystemHandlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz reports whether the user database answers.
func (h *SystemHandlers) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.manager.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}

func (h *SystemHandlers) Version(c *gin.Context) {
	c.JSON(http.StatusOK, version.Current())
}

func (h *SystemHandlers) APIStatus(c *gin.Context) {
	c.JSON(http.StatusOK, models.SystemStatus{
		Status:    "operational",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion,
	})
}

// APIMetrics returns the latest host sample, taking one on demand when the
// background sampler has not produced any yet.
func (h *SystemHandlers) APIMetrics(c *gin.Context) {
	sample := h.manager.Host.Latest()
	if sample == nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		h.manager.Host.Refresh(ctx)
		sample = h.manager.Host.Latest()
	}
	c.JSON(http.StatusOK, sample.MetricsResponse())
}
