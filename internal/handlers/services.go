package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"sentinel/internal/manager"
	"sentinel/internal/middleware"
	"sentinel/internal/models"
	"sentinel/internal/status"

	"github.com/gin-gonic/gin"
)

// ServiceHandlers serves the service directory and per-service dashboard data.
type ServiceHandlers struct {
	manager *manager.Manager
	metrics *middleware.Metrics
}

func NewServiceHandlers(mgr *manager.Manager, metrics *middleware.Metrics) *ServiceHandlers {
	return &ServiceHandlers{manager: mgr, metrics: metrics}
}

// APIServices lists the directory in insertion order.
func (h *ServiceHandlers) APIServices(c *gin.Context) {
	services := h.manager.Directory.List()
	c.JSON(http.StatusOK, gin.H{"services": services, "count": len(services)})
}

// APICreateService validates a draft and adds it to the directory.
func (h *ServiceHandlers) APICreateService(c *gin.Context) {
	var in NewServiceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}
	draft, err := ValidateServiceDraft(in)
	if err != nil {
		var de *DraftError
		if errors.As(err, &de) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": de.Details})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc, err := h.manager.Directory.Add(draft)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, manager.ErrInvalidDraft) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	if h.metrics != nil {
		h.metrics.ServiceRegistered()
	}
	ToastSuccess(c, "Service added", svc.Name+" at "+svc.Address())
	c.JSON(http.StatusCreated, svc)
}

// APIService returns a directory entry. Unknown ids get the placeholder
// service with known=false.
func (h *ServiceHandlers) APIService(c *gin.Context) {
	svc, known := h.manager.Service(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"service": svc, "known": known})
}

// APISnapshot returns the metrics snapshot for a service id. It never fails;
// unknown ids are synthesized.
func (h *ServiceHandlers) APISnapshot(c *gin.Context) {
	snap := h.manager.Snapshot(c.Request.Context(), c.Param("id"))
	h.observe(snap)
	c.JSON(http.StatusOK, snap)
}

// APIView returns the composed dashboard view-model for a service id.
func (h *ServiceHandlers) APIView(c *gin.Context) {
	view := h.manager.View(c.Request.Context(), c.Param("id"))
	h.observe(models.Snapshot{Record: view.Record, Synthetic: view.Synthetic})
	if view.Synthetic {
		ToastWarn(c, "Synthetic data", "No telemetry for this service; showing generated values.")
	}
	c.JSON(http.StatusOK, view)
}

// APIOverview returns directory totals per status alongside their display
// descriptors.
func (h *ServiceHandlers) APIOverview(c *gin.Context) {
	counts := h.manager.Overview()
	displays := map[models.ServiceStatus]status.Display{}
	for _, st := range []models.ServiceStatus{models.StatusOnline, models.StatusOffline, models.StatusWarning} {
		displays[st] = status.ServiceStatusDisplay(st)
	}
	c.JSON(http.StatusOK, gin.H{"counts": counts, "statuses": displays})
}

// APIEvents returns recent directory events, newest first.
func (h *ServiceHandlers) APIEvents(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	events := h.manager.RecentEvents(limit)
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

func (h *ServiceHandlers) observe(snap models.Snapshot) {
	if h.metrics == nil {
		return
	}
	severity := ""
	if a := snap.Record.LastAnomaly; a != nil {
		severity = status.AnomalyDisplay(a).Key
	}
	h.metrics.ObserveSnapshot(snap.Synthetic, severity)
}
