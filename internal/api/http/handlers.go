package http

import (
	"errors"
	"net/http"

	"github.com/Galev01/LimiQuantix-sub002/internal/domain/console"
	"github.com/Galev01/LimiQuantix-sub002/internal/domain/session"
	"github.com/Galev01/LimiQuantix-sub002/internal/domain/workspace"
	"github.com/Galev01/LimiQuantix-sub002/internal/infrastructure/monitoring"
	"github.com/Galev01/LimiQuantix-sub002/internal/shared/types"
	"github.com/gin-gonic/gin"
)

// Version is reported by the root endpoint
const Version = "0.3.0"

// LayoutStats reports layout persistence activity
type LayoutStats interface {
	Stats() session.Stats
}

// Handlers contains all HTTP handlers
type Handlers struct {
	manager   *workspace.Manager
	inventory workspace.InventorySource
	layouts   LayoutStats
	metrics   *monitoring.Metrics
}

// NewHandlers creates a new handler set. inventory may be nil.
func NewHandlers(manager *workspace.Manager, inventory workspace.InventorySource) *Handlers {
	return &Handlers{
		manager:   manager,
		inventory: inventory,
	}
}

// WithLayouts reports layout persistence on the health endpoint
func (h *Handlers) WithLayouts(layouts LayoutStats) *Handlers {
	h.layouts = layouts
	return h
}

// WithMetrics reports the metrics snapshot on the health endpoint
func (h *Handlers) WithMetrics(metrics *monitoring.Metrics) *Handlers {
	h.metrics = metrics
	return h
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Console Workspace Service (Go)",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	inv := h.inventoryState()
	body := gin.H{
		"status":     "healthy",
		"workspaces": h.manager.Len(),
		"inventory": gin.H{
			"loading":    inv.Loading,
			"vms":        len(inv.VMs),
			"error":      inv.Error,
			"fetched_at": inv.FetchedAt,
		},
	}
	if h.layouts != nil {
		body["layouts"] = h.layouts.Stats()
	}
	if h.metrics != nil {
		body["metrics"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, body)
}

// ListVMs returns the last known inventory
func (h *Handlers) ListVMs(c *gin.Context) {
	c.JSON(http.StatusOK, h.inventoryState())
}

func (h *Handlers) inventoryState() types.InventoryState {
	if h.inventory == nil {
		return types.InventoryState{}
	}
	return h.inventory.State()
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, workspace.ErrWorkspaceNotFound):
		return http.StatusNotFound
	case errors.Is(err, console.ErrSessionLimit):
		return http.StatusTooManyRequests
	case errors.Is(err, workspace.ErrNotSelectable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
