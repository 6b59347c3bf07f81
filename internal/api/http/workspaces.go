package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/Galev01/LimiQuantix-sub002/internal/domain/picker"
	"github.com/Galev01/LimiQuantix-sub002/internal/domain/thumbnail"
	"github.com/Galev01/LimiQuantix-sub002/internal/domain/workspace"
	"github.com/Galev01/LimiQuantix-sub002/internal/shared/utils"
	"github.com/gin-gonic/gin"
)

// CreateWorkspace creates an empty workspace
func (h *Handlers) CreateWorkspace(c *gin.Context) {
	w := h.manager.Create()
	c.JSON(http.StatusCreated, workspaceBody(w))
}

// ListWorkspaces lists the in-memory workspaces
func (h *Handlers) ListWorkspaces(c *gin.Context) {
	list := h.manager.List()
	c.JSON(http.StatusOK, gin.H{
		"workspaces": list,
		"count":      len(list),
	})
}

// GetWorkspace returns the state of one workspace
func (h *Handlers) GetWorkspace(c *gin.Context) {
	w, ok := h.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, workspaceBody(w))
}

// DeleteWorkspace drops a workspace and its stored layout
func (h *Handlers) DeleteWorkspace(c *gin.Context) {
	workspaceID := c.Param("id")
	if err := h.manager.Delete(c.Request.Context(), workspaceID); err != nil {
		abortWithError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"id":      workspaceID,
	})
}

// OpenConsole opens or reactivates the console of a VM
func (h *Handlers) OpenConsole(c *gin.Context) {
	w, ok := h.workspace(c)
	if !ok {
		return
	}

	var req struct {
		VMID   string `json:"vm_id" binding:"required"`
		VMName string `json:"vm_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, errors.New("invalid request: "+err.Error()))
		return
	}
	if err := utils.ValidateID(req.VMID, "vm_id", true); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	sessionID, err := h.manager.NewController(w).SelectVM(req.VMID, req.VMName)
	if err != nil {
		abortWithError(c, statusFor(err), err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"state":      w.Registry.State(),
	})
}

// CloseConsole closes one console session
func (h *Handlers) CloseConsole(c *gin.Context) {
	w, ok := h.workspace(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	if !w.Registry.CloseConsole(sessionID) {
		abortWithError(c, http.StatusNotFound, errors.New("session not found: "+sessionID))
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": w.Registry.State()})
}

// ActivateConsole makes a session the active one
func (h *Handlers) ActivateConsole(c *gin.Context) {
	w, ok := h.workspace(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	if !w.Registry.SetActiveSession(sessionID) {
		abortWithError(c, http.StatusNotFound, errors.New("session not found: "+sessionID))
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": w.Registry.State()})
}

// SetSidebar collapses or expands the session sidebar
func (h *Handlers) SetSidebar(c *gin.Context) {
	w, ok := h.workspace(c)
	if !ok {
		return
	}

	var req struct {
		Collapsed *bool `json:"collapsed" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, errors.New("invalid request: "+err.Error()))
		return
	}

	w.Registry.SetSidebarCollapsed(*req.Collapsed)
	c.JSON(http.StatusOK, gin.H{"state": w.Registry.State()})
}

// PostMessage delivers a raw cross-frame message to the thumbnail ingestor.
// Unusable messages are dropped, so the response is always accepted.
func (h *Handlers) PostMessage(c *gin.Context) {
	w, ok := h.workspace(c)
	if !ok {
		return
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, utils.MaxMessageSize+1))
	result := thumbnail.ResultMalformed
	switch {
	case err != nil:
	case len(raw) > utils.MaxMessageSize:
		result = thumbnail.ResultTooLarge
	default:
		result = w.Ingestor.Handle(raw)
	}

	c.JSON(http.StatusAccepted, gin.H{"result": result})
}

// Picker renders the VM picker for a query
func (h *Handlers) Picker(c *gin.Context) {
	w, ok := h.workspace(c)
	if !ok {
		return
	}

	query := c.Query("q")
	if err := utils.ValidateQuery(query); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	c.JSON(http.StatusOK, picker.Build(h.inventoryState(), query, w.Registry.Sessions()))
}

// workspace resolves the :id parameter, restoring a stored layout when
// needed. It writes the error response itself.
func (h *Handlers) workspace(c *gin.Context) (*workspace.Workspace, bool) {
	w, err := h.manager.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, statusFor(err), err)
		return nil, false
	}
	return w, true
}

func workspaceBody(w *workspace.Workspace) gin.H {
	return gin.H{
		"id":         w.ID,
		"created_at": w.CreatedAt,
		"state":      w.Registry.State(),
		"stats":      w.Registry.Stats(),
	}
}
