package http

import "github.com/gin-gonic/gin"

// Register mounts the REST endpoints on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/vms", h.ListVMs)

	ws := r.Group("/workspaces")
	{
		ws.POST("", h.CreateWorkspace)
		ws.GET("", h.ListWorkspaces)
		ws.GET("/:id", h.GetWorkspace)
		ws.DELETE("/:id", h.DeleteWorkspace)

		ws.POST("/:id/consoles", h.OpenConsole)
		ws.DELETE("/:id/consoles/:session_id", h.CloseConsole)
		ws.POST("/:id/consoles/:session_id/activate", h.ActivateConsole)
		ws.PUT("/:id/sidebar", h.SetSidebar)
		ws.POST("/:id/messages", h.PostMessage)
		ws.GET("/:id/picker", h.Picker)
	}
}
