package ws

import (
	"context"
	"net/http"
	"slices"

	"github.com/Galev01/LimiQuantix-sub002/internal/domain/workspace"
	"github.com/Galev01/LimiQuantix-sub002/internal/infrastructure/logging"
	"github.com/Galev01/LimiQuantix-sub002/internal/infrastructure/monitoring"
	"github.com/Galev01/LimiQuantix-sub002/internal/shared/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handler manages workspace WebSocket connections
type Handler struct {
	manager  *workspace.Manager
	upgrader websocket.Upgrader
	logger   *logging.Logger
	metrics  *monitoring.Metrics

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHandler creates a new WebSocket handler. Origins "*" or an empty list
// accept any origin.
func NewHandler(manager *workspace.Manager, allowedOrigins []string) *Handler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Handler{
		manager: manager,
		upgrader: websocket.Upgrader{
			CheckOrigin: checkOrigin(allowedOrigins),
		},
		logger: logging.NewNop(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// WithLogger sets the logger
func (h *Handler) WithLogger(logger *logging.Logger) *Handler {
	h.logger = logger.Named("ws")
	return h
}

// WithMetrics adds metrics tracking to the handler
func (h *Handler) WithMetrics(metrics *monitoring.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// Shutdown closes every open connection. Hijacked connections are not
// closed by http.Server.Shutdown.
func (h *Handler) Shutdown() {
	h.cancel()
}

// HandleConnection upgrades GET /workspaces/:id/ws and serves the tab until
// it disconnects. The workspace is restored or created on demand, and an
// implicitly created workspace left empty is dropped on disconnect.
func (h *Handler) HandleConnection(c *gin.Context) {
	workspaceID := c.Param("id")
	if err := utils.ValidateID(workspaceID, "workspace_id", true); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w, release, err := h.manager.Connect(c.Request.Context(), workspaceID)
	if err != nil {
		h.logger.Error("failed to open workspace", zap.String("workspace_id", workspaceID), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer release()

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	conn := newConn(ws, w, h.manager.NewController(w), h.logger)
	conn.metrics = h.metrics

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}
	h.logger.Info("tab connected",
		zap.String("workspace_id", workspaceID),
		zap.String("remote", c.ClientIP()))

	if err := conn.serve(h.ctx); err != nil {
		h.logger.Warn("connection ended", zap.String("workspace_id", workspaceID), zap.Error(err))
		return
	}
	h.logger.Info("tab disconnected", zap.String("workspace_id", workspaceID))
}

func checkOrigin(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}
