// Package ws serves the console workspace to browser tabs over WebSocket.
//
// Each connection is one tab. It owns a workspace.Window with a mounted
// workspace.Controller, so keystrokes, cross-frame messages, deep links and
// picker actions arrive as JSON frames and are dispatched through the same
// paths a browser window would use. Registry changes are pushed back as
// coalesced state frames: a burst of mutations yields one frame carrying
// the latest state. State frames leave thumbnails out; each preview update
// is sent as a thumbnail frame for its session.
//
// Client frames: render, key, message, add_console, picker_query,
// picker_select, picker_close, close_console, activate, sidebar, ping.
//
// Server frames: state, thumbnail, picker, navigate, key, pong, error.
//
// Example Usage:
//
//	handler := ws.NewHandler(manager, cfg.Server.AllowedOrigins).WithLogger(logger)
//	router.GET("/workspaces/:id/ws", handler.HandleConnection)
//	defer handler.Shutdown()
package ws
