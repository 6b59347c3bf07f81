// Package http provides HTTP handlers for the console workspace REST API.
//
// This package implements the endpoints using the Gin framework. The
// websocket endpoint lives in package ws.
//
// Endpoints:
//   - Health: / and /health
//   - Inventory: /vms
//   - Workspaces: /workspaces, /workspaces/:id
//   - Consoles: /workspaces/:id/consoles, /workspaces/:id/consoles/:session_id/activate
//   - Layout: /workspaces/:id/sidebar
//   - Messages: /workspaces/:id/messages
//   - Picker: /workspaces/:id/picker?q=
//
// Errors are JSON objects of the form {"error": "..."}.
//
// Example Usage:
//
//	handlers := http.NewHandlers(manager, inventoryStore).WithMetrics(metrics)
//	router.GET("/health", handlers.Health)
//	router.POST("/workspaces/:id/consoles", handlers.OpenConsole)
package http
