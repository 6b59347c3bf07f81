// Package main is the entry point for the console workspace server.
//
// The server hosts multi-console workspaces for the VM dashboard: browser
// tabs connect over WebSocket, open consoles for running VMs, switch
// between them with keyboard shortcuts and stream thumbnails back.
//
// Architecture:
//
//	Dashboard tab ⇄ WebSocket/REST ⇄ Console Workspace Server → Control plane (VM inventory)
//	                                            ↓
//	                                  Layout files (YAML)
//
// Configuration:
//   - Environment variables (12-factor), optionally from a .env file
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -inventory https://controlplane:8443
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
