// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components take a *Logger and derive a named child so log lines carry
// their origin (registry, thumbnail, ws, inventory).
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	wsLog := logger.Named("ws")
//	wsLog.Info("Workspace connected", zap.String("workspace_id", id))
package logging
