/*
Package monitoring provides Prometheus metrics for the console workspace.

# Overview

Metrics cover HTTP traffic, console session lifecycle (opens by outcome,
closes, open sessions per workspace), inbound thumbnail messages by result,
keyboard shortcut switches, layout persistence, inventory fetches and
websocket connections.

# Usage

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	metrics.RecordConsoleOpen("created")
	metrics.RecordThumbnail("throttled")

Tests register on a private registry:

	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
*/
package monitoring
