// Package server assembles the console workspace service: configuration,
// logging, metrics, tracing, the inventory poller, layout persistence, the
// workspace manager and the HTTP and websocket routes.
package server
