package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Console metrics
	ConsolesOpen      *prometheus.GaugeVec
	ConsoleOpens      *prometheus.CounterVec
	ConsoleCloses     prometheus.Counter
	ThumbnailUpdates  *prometheus.CounterVec
	ShortcutSwitches  prometheus.Counter
	WorkspacesActive  prometheus.Gauge
	LayoutPersistence *prometheus.CounterVec

	// Inventory metrics
	InventoryFetches  *prometheus.CounterVec
	InventoryDuration prometheus.Histogram
	InventoryVMs      prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current values for the JSON health endpoint
type Snapshot struct {
	TotalRequests     int64 `json:"total_requests"`
	TotalErrors       int64 `json:"total_errors"`
	ConsolesOpened    int64 `json:"consoles_opened"`
	ThumbnailsApplied int64 `json:"thumbnails_applied"`
	ThumbnailsDropped int64 `json:"thumbnails_dropped"`
	ActiveConnections int64 `json:"active_connections"`
}

// NewMetrics creates a metrics collector registered on reg. Pass
// prometheus.DefaultRegisterer in the server and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "console_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		ConsolesOpen: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "console_sessions_open",
				Help: "Number of open console sessions per workspace",
			},
			[]string{"workspace"},
		),
		ConsoleOpens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_open_requests_total",
				Help: "Console open requests by outcome (created, activated, rejected)",
			},
			[]string{"outcome"},
		),
		ConsoleCloses: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "console_closes_total",
				Help: "Total number of console sessions closed",
			},
		),
		ThumbnailUpdates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_thumbnail_messages_total",
				Help: "Inbound thumbnail messages by result",
			},
			[]string{"result"},
		),
		ShortcutSwitches: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "console_shortcut_switches_total",
				Help: "Active session switches triggered by keyboard shortcut",
			},
		),
		WorkspacesActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "console_workspaces",
				Help: "Number of workspaces held in memory",
			},
		),
		LayoutPersistence: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_layout_persistence_total",
				Help: "Workspace layout save/restore operations by status",
			},
			[]string{"op", "status"},
		),

		InventoryFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_inventory_fetches_total",
				Help: "VM inventory fetches by status",
			},
			[]string{"status"},
		),
		InventoryDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "console_inventory_fetch_duration_seconds",
				Help:    "VM inventory fetch duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),
		InventoryVMs: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "console_inventory_vms",
				Help: "Number of VMs in the last inventory fetch",
			},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "console_ws_connections",
				Help: "Number of active workspace WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "console_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}
}

// RunUptime updates the uptime gauge every second until ctx is done.
func (m *Metrics) RunUptime(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Uptime.Set(time.Since(m.startTime).Seconds())
		}
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordConsoleOpen records the outcome of an open request
func (m *Metrics) RecordConsoleOpen(outcome string) {
	m.ConsoleOpens.WithLabelValues(outcome).Inc()
	if outcome == "created" {
		m.mu.Lock()
		m.snapshot.ConsolesOpened++
		m.mu.Unlock()
	}
}

// RecordConsoleClose records a closed console
func (m *Metrics) RecordConsoleClose() {
	m.ConsoleCloses.Inc()
}

// SetConsolesOpen sets the open console count for a workspace
func (m *Metrics) SetConsolesOpen(workspace string, count int) {
	m.ConsolesOpen.WithLabelValues(workspace).Set(float64(count))
}

// ForgetWorkspace drops per-workspace series
func (m *Metrics) ForgetWorkspace(workspace string) {
	m.ConsolesOpen.DeleteLabelValues(workspace)
}

// RecordThumbnail records the result of an inbound thumbnail message
func (m *Metrics) RecordThumbnail(result string) {
	m.ThumbnailUpdates.WithLabelValues(result).Inc()

	m.mu.Lock()
	if result == "applied" {
		m.snapshot.ThumbnailsApplied++
	} else {
		m.snapshot.ThumbnailsDropped++
	}
	m.mu.Unlock()
}

// RecordShortcutSwitch records a keyboard-driven activation
func (m *Metrics) RecordShortcutSwitch() {
	m.ShortcutSwitches.Inc()
}

// SetWorkspaces sets the number of in-memory workspaces
func (m *Metrics) SetWorkspaces(count int) {
	m.WorkspacesActive.Set(float64(count))
}

// RecordLayout records a layout persistence operation
func (m *Metrics) RecordLayout(op, status string) {
	m.LayoutPersistence.WithLabelValues(op, status).Inc()
}

// RecordInventoryFetch records an inventory fetch
func (m *Metrics) RecordInventoryFetch(status string, duration time.Duration, vms int) {
	m.InventoryFetches.WithLabelValues(status).Inc()
	m.InventoryDuration.Observe(duration.Seconds())
	if status == "success" {
		m.InventoryVMs.Set(float64(vms))
	}
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns current values for JSON consumers
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
