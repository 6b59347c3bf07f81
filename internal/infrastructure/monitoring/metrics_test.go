package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordConsoleMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordConsoleOpen("created")
	m.RecordConsoleOpen("created")
	m.RecordConsoleOpen("activated")
	m.RecordConsoleClose()
	m.SetConsolesOpen("ws_1", 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ConsoleOpens.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConsoleOpens.WithLabelValues("activated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConsoleCloses))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ConsolesOpen.WithLabelValues("ws_1")))

	m.ForgetWorkspace("ws_1")
	assert.Equal(t, 0, testutil.CollectAndCount(m.ConsolesOpen))

	assert.Equal(t, int64(2), m.Snapshot().ConsolesOpened)
}

func TestRecordThumbnail(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordThumbnail("applied")
	m.RecordThumbnail("malformed")
	m.RecordThumbnail("throttled")

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.ThumbnailsApplied)
	assert.Equal(t, int64(2), snap.ThumbnailsDropped)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ThumbnailUpdates.WithLabelValues("malformed")))
}

func TestWSConnections(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.IncWSConnections()
	m.IncWSConnections()
	m.DecWSConnections()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSConnections))
	assert.Equal(t, int64(1), m.Snapshot().ActiveConnections)
}

func TestInventoryFetch(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordInventoryFetch("success", 20*time.Millisecond, 7)
	m.RecordInventoryFetch("error", time.Second, 0)

	assert.Equal(t, 7.0, testutil.ToFloat64(m.InventoryVMs))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InventoryFetches.WithLabelValues("error")))
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(prometheus.NewRegistry())

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/workspaces/:id", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	for _, path := range []string{"/workspaces/a", "/workspaces/b", "/nowhere"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/workspaces/:id", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.Equal(t, int64(3), snap.TotalErrors)
}
