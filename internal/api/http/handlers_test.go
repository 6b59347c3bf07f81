package http

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Galev01/LimiQuantix-sub002/internal/domain/picker"
	"github.com/Galev01/LimiQuantix-sub002/internal/domain/workspace"
	"github.com/Galev01/LimiQuantix-sub002/internal/shared/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticInventory struct{ state types.InventoryState }

func (s staticInventory) State() types.InventoryState { return s.state }

var testInventory = staticInventory{state: types.InventoryState{VMs: []types.VM{
	{ID: "vm-1", Name: "web-01", PowerState: types.PowerStateRunning},
	{ID: "vm-2", Name: "db-01", PowerState: types.PowerStateRunning},
	{ID: "vm-3", Name: "batch-01", PowerState: types.PowerStateStopped},
}}}

func setupRouter(t *testing.T, settings workspace.Settings) (*gin.Engine, *workspace.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager := workspace.NewManager(settings).WithInventory(testInventory)
	router := gin.New()
	NewHandlers(manager, testInventory).Register(router)
	return router, manager
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

type stateResponse struct {
	SessionID string               `json:"session_id"`
	State     types.WorkspaceState `json:"state"`
}

func TestRootAndHealth(t *testing.T) {
	router, manager := setupRouter(t, workspace.DefaultSettings())
	manager.Create()

	w := do(router, "GET", "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "online")

	w = do(router, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status     string `json:"status"`
		Workspaces int    `json:"workspaces"`
		Inventory  struct {
			VMs int `json:"vms"`
		} `json:"inventory"`
	}
	decode(t, w, &body)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, 1, body.Workspaces)
	assert.Equal(t, 3, body.Inventory.VMs)
}

func TestListVMs(t *testing.T) {
	router, _ := setupRouter(t, workspace.DefaultSettings())

	w := do(router, "GET", "/vms", "")
	require.Equal(t, http.StatusOK, w.Code)

	var inv types.InventoryState
	decode(t, w, &inv)
	assert.Len(t, inv.VMs, 3)
	assert.Equal(t, "web-01", inv.VMs[0].Name)
}

func TestWorkspaceLifecycle(t *testing.T) {
	router, _ := setupRouter(t, workspace.DefaultSettings())

	w := do(router, "POST", "/workspaces", "")
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	decode(t, w, &created)
	require.NotEmpty(t, created.ID)

	w = do(router, "GET", "/workspaces", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Count int `json:"count"`
	}
	decode(t, w, &list)
	assert.Equal(t, 1, list.Count)

	w = do(router, "GET", "/workspaces/"+created.ID, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, "DELETE", "/workspaces/"+created.ID, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, "GET", "/workspaces/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)

	w = do(router, "DELETE", "/workspaces/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOpenCloseAndActivateConsoles(t *testing.T) {
	router, manager := setupRouter(t, workspace.DefaultSettings())
	ws := manager.Create()
	base := "/workspaces/" + ws.ID

	var first, second stateResponse
	w := do(router, "POST", base+"/consoles", `{"vm_id":"vm-1","vm_name":"web-01"}`)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &first)

	w = do(router, "POST", base+"/consoles", `{"vm_id":"vm-2"}`)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &second)

	require.Len(t, second.State.Sessions, 2)
	assert.Equal(t, "db-01", second.State.Sessions[1].VMName, "name falls back to the inventory")
	assert.Equal(t, second.SessionID, second.State.ActiveSessionID)

	// Reopening the first VM reactivates its session
	var again stateResponse
	w = do(router, "POST", base+"/consoles", `{"vm_id":"vm-1","vm_name":"web-01"}`)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &again)
	assert.Equal(t, first.SessionID, again.SessionID)
	assert.Len(t, again.State.Sessions, 2)

	w = do(router, "POST", base+"/consoles/"+second.SessionID+"/activate", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, second.SessionID, ws.Registry.ActiveSessionID())

	w = do(router, "DELETE", base+"/consoles/"+second.SessionID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first.SessionID, ws.Registry.ActiveSessionID())

	w = do(router, "DELETE", base+"/consoles/"+second.SessionID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(router, "POST", base+"/consoles/missing/activate", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOpenConsoleErrors(t *testing.T) {
	settings := workspace.DefaultSettings()
	settings.MaxSessions = 1
	router, manager := setupRouter(t, settings)
	base := "/workspaces/" + manager.Create().ID

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"missing vm id", `{"vm_name":"x"}`, http.StatusBadRequest},
		{"invalid vm id", `{"vm_id":"../etc"}`, http.StatusBadRequest},
		{"stopped vm", `{"vm_id":"vm-3"}`, http.StatusConflict},
		{"unknown vm", `{"vm_id":"vm-9"}`, http.StatusConflict},
		{"first console", `{"vm_id":"vm-1"}`, http.StatusOK},
		{"over the limit", `{"vm_id":"vm-2"}`, http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, "POST", base+"/consoles", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

func TestUnknownWorkspace(t *testing.T) {
	router, _ := setupRouter(t, workspace.DefaultSettings())

	for _, path := range []string{
		"/workspaces/ws_missing",
		"/workspaces/ws_missing/picker",
	} {
		w := do(router, "GET", path, "")
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
	w := do(router, "POST", "/workspaces/ws_missing/consoles", `{"vm_id":"vm-1"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetSidebar(t *testing.T) {
	router, manager := setupRouter(t, workspace.DefaultSettings())
	ws := manager.Create()

	w := do(router, "PUT", "/workspaces/"+ws.ID+"/sidebar", `{"collapsed":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, ws.Registry.State().SidebarCollapsed)

	w = do(router, "PUT", "/workspaces/"+ws.ID+"/sidebar", `{"collapsed":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, ws.Registry.State().SidebarCollapsed)

	w = do(router, "PUT", "/workspaces/"+ws.ID+"/sidebar", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostMessage(t *testing.T) {
	settings := workspace.DefaultSettings()
	settings.ThumbnailInterval = 0
	router, manager := setupRouter(t, settings)
	ws := manager.Create()
	_, err := ws.Registry.OpenConsole("vm-1", "web-01")
	require.NoError(t, err)

	png := append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 17)...)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)

	tests := []struct {
		name       string
		body       string
		wantResult string
	}{
		{"applied", `{"kind":"consoleThumbnail","vmId":"vm-1","thumbnail":"` + uri + `"}`, "applied"},
		{"stale", `{"kind":"consoleThumbnail","vmId":"vm-9","thumbnail":"` + uri + `"}`, "stale"},
		{"other kind", `{"kind":"resize","vmId":"vm-1"}`, "malformed"},
		{"not json", `hello`, "malformed"},
		{"oversized body", `"` + strings.Repeat("a", 1024*1024+1) + `"`, "too_large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, "POST", "/workspaces/"+ws.ID+"/messages", tt.body)
			require.Equal(t, http.StatusAccepted, w.Code)

			var body struct {
				Result string `json:"result"`
			}
			decode(t, w, &body)
			assert.Equal(t, tt.wantResult, body.Result)
		})
	}

	session, ok := ws.Registry.FindByVM("vm-1")
	require.True(t, ok)
	require.NotNil(t, session.Thumbnail)
	assert.Equal(t, uri, session.Thumbnail.ImageData)
}

func TestPicker(t *testing.T) {
	router, manager := setupRouter(t, workspace.DefaultSettings())
	ws := manager.Create()
	_, err := ws.Registry.OpenConsole("vm-1", "web-01")
	require.NoError(t, err)

	w := do(router, "GET", "/workspaces/"+ws.ID+"/picker", "")
	require.Equal(t, http.StatusOK, w.Code)
	var view picker.View
	decode(t, w, &view)
	assert.Equal(t, picker.StatusReady, view.Status)
	require.Len(t, view.Entries, 3)
	assert.True(t, view.Entries[0].Open)
	assert.False(t, view.Entries[2].Selectable)

	w = do(router, "GET", "/workspaces/"+ws.ID+"/picker?q=DB", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &view)
	require.Len(t, view.Entries, 1)
	assert.Equal(t, "vm-2", view.Entries[0].VMID)

	w = do(router, "GET", "/workspaces/"+ws.ID+"/picker?q=zzz", "")
	decode(t, w, &view)
	assert.Equal(t, picker.StatusNoMatches, view.Status)

	w = do(router, "GET", "/workspaces/"+ws.ID+"/picker?q="+strings.Repeat("x", 300), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
