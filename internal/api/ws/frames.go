package ws

import (
	"encoding/json"

	"github.com/Galev01/LimiQuantix-sub002/internal/domain/picker"
	"github.com/Galev01/LimiQuantix-sub002/internal/domain/workspace"
	"github.com/Galev01/LimiQuantix-sub002/internal/shared/types"
	"github.com/bytedance/sonic"
)

// Client to server frame types
const (
	TypeRender       = "render"
	TypeKey          = "key"
	TypeMessage      = "message"
	TypeAddConsole   = "add_console"
	TypePickerQuery  = "picker_query"
	TypePickerSelect = "picker_select"
	TypePickerClose  = "picker_close"
	TypeCloseConsole = "close_console"
	TypeActivate     = "activate"
	TypeSidebar      = "sidebar"
	TypePing         = "ping"
)

// Server to client frame types. TypeKey is shared.
const (
	TypeState     = "state"
	TypeThumbnail = "thumbnail"
	TypePicker    = "picker"
	TypeNavigate  = "navigate"
	TypePong      = "pong"
	TypeError     = "error"
)

var knownTypes = map[string]bool{
	TypeRender: true, TypeKey: true, TypeMessage: true, TypeAddConsole: true,
	TypePickerQuery: true, TypePickerSelect: true, TypePickerClose: true,
	TypeCloseConsole: true, TypeActivate: true, TypeSidebar: true, TypePing: true,
}

// frameLabel bounds the metric label values of inbound frames
func frameLabel(frameType string) string {
	if knownTypes[frameType] {
		return frameType
	}
	return "unknown"
}

// InFrame is a frame sent by the browser tab. Only the fields of its type
// are set.
type InFrame struct {
	Type string `json:"type"`

	// render, picker_select
	VMID   string `json:"vm_id,omitempty"`
	VMName string `json:"vm_name,omitempty"`

	// key
	Key   string `json:"key,omitempty"`
	Ctrl  bool   `json:"ctrl,omitempty"`
	Meta  bool   `json:"meta,omitempty"`
	Alt   bool   `json:"alt,omitempty"`
	Shift bool   `json:"shift,omitempty"`

	// message: the posted value, either a JSON object or a string holding one
	Data   json.RawMessage `json:"data,omitempty"`
	Origin string          `json:"origin,omitempty"`

	// picker_query
	Query string `json:"query,omitempty"`

	// close_console, activate
	SessionID string `json:"session_id,omitempty"`

	// sidebar
	Collapsed *bool `json:"collapsed,omitempty"`
}

// PickerFrame is the picker lifecycle plus its rendered view
type PickerFrame struct {
	Open bool        `json:"open"`
	View picker.View `json:"view"`
}

// ThumbnailFrame carries the latest preview of one session
type ThumbnailFrame struct {
	SessionID string          `json:"session_id"`
	VMID      string          `json:"vm_id"`
	Thumbnail types.Thumbnail `json:"thumbnail"`
}

// OutFrame is a frame sent to the browser tab. State frames never carry
// thumbnail data; previews travel in thumbnail frames.
type OutFrame struct {
	Type      string                `json:"type"`
	State     *types.WorkspaceState `json:"state,omitempty"`
	Thumbnail *ThumbnailFrame       `json:"thumbnail,omitempty"`
	Picker    *PickerFrame          `json:"picker,omitempty"`
	Clear     []string              `json:"clear,omitempty"`
	Handled   *bool                 `json:"handled,omitempty"`
	Message   string                `json:"message,omitempty"`
}

// stateFrame drops thumbnails from state
func stateFrame(state types.WorkspaceState) OutFrame {
	for i := range state.Sessions {
		state.Sessions[i].Thumbnail = nil
	}
	return OutFrame{Type: TypeState, State: &state}
}

func decodeFrame(data []byte) (InFrame, error) {
	var f InFrame
	err := sonic.Unmarshal(data, &f)
	return f, err
}

func encodeFrame(f OutFrame) ([]byte, error) {
	return sonic.Marshal(f)
}

// messageData unwraps a posted value. Strings are delivered as their
// contents so senders may post either serialized or structured messages.
func messageData(raw json.RawMessage) []byte {
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if sonic.Unmarshal(raw, &s) == nil {
			return []byte(s)
		}
	}
	return raw
}

func keyEvent(f InFrame) *workspace.KeyEvent {
	return &workspace.KeyEvent{
		Key:   f.Key,
		Ctrl:  f.Ctrl,
		Meta:  f.Meta,
		Alt:   f.Alt,
		Shift: f.Shift,
	}
}

func errorFrame(err error) OutFrame {
	return OutFrame{Type: TypeError, Message: err.Error()}
}
