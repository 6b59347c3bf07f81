package session

import (
	"time"

	"github.com/Galev01/LimiQuantix-sub002/internal/shared/types"
)

// Layout is the persisted structure of a workspace. Thumbnails and session
// ids are never persisted; consoles are reopened by VM on restore.
type Layout struct {
	WorkspaceID      string         `yaml:"workspace_id"`
	Consoles         []ConsoleEntry `yaml:"consoles"`
	ActiveVMID       string         `yaml:"active_vm_id,omitempty"`
	SidebarCollapsed bool           `yaml:"sidebar_collapsed"`
	Version          uint64         `yaml:"version"` // Registry version the layout was captured at
	SavedAt          time.Time      `yaml:"saved_at"`
}

// ConsoleEntry is one console tab in a layout
type ConsoleEntry struct {
	VMID   string `yaml:"vm_id"`
	VMName string `yaml:"vm_name"`
}

// Metadata contains summary information
type Metadata struct {
	WorkspaceID  string    `json:"workspace_id"`
	ConsoleCount int       `json:"console_count"`
	ActiveVMID   string    `json:"active_vm_id,omitempty"`
	SavedAt      time.Time `json:"saved_at"`
}

// Stats contains store statistics
type Stats struct {
	Cached       int        `json:"cached"`
	LastSaved    *time.Time `json:"last_saved,omitempty"`
	LastRestored *time.Time `json:"last_restored,omitempty"`
}

// Capture builds the layout of a workspace state
func Capture(workspaceID string, state types.WorkspaceState) Layout {
	layout := Layout{
		WorkspaceID:      workspaceID,
		Consoles:         make([]ConsoleEntry, len(state.Sessions)),
		SidebarCollapsed: state.SidebarCollapsed,
		Version:          state.Version,
	}
	for i, s := range state.Sessions {
		layout.Consoles[i] = ConsoleEntry{VMID: s.VMID, VMName: s.VMName}
	}
	if active, ok := state.ActiveSession(); ok {
		layout.ActiveVMID = active.VMID
	}
	return layout
}

// ToMetadata extracts metadata from a layout
func (l *Layout) ToMetadata() Metadata {
	return Metadata{
		WorkspaceID:  l.WorkspaceID,
		ConsoleCount: len(l.Consoles),
		ActiveVMID:   l.ActiveVMID,
		SavedAt:      l.SavedAt,
	}
}
