package types

import "time"

// Thumbnail is the last preview posted by a session's display surface.
type Thumbnail struct {
	ImageData string    `json:"image_data" yaml:"image_data"`
	Width     int       `json:"width" yaml:"width"`
	Height    int       `json:"height" yaml:"height"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// ConsoleSession is one open console backed by a VM
type ConsoleSession struct {
	ID        string     `json:"id"`
	VMID      string     `json:"vm_id"`
	VMName    string     `json:"vm_name"`
	Thumbnail *Thumbnail `json:"thumbnail,omitempty"`
	OpenedAt  time.Time  `json:"opened_at"`
}

// Clone returns a deep copy of the session.
func (s ConsoleSession) Clone() ConsoleSession {
	if s.Thumbnail != nil {
		thumb := *s.Thumbnail
		s.Thumbnail = &thumb
	}
	return s
}

// WorkspaceState is the read surface handed to the presentation layer.
type WorkspaceState struct {
	Sessions         []ConsoleSession `json:"sessions"`
	ActiveSessionID  string           `json:"active_session_id,omitempty"`
	SidebarCollapsed bool             `json:"sidebar_collapsed"`
	Version          uint64           `json:"version"` // Bumped on every mutation
}

// ActiveSession returns the focused session, if any.
func (w WorkspaceState) ActiveSession() (ConsoleSession, bool) {
	for _, s := range w.Sessions {
		if s.ID == w.ActiveSessionID {
			return s, true
		}
	}
	return ConsoleSession{}, false
}

// ChangeType identifies the kind of registry mutation
type ChangeType string

const (
	ChangeOpened    ChangeType = "opened"
	ChangeActivated ChangeType = "activated"
	ChangeClosed    ChangeType = "closed"
	ChangeThumbnail ChangeType = "thumbnail"
	ChangeSidebar   ChangeType = "sidebar"
)

// ChangeEvent is delivered to registry observers after a mutation.
type ChangeEvent struct {
	Type      ChangeType     `json:"type"`
	SessionID string         `json:"session_id,omitempty"`
	VMID      string         `json:"vm_id,omitempty"`
	State     WorkspaceState `json:"state"`
}

// Structural reports whether the event changes the persisted layout.
func (e ChangeEvent) Structural() bool {
	return e.Type != ChangeThumbnail
}

// RegistryStats contains registry statistics
type RegistryStats struct {
	OpenSessions    int    `json:"open_sessions"`
	MaxSessions     int    `json:"max_sessions"`
	ActiveSessionID string `json:"active_session_id,omitempty"`
	WithThumbnail   int    `json:"with_thumbnail"`
	Version         uint64 `json:"version"`
}
