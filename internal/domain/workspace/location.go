package workspace

import "sync"

// Deep-link parameter names as they appear in the workspace URL
const (
	ParamVMID   = "vmId"
	ParamVMName = "vmName"
)

// Location is the addressable navigation state of a tab
type Location interface {
	// DeepLink returns the requested VM. ok is false unless both parameters
	// are present.
	DeepLink() (vmID, vmName string, ok bool)
	// ClearDeepLink removes the parameters so reloads do not repeat the open
	ClearDeepLink()
}

// LinkLocation is a Location built from explicit parameters. OnClear runs
// the first time the link is cleared.
type LinkLocation struct {
	VMID    string
	VMName  string
	OnClear func()

	mu      sync.Mutex
	cleared bool
}

// NewLinkLocation returns a location carrying the given parameters
func NewLinkLocation(vmID, vmName string, onClear func()) *LinkLocation {
	return &LinkLocation{VMID: vmID, VMName: vmName, OnClear: onClear}
}

// DeepLink implements Location
func (l *LinkLocation) DeepLink() (string, string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cleared || l.VMID == "" || l.VMName == "" {
		return "", "", false
	}
	return l.VMID, l.VMName, true
}

// ClearDeepLink implements Location
func (l *LinkLocation) ClearDeepLink() {
	l.mu.Lock()
	if l.cleared {
		l.mu.Unlock()
		return
	}
	l.cleared = true
	onClear := l.OnClear
	l.mu.Unlock()

	if onClear != nil {
		onClear()
	}
}

// Cleared reports whether the link was cleared
func (l *LinkLocation) Cleared() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cleared
}
