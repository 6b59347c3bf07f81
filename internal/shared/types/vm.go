package types

import (
	"strings"
	"time"
)

// PowerState is the power state reported by the inventory
type PowerState string

const (
	PowerStatePending   PowerState = "PENDING"
	PowerStateCreating  PowerState = "CREATING"
	PowerStateStarting  PowerState = "STARTING"
	PowerStateRunning   PowerState = "RUNNING"
	PowerStateStopping  PowerState = "STOPPING"
	PowerStateStopped   PowerState = "STOPPED"
	PowerStatePaused    PowerState = "PAUSED"
	PowerStateSuspended PowerState = "SUSPENDED"
	PowerStateMigrating PowerState = "MIGRATING"
	PowerStateError     PowerState = "ERROR"
	PowerStateFailed    PowerState = "FAILED"
	PowerStateDeleting  PowerState = "DELETING"
	PowerStateLost      PowerState = "LOST"
)

// IsRunning reports whether the state is the running state.
func (p PowerState) IsRunning() bool {
	return strings.EqualFold(string(p), string(PowerStateRunning))
}

// VM is an inventory entry. Only the fields the workspace needs are kept.
type VM struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	PowerState PowerState `json:"power_state"`
}

// InventoryState is the last known inventory as seen by the picker.
type InventoryState struct {
	Loading   bool       `json:"loading"`
	VMs       []VM       `json:"vms"`
	Error     string     `json:"error,omitempty"`
	FetchedAt *time.Time `json:"fetched_at,omitempty"`
}
