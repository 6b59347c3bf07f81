package picker

import (
	"fmt"
	"strings"

	"github.com/Galev01/LimiQuantix-sub002/internal/shared/types"
)

// Status summarizes what the picker can show
type Status string

const (
	StatusLoading   Status = "loading"
	StatusEmpty     Status = "empty"
	StatusNoMatches Status = "no_matches"
	StatusReady     Status = "ready"
)

// Entry is one listed VM
type Entry struct {
	VMID       string           `json:"vm_id"`
	Name       string           `json:"name"`
	PowerState types.PowerState `json:"power_state"`
	Selectable bool             `json:"selectable"`
	Open       bool             `json:"open"`            // Already backs a console
	Label      string           `json:"label,omitempty"` // Why the entry is disabled
}

// View is the rendered picker
type View struct {
	Query   string  `json:"query"`
	Status  Status  `json:"status"`
	Message string  `json:"message"`
	Entries []Entry `json:"entries"`
}

// Build filters the inventory by query and annotates each VM with its
// eligibility. Entries keep inventory order.
func Build(inv types.InventoryState, query string, sessions []types.ConsoleSession) View {
	view := View{Query: query, Entries: []Entry{}}

	if inv.Loading && len(inv.VMs) == 0 {
		view.Status = StatusLoading
		view.Message = "Loading virtual machines..."
		return view
	}

	if len(inv.VMs) == 0 {
		view.Status = StatusEmpty
		view.Message = "No virtual machines found"
		if inv.Error != "" {
			view.Message = fmt.Sprintf("Inventory unavailable: %s", inv.Error)
		}
		return view
	}

	open := make(map[string]bool, len(sessions))
	for _, s := range sessions {
		open[s.VMID] = true
	}

	for _, vm := range inv.VMs {
		if !Matches(vm, query) {
			continue
		}
		view.Entries = append(view.Entries, entryFor(vm, open[vm.ID]))
	}

	if len(view.Entries) == 0 {
		view.Status = StatusNoMatches
		view.Message = fmt.Sprintf("No virtual machines match %q", strings.TrimSpace(query))
		return view
	}

	view.Status = StatusReady
	view.Message = fmt.Sprintf("%d of %d virtual machines", len(view.Entries), len(inv.VMs))
	return view
}

// Matches reports whether the VM name or id contains the query,
// ignoring case. A blank query matches everything.
func Matches(vm types.VM, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(vm.Name), q) ||
		strings.Contains(strings.ToLower(vm.ID), q)
}

// Selectable reports whether a console can be opened for the VM
func Selectable(vm types.VM) bool {
	return vm.PowerState.IsRunning()
}

// Find returns the selectable entry for vmID in the view
func (v View) Find(vmID string) (Entry, bool) {
	for _, e := range v.Entries {
		if e.VMID == vmID {
			return e, true
		}
	}
	return Entry{}, false
}

func entryFor(vm types.VM, open bool) Entry {
	e := Entry{
		VMID:       vm.ID,
		Name:       vm.Name,
		PowerState: vm.PowerState,
		Selectable: Selectable(vm),
		Open:       open,
	}
	if !e.Selectable {
		e.Label = disabledLabel(vm.PowerState)
	}
	return e
}

func disabledLabel(state types.PowerState) string {
	s := strings.ToLower(strings.TrimSpace(string(state)))
	if s == "" {
		s = "unknown"
	}
	return "VM is " + s
}
