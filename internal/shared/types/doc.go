// Package types provides shared data structures for the console workspace.
//
// Core Types:
//   - ConsoleSession: An open console tab backed by one VM
//   - Thumbnail: Last known preview of a session's display surface
//   - WorkspaceState: Ordered sessions, active session and sidebar flag
//   - ChangeEvent: Registry mutation notification
//
// Inventory Types:
//   - VM: Inventory entry (id, name, power state)
//   - InventoryState: Last inventory fetch with loading/error status
//
// Example Usage:
//
//	state := registry.State()
//	for i, s := range state.Sessions {
//	    fmt.Printf("%d: %s (%s)\n", i+1, s.VMName, s.VMID)
//	}
package types
