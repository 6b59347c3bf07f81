// Package workspace drives console registries from browser events.
//
// Each connected tab owns a Window, the event target its keystrokes and
// cross-frame messages are dispatched to. A Controller mounted on the window
// holds exactly one key listener and one message listener for as long as it
// is mounted:
//
//   - Primary modifier + digit n activates the n-th console
//   - Messages are forwarded to the thumbnail ingestor
//   - Render consumes a deep link (vmId, vmName) once and clears it
//   - AddConsole / SelectVM drive the picker (Idle -> PickerOpen -> Idle)
//
// The Manager owns every workspace of the process and wires metrics and
// layout persistence into each registry.
//
// Example Usage:
//
//	mgr := workspace.NewManager(workspace.DefaultSettings()).WithStore(store)
//	ws := mgr.Create()
//	ctrl := mgr.NewController(ws)
//	ctrl.Mount(window)
//	defer ctrl.Unmount()
package workspace
