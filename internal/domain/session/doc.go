// Package session persists workspace layouts so a reconnecting browser tab
// gets its consoles back.
//
// A layout captures the structural part of a workspace: the ordered
// consoles (VM id and name), the active VM and the sidebar flag. Thumbnails
// are transient and never stored.
//
// Components:
//   - Layout: Capture from a workspace state, ToMetadata for listings
//   - FileStore: One YAML document per workspace, written atomically
//   - Apply / Restore: Reopen consoles in order and re-activate the saved one
//
// Restoration Process:
//  1. Load the layout YAML from storage
//  2. Reopen each console in saved order
//  3. Re-activate the saved active VM
//  4. Restore the sidebar flag
//
// Example Usage:
//
//	store, err := session.NewFileStore(cfg.Storage.Path)
//	err = store.Save(ctx, session.Capture(workspaceID, registry.State()))
//	layout, err := store.Restore(ctx, registry, workspaceID)
package session
