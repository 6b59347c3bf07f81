// Package console implements the console session registry of a workspace.
//
// The registry owns the ordered list of open console sessions (one per VM),
// the active session and the sidebar preference.
//
// Invariants:
//   - At most one session per VM id; opening an open VM re-activates it
//   - The active id is empty or references a present session
//   - Opening appends; closing removes without reordering the rest
//
// Stale references (closing, activating or updating something that is no
// longer there) are no-ops, not errors.
//
// Example Usage:
//
//	reg := console.NewRegistry(console.WithMaxSessions(12))
//	id, err := reg.OpenConsole("vm-1", "web-01")
//	reg.SetActiveSession(id)
//	reg.CloseConsole(id)
package console
