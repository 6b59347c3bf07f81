package console

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Galev01/LimiQuantix-sub002/internal/shared/types"
	"github.com/google/uuid"
)

// ErrSessionLimit is returned when opening a new console would exceed the
// configured bound. Re-activating an already open console never fails.
var ErrSessionLimit = errors.New("console session limit reached")

// Observer receives registry changes. It is called synchronously after the
// mutation, outside the registry lock, so it may read the registry.
type Observer func(types.ChangeEvent)

// Registry holds the ordered console sessions of one workspace and the
// workspace-level UI state.
type Registry struct {
	mu               sync.RWMutex
	sessions         []*types.ConsoleSession // Protected by mu; order = tab order
	activeID         string                  // Protected by mu
	sidebarCollapsed bool                    // Protected by mu
	version          uint64                  // Protected by mu

	maxSessions int
	now         func() time.Time
	newID       func() string

	obsMu     sync.RWMutex
	observers map[int]Observer
	nextObs   int
}

// Option configures a Registry.
type Option func(*Registry)

// WithMaxSessions bounds the number of concurrently open sessions. Zero
// means unbounded.
func WithMaxSessions(n int) Option {
	return func(r *Registry) { r.maxSessions = n }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithIDFunc overrides session id generation.
func WithIDFunc(fn func() string) Option {
	return func(r *Registry) { r.newID = fn }
}

// NewRegistry creates an empty registry
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
		observers: make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OpenConsole opens a console for vmID, or activates the existing one.
// It returns the id of the resulting session.
func (r *Registry) OpenConsole(vmID, vmName string) (string, error) {
	r.mu.Lock()

	if existing := r.findByVM(vmID); existing != nil {
		id := existing.ID
		if r.activeID == id {
			r.mu.Unlock()
			return id, nil
		}
		r.activeID = id
		r.version++
		ev := r.eventLocked(types.ChangeActivated, id, vmID)
		r.mu.Unlock()

		r.notify(ev)
		return id, nil
	}

	if r.maxSessions > 0 && len(r.sessions) >= r.maxSessions {
		r.mu.Unlock()
		return "", fmt.Errorf("%w: %d open", ErrSessionLimit, r.maxSessions)
	}

	session := &types.ConsoleSession{
		ID:       r.newID(),
		VMID:     vmID,
		VMName:   vmName,
		OpenedAt: r.now(),
	}
	r.sessions = append(r.sessions, session)
	r.activeID = session.ID
	r.version++
	ev := r.eventLocked(types.ChangeOpened, session.ID, vmID)
	r.mu.Unlock()

	r.notify(ev)
	return session.ID, nil
}

// CloseConsole removes a session. When it was active, activation moves to
// the session before it, else the one after it, else none. Returns false
// when the session does not exist.
func (r *Registry) CloseConsole(sessionID string) bool {
	r.mu.Lock()

	idx := r.indexOf(sessionID)
	if idx < 0 {
		r.mu.Unlock()
		return false
	}

	closed := r.sessions[idx]
	r.sessions = append(r.sessions[:idx:idx], r.sessions[idx+1:]...)

	if r.activeID == sessionID {
		switch {
		case len(r.sessions) == 0:
			r.activeID = ""
		case idx > 0:
			r.activeID = r.sessions[idx-1].ID
		default:
			r.activeID = r.sessions[0].ID
		}
	}
	r.version++
	ev := r.eventLocked(types.ChangeClosed, closed.ID, closed.VMID)
	r.mu.Unlock()

	r.notify(ev)
	return true
}

// SetActiveSession focuses a session. Unknown ids are ignored: callers such
// as the keyboard handler may race against a close.
func (r *Registry) SetActiveSession(sessionID string) bool {
	r.mu.Lock()

	idx := r.indexOf(sessionID)
	if idx < 0 {
		r.mu.Unlock()
		return false
	}
	if r.activeID == sessionID {
		r.mu.Unlock()
		return true
	}

	r.activeID = sessionID
	r.version++
	ev := r.eventLocked(types.ChangeActivated, sessionID, r.sessions[idx].VMID)
	r.mu.Unlock()

	r.notify(ev)
	return true
}

// UpdateThumbnail replaces the preview of the session backing vmID. Updates
// for VMs without a session are discarded and leave the registry untouched.
func (r *Registry) UpdateThumbnail(vmID string, thumb types.Thumbnail) bool {
	r.mu.Lock()

	session := r.findByVM(vmID)
	if session == nil {
		r.mu.Unlock()
		return false
	}

	if thumb.UpdatedAt.IsZero() {
		thumb.UpdatedAt = r.now()
	}
	session.Thumbnail = &thumb
	r.version++
	ev := r.eventLocked(types.ChangeThumbnail, session.ID, vmID)
	r.mu.Unlock()

	r.notify(ev)
	return true
}

// SetSidebarCollapsed sets the sidebar preference
func (r *Registry) SetSidebarCollapsed(collapsed bool) {
	r.mu.Lock()
	r.sidebarCollapsed = collapsed
	r.version++
	ev := r.eventLocked(types.ChangeSidebar, "", "")
	r.mu.Unlock()

	r.notify(ev)
}

// State returns a deep copy of the workspace state
func (r *Registry) State() types.WorkspaceState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stateLocked()
}

// Sessions returns copies of the open sessions in tab order
func (r *Registry) Sessions() []types.ConsoleSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copySessions()
}

// ActiveSessionID returns the focused session id, or "" for none
func (r *Registry) ActiveSessionID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeID
}

// SessionAt returns the session at a 1-indexed tab position
func (r *Registry) SessionAt(position int) (types.ConsoleSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if position < 1 || position > len(r.sessions) {
		return types.ConsoleSession{}, false
	}
	return r.sessions[position-1].Clone(), true
}

// FindByVM returns the session backing vmID
func (r *Registry) FindByVM(vmID string) (types.ConsoleSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if s := r.findByVM(vmID); s != nil {
		return s.Clone(), true
	}
	return types.ConsoleSession{}, false
}

// Get returns a session by id
func (r *Registry) Get(sessionID string) (types.ConsoleSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if idx := r.indexOf(sessionID); idx >= 0 {
		return r.sessions[idx].Clone(), true
	}
	return types.ConsoleSession{}, false
}

// Len returns the number of open sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Stats returns registry statistics
func (r *Registry) Stats() types.RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var withThumb int
	for _, s := range r.sessions {
		if s.Thumbnail != nil {
			withThumb++
		}
	}

	return types.RegistryStats{
		OpenSessions:    len(r.sessions),
		MaxSessions:     r.maxSessions,
		ActiveSessionID: r.activeID,
		WithThumbnail:   withThumb,
		Version:         r.version,
	}
}

// Subscribe registers an observer and returns its removal func. Removal is
// idempotent.
func (r *Registry) Subscribe(obs Observer) func() {
	r.obsMu.Lock()
	key := r.nextObs
	r.nextObs++
	r.observers[key] = obs
	r.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.obsMu.Lock()
			delete(r.observers, key)
			r.obsMu.Unlock()
		})
	}
}

func (r *Registry) notify(ev types.ChangeEvent) {
	r.obsMu.RLock()
	keys := make([]int, 0, len(r.observers))
	for k := range r.observers {
		keys = append(keys, k)
	}
	slices.Sort(keys) // subscription order
	observers := make([]Observer, 0, len(keys))
	for _, k := range keys {
		observers = append(observers, r.observers[k])
	}
	r.obsMu.RUnlock()

	for _, obs := range observers {
		obs(ev)
	}
}

// eventLocked must be called with mu held.
func (r *Registry) eventLocked(t types.ChangeType, sessionID, vmID string) types.ChangeEvent {
	return types.ChangeEvent{
		Type:      t,
		SessionID: sessionID,
		VMID:      vmID,
		State:     r.stateLocked(),
	}
}

func (r *Registry) stateLocked() types.WorkspaceState {
	return types.WorkspaceState{
		Sessions:         r.copySessions(),
		ActiveSessionID:  r.activeID,
		SidebarCollapsed: r.sidebarCollapsed,
		Version:          r.version,
	}
}

func (r *Registry) copySessions() []types.ConsoleSession {
	out := make([]types.ConsoleSession, len(r.sessions))
	for i, s := range r.sessions {
		out[i] = s.Clone()
	}
	return out
}

func (r *Registry) findByVM(vmID string) *types.ConsoleSession {
	for _, s := range r.sessions {
		if s.VMID == vmID {
			return s
		}
	}
	return nil
}

func (r *Registry) indexOf(sessionID string) int {
	for i, s := range r.sessions {
		if s.ID == sessionID {
			return i
		}
	}
	return -1
}
