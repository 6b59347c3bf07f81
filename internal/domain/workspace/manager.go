package workspace

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Galev01/LimiQuantix-sub002/internal/domain/console"
	"github.com/Galev01/LimiQuantix-sub002/internal/domain/session"
	"github.com/Galev01/LimiQuantix-sub002/internal/domain/thumbnail"
	"github.com/Galev01/LimiQuantix-sub002/internal/infrastructure/logging"
	"github.com/Galev01/LimiQuantix-sub002/internal/infrastructure/monitoring"
	"github.com/Galev01/LimiQuantix-sub002/internal/shared/id"
	"github.com/Galev01/LimiQuantix-sub002/internal/shared/paths"
	"github.com/Galev01/LimiQuantix-sub002/internal/shared/types"
	"go.uber.org/zap"
)

// ErrWorkspaceNotFound is returned for unknown workspace ids
var ErrWorkspaceNotFound = errors.New("workspace not found")

// LayoutStore persists workspace layouts
type LayoutStore interface {
	Save(ctx context.Context, layout session.Layout) error
	Load(ctx context.Context, workspaceID string) (*session.Layout, error)
	Delete(ctx context.Context, workspaceID string) error
	Restore(ctx context.Context, target session.Target, workspaceID string) (*session.Layout, error)
}

// Settings are the per-workspace limits
type Settings struct {
	MaxSessions       int
	ThumbnailInterval time.Duration
	ThumbnailMaxBytes int
	Modifier          Modifier
}

// DefaultSettings returns the default limits
func DefaultSettings() Settings {
	return Settings{
		MaxSessions:       12,
		ThumbnailInterval: time.Second,
		ThumbnailMaxBytes: thumbnail.DefaultMaxBytes,
		Modifier:          ModifierCtrl,
	}
}

// Workspace is one console workspace and its thumbnail ingestor
type Workspace struct {
	ID        string
	Registry  *console.Registry
	Ingestor  *thumbnail.Ingestor
	CreatedAt time.Time

	unsubscribe []func()

	implicit bool // Created on connect rather than by Create or a stored layout
	conns    int  // Protected by Manager.mu

	saveMu       sync.Mutex
	savedVersion uint64 // Protected by saveMu
	deleted      bool   // Protected by saveMu
}

// Summary is the listing view of a workspace
type Summary struct {
	ID              string    `json:"id"`
	Consoles        int       `json:"consoles"`
	ActiveSessionID string    `json:"active_session_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Manager owns the workspaces of the process
type Manager struct {
	mu         sync.RWMutex
	workspaces map[string]*Workspace // Protected by mu

	settings  Settings
	store     LayoutStore
	inventory InventorySource
	metrics   *monitoring.Metrics
	logger    *logging.Logger
}

// NewManager creates a workspace manager
func NewManager(settings Settings) *Manager {
	return &Manager{
		workspaces: make(map[string]*Workspace),
		settings:   settings,
		logger:     logging.NewNop(),
	}
}

// WithStore enables layout persistence
func (m *Manager) WithStore(store LayoutStore) *Manager {
	m.store = store
	return m
}

// WithInventory sets the inventory used by controllers
func (m *Manager) WithInventory(inv InventorySource) *Manager {
	m.inventory = inv
	return m
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// WithLogger sets the logger
func (m *Manager) WithLogger(logger *logging.Logger) *Manager {
	m.logger = logger.Named("workspace")
	return m
}

// Create creates an empty workspace with a fresh id
func (m *Manager) Create() *Workspace {
	w := m.build(id.NewWorkspaceID().String())
	m.attach(w)
	m.mu.Lock()
	m.workspaces[w.ID] = w
	count := len(m.workspaces)
	m.mu.Unlock()

	m.recordCount(count)
	m.logger.Info("workspace created", zap.String("workspace_id", w.ID))
	return w
}

// Get returns an in-memory workspace
func (m *Manager) Get(workspaceID string) (*Workspace, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.workspaces[workspaceID]
	return w, ok
}

// Open returns the workspace, restoring it from its stored layout when it
// is not in memory.
func (m *Manager) Open(ctx context.Context, workspaceID string) (*Workspace, error) {
	if w, ok := m.Get(workspaceID); ok {
		return w, nil
	}
	if m.store == nil {
		return nil, fmt.Errorf("%w: %s", ErrWorkspaceNotFound, workspaceID)
	}
	if err := paths.ValidateWorkspaceID(workspaceID); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWorkspaceNotFound, workspaceID)
	}

	w := m.build(workspaceID)
	layout, err := m.store.Restore(ctx, w.Registry, workspaceID)
	if layout == nil {
		m.recordLayout("load", err)
		if errors.Is(err, session.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrWorkspaceNotFound, workspaceID)
		}
		return nil, fmt.Errorf("failed to load workspace %s: %w", workspaceID, err)
	}
	m.recordLayout("load", nil)
	if err != nil {
		m.logger.Warn("workspace partially restored",
			zap.String("workspace_id", workspaceID), zap.Error(err))
	}
	w.savedVersion = w.Registry.State().Version

	m.mu.Lock()
	if existing, ok := m.workspaces[workspaceID]; ok {
		// Lost a race with a concurrent Open
		m.mu.Unlock()
		return existing, nil
	}
	m.attach(w)
	m.workspaces[workspaceID] = w
	count := len(m.workspaces)
	m.mu.Unlock()

	m.recordCount(count)
	if m.metrics != nil {
		m.metrics.SetConsolesOpen(w.ID, w.Registry.Len())
	}
	m.logger.Info("workspace restored",
		zap.String("workspace_id", workspaceID),
		zap.Int("consoles", w.Registry.Len()))
	return w, nil
}

// GetOrCreate opens the workspace, or creates an empty one under the given
// id when nothing is stored for it.
func (m *Manager) GetOrCreate(ctx context.Context, workspaceID string) (*Workspace, error) {
	w, err := m.Open(ctx, workspaceID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, ErrWorkspaceNotFound) {
		return nil, err
	}
	if err := paths.ValidateWorkspaceID(workspaceID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if existing, ok := m.workspaces[workspaceID]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	w = m.build(workspaceID)
	w.implicit = true
	m.attach(w)
	m.workspaces[workspaceID] = w
	count := len(m.workspaces)
	m.mu.Unlock()

	m.recordCount(count)
	return w, nil
}

// Connect opens or creates the workspace for a live connection. The
// returned release func must be called once the connection ends. Releasing
// the last connection of an implicitly created workspace evicts it when it
// holds no consoles and has never been saved.
func (m *Manager) Connect(ctx context.Context, workspaceID string) (*Workspace, func(), error) {
	for {
		w, err := m.GetOrCreate(ctx, workspaceID)
		if err != nil {
			return nil, nil, err
		}

		m.mu.Lock()
		if m.workspaces[workspaceID] != w {
			// Evicted or deleted between GetOrCreate and here
			m.mu.Unlock()
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			continue
		}
		w.conns++
		m.mu.Unlock()

		var once sync.Once
		return w, func() { once.Do(func() { m.release(w) }) }, nil
	}
}

func (m *Manager) release(w *Workspace) {
	m.mu.Lock()
	w.conns--
	if w.conns > 0 || !w.implicit || m.workspaces[w.ID] != w || w.Registry.Len() > 0 {
		m.mu.Unlock()
		return
	}
	w.saveMu.Lock()
	saved := w.savedVersion > 0
	if !saved {
		w.deleted = true
	}
	w.saveMu.Unlock()
	if saved {
		m.mu.Unlock()
		return
	}
	delete(m.workspaces, w.ID)
	count := len(m.workspaces)
	m.mu.Unlock()

	for _, unsubscribe := range w.unsubscribe {
		unsubscribe()
	}
	m.recordCount(count)
	if m.metrics != nil {
		m.metrics.ForgetWorkspace(w.ID)
	}
	m.logger.Debug("idle workspace evicted", zap.String("workspace_id", w.ID))
}

// Delete drops a workspace and its stored layout
func (m *Manager) Delete(ctx context.Context, workspaceID string) error {
	m.mu.Lock()
	w, inMemory := m.workspaces[workspaceID]
	delete(m.workspaces, workspaceID)
	count := len(m.workspaces)
	m.mu.Unlock()

	stored := false
	if m.store != nil && paths.ValidateWorkspaceID(workspaceID) == nil {
		if _, err := m.store.Load(ctx, workspaceID); err == nil {
			stored = true
		}
	}
	if !inMemory && !stored {
		return fmt.Errorf("%w: %s", ErrWorkspaceNotFound, workspaceID)
	}

	if inMemory {
		w.saveMu.Lock()
		w.deleted = true
		w.saveMu.Unlock()
		for _, unsubscribe := range w.unsubscribe {
			unsubscribe()
		}
	}

	if m.store != nil {
		err := m.store.Delete(ctx, workspaceID)
		m.recordLayout("delete", err)
		if err != nil {
			return fmt.Errorf("failed to delete layout: %w", err)
		}
	}

	m.recordCount(count)
	if m.metrics != nil {
		m.metrics.ForgetWorkspace(workspaceID)
	}
	m.logger.Info("workspace deleted", zap.String("workspace_id", workspaceID))
	return nil
}

// List returns summaries of the in-memory workspaces, oldest first
func (m *Manager) List() []Summary {
	m.mu.RLock()
	list := make([]*Workspace, 0, len(m.workspaces))
	for _, w := range m.workspaces {
		list = append(list, w)
	}
	m.mu.RUnlock()

	summaries := make([]Summary, len(list))
	for i, w := range list {
		stats := w.Registry.Stats()
		summaries[i] = Summary{
			ID:              w.ID,
			Consoles:        stats.OpenSessions,
			ActiveSessionID: stats.ActiveSessionID,
			CreatedAt:       w.CreatedAt,
		}
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].ID < summaries[j].ID
		}
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	return summaries
}

// Len returns the number of in-memory workspaces
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.workspaces)
}

// NewController returns an unmounted controller for w
func (m *Manager) NewController(w *Workspace) *Controller {
	opts := []ControllerOption{WithModifier(m.settings.Modifier)}
	if m.inventory != nil {
		opts = append(opts, WithInventory(m.inventory))
	}
	return NewController(w.Registry, w.Ingestor, opts...).WithMetrics(m.metrics)
}

func (m *Manager) build(workspaceID string) *Workspace {
	reg := console.NewRegistry(console.WithMaxSessions(m.settings.MaxSessions))
	ingestor := thumbnail.NewIngestor(reg,
		thumbnail.WithInterval(m.settings.ThumbnailInterval),
		thumbnail.WithMaxBytes(m.settings.ThumbnailMaxBytes),
	).WithMetrics(m.metrics)

	return &Workspace{
		ID:        workspaceID,
		Registry:  reg,
		Ingestor:  ingestor,
		CreatedAt: time.Now(),
	}
}

func (m *Manager) attach(w *Workspace) {
	w.unsubscribe = append(w.unsubscribe, w.Registry.Subscribe(w.Ingestor.Observe))
	if m.metrics != nil {
		w.unsubscribe = append(w.unsubscribe, w.Registry.Subscribe(m.observeMetrics(w.ID)))
	}
	if m.store != nil {
		w.unsubscribe = append(w.unsubscribe, w.Registry.Subscribe(m.persist(w)))
	}
}

func (m *Manager) observeMetrics(workspaceID string) console.Observer {
	return func(ev types.ChangeEvent) {
		switch ev.Type {
		case types.ChangeOpened:
			m.metrics.SetConsolesOpen(workspaceID, len(ev.State.Sessions))
		case types.ChangeClosed:
			m.metrics.RecordConsoleClose()
			m.metrics.SetConsolesOpen(workspaceID, len(ev.State.Sessions))
		}
	}
}

// persist saves the layout after structural changes. Snapshots older than
// the last saved one are skipped, so concurrent mutators cannot roll the
// file back.
func (m *Manager) persist(w *Workspace) console.Observer {
	return func(ev types.ChangeEvent) {
		if !ev.Structural() {
			return
		}

		w.saveMu.Lock()
		defer w.saveMu.Unlock()

		if w.deleted || ev.State.Version <= w.savedVersion {
			return
		}

		err := m.store.Save(context.Background(), session.Capture(w.ID, ev.State))
		m.recordLayout("save", err)
		if err != nil {
			m.logger.Error("failed to save workspace layout",
				zap.String("workspace_id", w.ID),
				zap.Uint64("version", ev.State.Version),
				zap.Error(err))
			return
		}
		w.savedVersion = ev.State.Version
	}
}

func (m *Manager) recordLayout(op string, err error) {
	if m.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.metrics.RecordLayout(op, status)
}

func (m *Manager) recordCount(count int) {
	if m.metrics != nil {
		m.metrics.SetWorkspaces(count)
	}
}
