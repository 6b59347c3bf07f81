package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/Galev01/LimiQuantix-sub002/internal/infrastructure/logging"
	"github.com/Galev01/LimiQuantix-sub002/internal/infrastructure/monitoring"
	"github.com/Galev01/LimiQuantix-sub002/internal/shared/types"
	"go.uber.org/zap"
)

// Lister fetches the VM inventory
type Lister interface {
	ListVMs(ctx context.Context) ([]types.VM, error)
}

// Store caches the last fetched inventory for the picker
type Store struct {
	client  Lister
	metrics *monitoring.Metrics
	logger  *logging.Logger
	now     func() time.Time

	mu        sync.RWMutex
	vms       []types.VM // Protected by mu
	loaded    bool       // Protected by mu; first fetch finished
	lastErr   string     // Protected by mu
	fetchedAt *time.Time // Protected by mu
}

// NewStore creates a store that has not fetched yet
func NewStore(client Lister) *Store {
	return &Store{
		client: client,
		logger: logging.NewNop(),
		now:    time.Now,
	}
}

// WithMetrics adds metrics tracking to the store
func (s *Store) WithMetrics(metrics *monitoring.Metrics) *Store {
	s.metrics = metrics
	return s
}

// WithLogger sets the logger
func (s *Store) WithLogger(logger *logging.Logger) *Store {
	s.logger = logger.Named("inventory")
	return s
}

// State returns a copy of the cached inventory. Loading stays true until
// the first fetch finishes; a failed refresh keeps the previous VMs.
func (s *Store) State() types.InventoryState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vms := make([]types.VM, len(s.vms))
	copy(vms, s.vms)

	state := types.InventoryState{
		Loading: !s.loaded,
		VMs:     vms,
		Error:   s.lastErr,
	}
	if s.fetchedAt != nil {
		t := *s.fetchedAt
		state.FetchedAt = &t
	}
	return state
}

// Refresh fetches the inventory once
func (s *Store) Refresh(ctx context.Context) error {
	start := s.now()
	vms, err := s.client.ListVMs(ctx)
	duration := s.now().Sub(start)

	s.mu.Lock()
	s.loaded = true
	if err != nil {
		s.lastErr = err.Error()
	} else {
		now := s.now()
		s.vms = vms
		s.lastErr = ""
		s.fetchedAt = &now
	}
	s.mu.Unlock()

	if s.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		s.metrics.RecordInventoryFetch(status, duration, len(vms))
	}

	if err != nil {
		s.logger.Warn("inventory refresh failed", zap.Error(err), zap.Duration("duration", duration))
		return err
	}
	s.logger.Debug("inventory refreshed", zap.Int("vms", len(vms)), zap.Duration("duration", duration))
	return nil
}

// Run refreshes immediately and then every interval until ctx is done. A
// non-positive interval refreshes once and returns.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	_ = s.Refresh(ctx)
	if interval <= 0 {
		s.logger.Warn("inventory polling disabled", zap.Duration("interval", interval))
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Refresh(ctx)
		}
	}
}
