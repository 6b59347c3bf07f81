package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Galev01/LimiQuantix-sub002/internal/shared/paths"
	"github.com/Galev01/LimiQuantix-sub002/internal/shared/utils"
	"github.com/goccy/go-yaml"
)

// ErrNotFound is returned when no layout is stored for a workspace
var ErrNotFound = errors.New("layout not found")

// FileStore persists one YAML document per workspace
type FileStore struct {
	storage      paths.Storage
	layouts      sync.Map // workspace id -> *Layout
	mu           sync.RWMutex
	lastSaved    *time.Time
	lastRestored *time.Time
	now          func() time.Time
}

// NewFileStore creates the storage directories and returns a store
func NewFileStore(root string) (*FileStore, error) {
	storage := paths.NewStorage(root)
	for _, dir := range storage.StandardDirectories() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return &FileStore{storage: storage, now: time.Now}, nil
}

// Save writes the layout, replacing any previous one atomically
func (s *FileStore) Save(ctx context.Context, layout Layout) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := paths.ValidateWorkspaceID(layout.WorkspaceID); err != nil {
		return err
	}

	now := s.now()
	layout.SavedAt = now

	data, err := yaml.Marshal(layout)
	if err != nil {
		return fmt.Errorf("failed to marshal layout: %w", err)
	}

	// Write to a temp file in the same directory, then rename over the target
	path := s.storage.LayoutFile(layout.WorkspaceID)
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+layout.WorkspaceID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write layout: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write layout: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write layout: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write layout: %w", err)
	}

	s.layouts.Store(layout.WorkspaceID, &layout)

	s.mu.Lock()
	s.lastSaved = &now
	s.mu.Unlock()

	return nil
}

// Load reads a layout
func (s *FileStore) Load(ctx context.Context, workspaceID string) (*Layout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := paths.ValidateWorkspaceID(workspaceID); err != nil {
		return nil, err
	}

	if cached, ok := s.layouts.Load(workspaceID); ok {
		layout := *cached.(*Layout)
		return &layout, nil
	}

	data, err := os.ReadFile(s.storage.LayoutFile(workspaceID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, workspaceID)
		}
		return nil, fmt.Errorf("failed to read layout: %w", err)
	}

	var layout Layout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("failed to unmarshal layout %s: %w", workspaceID, err)
	}
	if err := validate(&layout, workspaceID); err != nil {
		return nil, err
	}

	s.layouts.Store(workspaceID, &layout)
	copied := layout
	return &copied, nil
}

// Delete removes a layout. Deleting a missing layout is not an error.
func (s *FileStore) Delete(ctx context.Context, workspaceID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := paths.ValidateWorkspaceID(workspaceID); err != nil {
		return err
	}

	if err := os.Remove(s.storage.LayoutFile(workspaceID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete layout: %w", err)
	}
	s.layouts.Delete(workspaceID)
	return nil
}

// List returns metadata for every stored layout, most recent first
func (s *FileStore) List(ctx context.Context) ([]Metadata, error) {
	entries, err := os.ReadDir(s.storage.LayoutsDir())
	if err != nil {
		return nil, fmt.Errorf("failed to list layouts: %w", err)
	}

	metadata := make([]Metadata, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ok := paths.WorkspaceIDFromFile(entry.Name())
		if !ok {
			continue
		}
		layout, err := s.Load(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue // Unreadable files are skipped, not fatal
		}
		metadata = append(metadata, layout.ToMetadata())
	}

	sort.Slice(metadata, func(i, j int) bool {
		return metadata[i].SavedAt.After(metadata[j].SavedAt)
	})
	return metadata, nil
}

// Stats returns store statistics
func (s *FileStore) Stats() Stats {
	var cached int
	s.layouts.Range(func(_, _ interface{}) bool {
		cached++
		return true
	})

	s.mu.RLock()
	lastSaved := s.lastSaved
	lastRestored := s.lastRestored
	s.mu.RUnlock()

	return Stats{Cached: cached, LastSaved: lastSaved, LastRestored: lastRestored}
}

func validate(layout *Layout, workspaceID string) error {
	if layout.WorkspaceID != workspaceID {
		return fmt.Errorf("layout %s has mismatched workspace ID %q", workspaceID, layout.WorkspaceID)
	}
	for i, c := range layout.Consoles {
		if err := utils.ValidateID(c.VMID, fmt.Sprintf("consoles[%d].vm_id", i), true); err != nil {
			return fmt.Errorf("layout %s: %w", workspaceID, err)
		}
	}
	return nil
}
