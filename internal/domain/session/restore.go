package session

import (
	"context"
	"errors"
	"fmt"
)

// Target is the registry surface a layout is restored into
type Target interface {
	OpenConsole(vmID, vmName string) (string, error)
	SetSidebarCollapsed(collapsed bool)
}

// Apply reopens the consoles of a layout in order, then re-activates the
// saved active console. Consoles that cannot be opened are skipped and
// reported in the returned error.
func Apply(target Target, layout *Layout) error {
	var errs []error

	for _, c := range layout.Consoles {
		if _, err := target.OpenConsole(c.VMID, c.VMName); err != nil {
			errs = append(errs, fmt.Errorf("failed to restore console %s: %w", c.VMID, err))
		}
	}

	// OpenConsole on an open VM only re-activates it
	if layout.ActiveVMID != "" {
		for _, c := range layout.Consoles {
			if c.VMID == layout.ActiveVMID {
				if _, err := target.OpenConsole(c.VMID, c.VMName); err != nil {
					errs = append(errs, fmt.Errorf("failed to activate console %s: %w", c.VMID, err))
				}
				break
			}
		}
	}

	target.SetSidebarCollapsed(layout.SidebarCollapsed)

	return errors.Join(errs...)
}

// Restore loads the layout of a workspace and applies it to target. A
// partially applied layout is returned together with the error from Apply.
func (s *FileStore) Restore(ctx context.Context, target Target, workspaceID string) (*Layout, error) {
	layout, err := s.Load(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load layout: %w", err)
	}

	applyErr := Apply(target, layout)

	now := s.now()
	s.mu.Lock()
	s.lastRestored = &now
	s.mu.Unlock()

	return layout, applyErr
}
