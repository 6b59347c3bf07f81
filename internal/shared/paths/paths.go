package paths

import (
	"fmt"
	"path/filepath"
	"strings"
)

// LayoutExt is the extension of persisted workspace layouts
const LayoutExt = ".yaml"

// Storage resolves paths under a storage root
type Storage struct {
	Root string
}

// NewStorage returns a Storage rooted at root
func NewStorage(root string) Storage {
	return Storage{Root: filepath.Clean(root)}
}

// LayoutsDir returns the directory holding workspace layouts
func (s Storage) LayoutsDir() string {
	return filepath.Join(s.Root, "layouts")
}

// LayoutFile returns the layout file of a workspace
func (s Storage) LayoutFile(workspaceID string) string {
	return filepath.Join(s.LayoutsDir(), workspaceID+LayoutExt)
}

// StandardDirectories returns all directories that should exist
func (s Storage) StandardDirectories() []string {
	return []string{s.Root, s.LayoutsDir()}
}

// WorkspaceIDFromFile returns the workspace id encoded in a layout file name
func WorkspaceIDFromFile(name string) (string, bool) {
	base := filepath.Base(name)
	if !strings.HasSuffix(base, LayoutExt) || strings.HasPrefix(base, ".") {
		return "", false
	}
	id := strings.TrimSuffix(base, LayoutExt)
	if ValidateWorkspaceID(id) != nil {
		return "", false
	}
	return id, true
}

// ValidateWorkspaceID checks if a workspace ID is valid for path construction
func ValidateWorkspaceID(id string) error {
	if id == "" {
		return fmt.Errorf("workspace ID cannot be empty")
	}
	if filepath.IsAbs(id) {
		return fmt.Errorf("workspace ID cannot be an absolute path")
	}
	if filepath.Clean(id) != id || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("workspace ID contains invalid path components")
	}
	return nil
}
