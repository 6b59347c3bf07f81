package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLayoutFile(t *testing.T) {
	s := NewStorage("/var/lib/console/")
	assert.Equal(t, filepath.Join("/var/lib/console", "layouts", "ws_abc.yaml"), s.LayoutFile("ws_abc"))
	assert.Equal(t, []string{"/var/lib/console", filepath.Join("/var/lib/console", "layouts")}, s.StandardDirectories())
}

func TestValidateWorkspaceID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"ws_01J9Z3", true},
		{"", false},
		{"/etc/passwd", false},
		{"../escape", false},
		{"a/b", false},
		{"..", false},
	}
	for _, tt := range tests {
		err := ValidateWorkspaceID(tt.id)
		if tt.valid {
			assert.NoError(t, err, tt.id)
		} else {
			assert.Error(t, err, tt.id)
		}
	}
}

func TestWorkspaceIDFromFile(t *testing.T) {
	id, ok := WorkspaceIDFromFile("/x/layouts/ws_1.yaml")
	assert.True(t, ok)
	assert.Equal(t, "ws_1", id)

	_, ok = WorkspaceIDFromFile("/x/layouts/ws_1.yaml.tmp")
	assert.False(t, ok)
	_, ok = WorkspaceIDFromFile("/x/layouts/.ws_1.yaml")
	assert.False(t, ok)
}
