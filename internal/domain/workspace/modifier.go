package workspace

import (
	"fmt"
	"strings"
)

// Modifier is the primary modifier key of the switching shortcut
type Modifier string

const (
	ModifierCtrl Modifier = "ctrl"
	ModifierMeta Modifier = "meta"
	ModifierAlt  Modifier = "alt"
)

// ParseModifier parses a configured modifier name
func ParseModifier(s string) (Modifier, error) {
	switch m := Modifier(strings.ToLower(strings.TrimSpace(s))); m {
	case ModifierCtrl, ModifierMeta, ModifierAlt:
		return m, nil
	default:
		return "", fmt.Errorf("unknown modifier %q (want ctrl, meta or alt)", s)
	}
}

// Only reports whether ev holds this modifier and no other modifier.
// Shift counts as a secondary modifier.
func (m Modifier) Only(ev *KeyEvent) bool {
	if ev.Shift {
		return false
	}
	switch m {
	case ModifierCtrl:
		return ev.Ctrl && !ev.Meta && !ev.Alt
	case ModifierMeta:
		return ev.Meta && !ev.Ctrl && !ev.Alt
	case ModifierAlt:
		return ev.Alt && !ev.Ctrl && !ev.Meta
	default:
		return false
	}
}

// digit returns n for keys "1".."9"
func digit(key string) (int, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return 0, false
	}
	return int(key[0] - '0'), true
}
