package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindowDispatchOrder(t *testing.T) {
	w := NewWindow()

	var calls []string
	w.AddKeyListener(func(*KeyEvent) { calls = append(calls, "first") })
	w.AddKeyListener(func(ev *KeyEvent) {
		calls = append(calls, "second")
		ev.PreventDefault()
	})

	prevented := w.DispatchKey(&KeyEvent{Key: "a"})

	assert.True(t, prevented)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestWindowRemoveListeners(t *testing.T) {
	w := NewWindow()

	var keys, messages int
	removeKey := w.AddKeyListener(func(*KeyEvent) { keys++ })
	removeMessage := w.AddMessageListener(func(MessageEvent) { messages++ })

	k, m := w.ListenerCount()
	assert.Equal(t, 1, k)
	assert.Equal(t, 1, m)

	removeKey()
	removeKey()
	removeMessage()

	w.DispatchKey(&KeyEvent{Key: "1", Ctrl: true})
	w.DispatchMessage(MessageEvent{Data: []byte(`{}`)})

	assert.Zero(t, keys)
	assert.Zero(t, messages)
	k, m = w.ListenerCount()
	assert.Zero(t, k)
	assert.Zero(t, m)
}

func TestListenerMayRemoveItself(t *testing.T) {
	w := NewWindow()

	var calls int
	var remove func()
	remove = w.AddMessageListener(func(MessageEvent) {
		calls++
		remove()
	})

	w.DispatchMessage(MessageEvent{})
	w.DispatchMessage(MessageEvent{})
	assert.Equal(t, 1, calls)
}

func TestModifierOnly(t *testing.T) {
	tests := []struct {
		name string
		mod  Modifier
		ev   KeyEvent
		want bool
	}{
		{"ctrl alone", ModifierCtrl, KeyEvent{Ctrl: true}, true},
		{"ctrl with shift", ModifierCtrl, KeyEvent{Ctrl: true, Shift: true}, false},
		{"ctrl with alt", ModifierCtrl, KeyEvent{Ctrl: true, Alt: true}, false},
		{"ctrl with meta", ModifierCtrl, KeyEvent{Ctrl: true, Meta: true}, false},
		{"no modifier", ModifierCtrl, KeyEvent{}, false},
		{"meta alone", ModifierMeta, KeyEvent{Meta: true}, true},
		{"meta wants meta", ModifierMeta, KeyEvent{Ctrl: true}, false},
		{"alt alone", ModifierAlt, KeyEvent{Alt: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := tt.ev
			assert.Equal(t, tt.want, tt.mod.Only(&ev))
		})
	}
}

func TestParseModifier(t *testing.T) {
	for in, want := range map[string]Modifier{
		"ctrl": ModifierCtrl, " Ctrl ": ModifierCtrl,
		"META": ModifierMeta, "alt": ModifierAlt,
	} {
		got, err := ParseModifier(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"hyper", "cmd", "option", ""} {
		_, err := ParseModifier(in)
		assert.Error(t, err, in)
	}
}

func TestLinkLocation(t *testing.T) {
	var cleared int
	loc := NewLinkLocation("vm-9", "Test", func() { cleared++ })

	vmID, vmName, ok := loc.DeepLink()
	assert.True(t, ok)
	assert.Equal(t, "vm-9", vmID)
	assert.Equal(t, "Test", vmName)

	loc.ClearDeepLink()
	loc.ClearDeepLink()
	assert.Equal(t, 1, cleared)
	assert.True(t, loc.Cleared())

	_, _, ok = loc.DeepLink()
	assert.False(t, ok)

	_, _, ok = NewLinkLocation("vm-9", "", nil).DeepLink()
	assert.False(t, ok, "both parameters are required")
}
