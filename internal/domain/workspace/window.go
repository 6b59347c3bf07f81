package workspace

import (
	"slices"
	"sync"
)

// KeyEvent is a keystroke observed by a window
type KeyEvent struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrl"`
	Meta  bool   `json:"meta"`
	Alt   bool   `json:"alt"`
	Shift bool   `json:"shift"`

	prevented bool
}

// PreventDefault suppresses the browser's default handling of the key
func (e *KeyEvent) PreventDefault() { e.prevented = true }

// DefaultPrevented reports whether a listener suppressed the default
func (e *KeyEvent) DefaultPrevented() bool { return e.prevented }

// MessageEvent is a cross-frame message posted to a window. Data is
// untyped; listeners must validate it.
type MessageEvent struct {
	Data   []byte
	Origin string
}

// KeyListener handles key events
type KeyListener func(*KeyEvent)

// MessageListener handles message events
type MessageListener func(MessageEvent)

// Window is the event target of one connected browser tab. Listeners are
// called in registration order, outside the window lock.
type Window struct {
	mu       sync.Mutex
	keys     map[int]KeyListener     // Protected by mu
	messages map[int]MessageListener // Protected by mu
	next     int                     // Protected by mu
}

// NewWindow creates a window with no listeners
func NewWindow() *Window {
	return &Window{
		keys:     make(map[int]KeyListener),
		messages: make(map[int]MessageListener),
	}
}

// AddKeyListener registers l and returns its removal func
func (w *Window) AddKeyListener(l KeyListener) func() {
	w.mu.Lock()
	key := w.next
	w.next++
	w.keys[key] = l
	w.mu.Unlock()

	return w.remover(func() { delete(w.keys, key) })
}

// AddMessageListener registers l and returns its removal func
func (w *Window) AddMessageListener(l MessageListener) func() {
	w.mu.Lock()
	key := w.next
	w.next++
	w.messages[key] = l
	w.mu.Unlock()

	return w.remover(func() { delete(w.messages, key) })
}

// DispatchKey delivers ev to every key listener and reports whether the
// default was prevented.
func (w *Window) DispatchKey(ev *KeyEvent) bool {
	w.mu.Lock()
	listeners := ordered(w.keys)
	w.mu.Unlock()

	for _, l := range listeners {
		l(ev)
	}
	return ev.DefaultPrevented()
}

// DispatchMessage delivers ev to every message listener
func (w *Window) DispatchMessage(ev MessageEvent) {
	w.mu.Lock()
	listeners := ordered(w.messages)
	w.mu.Unlock()

	for _, l := range listeners {
		l(ev)
	}
}

// ListenerCount returns the number of key and message listeners
func (w *Window) ListenerCount() (keys, messages int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.keys), len(w.messages)
}

func (w *Window) remover(del func()) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			del()
			w.mu.Unlock()
		})
	}
}

func ordered[L any](m map[int]L) []L {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]L, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}
