package workspace

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Galev01/LimiQuantix-sub002/internal/domain/picker"
	"github.com/Galev01/LimiQuantix-sub002/internal/domain/thumbnail"
	"github.com/Galev01/LimiQuantix-sub002/internal/infrastructure/monitoring"
	"github.com/Galev01/LimiQuantix-sub002/internal/shared/types"
	"github.com/Galev01/LimiQuantix-sub002/internal/shared/utils"
)

var (
	// ErrNotSelectable is returned when the picker selection is not a running VM
	ErrNotSelectable = errors.New("vm is not selectable")
	// ErrInvalidDeepLink is returned for deep links with unusable parameters
	ErrInvalidDeepLink = errors.New("invalid deep link")
)

// Registry is the session registry surface the controller drives
type Registry interface {
	OpenConsole(vmID, vmName string) (string, error)
	SetActiveSession(sessionID string) bool
	SessionAt(position int) (types.ConsoleSession, bool)
	Sessions() []types.ConsoleSession
}

// MessageHandler consumes untyped cross-frame messages
type MessageHandler interface {
	Handle(raw []byte) thumbnail.Result
}

// InventorySource provides the last known VM inventory
type InventorySource interface {
	State() types.InventoryState
}

// PickerState is the picker lifecycle: Idle (Open false) or PickerOpen
type PickerState struct {
	Open  bool   `json:"open"`
	Query string `json:"query"`
}

// Controller drives a registry from the events of one mounted window
type Controller struct {
	registry  Registry
	messages  MessageHandler
	inventory InventorySource
	modifier  Modifier
	metrics   *monitoring.Metrics

	mu            sync.Mutex
	window        *Window     // Protected by mu
	removeKey     func()      // Protected by mu
	removeMessage func()      // Protected by mu
	consumedLink  string      // Protected by mu; last deep link acted on
	picker        PickerState // Protected by mu
}

// ControllerOption configures a Controller
type ControllerOption func(*Controller)

// WithModifier sets the primary modifier of the switching shortcut
func WithModifier(m Modifier) ControllerOption {
	return func(c *Controller) { c.modifier = m }
}

// WithInventory enables eligibility checks and picker views
func WithInventory(inv InventorySource) ControllerOption {
	return func(c *Controller) { c.inventory = inv }
}

// NewController creates an unmounted controller
func NewController(registry Registry, messages MessageHandler, opts ...ControllerOption) *Controller {
	c := &Controller{
		registry: registry,
		messages: messages,
		modifier: ModifierCtrl,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithMetrics adds metrics tracking to the controller
func (c *Controller) WithMetrics(metrics *monitoring.Metrics) *Controller {
	c.metrics = metrics
	return c
}

// Mount attaches one key listener and one message listener to w. Mounting
// the same window again is a no-op; mounting another window detaches from
// the current one first.
func (c *Controller) Mount(w *Window) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.window == w {
		return
	}
	c.detachLocked()

	c.window = w
	c.removeKey = w.AddKeyListener(c.handleKey)
	c.removeMessage = w.AddMessageListener(c.handleMessage)
}

// Unmount detaches the listeners. Safe to call when not mounted.
func (c *Controller) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detachLocked()
}

// Mounted reports whether the controller is attached to a window
func (c *Controller) Mounted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.window != nil
}

// Render processes the deep link of loc. A link is acted on once: renders
// that still see the same parameters do nothing, and the marker resets once
// a render sees no parameters. It reports whether a console was opened.
func (c *Controller) Render(loc Location) (bool, error) {
	vmID, vmName, ok := loc.DeepLink()

	c.mu.Lock()
	if !ok {
		c.consumedLink = ""
		c.mu.Unlock()
		return false, nil
	}
	key := vmID + "\x00" + vmName
	if c.consumedLink == key {
		c.mu.Unlock()
		return false, nil
	}
	c.consumedLink = key
	c.mu.Unlock()

	defer loc.ClearDeepLink()

	if err := utils.ValidateID(vmID, ParamVMID, true); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidDeepLink, err)
	}
	name := utils.SanitizeName(vmName)
	if name == "" {
		name = vmID
	}

	if _, err := c.open(vmID, name); err != nil {
		return false, err
	}
	return true, nil
}

// AddConsole opens the picker with a cleared query
func (c *Controller) AddConsole() {
	c.mu.Lock()
	c.picker = PickerState{Open: true}
	c.mu.Unlock()
}

// SetPickerQuery updates the picker filter
func (c *Controller) SetPickerQuery(query string) error {
	if err := utils.ValidateQuery(query); err != nil {
		return err
	}
	c.mu.Lock()
	c.picker.Query = query
	c.mu.Unlock()
	return nil
}

// ClosePicker returns the picker to Idle
func (c *Controller) ClosePicker() {
	c.mu.Lock()
	c.picker = PickerState{}
	c.mu.Unlock()
}

// PickerState returns the picker lifecycle state
func (c *Controller) PickerState() PickerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.picker
}

// PickerView renders the picker against the current inventory
func (c *Controller) PickerView() picker.View {
	state := c.PickerState()
	var inv types.InventoryState
	if c.inventory != nil {
		inv = c.inventory.State()
	}
	return picker.Build(inv, state.Query, c.registry.Sessions())
}

// SelectVM hands a picker selection to the registry and closes the picker.
// With an inventory configured, only running VMs are accepted.
func (c *Controller) SelectVM(vmID, vmName string) (string, error) {
	if err := utils.ValidateID(vmID, "vm_id", true); err != nil {
		return "", err
	}

	name := utils.SanitizeName(vmName)
	if c.inventory != nil {
		entry, ok := picker.Build(c.inventory.State(), "", nil).Find(vmID)
		if !ok || !entry.Selectable {
			return "", fmt.Errorf("%w: %s", ErrNotSelectable, vmID)
		}
		if name == "" {
			name = entry.Name
		}
	}
	if name == "" {
		name = vmID
	}

	sessionID, err := c.open(vmID, name)
	if err != nil {
		return "", err
	}
	c.ClosePicker()
	return sessionID, nil
}

func (c *Controller) open(vmID, vmName string) (string, error) {
	if c.metrics == nil {
		return c.registry.OpenConsole(vmID, vmName)
	}

	_, existed := c.findByVM(vmID)
	sessionID, err := c.registry.OpenConsole(vmID, vmName)
	switch {
	case err != nil:
		c.metrics.RecordConsoleOpen("rejected")
	case existed:
		c.metrics.RecordConsoleOpen("reactivated")
	default:
		c.metrics.RecordConsoleOpen("created")
	}
	return sessionID, err
}

func (c *Controller) findByVM(vmID string) (types.ConsoleSession, bool) {
	for _, s := range c.registry.Sessions() {
		if s.VMID == vmID {
			return s, true
		}
	}
	return types.ConsoleSession{}, false
}

func (c *Controller) handleKey(ev *KeyEvent) {
	if !c.modifier.Only(ev) {
		return
	}
	n, ok := digit(ev.Key)
	if !ok {
		return
	}

	session, ok := c.registry.SessionAt(n)
	if !ok {
		return
	}
	c.registry.SetActiveSession(session.ID)
	ev.PreventDefault()

	if c.metrics != nil {
		c.metrics.RecordShortcutSwitch()
	}
}

func (c *Controller) handleMessage(ev MessageEvent) {
	if c.messages == nil {
		return
	}
	c.messages.Handle(ev.Data)
}

func (c *Controller) detachLocked() {
	if c.removeKey != nil {
		c.removeKey()
	}
	if c.removeMessage != nil {
		c.removeMessage()
	}
	c.window = nil
	c.removeKey = nil
	c.removeMessage = nil
}
