package themecontrol

import (
	"sync"

	"folio-terminal/internal/themestore"
)

// Binding is the part of the theme store a control needs.
type Binding interface {
	State() themestore.State
	Toggle()
	Subscribe(themestore.Listener) (unsubscribe func())
}

// Control is a toggle bound to a store. It subscribes on construction and
// must be closed when it leaves the screen.
type Control struct {
	binding Binding
	cfg     Config
	painter Painter

	mu          sync.Mutex
	state       themestore.State
	view        string
	renders     int
	unsubscribe func()
}

// New binds a control with the given configuration.
func New(b Binding, cfg Config, p Painter) *Control {
	c := &Control{binding: b, cfg: cfg.Normalize(), painter: p}
	c.unsubscribe = b.Subscribe(c.rerender)

	state := b.State()
	view := Render(state, c.cfg, p)
	c.mu.Lock()
	// A notification that raced the initial read is newer; keep it.
	if c.renders == 0 {
		c.state, c.view, c.renders = state, view, 1
	}
	c.mu.Unlock()
	return c
}

// Compact is the icon-only control used in headers.
func Compact(b Binding, p Painter) *Control {
	return New(b, Config{Variant: CompactIcon, Size: Small}, p)
}

// Smart pairs a small icon with an "Auto" captioned switch.
func Smart(b Binding, p Painter) *Control {
	return New(b, SmartConfig, p)
}

// SmartConfig is the configuration behind Smart.
var SmartConfig = Config{Variant: LabeledSwitch, Size: Medium, ShowLabel: true, Icon: true, Caption: "Auto"}

func (c *Control) rerender(state themestore.State) {
	view := Render(state, c.cfg, c.painter)
	c.mu.Lock()
	c.state = state
	c.view = view
	c.renders++
	c.mu.Unlock()
}

// View returns the most recent rendering.
func (c *Control) View() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Hint describes what Activate will do.
func (c *Control) Hint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Hint(c.state)
}

// Renders counts how many times the control has been drawn.
func (c *Control) Renders() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renders
}

// Config returns the normalized configuration.
func (c *Control) Config() Config { return c.cfg }

// Activate toggles the bound store once. There is no debounce.
func (c *Control) Activate() {
	c.binding.Toggle()
}

// Close unsubscribes the control from its store.
func (c *Control) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}
