// Package tray provides the gestos system tray menu.
package tray

import (
	"context"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/gestos/internal/gesture"
)

// Tray is the system tray menu: a detection toggle, the last gesture,
// the drag indicator, a link to the status page and quit.
type Tray struct {
	onToggle   func(enabled bool)
	onSettings func()
	onQuit     func()
	enabled    bool
	last       gesture.Label
	dragging   bool
	mu         sync.RWMutex

	menuToggle      *systray.MenuItem
	menuLastGesture *systray.MenuItem
	menuDrag        *systray.MenuItem
}

// New creates a Tray with detection enabled.
func New() *Tray {
	return &Tray{
		enabled: true,
		last:    gesture.None,
	}
}

// OnToggle sets the callback run when detection is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSettings sets the callback run by "Open Status Page...".
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback run by "Quit", before the tray exits.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the tray and blocks until it quits. It must run on the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// RunContext is Run that also quits when ctx is cancelled.
func (t *Tray) RunContext(ctx context.Context) {
	stop := context.AfterFunc(ctx, systray.Quit)
	defer stop()
	t.Run()
}

func (t *Tray) onReady() {
	systray.SetTitle("gestos")
	systray.SetTooltip("gestos gesture control")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle gesture detection")
	systray.AddSeparator()

	t.menuLastGesture = systray.AddMenuItem(lastTitle(t.last), "Last emitted gesture")
	t.menuLastGesture.Disable()
	t.menuDrag = systray.AddMenuItem(dragTitle(t.dragging), "Mouse button state")
	t.menuDrag.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Status Page...", "Open the status page in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit gestos")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Outside the lock: the callback may call back into the tray.
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetLastGesture updates the "Last:" item.
func (t *Tray) SetLastGesture(label gesture.Label) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = label
	if t.menuLastGesture != nil {
		t.menuLastGesture.SetTitle(lastTitle(label))
	}
}

// SetDragging updates the drag indicator.
func (t *Tray) SetDragging(dragging bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dragging = dragging
	if t.menuDrag != nil {
		t.menuDrag.SetTitle(dragTitle(dragging))
	}
}

// HandleEvent updates the menu from a local bus event. It is subscribed
// to both gesture and state events.
func (t *Tray) HandleEvent(data map[string]any) error {
	if raw, ok := data["label"].(string); ok {
		if label, ok := gesture.ParseLabel(raw); ok {
			t.SetLastGesture(label)
		}
	}
	if state, ok := data["state"].(string); ok {
		t.SetDragging(state == "dragging")
	}
	return nil
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// LastGesture returns the label shown in the menu.
func (t *Tray) LastGesture() gesture.Label {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// Dragging reports the drag indicator state.
func (t *Tray) Dragging() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.dragging
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func lastTitle(label gesture.Label) string {
	if label == "" || label == gesture.None {
		return "Last: none"
	}
	return "Last: " + label.String()
}

func dragTitle(dragging bool) string {
	if dragging {
		return "Mouse: holding"
	}
	return "Mouse: released"
}
