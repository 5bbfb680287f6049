// Package input provides the input-injection backends behind dispatch.Injector.
package input

import (
	"fmt"
	"time"

	"github.com/ayusman/gestos/internal/cursor"
	"github.com/ayusman/gestos/internal/dispatch"
)

// Provider names accepted by New.
const (
	ProviderRobotgo = "robotgo"
	ProviderPlugin  = "plugin"
	ProviderDryRun  = "dryrun"
)

// DoubleClickWindow is the longest gap between two clicks that counts as a double click.
const DoubleClickWindow = 300 * time.Millisecond

// Provider injects input and knows the size of the screen it drives.
type Provider interface {
	dispatch.Injector
	Name() string
	ScreenSize() cursor.Size
}

// Config selects and configures a Provider.
type Config struct {
	Provider string
	// Screen overrides the detected screen size when valid.
	Screen cursor.Size

	// Plugin provider settings.
	Plugin    string
	PluginDir string
	Timeout   time.Duration
}

// New builds the configured provider.
func New(config Config) (Provider, error) {
	switch config.Provider {
	case ProviderRobotgo, "":
		return NewRobotgo(config.Screen), nil
	case ProviderPlugin:
		return NewPlugin(config)
	case ProviderDryRun:
		return NewDryRun(config.Screen), nil
	}
	return nil, fmt.Errorf("unknown input provider %q", config.Provider)
}

// ClickTracker detects double clicks from click timestamps.
type ClickTracker struct {
	window  time.Duration
	last    time.Time
	doubles int
}

// NewClickTracker creates a tracker. A non-positive window uses DoubleClickWindow.
func NewClickTracker(window time.Duration) *ClickTracker {
	if window <= 0 {
		window = DoubleClickWindow
	}
	return &ClickTracker{window: window}
}

// Observe records a click at now and reports whether it completes a double click.
// The click after a double click starts a new pair.
func (c *ClickTracker) Observe(now time.Time) bool {
	if !c.last.IsZero() && now.Sub(c.last) <= c.window {
		c.last = time.Time{}
		c.doubles++
		return true
	}
	c.last = now
	return false
}

// DoubleClicks returns how many double clicks were observed.
func (c *ClickTracker) DoubleClicks() int {
	return c.doubles
}
