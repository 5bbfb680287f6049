package input

import (
	"context"
	"fmt"

	"github.com/ayusman/gestos/internal/cursor"
	"github.com/ayusman/gestos/internal/dispatch"
	"github.com/ayusman/gestos/internal/plugin"
)

// DefaultPlugin is the plugin used when none is configured.
const DefaultPlugin = "xdotool"

// defaultScreen is assumed when a plugin provider has no configured screen.
var defaultScreen = cursor.Size{W: 1920, H: 1080}

// Plugin performs each action by running an external plugin.
type Plugin struct {
	plugin   *plugin.Plugin
	executor *plugin.Executor
	screen   cursor.Size
}

// NewPlugin discovers config.PluginDir and binds the named plugin.
func NewPlugin(config Config) (*Plugin, error) {
	name := config.Plugin
	if name == "" {
		name = DefaultPlugin
	}

	mgr := plugin.NewManager(config.PluginDir)
	if err := mgr.Discover(); err != nil {
		return nil, fmt.Errorf("discover plugins: %w", err)
	}
	p, err := mgr.Get(name)
	if err != nil {
		return nil, err
	}
	return NewPluginFor(p, plugin.NewExecutor(config.Timeout), config.Screen), nil
}

// NewPluginFor binds an already discovered plugin.
func NewPluginFor(p *plugin.Plugin, executor *plugin.Executor, screen cursor.Size) *Plugin {
	if !screen.Valid() {
		screen = defaultScreen
	}
	return &Plugin{plugin: p, executor: executor, screen: screen}
}

func (p *Plugin) Name() string { return ProviderPlugin + ":" + p.plugin.Manifest.Name }

func (p *Plugin) ScreenSize() cursor.Size { return p.screen }

func (p *Plugin) Click() error       { return p.run(dispatch.ActionClick, plugin.Params{}) }
func (p *Plugin) RightClick() error  { return p.run(dispatch.ActionRightClick, plugin.Params{}) }
func (p *Plugin) DoubleClick() error { return p.run(dispatch.ActionDoubleClick, plugin.Params{}) }
func (p *Plugin) MouseDown() error   { return p.run(dispatch.ActionMouseDown, plugin.Params{}) }
func (p *Plugin) MouseUp() error     { return p.run(dispatch.ActionMouseUp, plugin.Params{}) }

func (p *Plugin) MoveTo(x, y int) error {
	return p.run(dispatch.ActionMove, plugin.Params{X: x, Y: y})
}

func (p *Plugin) Scroll(delta int) error {
	return p.run(dispatch.ActionScroll, plugin.Params{Delta: delta})
}

func (p *Plugin) run(action string, params plugin.Params) error {
	return p.executor.Run(context.Background(), p.plugin, &plugin.Request{
		Action: action,
		Params: params,
	})
}
