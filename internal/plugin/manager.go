package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ayusman/gestos/internal/logging"
)

// ErrPluginNotFound is returned when a requested plugin cannot be found.
var ErrPluginNotFound = errors.New("plugin not found")

// Manager manages plugin discovery and access.
type Manager struct {
	pluginDir string
	plugins   map[string]*Plugin
	mu        sync.RWMutex
}

// NewManager creates a new plugin Manager with the given plugin directory.
func NewManager(pluginDir string) *Manager {
	return &Manager{
		pluginDir: pluginDir,
		plugins:   make(map[string]*Plugin),
	}
}

// Discover scans the plugin directory and replaces the known plugins.
// A missing directory yields no plugins; broken manifests are skipped.
func (m *Manager) Discover() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.plugins = make(map[string]*Plugin)

	info, err := os.Stat(m.pluginDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat plugin dir: %w", err)
	}
	if !info.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(m.pluginDir)
	if err != nil {
		return fmt.Errorf("read plugin dir: %w", err)
	}

	log := logging.WithPrefix("plugin")
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		p, err := load(filepath.Join(m.pluginDir, entry.Name()))
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				log.Warn("skipping plugin", "dir", entry.Name(), "err", err)
			}
			continue
		}
		m.plugins[p.Manifest.Name] = p
	}

	log.Debug("plugins discovered", "dir", m.pluginDir, "count", len(m.plugins))
	return nil
}

func load(dir string) (*Plugin, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if manifest.Name == "" || manifest.Executable == "" {
		return nil, fmt.Errorf("manifest needs name and executable")
	}

	return &Plugin{
		Manifest:   manifest,
		Path:       dir,
		Executable: filepath.Join(dir, manifest.Executable),
	}, nil
}

// Get returns a plugin by name.
// Returns ErrPluginNotFound if the plugin does not exist.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugin, ok := m.plugins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	return plugin, nil
}

// List returns all discovered plugins sorted by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugins := make([]*Plugin, 0, len(m.plugins))
	for _, plugin := range m.plugins {
		plugins = append(plugins, plugin)
	}
	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Manifest.Name < plugins[j].Manifest.Name
	})
	return plugins
}

// PluginDir returns the plugin directory path.
func (m *Manager) PluginDir() string {
	return m.pluginDir
}
