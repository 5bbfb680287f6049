package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/gestos/internal/gesture"
	"github.com/ayusman/gestos/internal/input"
	"github.com/ayusman/gestos/internal/relay"
)

func TestLoad_FirstRunWritesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load("")
	require.NoError(t, err)

	dir := filepath.Join(home, ".gestos")
	assert.Equal(t, dir, cfg.Dir)
	assert.FileExists(t, filepath.Join(dir, "config.yaml"))
	assert.Equal(t, filepath.Join(dir, "config.yaml"), cfg.File)

	assert.Equal(t, 500*time.Millisecond, cfg.Gesture.Cooldown)
	assert.Equal(t, 7.0, cfg.Cursor.Smoothing)
	assert.Equal(t, 0.05, cfg.Gesture.ClickThreshold)
	assert.Equal(t, "left", cfg.Gesture.Thumb)
	assert.Equal(t, relay.DefaultAddr, cfg.Relay.Addr)
	assert.Equal(t, input.ProviderRobotgo, cfg.Input.Provider)
	assert.Equal(t, filepath.Join(dir, "plugins"), cfg.Input.PluginDir)
	assert.Equal(t, filepath.Join(dir, "gestos.db"), cfg.Store.Path)
	assert.False(t, cfg.Store.Journal)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
gesture:
  cooldown: 750ms
  extended: true
  thumb: RIGHT
cursor:
  smoothing: 4
input:
  provider: dryrun
`), 0o644))

	t.Setenv("GESTOS_RELAY_ADDR", "10.0.0.2:7000")
	t.Setenv("GESTOS_DISPATCH_SCROLL_STEP", "240")

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, 750*time.Millisecond, cfg.Gesture.Cooldown)
	assert.True(t, cfg.Gesture.Extended)
	assert.Equal(t, "right", cfg.Gesture.Thumb)
	assert.Equal(t, 4.0, cfg.Cursor.Smoothing)
	assert.Equal(t, input.ProviderDryRun, cfg.Input.Provider)
	assert.Equal(t, "10.0.0.2:7000", cfg.Relay.Addr)
	assert.Equal(t, 240, cfg.ScrollStep)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingNamedFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero cooldown", func(c *Config) { c.Gesture.Cooldown = 0 }},
		{"negative smoothing", func(c *Config) { c.Cursor.Smoothing = -1 }},
		{"zero click threshold", func(c *Config) { c.Gesture.ClickThreshold = 0 }},
		{"zero motion threshold", func(c *Config) { c.Camera.MotionThreshold = 0 }},
		{"zero history", func(c *Config) { c.Gesture.History = 0 }},
		{"zero cursor rate", func(c *Config) { c.Cursor.MaxRate = 0 }},
		{"unknown thumb", func(c *Config) { c.Gesture.Thumb = "up" }},
		{"unknown provider", func(c *Config) { c.Input.Provider = "telepathy" }},
		{"empty relay", func(c *Config) { c.Relay.Addr = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(t.TempDir())
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestApply(t *testing.T) {
	cfg := Default(t.TempDir())

	require.NoError(t, cfg.Apply(map[string]string{
		KeyCooldown:  "0.8",
		KeySmoothing: "3.5",
		KeyThumb:     "right",
		"unrelated":  "x",
	}))
	assert.Equal(t, 800*time.Millisecond, cfg.Gesture.Cooldown)
	assert.Equal(t, 3.5, cfg.Cursor.Smoothing)
	assert.Equal(t, string(gesture.ThumbTipRight), cfg.Gesture.Thumb)

	assert.ErrorIs(t, cfg.Apply(map[string]string{KeySmoothing: "fast"}), ErrInvalid)
	assert.ErrorIs(t, cfg.Set(KeyCooldown, "-1s"), ErrInvalid)
	assert.Error(t, cfg.Set(KeyRelayAddr, "x"))
}

func TestGet(t *testing.T) {
	cfg := Default(t.TempDir())

	v, ok := cfg.Get(KeyCooldown)
	assert.True(t, ok)
	assert.Equal(t, "500ms", v)

	v, ok = cfg.Get(KeySmoothing)
	assert.True(t, ok)
	assert.Equal(t, "7", v)

	_, ok = cfg.Get(KeyRelayAddr)
	assert.False(t, ok)

	for _, key := range Overridable {
		_, ok := cfg.Get(key)
		assert.True(t, ok, key)
	}
}
