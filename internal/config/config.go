// Package config loads gestos settings from ~/.gestos/config.yaml and
// GESTOS_* environment variables using viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ayusman/gestos/internal/capture"
	"github.com/ayusman/gestos/internal/cursor"
	"github.com/ayusman/gestos/internal/detector"
	"github.com/ayusman/gestos/internal/dispatch"
	"github.com/ayusman/gestos/internal/gesture"
	"github.com/ayusman/gestos/internal/input"
	"github.com/ayusman/gestos/internal/plugin"
	"github.com/ayusman/gestos/internal/relay"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envPrefix      = "GESTOS"
	dirName        = ".gestos"

	// DefaultCursorRate is the default number of remote cursor events per second.
	DefaultCursorRate = 30.0
	// DefaultHTTPAddr is where the status server listens when enabled.
	DefaultHTTPAddr = "127.0.0.1:8080"
)

// Keys.
const (
	KeyCameraID        = "camera.id"
	KeyCameraWidth     = "camera.width"
	KeyCameraHeight    = "camera.height"
	KeyCameraMirror    = "camera.mirror"
	KeyMotionThreshold = "camera.motion_threshold"
	KeyMaxHands        = "detector.max_hands"
	KeyMinConfidence   = "detector.min_confidence"
	KeyClickThreshold  = "gesture.click_threshold"
	KeyThumb           = "gesture.thumb"
	KeyExtended        = "gesture.extended"
	KeyCooldown        = "gesture.cooldown"
	KeyHistory         = "gesture.history"
	KeySmoothing       = "cursor.smoothing"
	KeyCursorRate      = "cursor.max_rate"
	KeyScrollStep      = "dispatch.scroll_step"
	KeyInputProvider   = "input.provider"
	KeyInputPlugin     = "input.plugin"
	KeyInputPluginDir  = "input.plugin_dir"
	KeyInputTimeout    = "input.timeout"
	KeyRelayAddr       = "relay.addr"
	KeyRelayRetry      = "relay.retry"
	KeyRelayName       = "relay.name"
	KeyHTTPAddr        = "http.addr"
	KeyStorePath       = "store.path"
	KeyStoreJournal    = "store.journal"
	KeyLogLevel        = "log.level"
	KeyLogFile         = "log.file"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid config")

// defaultConfigYAML is written on first run.
const defaultConfigYAML = `# gestos configuration
# Every key can be overridden with GESTOS_<SECTION>_<KEY>, e.g. GESTOS_GESTURE_COOLDOWN=750ms.

camera:
  id: 0
  width: 640
  height: 480
  mirror: true
  motion_threshold: 1.0

gesture:
  click_threshold: 0.05
  thumb: left
  extended: false
  cooldown: 500ms

cursor:
  smoothing: 7

input:
  provider: robotgo

relay:
  addr: 127.0.0.1:65432
`

// Camera settings.
type Camera struct {
	ID              int
	Width           int
	Height          int
	Mirror          bool
	MotionThreshold float64
}

// Detector settings.
type Detector struct {
	MaxHands      int
	MinConfidence float64
}

// Gesture settings.
type Gesture struct {
	ClickThreshold float64
	Thumb          string
	Extended       bool
	Cooldown       time.Duration
	History        int
}

// Cursor settings.
type Cursor struct {
	Smoothing float64
	// MaxRate caps cursor events sent to the relay per second.
	MaxRate float64
}

// Input settings.
type Input struct {
	Provider  string
	Plugin    string
	PluginDir string
	Timeout   time.Duration
}

// Relay settings.
type Relay struct {
	Addr  string
	Retry time.Duration
	Name  string
}

// Store settings.
type Store struct {
	Path    string
	Journal bool
}

// Log settings.
type Log struct {
	Level string
	File  string
}

// Config is the resolved configuration.
type Config struct {
	Dir        string
	File       string
	Camera     Camera
	Detector   Detector
	Gesture    Gesture
	Cursor     Cursor
	ScrollStep int
	Input      Input
	Relay      Relay
	HTTPAddr   string
	Store      Store
	Log        Log
}

// DefaultDir returns ~/.gestos.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// Load reads configuration. With an empty file it uses config.yaml in
// DefaultDir, creating the directory and a default file on first run.
// A named file must exist.
func Load(file string) (*Config, error) {
	v := viper.New()
	v.SetConfigType(configFileType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var dir string
	if file == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
		if err := ensureDefaultConfigFile(dir); err != nil {
			return nil, fmt.Errorf("ensure default config: %w", err)
		}
		v.SetConfigName(configFileName)
		v.AddConfigPath(dir)
	} else {
		dir = filepath.Dir(file)
		v.SetConfigFile(file)
	}
	setDefaults(v, dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := FromViper(v)
	cfg.Dir = dir
	cfg.File = v.ConfigFileUsed()
	return cfg, nil
}

// Default returns the built-in configuration rooted at dir.
func Default(dir string) *Config {
	v := viper.New()
	setDefaults(v, dir)
	cfg := FromViper(v)
	cfg.Dir = dir
	return cfg
}

func setDefaults(v *viper.Viper, dir string) {
	det := detector.DefaultConfig()

	v.SetDefault(KeyCameraID, 0)
	v.SetDefault(KeyCameraWidth, capture.DefaultWidth)
	v.SetDefault(KeyCameraHeight, capture.DefaultHeight)
	v.SetDefault(KeyCameraMirror, true)
	v.SetDefault(KeyMotionThreshold, capture.DefaultMotionThreshold)
	v.SetDefault(KeyMaxHands, det.MaxHands)
	v.SetDefault(KeyMinConfidence, det.MinConfidence)
	v.SetDefault(KeyClickThreshold, gesture.DefaultClickThreshold)
	v.SetDefault(KeyThumb, string(gesture.ThumbTipLeft))
	v.SetDefault(KeyExtended, false)
	v.SetDefault(KeyCooldown, gesture.DefaultCooldown)
	v.SetDefault(KeyHistory, gesture.DefaultHistorySize)
	v.SetDefault(KeySmoothing, cursor.DefaultSmoothing)
	v.SetDefault(KeyCursorRate, DefaultCursorRate)
	v.SetDefault(KeyScrollStep, dispatch.DefaultScrollStep)
	v.SetDefault(KeyInputProvider, input.ProviderRobotgo)
	v.SetDefault(KeyInputPlugin, input.DefaultPlugin)
	v.SetDefault(KeyInputPluginDir, filepath.Join(dir, "plugins"))
	v.SetDefault(KeyInputTimeout, plugin.DefaultTimeout)
	v.SetDefault(KeyRelayAddr, relay.DefaultAddr)
	v.SetDefault(KeyRelayRetry, relay.DefaultRetryInterval)
	v.SetDefault(KeyRelayName, "")
	v.SetDefault(KeyHTTPAddr, DefaultHTTPAddr)
	v.SetDefault(KeyStorePath, filepath.Join(dir, "gestos.db"))
	v.SetDefault(KeyStoreJournal, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")
}

// FromViper builds a Config from v without validating it.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Camera: Camera{
			ID:              v.GetInt(KeyCameraID),
			Width:           v.GetInt(KeyCameraWidth),
			Height:          v.GetInt(KeyCameraHeight),
			Mirror:          v.GetBool(KeyCameraMirror),
			MotionThreshold: v.GetFloat64(KeyMotionThreshold),
		},
		Detector: Detector{
			MaxHands:      v.GetInt(KeyMaxHands),
			MinConfidence: v.GetFloat64(KeyMinConfidence),
		},
		Gesture: Gesture{
			ClickThreshold: v.GetFloat64(KeyClickThreshold),
			Thumb:          strings.ToLower(v.GetString(KeyThumb)),
			Extended:       v.GetBool(KeyExtended),
			Cooldown:       v.GetDuration(KeyCooldown),
			History:        v.GetInt(KeyHistory),
		},
		Cursor: Cursor{
			Smoothing: v.GetFloat64(KeySmoothing),
			MaxRate:   v.GetFloat64(KeyCursorRate),
		},
		ScrollStep: v.GetInt(KeyScrollStep),
		Input: Input{
			Provider:  strings.ToLower(v.GetString(KeyInputProvider)),
			Plugin:    v.GetString(KeyInputPlugin),
			PluginDir: v.GetString(KeyInputPluginDir),
			Timeout:   v.GetDuration(KeyInputTimeout),
		},
		Relay: Relay{
			Addr:  v.GetString(KeyRelayAddr),
			Retry: v.GetDuration(KeyRelayRetry),
			Name:  v.GetString(KeyRelayName),
		},
		HTTPAddr: v.GetString(KeyHTTPAddr),
		Store: Store{
			Path:    v.GetString(KeyStorePath),
			Journal: v.GetBool(KeyStoreJournal),
		},
		Log: Log{
			Level: v.GetString(KeyLogLevel),
			File:  v.GetString(KeyLogFile),
		},
	}
}

// Validate reports the first invalid setting, wrapping ErrInvalid.
func (c *Config) Validate() error {
	switch {
	case c.Gesture.Cooldown <= 0:
		return invalid(KeyCooldown, "must be positive, got %v", c.Gesture.Cooldown)
	case c.Gesture.ClickThreshold <= 0:
		return invalid(KeyClickThreshold, "must be positive, got %v", c.Gesture.ClickThreshold)
	case c.Gesture.History <= 0:
		return invalid(KeyHistory, "must be positive, got %d", c.Gesture.History)
	case c.Cursor.Smoothing <= 0:
		return invalid(KeySmoothing, "must be positive, got %v", c.Cursor.Smoothing)
	case c.Cursor.MaxRate <= 0:
		return invalid(KeyCursorRate, "must be positive, got %v", c.Cursor.MaxRate)
	case c.Camera.MotionThreshold <= 0:
		return invalid(KeyMotionThreshold, "must be positive, got %v", c.Camera.MotionThreshold)
	case c.Camera.Width <= 0 || c.Camera.Height <= 0:
		return invalid("camera.width/height", "must be positive, got %dx%d", c.Camera.Width, c.Camera.Height)
	case c.Detector.MaxHands <= 0:
		return invalid(KeyMaxHands, "must be positive, got %d", c.Detector.MaxHands)
	case c.ScrollStep <= 0:
		return invalid(KeyScrollStep, "must be positive, got %d", c.ScrollStep)
	case c.Relay.Addr == "":
		return invalid(KeyRelayAddr, "must not be empty")
	}

	if _, err := gesture.ParseThumbConvention(c.Gesture.Thumb); err != nil {
		return invalid(KeyThumb, "%v", err)
	}
	switch c.Input.Provider {
	case input.ProviderRobotgo, input.ProviderPlugin, input.ProviderDryRun:
	default:
		return invalid(KeyInputProvider, "unknown provider %q", c.Input.Provider)
	}
	return nil
}

// Overridable lists the keys that persisted settings may override.
var Overridable = []string{KeyCooldown, KeySmoothing, KeyThumb}

// Apply overrides c with persisted settings. Unknown keys are ignored.
func (c *Config) Apply(settings map[string]string) error {
	for key, raw := range settings {
		if err := c.Set(key, raw); err != nil && !errors.Is(err, errNotOverridable) {
			return err
		}
	}
	return nil
}

var errNotOverridable = errors.New("setting cannot be overridden at runtime")

// Set assigns one overridable setting from its string form.
func (c *Config) Set(key, raw string) error {
	raw = strings.TrimSpace(raw)
	switch key {
	case KeyCooldown:
		d, err := parseSeconds(raw)
		if err != nil || d <= 0 {
			return invalid(key, "bad duration %q", raw)
		}
		c.Gesture.Cooldown = d
	case KeySmoothing:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f <= 0 {
			return invalid(key, "bad number %q", raw)
		}
		c.Cursor.Smoothing = f
	case KeyThumb:
		if _, err := gesture.ParseThumbConvention(raw); err != nil {
			return invalid(key, "%v", err)
		}
		c.Gesture.Thumb = strings.ToLower(raw)
	default:
		return fmt.Errorf("%s: %w", key, errNotOverridable)
	}
	return nil
}

// Get returns the string form of an overridable setting.
func (c *Config) Get(key string) (string, bool) {
	switch key {
	case KeyCooldown:
		return c.Gesture.Cooldown.String(), true
	case KeySmoothing:
		return strconv.FormatFloat(c.Cursor.Smoothing, 'f', -1, 64), true
	case KeyThumb:
		return c.Gesture.Thumb, true
	}
	return "", false
}

// parseSeconds accepts a Go duration ("750ms") or plain seconds ("0.75").
func parseSeconds(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(f * float64(time.Second)), nil
}

func invalid(key, format string, args ...any) error {
	return fmt.Errorf("%w: %s %s", ErrInvalid, key, fmt.Sprintf(format, args...))
}

// ensureDefaultConfigFile creates dir and a default config.yaml when missing.
func ensureDefaultConfigFile(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
