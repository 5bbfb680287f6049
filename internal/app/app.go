// Package app wires capture, detection, gesture recognition and input
// dispatch into the gestos runtime.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"gocv.io/x/gocv"

	"github.com/ayusman/gestos/internal/capture"
	"github.com/ayusman/gestos/internal/config"
	"github.com/ayusman/gestos/internal/detector"
	"github.com/ayusman/gestos/internal/dispatch"
	"github.com/ayusman/gestos/internal/events"
	"github.com/ayusman/gestos/internal/gesture"
	"github.com/ayusman/gestos/internal/input"
	"github.com/ayusman/gestos/internal/logging"
	"github.com/ayusman/gestos/internal/metrics"
	"github.com/ayusman/gestos/internal/server/api"
	"github.com/ayusman/gestos/internal/store"
)

// Capture modes reported in stats and state events.
const (
	ModeIdle   = "idle"
	ModeActive = "active"
)

// FrameSink receives frames for the live preview.
type FrameSink interface {
	Watching() bool
	Publish(frame *gocv.Mat, hands []detector.HandLandmarks) error
}

// Publisher pushes events to external listeners such as websocket clients.
type Publisher interface {
	Publish(kind string, data map[string]any) error
}

// Config holds the components of an App. Only Settings is required.
type Config struct {
	Settings *config.Config
	Camera   capture.Camera
	Detector detector.Detector
	// Provider performs gestures on this machine. Without one the App only
	// recognizes and publishes.
	Provider input.Provider
	Store    *store.Store
	// Relay receives emitted gestures and cursor updates.
	Relay   Sender
	Events  Publisher
	Preview FrameSink
	Metrics *metrics.Metrics
}

// App is the gesture runtime: one goroutine reads a frame, gates it on
// motion, detects hands and feeds the pipeline before reading the next.
type App struct {
	mu       sync.Mutex
	settings *config.Config

	camera     capture.Camera
	motion     *capture.MotionDetector
	gate       *capture.Gate
	detector   detector.Detector
	pipeline   *Pipeline
	dispatcher *dispatch.Dispatcher
	provider   input.Provider
	bus        *events.Bus
	store      *store.Store
	preview    FrameSink
	metrics    *metrics.Metrics
	log        *log.Logger

	enabled atomic.Bool
	active  atomic.Bool
}

var (
	_ api.StatsSource = (*App)(nil)
	_ api.Tuner       = (*App)(nil)
)

// New builds an App. A nil Camera opens the configured device; a nil
// Detector uses MediaPipe when available and otherwise a detector that never
// sees a hand.
func New(cfg Config) (*App, error) {
	s := cfg.Settings
	if s == nil {
		return nil, errors.New("app: settings are required")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		settings: s,
		camera:   cfg.Camera,
		motion:   capture.NewMotionDetector(s.Camera.MotionThreshold),
		gate:     capture.NewGate(capture.IdleTimeout),
		detector: cfg.Detector,
		provider: cfg.Provider,
		bus:      events.NewBus(),
		store:    cfg.Store,
		preview:  cfg.Preview,
		metrics:  cfg.Metrics,
		log:      logging.WithPrefix("app"),
	}
	a.enabled.Store(true)

	if a.camera == nil {
		a.camera = capture.NewCameraWithConfig(capture.Config{
			DeviceID: s.Camera.ID,
			Width:    s.Camera.Width,
			Height:   s.Camera.Height,
			FPS:      capture.IdleFPS,
			Mirror:   s.Camera.Mirror,
		})
	}
	if a.detector == nil {
		a.detector = newDetector(s, a.log)
	}

	a.pipeline = NewPipeline(a.bus, PipelineConfig{
		Classifier: classifierConfig(s),
		Cooldown:   s.Gesture.Cooldown,
		History:    s.Gesture.History,
		Source:     s.Relay.Name,
		Metrics:    cfg.Metrics,
	})

	if cfg.Provider != nil {
		a.dispatcher = dispatch.New(cfg.Provider, dispatch.Config{
			Screen:     cfg.Provider.ScreenSize(),
			Smoothing:  s.Cursor.Smoothing,
			ScrollStep: s.ScrollStep,
			Metrics:    cfg.Metrics,
		})
		a.bus.Subscribe(events.KindCursor, a.moveCursor)
		a.bus.Subscribe(events.KindGesture, a.dispatchGesture)
	}
	if cfg.Store != nil && s.Store.Journal {
		a.bus.Subscribe(events.KindGesture, a.journal)
	}
	if cfg.Relay != nil {
		NewSink(cfg.Relay, s.Cursor.MaxRate, cfg.Metrics).Attach(a.bus)
	}
	if cfg.Events != nil {
		a.Forward(cfg.Events)
	}
	return a, nil
}

func newDetector(s *config.Config, l *log.Logger) detector.Detector {
	dc := detector.DefaultConfig()
	dc.MaxHands = s.Detector.MaxHands
	dc.MinConfidence = s.Detector.MinConfidence

	mp, err := detector.NewMediaPipeDetector(dc)
	if err != nil {
		l.Warn("MediaPipe not available, no hands will be detected", "err", err)
		return detector.NewMockDetector()
	}
	l.Info("using MediaPipe hand detection")
	return mp
}

func classifierConfig(s *config.Config) gesture.ClassifierConfig {
	thumb, err := gesture.ParseThumbConvention(s.Gesture.Thumb)
	if err != nil {
		thumb = gesture.ThumbTipLeft
	}
	return gesture.ClassifierConfig{
		ClickThreshold: s.Gesture.ClickThreshold,
		Thumb:          thumb,
		Extended:       s.Gesture.Extended,
	}
}

// Forward publishes gesture and state events to p until detach is called.
func (a *App) Forward(p Publisher) (detach func()) {
	var offs []func()
	for _, kind := range []string{events.KindGesture, events.KindState} {
		offs = append(offs, a.bus.Subscribe(kind, func(data map[string]any) error {
			return p.Publish(kind, data)
		}))
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

// Bus returns the event bus gestures are emitted on.
func (a *App) Bus() *events.Bus {
	return a.bus
}

// Pipeline returns the recognition pipeline.
func (a *App) Pipeline() *Pipeline {
	return a.pipeline
}

// Dispatcher returns the local dispatcher, or nil without an input provider.
func (a *App) Dispatcher() *dispatch.Dispatcher {
	return a.dispatcher
}

// SetEnabled turns frame processing on or off.
func (a *App) SetEnabled(enabled bool) {
	if a.enabled.Swap(enabled) != enabled {
		a.log.Info("detection toggled", "enabled", enabled)
	}
}

// IsEnabled reports whether frames are processed.
func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

// Mode returns the current capture mode.
func (a *App) Mode() string {
	if a.active.Load() {
		return ModeActive
	}
	return ModeIdle
}

// Stats reports the live pipeline state.
func (a *App) Stats() api.Stats {
	st := api.Stats{
		Enabled:   a.IsEnabled(),
		Mode:      a.Mode(),
		State:     "none",
		Provider:  "none",
		Debouncer: a.pipeline.Stats(),
	}
	if a.dispatcher != nil {
		st.State = a.dispatcher.State().String()
	}
	if a.provider != nil {
		st.Provider = a.provider.Name()
	}
	return st
}

// Get returns the current value of a tunable setting.
func (a *App) Get(key string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings.Get(key)
}

// Set changes a tunable setting and applies it to the running pipeline.
func (a *App) Set(key, value string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.settings.Set(key, value); err != nil {
		return err
	}
	a.pipeline.SetCooldown(a.settings.Gesture.Cooldown)
	if cc := classifierConfig(a.settings); cc != a.pipeline.ClassifierConfig() {
		a.pipeline.SetClassifier(cc)
	}
	if a.dispatcher != nil {
		a.dispatcher.SetSmoothing(a.settings.Cursor.Smoothing)
	}
	a.log.Info("setting applied", "key", key, "value", value)
	return nil
}

// Run opens the camera and processes frames until ctx is cancelled. On return
// the camera and detector are closed and any drag is released.
func (a *App) Run(ctx context.Context) error {
	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	defer a.shutdown()

	a.camera.SetFPS(a.gate.FPS())
	ticker := time.NewTicker(a.gate.Interval())
	defer ticker.Stop()

	a.log.Info("detection pipeline started", "size", a.camera.Size(), "fps", a.gate.FPS())
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if a.Step(now) {
				a.camera.SetFPS(a.gate.FPS())
				ticker.Reset(a.gate.Interval())
			}
		}
	}
}

// Step reads and processes one frame. It reports whether the capture mode
// changed.
func (a *App) Step(now time.Time) bool {
	if !a.IsEnabled() {
		a.count(func(m *metrics.Metrics) { m.FramesSkipped.Add(1) })
		return false
	}

	frame, err := a.camera.ReadFrame()
	if err != nil {
		a.count(func(m *metrics.Metrics) { m.ReadErrors.Add(1) })
		a.log.Debug("frame read failed", "err", err)
		return false
	}
	defer frame.Close()
	a.count(func(m *metrics.Metrics) { m.FramesRead.Add(1) })

	motion, _ := a.motion.Detect(frame)
	active, changed := a.gate.Observe(motion, now)
	if changed {
		a.setMode(active)
	}

	if !active {
		a.count(func(m *metrics.Metrics) { m.FramesSkipped.Add(1) })
		a.publishPreview(frame, nil)
		return changed
	}

	start := time.Now()
	hands, err := a.detector.Detect(frame)
	if err != nil {
		a.count(func(m *metrics.Metrics) { m.DetectErrors.Add(1) })
		a.log.Warn("hand detection failed", "err", err)
		return changed
	}

	a.pipeline.Process(hands, now)
	a.publishPreview(frame, hands)
	a.count(func(m *metrics.Metrics) {
		m.FramesProcessed.Add(1)
		m.UpdateProcessLatency(time.Since(start))
	})
	return changed
}

func (a *App) setMode(active bool) {
	a.active.Store(active)
	if !active {
		a.pipeline.Reset()
	}
	mode := a.Mode()
	a.log.Info("capture mode", "mode", mode, "fps", a.gate.FPS())
	a.bus.Emit(events.KindState, map[string]any{FieldMode: mode})
}

func (a *App) publishPreview(frame *gocv.Mat, hands []detector.HandLandmarks) {
	if a.preview == nil || !a.preview.Watching() {
		return
	}
	if err := a.preview.Publish(frame, hands); err != nil {
		a.log.Debug("preview encode failed", "err", err)
	}
}

func (a *App) count(fn func(m *metrics.Metrics)) {
	if a.metrics != nil {
		fn(a.metrics)
	}
}

func (a *App) moveCursor(data map[string]any) error {
	x, okX := data[FieldX].(float64)
	y, okY := data[FieldY].(float64)
	if !okX || !okY {
		return errors.New("cursor event without position")
	}
	return a.dispatcher.MoveTo(x, y)
}

// dispatchGesture performs an emitted gesture. Pointing is skipped because
// cursor events already move the pointer every frame.
func (a *App) dispatchGesture(data map[string]any) error {
	raw, _ := data[FieldLabel].(string)
	label, ok := gesture.ParseLabel(raw)
	if !ok || label == gesture.Pointing {
		return nil
	}

	before := a.dispatcher.State()
	err := a.dispatcher.Dispatch(label, nil)
	if after := a.dispatcher.State(); after != before {
		a.bus.Emit(events.KindState, map[string]any{FieldState: after.String()})
	}
	return err
}

func (a *App) journal(data map[string]any) error {
	raw, _ := data[FieldLabel].(string)
	e := &store.Event{Label: gesture.Label(raw)}
	e.Source, _ = data[FieldSource].(string)
	e.Angle, _ = data[FieldAngle].(float64)
	e.EmittedAt, _ = data[FieldAt].(time.Time)
	return a.store.Journal().Append(e)
}

func (a *App) shutdown() {
	if a.dispatcher != nil {
		if err := a.dispatcher.Close(); err != nil {
			a.log.Error("release drag", "err", err)
		}
	}
	if err := a.camera.Close(); err != nil {
		a.log.Error("close camera", "err", err)
	}
	a.motion.Close()
	if err := a.detector.Close(); err != nil {
		a.log.Error("close detector", "err", err)
	}
	a.log.Info("detection pipeline stopped")
}
