// Package metrics exposes pipeline counters in Prometheus format.
package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics
type Metrics struct {
	// Frame counters
	FramesRead      atomic.Uint64
	FramesProcessed atomic.Uint64
	FramesSkipped   atomic.Uint64 // no motion or detection disabled
	HandsAbsent     atomic.Uint64

	// Error counters
	ReadErrors   atomic.Uint64
	DetectErrors atomic.Uint64
	ActionErrors atomic.Uint64
	RelayErrors  atomic.Uint64

	// Latency of the last processed frame
	ProcessLatencyMs atomic.Uint64

	// Dispatcher and relay state
	Dragging        atomic.Uint64 // 0 = idle, 1 = dragging
	RelayConnected  atomic.Uint64 // 0 = down, 1 = up
	RelayPeers      atomic.Uint64
	RelayMessages   atomic.Uint64
	CursorThrottled atomic.Uint64

	gestures *prometheus.CounterVec
	actions  *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a new Metrics instance with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		gestures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gestos_gestures_emitted_total",
			Help: "Debounced gestures emitted, by label",
		}, []string{"label"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gestos_actions_total",
			Help: "Input actions performed, by action and result",
		}, []string{"action", "result"}),
	}
	m.registry.MustRegister(m.gestures, m.actions)
	m.registerGauges()
	return m
}

func (m *Metrics) registerGauges() {
	gauges := []struct {
		name string
		help string
		v    *atomic.Uint64
	}{
		{"gestos_frames_read_total", "Total frames read from the camera", &m.FramesRead},
		{"gestos_frames_processed_total", "Total frames run through the classifier", &m.FramesProcessed},
		{"gestos_frames_skipped_total", "Total frames skipped while idle", &m.FramesSkipped},
		{"gestos_hands_absent_total", "Total processed frames without a hand", &m.HandsAbsent},
		{"gestos_read_errors_total", "Total camera read errors", &m.ReadErrors},
		{"gestos_detect_errors_total", "Total landmark detection errors", &m.DetectErrors},
		{"gestos_action_errors_total", "Total failed input actions", &m.ActionErrors},
		{"gestos_relay_errors_total", "Total relay send or decode errors", &m.RelayErrors},
		{"gestos_process_latency_ms", "Processing latency of the last frame in milliseconds", &m.ProcessLatencyMs},
		{"gestos_dragging", "Drag active (0=idle, 1=dragging)", &m.Dragging},
		{"gestos_relay_connected", "Relay connection up (0=down, 1=up)", &m.RelayConnected},
		{"gestos_relay_peers", "Peers connected to the relay hub", &m.RelayPeers},
		{"gestos_relay_messages_total", "Relay messages sent or fanned out", &m.RelayMessages},
		{"gestos_cursor_throttled_total", "Remote cursor updates dropped by the rate limiter", &m.CursorThrottled},
	}
	for _, g := range gauges {
		v := g.v
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: g.name, Help: g.help},
			func() float64 { return float64(v.Load()) },
		))
	}
}

// ObserveGesture counts one emitted gesture.
func (m *Metrics) ObserveGesture(label string) {
	m.gestures.WithLabelValues(label).Inc()
}

// ObserveAction counts one input action and its outcome.
func (m *Metrics) ObserveAction(action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		m.ActionErrors.Add(1)
	}
	m.actions.WithLabelValues(action, result).Inc()
}

// SetDragging records the dispatcher drag state.
func (m *Metrics) SetDragging(dragging bool) {
	m.Dragging.Store(boolValue(dragging))
}

// SetRelayConnected records the relay client link state.
func (m *Metrics) SetRelayConnected(up bool) {
	m.RelayConnected.Store(boolValue(up))
}

// UpdateProcessLatency stores the processing latency of the last frame.
func (m *Metrics) UpdateProcessLatency(duration time.Duration) {
	m.ProcessLatencyMs.Store(uint64(duration.Milliseconds()))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func boolValue(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
