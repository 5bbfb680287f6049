// Package cursor maps fingertip positions to smoothed screen coordinates.
package cursor

import "sync"

// DefaultSmoothing divides each step toward the target; larger is smoother and laggier.
const DefaultSmoothing = 7.0

// Point is a position in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width and height in pixels.
type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.W > 0 && s.H > 0
}

// Mapper converts a fingertip position in frame pixels into a screen position,
// blending each new target with the previous output so the cursor never jumps.
type Mapper struct {
	mu        sync.Mutex
	smoothing float64
	frame     Size
	screen    Size
	prev      Point
	bound     bool
}

// NewMapper creates a Mapper for a frame/screen pairing. Smoothing below 1 is treated as 1.
// The first output blends from (0,0).
func NewMapper(frame, screen Size, smoothing float64) *Mapper {
	if smoothing < 1 {
		smoothing = 1
	}
	return &Mapper{
		smoothing: smoothing,
		frame:     frame,
		screen:    screen,
		bound:     frame.Valid() && screen.Valid(),
	}
}

// Smoothing returns the smoothing factor in use.
func (m *Mapper) Smoothing() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.smoothing
}

// SetSmoothing changes the smoothing factor. Values below 1 are treated as 1.
func (m *Mapper) SetSmoothing(smoothing float64) {
	if smoothing < 1 {
		smoothing = 1
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.smoothing = smoothing
}

// Update maps tip, given in frame pixels, to a smoothed screen point.
// When frame or screen differ from the current pairing the mapper rebinds and
// starts from the new target instead of blending across scales.
func (m *Mapper) Update(tip Point, frame, screen Size) Point {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !frame.Valid() || !screen.Valid() {
		return m.prev
	}

	target := Point{
		X: tip.X / float64(frame.W) * float64(screen.W),
		Y: tip.Y / float64(frame.H) * float64(screen.H),
	}

	if !m.bound || frame != m.frame || screen != m.screen {
		rebind := m.bound
		m.frame, m.screen, m.bound = frame, screen, true
		if rebind {
			m.prev = clamp(target, screen)
			return m.prev
		}
	}

	curr := Point{
		X: m.prev.X + (target.X-m.prev.X)/m.smoothing,
		Y: m.prev.Y + (target.Y-m.prev.Y)/m.smoothing,
	}
	m.prev = clamp(curr, screen)
	return m.prev
}

// NormalizedFrame is the frame size UpdateNormalized maps through.
var NormalizedFrame = Size{W: 10000, H: 10000}

// UpdateNormalized maps a tip given in normalized [0,1] frame coordinates.
// A Mapper should be fed either pixels or normalized input; switching rebinds it.
func (m *Mapper) UpdateNormalized(x, y float64, screen Size) Point {
	f := NormalizedFrame
	return m.Update(Point{X: x * float64(f.W), Y: y * float64(f.H)}, f, screen)
}

// Position returns the last output.
func (m *Mapper) Position() Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prev
}

// Reset returns the mapper to its initial state for the current pairing.
func (m *Mapper) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prev = Point{}
}

func clamp(p Point, screen Size) Point {
	maxX := float64(screen.W - 1)
	maxY := float64(screen.H - 1)
	if p.X < 0 {
		p.X = 0
	} else if p.X > maxX {
		p.X = maxX
	}
	if p.Y < 0 {
		p.Y = 0
	} else if p.Y > maxY {
		p.Y = maxY
	}
	return p
}
