package detector

import (
	"math"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect was invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// The presets below describe a right hand in a mirrored (selfie) frame:
// the thumb extends toward smaller X, fingers extend toward smaller Y.

func baseHand() HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.95}
	h.Points[Wrist] = Point3D{X: 0.50, Y: 0.80}
	h.Points[ThumbCMC] = Point3D{X: 0.45, Y: 0.75}
	return h
}

func curledFingers(h *HandLandmarks) {
	h.Points[IndexMCP] = Point3D{X: 0.45, Y: 0.68}
	h.Points[IndexPIP] = Point3D{X: 0.45, Y: 0.62, Z: -0.03}
	h.Points[IndexDIP] = Point3D{X: 0.46, Y: 0.66, Z: -0.04}
	h.Points[IndexTip] = Point3D{X: 0.46, Y: 0.70, Z: -0.02}

	h.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.66}
	h.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.60, Z: -0.03}
	h.Points[MiddleDIP] = Point3D{X: 0.51, Y: 0.64, Z: -0.04}
	h.Points[MiddleTip] = Point3D{X: 0.51, Y: 0.68, Z: -0.02}

	h.Points[RingMCP] = Point3D{X: 0.55, Y: 0.68}
	h.Points[RingPIP] = Point3D{X: 0.55, Y: 0.62, Z: -0.03}
	h.Points[RingDIP] = Point3D{X: 0.56, Y: 0.66, Z: -0.04}
	h.Points[RingTip] = Point3D{X: 0.56, Y: 0.70, Z: -0.02}

	h.Points[PinkyMCP] = Point3D{X: 0.60, Y: 0.70}
	h.Points[PinkyPIP] = Point3D{X: 0.60, Y: 0.65, Z: -0.03}
	h.Points[PinkyDIP] = Point3D{X: 0.61, Y: 0.68, Z: -0.04}
	h.Points[PinkyTip] = Point3D{X: 0.61, Y: 0.72, Z: -0.02}
}

func extendedFingers(h *HandLandmarks) {
	h.Points[IndexMCP] = Point3D{X: 0.45, Y: 0.68}
	h.Points[IndexPIP] = Point3D{X: 0.43, Y: 0.55}
	h.Points[IndexDIP] = Point3D{X: 0.42, Y: 0.45}
	h.Points[IndexTip] = Point3D{X: 0.42, Y: 0.35}

	h.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.66}
	h.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.52}
	h.Points[MiddleDIP] = Point3D{X: 0.50, Y: 0.40}
	h.Points[MiddleTip] = Point3D{X: 0.50, Y: 0.28}

	h.Points[RingMCP] = Point3D{X: 0.55, Y: 0.68}
	h.Points[RingPIP] = Point3D{X: 0.57, Y: 0.55}
	h.Points[RingDIP] = Point3D{X: 0.58, Y: 0.45}
	h.Points[RingTip] = Point3D{X: 0.58, Y: 0.35}

	h.Points[PinkyMCP] = Point3D{X: 0.60, Y: 0.70}
	h.Points[PinkyPIP] = Point3D{X: 0.63, Y: 0.60}
	h.Points[PinkyDIP] = Point3D{X: 0.65, Y: 0.50}
	h.Points[PinkyTip] = Point3D{X: 0.66, Y: 0.42}
}

func foldedThumb(h *HandLandmarks) {
	h.Points[ThumbMCP] = Point3D{X: 0.42, Y: 0.70}
	h.Points[ThumbIP] = Point3D{X: 0.44, Y: 0.66}
	h.Points[ThumbTip] = Point3D{X: 0.53, Y: 0.64}
}

func extendedThumb(h *HandLandmarks) {
	h.Points[ThumbMCP] = Point3D{X: 0.38, Y: 0.70, Z: 0.02}
	h.Points[ThumbIP] = Point3D{X: 0.32, Y: 0.65, Z: 0.03}
	h.Points[ThumbTip] = Point3D{X: 0.27, Y: 0.60, Z: 0.03}
}

// FistLandmarks returns a closed hand: every finger curled, thumb folded over the palm.
func FistLandmarks() HandLandmarks {
	h := baseHand()
	foldedThumb(&h)
	curledFingers(&h)
	return h
}

// OpenHandLandmarks returns a hand with all five fingers extended.
func OpenHandLandmarks() HandLandmarks {
	h := baseHand()
	extendedThumb(&h)
	extendedFingers(&h)
	return h
}

// PointingLandmarks returns a hand with only the index finger extended.
// The index tip sits at (0.44, 0.35).
func PointingLandmarks() HandLandmarks {
	h := FistLandmarks()
	h.Points[IndexMCP] = Point3D{X: 0.45, Y: 0.68}
	h.Points[IndexPIP] = Point3D{X: 0.44, Y: 0.55}
	h.Points[IndexDIP] = Point3D{X: 0.44, Y: 0.45}
	h.Points[IndexTip] = Point3D{X: 0.44, Y: 0.35}
	return h
}

// ClickLandmarks returns a pinch: thumb tip and index tip about 0.014 apart.
func ClickLandmarks() HandLandmarks {
	h := OpenHandLandmarks()
	h.Points[ThumbMCP] = Point3D{X: 0.40, Y: 0.68}
	h.Points[ThumbIP] = Point3D{X: 0.38, Y: 0.60}
	h.Points[ThumbTip] = Point3D{X: 0.40, Y: 0.52}
	h.Points[IndexPIP] = Point3D{X: 0.43, Y: 0.58}
	h.Points[IndexDIP] = Point3D{X: 0.41, Y: 0.54}
	h.Points[IndexTip] = Point3D{X: 0.41, Y: 0.53}
	return h
}

// WithIndexTip returns a copy of h with the index finger translated so its tip lands at (x, y).
func WithIndexTip(h HandLandmarks, x, y float64) HandLandmarks {
	dx := x - h.Points[IndexTip].X
	dy := y - h.Points[IndexTip].Y
	for _, i := range []int{IndexMCP, IndexPIP, IndexDIP, IndexTip} {
		h.Points[i].X += dx
		h.Points[i].Y += dy
	}
	return h
}

// Translated returns a copy of h moved by (dx, dy).
func Translated(h HandLandmarks, dx, dy float64) HandLandmarks {
	for i := range h.Points {
		h.Points[i].X += dx
		h.Points[i].Y += dy
	}
	return h
}

// Rotated returns a copy of h rotated clockwise (in image space) around the wrist.
func Rotated(h HandLandmarks, degrees float64) HandLandmarks {
	rad := degrees * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	w := h.Points[Wrist]
	for i := range h.Points {
		x := h.Points[i].X - w.X
		y := h.Points[i].Y - w.Y
		h.Points[i].X = w.X + x*cos - y*sin
		h.Points[i].Y = w.Y + x*sin + y*cos
	}
	return h
}
