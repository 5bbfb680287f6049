package gesture

import (
	"math"

	"github.com/ayusman/gestos/internal/detector"
)

// DefaultRotationStep is the minimum heading change, in degrees, reported as a rotation.
const DefaultRotationStep = 5.0

// RotationTracker follows the in-plane heading of an open hand and reports
// rotation deltas. It is driven by the frame loop and not safe for concurrent use.
type RotationTracker struct {
	step    float64
	anchor  float64
	heading float64
	active  bool
}

// NewRotationTracker creates a RotationTracker. A non-positive step uses DefaultRotationStep.
func NewRotationTracker(step float64) *RotationTracker {
	if step <= 0 {
		step = DefaultRotationStep
	}
	return &RotationTracker{step: step}
}

// Update feeds one frame. label is the frame's classification; rotation is
// tracked only while it is OpenHand. When the heading has moved at least one
// step since the last report it returns a Rotation gesture whose Angle is that
// delta, and true.
func (r *RotationTracker) Update(h *detector.HandLandmarks, label Label) (Gesture, bool) {
	if h == nil || label != OpenHand || !h.Finite() {
		r.active = false
		return Gesture{Label: None}, false
	}

	heading := h.Heading()
	r.heading = heading
	if !r.active {
		r.active = true
		r.anchor = heading
		return Gesture{Label: None}, false
	}

	delta := normalizeAngle(heading - r.anchor)
	if math.Abs(delta) < r.step {
		return Gesture{Label: None}, false
	}
	r.anchor = heading
	return Gesture{Label: Rotation, Angle: delta}, true
}

// Heading returns the most recently observed heading in degrees.
func (r *RotationTracker) Heading() float64 {
	return r.heading
}

// Reset forgets the anchor heading.
func (r *RotationTracker) Reset() {
	r.active = false
}

// normalizeAngle maps an angle in degrees into (-180, 180].
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 360)
	if a > 180 {
		a -= 360
	} else if a <= -180 {
		a += 360
	}
	return a
}
