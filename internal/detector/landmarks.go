// Package detector provides the hand landmark model and the detectors that produce it.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// FingerTips lists the tip landmark of each finger, thumb first.
var FingerTips = [5]int{ThumbTip, IndexTip, MiddleTip, RingTip, PinkyTip}

// Point3D represents a landmark position. X and Y are normalized to [0,1]
// relative to the frame; Z is relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected in one frame.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Distance2D returns the Euclidean distance between a and b in the image plane.
func Distance2D(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Finite reports whether every landmark coordinate is a finite number.
func (h *HandLandmarks) Finite() bool {
	if h == nil {
		return false
	}
	for _, p := range h.Points {
		if !finite(p.X) || !finite(p.Y) || !finite(p.Z) {
			return false
		}
	}
	return true
}

// Heading returns the in-plane angle of the wrist to middle-MCP vector in degrees.
// 0 means the hand points straight up in the image; positive values rotate clockwise.
func (h *HandLandmarks) Heading() float64 {
	w := h.Points[Wrist]
	m := h.Points[MiddleMCP]
	// Image Y grows downward, so "up" is -Y.
	return math.Atan2(m.X-w.X, w.Y-m.Y) * 180 / math.Pi
}

// Primary returns the highest scoring hand, or nil when none was detected.
func Primary(hands []HandLandmarks) *HandLandmarks {
	if len(hands) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(hands); i++ {
		if hands[i].Score > hands[best].Score {
			best = i
		}
	}
	return &hands[best]
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
