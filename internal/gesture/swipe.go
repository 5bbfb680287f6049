package gesture

import (
	"math"
	"time"
)

const (
	// DefaultSwipeWindow is how far back the path buffer is considered.
	DefaultSwipeWindow = 400 * time.Millisecond
	// DefaultSwipeDistance is the normalized travel required along the dominant axis.
	DefaultSwipeDistance = 0.25
	// PathBufferSize caps the number of buffered path points.
	PathBufferSize = 60
)

// PathPoint is a tracked fingertip position in normalized coordinates.
type PathPoint struct {
	X  float64
	Y  float64
	At time.Time
}

// SwipeDetector recognizes fast directional movements of the index fingertip.
// Not safe for concurrent use; it is driven by the frame loop.
type SwipeDetector struct {
	window      time.Duration
	minDistance float64
	path        []PathPoint
}

// NewSwipeDetector creates a SwipeDetector. Non-positive arguments fall back to defaults.
func NewSwipeDetector(window time.Duration, minDistance float64) *SwipeDetector {
	if window <= 0 {
		window = DefaultSwipeWindow
	}
	if minDistance <= 0 {
		minDistance = DefaultSwipeDistance
	}
	return &SwipeDetector{
		window:      window,
		minDistance: minDistance,
		path:        make([]PathPoint, 0, PathBufferSize),
	}
}

// Add buffers a fingertip sample and returns a swipe label when the movement
// within the window is long enough. The buffer is cleared after a hit so one
// motion produces one swipe.
func (s *SwipeDetector) Add(p PathPoint) Label {
	if len(s.path) >= PathBufferSize {
		copy(s.path, s.path[1:])
		s.path = s.path[:PathBufferSize-1]
	}
	s.path = append(s.path, p)

	// Drop samples that fell out of the window.
	cut := 0
	for cut < len(s.path) && p.At.Sub(s.path[cut].At) > s.window {
		cut++
	}
	if cut > 0 {
		s.path = append(s.path[:0], s.path[cut:]...)
	}
	if len(s.path) < 2 {
		return None
	}

	first := s.path[0]
	dx := p.X - first.X
	dy := p.Y - first.Y

	var label Label
	switch {
	case math.Abs(dx) >= math.Abs(dy) && math.Abs(dx) >= s.minDistance:
		label = SwipeRight
		if dx < 0 {
			label = SwipeLeft
		}
	case math.Abs(dy) > math.Abs(dx) && math.Abs(dy) >= s.minDistance:
		// Image Y grows downward.
		label = SwipeDown
		if dy < 0 {
			label = SwipeUp
		}
	default:
		return None
	}

	s.path = s.path[:0]
	return label
}

// Reset clears the path buffer.
func (s *SwipeDetector) Reset() {
	s.path = s.path[:0]
}

// Len returns the number of buffered points.
func (s *SwipeDetector) Len() int {
	return len(s.path)
}
