// Package testdata builds synthetic frames and scripted hands for tests.
package testdata

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/gestos/internal/detector"
)

// Frame returns a w x h BGR frame filled with a single gray level.
func Frame(w, h int, level float64) *gocv.Mat {
	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	if level > 0 {
		mat.SetTo(gocv.NewScalar(level, level, level, 0))
	}
	return &mat
}

// MotionFrames returns n frames alternating black and white, so consecutive
// frames always differ enough to count as motion. Close them with CloseAll.
func MotionFrames(n, w, h int) []*gocv.Mat {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		level := 0.0
		if i%2 == 1 {
			level = 255
		}
		frames[i] = Frame(w, h, level)
	}
	return frames
}

// CloseAll closes every frame.
func CloseAll(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}

// Script is a sequence of detector results, one per frame. A nil entry is a
// frame without hands.
type Script [][]detector.HandLandmarks

// Hands wraps presets as one-hand frames.
func Hands(hands ...detector.HandLandmarks) Script {
	s := make(Script, len(hands))
	for i, h := range hands {
		s[i] = []detector.HandLandmarks{h}
	}
	return s
}

// ClickDragRelease is a pinch, a fist that starts a drag and an open hand that ends it.
func ClickDragRelease() Script {
	return Hands(detector.ClickLandmarks(), detector.FistLandmarks(), detector.OpenHandLandmarks())
}

// PointingPath moves a pointing index finger left to right across the frame.
func PointingPath(steps int) Script {
	s := make(Script, steps)
	for i := range s {
		x := 0.2 + 0.6*float64(i)/float64(max(steps-1, 1))
		s[i] = []detector.HandLandmarks{detector.WithIndexTip(detector.PointingLandmarks(), x, 0.4)}
	}
	return s
}

// ScriptedDetector plays back a Script, one entry per Detect call, then
// reports no hands.
type ScriptedDetector struct {
	mu     sync.Mutex
	script Script
	next   int
}

// NewScriptedDetector creates a detector playing s.
func NewScriptedDetector(s Script) *ScriptedDetector {
	return &ScriptedDetector{script: s}
}

// Detect returns the next scripted result.
func (d *ScriptedDetector) Detect(frame *gocv.Mat) ([]detector.HandLandmarks, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.next >= len(d.script) {
		return nil, nil
	}
	hands := d.script[d.next]
	d.next++
	return hands, nil
}

// Done reports whether the whole script has been played.
func (d *ScriptedDetector) Done() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.next >= len(d.script)
}

// Close is a no-op.
func (d *ScriptedDetector) Close() error {
	return nil
}
