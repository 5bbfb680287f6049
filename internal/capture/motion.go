package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const (
	// BlurSize is the Gaussian kernel applied before differencing.
	BlurSize = 21
	// DiffThreshold is the per-pixel intensity change that counts as changed.
	DiffThreshold = 25
	// DefaultMotionThreshold is the percentage of changed pixels that counts as motion.
	DefaultMotionThreshold = 1.0
)

// Processing rates and the idle timeout used by Gate.
const (
	IdleFPS     = 5
	ActiveFPS   = 15
	IdleTimeout = 2 * time.Second
)

// MotionDetector compares each frame with the previous one and reports the
// share of pixels that changed.
type MotionDetector struct {
	mu          sync.Mutex
	threshold   float64
	prevGray    gocv.Mat
	initialized bool
}

// NewMotionDetector creates a detector. threshold is a percentage of the frame
// (1.0 means 1% of pixels); non-positive values use DefaultMotionThreshold.
func NewMotionDetector(threshold float64) *MotionDetector {
	if threshold <= 0 {
		threshold = DefaultMotionThreshold
	}
	return &MotionDetector{
		threshold: threshold,
		prevGray:  gocv.NewMat(),
	}
}

// Detect reports whether frame differs from the previous frame by more than
// the threshold, and the changed percentage. The first frame after creation
// or Reset only sets the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	blurred := preprocess(frame)
	defer blurred.Close()

	if !m.initialized || m.prevGray.Empty() || !sameSize(blurred, m.prevGray) {
		blurred.CopyTo(&m.prevGray)
		m.initialized = true
		return false, 0
	}

	changed := changedPercent(blurred, m.prevGray)
	blurred.CopyTo(&m.prevGray)
	return changed > m.threshold, changed
}

// preprocess converts frame to a blurred grayscale Mat owned by the caller.
func preprocess(frame *gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	gocv.GaussianBlur(gray, &blurred, image.Pt(BlurSize, BlurSize), 0, 0, gocv.BorderDefault)
	return blurred
}

func changedPercent(a, b gocv.Mat) float64 {
	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(a, b, &diff)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, DiffThreshold, 255, gocv.ThresholdBinary)

	total := mask.Rows() * mask.Cols()
	if total == 0 {
		return 0
	}
	return float64(gocv.CountNonZero(mask)) / float64(total) * 100.0
}

func sameSize(a, b gocv.Mat) bool {
	return a.Rows() == b.Rows() && a.Cols() == b.Cols()
}

// Threshold returns the motion threshold percentage.
func (m *MotionDetector) Threshold() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.threshold
}

// SetThreshold ignores non-positive values.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = threshold
}

// Reset drops the baseline so the next frame starts a new comparison.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

// Close releases the baseline Mat. The detector stays usable.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

func (m *MotionDetector) release() {
	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.initialized = false
}

// Gate switches between idle and active processing. Motion makes it active;
// it returns to idle after IdleTimeout without motion.
type Gate struct {
	timeout    time.Duration
	active     bool
	lastMotion time.Time
}

// NewGate creates an idle gate. A non-positive timeout uses IdleTimeout.
func NewGate(timeout time.Duration) *Gate {
	if timeout <= 0 {
		timeout = IdleTimeout
	}
	return &Gate{timeout: timeout}
}

// Observe records one frame's motion result at now. It returns whether
// frames should be processed and whether the mode just changed.
func (g *Gate) Observe(motion bool, now time.Time) (active, changed bool) {
	switch {
	case motion:
		g.lastMotion = now
		if !g.active {
			g.active = true
			return true, true
		}
	case g.active && now.Sub(g.lastMotion) > g.timeout:
		g.active = false
		return false, true
	}
	return g.active, false
}

// Active reports the current mode.
func (g *Gate) Active() bool { return g.active }

// FPS is the capture rate for the current mode.
func (g *Gate) FPS() int {
	if g.active {
		return ActiveFPS
	}
	return IdleFPS
}

// Interval is the frame interval for the current mode.
func (g *Gate) Interval() time.Duration {
	return time.Second / time.Duration(g.FPS())
}
