package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// MockCamera plays back a fixed frame sequence.
type MockCamera struct {
	frames  []*gocv.Mat
	index   int
	loop    bool
	fps     int
	mu      sync.Mutex
	running bool
	reads   int
}

// NewMockCamera plays frames once, or forever when loop is set.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{
		frames: frames,
		loop:   loop,
		fps:    DefaultFPS,
	}
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.index = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

// ReadFrame returns a clone of the next frame, or ErrNoFrame once playback ends.
func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrCameraNotOpen
	}
	if len(c.frames) == 0 {
		return nil, ErrNoFrame
	}
	if c.index >= len(c.frames) {
		if !c.loop {
			return nil, ErrNoFrame
		}
		c.index = 0
	}

	frame := c.frames[c.index].Clone()
	c.index++
	c.reads++
	return &frame, nil
}

func (c *MockCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Size is the size of the first frame, or 640x480 without frames.
func (c *MockCamera) Size() image.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 || c.frames[0].Empty() {
		return image.Pt(DefaultWidth, DefaultHeight)
	}
	return image.Pt(c.frames[0].Cols(), c.frames[0].Rows())
}

// Reads returns how many frames were delivered.
func (c *MockCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// SetFrames replaces the frame sequence and rewinds.
func (c *MockCamera) SetFrames(frames []*gocv.Mat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = frames
	c.index = 0
}

// Reset rewinds playback.
func (c *MockCamera) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = 0
}
