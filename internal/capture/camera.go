// Package capture reads webcam frames with GoCV and gates processing on motion.
package capture

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera settings.
const (
	DefaultFPS    = 5
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when reading from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrNoFrame is returned when the device produced no usable frame.
	ErrNoFrame = errors.New("no frame available")
)

// Camera is a source of BGR frames.
type Camera interface {
	Open() error
	Close() error
	// ReadFrame returns the next frame. The caller closes the returned Mat.
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
	// Size is the frame size in pixels.
	Size() image.Point
}

// Config describes a capture device.
type Config struct {
	DeviceID int
	Width    int
	Height   int
	FPS      int
	// Mirror flips frames horizontally so the preview reads like a mirror.
	Mirror bool
}

// DefaultConfig returns the settings used by NewCamera.
func DefaultConfig(deviceID int) Config {
	return Config{
		DeviceID: deviceID,
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		FPS:      DefaultFPS,
		Mirror:   true,
	}
}

type cameraImpl struct {
	config  Config
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
	size    image.Point
}

// NewCamera creates a mirrored 640x480 camera on deviceID.
func NewCamera(deviceID int) Camera {
	return NewCameraWithConfig(DefaultConfig(deviceID))
}

// NewCameraWithConfig creates a camera. Non-positive sizes and rates take the defaults.
func NewCameraWithConfig(config Config) Camera {
	if config.Width <= 0 {
		config.Width = DefaultWidth
	}
	if config.Height <= 0 {
		config.Height = DefaultHeight
	}
	if config.FPS <= 0 {
		config.FPS = DefaultFPS
	}
	return &cameraImpl{
		config: config,
		size:   image.Pt(config.Width, config.Height),
	}
}

func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.config.DeviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.config.DeviceID, err)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(c.config.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(c.config.Height))
	capture.Set(gocv.VideoCaptureFPS, float64(c.config.FPS))

	// The driver may not honour the requested size.
	if w, h := int(capture.Get(gocv.VideoCaptureFrameWidth)), int(capture.Get(gocv.VideoCaptureFrameHeight)); w > 0 && h > 0 {
		c.size = image.Pt(w, h)
	}

	c.capture = capture
	c.running = true
	return nil
}

func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false
	return err
}

func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, ErrNoFrame
	}

	if c.config.Mirror {
		gocv.Flip(mat, &mat, 1)
	}
	c.size = image.Pt(mat.Cols(), mat.Rows())

	return &mat, nil
}

// SetFPS ignores non-positive values.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.config.FPS = fps
	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config.FPS
}

func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *cameraImpl) Size() image.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}
