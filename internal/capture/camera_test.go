package capture

import (
	"errors"
	"image"
	"testing"
)

func TestNewCamera(t *testing.T) {
	for _, id := range []int{0, 1, 2} {
		cam := NewCamera(id)
		if cam == nil {
			t.Fatal("NewCamera returned nil")
		}
		if got := cam.FPS(); got != DefaultFPS {
			t.Errorf("device %d: FPS() = %d, want %d", id, got, DefaultFPS)
		}
		if got, want := cam.Size(), image.Pt(DefaultWidth, DefaultHeight); got != want {
			t.Errorf("device %d: Size() = %v, want %v", id, got, want)
		}
		if cam.IsOpen() {
			t.Errorf("device %d: camera should not be open initially", id)
		}
	}
}

func TestNewCameraWithConfig(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		wantSize image.Point
		wantFPS  int
	}{
		{
			name:     "explicit",
			config:   Config{Width: 1280, Height: 720, FPS: 30},
			wantSize: image.Pt(1280, 720),
			wantFPS:  30,
		},
		{
			name:     "zero values take defaults",
			config:   Config{},
			wantSize: image.Pt(DefaultWidth, DefaultHeight),
			wantFPS:  DefaultFPS,
		},
		{
			name:     "negative values take defaults",
			config:   Config{Width: -1, Height: 720, FPS: -3},
			wantSize: image.Pt(DefaultWidth, 720),
			wantFPS:  DefaultFPS,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := NewCameraWithConfig(tt.config)
			if got := cam.Size(); got != tt.wantSize {
				t.Errorf("Size() = %v, want %v", got, tt.wantSize)
			}
			if got := cam.FPS(); got != tt.wantFPS {
				t.Errorf("FPS() = %d, want %d", got, tt.wantFPS)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig(3)
	if cfg.DeviceID != 3 {
		t.Errorf("DeviceID = %d, want 3", cfg.DeviceID)
	}
	if !cfg.Mirror {
		t.Error("default config should mirror frames")
	}
}

func TestCamera_SetFPS(t *testing.T) {
	cam := NewCamera(0)

	tests := []struct {
		name    string
		fps     int
		wantFPS int
	}{
		{"set to 15", 15, 15},
		{"set to 1", 1, 1},
		{"zero keeps previous", 0, 1},
		{"negative keeps previous", -5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam.SetFPS(tt.fps)
			if got := cam.FPS(); got != tt.wantFPS {
				t.Errorf("FPS() = %d, want %d", got, tt.wantFPS)
			}
		})
	}
}

func TestCamera_ReadFrame_NotOpened(t *testing.T) {
	cam := NewCamera(0)

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}
}

func TestCamera_Close_NotOpened(t *testing.T) {
	cam := NewCamera(0)

	if err := cam.Close(); err != nil {
		t.Errorf("Close() on unopened camera = %v, want nil", err)
	}
}

func TestCamera_OpenClose_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cam := NewCamera(0)
	if err := cam.Open(); err != nil {
		t.Skipf("skipping test - camera not available: %v", err)
	}

	if !cam.IsOpen() {
		t.Error("IsOpen() should return true after Open()")
	}

	mat, err := cam.ReadFrame()
	if err != nil {
		t.Errorf("ReadFrame() failed: %v", err)
	} else {
		if mat.Empty() {
			t.Error("ReadFrame() returned empty mat")
		}
		if got, want := cam.Size(), image.Pt(mat.Cols(), mat.Rows()); got != want {
			t.Errorf("Size() = %v, want %v", got, want)
		}
		mat.Close()
	}

	if err := cam.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if cam.IsOpen() {
		t.Error("IsOpen() should return false after Close()")
	}
}
