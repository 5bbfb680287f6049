package capture

import (
	"errors"
	"image"
	"testing"

	"gocv.io/x/gocv"
)

func TestMockCamera_Playback(t *testing.T) {
	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame1, &frame2}, false)

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Fatalf("ReadFrame() before Open error = %v, want ErrCameraNotOpen", err)
	}

	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	for i := 0; i < 2; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() %d error = %v", i, err)
		}
		f.Close()
	}

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("ReadFrame() after playback error = %v, want ErrNoFrame", err)
	}
	if got := cam.Reads(); got != 2 {
		t.Errorf("Reads() = %d, want 2", got)
	}
}

func TestMockCamera_Loop(t *testing.T) {
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame}, true)
	cam.Open()
	defer cam.Close()

	for i := 0; i < 5; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() iteration %d error = %v", i, err)
		}
		f.Close()
	}
}

func TestMockCamera_Size(t *testing.T) {
	frame := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer frame.Close()

	if got, want := NewMockCamera(nil, false).Size(), image.Pt(DefaultWidth, DefaultHeight); got != want {
		t.Errorf("empty Size() = %v, want %v", got, want)
	}
	if got, want := NewMockCamera([]*gocv.Mat{&frame}, false).Size(), image.Pt(320, 240); got != want {
		t.Errorf("Size() = %v, want %v", got, want)
	}
}

func TestMockCamera_SetFPS(t *testing.T) {
	cam := NewMockCamera(nil, false)
	cam.SetFPS(ActiveFPS)
	cam.SetFPS(0)
	if got := cam.FPS(); got != ActiveFPS {
		t.Errorf("FPS() = %d, want %d", got, ActiveFPS)
	}
}
