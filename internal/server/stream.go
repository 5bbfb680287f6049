package server

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"net/http"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/gestos/internal/detector"
)

var (
	landmarkColor = color.RGBA{G: 255, A: 255}
	tipColor      = color.RGBA{R: 255, G: 64, A: 255}
	boneColor     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// bones are the landmark pairs drawn as lines, one chain per finger from the wrist.
var bones = [][2]int{
	{detector.Wrist, detector.ThumbCMC}, {detector.ThumbCMC, detector.ThumbMCP}, {detector.ThumbMCP, detector.ThumbIP}, {detector.ThumbIP, detector.ThumbTip},
	{detector.Wrist, detector.IndexMCP}, {detector.IndexMCP, detector.IndexPIP}, {detector.IndexPIP, detector.IndexDIP}, {detector.IndexDIP, detector.IndexTip},
	{detector.MiddleMCP, detector.MiddlePIP}, {detector.MiddlePIP, detector.MiddleDIP}, {detector.MiddleDIP, detector.MiddleTip},
	{detector.RingMCP, detector.RingPIP}, {detector.RingPIP, detector.RingDIP}, {detector.RingDIP, detector.RingTip},
	{detector.Wrist, detector.PinkyMCP}, {detector.PinkyMCP, detector.PinkyPIP}, {detector.PinkyPIP, detector.PinkyDIP}, {detector.PinkyDIP, detector.PinkyTip},
	{detector.IndexMCP, detector.MiddleMCP}, {detector.MiddleMCP, detector.RingMCP}, {detector.RingMCP, detector.PinkyMCP},
}

// Preview holds the latest annotated JPEG frame. The pipeline publishes into
// it; stream handlers wait for new frames. Frames are encoded only while at
// least one viewer is connected.
type Preview struct {
	mu      sync.Mutex
	jpeg    []byte
	seq     uint64
	viewers int
	notify  chan struct{}
}

// NewPreview creates an empty Preview.
func NewPreview() *Preview {
	return &Preview{notify: make(chan struct{})}
}

// Watching reports whether any viewer is connected.
func (p *Preview) Watching() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewers > 0
}

// Publish draws hands onto a copy of frame, encodes it and wakes viewers.
// It does nothing when nobody is watching. frame is not modified.
func (p *Preview) Publish(frame *gocv.Mat, hands []detector.HandLandmarks) error {
	if frame == nil || frame.Empty() || !p.Watching() {
		return nil
	}

	img := frame.Clone()
	defer img.Close()
	for i := range hands {
		drawHand(&img, &hands[i])
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	data := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	p.PublishJPEG(data)
	return nil
}

// PublishJPEG stores an already encoded frame and wakes viewers.
func (p *Preview) PublishJPEG(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jpeg = data
	p.seq++
	close(p.notify)
	p.notify = make(chan struct{})
}

// Latest returns the newest frame and its sequence number (0 before the first frame).
func (p *Preview) Latest() ([]byte, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jpeg, p.seq
}

// next blocks until a frame newer than seq is available or ctx ends.
func (p *Preview) next(ctx context.Context, seq uint64) ([]byte, uint64, error) {
	for {
		p.mu.Lock()
		if p.seq > seq {
			data, s := p.jpeg, p.seq
			p.mu.Unlock()
			return data, s, nil
		}
		wait := p.notify
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, seq, ctx.Err()
		case <-wait:
		}
	}
}

func (p *Preview) addViewer(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.viewers += delta
}

func drawHand(img *gocv.Mat, h *detector.HandLandmarks) {
	w, ht := float64(img.Cols()), float64(img.Rows())
	pt := func(i int) image.Point {
		return image.Pt(int(h.Points[i].X*w), int(h.Points[i].Y*ht))
	}

	for _, b := range bones {
		gocv.Line(img, pt(b[0]), pt(b[1]), boneColor, 1)
	}
	for i := range h.Points {
		gocv.Circle(img, pt(i), 3, landmarkColor, -1)
	}
	gocv.Circle(img, pt(detector.IndexTip), 6, tipColor, 2)
}

// StreamHandler serves the preview as MJPEG.
type StreamHandler struct {
	preview *Preview
}

// NewStreamHandler creates a new StreamHandler over preview.
func NewStreamHandler(preview *Preview) *StreamHandler {
	return &StreamHandler{preview: preview}
}

// ServeHTTP streams frames until the client disconnects.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.preview.addViewer(1)
	defer h.preview.addViewer(-1)

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	var seq uint64
	for {
		data, next, err := h.preview.next(r.Context(), seq)
		if err != nil {
			return
		}
		seq = next

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(data))
		if _, err := w.Write(data); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
