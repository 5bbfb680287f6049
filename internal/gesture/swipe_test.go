package gesture

import (
	"math"
	"testing"

	"github.com/ayusman/gestos/internal/detector"
)

func TestSwipeDetector(t *testing.T) {
	tests := []struct {
		name   string
		points []PathPoint
		want   Label
	}{
		{
			name: "fast right",
			points: []PathPoint{
				{X: 0.2, Y: 0.5, At: at(0)},
				{X: 0.3, Y: 0.5, At: at(100)},
				{X: 0.4, Y: 0.51, At: at(200)},
				{X: 0.5, Y: 0.5, At: at(300)},
			},
			want: SwipeRight,
		},
		{
			name: "fast left",
			points: []PathPoint{
				{X: 0.8, Y: 0.5, At: at(0)},
				{X: 0.65, Y: 0.5, At: at(100)},
				{X: 0.5, Y: 0.5, At: at(200)},
			},
			want: SwipeLeft,
		},
		{
			name: "fast up",
			points: []PathPoint{
				{X: 0.5, Y: 0.8, At: at(0)},
				{X: 0.5, Y: 0.65, At: at(100)},
				{X: 0.52, Y: 0.5, At: at(200)},
			},
			want: SwipeUp,
		},
		{
			name: "fast down",
			points: []PathPoint{
				{X: 0.5, Y: 0.2, At: at(0)},
				{X: 0.5, Y: 0.5, At: at(150)},
			},
			want: SwipeDown,
		},
		{
			name: "slow drift",
			points: []PathPoint{
				{X: 0.2, Y: 0.5, At: at(0)},
				{X: 0.3, Y: 0.5, At: at(300)},
				{X: 0.4, Y: 0.5, At: at(600)},
				{X: 0.5, Y: 0.5, At: at(900)},
			},
			want: None,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSwipeDetector(0, 0)
			got := None
			for _, p := range tt.points {
				if l := s.Add(p); l != None {
					got = l
				}
			}
			if got != tt.want {
				t.Errorf("swipe = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSwipeDetector_ClearsAfterHit(t *testing.T) {
	s := NewSwipeDetector(0, 0)
	s.Add(PathPoint{X: 0.2, Y: 0.5, At: at(0)})
	if l := s.Add(PathPoint{X: 0.5, Y: 0.5, At: at(100)}); l != SwipeRight {
		t.Fatalf("Add() = %s, want %s", l, SwipeRight)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
	if l := s.Add(PathPoint{X: 0.52, Y: 0.5, At: at(150)}); l != None {
		t.Errorf("Add() after hit = %s, want %s", l, None)
	}
}

func TestSwipeDetector_BufferCap(t *testing.T) {
	s := NewSwipeDetector(0, 1) // never fires
	for i := 0; i < PathBufferSize*2; i++ {
		s.Add(PathPoint{X: 0.5, Y: 0.5, At: at(i)})
	}
	if s.Len() != PathBufferSize {
		t.Errorf("Len() = %d, want %d", s.Len(), PathBufferSize)
	}
	s.Reset()
	if s.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", s.Len())
	}
}

func TestRotationTracker(t *testing.T) {
	open := detector.OpenHandLandmarks()
	r := NewRotationTracker(0)

	feed := func(deg float64, label Label) (Gesture, bool) {
		h := detector.Rotated(open, deg)
		return r.Update(&h, label)
	}

	if _, ok := feed(0, OpenHand); ok {
		t.Fatal("first frame should only anchor")
	}
	if _, ok := feed(3, OpenHand); ok {
		t.Error("3 degrees should be below the step")
	}

	g, ok := feed(8, OpenHand)
	if !ok || g.Label != Rotation {
		t.Fatalf("Update() = %+v, %v; want rotation", g, ok)
	}
	if math.Abs(g.Angle-8) > 1e-6 {
		t.Errorf("Angle = %f, want 8", g.Angle)
	}

	if _, ok := feed(10, OpenHand); ok {
		t.Error("2 degrees from new anchor should be below the step")
	}

	g, ok = feed(-2, OpenHand)
	if !ok || math.Abs(g.Angle+10) > 1e-6 {
		t.Errorf("Update() = %+v, %v; want angle -10", g, ok)
	}
	if math.Abs(r.Heading()+2) > 1e-6 {
		t.Errorf("Heading() = %f, want -2", r.Heading())
	}

	t.Run("other labels stop tracking", func(t *testing.T) {
		if _, ok := feed(40, Fist); ok {
			t.Error("rotation reported for a fist")
		}
		if _, ok := feed(40, OpenHand); ok {
			t.Error("re-entering open hand should re-anchor, not report")
		}
	})
}

func TestNormalizeAngle(t *testing.T) {
	tests := map[float64]float64{0: 0, 190: -170, -190: 170, 360: 0, 180: 180, -180: 180}
	for in, want := range tests {
		if got := normalizeAngle(in); math.Abs(got-want) > 1e-9 {
			t.Errorf("normalizeAngle(%v) = %v, want %v", in, got, want)
		}
	}
}
