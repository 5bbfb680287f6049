package gesture

import (
	"math"
	"testing"

	"github.com/ayusman/gestos/internal/detector"
)

// handWith builds landmarks with the given fingers raised. The thumb tip sits at
// mid-height, well away from the index tip, so no fixture reads as a pinch.
func handWith(f FingerState) *detector.HandLandmarks {
	h := &detector.HandLandmarks{Score: 1}
	for i := range h.Points {
		h.Points[i] = detector.Point3D{X: 0.5, Y: 0.5}
	}

	h.Points[detector.ThumbIP] = detector.Point3D{X: 0.30, Y: 0.50}
	h.Points[detector.ThumbTip] = detector.Point3D{X: 0.35, Y: 0.50}
	if f[Thumb] {
		h.Points[detector.ThumbTip].X = 0.25
	}

	for i := Index; i <= Pinky; i++ {
		tip := detector.FingerTips[i]
		x := 0.5 + 0.1*float64(i)
		h.Points[tip-2] = detector.Point3D{X: x, Y: 0.50}
		h.Points[tip] = detector.Point3D{X: x, Y: 0.60}
		if f[i] {
			h.Points[tip].Y = 0.40
		}
	}
	return h
}

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	tests := []struct {
		name    string
		fingers FingerState
		want    Label
	}{
		{"index only", FingerState{false, true, false, false, false}, Pointing},
		{"index with thumb", FingerState{true, true, false, false, false}, Pointing},
		{"all five", FingerState{true, true, true, true, true}, OpenHand},
		{"four without thumb", FingerState{false, true, true, true, true}, None},
		{"none up", FingerState{}, Fist},
		{"thumb only", FingerState{true, false, false, false, false}, Fist},
		{"two fingers", FingerState{false, true, true, false, false}, None},
		{"three fingers", FingerState{false, true, true, true, false}, None},
		{"pinky only", FingerState{false, false, false, false, true}, None},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handWith(tt.fingers)
			if got := c.Fingers(h); got != tt.fingers {
				t.Fatalf("Fingers() = %s, want %s", got, tt.fingers)
			}
			if got := c.Classify(h); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifier_ClickPriority(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	t.Run("pinch beats open hand", func(t *testing.T) {
		h := handWith(FingerState{true, true, true, true, true})
		h.Points[detector.ThumbTip] = detector.Point3D{X: 0.58, Y: 0.42}
		h.Points[detector.ThumbIP] = detector.Point3D{X: 0.62, Y: 0.45}
		// index tip is at (0.6, 0.4)
		if got := c.Classify(h); got != Click {
			t.Errorf("Classify() = %s, want %s", got, Click)
		}
	})

	t.Run("just under threshold", func(t *testing.T) {
		h := handWith(FingerState{})
		h.Points[detector.ThumbTip] = detector.Point3D{X: 0.551, Y: 0.60}
		// index tip is at (0.6, 0.6): distance 0.049
		if got := c.Classify(h); got != Click {
			t.Errorf("Classify() = %s, want %s", got, Click)
		}
	})

	t.Run("just over threshold", func(t *testing.T) {
		h := handWith(FingerState{})
		h.Points[detector.ThumbTip] = detector.Point3D{X: 0.549, Y: 0.60}
		if got := c.Classify(h); got != Fist {
			t.Errorf("Classify() = %s, want %s", got, Fist)
		}
	})

	t.Run("configurable threshold", func(t *testing.T) {
		wide := NewClassifier(ClassifierConfig{ClickThreshold: 0.1})
		h := handWith(FingerState{})
		h.Points[detector.ThumbTip] = detector.Point3D{X: 0.53, Y: 0.60}
		if got := wide.Classify(h); got != Click {
			t.Errorf("Classify() = %s, want %s", got, Click)
		}
	})
}

func TestClassifier_Degenerate(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	t.Run("nil hand", func(t *testing.T) {
		if got := c.Classify(nil); got != None {
			t.Errorf("Classify(nil) = %s, want %s", got, None)
		}
	})

	t.Run("NaN landmark", func(t *testing.T) {
		h := handWith(FingerState{false, true, false, false, false})
		h.Points[detector.IndexTip].Y = math.NaN()
		if got := c.Classify(h); got != None {
			t.Errorf("Classify() = %s, want %s", got, None)
		}
	})

	t.Run("infinite landmark", func(t *testing.T) {
		h := handWith(FingerState{})
		h.Points[detector.Wrist].X = math.Inf(1)
		if got := c.Classify(h); got != None {
			t.Errorf("Classify() = %s, want %s", got, None)
		}
	})
}

func TestClassifier_Deterministic(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())
	h := detector.PointingLandmarks()
	first := c.Classify(&h)
	for i := 0; i < 100; i++ {
		if got := c.Classify(&h); got != first {
			t.Fatalf("call %d: Classify() = %s, want %s", i, got, first)
		}
	}
}

func TestClassifier_ThumbConvention(t *testing.T) {
	h := handWith(FingerState{})
	h.Points[detector.ThumbTip].X = 0.20 // left of the IP joint

	left := NewClassifier(ClassifierConfig{Thumb: ThumbTipLeft})
	if !left.Fingers(h)[Thumb] {
		t.Error("ThumbTipLeft: expected thumb up")
	}

	right := NewClassifier(ClassifierConfig{Thumb: ThumbTipRight})
	if right.Fingers(h)[Thumb] {
		t.Error("ThumbTipRight: expected thumb down")
	}

	t.Run("parse", func(t *testing.T) {
		for in, want := range map[string]ThumbConvention{"": ThumbTipLeft, "left": ThumbTipLeft, "right": ThumbTipRight} {
			got, err := ParseThumbConvention(in)
			if err != nil || got != want {
				t.Errorf("ParseThumbConvention(%q) = %q, %v; want %q", in, got, err, want)
			}
		}
		if _, err := ParseThumbConvention("up"); err == nil {
			t.Error("expected error for unknown convention")
		}
	})
}

func TestClassifier_Presets(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	tests := []struct {
		name string
		hand detector.HandLandmarks
		want Label
	}{
		{"fist", detector.FistLandmarks(), Fist},
		{"open hand", detector.OpenHandLandmarks(), OpenHand},
		{"pointing", detector.PointingLandmarks(), Pointing},
		{"click", detector.ClickLandmarks(), Click},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(&tt.hand); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifier_Extended(t *testing.T) {
	base := NewClassifier(DefaultClassifierConfig())
	cfg := DefaultClassifierConfig()
	cfg.Extended = true
	ext := NewClassifier(cfg)

	tests := []struct {
		name    string
		fingers FingerState
		plain   Label
		want    Label
	}{
		{"peace", FingerState{false, true, true, false, false}, None, Peace},
		{"thumbs up", FingerState{true, false, false, false, false}, Fist, ThumbsUp},
		{"three fingers", FingerState{false, true, true, true, false}, None, ThreeFingers},
		{"pointing unchanged", FingerState{false, true, false, false, false}, Pointing, Pointing},
		{"open hand unchanged", FingerState{true, true, true, true, true}, OpenHand, OpenHand},
		{"fist unchanged", FingerState{}, Fist, Fist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handWith(tt.fingers)
			if got := base.Classify(h); got != tt.plain {
				t.Errorf("default Classify() = %s, want %s", got, tt.plain)
			}
			if got := ext.Classify(h); got != tt.want {
				t.Errorf("extended Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		in   string
		want Label
		ok   bool
	}{
		{"OPEN_HAND", OpenHand, true},
		{"fist", Fist, true},
		{" Click ", Click, true},
		{"point", Pointing, true},
		{"SWIPE_LEFT", SwipeLeft, true},
		{"rotation", Rotation, true},
		{"wave", None, false},
		{"none", None, false},
	}

	for _, tt := range tests {
		got, ok := ParseLabel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLabel(%q) = %s, %v; want %s, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
