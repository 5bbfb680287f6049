package gesture

import (
	"fmt"

	"github.com/ayusman/gestos/internal/detector"
)

// DefaultClickThreshold is the normalized thumb-to-index distance below which a pinch counts as a click.
const DefaultClickThreshold = 0.05

// ThumbConvention selects which side of its joint the thumb tip must be on to count as extended.
// Landmarks must be supplied in a consistently mirrored or unmirrored frame.
type ThumbConvention string

const (
	// ThumbTipLeft treats the thumb as up when the tip X is smaller than the IP joint X.
	// This matches a right hand in a mirrored (selfie) frame.
	ThumbTipLeft ThumbConvention = "left"
	// ThumbTipRight treats the thumb as up when the tip X is larger than the IP joint X.
	ThumbTipRight ThumbConvention = "right"
)

// ParseThumbConvention validates a configured thumb convention.
func ParseThumbConvention(s string) (ThumbConvention, error) {
	switch ThumbConvention(s) {
	case ThumbTipLeft, ThumbTipRight:
		return ThumbConvention(s), nil
	case "":
		return ThumbTipLeft, nil
	}
	return "", fmt.Errorf("unknown thumb convention %q (want left or right)", s)
}

// Finger positions within a FingerState.
const (
	Thumb = iota
	Index
	Middle
	Ring
	Pinky
)

// FingerState records which fingers are extended, thumb first.
type FingerState [5]bool

// Count returns the number of extended fingers.
func (f FingerState) Count() int {
	n := 0
	for _, up := range f {
		if up {
			n++
		}
	}
	return n
}

// String renders the state as five 0/1 digits, e.g. "01000" for pointing.
func (f FingerState) String() string {
	b := make([]byte, len(f))
	for i, up := range f {
		b[i] = '0'
		if up {
			b[i] = '1'
		}
	}
	return string(b)
}

// ClassifierConfig holds classification thresholds.
type ClassifierConfig struct {
	ClickThreshold float64
	Thumb          ThumbConvention
	// Extended enables Peace, ThumbsUp and ThreeFingers.
	Extended bool
}

// DefaultClassifierConfig returns the stock thresholds.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		ClickThreshold: DefaultClickThreshold,
		Thumb:          ThumbTipLeft,
	}
}

// Classifier maps one hand's landmarks to a Label. It holds no per-frame state.
type Classifier struct {
	config ClassifierConfig
}

// NewClassifier creates a Classifier. Zero values fall back to defaults.
func NewClassifier(config ClassifierConfig) *Classifier {
	if config.ClickThreshold <= 0 {
		config.ClickThreshold = DefaultClickThreshold
	}
	if config.Thumb == "" {
		config.Thumb = ThumbTipLeft
	}
	return &Classifier{config: config}
}

// Config returns the classifier configuration.
func (c *Classifier) Config() ClassifierConfig {
	return c.config
}

// Fingers computes which fingers are extended.
//
// The thumb compares tip and IP joint along X. The other fingers compare the
// tip with the PIP joint two indices back along Y; image Y grows downward, so
// a smaller tip Y means the finger is raised.
func (c *Classifier) Fingers(h *detector.HandLandmarks) FingerState {
	var f FingerState
	if h == nil {
		return f
	}

	tip := h.Points[detector.ThumbTip].X
	joint := h.Points[detector.ThumbIP].X
	if c.config.Thumb == ThumbTipRight {
		f[Thumb] = tip > joint
	} else {
		f[Thumb] = tip < joint
	}

	for i := Index; i <= Pinky; i++ {
		t := detector.FingerTips[i]
		f[i] = h.Points[t].Y < h.Points[t-2].Y
	}
	return f
}

// IsClick reports whether thumb tip and index tip are closer than the click threshold.
func (c *Classifier) IsClick(h *detector.HandLandmarks) bool {
	if h == nil {
		return false
	}
	return detector.Distance2D(h.Points[detector.ThumbTip], h.Points[detector.IndexTip]) < c.config.ClickThreshold
}

// Classify returns the gesture for h. A nil or non-finite hand yields None.
// The click test takes priority over finger counting.
func (c *Classifier) Classify(h *detector.HandLandmarks) Label {
	if h == nil || !h.Finite() {
		return None
	}

	if c.IsClick(h) {
		return Click
	}

	f := c.Fingers(h)
	// The thumb is ignored for pointing and fist.
	index, middle, ring, pinky := f[Index], f[Middle], f[Ring], f[Pinky]

	if c.config.Extended {
		switch {
		case f == FingerState{true, false, false, false, false}:
			return ThumbsUp
		case !f[Thumb] && index && middle && !ring && !pinky:
			return Peace
		case !f[Thumb] && index && middle && ring && !pinky:
			return ThreeFingers
		}
	}

	switch {
	case index && !middle && !ring && !pinky:
		return Pointing
	case f.Count() == 5:
		return OpenHand
	case !index && !middle && !ring && !pinky:
		return Fist
	}
	return None
}
