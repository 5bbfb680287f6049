package app

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ayusman/gestos/internal/detector"
	"github.com/ayusman/gestos/internal/events"
	"github.com/ayusman/gestos/internal/gesture"
	"github.com/ayusman/gestos/internal/logging"
	"github.com/ayusman/gestos/internal/metrics"
)

// Event payload keys shared by bus subscribers.
const (
	FieldLabel   = "label"
	FieldSource  = "source"
	FieldAngle   = "angle"
	FieldHeading = "heading"
	FieldAt      = "at"
	FieldX       = "x"
	FieldY       = "y"
	FieldState   = "state"
	FieldMode    = "mode"
)

// PipelineConfig configures a Pipeline.
type PipelineConfig struct {
	Classifier gesture.ClassifierConfig
	Cooldown   time.Duration
	History    int
	// Source names this pipeline in emitted events.
	Source  string
	Metrics *metrics.Metrics
}

// Pipeline turns detected hands into gesture events on a bus.
//
// Each frame the primary hand is classified. Pointing frames always emit a
// cursor event with the normalized index fingertip so the cursor tracks the
// finger continuously. Discrete gestures go through the debouncer and are
// emitted as gesture events. With extended gestures enabled, open-hand swipes
// and rotations are detected as well; rotations are paced by the rotation
// step rather than the debouncer.
type Pipeline struct {
	mu         sync.Mutex
	classifier *gesture.Classifier
	debouncer  *gesture.Debouncer
	swipe      *gesture.SwipeDetector
	rotation   *gesture.RotationTracker
	bus        *events.Bus
	source     string
	metrics    *metrics.Metrics
	log        *log.Logger
	last       gesture.Label
}

// NewPipeline creates a Pipeline emitting on bus.
func NewPipeline(bus *events.Bus, config PipelineConfig) *Pipeline {
	if config.Source == "" {
		config.Source = "local"
	}
	return &Pipeline{
		classifier: gesture.NewClassifier(config.Classifier),
		debouncer:  gesture.NewDebouncer(config.Cooldown, config.History),
		swipe:      gesture.NewSwipeDetector(0, 0),
		rotation:   gesture.NewRotationTracker(0),
		bus:        bus,
		source:     config.Source,
		metrics:    config.Metrics,
		log:        logging.WithPrefix("pipeline"),
		last:       gesture.None,
	}
}

// Process runs one frame and returns the gestures it emitted.
func (p *Pipeline) Process(hands []detector.HandLandmarks, now time.Time) []gesture.Gesture {
	p.mu.Lock()
	defer p.mu.Unlock()

	hand := detector.Primary(hands)
	if hand == nil || !hand.Finite() {
		if p.metrics != nil {
			p.metrics.HandsAbsent.Add(1)
		}
		p.swipe.Reset()
		p.rotation.Reset()
		p.setLast(gesture.None)
		return nil
	}

	label := p.classifier.Classify(hand)
	p.setLast(label)

	tip := hand.Points[detector.IndexTip]
	if label == gesture.Pointing {
		p.emit(events.KindCursor, map[string]any{
			FieldX:      tip.X,
			FieldY:      tip.Y,
			FieldSource: p.source,
		})
	}

	var emitted []gesture.Gesture
	if p.debouncer.Offer(label, now) {
		emitted = append(emitted, gesture.Gesture{Label: label})
	}

	if p.classifier.Config().Extended {
		if label == gesture.OpenHand {
			swipe := p.swipe.Add(gesture.PathPoint{X: tip.X, Y: tip.Y, At: now})
			if swipe != gesture.None && p.debouncer.Offer(swipe, now) {
				emitted = append(emitted, gesture.Gesture{Label: swipe})
			}
		} else {
			p.swipe.Reset()
		}

		if g, ok := p.rotation.Update(hand, label); ok {
			p.debouncer.Record(g.Label, now)
			emitted = append(emitted, g)
		}
	}

	for _, g := range emitted {
		p.emit(events.KindGesture, p.gestureData(g, now))
	}
	return emitted
}

func (p *Pipeline) gestureData(g gesture.Gesture, now time.Time) map[string]any {
	data := map[string]any{
		FieldLabel:  string(g.Label),
		FieldSource: p.source,
		FieldAt:     now,
	}
	if g.Label == gesture.Rotation {
		data[FieldAngle] = g.Angle
		data[FieldHeading] = p.rotation.Heading()
	}
	return data
}

func (p *Pipeline) emit(kind string, data map[string]any) {
	if kind == events.KindGesture && p.metrics != nil {
		if label, ok := data[FieldLabel].(string); ok {
			p.metrics.ObserveGesture(label)
		}
	}
	for _, err := range p.bus.Emit(kind, data) {
		p.log.Warn("subscriber failed", "kind", kind, "err", err)
	}
}

func (p *Pipeline) setLast(label gesture.Label) {
	if label != p.last {
		p.log.Debug("classified", "from", p.last, "to", label)
		p.last = label
	}
}

// Last returns the most recent per-frame classification.
func (p *Pipeline) Last() gesture.Label {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Reset clears swipe and rotation tracking, e.g. when capture goes idle.
// Debouncer history is kept.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.swipe.Reset()
	p.rotation.Reset()
	p.last = gesture.None
}

// Stats returns the debouncer statistics.
func (p *Pipeline) Stats() gesture.Stats {
	return p.debouncer.Stats()
}

// SetCooldown changes the debouncer cooldown.
func (p *Pipeline) SetCooldown(d time.Duration) {
	p.debouncer.SetCooldown(d)
}

// SetClassifier replaces the classifier configuration.
func (p *Pipeline) SetClassifier(config gesture.ClassifierConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.classifier = gesture.NewClassifier(config)
}

// ClassifierConfig returns the active classifier configuration.
func (p *Pipeline) ClassifierConfig() gesture.ClassifierConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.classifier.Config()
}
