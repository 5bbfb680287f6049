package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/ayusman/gestos/internal/detector"
	"github.com/ayusman/gestos/internal/dispatch"
	"github.com/ayusman/gestos/internal/events"
	"github.com/ayusman/gestos/internal/gesture"
	"github.com/ayusman/gestos/internal/logging"
	"github.com/ayusman/gestos/internal/metrics"
	"github.com/ayusman/gestos/internal/relay"
)

// Sender writes relay messages. *relay.Client implements it.
type Sender interface {
	Send(typ string, data map[string]any) error
	SendEvent(name string, data map[string]any, at time.Time) error
}

// Sink forwards bus events to the relay. Gestures become gesture messages,
// rotations become renderer events and cursor updates are rate limited.
type Sink struct {
	sender  Sender
	limiter *rate.Limiter
	metrics *metrics.Metrics
	log     *log.Logger
}

// NewSink creates a Sink sending at most maxRate cursor updates per second.
func NewSink(sender Sender, maxRate float64, m *metrics.Metrics) *Sink {
	if maxRate <= 0 {
		maxRate = 30
	}
	return &Sink{
		sender:  sender,
		limiter: rate.NewLimiter(rate.Limit(maxRate), 1),
		metrics: m,
		log:     logging.WithPrefix("sink"),
	}
}

// Attach subscribes the sink to bus and returns a function that detaches it.
func (s *Sink) Attach(bus *events.Bus) (detach func()) {
	offGesture := bus.Subscribe(events.KindGesture, s.HandleGesture)
	offCursor := bus.Subscribe(events.KindCursor, s.HandleCursor)
	return func() {
		offGesture()
		offCursor()
	}
}

// HandleGesture sends one emitted gesture.
func (s *Sink) HandleGesture(data map[string]any) error {
	label, ok := relay.String(data, FieldLabel)
	if !ok {
		return errors.New("gesture event without label")
	}

	if label == string(gesture.Rotation) {
		angle, _ := relay.Float(data, FieldAngle)
		heading, _ := relay.Float(data, FieldHeading)
		at, _ := data[FieldAt].(time.Time)
		if at.IsZero() {
			at = time.Now()
		}
		return s.check(s.sender.SendEvent(label, map[string]any{
			FieldAngle:   angle,
			FieldHeading: heading,
		}, at))
	}
	return s.check(s.sender.Send(relay.TypeGesture, map[string]any{FieldLabel: label}))
}

// HandleCursor sends a cursor update unless the rate limit is exhausted.
func (s *Sink) HandleCursor(data map[string]any) error {
	if !s.limiter.Allow() {
		if s.metrics != nil {
			s.metrics.CursorThrottled.Add(1)
		}
		return nil
	}
	x, okX := relay.Float(data, FieldX)
	y, okY := relay.Float(data, FieldY)
	if !okX || !okY {
		return errors.New("cursor event without position")
	}
	return s.check(s.sender.Send(relay.TypeCursor, map[string]any{FieldX: x, FieldY: y}))
}

// check drops sends made while the relay is down.
func (s *Sink) check(err error) error {
	if errors.Is(err, relay.ErrNotConnected) {
		s.log.Debug("relay down, message dropped")
		return nil
	}
	return err
}

// Actor performs gestures received over the relay on this machine.
type Actor struct {
	dispatcher *dispatch.Dispatcher
	bus        *events.Bus
	log        *log.Logger
}

// NewActor creates an Actor driving dispatcher. bus may be nil; when set,
// received gestures and state changes are re-emitted on it.
func NewActor(dispatcher *dispatch.Dispatcher, bus *events.Bus) *Actor {
	return &Actor{
		dispatcher: dispatcher,
		bus:        bus,
		log:        logging.WithPrefix("actor"),
	}
}

// Handle performs one relay message. Unknown message kinds are ignored;
// an unknown gesture label is an error.
func (a *Actor) Handle(env relay.Envelope) error {
	switch env.Kind {
	case relay.TypeCursor:
		x, okX := relay.Float(env.Data, FieldX)
		y, okY := relay.Float(env.Data, FieldY)
		if !okX || !okY {
			return errors.New("cursor message without position")
		}
		return a.dispatcher.MoveTo(x, y)

	case relay.TypeGesture:
		raw, _ := relay.String(env.Data, FieldLabel)
		label, ok := gesture.ParseLabel(raw)
		if !ok {
			return fmt.Errorf("unknown gesture %q", raw)
		}

		var tip *detector.Point3D
		x, okX := relay.Float(env.Data, FieldX)
		y, okY := relay.Float(env.Data, FieldY)
		if okX && okY {
			tip = &detector.Point3D{X: x, Y: y}
		}

		before := a.dispatcher.State()
		err := a.dispatcher.Dispatch(label, tip)
		a.publish(label, env.Source, before)
		return err
	}
	return nil
}

func (a *Actor) publish(label gesture.Label, source string, before dispatch.State) {
	if a.bus == nil {
		return
	}
	a.bus.Emit(events.KindGesture, map[string]any{
		FieldLabel:  string(label),
		FieldSource: source,
		FieldAt:     time.Now(),
	})
	if after := a.dispatcher.State(); after != before {
		a.bus.Emit(events.KindState, map[string]any{FieldState: after.String()})
	}
}

// Run handles messages until msgs closes or ctx ends, then releases any
// active drag.
func (a *Actor) Run(ctx context.Context, msgs <-chan relay.Envelope) error {
	defer func() {
		if err := a.dispatcher.Close(); err != nil {
			a.log.Error("release drag", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case env, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := a.Handle(env); err != nil {
				a.log.Warn("remote gesture failed", "kind", env.Kind, "source", env.Source, "err", err)
			}
		}
	}
}
