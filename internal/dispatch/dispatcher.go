// Package dispatch turns debounced gestures into input actions.
package dispatch

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/ayusman/gestos/internal/cursor"
	"github.com/ayusman/gestos/internal/detector"
	"github.com/ayusman/gestos/internal/gesture"
	"github.com/ayusman/gestos/internal/logging"
	"github.com/ayusman/gestos/internal/metrics"
)

// DefaultScrollStep is one wheel notch.
const DefaultScrollStep = 120

// Action names, shared with input providers and metrics.
const (
	ActionClick       = "click"
	ActionRightClick  = "right-click"
	ActionDoubleClick = "double-click"
	ActionMove        = "move"
	ActionScroll      = "scroll"
	ActionMouseDown   = "mouse-down"
	ActionMouseUp     = "mouse-up"
)

// Injector performs input actions on the host. Every call may fail.
// A positive scroll delta scrolls up.
type Injector interface {
	Click() error
	RightClick() error
	DoubleClick() error
	MoveTo(x, y int) error
	Scroll(delta int) error
	MouseDown() error
	MouseUp() error
}

// State is the dispatcher drag state.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Config configures a Dispatcher.
type Config struct {
	// Screen is the target screen size for cursor moves.
	Screen cursor.Size
	// Smoothing is the cursor smoothing factor.
	Smoothing float64
	// ScrollStep is the wheel delta of one scroll action.
	ScrollStep int
	Metrics    *metrics.Metrics
}

// Dispatcher is the Idle/Dragging state machine. A failed action never
// changes the state. It is safe for concurrent use; actions are serialized.
type Dispatcher struct {
	mu         sync.Mutex
	injector   Injector
	mapper     *cursor.Mapper
	screen     cursor.Size
	scrollStep int
	state      State
	metrics    *metrics.Metrics
	log        *log.Logger
}

// New creates a Dispatcher in the Idle state.
func New(injector Injector, config Config) *Dispatcher {
	if config.ScrollStep <= 0 {
		config.ScrollStep = DefaultScrollStep
	}
	if config.Smoothing == 0 {
		config.Smoothing = cursor.DefaultSmoothing
	}
	return &Dispatcher{
		injector:   injector,
		mapper:     cursor.NewMapper(cursor.NormalizedFrame, config.Screen, config.Smoothing),
		screen:     config.Screen,
		scrollStep: config.ScrollStep,
		state:      Idle,
		metrics:    config.Metrics,
		log:        logging.WithPrefix("dispatch"),
	}
}

// State returns the current drag state.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// SetSmoothing changes the cursor smoothing used for Pointing.
func (d *Dispatcher) SetSmoothing(smoothing float64) {
	d.mapper.SetSmoothing(smoothing)
}

// Cursor returns the last mapped cursor position.
func (d *Dispatcher) Cursor() cursor.Point {
	return d.mapper.Position()
}

// Dispatch performs the action for label. tip is the normalized index fingertip
// and is used only for Pointing; a nil tip makes Pointing a no-op.
func (d *Dispatcher) Dispatch(label gesture.Label, tip *detector.Point3D) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch label {
	case gesture.Click:
		return d.do(ActionClick, d.injector.Click)

	case gesture.Pointing:
		if tip == nil || !d.screen.Valid() {
			return nil
		}
		p := d.mapper.UpdateNormalized(tip.X, tip.Y, d.screen)
		return d.do(ActionMove, func() error {
			return d.injector.MoveTo(int(p.X), int(p.Y))
		})

	case gesture.OpenHand:
		if d.state == Dragging {
			if err := d.do(ActionMouseUp, d.injector.MouseUp); err != nil {
				return err
			}
			d.setState(Idle)
			return nil
		}
		return d.scroll(d.scrollStep)

	case gesture.Fist:
		if d.state == Dragging {
			return d.scroll(-d.scrollStep)
		}
		if err := d.do(ActionMouseDown, d.injector.MouseDown); err != nil {
			return err
		}
		d.setState(Dragging)
		return nil

	case gesture.Peace:
		return d.do(ActionRightClick, d.injector.RightClick)

	case gesture.ThumbsUp:
		return d.do(ActionDoubleClick, d.injector.DoubleClick)

	case gesture.SwipeUp:
		return d.scroll(d.scrollStep)

	case gesture.SwipeDown:
		return d.scroll(-d.scrollStep)
	}

	// None, horizontal swipes, rotation and unknown labels have no local action.
	return nil
}

// MoveTo maps a normalized position straight to a cursor move, bypassing the
// gesture state. It is used for remote cursor updates.
func (d *Dispatcher) MoveTo(x, y float64) error {
	return d.Dispatch(gesture.Pointing, &detector.Point3D{X: x, Y: y})
}

// Close releases an active drag and leaves the dispatcher Idle even when the
// release fails.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != Dragging {
		return nil
	}
	err := d.do(ActionMouseUp, d.injector.MouseUp)
	d.setState(Idle)
	if err != nil {
		return fmt.Errorf("release drag: %w", err)
	}
	d.log.Info("drag released on shutdown")
	return nil
}

func (d *Dispatcher) scroll(delta int) error {
	return d.do(ActionScroll, func() error {
		return d.injector.Scroll(delta)
	})
}

// do runs one action, logging and counting failures.
func (d *Dispatcher) do(action string, fn func() error) error {
	err := fn()
	if d.metrics != nil {
		d.metrics.ObserveAction(action, err)
	}
	if err != nil {
		d.log.Warn("action failed", "action", action, "state", d.state, "err", err)
		return &ActionError{Action: action, Err: err}
	}
	d.log.Debug("action", "action", action, "state", d.state)
	return nil
}

func (d *Dispatcher) setState(s State) {
	if d.state == s {
		return
	}
	d.log.Debug("state change", "from", d.state, "to", s)
	d.state = s
	if d.metrics != nil {
		d.metrics.SetDragging(s == Dragging)
	}
}

// ActionError reports a failed input action.
type ActionError struct {
	Action string
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Action, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// IsActionError reports whether err came from a failed input action.
func IsActionError(err error) bool {
	var ae *ActionError
	return errors.As(err, &ae)
}
