package input

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ayusman/gestos/internal/cursor"
	"github.com/ayusman/gestos/internal/dispatch"
	"github.com/ayusman/gestos/internal/logging"
)

// Call is one recorded action.
type Call struct {
	Action string
	X, Y   int
	Delta  int
	At     time.Time
}

// Recorder records actions instead of performing them. Actions listed with
// Fail return the given error. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	screen cursor.Size
	calls  []Call
	fail   map[string]error
	clicks *ClickTracker
	now    func() time.Time
}

// NewRecorder creates a Recorder for a screen. An invalid screen uses 1920x1080.
func NewRecorder(screen cursor.Size) *Recorder {
	if !screen.Valid() {
		screen = defaultScreen
	}
	return &Recorder{
		screen: screen,
		fail:   make(map[string]error),
		clicks: NewClickTracker(0),
		now:    time.Now,
	}
}

// Fail makes action return err; a nil err clears the failure.
func (r *Recorder) Fail(action string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.fail, action)
		return
	}
	r.fail[action] = err
}

// Calls returns a copy of the recorded calls, including failed ones.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Actions returns the recorded action names in order.
func (r *Recorder) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.calls))
	for i, c := range r.calls {
		names[i] = c.Action
	}
	return names
}

// Count returns how many times action was called.
func (r *Recorder) Count(action string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Action == action {
			n++
		}
	}
	return n
}

// DoubleClicks returns how many successful clicks paired into double clicks.
func (r *Recorder) DoubleClicks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clicks.DoubleClicks()
}

func (r *Recorder) Name() string { return "recorder" }

func (r *Recorder) ScreenSize() cursor.Size { return r.screen }

func (r *Recorder) Click() error       { return r.record(Call{Action: dispatch.ActionClick}) }
func (r *Recorder) RightClick() error  { return r.record(Call{Action: dispatch.ActionRightClick}) }
func (r *Recorder) DoubleClick() error { return r.record(Call{Action: dispatch.ActionDoubleClick}) }
func (r *Recorder) MouseDown() error   { return r.record(Call{Action: dispatch.ActionMouseDown}) }
func (r *Recorder) MouseUp() error     { return r.record(Call{Action: dispatch.ActionMouseUp}) }

func (r *Recorder) MoveTo(x, y int) error {
	return r.record(Call{Action: dispatch.ActionMove, X: x, Y: y})
}

func (r *Recorder) Scroll(delta int) error {
	return r.record(Call{Action: dispatch.ActionScroll, Delta: delta})
}

func (r *Recorder) record(c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.At = r.now()
	r.calls = append(r.calls, c)
	if err := r.fail[c.Action]; err != nil {
		return err
	}
	if c.Action == dispatch.ActionClick {
		r.clicks.Observe(c.At)
	}
	return nil
}

// DryRun logs actions without performing them. It keeps per-action counts
// and reports double clicks the way a desktop would see them.
type DryRun struct {
	mu     sync.Mutex
	screen cursor.Size
	counts map[string]int
	clicks *ClickTracker
	now    func() time.Time
	log    *log.Logger
}

// NewDryRun creates a dry-run provider. An invalid screen uses 1920x1080.
func NewDryRun(screen cursor.Size) *DryRun {
	if !screen.Valid() {
		screen = defaultScreen
	}
	return &DryRun{
		screen: screen,
		counts: make(map[string]int),
		clicks: NewClickTracker(0),
		now:    time.Now,
		log:    logging.WithPrefix("input"),
	}
}

func (d *DryRun) Name() string { return ProviderDryRun }

func (d *DryRun) ScreenSize() cursor.Size { return d.screen }

func (d *DryRun) Click() error {
	d.mu.Lock()
	d.counts[dispatch.ActionClick]++
	double := d.clicks.Observe(d.now())
	d.mu.Unlock()

	d.log.Info("click")
	if double {
		d.log.Info("double click detected", "window", DoubleClickWindow)
	}
	return nil
}

func (d *DryRun) RightClick() error {
	d.count(dispatch.ActionRightClick)
	d.log.Info("right click")
	return nil
}

func (d *DryRun) DoubleClick() error {
	d.count(dispatch.ActionDoubleClick)
	d.log.Info("double click")
	return nil
}

func (d *DryRun) MouseDown() error {
	d.count(dispatch.ActionMouseDown)
	d.log.Info("mouse down")
	return nil
}

func (d *DryRun) MouseUp() error {
	d.count(dispatch.ActionMouseUp)
	d.log.Info("mouse up")
	return nil
}

func (d *DryRun) MoveTo(x, y int) error {
	d.count(dispatch.ActionMove)
	d.log.Debug("move", "x", x, "y", y)
	return nil
}

func (d *DryRun) Scroll(delta int) error {
	d.count(dispatch.ActionScroll)
	d.log.Info("scroll", "delta", delta)
	return nil
}

// Count returns how many times action was performed.
func (d *DryRun) Count(action string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counts[action]
}

// DoubleClicks returns how many click pairs landed within DoubleClickWindow.
func (d *DryRun) DoubleClicks() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clicks.DoubleClicks()
}

func (d *DryRun) count(action string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.counts[action]++
}
