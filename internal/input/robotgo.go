package input

import (
	"github.com/go-vgo/robotgo"

	"github.com/ayusman/gestos/internal/cursor"
)

// wheelNotch is the scroll delta of one wheel step.
const wheelNotch = 120

// Robotgo injects input directly through the OS with robotgo.
type Robotgo struct {
	screen cursor.Size
}

// NewRobotgo creates the provider. An invalid screen is queried from the display.
func NewRobotgo(screen cursor.Size) *Robotgo {
	if !screen.Valid() {
		w, h := robotgo.GetScreenSize()
		screen = cursor.Size{W: w, H: h}
	}
	return &Robotgo{screen: screen}
}

func (r *Robotgo) Name() string { return ProviderRobotgo }

func (r *Robotgo) ScreenSize() cursor.Size { return r.screen }

func (r *Robotgo) Click() error {
	robotgo.Click("left")
	return nil
}

func (r *Robotgo) RightClick() error {
	robotgo.Click("right")
	return nil
}

func (r *Robotgo) DoubleClick() error {
	robotgo.Click("left", true)
	return nil
}

func (r *Robotgo) MoveTo(x, y int) error {
	robotgo.Move(x, y)
	return nil
}

// Scroll converts delta into wheel steps; positive scrolls up.
func (r *Robotgo) Scroll(delta int) error {
	steps := delta / wheelNotch
	if steps == 0 && delta != 0 {
		steps = 1
		if delta < 0 {
			steps = -1
		}
	}
	robotgo.Scroll(0, steps)
	return nil
}

func (r *Robotgo) MouseDown() error {
	return robotgo.Toggle("left")
}

func (r *Robotgo) MouseUp() error {
	return robotgo.Toggle("left", "up")
}
