// Package gesture turns hand landmarks into discrete, debounced gesture labels.
package gesture

import "strings"

// Label is a discrete gesture classification result.
type Label string

const (
	None     Label = "none"
	Click    Label = "click"
	Pointing Label = "pointing"
	OpenHand Label = "open_hand"
	Fist     Label = "fist"

	// Extended labels, produced only when extended recognition is enabled.
	Peace        Label = "peace"
	ThumbsUp     Label = "thumbs_up"
	ThreeFingers Label = "three_fingers"
	SwipeLeft    Label = "swipe_left"
	SwipeRight   Label = "swipe_right"
	SwipeUp      Label = "swipe_up"
	SwipeDown    Label = "swipe_down"
	Rotation     Label = "rotation"
)

// Labels lists every known label except None.
var Labels = []Label{
	Click, Pointing, OpenHand, Fist,
	Peace, ThumbsUp, ThreeFingers,
	SwipeLeft, SwipeRight, SwipeUp, SwipeDown,
	Rotation,
}

// aliases maps names used by older senders on the relay.
var aliases = map[string]Label{
	"point":     Pointing,
	"openhand":  OpenHand,
	"open-hand": OpenHand,
	"pinch":     Click,
}

// ParseLabel converts a wire name such as "OPEN_HAND" or "open_hand" into a Label.
// Unknown names yield None and false.
func ParseLabel(s string) (Label, bool) {
	name := strings.ToLower(strings.TrimSpace(s))
	if l, ok := aliases[name]; ok {
		return l, true
	}
	for _, l := range Labels {
		if string(l) == name {
			return l, true
		}
	}
	return None, false
}

// String returns the wire name of the label.
func (l Label) String() string {
	return string(l)
}

// IsMotion reports whether l describes hand movement (a swipe or a
// rotation) rather than a pose held in a single frame.
func (l Label) IsMotion() bool {
	switch l {
	case SwipeLeft, SwipeRight, SwipeUp, SwipeDown, Rotation:
		return true
	}
	return false
}

// Gesture is a classified gesture with its optional continuous parameter.
type Gesture struct {
	Label Label   `json:"label"`
	Angle float64 `json:"angle,omitempty"` // degrees, Rotation only
}
