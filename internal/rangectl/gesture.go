package rangectl

import "fmt"

// Gesture is a user input the control responds to.
type Gesture int

const (
	GestureToggle Gesture = iota // primary click
	GestureIncrement
	GestureDecrement
	GestureJumpToMax
	GestureJumpToMin
	GestureCancel
)

func (g Gesture) String() string {
	switch g {
	case GestureToggle:
		return "toggle"
	case GestureIncrement:
		return "increment"
	case GestureDecrement:
		return "decrement"
	case GestureJumpToMax:
		return "jump_to_max"
	case GestureJumpToMin:
		return "jump_to_min"
	case GestureCancel:
		return "cancel"
	default:
		return fmt.Sprintf("Gesture(%d)", int(g))
	}
}

// Button describes one of the directional icon buttons around the dial.
type Button struct {
	Name     string
	Position string
	Icon     string
	Gesture  Gesture
}

// Buttons are registered with the presenter in this order.
var Buttons = []Button{
	{Name: "range_max", Position: "upright", Icon: "icon16-action-max", Gesture: GestureJumpToMax},
	{Name: "range_plus", Position: "rightup", Icon: "icon16-action-up", Gesture: GestureIncrement},
	{Name: "range_minus", Position: "rightdown", Icon: "icon16-action-down", Gesture: GestureDecrement},
	{Name: "range_min", Position: "downright", Icon: "icon16-action-min", Gesture: GestureJumpToMin},
}

// GestureForKey maps a focused-keyboard key name to its gesture.
// Key names follow Bubble Tea's KeyMsg.String().
func GestureForKey(key string) (Gesture, bool) {
	switch key {
	case "home":
		return GestureJumpToMax, true
	case "end":
		return GestureJumpToMin, true
	case "up":
		return GestureIncrement, true
	case "down":
		return GestureDecrement, true
	default:
		return 0, false
	}
}

// Dispatch routes a gesture to its handler.
func (c *Control) Dispatch(g Gesture) {
	c.logGesture(g)

	switch g {
	case GestureToggle:
		c.Toggle()
	case GestureIncrement:
		c.Increment()
	case GestureDecrement:
		c.Decrement()
	case GestureJumpToMax:
		c.JumpToMax()
	case GestureJumpToMin:
		c.JumpToMin()
	case GestureCancel:
		c.Cancel()
	}
}
