package filter

import "ultrafocus/internal/desktop"

// TopEdgeBand is the height in pixels of the strip at the top of the screen
// where every mouse event is suppressed. It keeps system edge gestures out
// of reach during a session.
const TopEdgeBand = 5

// MouseEventKind is the message that produced a mouse hook invocation.
type MouseEventKind int

const (
	MouseOther MouseEventKind = iota
	MouseMove
	MouseWheel
	MouseLeftDown
	MouseLeftUp
	MouseRightDown
	MouseRightUp
)

func (k MouseEventKind) String() string {
	switch k {
	case MouseMove:
		return "move"
	case MouseWheel:
		return "wheel"
	case MouseLeftDown:
		return "left_down"
	case MouseLeftUp:
		return "left_up"
	case MouseRightDown:
		return "right_down"
	case MouseRightUp:
		return "right_up"
	default:
		return "other"
	}
}

// IsButton reports whether the kind is a left or right press or release.
func (k MouseEventKind) IsButton() bool {
	return k >= MouseLeftDown && k <= MouseRightUp
}

// MouseEvent is one mouse hook invocation.
type MouseEvent struct {
	Kind MouseEventKind
	Pt   desktop.Point
}

// MouseClass is the classification of a mouse event.
type MouseClass int

const (
	MouseNearTopEdge MouseClass = iota
	MouseClickOutsideTarget
	MouseClickInsideTarget
	MousePassThrough
)

func (c MouseClass) String() string {
	switch c {
	case MouseNearTopEdge:
		return "near_top_edge"
	case MouseClickOutsideTarget:
		return "click_outside_target"
	case MouseClickInsideTarget:
		return "click_inside_target"
	default:
		return "pass_through"
	}
}

// HitTester resolves the window under a screen coordinate.
type HitTester interface {
	WindowAt(pt desktop.Point) desktop.Handle
}

// HitTestFunc adapts a function to HitTester.
type HitTestFunc func(pt desktop.Point) desktop.Handle

// WindowAt calls f(pt).
func (f HitTestFunc) WindowAt(pt desktop.Point) desktop.Handle {
	return f(pt)
}

// ClassifyMouse classifies a mouse event against the current target. The
// hit tester is consulted only for button events.
func ClassifyMouse(ev MouseEvent, target desktop.Handle, hit HitTester) MouseClass {
	if ev.Pt.Y < TopEdgeBand {
		return MouseNearTopEdge
	}
	if !ev.Kind.IsButton() {
		return MousePassThrough
	}
	if hit.WindowAt(ev.Pt) != target {
		return MouseClickOutsideTarget
	}
	return MouseClickInsideTarget
}

// Mouse decides one mouse event.
func Mouse(ev MouseEvent, target desktop.Handle, hit HitTester) Verdict {
	switch ClassifyMouse(ev, target, hit) {
	case MouseNearTopEdge, MouseClickOutsideTarget:
		return Suppress
	default:
		return Pass
	}
}
