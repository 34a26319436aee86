package hook

import (
	"ultrafocus/internal/desktop"
	"ultrafocus/internal/filter"
)

// Window messages delivered as wParam to low-level hooks.
const (
	wmKeyDown     = 0x0100
	wmKeyUp       = 0x0101
	wmSysKeyDown  = 0x0104
	wmSysKeyUp    = 0x0105
	wmMouseMove   = 0x0200
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202
	wmRButtonDown = 0x0204
	wmRButtonUp   = 0x0205
	wmMouseWheel  = 0x020A
	wmMouseHWheel = 0x020E
)

// hcAction is the only nCode for which a low-level hook may act.
const hcAction = 0

func keyKind(msg uint32) filter.KeyEventKind {
	switch msg {
	case wmKeyDown:
		return filter.KeyPress
	case wmKeyUp:
		return filter.KeyRelease
	case wmSysKeyDown:
		return filter.KeySysPress
	case wmSysKeyUp:
		return filter.KeySysRelease
	default:
		return filter.KeyOther
	}
}

func mouseKind(msg uint32) filter.MouseEventKind {
	switch msg {
	case wmMouseMove:
		return filter.MouseMove
	case wmMouseWheel, wmMouseHWheel:
		return filter.MouseWheel
	case wmLButtonDown:
		return filter.MouseLeftDown
	case wmLButtonUp:
		return filter.MouseLeftUp
	case wmRButtonDown:
		return filter.MouseRightDown
	case wmRButtonUp:
		return filter.MouseRightUp
	default:
		return filter.MouseOther
	}
}

// decideKeyboard is the body of the keyboard shim: only actionable key
// messages reach the filter, everything else is forwarded. Keystrokes we
// synthesized ourselves are forwarded too.
func decideKeyboard(nCode int32, msg uint32, ev filter.KeyEvent, proc KeyboardProc) filter.Verdict {
	if nCode != hcAction || proc == nil || ev.Extra == desktop.SyntheticKeyTag {
		return filter.Pass
	}
	ev.Kind = keyKind(msg)
	if !ev.Kind.IsKeyEvent() {
		return filter.Pass
	}
	return proc(ev)
}

// decideMouse is the body of the mouse shim.
func decideMouse(nCode int32, msg uint32, ev filter.MouseEvent, proc MouseProc) filter.Verdict {
	if nCode != hcAction || proc == nil {
		return filter.Pass
	}
	ev.Kind = mouseKind(msg)
	return proc(ev)
}
