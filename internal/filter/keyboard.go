package filter

import "ultrafocus/internal/desktop"

// KeyEventKind is the message that produced a keyboard hook invocation.
type KeyEventKind int

const (
	// KeyOther covers invocations that are not actionable key events.
	// They are always forwarded untouched.
	KeyOther KeyEventKind = iota
	KeyPress
	KeyRelease
	KeySysPress
	KeySysRelease
)

func (k KeyEventKind) String() string {
	switch k {
	case KeyPress:
		return "press"
	case KeyRelease:
		return "release"
	case KeySysPress:
		return "sys_press"
	case KeySysRelease:
		return "sys_release"
	default:
		return "other"
	}
}

// IsKeyEvent reports whether the kind is one of the four key messages.
func (k KeyEventKind) IsKeyEvent() bool {
	return k >= KeyPress && k <= KeySysRelease
}

// KeyEvent is one keyboard hook invocation.
type KeyEvent struct {
	Code desktop.VirtualKey
	Kind KeyEventKind

	// Extra is the extra-info word the OS delivers with the keystroke.
	Extra uintptr
}

// KeyClass is the classification of a virtual-key code.
type KeyClass int

const (
	KeyAlphaNumeric KeyClass = iota
	KeyAllowedModifier
	KeyBlocked
)

func (c KeyClass) String() string {
	switch c {
	case KeyAlphaNumeric:
		return "alphanumeric"
	case KeyAllowedModifier:
		return "allowed_modifier"
	default:
		return "blocked"
	}
}

// ClassifyKey sorts a virtual-key code into the session allow-list:
// digits, Latin letters and numpad digits are alphanumeric, either shift is
// an allowed modifier, and everything else is blocked.
func ClassifyKey(code desktop.VirtualKey) KeyClass {
	switch {
	case code >= desktop.VK0 && code <= desktop.VK9,
		code >= desktop.VKA && code <= desktop.VKZ,
		code >= desktop.VKNumpad0 && code <= desktop.VKNumpad9:
		return KeyAlphaNumeric
	case code == desktop.VKLShift, code == desktop.VKRShift:
		return KeyAllowedModifier
	default:
		return KeyBlocked
	}
}

// Keyboard decides one keyboard event. Press, release and their system
// variants share the same rule, so alt combinations are suppressed too.
func Keyboard(ev KeyEvent) Verdict {
	if !ev.Kind.IsKeyEvent() {
		return Pass
	}
	if ClassifyKey(ev.Code) == KeyBlocked {
		return Suppress
	}
	return Pass
}
