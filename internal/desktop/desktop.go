// Package desktop is the window-system collaborator for focus sessions.
//
// It describes the small set of window-manager capabilities the focus
// orchestrator and the input filters need: enumerating visible top-level
// windows, querying geometry, hit testing, minimising, raising and
// synthesizing key presses. The Win32 implementation lives in
// system_windows.go; other platforms get a backend that reports
// ErrNotSupported.
package desktop

import (
	"errors"
	"fmt"
)

// Handle identifies a top-level window. Zero means "no window".
type Handle uintptr

// String formats the handle the way Win32 tooling prints HWNDs.
func (h Handle) String() string {
	return fmt.Sprintf("0x%08X", uintptr(h))
}

// Point is a screen coordinate in physical pixels.
type Point struct {
	X int32
	Y int32
}

// Rect is a screen rectangle. Right and Bottom are exclusive.
type Rect struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

// Equal reports whether both rectangles cover exactly the same pixels.
func (r Rect) Equal(o Rect) bool {
	return r == o
}

// WindowDescriptor is an enumeration snapshot of a single window.
type WindowDescriptor struct {
	Handle Handle
	Title  string
}

// VirtualKey is a Win32 virtual-key code.
type VirtualKey uint32

// Virtual-key codes used by the filters and the full-screen toggle.
const (
	VK0       VirtualKey = 0x30
	VK9       VirtualKey = 0x39
	VKA       VirtualKey = 0x41
	VKZ       VirtualKey = 0x5A
	VKNumpad0 VirtualKey = 0x60
	VKNumpad9 VirtualKey = 0x69
	VKF11     VirtualKey = 0x7A
	VKLShift  VirtualKey = 0xA0
	VKRShift  VirtualKey = 0xA1
)

// SyntheticKeyTag is the extra-info value on keystrokes sent by TapKey.
// Input filters forward tagged keystrokes so a full-screen toggle sent
// during an active session reaches the target.
const SyntheticKeyTag uintptr = 0x5546434B

// WindowSystem is everything the orchestrator asks of the window manager.
type WindowSystem interface {
	// Windows returns every visible top-level window that has a title,
	// in z-order.
	Windows() ([]WindowDescriptor, error)

	// WindowBounds returns the outer rectangle of a window.
	WindowBounds(h Handle) (Rect, error)

	// MonitorBounds returns the full rectangle of the monitor that
	// displays most of the window.
	MonitorBounds(h Handle) (Rect, error)

	// Minimize asks the window to minimise itself. Delivery is
	// asynchronous; a nil error only means the request was posted.
	Minimize(h Handle) error

	// Foreground forces the window to the foreground.
	Foreground(h Handle) error

	// TapKey synthesizes one key-down followed by one key-up, both tagged
	// with SyntheticKeyTag.
	TapKey(vk VirtualKey) error
}

// ErrNotSupported is returned by every operation on platforms without a
// window-system backend.
var ErrNotSupported = errors.New("desktop: window system not supported on this platform")

// New returns the window system for the current platform.
func New() WindowSystem {
	return newPlatformSystem()
}
