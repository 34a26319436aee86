//go:build !windows

package desktop

type unsupportedSystem struct{}

func newPlatformSystem() WindowSystem {
	return unsupportedSystem{}
}

func (unsupportedSystem) Windows() ([]WindowDescriptor, error) { return nil, ErrNotSupported }

func (unsupportedSystem) WindowBounds(Handle) (Rect, error) { return Rect{}, ErrNotSupported }

func (unsupportedSystem) MonitorBounds(Handle) (Rect, error) { return Rect{}, ErrNotSupported }

func (unsupportedSystem) Minimize(Handle) error { return ErrNotSupported }

func (unsupportedSystem) Foreground(Handle) error { return ErrNotSupported }

func (unsupportedSystem) TapKey(VirtualKey) error { return ErrNotSupported }

// IsElevated reports whether the process runs with an elevated token.
// Only meaningful on Windows.
func IsElevated() bool {
	return false
}
