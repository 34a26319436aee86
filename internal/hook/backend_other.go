//go:build !windows

package hook

import "ultrafocus/internal/desktop"

type unsupportedBackend struct{}

func newPlatformBackend() Backend {
	return unsupportedBackend{}
}

func (unsupportedBackend) InstallKeyboard(KeyboardProc) (Hook, error) {
	return nil, ErrNotSupported
}

func (unsupportedBackend) InstallMouse(MouseProc) (Hook, error) {
	return nil, ErrNotSupported
}

func (unsupportedBackend) Loop() error {
	return ErrNotSupported
}

func (unsupportedBackend) Quit() {}

func (unsupportedBackend) WindowAt(desktop.Point) desktop.Handle {
	return 0
}
