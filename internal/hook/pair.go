package hook

import (
	"errors"
	"fmt"
)

// hookPair owns both installed filters of a session. It is only ever
// returned fully installed; release unhooks mouse first, then keyboard.
type hookPair struct {
	keyboard Hook
	mouse    Hook
}

// installPair installs the keyboard filter and then the mouse filter. If
// the mouse filter fails, or its installation panics, the keyboard filter
// is released before control leaves this function.
func installPair(b Backend, kp KeyboardProc, mp MouseProc) (*hookPair, error) {
	kbd, err := b.InstallKeyboard(kp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyboardInstall, err)
	}

	settled := false
	defer func() {
		if !settled {
			kbd.Release()
		}
	}()

	mouse, err := b.InstallMouse(mp)
	if err != nil {
		settled = true
		return nil, errors.Join(fmt.Errorf("%w: %w", ErrMouseInstall, err), kbd.Release())
	}

	settled = true
	return &hookPair{keyboard: kbd, mouse: mouse}, nil
}

// release unhooks in reverse installation order and reports both errors.
func (p *hookPair) release() error {
	merr := p.mouse.Release()
	kerr := p.keyboard.Release()
	return errors.Join(merr, kerr)
}
