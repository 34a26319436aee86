package hook

import (
	"sync/atomic"

	"ultrafocus/internal/desktop"
)

// TargetSlot is the single shared cell holding the protected window. The
// orchestrator writes it before the filters are installed; the mouse filter
// reads it on the hook thread. The atomic store gives the visibility
// guarantee, no lock is needed.
type TargetSlot struct {
	handle atomic.Uintptr
}

// Store overwrites the target. Storing zero clears it.
func (s *TargetSlot) Store(h desktop.Handle) {
	s.handle.Store(uintptr(h))
}

// Load returns the target and whether one has been set.
func (s *TargetSlot) Load() (desktop.Handle, bool) {
	h := desktop.Handle(s.handle.Load())
	return h, h != 0
}
