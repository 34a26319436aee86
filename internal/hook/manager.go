// Package hook installs the system-wide keyboard and mouse filters of a
// focus session and keeps them alive.
//
// A Manager owns one dedicated goroutine, locked to its OS thread, that
// installs both filters, runs the backend's blocking message loop and
// unhooks in reverse order when the loop ends. Filter callbacks are thin
// shims: they read the shared TargetSlot and delegate to package filter.
//
// Platform support:
//   - Windows: WH_KEYBOARD_LL and WH_MOUSE_LL hooks (backend_windows.go)
//   - Others: a backend that reports ErrNotSupported
package hook

import (
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"ultrafocus/internal/desktop"
	"ultrafocus/internal/filter"
	"ultrafocus/internal/logging"
)

// KeyboardProc decides one keyboard event on the hook thread.
type KeyboardProc func(filter.KeyEvent) filter.Verdict

// MouseProc decides one mouse event on the hook thread.
type MouseProc func(filter.MouseEvent) filter.Verdict

// Hook is one installed system-wide filter.
type Hook interface {
	Release() error
}

// Backend is the OS side of the filters.
//
// InstallKeyboard, InstallMouse, every Hook.Release and Loop are called
// from the same locked OS thread. Quit may be called from any goroutine,
// before or during Loop.
type Backend interface {
	filter.HitTester

	InstallKeyboard(proc KeyboardProc) (Hook, error)
	InstallMouse(proc MouseProc) (Hook, error)

	// Loop retrieves and dispatches messages until Quit is called.
	Loop() error

	// Quit makes Loop return. A Quit that arrives before Loop makes the
	// next Loop return immediately. InstallKeyboard discards a Quit left
	// over from an earlier session.
	Quit()
}

var (
	// ErrAlreadyRunning is returned by Launch while a session is active.
	ErrAlreadyRunning = errors.New("hook: filters already installed")

	// ErrNoTarget is returned by Launch when the target slot is empty.
	ErrNoTarget = errors.New("hook: no target window set")

	// ErrKeyboardInstall wraps a failure to install the keyboard filter.
	ErrKeyboardInstall = errors.New("hook: keyboard filter not installed")

	// ErrMouseInstall wraps a failure to install the mouse filter.
	ErrMouseInstall = errors.New("hook: mouse filter not installed")

	// ErrNotSupported is returned by the backend on unsupported platforms.
	ErrNotSupported = errors.New("hook: low-level input filters not supported on this platform")
)

// Stats counts suppressed events for the current session.
type Stats struct {
	KeysSuppressed  uint64
	MouseSuppressed uint64
	FilterPanics    uint64
}

// Manager is the input-filter hook manager.
type Manager struct {
	backend Backend
	slot    *TargetSlot
	logger  *slog.Logger
	crash   *logging.CrashHandler

	mu       sync.Mutex
	running  bool
	stopping bool
	done     chan struct{}

	keysSuppressed  atomic.Uint64
	mouseSuppressed atomic.Uint64
	filterPanics    atomic.Uint64
}

// NewManager creates a Manager that filters on behalf of whatever window
// slot holds when Launch is called.
func NewManager(backend Backend, slot *TargetSlot) *Manager {
	return &Manager{
		backend: backend,
		slot:    slot,
		logger:  slog.Default().With("component", "hook_manager"),
	}
}

// SetLogger replaces the manager's logger.
func (m *Manager) SetLogger(l *slog.Logger) {
	m.logger = l
}

// SetCrashHandler routes panics on the hook thread to h.
func (m *Manager) SetCrashHandler(h *logging.CrashHandler) {
	m.crash = h
}

// Launch starts the hook thread, waits until both filters are installed
// (or installation failed) and returns. The session then runs until Stop.
func (m *Manager) Launch() error {
	target, ok := m.slot.Load()
	if !ok {
		return ErrNoTarget
	}

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	m.running = true
	m.stopping = false
	done := make(chan struct{})
	m.done = done
	m.mu.Unlock()

	m.keysSuppressed.Store(0)
	m.mouseSuppressed.Store(0)
	m.filterPanics.Store(0)

	ready := make(chan error, 1)
	go m.run(target, ready, done)
	return <-ready
}

func (m *Manager) run(target desktop.Handle, ready chan<- error, done chan struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(done)
	defer m.finish(done)

	reported := false
	defer func() {
		if r := recover(); r != nil {
			m.reportPanic("hook_thread", r)
			if !reported {
				m.finish(done)
				ready <- errors.New("hook: panic while installing filters")
			}
		}
	}()

	pair, err := installPair(m.backend, m.keyboardProc, m.mouseProc)
	if err != nil {
		m.logger.Error("failed to install input filters", "target", target.String(), "error", err)
		// Active must already be false when Launch returns the error.
		m.finish(done)
		reported = true
		ready <- err
		return
	}
	defer func() {
		if err := pair.release(); err != nil {
			m.logger.Error("failed to release input filters", "error", err)
			return
		}
		st := m.Stats()
		m.logger.Info("input filters released",
			"keys_suppressed", st.KeysSuppressed,
			"mouse_suppressed", st.MouseSuppressed,
			"filter_panics", st.FilterPanics,
		)
	}()

	m.logger.Info("input filters installed", "target", target.String())
	reported = true
	ready <- nil

	m.mu.Lock()
	stopping := m.stopping
	m.mu.Unlock()
	if stopping {
		return
	}
	if err := m.backend.Loop(); err != nil {
		m.logger.Error("message loop failed", "error", err)
	}
}

// finish marks the session owning done as no longer running. A later
// session started after a failed Launch is left alone.
func (m *Manager) finish(done chan struct{}) {
	m.mu.Lock()
	if m.done == done {
		m.running = false
	}
	m.mu.Unlock()
}

// keyboardProc fails open: a panic while classifying forwards the event.
func (m *Manager) keyboardProc(ev filter.KeyEvent) (v filter.Verdict) {
	defer func() {
		if r := recover(); r != nil {
			m.filterPanics.Add(1)
			m.reportPanic("keyboard_filter", r)
			v = filter.Pass
		}
	}()

	v = filter.Keyboard(ev)
	if v == filter.Suppress {
		m.keysSuppressed.Add(1)
	}
	return v
}

// mouseProc fails open like keyboardProc.
func (m *Manager) mouseProc(ev filter.MouseEvent) (v filter.Verdict) {
	defer func() {
		if r := recover(); r != nil {
			m.filterPanics.Add(1)
			m.reportPanic("mouse_filter", r)
			v = filter.Pass
		}
	}()

	target, ok := m.slot.Load()
	if !ok {
		return filter.Pass
	}
	v = filter.Mouse(ev, target, m.backend)
	if v == filter.Suppress {
		m.mouseSuppressed.Add(1)
	}
	return v
}

func (m *Manager) reportPanic(where string, r any) {
	if m.crash != nil {
		m.crash.HandlePanic(r, map[string]string{"where": where})
		return
	}
	m.logger.Error("recovered panic", "where", where, "panic", r)
}

// Active reports whether the filters are installed.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Done is closed when the current session's hook thread has released
// both filters. It is nil before the first Launch.
func (m *Manager) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// Stop ends the session and waits until both filters are released.
func (m *Manager) Stop() {
	m.mu.Lock()
	running, done := m.running, m.done
	if running && done != nil {
		m.stopping = true
		m.backend.Quit()
	}
	m.mu.Unlock()

	if !running || done == nil {
		return
	}
	<-done
}

// Stats returns the suppression counters of the current or last session.
func (m *Manager) Stats() Stats {
	return Stats{
		KeysSuppressed:  m.keysSuppressed.Load(),
		MouseSuppressed: m.mouseSuppressed.Load(),
		FilterPanics:    m.filterPanics.Load(),
	}
}

// NewBackend returns the backend for the current platform.
func NewBackend() Backend {
	return newPlatformBackend()
}
