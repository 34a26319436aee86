// Package focus turns a "begin focus session" request into an active
// session: it locates the target window, clears the desktop around it and
// hands it to the input-filter hook manager.
//
// The orchestrator runs on its own goroutine. It blocks only while waiting
// for the next request; each request is handled synchronously to a single
// Result, which is published back on the Channel.
package focus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"ultrafocus/internal/desktop"
	"ultrafocus/internal/hook"
)

// Launcher starts the input filters for whatever window the target slot
// holds. *hook.Manager implements it.
type Launcher interface {
	Launch() error
	Active() bool
}

// Settings are read at the start of every request, so edits take effect on
// the next session start.
type Settings struct {
	Marker         string
	SelfTitle      string
	Fullscreen     bool
	MinimizeOthers bool
}

// DefaultSettings targets a browser tab with "LeetCode" in its title.
func DefaultSettings() Settings {
	return Settings{
		Marker:         "LeetCode",
		SelfTitle:      "UltraFocusLeetCode",
		Fullscreen:     true,
		MinimizeOthers: true,
	}
}

// Orchestrator is the focus-session state machine.
type Orchestrator struct {
	ws       desktop.WindowSystem
	launcher Launcher
	slot     *hook.TargetSlot
	ch       *Channel
	settings func() Settings
	logger   *slog.Logger

	mu       sync.Mutex
	state    State
	onChange func(State)
}

// New creates an Orchestrator. settings may be nil, in which case
// DefaultSettings is used for every request.
func New(ws desktop.WindowSystem, launcher Launcher, slot *hook.TargetSlot, ch *Channel, settings func() Settings) *Orchestrator {
	if settings == nil {
		settings = DefaultSettings
	}
	return &Orchestrator{
		ws:       ws,
		launcher: launcher,
		slot:     slot,
		ch:       ch,
		settings: settings,
		logger:   slog.Default().With("component", "focus"),
	}
}

// SetLogger replaces the orchestrator's logger.
func (o *Orchestrator) SetLogger(l *slog.Logger) {
	o.logger = l
}

// OnStateChange registers fn to be called on every transition.
func (o *Orchestrator) OnStateChange(fn func(State)) {
	o.mu.Lock()
	o.onChange = fn
	o.mu.Unlock()
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	fn := o.onChange
	o.mu.Unlock()

	if fn != nil {
		fn(s)
	}
}

// Run handles requests until ctx is done.
func (o *Orchestrator) Run(ctx context.Context) error {
	for {
		req, err := o.ch.nextRequest(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		o.ch.publish(o.Handle(req))
	}
}

// Handle runs the state machine for one request and returns its Result.
func (o *Orchestrator) Handle(req Request) Result {
	sessionID := uuid.NewString()
	log := o.logger.With("session_id", sessionID)
	cfg := o.settings()

	fail := func(text string) Result {
		o.setState(Idle)
		return Result{Kind: Error, Text: text, SessionID: sessionID}
	}

	log.Debug("focus requested", "issued", req.Issued, "marker", cfg.Marker)

	o.setState(Enumerating)
	windows, err := o.ws.Windows()
	if err != nil {
		log.Error("window enumeration failed", "error", err)
		return fail(fmt.Sprintf("Could not list windows: %v", err))
	}

	target, ok := selectTarget(windows, cfg.Marker, cfg.SelfTitle)
	if !ok {
		o.setState(NotFound)
		log.Info("no target window", "marker", cfg.Marker, "candidates", len(windows))
		return fail(fmt.Sprintf("Could not find a window with %s in the title", cfg.Marker))
	}
	o.setState(Found)
	log.Info("target window found", "hwnd", target.Handle.String(), "title", target.Title)

	if cfg.MinimizeOthers {
		o.setState(Demoting)
		o.demote(log, windows, target, cfg.SelfTitle)
	}

	o.setState(Promoting)
	if err := o.ws.Foreground(target.Handle); err != nil {
		log.Warn("failed to bring target to foreground", "hwnd", target.Handle.String(), "error", err)
	}

	if cfg.Fullscreen {
		o.setState(FullscreenCheck)
		if !o.isFullscreen(log, target.Handle) {
			if err := o.ws.TapKey(desktop.VKF11); err != nil {
				log.Warn("failed to send full-screen toggle", "error", err)
			}
		}
	}

	o.setState(HookHandoff)
	o.slot.Store(target.Handle)
	if o.launcher.Active() {
		log.Info("retargeted active session", "hwnd", target.Handle.String())
	} else if err := o.launcher.Launch(); err != nil {
		log.Error("failed to start input filters", "error", err)
		return fail(fmt.Sprintf("Could not start focus mode: %v", err))
	}

	// Active belongs to the session now running in the launcher; the
	// orchestrator itself is ready for the next request.
	o.setState(Active)
	o.setState(Idle)
	return Result{Kind: Success, Text: "Focusing " + target.Title, SessionID: sessionID}
}

// selectTarget picks the first window whose title contains marker and is
// not the application's own window.
func selectTarget(windows []desktop.WindowDescriptor, marker, selfTitle string) (desktop.WindowDescriptor, bool) {
	for _, w := range windows {
		if w.Title != selfTitle && strings.Contains(w.Title, marker) {
			return w, true
		}
	}
	return desktop.WindowDescriptor{}, false
}

// demote minimizes every window except the target and our own. Failures
// are logged and skipped.
func (o *Orchestrator) demote(log *slog.Logger, windows []desktop.WindowDescriptor, target desktop.WindowDescriptor, selfTitle string) {
	minimized := 0
	for _, w := range windows {
		if w.Handle == target.Handle || w.Title == selfTitle {
			continue
		}
		if err := o.ws.Minimize(w.Handle); err != nil {
			log.Debug("minimize failed", "hwnd", w.Handle.String(), "error", err)
			continue
		}
		minimized++
	}
	log.Debug("demoted windows", "minimized", minimized)
}

// isFullscreen reports whether h already covers its monitor. If either
// query fails the window is assumed to be full screen so no toggle is sent.
func (o *Orchestrator) isFullscreen(log *slog.Logger, h desktop.Handle) bool {
	win, err := o.ws.WindowBounds(h)
	if err != nil {
		log.Warn("window bounds unavailable, skipping full-screen toggle", "error", err)
		return true
	}
	mon, err := o.ws.MonitorBounds(h)
	if err != nil {
		log.Warn("monitor bounds unavailable, skipping full-screen toggle", "error", err)
		return true
	}
	return win.Equal(mon)
}
