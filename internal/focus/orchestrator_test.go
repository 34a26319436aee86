package focus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ultrafocus/internal/desktop"
	"ultrafocus/internal/hook"
)

var (
	screen = desktop.Rect{Left: 0, Top: 0, Right: 1920, Bottom: 1080}
	framed = desktop.Rect{Left: 100, Top: 80, Right: 1400, Bottom: 900}
)

type fakeWindows struct {
	mu sync.Mutex

	windows    []desktop.WindowDescriptor
	enumErr    error
	bounds     desktop.Rect
	boundsErr  error
	monitor    desktop.Rect
	monitorErr error
	minErr     map[desktop.Handle]error

	calls      []string
	minimized  []desktop.Handle
	foreground []desktop.Handle
	keys       []desktop.VirtualKey
}

func (f *fakeWindows) record(c string) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *fakeWindows) Windows() ([]desktop.WindowDescriptor, error) {
	f.record("windows")
	return f.windows, f.enumErr
}

func (f *fakeWindows) WindowBounds(desktop.Handle) (desktop.Rect, error) {
	f.record("bounds")
	return f.bounds, f.boundsErr
}

func (f *fakeWindows) MonitorBounds(desktop.Handle) (desktop.Rect, error) {
	f.record("monitor")
	return f.monitor, f.monitorErr
}

func (f *fakeWindows) Minimize(h desktop.Handle) error {
	f.record("minimize")
	f.mu.Lock()
	f.minimized = append(f.minimized, h)
	f.mu.Unlock()
	return f.minErr[h]
}

func (f *fakeWindows) Foreground(h desktop.Handle) error {
	f.record("foreground")
	f.mu.Lock()
	f.foreground = append(f.foreground, h)
	f.mu.Unlock()
	return nil
}

func (f *fakeWindows) TapKey(vk desktop.VirtualKey) error {
	f.record("tap")
	f.mu.Lock()
	f.keys = append(f.keys, vk)
	f.mu.Unlock()
	return nil
}

type fakeLauncher struct {
	slot     *hook.TargetSlot
	err      error
	active   bool
	launches []desktop.Handle
}

func (l *fakeLauncher) Launch() error {
	h, ok := l.slot.Load()
	if !ok {
		return hook.ErrNoTarget
	}
	l.launches = append(l.launches, h)
	if l.err != nil {
		return l.err
	}
	l.active = true
	return nil
}

func (l *fakeLauncher) Active() bool {
	return l.active
}

func desktopWith(extra ...desktop.WindowDescriptor) []desktop.WindowDescriptor {
	ws := []desktop.WindowDescriptor{
		{Handle: 0x10, Title: "UltraFocusLeetCode"},
		{Handle: 0x20, Title: "Inbox - Mail"},
		{Handle: 0x30, Title: "Two Sum - LeetCode - Browser"},
		{Handle: 0x40, Title: "Terminal"},
	}
	return append(ws, extra...)
}

func newTestOrchestrator(ws *fakeWindows) (*Orchestrator, *fakeLauncher, *hook.TargetSlot) {
	slot := &hook.TargetSlot{}
	l := &fakeLauncher{slot: slot}
	o := New(ws, l, slot, NewChannel(), nil)
	o.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return o, l, slot
}

func TestNoQualifyingWindow(t *testing.T) {
	ws := &fakeWindows{
		windows: []desktop.WindowDescriptor{
			{Handle: 0x10, Title: "UltraFocusLeetCode"},
			{Handle: 0x20, Title: "Inbox - Mail"},
		},
		bounds:  framed,
		monitor: screen,
	}
	o, l, slot := newTestOrchestrator(ws)

	res := o.Handle(Request{})

	assert.Equal(t, Error, res.Kind)
	assert.Equal(t, "Could not find a window with LeetCode in the title", res.Text)
	assert.Equal(t, []string{"windows"}, ws.calls)
	assert.Empty(t, l.launches)
	_, set := slot.Load()
	assert.False(t, set)
	assert.Equal(t, Idle, o.State())
}

func TestSelfWindowNeverTargeted(t *testing.T) {
	// Our own title contains the marker too.
	ws := &fakeWindows{
		windows: []desktop.WindowDescriptor{{Handle: 0x10, Title: "UltraFocusLeetCode"}},
	}
	o, l, _ := newTestOrchestrator(ws)

	res := o.Handle(Request{})
	assert.False(t, res.OK())
	assert.Empty(t, l.launches)
}

func TestEnumerationFailure(t *testing.T) {
	ws := &fakeWindows{enumErr: errors.New("desktop locked")}
	o, l, _ := newTestOrchestrator(ws)

	res := o.Handle(Request{})
	assert.Equal(t, Error, res.Kind)
	assert.Contains(t, res.Text, "desktop locked")
	assert.Equal(t, []string{"windows"}, ws.calls)
	assert.Empty(t, l.launches)
}

func TestSuccessfulSession(t *testing.T) {
	ws := &fakeWindows{windows: desktopWith(), bounds: framed, monitor: screen}
	o, l, slot := newTestOrchestrator(ws)

	var states []State
	o.OnStateChange(func(s State) { states = append(states, s) })

	res := o.Handle(Request{Issued: time.Now()})

	require.True(t, res.OK(), res.Text)
	assert.Equal(t, "Focusing Two Sum - LeetCode - Browser", res.Text)
	assert.NotEmpty(t, res.SessionID)

	assert.ElementsMatch(t, []desktop.Handle{0x20, 0x40}, ws.minimized)
	assert.Equal(t, []desktop.Handle{0x30}, ws.foreground)
	assert.Equal(t, []desktop.VirtualKey{desktop.VKF11}, ws.keys)

	h, _ := slot.Load()
	assert.Equal(t, desktop.Handle(0x30), h)
	assert.Equal(t, []desktop.Handle{0x30}, l.launches)

	assert.Equal(t, []State{
		Enumerating, Found, Demoting, Promoting, FullscreenCheck, HookHandoff, Active, Idle,
	}, states)
	assert.Equal(t, Idle, o.State())
	assert.True(t, l.Active(), "the session stays active after the orchestrator returns to idle")
}

func TestDemotesExactlyTheOthers(t *testing.T) {
	for n := 0; n < 6; n++ {
		windows := []desktop.WindowDescriptor{
			{Handle: 0x1, Title: "UltraFocusLeetCode"},
			{Handle: 0x2, Title: "LeetCode"},
		}
		var others []desktop.Handle
		for i := 0; i < n; i++ {
			h := desktop.Handle(0x100 + i)
			windows = append(windows, desktop.WindowDescriptor{Handle: h, Title: "other"})
			others = append(others, h)
		}
		ws := &fakeWindows{windows: windows, bounds: screen, monitor: screen}
		o, _, _ := newTestOrchestrator(ws)

		res := o.Handle(Request{})
		require.True(t, res.OK())
		assert.ElementsMatch(t, others, ws.minimized, "n=%d", n)
		assert.NotContains(t, ws.minimized, desktop.Handle(0x1))
		assert.NotContains(t, ws.minimized, desktop.Handle(0x2))
	}
}

func TestDemoteIsBestEffort(t *testing.T) {
	ws := &fakeWindows{
		windows: desktopWith(),
		bounds:  screen,
		monitor: screen,
		minErr:  map[desktop.Handle]error{0x20: errors.New("access denied")},
	}
	o, l, _ := newTestOrchestrator(ws)

	res := o.Handle(Request{})
	assert.True(t, res.OK())
	assert.ElementsMatch(t, []desktop.Handle{0x20, 0x40}, ws.minimized)
	assert.Len(t, l.launches, 1)
}

func TestFirstMatchWins(t *testing.T) {
	ws := &fakeWindows{
		windows: desktopWith(desktop.WindowDescriptor{Handle: 0x50, Title: "Contest - LeetCode"}),
		bounds:  screen,
		monitor: screen,
	}
	o, _, slot := newTestOrchestrator(ws)

	require.True(t, o.Handle(Request{}).OK())
	h, _ := slot.Load()
	assert.Equal(t, desktop.Handle(0x30), h)
	assert.Contains(t, ws.minimized, desktop.Handle(0x50))
}

func TestFullscreenCheck(t *testing.T) {
	tests := []struct {
		name       string
		bounds     desktop.Rect
		boundsErr  error
		monitor    desktop.Rect
		monitorErr error
		wantTaps   int
	}{
		{name: "already full screen", bounds: screen, monitor: screen, wantTaps: 0},
		{name: "windowed", bounds: framed, monitor: screen, wantTaps: 1},
		{name: "one pixel off", bounds: desktop.Rect{Right: 1920, Bottom: 1079}, monitor: screen, wantTaps: 1},
		{name: "bounds query fails", boundsErr: errors.New("gone"), monitor: screen, wantTaps: 0},
		{name: "monitor query fails", bounds: framed, monitorErr: errors.New("no monitor"), wantTaps: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := &fakeWindows{
				windows:    desktopWith(),
				bounds:     tt.bounds,
				boundsErr:  tt.boundsErr,
				monitor:    tt.monitor,
				monitorErr: tt.monitorErr,
			}
			o, _, _ := newTestOrchestrator(ws)

			require.True(t, o.Handle(Request{}).OK())
			assert.Len(t, ws.keys, tt.wantTaps)
		})
	}
}

func TestSettingsDisableDemoteAndFullscreen(t *testing.T) {
	ws := &fakeWindows{windows: desktopWith(), bounds: framed, monitor: screen}
	slot := &hook.TargetSlot{}
	l := &fakeLauncher{slot: slot}
	o := New(ws, l, slot, NewChannel(), func() Settings {
		s := DefaultSettings()
		s.MinimizeOthers = false
		s.Fullscreen = false
		return s
	})
	o.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.True(t, o.Handle(Request{}).OK())
	assert.Empty(t, ws.minimized)
	assert.Empty(t, ws.keys)
	assert.Equal(t, []string{"windows", "foreground"}, ws.calls)
}

func TestCustomMarker(t *testing.T) {
	ws := &fakeWindows{windows: desktopWith(), bounds: screen, monitor: screen}
	slot := &hook.TargetSlot{}
	l := &fakeLauncher{slot: slot}
	o := New(ws, l, slot, NewChannel(), func() Settings {
		s := DefaultSettings()
		s.Marker = "Terminal"
		return s
	})
	o.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	res := o.Handle(Request{})
	require.True(t, res.OK())
	assert.Equal(t, "Focusing Terminal", res.Text)
	assert.Equal(t, []desktop.Handle{0x40}, l.launches)
}

func TestLaunchFailureSurfacesError(t *testing.T) {
	ws := &fakeWindows{windows: desktopWith(), bounds: screen, monitor: screen}
	o, l, _ := newTestOrchestrator(ws)
	l.err = hook.ErrMouseInstall

	res := o.Handle(Request{})
	assert.Equal(t, Error, res.Kind)
	assert.Contains(t, res.Text, "mouse filter not installed")
	assert.Equal(t, Idle, o.State())
}

func TestRetargetWhileActive(t *testing.T) {
	ws := &fakeWindows{windows: desktopWith(), bounds: screen, monitor: screen}
	o, l, slot := newTestOrchestrator(ws)
	require.True(t, o.Handle(Request{}).OK())

	ws.windows = []desktop.WindowDescriptor{
		{Handle: 0x10, Title: "UltraFocusLeetCode"},
		{Handle: 0x60, Title: "Daily Challenge - LeetCode"},
	}
	res := o.Handle(Request{})

	require.True(t, res.OK())
	h, _ := slot.Load()
	assert.Equal(t, desktop.Handle(0x60), h)
	assert.Len(t, l.launches, 1, "a second filter pair must not be installed")
}

func TestRunPublishesOneResultPerRequest(t *testing.T) {
	ws := &fakeWindows{windows: desktopWith(), bounds: screen, monitor: screen}
	ch := NewChannel()
	slot := &hook.TargetSlot{}
	o := New(ws, &fakeLauncher{slot: slot}, slot, ch, nil)
	o.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	ch.RequestFocus()
	ch.RequestFocus()

	wait, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	for i := 0; i < 2; i++ {
		res, err := ch.WaitResult(wait)
		require.NoError(t, err)
		assert.True(t, res.OK())
	}
	_, more := ch.PollResult()
	assert.False(t, more)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "fullscreen_check", FullscreenCheck.String())
	assert.Equal(t, "active", Active.String())
	assert.Equal(t, "unknown", State(99).String())
}
