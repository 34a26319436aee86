package hook

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ultrafocus/internal/desktop"
	"ultrafocus/internal/filter"
)

type fakeHook struct {
	name string
	b    *fakeBackend
}

func (h *fakeHook) Release() error {
	h.b.record("release " + h.name)
	return h.b.releaseErr
}

type fakeBackend struct {
	mu     sync.Mutex
	events []string

	keyboardErr   error
	mouseErr      error
	releaseErr    error
	panicOnMouse  bool
	panicOnLoop   bool
	panicOnHit    bool
	windowAtPoint desktop.Handle
	mouseGate     chan struct{}

	kp KeyboardProc
	mp MouseProc

	quit chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{quit: make(chan struct{}, 1)}
}

func (b *fakeBackend) record(ev string) {
	b.mu.Lock()
	b.events = append(b.events, ev)
	b.mu.Unlock()
}

func (b *fakeBackend) Events() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.events...)
}

func (b *fakeBackend) InstallKeyboard(proc KeyboardProc) (Hook, error) {
	b.record("install keyboard")
	select {
	case <-b.quit:
	default:
	}
	if b.keyboardErr != nil {
		return nil, b.keyboardErr
	}
	b.mu.Lock()
	b.kp = proc
	b.mu.Unlock()
	return &fakeHook{name: "keyboard", b: b}, nil
}

func (b *fakeBackend) InstallMouse(proc MouseProc) (Hook, error) {
	b.record("install mouse")
	if b.mouseGate != nil {
		<-b.mouseGate
	}
	if b.panicOnMouse {
		panic("mouse install exploded")
	}
	if b.mouseErr != nil {
		return nil, b.mouseErr
	}
	b.mu.Lock()
	b.mp = proc
	b.mu.Unlock()
	return &fakeHook{name: "mouse", b: b}, nil
}

func (b *fakeBackend) Loop() error {
	b.record("loop")
	if b.panicOnLoop {
		panic("loop exploded")
	}
	<-b.quit
	return nil
}

func (b *fakeBackend) Quit() {
	select {
	case b.quit <- struct{}{}:
	default:
	}
}

func (b *fakeBackend) WindowAt(desktop.Point) desktop.Handle {
	if b.panicOnHit {
		panic("hit test exploded")
	}
	return b.windowAtPoint
}

func (b *fakeBackend) procs() (KeyboardProc, MouseProc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.kp, b.mp
}

func newTestManager(b Backend, target desktop.Handle) (*Manager, *TargetSlot) {
	slot := &TargetSlot{}
	slot.Store(target)
	m := NewManager(b, slot)
	m.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return m, slot
}

func waitDone(t *testing.T, m *Manager) {
	t.Helper()
	select {
	case <-m.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("hook thread did not finish")
	}
}

func TestLaunchWithoutTarget(t *testing.T) {
	b := newFakeBackend()
	m, _ := newTestManager(b, 0)

	err := m.Launch()
	assert.ErrorIs(t, err, ErrNoTarget)
	assert.Empty(t, b.Events())
	assert.False(t, m.Active())
}

func TestLaunchAndStopReleasesInReverseOrder(t *testing.T) {
	b := newFakeBackend()
	m, _ := newTestManager(b, 0x1234)

	require.NoError(t, m.Launch())
	assert.True(t, m.Active())

	m.Stop()
	assert.False(t, m.Active())
	assert.Equal(t, []string{
		"install keyboard",
		"install mouse",
		"loop",
		"release mouse",
		"release keyboard",
	}, b.Events())
}

func TestLaunchTwice(t *testing.T) {
	b := newFakeBackend()
	m, _ := newTestManager(b, 0x1234)

	require.NoError(t, m.Launch())
	defer m.Stop()

	assert.ErrorIs(t, m.Launch(), ErrAlreadyRunning)
}

func TestRelaunchAfterStop(t *testing.T) {
	b := newFakeBackend()
	m, _ := newTestManager(b, 0x1234)

	require.NoError(t, m.Launch())
	m.Stop()
	require.NoError(t, m.Launch())
	m.Stop()

	assert.Len(t, b.Events(), 10)
}

func TestKeyboardInstallFailure(t *testing.T) {
	b := newFakeBackend()
	b.keyboardErr = errors.New("access denied")
	m, _ := newTestManager(b, 0x1234)

	err := m.Launch()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKeyboardInstall)
	assert.Contains(t, err.Error(), "access denied")

	waitDone(t, m)
	assert.False(t, m.Active())
	assert.Equal(t, []string{"install keyboard"}, b.Events())
}

func TestMouseInstallFailureReleasesKeyboardFirst(t *testing.T) {
	b := newFakeBackend()
	b.mouseErr = errors.New("quota exceeded")
	m, _ := newTestManager(b, 0x1234)

	err := m.Launch()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMouseInstall)

	// The keyboard release must already be visible when the failure is
	// reported to the caller.
	assert.Equal(t, []string{
		"install keyboard",
		"install mouse",
		"release keyboard",
	}, b.Events())

	waitDone(t, m)
	assert.False(t, m.Active())
}

func TestFailedLaunchIsInactiveBeforeReturn(t *testing.T) {
	b := newFakeBackend()
	m, _ := newTestManager(b, 0x1234)
	failure := errors.New("quota exceeded")

	for i := 0; i < 500; i++ {
		b.mouseErr = failure
		require.ErrorIs(t, m.Launch(), ErrMouseInstall)
		require.False(t, m.Active(), "iteration %d: active after failed launch", i)

		b.mouseErr = nil
		require.NoError(t, m.Launch(), "iteration %d: relaunch after failure", i)
		require.True(t, m.Active(), "iteration %d", i)
		m.Stop()
		require.False(t, m.Active(), "iteration %d", i)
	}
}

func TestStaleQuitDoesNotEndNextSession(t *testing.T) {
	b := newFakeBackend()
	m, _ := newTestManager(b, 0x1234)

	// Left over from a Stop that raced a failed install.
	b.Quit()

	require.NoError(t, m.Launch())
	select {
	case <-m.Done():
		t.Fatal("session ended without Stop")
	case <-time.After(50 * time.Millisecond):
	}
	assert.True(t, m.Active())

	m.Stop()
	assert.False(t, m.Active())
}

func TestStopWhileInstallingSkipsLoop(t *testing.T) {
	b := newFakeBackend()
	b.mouseGate = make(chan struct{})
	m, _ := newTestManager(b, 0x1234)

	launched := make(chan error, 1)
	go func() { launched <- m.Launch() }()

	require.Eventually(t, func() bool {
		for _, ev := range b.Events() {
			if ev == "install mouse" {
				return true
			}
		}
		return false
	}, 5*time.Second, time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		m.Stop()
		close(stopped)
	}()
	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.stopping
	}, 5*time.Second, time.Millisecond)

	close(b.mouseGate)
	require.NoError(t, <-launched)

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
	assert.Equal(t, []string{
		"install keyboard",
		"install mouse",
		"release mouse",
		"release keyboard",
	}, b.Events())
	assert.False(t, m.Active())
}

func TestMouseInstallPanicReleasesKeyboard(t *testing.T) {
	b := newFakeBackend()
	b.panicOnMouse = true
	m, _ := newTestManager(b, 0x1234)

	err := m.Launch()
	require.Error(t, err)

	waitDone(t, m)
	assert.Equal(t, []string{
		"install keyboard",
		"install mouse",
		"release keyboard",
	}, b.Events())
}

func TestLoopPanicStillReleasesBothFilters(t *testing.T) {
	b := newFakeBackend()
	b.panicOnLoop = true
	m, _ := newTestManager(b, 0x1234)

	require.NoError(t, m.Launch())
	waitDone(t, m)

	assert.False(t, m.Active())
	assert.Equal(t, []string{
		"install keyboard",
		"install mouse",
		"loop",
		"release mouse",
		"release keyboard",
	}, b.Events())
}

func TestStopWithoutLaunch(t *testing.T) {
	b := newFakeBackend()
	m, _ := newTestManager(b, 0x1234)

	m.Stop()
	assert.Nil(t, m.Done())
	assert.Empty(t, b.Events())
}

func TestKeyboardProcCountsSuppressions(t *testing.T) {
	b := newFakeBackend()
	m, _ := newTestManager(b, 0x1234)
	require.NoError(t, m.Launch())
	defer m.Stop()

	kp, _ := b.procs()
	require.NotNil(t, kp)

	assert.Equal(t, filter.Pass, kp(filter.KeyEvent{Code: desktop.VKA, Kind: filter.KeyPress}))
	assert.Equal(t, filter.Pass, kp(filter.KeyEvent{Code: desktop.VKLShift, Kind: filter.KeyPress}))
	assert.Equal(t, filter.Suppress, kp(filter.KeyEvent{Code: 0x5B, Kind: filter.KeyPress}))
	assert.Equal(t, filter.Suppress, kp(filter.KeyEvent{Code: 0x09, Kind: filter.KeySysPress}))

	assert.Equal(t, uint64(2), m.Stats().KeysSuppressed)
}

func TestMouseProcReadsTargetSlot(t *testing.T) {
	b := newFakeBackend()
	b.windowAtPoint = 0x1234
	m, slot := newTestManager(b, 0x1234)
	require.NoError(t, m.Launch())
	defer m.Stop()

	_, mp := b.procs()
	require.NotNil(t, mp)

	click := filter.MouseEvent{Kind: filter.MouseLeftDown, Pt: desktop.Point{X: 300, Y: 300}}
	assert.Equal(t, filter.Pass, mp(click))

	// Retargeting is visible to the running filter without reinstalling.
	slot.Store(0x9999)
	assert.Equal(t, filter.Suppress, mp(click))

	edge := filter.MouseEvent{Kind: filter.MouseMove, Pt: desktop.Point{X: 300, Y: 2}}
	assert.Equal(t, filter.Suppress, mp(edge))

	assert.Equal(t, uint64(2), m.Stats().MouseSuppressed)
}

func TestMouseProcFailsOpen(t *testing.T) {
	b := newFakeBackend()
	b.panicOnHit = true
	m, _ := newTestManager(b, 0x1234)
	require.NoError(t, m.Launch())
	defer m.Stop()

	_, mp := b.procs()
	click := filter.MouseEvent{Kind: filter.MouseRightDown, Pt: desktop.Point{X: 10, Y: 500}}

	assert.Equal(t, filter.Pass, mp(click))
	assert.Equal(t, uint64(1), m.Stats().FilterPanics)
	assert.Equal(t, uint64(0), m.Stats().MouseSuppressed)
}

func TestStatsResetOnLaunch(t *testing.T) {
	b := newFakeBackend()
	m, _ := newTestManager(b, 0x1234)

	require.NoError(t, m.Launch())
	kp, _ := b.procs()
	kp(filter.KeyEvent{Code: 0x1B, Kind: filter.KeyPress})
	m.Stop()
	assert.Equal(t, uint64(1), m.Stats().KeysSuppressed)

	require.NoError(t, m.Launch())
	defer m.Stop()
	assert.Equal(t, uint64(0), m.Stats().KeysSuppressed)
}
