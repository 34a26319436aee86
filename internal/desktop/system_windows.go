//go:build windows

package desktop

import (
	"log/slog"
	"sync"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

var (
	user32                   = windows.NewLazySystemDLL("user32.dll")
	procEnumWindows          = user32.NewProc("EnumWindows")
	procGetWindowTextW       = user32.NewProc("GetWindowTextW")
	procGetWindowTextLengthW = user32.NewProc("GetWindowTextLengthW")
	procKeybdEvent           = user32.NewProc("keybd_event")
)

const (
	scMinimize     = 0xF020
	keyeventfKeyUp = 0x0002
)

// enumContext accumulates windows for one EnumWindows call. The callback
// never sees a Go pointer: it receives a token and looks the context up.
type enumContext struct {
	windows []WindowDescriptor
}

var (
	enumMu    sync.Mutex
	enumSeq   uintptr
	enumTable = make(map[uintptr]*enumContext)

	enumCallback = syscall.NewCallback(enumWindowsProc)
)

func registerEnum(ctx *enumContext) uintptr {
	enumMu.Lock()
	defer enumMu.Unlock()
	enumSeq++
	enumTable[enumSeq] = ctx
	return enumSeq
}

func releaseEnum(token uintptr) {
	enumMu.Lock()
	delete(enumTable, token)
	enumMu.Unlock()
}

func lookupEnum(token uintptr) *enumContext {
	enumMu.Lock()
	defer enumMu.Unlock()
	return enumTable[token]
}

func enumWindowsProc(hwnd windows.HWND, token uintptr) uintptr {
	ctx := lookupEnum(token)
	if ctx == nil {
		return 0
	}
	if !windows.IsWindowVisible(hwnd) {
		return 1
	}
	title := windowText(hwnd)
	if title == "" {
		return 1
	}
	ctx.windows = append(ctx.windows, WindowDescriptor{Handle: Handle(hwnd), Title: title})
	return 1
}

func windowText(hwnd windows.HWND) string {
	length, _, _ := procGetWindowTextLengthW.Call(uintptr(hwnd))
	if length == 0 {
		return ""
	}
	buf := make([]uint16, length+1)
	n, _, _ := procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), length+1)
	if n == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:n])
}

type win32System struct {
	logger *slog.Logger
}

func newPlatformSystem() WindowSystem {
	return &win32System{
		logger: slog.Default().With("component", "desktop_windows"),
	}
}

func (s *win32System) Windows() ([]WindowDescriptor, error) {
	ctx := &enumContext{}
	token := registerEnum(ctx)
	defer releaseEnum(token)

	ret, _, err := procEnumWindows.Call(enumCallback, token)
	if ret == 0 {
		return nil, errors.Wrap(err, "EnumWindows")
	}
	s.logger.Debug("enumerated windows", "count", len(ctx.windows))
	return ctx.windows, nil
}

func (s *win32System) WindowBounds(h Handle) (Rect, error) {
	var r win.RECT
	if !win.GetWindowRect(win.HWND(h), &r) {
		return Rect{}, lastError("GetWindowRect %s", h)
	}
	return rectFromWin(r), nil
}

func (s *win32System) MonitorBounds(h Handle) (Rect, error) {
	mon := win.MonitorFromWindow(win.HWND(h), win.MONITOR_DEFAULTTOPRIMARY)
	if mon == 0 {
		return Rect{}, errors.Errorf("MonitorFromWindow %s: no monitor", h)
	}
	var mi win.MONITORINFO
	mi.CbSize = uint32(unsafe.Sizeof(mi))
	if !win.GetMonitorInfo(mon, &mi) {
		return Rect{}, lastError("GetMonitorInfo %s", h)
	}
	return rectFromWin(mi.RcMonitor), nil
}

func (s *win32System) Minimize(h Handle) error {
	if win.PostMessage(win.HWND(h), win.WM_SYSCOMMAND, scMinimize, 0) == 0 {
		return lastError("PostMessage WM_SYSCOMMAND %s", h)
	}
	return nil
}

func (s *win32System) Foreground(h Handle) error {
	if !win.SetForegroundWindow(win.HWND(h)) {
		return errors.Errorf("SetForegroundWindow %s refused", h)
	}
	return nil
}

// TapKey sends a key-down and a key-up. keybd_event reports nothing, so
// delivery cannot be confirmed.
func (s *win32System) TapKey(vk VirtualKey) error {
	procKeybdEvent.Call(uintptr(vk), 0, 0, SyntheticKeyTag)
	procKeybdEvent.Call(uintptr(vk), 0, keyeventfKeyUp, SyntheticKeyTag)
	s.logger.Debug("sent key", "vk", uint32(vk))
	return nil
}

// lastError wraps GetLastError, which may be nil after a failed call that
// did not set it.
func lastError(format string, args ...any) error {
	if err := windows.GetLastError(); err != nil {
		return errors.Wrapf(err, format, args...)
	}
	return errors.Errorf(format+" failed", args...)
}

func rectFromWin(r win.RECT) Rect {
	return Rect{Left: r.Left, Top: r.Top, Right: r.Right, Bottom: r.Bottom}
}

// IsElevated reports whether the process runs with an elevated token.
// Low-level hooks do not see input aimed at elevated windows otherwise.
func IsElevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}
