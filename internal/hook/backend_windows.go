//go:build windows

package hook

import (
	"sync"
	"sync/atomic"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"ultrafocus/internal/desktop"
	"ultrafocus/internal/filter"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procWindowFromPoint     = user32.NewProc("WindowFromPoint")
	procGetAncestor         = user32.NewProc("GetAncestor")
)

const (
	whKeyboardLL = 13
	whMouseLL    = 14
	wmQuit       = 0x0012
	gaRoot       = 2
)

type kbdllHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type msllHookStruct struct {
	Pt          struct{ X, Y int32 }
	MouseData   uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

// The OS calls the shims with a fixed signature and no closure state, so
// they are created once and find the active procs through these cells.
var (
	keyboardTarget atomic.Pointer[KeyboardProc]
	mouseTarget    atomic.Pointer[MouseProc]

	keyboardShim = syscall.NewCallback(lowLevelKeyboardProc)
	mouseShim    = syscall.NewCallback(lowLevelMouseProc)
)

func lowLevelKeyboardProc(nCode, wParam, lParam uintptr) uintptr {
	if int32(nCode) == hcAction {
		var proc KeyboardProc
		if p := keyboardTarget.Load(); p != nil {
			proc = *p
		}
		kb := (*kbdllHookStruct)(unsafe.Pointer(lParam))
		ev := filter.KeyEvent{Code: desktop.VirtualKey(kb.VkCode), Extra: kb.DwExtraInfo}
		if decideKeyboard(int32(nCode), uint32(wParam), ev, proc) == filter.Suppress {
			return 1
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
	return ret
}

func lowLevelMouseProc(nCode, wParam, lParam uintptr) uintptr {
	if int32(nCode) == hcAction {
		var proc MouseProc
		if p := mouseTarget.Load(); p != nil {
			proc = *p
		}
		ms := (*msllHookStruct)(unsafe.Pointer(lParam))
		ev := filter.MouseEvent{Pt: desktop.Point{X: ms.Pt.X, Y: ms.Pt.Y}}
		if decideMouse(int32(nCode), uint32(wParam), ev, proc) == filter.Suppress {
			return 1
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
	return ret
}

type win32Hook struct {
	handle uintptr
	clear  func()
	once   sync.Once
	err    error
}

func (h *win32Hook) Release() error {
	h.once.Do(func() {
		ret, _, err := procUnhookWindowsHookEx.Call(h.handle)
		h.clear()
		if ret == 0 {
			h.err = errors.Wrap(err, "UnhookWindowsHookEx")
		}
	})
	return h.err
}

type win32Backend struct {
	mu       sync.Mutex
	threadID uint32
	looping  bool
	quit     bool
}

func newPlatformBackend() Backend {
	return &win32Backend{}
}

func (b *win32Backend) InstallKeyboard(proc KeyboardProc) (Hook, error) {
	b.mu.Lock()
	b.quit = false
	b.mu.Unlock()

	keyboardTarget.Store(&proc)
	h, err := install(whKeyboardLL, keyboardShim)
	if err != nil {
		keyboardTarget.Store(nil)
		return nil, err
	}
	return &win32Hook{handle: h, clear: func() { keyboardTarget.Store(nil) }}, nil
}

func (b *win32Backend) InstallMouse(proc MouseProc) (Hook, error) {
	mouseTarget.Store(&proc)
	h, err := install(whMouseLL, mouseShim)
	if err != nil {
		mouseTarget.Store(nil)
		return nil, err
	}
	return &win32Hook{handle: h, clear: func() { mouseTarget.Store(nil) }}, nil
}

func install(id, shim uintptr) (uintptr, error) {
	var module windows.Handle
	if err := windows.GetModuleHandleEx(0, nil, &module); err != nil {
		return 0, errors.Wrap(err, "GetModuleHandleEx")
	}
	h, _, err := procSetWindowsHookExW.Call(id, shim, uintptr(module), 0)
	if h == 0 {
		return 0, errors.Wrapf(err, "SetWindowsHookExW(%d)", id)
	}
	return h, nil
}

func (b *win32Backend) Loop() error {
	b.mu.Lock()
	if b.quit {
		b.quit = false
		b.mu.Unlock()
		return nil
	}
	b.threadID = windows.GetCurrentThreadId()
	b.looping = true
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.looping = false
		b.threadID = 0
		b.mu.Unlock()
	}()

	var msg win.MSG
	for {
		switch win.GetMessage(&msg, 0, 0, 0) {
		case 0:
			return nil
		case -1:
			if err := windows.GetLastError(); err != nil {
				return errors.Wrap(err, "GetMessageW")
			}
			return errors.New("GetMessageW failed")
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}
}

func (b *win32Backend) Quit() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.looping {
		b.quit = true
		return
	}
	procPostThreadMessageW.Call(uintptr(b.threadID), wmQuit, 0, 0)
}

// WindowAt resolves the top-level window under pt. WindowFromPoint returns
// the deepest child, so it is walked up to the root to compare against
// the top-level target.
func (b *win32Backend) WindowAt(pt desktop.Point) desktop.Handle {
	var hwnd uintptr
	if unsafe.Sizeof(uintptr(0)) == 8 {
		hwnd, _, _ = procWindowFromPoint.Call(uintptr(uint32(pt.X)) | uintptr(uint32(pt.Y))<<32)
	} else {
		hwnd, _, _ = procWindowFromPoint.Call(uintptr(uint32(pt.X)), uintptr(uint32(pt.Y)))
	}
	if hwnd == 0 {
		return 0
	}
	if root, _, _ := procGetAncestor.Call(hwnd, gaRoot); root != 0 {
		return desktop.Handle(root)
	}
	return desktop.Handle(hwnd)
}
