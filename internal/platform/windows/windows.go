//go:build windows

package windows

import (
	"context"
	"strings"
	"syscall"
	"unsafe"

	"github.com/deskdriver/deskdriver/internal/model"
	"github.com/deskdriver/deskdriver/internal/platform"
)

var (
	user32                       = syscall.NewLazyDLL("user32.dll")
	procEnumWindows              = user32.NewProc("EnumWindows")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procGetWindowTextLengthW     = user32.NewProc("GetWindowTextLengthW")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procGetWindowRect            = user32.NewProc("GetWindowRect")
	procIsWindowVisible          = user32.NewProc("IsWindowVisible")
	procIsIconic                 = user32.NewProc("IsIconic")
	procGetWindowLongW           = user32.NewProc("GetWindowLongW")
	procGetForegroundWindow      = user32.NewProc("GetForegroundWindow")
	procSetForegroundWindow      = user32.NewProc("SetForegroundWindow")
	procShowWindow               = user32.NewProc("ShowWindow")
)

const (
	gwlExStyle     = ^uintptr(19) // -20
	wsExToolWindow = 0x00000080
	wsExAppWindow  = 0x00040000

	swRestore = 9
)

// topWindow describes one visible top-level window in z-order.
type topWindow struct {
	hwnd  uintptr
	pid   int32
	title string
	rect  winRect
}

// enumWindowsResult accumulates during one EnumWindows pass. Enumeration
// only runs on the engine worker, so a package var is safe. The callback
// is registered once because NewCallback slots are never released.
var enumWindowsResult []topWindow

var enumWindowsCallback = syscall.NewCallback(func(hwnd uintptr, _ uintptr) uintptr {
	if visible, _, _ := procIsWindowVisible.Call(hwnd); visible == 0 {
		return 1
	}
	exStyle, _, _ := procGetWindowLongW.Call(hwnd, gwlExStyle)
	if exStyle&wsExToolWindow != 0 && exStyle&wsExAppWindow == 0 {
		return 1
	}
	length, _, _ := procGetWindowTextLengthW.Call(hwnd)
	if length == 0 {
		return 1
	}
	buf := make([]uint16, length+1)
	procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), length+1)
	title := syscall.UTF16ToString(buf)
	if title == "" {
		return 1
	}
	var pid uint32
	procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	if pid == 0 {
		return 1
	}
	var rect winRect
	procGetWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&rect)))
	enumWindowsResult = append(enumWindowsResult, topWindow{hwnd: hwnd, pid: int32(pid), title: title, rect: rect})
	return 1
})

// listTopWindows enumerates visible, titled, non-tool top-level windows
// front to back. Must run on the engine worker.
func listTopWindows() []topWindow {
	enumWindowsResult = nil
	procEnumWindows.Call(enumWindowsCallback, 0)
	wins := enumWindowsResult
	enumWindowsResult = nil
	return wins
}

// mainWindowForPID returns the frontmost top-level window of a process,
// zero when it has none.
func mainWindowForPID(pid int32) uintptr {
	for _, w := range listTopWindows() {
		if w.pid == pid {
			return w.hwnd
		}
	}
	return 0
}

// raiseWindow restores and foregrounds a window.
func raiseWindow(hwnd uintptr) {
	if iconic, _, _ := procIsIconic.Call(hwnd); iconic != 0 {
		procShowWindow.Call(hwnd, swRestore)
	}
	procSetForegroundWindow.Call(hwnd)
}

func foregroundWindow() uintptr {
	hwnd, _, _ := procGetForegroundWindow.Call()
	return hwnd
}

// Windows lists top-level windows, all of them or one process's when pid
// is nonzero.
func (e *Engine) Windows(ctx context.Context, pid int32) ([]model.Window, error) {
	var out []model.Window
	err := e.do(ctx, func() error {
		focused := foregroundWindow()
		for _, w := range listTopWindows() {
			if pid != 0 && w.pid != pid {
				continue
			}
			app, _ := platform.ProcessName(w.pid)
			app = strings.TrimSuffix(app, ".exe")
			rect := rectToModel(w.rect)
			out = append(out, model.Window{
				App:     app,
				PID:     w.pid,
				Title:   w.title,
				Bounds:  &rect,
				Focused: w.hwnd == focused,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
