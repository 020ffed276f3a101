//go:build windows

package windows

import (
	"context"
	"runtime"
	"syscall"
	"time"
	"unicode/utf16"
	"unsafe"

	"github.com/deskdriver/deskdriver/internal/platform"
)

var (
	kernel32 = syscall.NewLazyDLL("kernel32.dll")

	procOpenClipboard              = user32.NewProc("OpenClipboard")
	procCloseClipboard             = user32.NewProc("CloseClipboard")
	procEmptyClipboard             = user32.NewProc("EmptyClipboard")
	procGetClipboardData           = user32.NewProc("GetClipboardData")
	procSetClipboardData           = user32.NewProc("SetClipboardData")
	procIsClipboardFormatAvailable = user32.NewProc("IsClipboardFormatAvailable")

	procGlobalAlloc  = kernel32.NewProc("GlobalAlloc")
	procGlobalFree   = kernel32.NewProc("GlobalFree")
	procGlobalLock   = kernel32.NewProc("GlobalLock")
	procGlobalUnlock = kernel32.NewProc("GlobalUnlock")
)

const (
	cfUnicodeText = 13
	gmemMoveable  = 0x0002

	clipboardOpenRetry = 10 * time.Millisecond
)

// Clipboard accesses the Windows clipboard through user32. Another process
// may hold the clipboard open at any moment, so opening retries briefly.
type Clipboard struct{}

func NewClipboard() *Clipboard {
	return &Clipboard{}
}

// withOpen runs fn with the clipboard open. OpenClipboard and CloseClipboard
// must pair on one OS thread, so the goroutine is pinned for the duration.
func (c *Clipboard) withOpen(ctx context.Context, fn func() error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		ok, _, _ := procOpenClipboard.Call(0)
		if ok != 0 {
			break
		}
		select {
		case <-ctx.Done():
			return platform.TimeoutError("clipboard is held by another process").WithCause(ctx.Err())
		case <-time.After(clipboardOpenRetry):
		}
	}
	defer procCloseClipboard.Call()
	return fn()
}

// GetText reads the current text content from the system clipboard.
// An empty or non-text clipboard reads as the empty string.
func (c *Clipboard) GetText(ctx context.Context) (string, error) {
	var text string
	err := c.withOpen(ctx, func() error {
		if avail, _, _ := procIsClipboardFormatAvailable.Call(cfUnicodeText); avail == 0 {
			return nil
		}
		handle, _, lastErr := procGetClipboardData.Call(cfUnicodeText)
		if handle == 0 {
			return platform.PlatformError("read clipboard", lastErr)
		}
		ptr, _, lastErr := procGlobalLock.Call(handle)
		if ptr == 0 {
			return platform.PlatformError("lock clipboard data", lastErr)
		}
		defer procGlobalUnlock.Call(handle)

		var n int
		for p := (*uint16)(unsafe.Pointer(ptr)); *p != 0; p = (*uint16)(unsafe.Add(unsafe.Pointer(p), 2)) {
			n++
		}
		text = string(utf16.Decode(unsafe.Slice((*uint16)(unsafe.Pointer(ptr)), n)))
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// SetText writes text to the system clipboard.
func (c *Clipboard) SetText(ctx context.Context, text string) error {
	units, err := syscall.UTF16FromString(text)
	if err != nil {
		return platform.InvalidArgument("clipboard text must not contain NUL characters")
	}
	return c.withOpen(ctx, func() error {
		handle, _, lastErr := procGlobalAlloc.Call(gmemMoveable, uintptr(len(units)*2))
		if handle == 0 {
			return platform.PlatformError("allocate clipboard buffer", lastErr)
		}
		ptr, _, lastErr := procGlobalLock.Call(handle)
		if ptr == 0 {
			procGlobalFree.Call(handle)
			return platform.PlatformError("lock clipboard buffer", lastErr)
		}
		copy(unsafe.Slice((*uint16)(unsafe.Pointer(ptr)), len(units)), units)
		procGlobalUnlock.Call(handle)

		procEmptyClipboard.Call()
		// on success the system owns the buffer
		if ok, _, lastErr := procSetClipboardData.Call(cfUnicodeText, handle); ok == 0 {
			procGlobalFree.Call(handle)
			return platform.PlatformError("write clipboard", lastErr)
		}
		return nil
	})
}

// Clear empties the system clipboard.
func (c *Clipboard) Clear(ctx context.Context) error {
	return c.withOpen(ctx, func() error {
		if ok, _, lastErr := procEmptyClipboard.Call(); ok == 0 {
			return platform.PlatformError("clear clipboard", lastErr)
		}
		return nil
	})
}
