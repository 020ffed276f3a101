//go:build windows

package windows

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf16"
	"unsafe"

	"github.com/deskdriver/deskdriver/internal/platform"
)

var (
	procSendInput    = user32.NewProc("SendInput")
	procSetCursorPos = user32.NewProc("SetCursorPos")
	procGetCursorPos = user32.NewProc("GetCursorPos")
)

const (
	inputMouse    = 0
	inputKeyboard = 1

	mouseLeftDown   = 0x0002
	mouseLeftUp     = 0x0004
	mouseRightDown  = 0x0008
	mouseRightUp    = 0x0010
	mouseMiddleDown = 0x0020
	mouseMiddleUp   = 0x0040
	mouseWheel      = 0x0800
	mouseHWheel     = 0x1000

	keyEventUp      = 0x0002
	keyEventUnicode = 0x0004

	wheelDelta = 120
)

// mouseInput mirrors MOUSEINPUT; it is also the largest member of the
// INPUT union, so the keyboard variant is overlaid on it.
type mouseInput struct {
	Dx        int32
	Dy        int32
	MouseData uint32
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

type keybdInput struct {
	Vk        uint16
	Scan      uint16
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

type winInput struct {
	Type uint32
	_    [4]byte // union alignment
	mi   mouseInput
}

func mouseEvent(flags, data uint32) winInput {
	return winInput{Type: inputMouse, mi: mouseInput{MouseData: data, Flags: flags}}
}

func keyEvent(vk, scan uint16, flags uint32) winInput {
	in := winInput{Type: inputKeyboard}
	ki := (*keybdInput)(unsafe.Pointer(&in.mi))
	ki.Vk = vk
	ki.Scan = scan
	ki.Flags = flags
	return in
}

// sendInputs injects the events as one batch. Must run on the engine
// worker so injected sequences from concurrent callers cannot interleave.
func sendInputs(inputs []winInput) error {
	if len(inputs) == 0 {
		return nil
	}
	n, _, lastErr := procSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)
	if int(n) != len(inputs) {
		return platform.PlatformError(fmt.Sprintf("SendInput injected %d of %d events", n, len(inputs)), lastErr)
	}
	return nil
}

func setCursor(x, y int) error {
	if ok, _, lastErr := procSetCursorPos.Call(uintptr(x), uintptr(y)); ok == 0 {
		return platform.PlatformError(fmt.Sprintf("move cursor to %d,%d", x, y), lastErr)
	}
	return nil
}

func buttonFlags(button platform.MouseButton) (down, up uint32) {
	switch button {
	case platform.MouseRight:
		return mouseRightDown, mouseRightUp
	case platform.MouseMiddle:
		return mouseMiddleDown, mouseMiddleUp
	default:
		return mouseLeftDown, mouseLeftUp
	}
}

func (e *Engine) ClickAt(ctx context.Context, x, y int, button platform.MouseButton, count int) error {
	if count < 1 {
		count = 1
	}
	down, up := buttonFlags(button)
	return e.do(ctx, func() error {
		if err := setCursor(x, y); err != nil {
			return err
		}
		var events []winInput
		for i := 0; i < count; i++ {
			events = append(events, mouseEvent(down, 0), mouseEvent(up, 0))
		}
		return sendInputs(events)
	})
}

func (e *Engine) MouseDown(ctx context.Context, x, y int, button platform.MouseButton) error {
	down, _ := buttonFlags(button)
	return e.do(ctx, func() error {
		if err := setCursor(x, y); err != nil {
			return err
		}
		return sendInputs([]winInput{mouseEvent(down, 0)})
	})
}

func (e *Engine) MouseUp(ctx context.Context, x, y int, button platform.MouseButton) error {
	_, up := buttonFlags(button)
	return e.do(ctx, func() error {
		if err := setCursor(x, y); err != nil {
			return err
		}
		return sendInputs([]winInput{mouseEvent(up, 0)})
	})
}

func (e *Engine) MoveMouse(ctx context.Context, x, y int) error {
	return e.do(ctx, func() error {
		return setCursor(x, y)
	})
}

func (e *Engine) CursorPosition(ctx context.Context) (int, int, error) {
	var pt struct{ X, Y int32 }
	err := e.do(ctx, func() error {
		if ok, _, lastErr := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt))); ok == 0 {
			return platform.PlatformError("read cursor position", lastErr)
		}
		return nil
	})
	return int(pt.X), int(pt.Y), err
}

// ScrollAt scrolls at a point. The wheel convention is inverted relative
// to the shared one: positive wheel deltas scroll up, so dy flips sign.
func (e *Engine) ScrollAt(ctx context.Context, x, y int, dx, dy float64) error {
	return e.do(ctx, func() error {
		if err := setCursor(x, y); err != nil {
			return err
		}
		var events []winInput
		if dy != 0 {
			amount := int32(math.Round(-dy * wheelDelta))
			events = append(events, mouseEvent(mouseWheel, uint32(amount)))
		}
		if dx != 0 {
			amount := int32(math.Round(dx * wheelDelta))
			events = append(events, mouseEvent(mouseHWheel, uint32(amount)))
		}
		return sendInputs(events)
	})
}

// TypeText injects each character as a Unicode key event, so layout and
// dead keys never matter.
func (e *Engine) TypeText(ctx context.Context, text string, delay time.Duration) error {
	for _, ch := range text {
		if err := ctx.Err(); err != nil {
			return platform.TimeoutError("typing cancelled").WithCause(err)
		}
		units := utf16.Encode([]rune{ch})
		if err := e.do(ctx, func() error {
			var events []winInput
			for _, u := range units {
				events = append(events,
					keyEvent(0, u, keyEventUnicode),
					keyEvent(0, u, keyEventUnicode|keyEventUp),
				)
			}
			return sendInputs(events)
		}); err != nil {
			return err
		}
		if delay > 0 {
			time.Sleep(delay)
		}
	}
	return nil
}

func (e *Engine) KeyCombo(ctx context.Context, keys []string) error {
	vk, modifiers, err := resolveKeyCombo(keys)
	if err != nil {
		return err
	}
	return e.do(ctx, func() error {
		var events []winInput
		for _, mod := range modifiers {
			events = append(events, keyEvent(mod, 0, 0))
		}
		events = append(events, keyEvent(vk, 0, 0), keyEvent(vk, 0, keyEventUp))
		for i := len(modifiers) - 1; i >= 0; i-- {
			events = append(events, keyEvent(modifiers[i], 0, keyEventUp))
		}
		return sendInputs(events)
	})
}

// Virtual-key codes from winuser.h.
var virtualKeyMap = map[string]uint16{
	"enter": 0x0D, "tab": 0x09, "space": 0x20, "escape": 0x1B,
	"backspace": 0x08, "delete": 0x2E, "forwarddelete": 0x2E,
	"up": 0x26, "down": 0x28, "left": 0x25, "right": 0x27,
	"home": 0x24, "end": 0x23, "pageup": 0x21, "pagedown": 0x22,
	"minus": 0xBD, "equals": 0xBB, "plus": 0xBB,
	"f1": 0x70, "f2": 0x71, "f3": 0x72, "f4": 0x73, "f5": 0x74, "f6": 0x75,
	"f7": 0x76, "f8": 0x77, "f9": 0x78, "f10": 0x79, "f11": 0x7A, "f12": 0x7B,
}

const (
	vkShift   = 0x10
	vkControl = 0x11
	vkMenu    = 0x12
	vkLWin    = 0x5B
)

var modifierKeyMap = map[string]uint16{
	"ctrl":  vkControl,
	"shift": vkShift,
	"alt":   vkMenu,
	"cmd":   vkLWin,
}

func virtualKey(k string) (uint16, bool) {
	if vk, ok := virtualKeyMap[k]; ok {
		return vk, true
	}
	if len(k) == 1 {
		c := k[0]
		if c >= 'a' && c <= 'z' {
			return uint16(c - 'a' + 0x41), true
		}
		if c >= '0' && c <= '9' {
			return uint16(c - '0' + 0x30), true
		}
	}
	return 0, false
}

func resolveKeyCombo(keys []string) (uint16, []uint16, error) {
	var modifiers []uint16
	var vk uint16
	found := false

	for _, k := range keys {
		k = strings.ToLower(strings.TrimSpace(k))
		if mod, ok := modifierKeyMap[k]; ok {
			modifiers = append(modifiers, mod)
		} else if code, ok := virtualKey(k); ok {
			vk = code
			found = true
		} else {
			return 0, nil, platform.InvalidArgument(fmt.Sprintf("unknown key: %q", k))
		}
	}
	if !found {
		return 0, nil, platform.InvalidArgument("no key specified in combo, only modifiers")
	}
	return vk, modifiers, nil
}
