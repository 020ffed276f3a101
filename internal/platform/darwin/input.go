//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework ApplicationServices -framework Foundation -framework Carbon
#include <CoreGraphics/CoreGraphics.h>
#include <Carbon/Carbon.h>

// Click at screen coordinates with the given button and click count.
// button: 0=left, 1=right, 2=middle; count: 1=single, 2=double, ...
static int cg_click(double x, double y, int button, int count) {
	CGPoint point = CGPointMake(x, y);

	CGEventType downType, upType;
	CGMouseButton cgButton;
	switch (button) {
	case 1:
		cgButton = kCGMouseButtonRight;
		downType = kCGEventRightMouseDown;
		upType = kCGEventRightMouseUp;
		break;
	case 2:
		cgButton = kCGMouseButtonCenter;
		downType = kCGEventOtherMouseDown;
		upType = kCGEventOtherMouseUp;
		break;
	default:
		cgButton = kCGMouseButtonLeft;
		downType = kCGEventLeftMouseDown;
		upType = kCGEventLeftMouseUp;
		break;
	}

	for (int i = 0; i < count; i++) {
		CGEventRef down = CGEventCreateMouseEvent(NULL, downType, point, cgButton);
		CGEventRef up = CGEventCreateMouseEvent(NULL, upType, point, cgButton);
		if (!down || !up) {
			if (down) CFRelease(down);
			if (up) CFRelease(up);
			return -1;
		}
		CGEventSetIntegerValueField(down, kCGMouseEventClickState, i + 1);
		CGEventSetIntegerValueField(up, kCGMouseEventClickState, i + 1);
		CGEventPost(kCGHIDEventTap, down);
		CGEventPost(kCGHIDEventTap, up);
		CFRelease(down);
		CFRelease(up);
	}
	return 0;
}

// Press or release one button without the paired event, for drags.
static int cg_mouse_button(double x, double y, int button, int down) {
	CGPoint point = CGPointMake(x, y);

	CGEventType type;
	CGMouseButton cgButton;
	switch (button) {
	case 1:
		cgButton = kCGMouseButtonRight;
		type = down ? kCGEventRightMouseDown : kCGEventRightMouseUp;
		break;
	case 2:
		cgButton = kCGMouseButtonCenter;
		type = down ? kCGEventOtherMouseDown : kCGEventOtherMouseUp;
		break;
	default:
		cgButton = kCGMouseButtonLeft;
		type = down ? kCGEventLeftMouseDown : kCGEventLeftMouseUp;
		break;
	}

	CGEventRef ev = CGEventCreateMouseEvent(NULL, type, point, cgButton);
	if (!ev) return -1;
	CGEventPost(kCGHIDEventTap, ev);
	CFRelease(ev);
	return 0;
}

// Move with the left button held reads as a drag to most applications;
// a plain move otherwise.
static int cg_move_mouse(double x, double y, int dragging) {
	CGPoint point = CGPointMake(x, y);
	CGEventType type = dragging ? kCGEventLeftMouseDragged : kCGEventMouseMoved;
	CGEventRef move = CGEventCreateMouseEvent(NULL, type, point, kCGMouseButtonLeft);
	if (!move) return -1;
	CGEventPost(kCGHIDEventTap, move);
	CFRelease(move);
	return 0;
}

static int cg_cursor_position(double *x, double *y) {
	CGEventRef ev = CGEventCreate(NULL);
	if (!ev) return -1;
	CGPoint point = CGEventGetLocation(ev);
	CFRelease(ev);
	*x = point.x;
	*y = point.y;
	return 0;
}

// Scroll in line units. Positive dy scrolls content down, matching the
// shared direction convention, so the sign flips for the natural-scroll
// wheel event.
static int cg_scroll(int dy, int dx) {
	CGEventRef scroll = CGEventCreateScrollWheelEvent(
		NULL, kCGScrollEventUnitLine, 2, -dy, -dx);
	if (!scroll) return -1;
	CGEventPost(kCGHIDEventTap, scroll);
	CFRelease(scroll);
	return 0;
}

// Type a single Unicode character via CGEvent key simulation.
static void cg_type_char(UniChar ch) {
	CGEventRef keyDown = CGEventCreateKeyboardEvent(NULL, 0, true);
	CGEventRef keyUp = CGEventCreateKeyboardEvent(NULL, 0, false);
	CGEventKeyboardSetUnicodeString(keyDown, 1, &ch);
	CGEventKeyboardSetUnicodeString(keyUp, 1, &ch);
	CGEventPost(kCGHIDEventTap, keyDown);
	CGEventPost(kCGHIDEventTap, keyUp);
	CFRelease(keyDown);
	CFRelease(keyUp);
}

// Press a key with modifier flags held.
static void cg_key_combo(CGKeyCode keyCode, CGEventFlags modifiers) {
	CGEventRef keyDown = CGEventCreateKeyboardEvent(NULL, keyCode, true);
	CGEventRef keyUp = CGEventCreateKeyboardEvent(NULL, keyCode, false);
	CGEventSetFlags(keyDown, modifiers);
	CGEventSetFlags(keyUp, modifiers);
	CGEventPost(kCGHIDEventTap, keyDown);
	CGEventPost(kCGHIDEventTap, keyUp);
	CFRelease(keyDown);
	CFRelease(keyUp);
}
*/
import "C"

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/deskdriver/deskdriver/internal/platform"
)

func cgButton(button platform.MouseButton) C.int {
	switch button {
	case platform.MouseRight:
		return 1
	case platform.MouseMiddle:
		return 2
	default:
		return 0
	}
}

func (e *Engine) ClickAt(ctx context.Context, x, y int, button platform.MouseButton, count int) error {
	if count < 1 {
		count = 1
	}
	return e.do(ctx, func() error {
		if C.cg_click(C.double(x), C.double(y), cgButton(button), C.int(count)) != 0 {
			return platform.PlatformError(fmt.Sprintf("click at (%d, %d)", x, y), nil)
		}
		return nil
	})
}

func (e *Engine) MouseDown(ctx context.Context, x, y int, button platform.MouseButton) error {
	return e.do(ctx, func() error {
		if C.cg_mouse_button(C.double(x), C.double(y), cgButton(button), 1) != 0 {
			return platform.PlatformError(fmt.Sprintf("mouse down at (%d, %d)", x, y), nil)
		}
		e.dragging = true
		return nil
	})
}

func (e *Engine) MouseUp(ctx context.Context, x, y int, button platform.MouseButton) error {
	return e.do(ctx, func() error {
		e.dragging = false
		if C.cg_mouse_button(C.double(x), C.double(y), cgButton(button), 0) != 0 {
			return platform.PlatformError(fmt.Sprintf("mouse up at (%d, %d)", x, y), nil)
		}
		return nil
	})
}

func (e *Engine) MoveMouse(ctx context.Context, x, y int) error {
	return e.do(ctx, func() error {
		dragging := C.int(0)
		if e.dragging {
			dragging = 1
		}
		if C.cg_move_mouse(C.double(x), C.double(y), dragging) != 0 {
			return platform.PlatformError(fmt.Sprintf("move mouse to (%d, %d)", x, y), nil)
		}
		return nil
	})
}

func (e *Engine) CursorPosition(ctx context.Context) (int, int, error) {
	var x, y int
	err := e.do(ctx, func() error {
		var cx, cy C.double
		if C.cg_cursor_position(&cx, &cy) != 0 {
			return platform.PlatformError("read cursor position", nil)
		}
		x, y = int(math.Round(float64(cx))), int(math.Round(float64(cy)))
		return nil
	})
	return x, y, err
}

func (e *Engine) ScrollAt(ctx context.Context, x, y int, dx, dy float64) error {
	return e.do(ctx, func() error {
		// land the scroll under the pointer position first
		if C.cg_move_mouse(C.double(x), C.double(y), 0) != 0 {
			return platform.PlatformError(fmt.Sprintf("move mouse to (%d, %d) for scroll", x, y), nil)
		}
		time.Sleep(10 * time.Millisecond)

		lines := func(v float64) C.int {
			r := math.Round(v)
			if r == 0 && v != 0 {
				if v > 0 {
					return 1
				}
				return -1
			}
			return C.int(r)
		}
		if C.cg_scroll(lines(dy), lines(dx)) != 0 {
			return platform.PlatformError(fmt.Sprintf("scroll at (%d, %d)", x, y), nil)
		}
		return nil
	})
}

func (e *Engine) TypeText(ctx context.Context, text string, delay time.Duration) error {
	for _, ch := range text {
		if err := ctx.Err(); err != nil {
			return platform.TimeoutError("typing cancelled").WithCause(err)
		}
		char := ch
		if err := e.do(ctx, func() error {
			C.cg_type_char(C.UniChar(char))
			return nil
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
	keyCode, modifiers, err := resolveKeyCombo(keys)
	if err != nil {
		return err
	}
	return e.do(ctx, func() error {
		C.cg_key_combo(C.CGKeyCode(keyCode), C.CGEventFlags(modifiers))
		return nil
	})
}

// macOS virtual key codes from Carbon Events.h.
var keyCodeMap = map[string]uint16{
	"a": 0x00, "b": 0x0B, "c": 0x08, "d": 0x02, "e": 0x0E, "f": 0x03,
	"g": 0x05, "h": 0x04, "i": 0x22, "j": 0x26, "k": 0x28, "l": 0x25,
	"m": 0x2E, "n": 0x2D, "o": 0x1F, "p": 0x23, "q": 0x0C, "r": 0x0F,
	"s": 0x01, "t": 0x11, "u": 0x20, "v": 0x09, "w": 0x0D, "x": 0x07,
	"y": 0x10, "z": 0x06,
	"0": 0x1D, "1": 0x12, "2": 0x13, "3": 0x14, "4": 0x15,
	"5": 0x17, "6": 0x16, "7": 0x1A, "8": 0x1C, "9": 0x19,
	"enter": 0x24, "tab": 0x30, "space": 0x31,
	"delete": 0x33, "backspace": 0x33, "escape": 0x35, "forwarddelete": 0x75,
	"up": 0x7E, "down": 0x7D, "left": 0x7B, "right": 0x7C,
	"home": 0x73, "end": 0x77, "pageup": 0x74, "pagedown": 0x79,
	"minus": 0x1B, "equals": 0x18, "plus": 0x18,
	"f1": 0x7A, "f2": 0x78, "f3": 0x63, "f4": 0x76, "f5": 0x60,
	"f6": 0x61, "f7": 0x62, "f8": 0x64, "f9": 0x65, "f10": 0x6D,
	"f11": 0x67, "f12": 0x6F,
}

// macOS modifier flags. The shared layer has already folded aliases such as
// command and option into these names.
var modifierMap = map[string]uint64{
	"cmd":   uint64(C.kCGEventFlagMaskCommand),
	"shift": uint64(C.kCGEventFlagMaskShift),
	"ctrl":  uint64(C.kCGEventFlagMaskControl),
	"alt":   uint64(C.kCGEventFlagMaskAlternate),
	"fn":    uint64(C.kCGEventFlagMaskSecondaryFn),
}

func resolveKeyCombo(keys []string) (uint16, uint64, error) {
	var modifiers uint64
	var keyCode uint16
	found := false

	for _, k := range keys {
		k = strings.ToLower(strings.TrimSpace(k))
		if mod, ok := modifierMap[k]; ok {
			modifiers |= mod
		} else if code, ok := keyCodeMap[k]; ok {
			keyCode = code
			found = true
		} else {
			return 0, 0, platform.InvalidArgument(fmt.Sprintf("unknown key: %q", k))
		}
	}
	if !found {
		return 0, 0, platform.InvalidArgument("no key specified in combo, only modifiers")
	}
	return keyCode, modifiers, nil
}
