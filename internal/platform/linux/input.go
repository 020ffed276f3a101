//go:build linux

package linux

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/deskdriver/deskdriver/internal/platform"
)

const (
	decPath  = dbus.ObjectPath("/org/a11y/atspi/registry/deviceeventcontroller")
	ifaceDEC = "org.a11y.atspi.DeviceEventController"
)

// Keyboard event kinds accepted by GenerateKeyboardEvent.
const (
	keySym             = uint32(3)
	keyString          = uint32(4)
	keyLockModifiers   = uint32(5)
	keyUnlockModifiers = uint32(6)
)

// deviceController returns the registry's input synthesis object.
// Must run on the engine worker.
func (e *Engine) deviceController() dbus.BusObject {
	return e.conn.Object(registryName, decPath)
}

// generateMouse posts one synthetic mouse event. Event names are the
// registry's: "abs" moves, "b1p"/"b1r" press and release button one,
// "b1c" clicks it, buttons four to seven turn the wheel. Must run on the
// engine worker.
func (e *Engine) generateMouse(ctx context.Context, x, y int, name string) error {
	call := e.deviceController().CallWithContext(ctx, ifaceDEC+".GenerateMouseEvent", 0,
		int32(x), int32(y), name)
	return dbusErr("mouse event "+name, call.Err)
}

// generateKey posts one synthetic keyboard event. Must run on the engine
// worker.
func (e *Engine) generateKey(ctx context.Context, code int32, str string, kind uint32) error {
	call := e.deviceController().CallWithContext(ctx, ifaceDEC+".GenerateKeyboardEvent", 0,
		code, str, kind)
	return dbusErr("keyboard event", call.Err)
}

func buttonEvent(button platform.MouseButton, suffix string) string {
	switch button {
	case platform.MouseRight:
		return "b3" + suffix
	case platform.MouseMiddle:
		return "b2" + suffix
	default:
		return "b1" + suffix
	}
}

func (e *Engine) ClickAt(ctx context.Context, x, y int, button platform.MouseButton, count int) error {
	if count < 1 {
		count = 1
	}
	name := buttonEvent(button, "c")
	return e.do(ctx, func() error {
		if err := e.generateMouse(ctx, x, y, "abs"); err != nil {
			return err
		}
		for i := 0; i < count; i++ {
			if err := e.generateMouse(ctx, x, y, name); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *Engine) MouseDown(ctx context.Context, x, y int, button platform.MouseButton) error {
	return e.do(ctx, func() error {
		if err := e.generateMouse(ctx, x, y, "abs"); err != nil {
			return err
		}
		return e.generateMouse(ctx, x, y, buttonEvent(button, "p"))
	})
}

func (e *Engine) MouseUp(ctx context.Context, x, y int, button platform.MouseButton) error {
	return e.do(ctx, func() error {
		if err := e.generateMouse(ctx, x, y, "abs"); err != nil {
			return err
		}
		return e.generateMouse(ctx, x, y, buttonEvent(button, "r"))
	})
}

func (e *Engine) MoveMouse(ctx context.Context, x, y int) error {
	return e.do(ctx, func() error {
		return e.generateMouse(ctx, x, y, "abs")
	})
}

// CursorPosition shells out to xdotool; AT-SPI has no pointer query.
func (e *Engine) CursorPosition(ctx context.Context) (int, int, error) {
	if _, err := exec.LookPath("xdotool"); err != nil {
		return 0, 0, platform.UnsupportedOperation("pointer query without xdotool")
	}
	out, err := exec.CommandContext(ctx, "xdotool", "getmouselocation", "--shell").Output()
	if err != nil {
		return 0, 0, platform.PlatformError("xdotool getmouselocation", err)
	}
	var x, y int
	var haveX, haveY bool
	for _, line := range strings.Split(string(out), "\n") {
		if v, ok := strings.CutPrefix(line, "X="); ok {
			x, _ = strconv.Atoi(strings.TrimSpace(v))
			haveX = true
		}
		if v, ok := strings.CutPrefix(line, "Y="); ok {
			y, _ = strconv.Atoi(strings.TrimSpace(v))
			haveY = true
		}
	}
	if !haveX || !haveY {
		return 0, 0, platform.PlatformError("parse xdotool getmouselocation output", nil)
	}
	return x, y, nil
}

// wheel posts notch clicks for one axis: negName when the delta is
// negative, posName when positive.
func (e *Engine) wheel(ctx context.Context, x, y int, delta float64, negName, posName string) error {
	if delta == 0 {
		return nil
	}
	name := posName
	if delta < 0 {
		name = negName
	}
	notches := int(math.Round(math.Abs(delta)))
	if notches < 1 {
		notches = 1
	}
	for i := 0; i < notches; i++ {
		if err := e.generateMouse(ctx, x, y, name); err != nil {
			return err
		}
	}
	return nil
}

// ScrollAt turns the wheel at the point. The registry has no smooth
// scroll, so deltas round to whole notches: button four is up, five down,
// six left, seven right.
func (e *Engine) ScrollAt(ctx context.Context, x, y int, dx, dy float64) error {
	return e.do(ctx, func() error {
		if err := e.generateMouse(ctx, x, y, "abs"); err != nil {
			return err
		}
		if err := e.wheel(ctx, x, y, dy, "b4c", "b5c"); err != nil {
			return err
		}
		return e.wheel(ctx, x, y, dx, "b6c", "b7c")
	})
}

// TypeText posts the text as string events: whole when no delay is asked,
// rune by rune otherwise.
func (e *Engine) TypeText(ctx context.Context, text string, delay time.Duration) error {
	if delay <= 0 {
		return e.do(ctx, func() error {
			return e.generateKey(ctx, 0, text, keyString)
		})
	}
	for _, ch := range text {
		if err := ctx.Err(); err != nil {
			return platform.TimeoutError("typing cancelled").WithCause(err)
		}
		s := string(ch)
		if err := e.do(ctx, func() error {
			return e.generateKey(ctx, 0, s, keyString)
		}); err != nil {
			return err
		}
		time.Sleep(delay)
	}
	return nil
}

// KeyCombo locks the modifier mask, taps the key's keysym, then unlocks.
func (e *Engine) KeyCombo(ctx context.Context, keys []string) error {
	sym, mask, err := resolveKeyCombo(keys)
	if err != nil {
		return err
	}
	return e.do(ctx, func() error {
		if mask != 0 {
			if err := e.generateKey(ctx, int32(mask), "", keyLockModifiers); err != nil {
				return err
			}
			defer e.generateKey(ctx, int32(mask), "", keyUnlockModifiers)
		}
		return e.generateKey(ctx, int32(sym), "", keySym)
	})
}

// X11 keysyms from keysymdef.h.
var keysymMap = map[string]uint32{
	"enter": 0xFF0D, "tab": 0xFF09, "space": 0x20, "escape": 0xFF1B,
	"backspace": 0xFF08, "delete": 0xFFFF, "forwarddelete": 0xFFFF,
	"up": 0xFF52, "down": 0xFF54, "left": 0xFF51, "right": 0xFF53,
	"home": 0xFF50, "end": 0xFF57, "pageup": 0xFF55, "pagedown": 0xFF56,
	"minus": 0x2D, "equals": 0x3D, "plus": 0x2B,
	"f1": 0xFFBE, "f2": 0xFFBF, "f3": 0xFFC0, "f4": 0xFFC1, "f5": 0xFFC2, "f6": 0xFFC3,
	"f7": 0xFFC4, "f8": 0xFFC5, "f9": 0xFFC6, "f10": 0xFFC7, "f11": 0xFFC8, "f12": 0xFFC9,
}

// X modifier masks: Shift, Control, Mod1 (alt), Mod4 (super).
const (
	maskShift   = uint32(1 << 0)
	maskControl = uint32(1 << 2)
	maskAlt     = uint32(1 << 3)
	maskSuper   = uint32(1 << 6)
)

var modifierMaskMap = map[string]uint32{
	"ctrl":  maskControl,
	"shift": maskShift,
	"alt":   maskAlt,
	"cmd":   maskSuper,
}

func keysym(k string) (uint32, bool) {
	if sym, ok := keysymMap[k]; ok {
		return sym, true
	}
	if len(k) == 1 {
		c := k[0]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			return uint32(c), true
		}
	}
	return 0, false
}

func resolveKeyCombo(keys []string) (uint32, uint32, error) {
	var sym, mask uint32
	found := false
	for _, k := range keys {
		k = strings.ToLower(strings.TrimSpace(k))
		if m, ok := modifierMaskMap[k]; ok {
			mask |= m
		} else if s, ok := keysym(k); ok {
			sym = s
			found = true
		} else {
			return 0, 0, platform.InvalidArgument(fmt.Sprintf("unknown key: %q", k))
		}
	}
	if !found {
		return 0, 0, platform.InvalidArgument("no key specified in combo, only modifiers")
	}
	return sym, mask, nil
}
