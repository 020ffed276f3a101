package platform

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ClickOptions modifies a dispatched click.
type ClickOptions struct {
	Button MouseButton
	// Count is the number of clicks; zero means one.
	Count int
	// TryFocusBefore focuses the element before clicking.
	TryFocusBefore bool
	// RestoreCursor puts the pointer back where it was after the click,
	// so background automation does not disturb the user's cursor.
	RestoreCursor bool
}

// TypeOptions modifies dispatched typing.
type TypeOptions struct {
	// UseClipboard pastes the text through the clipboard instead of
	// sending per-character key events. Much faster for large text.
	UseClipboard bool
	// Delay spaces per-character key events.
	Delay time.Duration
	// TryFocusBefore focuses the element before typing.
	TryFocusBefore bool
	// TryClickBefore clicks the element before typing, for targets that
	// only accept focus through the mouse.
	TryClickBefore bool
	// RestoreFocus refocuses the previously focused element afterward.
	RestoreFocus bool
}

// FocusTracker is an optional engine capability: reading which element
// currently holds keyboard focus. RestoreFocus needs it.
type FocusTracker interface {
	FocusedElement(ctx context.Context) (*Element, error)
}

// Dispatcher turns logical element actions into synthetic input. It owns
// the applicability checks: targets must have geometry before any native
// input is issued, and directions must parse before any native call.
// Failed input is never retried here; a retried click has real-world side
// effects, so retry policy belongs to callers.
type Dispatcher struct {
	eng Engine
}

// NewDispatcher wraps an engine's input primitives.
func NewDispatcher(eng Engine) *Dispatcher {
	return &Dispatcher{eng: eng}
}

// targetPoint resolves the element's click point: the center of its bounds,
// rounded to the nearest pixel. Elements without geometry (the desktop
// root, zero-sized controls) are rejected before any input happens.
func (d *Dispatcher) targetPoint(ctx context.Context, el *Element) (int, int, error) {
	bounds, err := el.Bounds(ctx)
	if err != nil {
		return 0, 0, UnsupportedOperation("input against an element with unavailable bounds").WithCause(err)
	}
	if bounds.Width <= 0 || bounds.Height <= 0 {
		return 0, 0, UnsupportedOperation("input against an element with empty bounds")
	}
	x, y := bounds.Center()
	return x, y, nil
}

// Click clicks the center of the element.
func (d *Dispatcher) Click(ctx context.Context, el *Element, opts ClickOptions) error {
	x, y, err := d.targetPoint(ctx, el)
	if err != nil {
		return err
	}
	if opts.TryFocusBefore {
		// focus failures are not fatal; the click itself may focus
		_ = el.Focus(ctx)
	}
	return d.ClickAtPoint(ctx, x, y, opts)
}

// ClickAtPoint clicks at raw screen coordinates, the fallback for targets
// with no resolvable element.
func (d *Dispatcher) ClickAtPoint(ctx context.Context, x, y int, opts ClickOptions) error {
	count := opts.Count
	if count <= 0 {
		count = 1
	}

	restore, err := d.snapshotCursor(ctx, opts.RestoreCursor)
	if err != nil {
		return err
	}

	clickErr := d.eng.ClickAt(ctx, x, y, opts.Button, count)
	if restore != nil {
		restore()
	}
	return clickErr
}

// Hover moves the pointer to the element's center without clicking.
func (d *Dispatcher) Hover(ctx context.Context, el *Element) error {
	x, y, err := d.targetPoint(ctx, el)
	if err != nil {
		return err
	}
	return d.eng.MoveMouse(ctx, x, y)
}

// TypeText types into the element, optionally via the clipboard.
func (d *Dispatcher) TypeText(ctx context.Context, el *Element, text string, opts TypeOptions) error {
	var restoreFocus func()
	if opts.RestoreFocus {
		tracker, ok := d.eng.(FocusTracker)
		if !ok {
			return UnsupportedOperation("focus restore")
		}
		if prev, err := tracker.FocusedElement(ctx); err == nil && prev != nil {
			restoreFocus = func() { _ = prev.Focus(ctx) }
		}
	}

	if opts.TryClickBefore {
		if err := d.Click(ctx, el, ClickOptions{}); err != nil {
			return err
		}
	} else if opts.TryFocusBefore {
		if err := el.Focus(ctx); err != nil {
			return err
		}
	}

	var typeErr error
	if opts.UseClipboard {
		typeErr = d.pasteText(ctx, text)
	} else {
		typeErr = d.eng.TypeText(ctx, text, opts.Delay)
	}

	if restoreFocus != nil {
		restoreFocus()
	}
	return typeErr
}

// pasteText routes text through the system clipboard and sends the paste
// chord.
func (d *Dispatcher) pasteText(ctx context.Context, text string) error {
	clip := d.eng.Clipboard()
	if err := clip.SetText(ctx, text); err != nil {
		return err
	}
	return d.eng.KeyCombo(ctx, []string{pasteModifier(), "v"})
}

func pasteModifier() string {
	if runtime.GOOS == "darwin" {
		return "cmd"
	}
	return "ctrl"
}

// PressKey focuses the element and sends a key combination such as
// "ctrl+shift+t" or "enter".
func (d *Dispatcher) PressKey(ctx context.Context, el *Element, combo string) error {
	keys, err := ParseKeyCombo(combo)
	if err != nil {
		return err
	}
	if el != nil {
		_ = el.Focus(ctx)
	}
	return d.eng.KeyCombo(ctx, keys)
}

// Scroll scrolls at the element's center. The direction is validated
// before anything native runs: an unknown direction is caller error, not a
// silent no-op.
func (d *Dispatcher) Scroll(ctx context.Context, el *Element, direction string, amount float64) error {
	dx, dy, err := ScrollDelta(direction, amount)
	if err != nil {
		return err
	}
	x, y, err := d.targetPoint(ctx, el)
	if err != nil {
		return err
	}
	return d.eng.ScrollAt(ctx, x, y, dx, dy)
}

// ScrollAtPoint scrolls at raw screen coordinates.
func (d *Dispatcher) ScrollAtPoint(ctx context.Context, x, y int, direction string, amount float64) error {
	dx, dy, err := ScrollDelta(direction, amount)
	if err != nil {
		return err
	}
	return d.eng.ScrollAt(ctx, x, y, dx, dy)
}

// DragFromElement presses at the element's center and releases at the
// target point.
func (d *Dispatcher) DragFromElement(ctx context.Context, el *Element, toX, toY int) error {
	x, y, err := d.targetPoint(ctx, el)
	if err != nil {
		return err
	}
	return d.Drag(ctx, x, y, toX, toY)
}

// Drag is exactly three discrete events: press at the start, move to the
// end, release. No intermediate motion is simulated.
func (d *Dispatcher) Drag(ctx context.Context, fromX, fromY, toX, toY int) error {
	if err := d.eng.MouseDown(ctx, fromX, fromY, MouseLeft); err != nil {
		return err
	}
	if err := d.eng.MoveMouse(ctx, toX, toY); err != nil {
		// release anyway so the button is not left held
		_ = d.eng.MouseUp(ctx, toX, toY, MouseLeft)
		return err
	}
	return d.eng.MouseUp(ctx, toX, toY, MouseLeft)
}

// snapshotCursor records the pointer position when wanted and returns the
// restore closure. The snapshot happens as late as possible and the
// restore as early as possible, keeping the disturbed window tight.
func (d *Dispatcher) snapshotCursor(ctx context.Context, wanted bool) (func(), error) {
	if !wanted {
		return nil, nil
	}
	px, py, err := d.eng.CursorPosition(ctx)
	if err != nil {
		return nil, err
	}
	return func() { _ = d.eng.MoveMouse(ctx, px, py) }, nil
}

// ScrollDelta maps a direction word to signed per-axis deltas: vertical
// for up and down, horizontal for left and right, negative toward the
// top-left, matching native wheel conventions.
func ScrollDelta(direction string, amount float64) (dx, dy float64, err error) {
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "up":
		return 0, -amount, nil
	case "down":
		return 0, amount, nil
	case "left":
		return -amount, 0, nil
	case "right":
		return amount, 0, nil
	default:
		return 0, 0, InvalidArgument(fmt.Sprintf("unknown scroll direction %q (expected up, down, left, or right)", direction))
	}
}

// keyAliases folds the common spellings of modifier and special keys into
// the names engines understand.
var keyAliases = map[string]string{
	"command":  "cmd",
	"super":    "cmd",
	"win":      "cmd",
	"meta":     "cmd",
	"control":  "ctrl",
	"option":   "alt",
	"opt":      "alt",
	"return":   "enter",
	"esc":      "escape",
	"del":      "delete",
	"spacebar": "space",
}

// ParseKeyCombo splits a "ctrl+shift+t" style string into normalized key
// names.
func ParseKeyCombo(combo string) ([]string, error) {
	if strings.TrimSpace(combo) == "" {
		return nil, InvalidArgument("empty key combo")
	}
	parts := strings.Split(combo, "+")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		key := strings.ToLower(strings.TrimSpace(p))
		if key == "" {
			return nil, InvalidArgument(fmt.Sprintf("empty key in combo %q", combo))
		}
		if alias, ok := keyAliases[key]; ok {
			key = alias
		}
		keys = append(keys, key)
	}
	return keys, nil
}
