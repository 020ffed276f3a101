package platform

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/deskdriver/deskdriver/internal/model"
)

// objectIDs allocates handle identities for the whole process. IDs are
// strictly increasing, never reused, and reset only when the process
// restarts. Allocation is lock-free so handles can be wrapped concurrently.
var objectIDs atomic.Int64

// NextObjectID returns a fresh process-unique handle id.
func NextObjectID() int64 {
	return objectIDs.Add(1)
}

// Native is the backend half of an Element: the platform-specific reference
// into OS-owned UI state. The OS can invalidate the referent at any time, so
// every method returns a typed error instead of assuming reachability.
type Native interface {
	// Role returns the canonical role of the element.
	Role(ctx context.Context) (string, error)

	// Name returns the accessible name, or "" when the element has none.
	Name(ctx context.Context) (string, error)

	// Attributes captures the element's current properties. The read is
	// fresh on every call; nothing is cached.
	Attributes(ctx context.Context, mode PropertyMode, includeBounds bool) (model.Attributes, error)

	// Children returns the element's children in native order.
	Children(ctx context.Context) ([]Native, error)

	// Bounds returns the element rectangle in logical screen coordinates.
	Bounds(ctx context.Context) (model.Rect, error)

	// PID returns the owning process id, cached at wrap time.
	PID() int32

	// Focus gives the element keyboard focus.
	Focus(ctx context.Context) error

	// Activate raises the element's window and brings its application
	// frontmost.
	Activate(ctx context.Context) error
}

// NativeValueSetter is implemented by backends that can write an element's
// value directly through the accessibility layer, without synthetic typing.
type NativeValueSetter interface {
	SetValue(ctx context.Context, value string) error
}

// NativeInvoker is implemented by backends whose elements expose a default
// accessibility action (UI Automation Invoke, AXPress).
type NativeInvoker interface {
	Invoke(ctx context.Context) error
}

// Element wraps one native UI node behind a uniform capability surface.
// Handles are short-lived: the ObjectID disambiguates handles within this
// process only, and the native reference may die with the underlying
// control at any moment.
type Element struct {
	ObjectID int64
	PID      int32

	native Native
	eng    Engine
}

// WrapElement assigns a fresh ObjectID to a native reference.
func WrapElement(eng Engine, native Native) *Element {
	return &Element{
		ObjectID: NextObjectID(),
		PID:      native.PID(),
		native:   native,
		eng:      eng,
	}
}

// Native exposes the backend reference to the tree builder and locator.
func (e *Element) Native() Native {
	return e.native
}

// Role returns the element's canonical role.
func (e *Element) Role(ctx context.Context) (string, error) {
	return e.native.Role(ctx)
}

// Name returns the element's accessible name.
func (e *Element) Name(ctx context.Context) (string, error) {
	return e.native.Name(ctx)
}

// Attributes captures the element's current properties.
func (e *Element) Attributes(ctx context.Context, mode PropertyMode) (model.Attributes, error) {
	return e.native.Attributes(ctx, mode, true)
}

// Bounds returns the element rectangle.
func (e *Element) Bounds(ctx context.Context) (model.Rect, error) {
	return e.native.Bounds(ctx)
}

// Children wraps the element's children as handles.
func (e *Element) Children(ctx context.Context) ([]*Element, error) {
	natives, err := e.native.Children(ctx)
	if err != nil {
		return nil, err
	}
	children := make([]*Element, 0, len(natives))
	for _, n := range natives {
		children = append(children, WrapElement(e.eng, n))
	}
	return children, nil
}

// Focus gives the element keyboard focus.
func (e *Element) Focus(ctx context.Context) error {
	return e.native.Focus(ctx)
}

// Activate raises the element's window.
func (e *Element) Activate(ctx context.Context) error {
	return e.native.Activate(ctx)
}

// Click clicks the center of the element with the left button.
func (e *Element) Click(ctx context.Context) error {
	return e.dispatcher().Click(ctx, e, ClickOptions{})
}

// DoubleClick double-clicks the center of the element.
func (e *Element) DoubleClick(ctx context.Context) error {
	return e.dispatcher().Click(ctx, e, ClickOptions{Count: 2})
}

// RightClick right-clicks the center of the element.
func (e *Element) RightClick(ctx context.Context) error {
	return e.dispatcher().Click(ctx, e, ClickOptions{Button: MouseRight})
}

// Hover moves the pointer to the center of the element without clicking.
func (e *Element) Hover(ctx context.Context) error {
	return e.dispatcher().Hover(ctx, e)
}

// TypeText types into the element.
func (e *Element) TypeText(ctx context.Context, text string, opts TypeOptions) error {
	return e.dispatcher().TypeText(ctx, e, text, opts)
}

// PressKey sends a key combination with the element focused.
func (e *Element) PressKey(ctx context.Context, combo string) error {
	return e.dispatcher().PressKey(ctx, e, combo)
}

// Scroll scrolls at the element's center. Direction is one of up, down,
// left, right.
func (e *Element) Scroll(ctx context.Context, direction string, amount float64) error {
	return e.dispatcher().Scroll(ctx, e, direction, amount)
}

// Drag presses at the element's center and releases at the target point.
func (e *Element) Drag(ctx context.Context, toX, toY int) error {
	return e.dispatcher().DragFromElement(ctx, e, toX, toY)
}

// SetValue writes the element's value through the accessibility layer where
// the backend supports it.
func (e *Element) SetValue(ctx context.Context, value string) error {
	if setter, ok := e.native.(NativeValueSetter); ok {
		return setter.SetValue(ctx, value)
	}
	return UnsupportedOperation("set value")
}

// Invoke triggers the element's default accessibility action where the
// backend supports it.
func (e *Element) Invoke(ctx context.Context) error {
	if inv, ok := e.native.(NativeInvoker); ok {
		return inv.Invoke(ctx)
	}
	return UnsupportedOperation("invoke")
}

// IsKeyboardFocusable reports whether the element can take keyboard focus,
// when the backend knows.
func (e *Element) IsKeyboardFocusable(ctx context.Context) (bool, error) {
	attrs, err := e.native.Attributes(ctx, PropertyModeComplete, false)
	if err != nil {
		return false, err
	}
	if attrs.IsKeyboardFocusable == nil {
		return false, UnsupportedOperation("keyboard focusability query")
	}
	return *attrs.IsKeyboardFocusable, nil
}

// Tree captures the subtree rooted at this element.
func (e *Element) Tree(ctx context.Context, cfg TreeBuildConfig) (*model.UINode, error) {
	return BuildTree(ctx, e.native, cfg)
}

// WaitFor polls until a selector resolves under this element.
func (e *Element) WaitFor(ctx context.Context, selector string, timeout time.Duration) (*Element, error) {
	sel, err := ParseSelector(selector)
	if err != nil {
		return nil, err
	}
	return NewLocator(e.eng, sel, e).First(ctx, timeout)
}

// Capture screenshots the element by cropping a frame of the monitor under
// its center. Logical bounds are mapped to the monitor's pixel grid through
// its scale factor.
func (e *Element) Capture(ctx context.Context) (*Screenshot, error) {
	bounds, err := e.native.Bounds(ctx)
	if err != nil {
		return nil, err
	}
	if bounds.Width <= 0 || bounds.Height <= 0 {
		return nil, UnsupportedOperation("capture of an element with empty bounds")
	}

	monitors, err := e.eng.Monitors(ctx)
	if err != nil {
		return nil, err
	}
	cx, cy := bounds.Center()
	var target *Monitor
	for i := range monitors {
		if monitors[i].Contains(cx, cy) {
			target = &monitors[i]
			break
		}
	}
	if target == nil {
		for i := range monitors {
			if monitors[i].IsPrimary {
				target = &monitors[i]
				break
			}
		}
	}
	if target == nil && len(monitors) > 0 {
		target = &monitors[0]
	}
	if target == nil {
		return nil, ElementNotFound("no monitor contains the element")
	}

	shot, err := e.eng.CaptureMonitor(ctx, *target)
	if err != nil {
		return nil, err
	}

	scale := target.ScaleFactor
	if scale <= 0 {
		scale = 1
	}
	x := int((bounds.X - float64(target.X)) * scale)
	y := int((bounds.Y - float64(target.Y)) * scale)
	w := int(bounds.Width * scale)
	h := int(bounds.Height * scale)
	return shot.Crop(x, y, w, h), nil
}

func (e *Element) dispatcher() *Dispatcher {
	return NewDispatcher(e.eng)
}
