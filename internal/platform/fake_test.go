package platform

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/deskdriver/deskdriver/internal/model"
)

// fakeNative is an in-memory Native for exercising the shared layer
// without an OS accessibility API behind it.
type fakeNative struct {
	mu        sync.Mutex
	attrs     model.Attributes
	children  []*fakeNative
	pid       int32
	readDelay time.Duration // simulates a slow native call
	dead      bool          // simulates an invalidated reference
}

func newFakeNode(role, name string, children ...*fakeNative) *fakeNative {
	return &fakeNative{
		attrs:    model.Attributes{Role: role, Name: name},
		children: children,
		pid:      100,
	}
}

func (f *fakeNative) withBounds(x, y, w, h float64) *fakeNative {
	f.attrs.Bounds = &model.Rect{X: x, Y: y, Width: w, Height: h}
	return f
}

func (f *fakeNative) withValue(v string) *fakeNative {
	f.attrs.Value = v
	return f
}

func (f *fakeNative) withFocusable(focusable bool) *fakeNative {
	f.attrs.IsKeyboardFocusable = &focusable
	return f
}

func (f *fakeNative) withDelay(d time.Duration) *fakeNative {
	f.readDelay = d
	return f
}

// addChild appends a child after construction, safely against a
// concurrent walk.
func (f *fakeNative) addChild(c *fakeNative) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.children = append(f.children, c)
}

func (f *fakeNative) wait(ctx context.Context) error {
	if f.readDelay <= 0 {
		return nil
	}
	select {
	case <-time.After(f.readDelay):
		return nil
	case <-ctx.Done():
		return TimeoutError("fake native call timed out").WithCause(ctx.Err())
	}
}

func (f *fakeNative) Role(ctx context.Context) (string, error) {
	if f.dead {
		return "", PlatformError("element no longer exists", nil)
	}
	return f.attrs.Role, nil
}

func (f *fakeNative) Name(ctx context.Context) (string, error) {
	if f.dead {
		return "", PlatformError("element no longer exists", nil)
	}
	return f.attrs.Name, nil
}

func (f *fakeNative) Attributes(ctx context.Context, mode PropertyMode, includeBounds bool) (model.Attributes, error) {
	if f.dead {
		return model.Attributes{}, PlatformError("element no longer exists", nil)
	}
	if err := f.wait(ctx); err != nil {
		// partial read: role survived, the rest did not
		return model.Attributes{Role: f.attrs.Role}, err
	}

	attrs := model.Attributes{Role: f.attrs.Role, Name: f.attrs.Name}
	switch mode {
	case PropertyModeComplete:
		attrs = f.attrs
		attrs.Bounds = nil
	case PropertyModeSmart:
		if model.HasTextValue(f.attrs.Role) {
			attrs.Value = f.attrs.Value
		}
	}
	attrs.IsKeyboardFocusable = f.attrs.IsKeyboardFocusable
	if includeBounds {
		attrs.Bounds = f.attrs.Bounds
	}
	return attrs, nil
}

func (f *fakeNative) Children(ctx context.Context) ([]Native, error) {
	if f.dead {
		return nil, PlatformError("element no longer exists", nil)
	}
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Native, 0, len(f.children))
	for _, c := range f.children {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeNative) Bounds(ctx context.Context) (model.Rect, error) {
	if f.dead {
		return model.Rect{}, PlatformError("element no longer exists", nil)
	}
	if f.attrs.Bounds == nil {
		return model.Rect{}, UnsupportedOperation("bounds")
	}
	return *f.attrs.Bounds, nil
}

func (f *fakeNative) PID() int32 { return f.pid }

func (f *fakeNative) Focus(ctx context.Context) error {
	if f.dead {
		return PlatformError("element no longer exists", nil)
	}
	return nil
}

func (f *fakeNative) Activate(ctx context.Context) error { return nil }

// fakeClipboard is an in-memory clipboard.
type fakeClipboard struct {
	mu   sync.Mutex
	text string
}

func (c *fakeClipboard) GetText(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text, nil
}

func (c *fakeClipboard) SetText(ctx context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	return nil
}

func (c *fakeClipboard) Clear(ctx context.Context) error {
	return c.SetText(ctx, "")
}

// fakeEngine records every input primitive it is asked to issue, so tests
// can assert exact native-event sequences.
type fakeEngine struct {
	mu      sync.Mutex
	ops     []string
	cursorX int
	cursorY int

	apps     map[string]*fakeNative
	root     *fakeNative
	monitors []Monitor
	clip     fakeClipboard
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		apps: make(map[string]*fakeNative),
		root: newFakeNode(model.RoleGroup, "desktop"),
		monitors: []Monitor{
			{ID: "0", Name: "Built-in", IsPrimary: true, Width: 1920, Height: 1080, ScaleFactor: 1},
		},
	}
}

func (e *fakeEngine) record(format string, args ...any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ops = append(e.ops, fmt.Sprintf(format, args...))
}

func (e *fakeEngine) recorded() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.ops...)
}

func (e *fakeEngine) ClickAt(ctx context.Context, x, y int, button MouseButton, count int) error {
	e.record("click %d,%d %s x%d", x, y, button, count)
	return nil
}

func (e *fakeEngine) MouseDown(ctx context.Context, x, y int, button MouseButton) error {
	e.record("down %d,%d %s", x, y, button)
	return nil
}

func (e *fakeEngine) MouseUp(ctx context.Context, x, y int, button MouseButton) error {
	e.record("up %d,%d %s", x, y, button)
	return nil
}

func (e *fakeEngine) MoveMouse(ctx context.Context, x, y int) error {
	e.record("move %d,%d", x, y)
	e.mu.Lock()
	e.cursorX, e.cursorY = x, y
	e.mu.Unlock()
	return nil
}

func (e *fakeEngine) CursorPosition(ctx context.Context) (int, int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursorX, e.cursorY, nil
}

func (e *fakeEngine) ScrollAt(ctx context.Context, x, y int, dx, dy float64) error {
	e.record("scroll %d,%d %g,%g", x, y, dx, dy)
	return nil
}

func (e *fakeEngine) TypeText(ctx context.Context, text string, delay time.Duration) error {
	e.record("type %q", text)
	return nil
}

func (e *fakeEngine) KeyCombo(ctx context.Context, keys []string) error {
	e.record("combo %v", keys)
	return nil
}

func (e *fakeEngine) RootElement(ctx context.Context) (*Element, error) {
	return WrapElement(e, e.root), nil
}

func (e *fakeEngine) Applications(ctx context.Context) ([]*Element, error) {
	var out []*Element
	for _, app := range e.apps {
		out = append(out, WrapElement(e, app))
	}
	return out, nil
}

func (e *fakeEngine) ApplicationByName(ctx context.Context, name string) (*Element, error) {
	app, ok := e.apps[name]
	if !ok {
		return nil, ElementNotFound(fmt.Sprintf("no application named %q", name))
	}
	return WrapElement(e, app), nil
}

func (e *fakeEngine) ApplicationByPID(ctx context.Context, pid int32, timeout time.Duration) (*Element, error) {
	for _, app := range e.apps {
		if app.pid == pid {
			return WrapElement(e, app), nil
		}
	}
	return nil, ElementNotFound(fmt.Sprintf("no application with pid %d", pid))
}

func (e *fakeEngine) Windows(ctx context.Context, pid int32) ([]model.Window, error) {
	return nil, nil
}

func (e *fakeEngine) ActiveWindow(ctx context.Context) (*Element, error) {
	return nil, UnsupportedOperation("active window")
}

func (e *fakeEngine) OpenApplication(ctx context.Context, name string) (*Element, error) {
	return nil, UnsupportedOperation("open application")
}

func (e *fakeEngine) ActivateApplication(ctx context.Context, name string) error {
	e.record("activate %s", name)
	return nil
}

func (e *fakeEngine) OpenURL(ctx context.Context, url, browser string) error {
	e.record("openurl %s", url)
	return nil
}

func (e *fakeEngine) OpenFile(ctx context.Context, path string) error {
	e.record("openfile %s", path)
	return nil
}

func (e *fakeEngine) WindowRoot(ctx context.Context, pid int32, title string) (*Element, error) {
	for _, app := range e.apps {
		if app.pid == pid {
			return WrapElement(e, app), nil
		}
	}
	return nil, ElementNotFound(fmt.Sprintf("no window for pid %d", pid))
}

func (e *fakeEngine) Monitors(ctx context.Context) ([]Monitor, error) {
	return e.monitors, nil
}

func (e *fakeEngine) CaptureMonitor(ctx context.Context, m Monitor) (*Screenshot, error) {
	e.record("capture %s", m.ID)
	return &Screenshot{
		Width:   4,
		Height:  4,
		RGBA:    make([]byte, 4*4*4),
		Monitor: m,
	}, nil
}

func (e *fakeEngine) Clipboard() Clipboard { return &e.clip }

func (e *fakeEngine) Overlay() Overlay { return NoopOverlay{} }

func (e *fakeEngine) SetZoom(ctx context.Context, percent int) error {
	e.record("zoom %d", percent)
	return nil
}

func (e *fakeEngine) Close() error { return nil }
