package platform

import (
	"context"
	"time"

	"github.com/deskdriver/deskdriver/internal/model"
)

// Input issues synthetic input at screen coordinates. Implementations talk
// to the OS input queue; all applicability checks (valid bounds, known
// direction) happen in the Dispatcher before these are reached.
type Input interface {
	// ClickAt presses and releases the button count times at the point.
	ClickAt(ctx context.Context, x, y int, button MouseButton, count int) error

	// MouseDown presses the button at the point without releasing.
	MouseDown(ctx context.Context, x, y int, button MouseButton) error

	// MouseUp releases the button at the point.
	MouseUp(ctx context.Context, x, y int, button MouseButton) error

	// MoveMouse moves the pointer to the point.
	MoveMouse(ctx context.Context, x, y int) error

	// CursorPosition returns the current pointer location.
	CursorPosition(ctx context.Context) (int, int, error)

	// ScrollAt scrolls by the signed deltas at the point. Negative dy
	// scrolls up, negative dx scrolls left.
	ScrollAt(ctx context.Context, x, y int, dx, dy float64) error

	// TypeText sends per-character key events for the text.
	TypeText(ctx context.Context, text string, delay time.Duration) error

	// KeyCombo presses a key combination such as "cmd+shift+t" or
	// "ctrl+c". Key names are normalized by the dispatcher.
	KeyCombo(ctx context.Context, keys []string) error
}

// Engine is the per-OS automation backend. One engine is constructed per
// process by the factory and owns its native connection exclusively; its
// native calls are serialized behind an executor so concurrent callers
// interleave at the request level, never inside the native API.
type Engine interface {
	Input

	// RootElement returns the desktop root.
	RootElement(ctx context.Context) (*Element, error)

	// Applications enumerates running applications that expose UI.
	Applications(ctx context.Context) ([]*Element, error)

	// ApplicationByName resolves an application by name.
	ApplicationByName(ctx context.Context, name string) (*Element, error)

	// ApplicationByPID resolves an application by process id. A nonzero
	// timeout waits for the application to expose a UI element, since a
	// freshly spawned process may not have created its window yet.
	ApplicationByPID(ctx context.Context, pid int32, timeout time.Duration) (*Element, error)

	// Windows lists top-level windows, all of them or one process's.
	Windows(ctx context.Context, pid int32) ([]model.Window, error)

	// ActiveWindow returns the focused top-level window element.
	ActiveWindow(ctx context.Context) (*Element, error)

	// OpenApplication launches an application and returns its element
	// once it appears.
	OpenApplication(ctx context.Context, name string) (*Element, error)

	// ActivateApplication brings an application's frontmost window to the
	// foreground.
	ActivateApplication(ctx context.Context, name string) error

	// OpenURL opens a URL, in the named browser or the default one.
	OpenURL(ctx context.Context, url, browser string) error

	// OpenFile opens a file with its default handler.
	OpenFile(ctx context.Context, path string) error

	// WindowRoot resolves the capture root for a process: the window
	// whose title contains title, or the first window when title is "".
	WindowRoot(ctx context.Context, pid int32, title string) (*Element, error)

	// Monitors enumerates displays.
	Monitors(ctx context.Context) ([]Monitor, error)

	// CaptureMonitor grabs the monitor's current frame.
	CaptureMonitor(ctx context.Context, m Monitor) (*Screenshot, error)

	// Clipboard returns the system clipboard.
	Clipboard() Clipboard

	// Overlay returns the screen-highlight collaborator. Backends without
	// one return a stub whose methods report UnsupportedOperation.
	Overlay() Overlay

	// SetZoom adjusts the frontmost application's zoom level via its
	// keyboard chord, to the nearest reachable percentage.
	SetZoom(ctx context.Context, percent int) error

	// Close releases the native connection. Only tests call this; the
	// process-wide engine lives until exit.
	Close() error
}
