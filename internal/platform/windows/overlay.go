//go:build windows

package windows

import (
	"context"
	"time"

	"github.com/deskdriver/deskdriver/internal/model"
	"github.com/deskdriver/deskdriver/internal/platform"
)

var (
	procInvalidateRect = user32.NewProc("InvalidateRect")

	procCreatePen      = gdi32.NewProc("CreatePen")
	procGetStockObject = gdi32.NewProc("GetStockObject")
	procRectangle      = gdi32.NewProc("Rectangle")
)

const (
	psSolid   = 0
	nullBrush = 5

	highlightRed   = 0x000000FF
	highlightWidth = 3
)

// Overlay draws a red frame directly on the screen device context. The
// frame is unmanaged pixels, so anything repainting beneath it erases it;
// Clear forces that repaint.
type Overlay struct{}

func NewOverlay() *Overlay {
	return &Overlay{}
}

// Highlight frames bounds on screen for the duration, then repaints.
// A cancelled context removes the frame early.
func (o *Overlay) Highlight(ctx context.Context, bounds model.Rect, d time.Duration) error {
	if bounds.Width <= 0 || bounds.Height <= 0 {
		return platform.InvalidArgument("highlight bounds must have positive area")
	}
	if err := o.draw(bounds); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
	return o.Clear(ctx)
}

func (o *Overlay) draw(bounds model.Rect) error {
	screen, _, _ := procGetDC.Call(0)
	if screen == 0 {
		return platform.PlatformError("acquire screen device context", nil)
	}
	defer procReleaseDC.Call(0, screen)

	pen, _, lastErr := procCreatePen.Call(psSolid, highlightWidth, highlightRed)
	if pen == 0 {
		return platform.PlatformError("create highlight pen", lastErr)
	}
	defer procDeleteObject.Call(pen)

	oldPen, _, _ := procSelectObject.Call(screen, pen)
	defer procSelectObject.Call(screen, oldPen)

	brush, _, _ := procGetStockObject.Call(nullBrush)
	oldBrush, _, _ := procSelectObject.Call(screen, brush)
	defer procSelectObject.Call(screen, oldBrush)

	if ok, _, lastErr := procRectangle.Call(screen,
		uintptr(bounds.X), uintptr(bounds.Y),
		uintptr(bounds.X+bounds.Width), uintptr(bounds.Y+bounds.Height)); ok == 0 {
		return platform.PlatformError("draw highlight", lastErr)
	}
	return nil
}

// Clear invalidates every window so the desktop repaints over the frame.
func (o *Overlay) Clear(ctx context.Context) error {
	procInvalidateRect.Call(0, 0, 1)
	return nil
}
