package platform

import (
	"context"
	"time"

	"github.com/deskdriver/deskdriver/internal/model"
)

// Overlay draws transient debug highlights on screen. Only the Windows
// backend implements it; everywhere else callers get the stub and branch
// on UnsupportedOperation instead of build tags.
type Overlay interface {
	// Highlight frames the rectangle on screen for the duration.
	Highlight(ctx context.Context, bounds model.Rect, d time.Duration) error

	// Clear removes any highlight early.
	Clear(ctx context.Context) error
}

// NoopOverlay is the stub overlay for backends without one.
type NoopOverlay struct{}

func (NoopOverlay) Highlight(ctx context.Context, bounds model.Rect, d time.Duration) error {
	return UnsupportedOperation("screen highlight")
}

func (NoopOverlay) Clear(ctx context.Context) error {
	return UnsupportedOperation("screen highlight")
}
