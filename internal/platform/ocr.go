package platform

import (
	"context"
	"image"

	"github.com/deskdriver/deskdriver/internal/model"
)

// OCRService is the external text-extraction collaborator. The engine never
// implements recognition itself; it hands frames over and maps the
// coordinates that come back.
type OCRService interface {
	// Recognize extracts plain text from an image.
	Recognize(ctx context.Context, img image.Image) (string, error)

	// RecognizeWords extracts words with their pixel-space boxes, in
	// reading order.
	RecognizeWords(ctx context.Context, img image.Image) ([]OCRWord, error)
}

// OCRWord is one recognized token with its location. Bounds are in the
// coordinate space of the image that was recognized until mapped.
type OCRWord struct {
	Text       string     `yaml:"text"             json:"text"`
	Bounds     model.Rect `yaml:"bounds"           json:"bounds"`
	Confidence float64    `yaml:"conf,omitempty"   json:"conf,omitempty"`
}

// MapToScreen converts an OCR-local pixel point to absolute logical screen
// coordinates given the window origin and the DPI scale (screenshot pixels
// per logical pixel on each axis). The mapping is exact arithmetic, not a
// platform call.
func MapToScreen(localX, localY, windowX, windowY, scaleX, scaleY float64) (float64, float64) {
	return windowX + localX/scaleX, windowY + localY/scaleY
}

// MapToLocal is the inverse of MapToScreen.
func MapToLocal(absX, absY, windowX, windowY, scaleX, scaleY float64) (float64, float64) {
	return (absX - windowX) * scaleX, (absY - windowY) * scaleY
}

// mapWordToScreen rewrites one word's bounds from OCR-local pixels to
// absolute screen coordinates.
func mapWordToScreen(w OCRWord, windowX, windowY, scaleX, scaleY float64) OCRWord {
	x, y := MapToScreen(w.Bounds.X, w.Bounds.Y, windowX, windowY, scaleX, scaleY)
	w.Bounds = model.Rect{
		X:      x,
		Y:      y,
		Width:  w.Bounds.Width / scaleX,
		Height: w.Bounds.Height / scaleY,
	}
	return w
}
