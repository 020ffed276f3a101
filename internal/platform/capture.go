package platform

import (
	"bytes"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// Screenshot is one captured frame: raw 8-bit RGBA pixels plus the monitor
// they came from.
type Screenshot struct {
	Width   int
	Height  int
	RGBA    []byte
	Monitor Monitor
}

// Image wraps the raw pixels as an image without copying.
func (s *Screenshot) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    s.RGBA,
		Stride: s.Width * 4,
		Rect:   image.Rect(0, 0, s.Width, s.Height),
	}
}

// EncodePNG renders the screenshot as PNG bytes.
func (s *Screenshot) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.Image()); err != nil {
		return nil, PlatformError("encode screenshot", err)
	}
	return buf.Bytes(), nil
}

// Scale resamples the screenshot by the given factor. Factors at or above
// one, or not above zero, return the screenshot unchanged. Downscaling
// before OCR or transport cuts payload size with little text loss.
func (s *Screenshot) Scale(factor float64) *Screenshot {
	if factor <= 0 || factor >= 1 {
		return s
	}
	w := int(float64(s.Width) * factor)
	h := int(float64(s.Height) * factor)
	if w < 1 || h < 1 {
		return s
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), s.Image(), s.Image().Bounds(), draw.Over, nil)
	return &Screenshot{Width: w, Height: h, RGBA: dst.Pix, Monitor: s.Monitor}
}

// Crop returns the pixels inside the rectangle, clamped to the frame.
func (s *Screenshot) Crop(x, y, w, h int) *Screenshot {
	r := image.Rect(x, y, x+w, y+h).Intersect(image.Rect(0, 0, s.Width, s.Height))
	if r.Empty() {
		return &Screenshot{Width: 0, Height: 0, Monitor: s.Monitor}
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Copy(dst, image.Point{}, s.Image(), r, draw.Src, nil)
	return &Screenshot{Width: r.Dx(), Height: r.Dy(), RGBA: dst.Pix, Monitor: s.Monitor}
}
