package platform

import (
	"math"
	"testing"

	"github.com/deskdriver/deskdriver/internal/model"
)

func TestMapToScreen(t *testing.T) {
	// a 2x retina screenshot of a window at (100, 50): a pixel 400 wide
	// into the capture is 200 logical points from the window edge
	x, y := MapToScreen(400, 300, 100, 50, 2, 2)
	if x != 300 || y != 200 {
		t.Errorf("MapToScreen = %g,%g, want 300,200", x, y)
	}

	// unity scale passes through with only the origin shift
	x, y = MapToScreen(10, 20, 5, 5, 1, 1)
	if x != 15 || y != 25 {
		t.Errorf("MapToScreen = %g,%g, want 15,25", x, y)
	}
}

func TestMapToScreen_RoundTrip(t *testing.T) {
	points := [][2]float64{{0, 0}, {13, 17}, {1279.5, 719.25}, {4096, 2160}}
	scales := [][2]float64{{1, 1}, {2, 2}, {1.5, 1.5}, {1.25, 2.5}}

	const winX, winY = 123.0, 456.0
	for _, p := range points {
		for _, s := range scales {
			absX, absY := MapToScreen(p[0], p[1], winX, winY, s[0], s[1])
			backX, backY := MapToLocal(absX, absY, winX, winY, s[0], s[1])
			if math.Abs(backX-p[0]) > 1e-9 || math.Abs(backY-p[1]) > 1e-9 {
				t.Errorf("scale %v: point %v round-tripped to %g,%g", s, p, backX, backY)
			}
		}
	}
}

func TestMapWordToScreen_ScalesBounds(t *testing.T) {
	w := OCRWord{
		Text:   "Save",
		Bounds: model.Rect{X: 200, Y: 100, Width: 80, Height: 30},
	}
	mapped := mapWordToScreen(w, 1000, 500, 2, 2)

	want := model.Rect{X: 1100, Y: 550, Width: 40, Height: 15}
	if mapped.Bounds != want {
		t.Errorf("mapped bounds = %+v, want %+v", mapped.Bounds, want)
	}
	if mapped.Text != "Save" {
		t.Errorf("text must survive mapping, got %q", mapped.Text)
	}
}
