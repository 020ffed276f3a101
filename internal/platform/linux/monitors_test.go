//go:build linux

package linux

import "testing"

const xrandrSample = `Screen 0: minimum 320 x 200, current 4480 x 1440, maximum 16384 x 16384
eDP-1 connected primary 1920x1080+0+360 (normal left inverted right x axis y axis) 344mm x 194mm
   1920x1080     60.02*+  60.01    59.97
HDMI-1 connected 2560x1440+1920+0 (normal left inverted right x axis y axis) 597mm x 336mm
   2560x1440     59.95*+
DP-1 disconnected (normal left inverted right x axis y axis)
DP-2 connected (normal left inverted right x axis y axis)
`

func TestParseXrandr(t *testing.T) {
	monitors := parseXrandr(xrandrSample)
	if len(monitors) != 2 {
		t.Fatalf("expected 2 monitors, got %d: %+v", len(monitors), monitors)
	}

	first := monitors[0]
	if first.ID != "eDP-1" || !first.IsPrimary {
		t.Errorf("first monitor = %+v, want primary eDP-1", first)
	}
	if first.Width != 1920 || first.Height != 1080 || first.X != 0 || first.Y != 360 {
		t.Errorf("eDP-1 geometry = %dx%d+%d+%d", first.Width, first.Height, first.X, first.Y)
	}

	second := monitors[1]
	if second.ID != "HDMI-1" || second.IsPrimary {
		t.Errorf("second monitor = %+v, want secondary HDMI-1", second)
	}
	if second.X != 1920 || second.Y != 0 {
		t.Errorf("HDMI-1 offset = %d,%d, want 1920,0", second.X, second.Y)
	}
	if second.ScaleFactor != 1.0 {
		t.Errorf("scale factor = %v, want 1.0", second.ScaleFactor)
	}
}

func TestParseXrandrPromotesFirstToPrimary(t *testing.T) {
	monitors := parseXrandr("HDMI-1 connected 1280x720+0+0 (normal) 0mm x 0mm\n")
	if len(monitors) != 1 || !monitors[0].IsPrimary {
		t.Fatalf("monitors = %+v, want a single primary", monitors)
	}
}

func TestParseXrandrNoActiveOutputs(t *testing.T) {
	if got := parseXrandr("DP-1 disconnected (normal)\nDP-2 connected (normal)\n"); len(got) != 0 {
		t.Fatalf("expected no monitors, got %+v", got)
	}
}
