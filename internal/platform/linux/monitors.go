//go:build linux

package linux

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/image/draw"

	"github.com/deskdriver/deskdriver/internal/platform"
)

// xrandrGeom matches an active output's geometry, e.g. 1920x1080+1920+0.
var xrandrGeom = regexp.MustCompile(`^(\d+)x(\d+)\+(\d+)\+(\d+)$`)

// parseXrandr extracts the connected, active outputs from xrandr --query
// output. When no output carries the primary flag the first one is
// promoted, so callers always find a primary monitor.
func parseXrandr(out string) []platform.Monitor {
	var monitors []platform.Monitor
	havePrimary := false
	for _, line := range strings.Split(out, "\n") {
		f := strings.Fields(line)
		if len(f) < 3 || f[1] != "connected" {
			continue
		}
		primary := false
		geom := f[2]
		if geom == "primary" {
			if len(f) < 4 {
				continue
			}
			primary = true
			geom = f[3]
		}
		m := xrandrGeom.FindStringSubmatch(geom)
		if m == nil {
			// Connected but inactive, no mode set.
			continue
		}
		w, _ := strconv.Atoi(m[1])
		h, _ := strconv.Atoi(m[2])
		x, _ := strconv.Atoi(m[3])
		y, _ := strconv.Atoi(m[4])
		monitors = append(monitors, platform.Monitor{
			ID:          f[0],
			Name:        f[0],
			IsPrimary:   primary,
			Width:       w,
			Height:      h,
			X:           x,
			Y:           y,
			ScaleFactor: 1.0,
		})
		havePrimary = havePrimary || primary
	}
	if !havePrimary && len(monitors) > 0 {
		monitors[0].IsPrimary = true
	}
	return monitors
}

// Monitors lists outputs via xrandr. X11 hands out logical pixels only,
// so the scale factor is always one.
func (e *Engine) Monitors(ctx context.Context) ([]platform.Monitor, error) {
	if _, err := exec.LookPath("xrandr"); err != nil {
		return nil, platform.UnsupportedOperation("monitor enumeration without xrandr")
	}
	out, err := exec.CommandContext(ctx, "xrandr", "--query").Output()
	if err != nil {
		return nil, platform.PlatformError("xrandr --query", err)
	}
	monitors := parseXrandr(string(out))
	if len(monitors) == 0 {
		return nil, platform.PlatformError("xrandr reported no active outputs", nil)
	}
	return monitors, nil
}

// captureArgs lists the screenshot tools in preference order. Each writes
// a full-desktop PNG to path; gnome-screenshot also works under Wayland
// through the desktop portal.
func captureArgs(path string) [][]string {
	return [][]string{
		{"gnome-screenshot", "-f", path},
		{"scrot", path},
		{"import", "-window", "root", path},
	}
}

func runCaptureTool(ctx context.Context, path string) error {
	for _, argv := range captureArgs(path) {
		if _, err := exec.LookPath(argv[0]); err != nil {
			continue
		}
		return runTool(ctx, argv[0], argv[1:]...)
	}
	return platform.UnsupportedOperation("screen capture without gnome-screenshot, scrot or import")
}

func loadPNG(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, platform.PlatformError("open capture file", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, platform.PlatformError("decode capture file", err)
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(rgba, image.Point{}, img, b, draw.Src, nil)
	return rgba, nil
}

// CaptureMonitor grabs the whole desktop with the first screenshot tool
// on PATH and crops the monitor out of it. None of the tools can target
// a single output directly.
func (e *Engine) CaptureMonitor(ctx context.Context, m platform.Monitor) (*platform.Screenshot, error) {
	if m.Width <= 0 || m.Height <= 0 {
		return nil, platform.InvalidArgument(fmt.Sprintf("monitor %q has no area", m.ID))
	}
	dir, err := os.MkdirTemp("", "deskdriver-capture-")
	if err != nil {
		return nil, platform.PlatformError("create capture directory", err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "desktop.png")

	if err := runCaptureTool(ctx, path); err != nil {
		return nil, err
	}
	rgba, err := loadPNG(path)
	if err != nil {
		return nil, err
	}
	full := &platform.Screenshot{
		Width:   rgba.Rect.Dx(),
		Height:  rgba.Rect.Dy(),
		RGBA:    rgba.Pix,
		Monitor: m,
	}
	shot := full.Crop(m.X, m.Y, m.Width, m.Height)
	if shot.Width == 0 || shot.Height == 0 {
		return nil, platform.PlatformError(fmt.Sprintf("monitor %q lies outside the captured desktop", m.ID), nil)
	}
	return shot, nil
}
