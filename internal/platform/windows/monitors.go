//go:build windows

package windows

import (
	"context"
	"fmt"
	"syscall"
	"unsafe"

	"github.com/deskdriver/deskdriver/internal/platform"
)

var (
	gdi32  = syscall.NewLazyDLL("gdi32.dll")
	shcore = syscall.NewLazyDLL("shcore.dll")

	procEnumDisplayMonitors = user32.NewProc("EnumDisplayMonitors")
	procGetMonitorInfoW     = user32.NewProc("GetMonitorInfoW")
	procGetDC               = user32.NewProc("GetDC")
	procReleaseDC           = user32.NewProc("ReleaseDC")
	procGetDpiForMonitor    = shcore.NewProc("GetDpiForMonitor")

	procCreateCompatibleDC = gdi32.NewProc("CreateCompatibleDC")
	procCreateDIBSection   = gdi32.NewProc("CreateDIBSection")
	procSelectObject       = gdi32.NewProc("SelectObject")
	procBitBlt             = gdi32.NewProc("BitBlt")
	procDeleteDC           = gdi32.NewProc("DeleteDC")
	procDeleteObject       = gdi32.NewProc("DeleteObject")
)

const (
	monitorinfofPrimary = 1
	mdtEffectiveDPI     = 0

	srcCopy    = 0x00CC0020
	captureBlt = 0x40000000

	biRGB        = 0
	dibRGBColors = 0
)

type monitorInfoEx struct {
	Size    uint32
	Monitor winRect
	Work    winRect
	Flags   uint32
	Device  [32]uint16
}

type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	Colors [1]uint32
}

type monitorEntry struct {
	handle  uintptr
	info    monitorInfoEx
	scale   float64
	primary bool
}

// enumMonitorsResult accumulates during one EnumDisplayMonitors pass.
// Enumeration only runs on the engine worker, so a package var is safe.
// The callback is registered once because NewCallback slots are never
// released.
var enumMonitorsResult []monitorEntry

var enumMonitorsCallback = syscall.NewCallback(func(hMonitor, hdc uintptr, rect *winRect, _ uintptr) uintptr {
	var info monitorInfoEx
	info.Size = uint32(unsafe.Sizeof(info))
	if ok, _, _ := procGetMonitorInfoW.Call(hMonitor, uintptr(unsafe.Pointer(&info))); ok == 0 {
		return 1
	}
	scale := 1.0
	if procGetDpiForMonitor.Find() == nil {
		var dpiX, dpiY uint32
		if hr, _, _ := procGetDpiForMonitor.Call(hMonitor, mdtEffectiveDPI,
			uintptr(unsafe.Pointer(&dpiX)), uintptr(unsafe.Pointer(&dpiY))); hr == 0 && dpiX > 0 {
			scale = float64(dpiX) / 96.0
		}
	}
	enumMonitorsResult = append(enumMonitorsResult, monitorEntry{
		handle:  hMonitor,
		info:    info,
		scale:   scale,
		primary: info.Flags&monitorinfofPrimary != 0,
	})
	return 1
})

// listMonitors enumerates the active displays. Must run on the engine
// worker; EnumDisplayMonitors delivers its callback on the calling thread.
func listMonitors() ([]monitorEntry, error) {
	enumMonitorsResult = nil
	defer func() { enumMonitorsResult = nil }()
	if ok, _, lastErr := procEnumDisplayMonitors.Call(0, 0, enumMonitorsCallback, 0); ok == 0 {
		return nil, platform.PlatformError("enumerate monitors", lastErr)
	}
	return enumMonitorsResult, nil
}

func (m monitorEntry) deviceName() string {
	return syscall.UTF16ToString(m.info.Device[:])
}

// Monitors lists active displays. The id is the GDI device name, such as
// `\\.\DISPLAY1`, stable until the display topology changes.
func (e *Engine) Monitors(ctx context.Context) ([]platform.Monitor, error) {
	var out []platform.Monitor
	err := e.do(ctx, func() error {
		monitors, err := listMonitors()
		if err != nil {
			return err
		}
		out = make([]platform.Monitor, 0, len(monitors))
		for _, m := range monitors {
			r := m.info.Monitor
			out = append(out, platform.Monitor{
				ID:          m.deviceName(),
				Name:        m.deviceName(),
				IsPrimary:   m.primary,
				X:           int(r.Left),
				Y:           int(r.Top),
				Width:       int(r.Right - r.Left),
				Height:      int(r.Bottom - r.Top),
				ScaleFactor: m.scale,
			})
		}
		return nil
	})
	return out, err
}

// CaptureMonitor grabs the monitor's current frame by blitting the screen
// device context into a DIB section, then swizzling BGRA to RGBA.
func (e *Engine) CaptureMonitor(ctx context.Context, m platform.Monitor) (*platform.Screenshot, error) {
	var shot *platform.Screenshot
	err := e.do(ctx, func() error {
		width, height := m.Width, m.Height
		if width <= 0 || height <= 0 {
			return platform.InvalidArgument(fmt.Sprintf("monitor %q has no area", m.ID))
		}

		screen, _, _ := procGetDC.Call(0)
		if screen == 0 {
			return platform.PlatformError("acquire screen device context", nil)
		}
		defer procReleaseDC.Call(0, screen)

		memDC, _, _ := procCreateCompatibleDC.Call(screen)
		if memDC == 0 {
			return platform.PlatformError("create capture device context", nil)
		}
		defer procDeleteDC.Call(memDC)

		// negative height = top-down rows
		info := bitmapInfo{Header: bitmapInfoHeader{
			Width:    int32(width),
			Height:   -int32(height),
			Planes:   1,
			BitCount: 32,
		}}
		info.Header.Size = uint32(unsafe.Sizeof(info.Header))

		var bits unsafe.Pointer
		bitmap, _, lastErr := procCreateDIBSection.Call(memDC,
			uintptr(unsafe.Pointer(&info)), dibRGBColors,
			uintptr(unsafe.Pointer(&bits)), 0, 0)
		if bitmap == 0 || bits == nil {
			return platform.PlatformError("allocate capture bitmap", lastErr)
		}
		defer procDeleteObject.Call(bitmap)

		old, _, _ := procSelectObject.Call(memDC, bitmap)
		defer procSelectObject.Call(memDC, old)

		if ok, _, lastErr := procBitBlt.Call(memDC, 0, 0, uintptr(width), uintptr(height),
			screen, uintptr(m.X), uintptr(m.Y), srcCopy|captureBlt); ok == 0 {
			return platform.PlatformError(fmt.Sprintf("capture monitor %q", m.ID), lastErr)
		}

		src := unsafe.Slice((*byte)(bits), width*height*4)
		rgba := make([]byte, len(src))
		for i := 0; i < len(src); i += 4 {
			rgba[i] = src[i+2]
			rgba[i+1] = src[i+1]
			rgba[i+2] = src[i]
			rgba[i+3] = 0xFF
		}
		shot = &platform.Screenshot{Width: width, Height: height, RGBA: rgba, Monitor: m}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shot, nil
}
