//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation
#include <CoreGraphics/CoreGraphics.h>
#include <stdlib.h>

typedef struct {
	unsigned int displayID;
	int isMain;
	int isBuiltin;
	double x, y, w, h;
	double scale;
} DisplayInfo;

static int cg_list_displays(DisplayInfo **out, int *count) {
	*out = NULL;
	*count = 0;

	uint32_t n = 0;
	if (CGGetActiveDisplayList(0, NULL, &n) != kCGErrorSuccess || n == 0) {
		return -1;
	}
	CGDirectDisplayID *ids = malloc(sizeof(CGDirectDisplayID) * n);
	if (!ids) return -1;
	if (CGGetActiveDisplayList(n, ids, &n) != kCGErrorSuccess) {
		free(ids);
		return -1;
	}

	DisplayInfo *items = calloc(n, sizeof(DisplayInfo));
	if (!items) {
		free(ids);
		return -1;
	}
	for (uint32_t i = 0; i < n; i++) {
		CGDirectDisplayID id = ids[i];
		CGRect bounds = CGDisplayBounds(id);
		DisplayInfo *d = &items[i];
		d->displayID = id;
		d->isMain = CGDisplayIsMain(id);
		d->isBuiltin = CGDisplayIsBuiltin(id);
		d->x = bounds.origin.x;
		d->y = bounds.origin.y;
		d->w = bounds.size.width;
		d->h = bounds.size.height;
		// pixel width over point width is the backing scale
		size_t px = CGDisplayPixelsWide(id);
		d->scale = bounds.size.width > 0 ? (double)px / bounds.size.width : 1.0;
	}
	free(ids);

	*out = items;
	*count = (int)n;
	return 0;
}

// Capture one display into a tightly packed RGBA buffer.
static int cg_capture_display(unsigned int displayID, unsigned char **out, int *w, int *h) {
	*out = NULL;
	CGImageRef image = CGDisplayCreateImage((CGDirectDisplayID)displayID);
	if (!image) return -1;

	size_t width = CGImageGetWidth(image);
	size_t height = CGImageGetHeight(image);
	unsigned char *buf = malloc(width * height * 4);
	if (!buf) {
		CGImageRelease(image);
		return -1;
	}

	CGColorSpaceRef space = CGColorSpaceCreateDeviceRGB();
	CGContextRef ctx = CGBitmapContextCreate(buf, width, height, 8, width * 4, space,
		kCGImageAlphaPremultipliedLast | kCGBitmapByteOrder32Big);
	CGColorSpaceRelease(space);
	if (!ctx) {
		free(buf);
		CGImageRelease(image);
		return -1;
	}
	CGContextDrawImage(ctx, CGRectMake(0, 0, width, height), image);
	CGContextRelease(ctx);
	CGImageRelease(image);

	*out = buf;
	*w = (int)width;
	*h = (int)height;
	return 0;
}

static int cg_check_screen_recording(void) {
	return CGPreflightScreenCaptureAccess() ? 1 : 0;
}
*/
import "C"

import (
	"context"
	"fmt"
	"strconv"
	"unsafe"

	"github.com/deskdriver/deskdriver/internal/platform"
)

// CheckScreenRecordingPermission reports whether the process may capture
// the screen, with grant instructions when it may not.
func CheckScreenRecordingPermission() error {
	if C.cg_check_screen_recording() == 0 {
		return platform.PlatformError(
			"screen recording permission required\n\n"+
				"Grant permission at: System Settings > Privacy & Security > Screen Recording\n"+
				"Add your terminal app (e.g. Terminal.app, iTerm2, or the IDE running this command).\n"+
				"Then restart the terminal and try again.", nil)
	}
	return nil
}

// Monitors lists active displays. The id is the CGDirectDisplayID, stable
// only until the display topology changes.
func (e *Engine) Monitors(ctx context.Context) ([]platform.Monitor, error) {
	var monitors []platform.Monitor
	err := e.do(ctx, func() error {
		var cDisplays *C.DisplayInfo
		var cCount C.int
		if C.cg_list_displays(&cDisplays, &cCount) != 0 {
			return platform.PlatformError("enumerate displays", nil)
		}
		defer C.free(unsafe.Pointer(cDisplays))

		slice := unsafe.Slice(cDisplays, int(cCount))
		monitors = make([]platform.Monitor, 0, int(cCount))
		for _, d := range slice {
			name := fmt.Sprintf("Display %d", uint32(d.displayID))
			if d.isBuiltin != 0 {
				name = "Built-in Display"
			}
			monitors = append(monitors, platform.Monitor{
				ID:          strconv.FormatUint(uint64(d.displayID), 10),
				Name:        name,
				IsPrimary:   d.isMain != 0,
				X:           int(d.x),
				Y:           int(d.y),
				Width:       int(d.w),
				Height:      int(d.h),
				ScaleFactor: float64(d.scale),
			})
		}
		return nil
	})
	return monitors, err
}

// CaptureMonitor grabs the current frame of one display as RGBA pixels.
// The frame is in physical pixels; on a retina display it is larger than
// the monitor's logical size by the scale factor.
func (e *Engine) CaptureMonitor(ctx context.Context, m platform.Monitor) (*platform.Screenshot, error) {
	if err := CheckScreenRecordingPermission(); err != nil {
		return nil, err
	}
	displayID, err := strconv.ParseUint(m.ID, 10, 32)
	if err != nil {
		return nil, platform.InvalidArgument(fmt.Sprintf("invalid display id %q", m.ID))
	}

	var shot *platform.Screenshot
	err = e.do(ctx, func() error {
		var buf *C.uchar
		var w, h C.int
		if C.cg_capture_display(C.uint(displayID), &buf, &w, &h) != 0 {
			return platform.PlatformError(fmt.Sprintf("capture display %s", m.ID), nil)
		}
		defer C.free(unsafe.Pointer(buf))

		size := int(w) * int(h) * 4
		shot = &platform.Screenshot{
			Width:   int(w),
			Height:  int(h),
			RGBA:    C.GoBytes(unsafe.Pointer(buf), C.int(size)),
			Monitor: m,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shot, nil
}
