//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation -framework Foundation
#include <CoreGraphics/CoreGraphics.h>
#include <CoreFoundation/CoreFoundation.h>
#include <stdlib.h>

typedef struct {
	int pid;
	int layer;
	unsigned int windowID;
	double x, y, w, h;
	char *appName;
	char *title;
} CGWindowInfo;

static char *copy_cf_string(CFStringRef str) {
	if (!str) return NULL;
	CFIndex max = CFStringGetMaximumSizeForEncoding(CFStringGetLength(str), kCFStringEncodingUTF8) + 1;
	char *buf = malloc(max);
	if (buf && !CFStringGetCString(str, buf, max, kCFStringEncodingUTF8)) {
		free(buf);
		return NULL;
	}
	return buf;
}

// List on-screen windows front to back.
static int cg_list_windows(CGWindowInfo **out, int *count) {
	*out = NULL;
	*count = 0;
	CFArrayRef list = CGWindowListCopyWindowInfo(
		kCGWindowListOptionOnScreenOnly | kCGWindowListExcludeDesktopElements,
		kCGNullWindowID);
	if (!list) return -1;

	CFIndex n = CFArrayGetCount(list);
	CGWindowInfo *items = calloc(n > 0 ? n : 1, sizeof(CGWindowInfo));
	if (!items) {
		CFRelease(list);
		return -1;
	}

	int kept = 0;
	for (CFIndex i = 0; i < n; i++) {
		CFDictionaryRef info = CFArrayGetValueAtIndex(list, i);

		int layer = 0;
		CFNumberRef layerNum = CFDictionaryGetValue(info, kCGWindowLayer);
		if (layerNum) CFNumberGetValue(layerNum, kCFNumberIntType, &layer);

		int pid = 0;
		CFNumberRef pidNum = CFDictionaryGetValue(info, kCGWindowOwnerPID);
		if (pidNum) CFNumberGetValue(pidNum, kCFNumberIntType, &pid);

		unsigned int windowID = 0;
		CFNumberRef idNum = CFDictionaryGetValue(info, kCGWindowNumber);
		if (idNum) CFNumberGetValue(idNum, kCFNumberIntType, &windowID);

		CGRect bounds = CGRectZero;
		CFDictionaryRef boundsDict = CFDictionaryGetValue(info, kCGWindowBounds);
		if (boundsDict) CGRectMakeWithDictionaryRepresentation(boundsDict, &bounds);

		CGWindowInfo *w = &items[kept++];
		w->pid = pid;
		w->layer = layer;
		w->windowID = windowID;
		w->x = bounds.origin.x;
		w->y = bounds.origin.y;
		w->w = bounds.size.width;
		w->h = bounds.size.height;
		w->appName = copy_cf_string(CFDictionaryGetValue(info, kCGWindowOwnerName));
		w->title = copy_cf_string(CFDictionaryGetValue(info, kCGWindowName));
	}
	CFRelease(list);

	*out = items;
	*count = kept;
	return 0;
}

static void cg_free_windows(CGWindowInfo *items, int count) {
	if (!items) return;
	for (int i = 0; i < count; i++) {
		free(items[i].appName);
		free(items[i].title);
	}
	free(items);
}
*/
import "C"

import (
	"context"
	"unsafe"

	"github.com/deskdriver/deskdriver/internal/model"
	"github.com/deskdriver/deskdriver/internal/platform"
)

// listWindows enumerates on-screen application windows front to back. Must
// run on the engine worker.
func listWindows() ([]model.Window, error) {
	var cWindows *C.CGWindowInfo
	var cCount C.int
	if C.cg_list_windows(&cWindows, &cCount) != 0 {
		return nil, platform.PlatformError("enumerate windows", nil)
	}
	defer C.cg_free_windows(cWindows, cCount)

	count := int(cCount)
	if count == 0 {
		return nil, nil
	}

	slice := unsafe.Slice(cWindows, count)
	windows := make([]model.Window, 0, count)
	for _, cw := range slice {
		// layer 0 is the real application window layer; everything else
		// is menus, the dock, and overlays
		if int(cw.layer) != 0 {
			continue
		}
		windows = append(windows, model.Window{
			App:   C.GoString(cw.appName),
			PID:   int32(cw.pid),
			Title: C.GoString(cw.title),
			Bounds: &model.Rect{
				X:      float64(cw.x),
				Y:      float64(cw.y),
				Width:  float64(cw.w),
				Height: float64(cw.h),
			},
		})
	}
	return windows, nil
}

// Windows lists the on-screen windows of one process, front to back. The
// frontmost process owns the focused window.
func (e *Engine) Windows(ctx context.Context, pid int32) ([]model.Window, error) {
	var out []model.Window
	err := e.do(ctx, func() error {
		windows, err := listWindows()
		if err != nil {
			return err
		}
		frontPID := frontmostPID()
		focusAssigned := false
		for _, w := range windows {
			if pid != 0 && w.PID != pid {
				continue
			}
			if w.PID == frontPID && !focusAssigned {
				w.Focused = true
				focusAssigned = true
			}
			out = append(out, w)
		}
		return nil
	})
	return out, err
}
