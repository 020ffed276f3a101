//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation -framework CoreGraphics -framework Foundation
#include <ApplicationServices/ApplicationServices.h>
#include <CoreFoundation/CoreFoundation.h>
#include <stdlib.h>
#include <string.h>

static AXUIElementRef ax_system_wide(void) {
	return AXUIElementCreateSystemWide();
}

static AXUIElementRef ax_app_element(pid_t pid) {
	return AXUIElementCreateApplication(pid);
}

static pid_t ax_pid(AXUIElementRef elem) {
	pid_t pid = 0;
	if (AXUIElementGetPid(elem, &pid) != kAXErrorSuccess) {
		return 0;
	}
	return pid;
}

// ax_copy_string copies a string-ish attribute into a malloc'd UTF-8 buffer.
// *out stays NULL when the attribute has no value. Numbers and booleans are
// formatted, since AXValue of sliders and checkboxes comes back as CFNumber
// or CFBoolean.
static AXError ax_copy_string(AXUIElementRef elem, const char *attr, char **out) {
	*out = NULL;
	CFStringRef name = CFStringCreateWithCString(NULL, attr, kCFStringEncodingUTF8);
	CFTypeRef value = NULL;
	AXError err = AXUIElementCopyAttributeValue(elem, name, &value);
	CFRelease(name);
	if (err != kAXErrorSuccess || value == NULL) {
		return err;
	}

	if (CFGetTypeID(value) == CFStringGetTypeID()) {
		CFStringRef str = (CFStringRef)value;
		CFIndex max = CFStringGetMaximumSizeForEncoding(CFStringGetLength(str), kCFStringEncodingUTF8) + 1;
		char *buf = malloc(max);
		if (buf != NULL && CFStringGetCString(str, buf, max, kCFStringEncodingUTF8)) {
			*out = buf;
		} else {
			free(buf);
		}
	} else if (CFGetTypeID(value) == CFNumberGetTypeID()) {
		double num = 0;
		CFNumberGetValue((CFNumberRef)value, kCFNumberDoubleType, &num);
		char *buf = malloc(64);
		if (buf != NULL) {
			snprintf(buf, 64, "%g", num);
			*out = buf;
		}
	} else if (CFGetTypeID(value) == CFBooleanGetTypeID()) {
		*out = strdup(CFBooleanGetValue((CFBooleanRef)value) ? "true" : "false");
	}
	CFRelease(value);
	return kAXErrorSuccess;
}

// ax_copy_bool reads a boolean attribute. *out is -1 when the attribute has
// no value or is not a boolean.
static AXError ax_copy_bool(AXUIElementRef elem, const char *attr, int *out) {
	*out = -1;
	CFStringRef name = CFStringCreateWithCString(NULL, attr, kCFStringEncodingUTF8);
	CFTypeRef value = NULL;
	AXError err = AXUIElementCopyAttributeValue(elem, name, &value);
	CFRelease(name);
	if (err != kAXErrorSuccess || value == NULL) {
		return err;
	}
	if (CFGetTypeID(value) == CFBooleanGetTypeID()) {
		*out = CFBooleanGetValue((CFBooleanRef)value) ? 1 : 0;
	}
	CFRelease(value);
	return kAXErrorSuccess;
}

// ax_copy_children copies the retained children into a malloc'd array.
static AXError ax_copy_children(AXUIElementRef elem, const char *attr, AXUIElementRef **out, int *count) {
	*out = NULL;
	*count = 0;
	CFStringRef name = CFStringCreateWithCString(NULL, attr, kCFStringEncodingUTF8);
	CFTypeRef value = NULL;
	AXError err = AXUIElementCopyAttributeValue(elem, name, &value);
	CFRelease(name);
	if (err != kAXErrorSuccess || value == NULL) {
		return err;
	}
	if (CFGetTypeID(value) != CFArrayGetTypeID()) {
		CFRelease(value);
		return kAXErrorSuccess;
	}
	CFArrayRef arr = (CFArrayRef)value;
	CFIndex n = CFArrayGetCount(arr);
	AXUIElementRef *items = malloc(sizeof(AXUIElementRef) * (n > 0 ? n : 1));
	if (items == NULL) {
		CFRelease(value);
		return kAXErrorFailure;
	}
	for (CFIndex i = 0; i < n; i++) {
		AXUIElementRef child = (AXUIElementRef)CFArrayGetValueAtIndex(arr, i);
		CFRetain(child);
		items[i] = child;
	}
	CFRelease(value);
	*out = items;
	*count = (int)n;
	return kAXErrorSuccess;
}

// ax_copy_element copies a retained single-element attribute, such as the
// focused window. *out stays NULL when there is none.
static AXError ax_copy_element(AXUIElementRef elem, const char *attr, AXUIElementRef *out) {
	*out = NULL;
	CFStringRef name = CFStringCreateWithCString(NULL, attr, kCFStringEncodingUTF8);
	CFTypeRef value = NULL;
	AXError err = AXUIElementCopyAttributeValue(elem, name, &value);
	CFRelease(name);
	if (err != kAXErrorSuccess || value == NULL) {
		return err;
	}
	*out = (AXUIElementRef)value;
	return kAXErrorSuccess;
}

static AXError ax_frame(AXUIElementRef elem, double *x, double *y, double *w, double *h) {
	CFTypeRef pos = NULL, size = NULL;
	AXError err = AXUIElementCopyAttributeValue(elem, CFSTR("AXPosition"), &pos);
	if (err != kAXErrorSuccess) {
		return err;
	}
	err = AXUIElementCopyAttributeValue(elem, CFSTR("AXSize"), &size);
	if (err != kAXErrorSuccess) {
		CFRelease(pos);
		return err;
	}
	CGPoint p;
	CGSize s;
	int ok = AXValueGetValue((AXValueRef)pos, kAXValueTypeCGPoint, &p) &&
		AXValueGetValue((AXValueRef)size, kAXValueTypeCGSize, &s);
	CFRelease(pos);
	CFRelease(size);
	if (!ok) {
		return kAXErrorFailure;
	}
	*x = p.x;
	*y = p.y;
	*w = s.width;
	*h = s.height;
	return kAXErrorSuccess;
}

// ax_focusable reports whether AXFocused is settable: 1, 0, or -1 unknown.
static int ax_focusable(AXUIElementRef elem) {
	Boolean settable = false;
	if (AXUIElementIsAttributeSettable(elem, CFSTR("AXFocused"), &settable) != kAXErrorSuccess) {
		return -1;
	}
	return settable ? 1 : 0;
}

static AXError ax_set_bool(AXUIElementRef elem, const char *attr, int value) {
	CFStringRef name = CFStringCreateWithCString(NULL, attr, kCFStringEncodingUTF8);
	AXError err = AXUIElementSetAttributeValue(elem, name, value ? kCFBooleanTrue : kCFBooleanFalse);
	CFRelease(name);
	return err;
}

static AXError ax_set_string(AXUIElementRef elem, const char *attr, const char *value) {
	CFStringRef name = CFStringCreateWithCString(NULL, attr, kCFStringEncodingUTF8);
	CFStringRef str = CFStringCreateWithCString(NULL, value, kCFStringEncodingUTF8);
	AXError err = AXUIElementSetAttributeValue(elem, name, str);
	CFRelease(name);
	CFRelease(str);
	return err;
}

static AXError ax_perform(AXUIElementRef elem, const char *action) {
	CFStringRef name = CFStringCreateWithCString(NULL, action, kCFStringEncodingUTF8);
	AXError err = AXUIElementPerformAction(elem, name);
	CFRelease(name);
	return err;
}

static void ax_release(AXUIElementRef elem) {
	CFRelease(elem);
}
*/
import "C"

import (
	"context"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/deskdriver/deskdriver/internal/model"
	"github.com/deskdriver/deskdriver/internal/platform"
)

// axElement wraps one AXUIElementRef. The reference is retained for the
// lifetime of the wrapper and released by a finalizer; the OS may still
// invalidate the referent at any time, which surfaces as a platform error
// on the next call.
type axElement struct {
	eng *Engine
	ref C.AXUIElementRef
	pid int32
}

// wrapRef takes ownership of an already-retained reference.
func (e *Engine) wrapRef(ref C.AXUIElementRef) *axElement {
	el := &axElement{eng: e, ref: ref, pid: int32(C.ax_pid(ref))}
	runtime.SetFinalizer(el, func(el *axElement) {
		C.ax_release(el.ref)
	})
	return el
}

// axErr maps an AXError to the shared error taxonomy. kAXErrorNoValue is
// success with an empty result, not a failure.
func axErr(op string, code C.AXError) error {
	switch code {
	case C.kAXErrorSuccess, C.kAXErrorNoValue:
		return nil
	case C.kAXErrorAttributeUnsupported, C.kAXErrorActionUnsupported, C.kAXErrorNotImplemented:
		return platform.UnsupportedOperation(op)
	case C.kAXErrorInvalidUIElement:
		return platform.PlatformError(op+": accessibility element is no longer valid", nil)
	case C.kAXErrorAPIDisabled:
		return platform.PlatformError(op+": accessibility permission not granted", nil)
	case C.kAXErrorCannotComplete:
		return platform.PlatformError(op+": target application did not respond", nil)
	default:
		return platform.PlatformError(fmt.Sprintf("%s: AXError %d", op, int(code)), nil)
	}
}

// copyString reads one string attribute. Must run on the engine worker.
func (el *axElement) copyString(attr string) (string, error) {
	cattr := C.CString(attr)
	defer C.free(unsafe.Pointer(cattr))

	var cstr *C.char
	code := C.ax_copy_string(el.ref, cattr, &cstr)
	if err := axErr(attr, code); err != nil {
		return "", err
	}
	if cstr == nil {
		return "", nil
	}
	defer C.free(unsafe.Pointer(cstr))
	return C.GoString(cstr), nil
}

func (el *axElement) copyBool(attr string) (*bool, error) {
	cattr := C.CString(attr)
	defer C.free(unsafe.Pointer(cattr))

	var v C.int
	code := C.ax_copy_bool(el.ref, cattr, &v)
	if err := axErr(attr, code); err != nil {
		return nil, err
	}
	if v < 0 {
		return nil, nil
	}
	b := v == 1
	return &b, nil
}

func (el *axElement) PID() int32 { return el.pid }

func (el *axElement) Role(ctx context.Context) (string, error) {
	var role string
	err := el.eng.do(ctx, func() error {
		raw, err := el.copyString("AXRole")
		if err != nil {
			return err
		}
		role = model.NormalizeRole(raw)
		return nil
	})
	return role, err
}

func (el *axElement) Name(ctx context.Context) (string, error) {
	var name string
	err := el.eng.do(ctx, func() error {
		var err error
		name, err = el.copyString("AXTitle")
		return err
	})
	return name, err
}

// Attributes reads the element's properties in two worker trips: identity
// first, detail second. When the detail trip is abandoned by the deadline
// the identity half is still returned, so the tree builder records a
// partial node instead of nothing.
func (el *axElement) Attributes(ctx context.Context, mode platform.PropertyMode, includeBounds bool) (model.Attributes, error) {
	var identity model.Attributes
	err := el.eng.do(ctx, func() error {
		raw, err := el.copyString("AXRole")
		if err != nil {
			return err
		}
		identity.Role = model.NormalizeRole(raw)
		identity.Name, _ = el.copyString("AXTitle")
		return nil
	})
	if err != nil {
		return identity, err
	}

	full := identity
	err = el.eng.do(ctx, func() error {
		if f := C.ax_focusable(el.ref); f >= 0 {
			b := f == 1
			full.IsKeyboardFocusable = &b
		}

		switch mode {
		case platform.PropertyModeComplete:
			full.Value, _ = el.copyString("AXValue")
			full.Label, _ = el.copyString("AXDescription")
			full.Description, _ = el.copyString("AXHelp")
			el.fillStates(&full)
		case platform.PropertyModeSmart:
			if model.HasTextValue(identity.Role) || model.HasToggleState(identity.Role) {
				full.Value, _ = el.copyString("AXValue")
			}
		}

		if includeBounds {
			if rect, err := el.frame(); err == nil {
				full.Bounds = &rect
			}
		}
		return nil
	})
	if err != nil {
		return identity, err
	}
	return full, nil
}

// fillStates records the non-default element states. Must run on the
// engine worker.
func (el *axElement) fillStates(attrs *model.Attributes) {
	props := make(map[string]any)
	if enabled, _ := el.copyBool("AXEnabled"); enabled != nil && !*enabled {
		props["enabled"] = false
	}
	if selected, _ := el.copyBool("AXSelected"); selected != nil && *selected {
		props["selected"] = true
	}
	if focused, _ := el.copyBool("AXFocused"); focused != nil && *focused {
		props["focused"] = true
	}
	if sub, _ := el.copyString("AXSubrole"); sub != "" {
		props["subrole"] = sub
	}
	if len(props) > 0 {
		attrs.Properties = props
	}
}

// frame reads the element rectangle. Must run on the engine worker.
func (el *axElement) frame() (model.Rect, error) {
	var x, y, w, h C.double
	code := C.ax_frame(el.ref, &x, &y, &w, &h)
	if err := axErr("bounds", code); err != nil {
		return model.Rect{}, err
	}
	return model.Rect{X: float64(x), Y: float64(y), Width: float64(w), Height: float64(h)}, nil
}

func (el *axElement) Children(ctx context.Context) ([]platform.Native, error) {
	var children []platform.Native
	err := el.eng.do(ctx, func() error {
		kids, err := el.copyElements("AXChildren")
		if err != nil {
			return err
		}
		children = make([]platform.Native, 0, len(kids))
		for _, kid := range kids {
			children = append(children, kid)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return children, nil
}

// copyElements reads an element-array attribute such as AXChildren or
// AXWindows. Must run on the engine worker.
func (el *axElement) copyElements(attr string) ([]*axElement, error) {
	cattr := C.CString(attr)
	defer C.free(unsafe.Pointer(cattr))

	var refs *C.AXUIElementRef
	var count C.int
	code := C.ax_copy_children(el.ref, cattr, &refs, &count)
	if err := axErr(attr, code); err != nil {
		return nil, err
	}
	if refs == nil {
		return nil, nil
	}
	defer C.free(unsafe.Pointer(refs))

	slice := unsafe.Slice(refs, int(count))
	out := make([]*axElement, 0, int(count))
	for _, ref := range slice {
		out = append(out, el.eng.wrapRef(ref))
	}
	return out, nil
}

func (el *axElement) Bounds(ctx context.Context) (model.Rect, error) {
	var rect model.Rect
	err := el.eng.do(ctx, func() error {
		var err error
		rect, err = el.frame()
		return err
	})
	return rect, err
}

func (el *axElement) Focus(ctx context.Context) error {
	return el.eng.do(ctx, func() error {
		cattr := C.CString("AXFocused")
		defer C.free(unsafe.Pointer(cattr))
		return axErr("focus", C.ax_set_bool(el.ref, cattr, 1))
	})
}

// Activate brings the owning application frontmost, then raises the
// element's window when the element is one.
func (el *axElement) Activate(ctx context.Context) error {
	return el.eng.do(ctx, func() error {
		app := C.ax_app_element(C.pid_t(el.pid))
		if app == nil {
			return platform.PlatformError(fmt.Sprintf("no accessibility entry for pid %d", el.pid), nil)
		}
		defer C.ax_release(app)

		cfront := C.CString("AXFrontmost")
		defer C.free(unsafe.Pointer(cfront))
		if err := axErr("activate application", C.ax_set_bool(app, cfront, 1)); err != nil {
			return err
		}

		craise := C.CString("AXRaise")
		defer C.free(unsafe.Pointer(craise))
		code := C.ax_perform(el.ref, craise)
		if code == C.kAXErrorActionUnsupported {
			// not a window; activating the app was enough
			return nil
		}
		return axErr("raise window", code)
	})
}

// SetValue writes through the accessibility layer, so the element updates
// without synthetic keystrokes.
func (el *axElement) SetValue(ctx context.Context, value string) error {
	return el.eng.do(ctx, func() error {
		cattr := C.CString("AXValue")
		defer C.free(unsafe.Pointer(cattr))
		cval := C.CString(value)
		defer C.free(unsafe.Pointer(cval))
		return axErr("set value", C.ax_set_string(el.ref, cattr, cval))
	})
}

// Invoke performs the element's press action.
func (el *axElement) Invoke(ctx context.Context) error {
	return el.eng.do(ctx, func() error {
		caction := C.CString("AXPress")
		defer C.free(unsafe.Pointer(caction))
		return axErr("invoke", C.ax_perform(el.ref, caction))
	})
}

// copyElementAttr reads a single-element attribute such as AXFocusedWindow.
// Must run on the engine worker; returns nil when the attribute is empty.
func (el *axElement) copyElementAttr(attr string) (*axElement, error) {
	cattr := C.CString(attr)
	defer C.free(unsafe.Pointer(cattr))

	var ref C.AXUIElementRef
	code := C.ax_copy_element(el.ref, cattr, &ref)
	if err := axErr(attr, code); err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, nil
	}
	return el.eng.wrapRef(ref), nil
}

// systemWide wraps the system-wide element. Must run on the engine worker.
func (e *Engine) systemWide() (*axElement, error) {
	ref := C.ax_system_wide()
	if ref == nil {
		return nil, platform.PlatformError("create system-wide accessibility element", nil)
	}
	return e.wrapRef(ref), nil
}

// appElement wraps the application element for a pid. Must run on the
// engine worker.
func (e *Engine) appElement(pid int32) (*axElement, error) {
	ref := C.ax_app_element(C.pid_t(pid))
	if ref == nil {
		return nil, platform.PlatformError(fmt.Sprintf("no accessibility entry for pid %d", pid), nil)
	}
	return e.wrapRef(ref), nil
}

// frontmostPID reads the pid of the focused application. Must run on the
// engine worker. Zero when it cannot be read.
func frontmostPID() int32 {
	sys := C.ax_system_wide()
	if sys == nil {
		return 0
	}
	defer C.ax_release(sys)

	cattr := C.CString("AXFocusedApplication")
	defer C.free(unsafe.Pointer(cattr))

	var app C.AXUIElementRef
	if C.ax_copy_element(sys, cattr, &app) != C.kAXErrorSuccess || app == nil {
		return 0
	}
	defer C.ax_release(app)
	return int32(C.ax_pid(app))
}
