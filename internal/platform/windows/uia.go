//go:build windows

package windows

import (
	"fmt"
	"syscall"
	"unsafe"

	"github.com/go-ole/go-ole"

	"github.com/deskdriver/deskdriver/internal/platform"
)

var (
	clsidCUIAutomation = ole.NewGUID("{FF48DBA4-60EF-4201-AA87-54103EEF594E}")
	iidIUIAutomation   = ole.NewGUID("{30CBE57D-D9D0-452A-AB13-7AC5AC4825EE}")

	iidInvokePattern = ole.NewGUID("{FB377FBE-8EA6-46D5-9C73-6499642D3059}")
	iidValuePattern  = ole.NewGUID("{A94CD8B1-0844-4CD6-9D2D-640537AB39E9}")
)

// Property ids from UIAutomationClient.h.
const (
	propBoundingRectangle       = 30001
	propProcessID               = 30002
	propControlType             = 30003
	propName                    = 30005
	propHasKeyboardFocus        = 30008
	propIsKeyboardFocusable     = 30009
	propIsEnabled               = 30010
	propAutomationID            = 30011
	propClassName               = 30012
	propHelpText                = 30013
	propIsOffscreen             = 30022
	propValueValue              = 30045
	propSelectionItemIsSelected = 30079
	propToggleToggleState       = 30086
	propFullDescription         = 30159
)

// Pattern ids.
const (
	patternInvoke = 10000
	patternValue  = 10002
)

// TreeScope values for FindFirst/FindAll.
const (
	scopeChildren    = 2
	scopeDescendants = 4
)

// controlTypeNames maps UIA control type ids to the raw names the shared
// role table folds into canonical roles.
var controlTypeNames = map[int32]string{
	50000: "Button", 50001: "Calendar", 50002: "CheckBox", 50003: "ComboBox",
	50004: "Edit", 50005: "Hyperlink", 50006: "Image", 50007: "ListItem",
	50008: "List", 50009: "Menu", 50010: "MenuBar", 50011: "MenuItem",
	50012: "ProgressBar", 50013: "RadioButton", 50014: "ScrollBar",
	50015: "Slider", 50016: "Spinner", 50017: "StatusBar", 50018: "Tab",
	50019: "TabItem", 50020: "Text", 50021: "ToolBar", 50022: "ToolTip",
	50023: "Tree", 50024: "TreeItem", 50025: "Custom", 50026: "Group",
	50027: "Thumb", 50028: "DataGrid", 50029: "DataItem", 50030: "Document",
	50031: "SplitButton", 50032: "Window", 50033: "Pane", 50034: "Header",
	50035: "HeaderItem", 50036: "Table", 50037: "TitleBar", 50038: "Separator",
}

// roleControlTypes is the reverse direction for native FindAll conditions:
// canonical role to the UIA control type to search for. Roles that fold
// several control types keep the most common one; roles absent here make
// the locator fall back to the generic walk.
var roleControlTypes = map[string]int32{
	"button":      50000,
	"checkbox":    50002,
	"combobox":    50003,
	"textfield":   50004,
	"link":        50005,
	"image":       50006,
	"listitem":    50007,
	"list":        50008,
	"menu":        50009,
	"menubar":     50010,
	"menuitem":    50011,
	"progressbar": 50012,
	"radio":       50013,
	"scrollbar":   50014,
	"slider":      50015,
	"spinner":     50016,
	"statusbar":   50017,
	"tablist":     50018,
	"tab":         50019,
	"text":        50020,
	"toolbar":     50021,
	"tooltip":     50022,
	"tree":        50023,
	"treeitem":    50024,
	"group":       50026,
	"document":    50030,
	"window":      50032,
	"pane":        50033,
	"table":       50036,
	"titlebar":    50037,
	"separator":   50038,
}

const (
	hrElementNotAvailable = 0x80040201
	hrAccessDenied        = 0x80070005
)

// uiaErr maps an HRESULT to the shared taxonomy. S_OK and S_FALSE are
// success; searches report no-match through S_FALSE plus a null result.
func uiaErr(op string, hr uintptr) error {
	switch hr {
	case 0, 1:
		return nil
	case hrElementNotAvailable:
		return platform.PlatformError(fmt.Sprintf("%s: element is no longer valid", op), nil)
	case hrAccessDenied:
		return platform.PlatformError(fmt.Sprintf("%s: access denied, target may be elevated", op), nil)
	default:
		return platform.PlatformError(fmt.Sprintf("%s: HRESULT 0x%08X", op, uint32(hr)), nil)
	}
}

// bstrOut converts and frees a BSTR returned through an out parameter.
func bstrOut(b *uint16) string {
	if b == nil {
		return ""
	}
	s := ole.BstrToString(b)
	ole.SysFreeString((*int16)(unsafe.Pointer(b)))
	return s
}

// winRect mirrors the Win32 RECT layout.
type winRect struct {
	Left, Top, Right, Bottom int32
}

// uiAutomation wraps IUIAutomation. All methods must run on the engine
// worker that entered the COM apartment.
type uiAutomation struct{ ole.IUnknown }

type uiAutomationVtbl struct {
	ole.IUnknownVtbl
	CompareElements                   uintptr
	CompareRuntimeIds                 uintptr
	GetRootElement                    uintptr
	ElementFromHandle                 uintptr
	ElementFromPoint                  uintptr
	GetFocusedElement                 uintptr
	GetRootElementBuildCache          uintptr
	ElementFromHandleBuildCache       uintptr
	ElementFromPointBuildCache        uintptr
	GetFocusedElementBuildCache       uintptr
	CreateTreeWalker                  uintptr
	GetControlViewWalker              uintptr
	GetContentViewWalker              uintptr
	GetRawViewWalker                  uintptr
	GetRawViewCondition               uintptr
	GetControlViewCondition           uintptr
	GetContentViewCondition           uintptr
	CreateCacheRequest                uintptr
	CreateTrueCondition               uintptr
	CreateFalseCondition              uintptr
	CreatePropertyCondition           uintptr
	CreatePropertyConditionEx         uintptr
	CreateAndCondition                uintptr
	CreateAndConditionFromArray       uintptr
	CreateAndConditionFromNativeArray uintptr
	CreateOrCondition                 uintptr
	CreateOrConditionFromArray        uintptr
	CreateOrConditionFromNativeArray  uintptr
	CreateNotCondition                uintptr
}

func (a *uiAutomation) vtbl() *uiAutomationVtbl {
	return (*uiAutomationVtbl)(unsafe.Pointer(a.RawVTable))
}

func (a *uiAutomation) rootElement() (*uiaRef, error) {
	var out *uiaRef
	hr, _, _ := syscall.SyscallN(a.vtbl().GetRootElement,
		uintptr(unsafe.Pointer(a)), uintptr(unsafe.Pointer(&out)))
	if err := uiaErr("desktop root", hr); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, platform.PlatformError("desktop root unavailable", nil)
	}
	return out, nil
}

func (a *uiAutomation) elementFromHandle(hwnd uintptr) (*uiaRef, error) {
	var out *uiaRef
	hr, _, _ := syscall.SyscallN(a.vtbl().ElementFromHandle,
		uintptr(unsafe.Pointer(a)), hwnd, uintptr(unsafe.Pointer(&out)))
	if err := uiaErr("element from window handle", hr); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, platform.PlatformError(fmt.Sprintf("no element for window %#x", hwnd), nil)
	}
	return out, nil
}

func (a *uiAutomation) focusedElement() (*uiaRef, error) {
	var out *uiaRef
	hr, _, _ := syscall.SyscallN(a.vtbl().GetFocusedElement,
		uintptr(unsafe.Pointer(a)), uintptr(unsafe.Pointer(&out)))
	if err := uiaErr("focused element", hr); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, platform.ElementNotFound("focused element")
	}
	return out, nil
}

func (a *uiAutomation) rawViewWalker() (*treeWalker, error) {
	var out *treeWalker
	hr, _, _ := syscall.SyscallN(a.vtbl().GetRawViewWalker,
		uintptr(unsafe.Pointer(a)), uintptr(unsafe.Pointer(&out)))
	if err := uiaErr("raw view walker", hr); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, platform.PlatformError("raw view walker unavailable", nil)
	}
	return out, nil
}

// propertyCondition builds a UIA property condition. The VARIANT is passed
// by reference per the x64 calling convention for large value arguments.
func (a *uiAutomation) propertyCondition(prop int32, value ole.VARIANT) (*uiaCondition, error) {
	var out *uiaCondition
	hr, _, _ := syscall.SyscallN(a.vtbl().CreatePropertyCondition,
		uintptr(unsafe.Pointer(a)), uintptr(prop),
		uintptr(unsafe.Pointer(&value)), uintptr(unsafe.Pointer(&out)))
	if err := uiaErr("property condition", hr); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *uiAutomation) controlTypeCondition(controlType int32) (*uiaCondition, error) {
	return a.propertyCondition(propControlType, ole.NewVariant(ole.VT_I4, int64(controlType)))
}

func (a *uiAutomation) nameCondition(name string) (*uiaCondition, error) {
	v := ole.NewVariant(ole.VT_BSTR, int64(uintptr(unsafe.Pointer(ole.SysAllocStringLen(name)))))
	defer v.Clear()
	return a.propertyCondition(propName, v)
}

func (a *uiAutomation) pidCondition(pid int32) (*uiaCondition, error) {
	return a.propertyCondition(propProcessID, ole.NewVariant(ole.VT_I4, int64(pid)))
}

func (a *uiAutomation) andCondition(c1, c2 *uiaCondition) (*uiaCondition, error) {
	var out *uiaCondition
	hr, _, _ := syscall.SyscallN(a.vtbl().CreateAndCondition,
		uintptr(unsafe.Pointer(a)), uintptr(unsafe.Pointer(c1)),
		uintptr(unsafe.Pointer(c2)), uintptr(unsafe.Pointer(&out)))
	if err := uiaErr("and condition", hr); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *uiAutomation) trueCondition() (*uiaCondition, error) {
	var out *uiaCondition
	hr, _, _ := syscall.SyscallN(a.vtbl().CreateTrueCondition,
		uintptr(unsafe.Pointer(a)), uintptr(unsafe.Pointer(&out)))
	if err := uiaErr("true condition", hr); err != nil {
		return nil, err
	}
	return out, nil
}

// uiaCondition is an opaque IUIAutomationCondition.
type uiaCondition struct{ ole.IUnknown }

// treeWalker wraps IUIAutomationTreeWalker over the raw view, which is the
// view that matches what the other backends expose.
type treeWalker struct{ ole.IUnknown }

type treeWalkerVtbl struct {
	ole.IUnknownVtbl
	GetParentElement          uintptr
	GetFirstChildElement      uintptr
	GetLastChildElement       uintptr
	GetNextSiblingElement     uintptr
	GetPreviousSiblingElement uintptr
}

func (w *treeWalker) vtbl() *treeWalkerVtbl {
	return (*treeWalkerVtbl)(unsafe.Pointer(w.RawVTable))
}

// firstChild returns nil with no error when the element has no children.
func (w *treeWalker) firstChild(el *uiaRef) (*uiaRef, error) {
	var out *uiaRef
	hr, _, _ := syscall.SyscallN(w.vtbl().GetFirstChildElement,
		uintptr(unsafe.Pointer(w)), uintptr(unsafe.Pointer(el)), uintptr(unsafe.Pointer(&out)))
	if err := uiaErr("first child", hr); err != nil {
		return nil, err
	}
	return out, nil
}

func (w *treeWalker) nextSibling(el *uiaRef) (*uiaRef, error) {
	var out *uiaRef
	hr, _, _ := syscall.SyscallN(w.vtbl().GetNextSiblingElement,
		uintptr(unsafe.Pointer(w)), uintptr(unsafe.Pointer(el)), uintptr(unsafe.Pointer(&out)))
	if err := uiaErr("next sibling", hr); err != nil {
		return nil, err
	}
	return out, nil
}

// uiaRef wraps IUIAutomationElement. The vtable lists the slots up to the
// last one used; the interface continues past it.
type uiaRef struct{ ole.IUnknown }

type uiaElementVtbl struct {
	ole.IUnknownVtbl
	SetFocus                       uintptr
	GetRuntimeId                   uintptr
	FindFirst                      uintptr
	FindAll                        uintptr
	FindFirstBuildCache            uintptr
	FindAllBuildCache              uintptr
	BuildUpdatedCache              uintptr
	GetCurrentPropertyValue        uintptr
	GetCurrentPropertyValueEx      uintptr
	GetCachedPropertyValue         uintptr
	GetCachedPropertyValueEx       uintptr
	GetCurrentPatternAs            uintptr
	GetCachedPatternAs             uintptr
	GetCurrentPattern              uintptr
	GetCachedPattern               uintptr
	GetCurrentProcessId            uintptr
	GetCurrentControlType          uintptr
	GetCurrentLocalizedControlType uintptr
	GetCurrentName                 uintptr
	GetCurrentAcceleratorKey       uintptr
	GetCurrentAccessKey            uintptr
	GetCurrentHasKeyboardFocus     uintptr
	GetCurrentIsKeyboardFocusable  uintptr
	GetCurrentIsEnabled            uintptr
	GetCurrentAutomationId         uintptr
	GetCurrentClassName            uintptr
	GetCurrentHelpText             uintptr
	GetCurrentCulture              uintptr
	GetCurrentIsControlElement     uintptr
	GetCurrentIsContentElement     uintptr
	GetCurrentIsPassword           uintptr
	GetCurrentNativeWindowHandle   uintptr
	GetCurrentItemType             uintptr
	GetCurrentIsOffscreen          uintptr
	GetCurrentOrientation          uintptr
	GetCurrentFrameworkId          uintptr
	GetCurrentIsRequiredForForm    uintptr
	GetCurrentItemStatus           uintptr
	GetCurrentBoundingRectangle    uintptr
}

func (el *uiaRef) vtbl() *uiaElementVtbl {
	return (*uiaElementVtbl)(unsafe.Pointer(el.RawVTable))
}

func (el *uiaRef) setFocus() error {
	hr, _, _ := syscall.SyscallN(el.vtbl().SetFocus, uintptr(unsafe.Pointer(el)))
	return uiaErr("set focus", hr)
}

func (el *uiaRef) processID() (int32, error) {
	var pid int32
	hr, _, _ := syscall.SyscallN(el.vtbl().GetCurrentProcessId,
		uintptr(unsafe.Pointer(el)), uintptr(unsafe.Pointer(&pid)))
	return pid, uiaErr("process id", hr)
}

func (el *uiaRef) controlType() (int32, error) {
	var ct int32
	hr, _, _ := syscall.SyscallN(el.vtbl().GetCurrentControlType,
		uintptr(unsafe.Pointer(el)), uintptr(unsafe.Pointer(&ct)))
	return ct, uiaErr("control type", hr)
}

func (el *uiaRef) name() (string, error) {
	var b *uint16
	hr, _, _ := syscall.SyscallN(el.vtbl().GetCurrentName,
		uintptr(unsafe.Pointer(el)), uintptr(unsafe.Pointer(&b)))
	if err := uiaErr("name", hr); err != nil {
		return "", err
	}
	return bstrOut(b), nil
}

func (el *uiaRef) helpText() (string, error) {
	var b *uint16
	hr, _, _ := syscall.SyscallN(el.vtbl().GetCurrentHelpText,
		uintptr(unsafe.Pointer(el)), uintptr(unsafe.Pointer(&b)))
	if err := uiaErr("help text", hr); err != nil {
		return "", err
	}
	return bstrOut(b), nil
}

func (el *uiaRef) automationID() (string, error) {
	var b *uint16
	hr, _, _ := syscall.SyscallN(el.vtbl().GetCurrentAutomationId,
		uintptr(unsafe.Pointer(el)), uintptr(unsafe.Pointer(&b)))
	if err := uiaErr("automation id", hr); err != nil {
		return "", err
	}
	return bstrOut(b), nil
}

func (el *uiaRef) className() (string, error) {
	var b *uint16
	hr, _, _ := syscall.SyscallN(el.vtbl().GetCurrentClassName,
		uintptr(unsafe.Pointer(el)), uintptr(unsafe.Pointer(&b)))
	if err := uiaErr("class name", hr); err != nil {
		return "", err
	}
	return bstrOut(b), nil
}

func (el *uiaRef) boolSlot(op string, slot uintptr) (bool, error) {
	var v int32
	hr, _, _ := syscall.SyscallN(slot, uintptr(unsafe.Pointer(el)), uintptr(unsafe.Pointer(&v)))
	return v != 0, uiaErr(op, hr)
}

func (el *uiaRef) isEnabled() (bool, error) {
	return el.boolSlot("is enabled", el.vtbl().GetCurrentIsEnabled)
}

func (el *uiaRef) hasKeyboardFocus() (bool, error) {
	return el.boolSlot("has keyboard focus", el.vtbl().GetCurrentHasKeyboardFocus)
}

func (el *uiaRef) isKeyboardFocusable() (bool, error) {
	return el.boolSlot("is keyboard focusable", el.vtbl().GetCurrentIsKeyboardFocusable)
}

func (el *uiaRef) isOffscreen() (bool, error) {
	return el.boolSlot("is offscreen", el.vtbl().GetCurrentIsOffscreen)
}

func (el *uiaRef) boundingRect() (winRect, error) {
	var r winRect
	hr, _, _ := syscall.SyscallN(el.vtbl().GetCurrentBoundingRectangle,
		uintptr(unsafe.Pointer(el)), uintptr(unsafe.Pointer(&r)))
	return r, uiaErr("bounding rectangle", hr)
}

func (el *uiaRef) nativeWindowHandle() (uintptr, error) {
	var hwnd uintptr
	hr, _, _ := syscall.SyscallN(el.vtbl().GetCurrentNativeWindowHandle,
		uintptr(unsafe.Pointer(el)), uintptr(unsafe.Pointer(&hwnd)))
	return hwnd, uiaErr("native window handle", hr)
}

// property reads an arbitrary property as a VARIANT. The caller clears it.
func (el *uiaRef) property(prop int32) (ole.VARIANT, error) {
	var v ole.VARIANT
	ole.VariantInit(&v)
	hr, _, _ := syscall.SyscallN(el.vtbl().GetCurrentPropertyValue,
		uintptr(unsafe.Pointer(el)), uintptr(prop), uintptr(unsafe.Pointer(&v)))
	return v, uiaErr("property value", hr)
}

// stringProperty reads a property expected to carry a string, "" when the
// element does not provide it.
func (el *uiaRef) stringProperty(prop int32) string {
	v, err := el.property(prop)
	if err != nil {
		return ""
	}
	defer v.Clear()
	if v.VT != ole.VT_BSTR {
		return ""
	}
	return v.ToString()
}

func (el *uiaRef) findFirst(scope int, cond *uiaCondition) (*uiaRef, error) {
	var out *uiaRef
	hr, _, _ := syscall.SyscallN(el.vtbl().FindFirst,
		uintptr(unsafe.Pointer(el)), uintptr(scope),
		uintptr(unsafe.Pointer(cond)), uintptr(unsafe.Pointer(&out)))
	if err := uiaErr("find first", hr); err != nil {
		return nil, err
	}
	return out, nil
}

func (el *uiaRef) findAll(scope int, cond *uiaCondition) (*elementArray, error) {
	var out *elementArray
	hr, _, _ := syscall.SyscallN(el.vtbl().FindAll,
		uintptr(unsafe.Pointer(el)), uintptr(scope),
		uintptr(unsafe.Pointer(cond)), uintptr(unsafe.Pointer(&out)))
	if err := uiaErr("find all", hr); err != nil {
		return nil, err
	}
	return out, nil
}

// pattern fetches a control pattern interface, nil when the element does
// not support it.
func (el *uiaRef) pattern(patternID int32, iid *ole.GUID) (*ole.IUnknown, error) {
	var out *ole.IUnknown
	hr, _, _ := syscall.SyscallN(el.vtbl().GetCurrentPatternAs,
		uintptr(unsafe.Pointer(el)), uintptr(patternID),
		uintptr(unsafe.Pointer(iid)), uintptr(unsafe.Pointer(&out)))
	if err := uiaErr("control pattern", hr); err != nil {
		return nil, err
	}
	return out, nil
}

// elementArray wraps IUIAutomationElementArray.
type elementArray struct{ ole.IUnknown }

type elementArrayVtbl struct {
	ole.IUnknownVtbl
	GetLength  uintptr
	GetElement uintptr
}

func (arr *elementArray) vtbl() *elementArrayVtbl {
	return (*elementArrayVtbl)(unsafe.Pointer(arr.RawVTable))
}

func (arr *elementArray) length() (int, error) {
	var n int32
	hr, _, _ := syscall.SyscallN(arr.vtbl().GetLength,
		uintptr(unsafe.Pointer(arr)), uintptr(unsafe.Pointer(&n)))
	return int(n), uiaErr("element array length", hr)
}

func (arr *elementArray) element(i int) (*uiaRef, error) {
	var out *uiaRef
	hr, _, _ := syscall.SyscallN(arr.vtbl().GetElement,
		uintptr(unsafe.Pointer(arr)), uintptr(int32(i)), uintptr(unsafe.Pointer(&out)))
	if err := uiaErr("element array index", hr); err != nil {
		return nil, err
	}
	return out, nil
}

// invokePattern wraps IUIAutomationInvokePattern.
type invokePattern struct{ ole.IUnknown }

type invokePatternVtbl struct {
	ole.IUnknownVtbl
	Invoke uintptr
}

func (p *invokePattern) invoke() error {
	vtbl := (*invokePatternVtbl)(unsafe.Pointer(p.RawVTable))
	hr, _, _ := syscall.SyscallN(vtbl.Invoke, uintptr(unsafe.Pointer(p)))
	return uiaErr("invoke", hr)
}

// valuePattern wraps IUIAutomationValuePattern.
type valuePattern struct{ ole.IUnknown }

type valuePatternVtbl struct {
	ole.IUnknownVtbl
	SetValue        uintptr
	GetCurrentValue uintptr
}

func (p *valuePattern) setValue(value string) error {
	vtbl := (*valuePatternVtbl)(unsafe.Pointer(p.RawVTable))
	bstr := ole.SysAllocStringLen(value)
	defer ole.SysFreeString(bstr)
	hr, _, _ := syscall.SyscallN(vtbl.SetValue,
		uintptr(unsafe.Pointer(p)), uintptr(unsafe.Pointer(bstr)))
	return uiaErr("set value", hr)
}
