//go:build linux

package linux

import (
	"context"
	"strconv"

	"github.com/godbus/dbus/v5"

	"github.com/deskdriver/deskdriver/internal/model"
	"github.com/deskdriver/deskdriver/internal/platform"
)

// AT-SPI state bit positions, from the AtspiStateType enum.
const (
	stateActive    = 1
	stateEnabled   = 8
	stateFocusable = 11
	stateFocused   = 12
	stateSelected  = 23
	stateShowing   = 25
)

const coordTypeScreen = uint32(0)

// atspiElement wraps one accessible reference. The reference is a name on
// the accessibility bus plus an object path; the owning application can
// drop the path at any time, which surfaces as a platform error on the
// next call.
type atspiElement struct {
	eng  *Engine
	dest string
	path dbus.ObjectPath
	pid  int32
}

// wrapApp resolves the owning process of an application-level reference
// and wraps it. Must run on the engine worker.
func (e *Engine) wrapApp(ctx context.Context, ref accessibleRef) (*atspiElement, error) {
	var pid uint32
	err := e.conn.BusObject().CallWithContext(ctx,
		"org.freedesktop.DBus.GetConnectionUnixProcessID", 0, ref.Sender).Store(&pid)
	if err != nil {
		return nil, dbusErr("resolve application process", err)
	}
	return &atspiElement{eng: e, dest: ref.Sender, path: ref.Path, pid: int32(pid)}, nil
}

// wrapChild wraps a descendant reference. A child on the parent's
// connection shares its process; embedded subtrees from another
// connection report pid 0 rather than paying a bus round trip per node.
func (e *Engine) wrapChild(parent *atspiElement, ref accessibleRef) *atspiElement {
	pid := parent.pid
	if ref.Sender != parent.dest {
		pid = 0
	}
	return &atspiElement{eng: e, dest: ref.Sender, path: ref.Path, pid: pid}
}

// rootElement wraps the registry's desktop root.
func (e *Engine) rootElement() *atspiElement {
	return &atspiElement{eng: e, dest: registryName, path: registryRoot}
}

func (el *atspiElement) object() dbus.BusObject {
	return el.eng.conn.Object(el.dest, el.path)
}

// property reads one D-Bus property. Must run on the engine worker.
func (el *atspiElement) property(ctx context.Context, iface, name string) (dbus.Variant, error) {
	var v dbus.Variant
	err := el.object().CallWithContext(ctx, ifaceProperties+".Get", 0, iface, name).Store(&v)
	return v, err
}

// roleName reads the native role string, such as "push button".
// Must run on the engine worker.
func (el *atspiElement) roleName(ctx context.Context) (string, error) {
	var name string
	err := el.object().CallWithContext(ctx, ifaceAccessible+".GetRoleName", 0).Store(&name)
	if err != nil {
		return "", dbusErr("role", err)
	}
	return name, nil
}

// nameProp reads the accessible name. Must run on the engine worker.
func (el *atspiElement) nameProp(ctx context.Context) (string, error) {
	v, err := el.property(ctx, ifaceAccessible, "Name")
	if err != nil {
		return "", dbusErr("name", err)
	}
	s, _ := v.Value().(string)
	return s, nil
}

func (el *atspiElement) descriptionProp(ctx context.Context) (string, error) {
	v, err := el.property(ctx, ifaceAccessible, "Description")
	if err != nil {
		return "", dbusErr("description", err)
	}
	s, _ := v.Value().(string)
	return s, nil
}

// stateBits reads the element's state set as one 64-bit field.
// Must run on the engine worker.
func (el *atspiElement) stateBits(ctx context.Context) (uint64, error) {
	var raw []uint32
	err := el.object().CallWithContext(ctx, ifaceAccessible+".GetState", 0).Store(&raw)
	if err != nil {
		return 0, dbusErr("state", err)
	}
	var bits uint64
	if len(raw) > 0 {
		bits = uint64(raw[0])
	}
	if len(raw) > 1 {
		bits |= uint64(raw[1]) << 32
	}
	return bits, nil
}

// childRefs reads the raw child references. Must run on the engine worker.
func (el *atspiElement) childRefs(ctx context.Context) ([]accessibleRef, error) {
	var refs []accessibleRef
	err := el.object().CallWithContext(ctx, ifaceAccessible+".GetChildren", 0).Store(&refs)
	if err != nil {
		return nil, dbusErr("children", err)
	}
	return refs, nil
}

// extents reads the element rectangle in screen coordinates.
// Must run on the engine worker.
func (el *atspiElement) extents(ctx context.Context) (model.Rect, error) {
	var ext struct{ X, Y, W, H int32 }
	err := el.object().CallWithContext(ctx, ifaceComponent+".GetExtents", 0, coordTypeScreen).Store(&ext)
	if err != nil {
		return model.Rect{}, dbusErr("bounds", err)
	}
	return model.Rect{
		X: float64(ext.X), Y: float64(ext.Y),
		Width: float64(ext.W), Height: float64(ext.H),
	}, nil
}

// textValue reads the element's current value: its text content when it
// exposes Text, its numeric value when it exposes Value, empty otherwise.
// Must run on the engine worker.
func (el *atspiElement) textValue(ctx context.Context) string {
	var text string
	err := el.object().CallWithContext(ctx, ifaceText+".GetText", 0, int32(0), int32(-1)).Store(&text)
	if err == nil {
		return text
	}
	v, err := el.property(ctx, ifaceValue, "CurrentValue")
	if err != nil {
		return ""
	}
	if f, ok := v.Value().(float64); ok {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return ""
}

// grabFocus asks the element's Component to take keyboard focus.
// Must run on the engine worker.
func (el *atspiElement) grabFocus(ctx context.Context) error {
	var ok bool
	err := el.object().CallWithContext(ctx, ifaceComponent+".GrabFocus", 0).Store(&ok)
	if err != nil {
		return dbusErr("focus", err)
	}
	if !ok {
		return platform.PlatformError("element refused focus", nil)
	}
	return nil
}

func (el *atspiElement) PID() int32 { return el.pid }

func (el *atspiElement) Role(ctx context.Context) (string, error) {
	var role string
	err := el.eng.do(ctx, func() error {
		raw, err := el.roleName(ctx)
		if err != nil {
			return err
		}
		role = model.NormalizeRole(raw)
		return nil
	})
	return role, err
}

func (el *atspiElement) Name(ctx context.Context) (string, error) {
	var name string
	err := el.eng.do(ctx, func() error {
		var err error
		name, err = el.nameProp(ctx)
		return err
	})
	return name, err
}

// Attributes reads the element's properties in two worker trips: identity
// first, detail second. When the detail trip is abandoned by the deadline
// the identity half is still returned, so the tree builder records a
// partial node instead of nothing.
func (el *atspiElement) Attributes(ctx context.Context, mode platform.PropertyMode, includeBounds bool) (model.Attributes, error) {
	var identity model.Attributes
	err := el.eng.do(ctx, func() error {
		raw, err := el.roleName(ctx)
		if err != nil {
			return err
		}
		identity.Role = model.NormalizeRole(raw)
		identity.Name, _ = el.nameProp(ctx)
		return nil
	})
	if err != nil {
		return identity, err
	}

	full := identity
	err = el.eng.do(ctx, func() error {
		bits, serr := el.stateBits(ctx)
		if serr == nil {
			b := bits&(1<<stateFocusable) != 0
			full.IsKeyboardFocusable = &b
		}

		switch mode {
		case platform.PropertyModeComplete:
			full.Value = el.textValue(ctx)
			full.Description, _ = el.descriptionProp(ctx)
			if serr == nil {
				fillStates(bits, &full)
			}
		case platform.PropertyModeSmart:
			if model.HasTextValue(identity.Role) || model.HasToggleState(identity.Role) {
				full.Value = el.textValue(ctx)
			}
		}

		if includeBounds {
			if rect, err := el.extents(ctx); err == nil {
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

// fillStates records the non-default states out of the state bitfield.
func fillStates(bits uint64, attrs *model.Attributes) {
	props := make(map[string]any)
	if bits&(1<<stateEnabled) == 0 {
		props["enabled"] = false
	}
	if bits&(1<<stateSelected) != 0 {
		props["selected"] = true
	}
	if bits&(1<<stateFocused) != 0 {
		props["focused"] = true
	}
	if bits&(1<<stateShowing) == 0 {
		props["offscreen"] = true
	}
	if len(props) > 0 {
		attrs.Properties = props
	}
}

func (el *atspiElement) Children(ctx context.Context) ([]platform.Native, error) {
	var children []platform.Native
	err := el.eng.do(ctx, func() error {
		refs, err := el.childRefs(ctx)
		if err != nil {
			return err
		}
		children = make([]platform.Native, 0, len(refs))
		for _, ref := range refs {
			if ref.isNull() {
				continue
			}
			children = append(children, el.eng.wrapChild(el, ref))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return children, nil
}

func (el *atspiElement) Bounds(ctx context.Context) (model.Rect, error) {
	var rect model.Rect
	err := el.eng.do(ctx, func() error {
		var err error
		rect, err = el.extents(ctx)
		return err
	})
	return rect, err
}

func (el *atspiElement) Focus(ctx context.Context) error {
	return el.eng.do(ctx, func() error {
		return el.grabFocus(ctx)
	})
}

// Activate raises the element. Frames raise when their Component takes
// focus; application elements have no Component, so their first showing
// frame is raised instead.
func (el *atspiElement) Activate(ctx context.Context) error {
	return el.eng.do(ctx, func() error {
		err := el.grabFocus(ctx)
		if err == nil || !platform.IsCode(err, platform.ErrCodeUnsupportedOperation) {
			return err
		}

		refs, cerr := el.childRefs(ctx)
		if cerr != nil {
			return cerr
		}
		for _, ref := range refs {
			if ref.isNull() {
				continue
			}
			child := el.eng.wrapChild(el, ref)
			bits, serr := child.stateBits(ctx)
			if serr != nil || bits&(1<<stateShowing) == 0 {
				continue
			}
			if ferr := child.grabFocus(ctx); ferr == nil {
				return nil
			}
		}
		return err
	})
}

// SetValue writes through EditableText, so the element updates without
// synthetic keystrokes.
func (el *atspiElement) SetValue(ctx context.Context, value string) error {
	return el.eng.do(ctx, func() error {
		var ok bool
		err := el.object().CallWithContext(ctx, ifaceEditableText+".SetTextContents", 0, value).Store(&ok)
		if err != nil {
			return dbusErr("set value", err)
		}
		if !ok {
			return platform.PlatformError("element rejected the value", nil)
		}
		return nil
	})
}

// Invoke performs the element's first action, which toolkits list as the
// default one.
func (el *atspiElement) Invoke(ctx context.Context) error {
	return el.eng.do(ctx, func() error {
		var ok bool
		err := el.object().CallWithContext(ctx, ifaceAction+".DoAction", 0, int32(0)).Store(&ok)
		if err != nil {
			return dbusErr("invoke", err)
		}
		if !ok {
			return platform.PlatformError("element rejected its default action", nil)
		}
		return nil
	})
}
