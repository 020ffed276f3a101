//go:build windows

package windows

import (
	"context"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/deskdriver/deskdriver/internal/model"
	"github.com/deskdriver/deskdriver/internal/platform"
)

// uiaElement adapts one IUIAutomationElement to the shared Native surface.
// The COM reference is released by the garbage collector; UIA client
// objects tolerate Release from any thread.
type uiaElement struct {
	eng *Engine
	ref *uiaRef
	pid int32
}

// wrapRef takes ownership of a COM reference. Must run on the engine
// worker, where reading the pid is safe.
func (e *Engine) wrapRef(ref *uiaRef) *uiaElement {
	el := &uiaElement{eng: e, ref: ref}
	el.pid, _ = ref.processID()
	runtime.SetFinalizer(el, func(x *uiaElement) { x.ref.Release() })
	return el
}

func (el *uiaElement) PID() int32 { return el.pid }

// rawRole returns the control type name fed to the shared role table.
// Must run on the engine worker.
func (el *uiaElement) rawRole() (string, error) {
	ct, err := el.ref.controlType()
	if err != nil {
		return "", err
	}
	if name, ok := controlTypeNames[ct]; ok {
		return name, nil
	}
	return "Custom", nil
}

func (el *uiaElement) Role(ctx context.Context) (string, error) {
	var role string
	err := el.eng.do(ctx, func() error {
		raw, err := el.rawRole()
		if err != nil {
			return err
		}
		role = model.NormalizeRole(raw)
		return nil
	})
	return role, err
}

func (el *uiaElement) Name(ctx context.Context) (string, error) {
	var name string
	err := el.eng.do(ctx, func() error {
		var err error
		name, err = el.ref.name()
		return err
	})
	return name, err
}

// Attributes reads the element in two worker trips: identity first, detail
// second. An abandoned detail trip still yields the identity half, so the
// tree builder records a partial node instead of dropping it.
func (el *uiaElement) Attributes(ctx context.Context, mode platform.PropertyMode, includeBounds bool) (model.Attributes, error) {
	var identity model.Attributes
	err := el.eng.do(ctx, func() error {
		raw, err := el.rawRole()
		if err != nil {
			return err
		}
		identity.Role = model.NormalizeRole(raw)
		identity.Name, _ = el.ref.name()
		return nil
	})
	if err != nil {
		return identity, err
	}

	full := identity
	err = el.eng.do(ctx, func() error {
		if focusable, err := el.ref.isKeyboardFocusable(); err == nil {
			full.IsKeyboardFocusable = &focusable
		}

		switch mode {
		case platform.PropertyModeComplete:
			full.Value = el.ref.stringProperty(propValueValue)
			full.Label = el.ref.stringProperty(propFullDescription)
			full.Description, _ = el.ref.helpText()
			el.fillStates(&full)
		case platform.PropertyModeSmart:
			if model.HasTextValue(identity.Role) || model.HasToggleState(identity.Role) {
				full.Value = el.ref.stringProperty(propValueValue)
			}
		}

		if includeBounds {
			if r, err := el.ref.boundingRect(); err == nil && (r.Right > r.Left || r.Bottom > r.Top) {
				rect := rectToModel(r)
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

// fillStates records non-default element states. Must run on the engine
// worker.
func (el *uiaElement) fillStates(attrs *model.Attributes) {
	props := make(map[string]any)
	if enabled, err := el.ref.isEnabled(); err == nil && !enabled {
		props["enabled"] = false
	}
	if focused, err := el.ref.hasKeyboardFocus(); err == nil && focused {
		props["focused"] = true
	}
	if v, err := el.ref.property(propSelectionItemIsSelected); err == nil {
		if selected, ok := v.Value().(bool); ok && selected {
			props["selected"] = true
		}
		v.Clear()
	}
	if off, err := el.ref.isOffscreen(); err == nil && off {
		props["offscreen"] = true
	}
	if id, err := el.ref.automationID(); err == nil && id != "" {
		props["automation_id"] = id
	}
	if class, err := el.ref.className(); err == nil && class != "" {
		props["class"] = class
	}
	if len(props) > 0 {
		attrs.Properties = props
	}
}

func rectToModel(r winRect) model.Rect {
	return model.Rect{
		X:      float64(r.Left),
		Y:      float64(r.Top),
		Width:  float64(r.Right - r.Left),
		Height: float64(r.Bottom - r.Top),
	}
}

func (el *uiaElement) Children(ctx context.Context) ([]platform.Native, error) {
	var children []platform.Native
	err := el.eng.do(ctx, func() error {
		child, err := el.eng.walker.firstChild(el.ref)
		if err != nil {
			return err
		}
		for child != nil {
			wrapped := el.eng.wrapRef(child)
			children = append(children, wrapped)
			next, err := el.eng.walker.nextSibling(child)
			if err != nil {
				return err
			}
			child = next
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return children, nil
}

func (el *uiaElement) Bounds(ctx context.Context) (model.Rect, error) {
	var rect model.Rect
	err := el.eng.do(ctx, func() error {
		r, err := el.ref.boundingRect()
		if err != nil {
			return err
		}
		if r.Right <= r.Left && r.Bottom <= r.Top {
			return platform.UnsupportedOperation("element has no on-screen bounds")
		}
		rect = rectToModel(r)
		return nil
	})
	return rect, err
}

func (el *uiaElement) Focus(ctx context.Context) error {
	return el.eng.do(ctx, func() error {
		return el.ref.setFocus()
	})
}

// Activate raises the window that hosts the element.
func (el *uiaElement) Activate(ctx context.Context) error {
	return el.eng.do(ctx, func() error {
		hwnd, err := el.ref.nativeWindowHandle()
		if err != nil {
			return err
		}
		if hwnd == 0 {
			// not a windowed element; raise the process main window
			hwnd = mainWindowForPID(el.pid)
		}
		if hwnd == 0 {
			return platform.UnsupportedOperation(fmt.Sprintf("activate pid %d without a window", el.pid))
		}
		raiseWindow(hwnd)
		return nil
	})
}

// SetValue writes through the UIA Value pattern, updating the element
// without synthetic keystrokes.
func (el *uiaElement) SetValue(ctx context.Context, value string) error {
	return el.eng.do(ctx, func() error {
		unk, err := el.ref.pattern(patternValue, iidValuePattern)
		if err != nil {
			return err
		}
		if unk == nil {
			return platform.UnsupportedOperation("set value on this element")
		}
		p := (*valuePattern)(unsafe.Pointer(unk))
		defer p.Release()
		return p.setValue(value)
	})
}

// Invoke triggers the element's default action through the Invoke pattern.
func (el *uiaElement) Invoke(ctx context.Context) error {
	return el.eng.do(ctx, func() error {
		unk, err := el.ref.pattern(patternInvoke, iidInvokePattern)
		if err != nil {
			return err
		}
		if unk == nil {
			return platform.UnsupportedOperation("invoke on this element")
		}
		p := (*invokePattern)(unsafe.Pointer(unk))
		defer p.Release()
		return p.invoke()
	})
}

// FindAll is the locator fast path: criteria that translate to UIA
// property conditions search in one native call. Criteria that need
// substring or positional matching report UnsupportedOperation, sending
// the locator down the generic walk.
func (el *uiaElement) FindAll(ctx context.Context, crit platform.Criteria, maxDepth int) ([]platform.Native, error) {
	if crit.Text != "" || crit.ID != 0 {
		return nil, platform.UnsupportedOperation("native search with substring or id criteria")
	}
	if crit.Role == "" && crit.Name == "" {
		return nil, platform.UnsupportedOperation("native search without role or name")
	}
	scope := scopeDescendants
	switch {
	case maxDepth == 1:
		scope = scopeChildren
	case maxDepth > 1:
		// the walk enforces intermediate depth bounds
		return nil, platform.UnsupportedOperation("native search with a depth bound")
	}

	var out []platform.Native
	err := el.eng.do(ctx, func() error {
		cond, err := el.eng.buildCondition(crit)
		if err != nil {
			return err
		}
		defer cond.Release()

		arr, err := el.ref.findAll(scope, cond)
		if err != nil {
			return err
		}
		if arr == nil {
			return nil
		}
		defer arr.Release()

		n, err := arr.length()
		if err != nil {
			return err
		}
		out = make([]platform.Native, 0, n)
		for i := 0; i < n; i++ {
			ref, err := arr.element(i)
			if err != nil {
				return err
			}
			out = append(out, el.eng.wrapRef(ref))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// buildCondition translates locator criteria into a UIA condition. Must
// run on the engine worker.
func (e *Engine) buildCondition(crit platform.Criteria) (*uiaCondition, error) {
	var conds []*uiaCondition
	if crit.Role != "" {
		ct, ok := roleControlTypes[model.NormalizeRole(crit.Role)]
		if !ok {
			return nil, platform.UnsupportedOperation(fmt.Sprintf("native search for role %q", crit.Role))
		}
		c, err := e.auto.controlTypeCondition(ct)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	if crit.Name != "" {
		c, err := e.auto.nameCondition(crit.Name)
		if err != nil {
			for _, prev := range conds {
				prev.Release()
			}
			return nil, err
		}
		conds = append(conds, c)
	}
	if len(conds) == 1 {
		return conds[0], nil
	}
	and, err := e.auto.andCondition(conds[0], conds[1])
	conds[0].Release()
	conds[1].Release()
	if err != nil {
		return nil, err
	}
	return and, nil
}
