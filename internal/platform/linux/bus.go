//go:build linux

package linux

import (
	"context"
	"errors"
	"os"

	"github.com/godbus/dbus/v5"

	"github.com/deskdriver/deskdriver/internal/platform"
)

const (
	registryName = "org.a11y.atspi.Registry"
	registryRoot = dbus.ObjectPath("/org/a11y/atspi/accessible/root")
	nullPath     = dbus.ObjectPath("/org/a11y/atspi/null")

	ifaceAccessible   = "org.a11y.atspi.Accessible"
	ifaceApplication  = "org.a11y.atspi.Application"
	ifaceComponent    = "org.a11y.atspi.Component"
	ifaceAction       = "org.a11y.atspi.Action"
	ifaceText         = "org.a11y.atspi.Text"
	ifaceValue        = "org.a11y.atspi.Value"
	ifaceEditableText = "org.a11y.atspi.EditableText"

	ifaceProperties = "org.freedesktop.DBus.Properties"
)

// accessibleRef is the (so) pair AT-SPI uses to reference an element:
// the owning connection's bus name plus an object path.
type accessibleRef struct {
	Sender string
	Path   dbus.ObjectPath
}

func (r accessibleRef) isNull() bool {
	return r.Sender == "" || r.Path == "" || r.Path == nullPath
}

// connectA11yBus opens a private connection to the accessibility bus. The
// bus runs its own daemon next to the session bus; its address is published
// by org.a11y.Bus, with AT_SPI_BUS_ADDRESS as the conventional override.
func connectA11yBus() (*dbus.Conn, error) {
	addr := os.Getenv("AT_SPI_BUS_ADDRESS")
	if addr == "" {
		session, err := dbus.SessionBus()
		if err != nil {
			return nil, platform.PlatformError("connect session bus", err)
		}
		obj := session.Object("org.a11y.Bus", "/org/a11y/bus")
		if err := obj.Call("org.a11y.Bus.GetAddress", 0).Store(&addr); err != nil {
			return nil, platform.PlatformError("locate accessibility bus, is at-spi2 running", err)
		}
	}
	conn, err := dbus.Connect(addr)
	if err != nil {
		return nil, platform.PlatformError("connect accessibility bus", err)
	}
	return conn, nil
}

// dbusErr maps a D-Bus failure to the shared error taxonomy. Missing
// interfaces are capability gaps; dead names and stale paths mean the
// element's application or control is gone.
func dbusErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var derr dbus.Error
	if errors.As(err, &derr) {
		switch derr.Name {
		case "org.freedesktop.DBus.Error.UnknownMethod",
			"org.freedesktop.DBus.Error.UnknownInterface",
			"org.freedesktop.DBus.Error.NotSupported":
			return platform.UnsupportedOperation(op)
		case "org.freedesktop.DBus.Error.UnknownObject",
			"org.freedesktop.DBus.Error.ServiceUnknown",
			"org.freedesktop.DBus.Error.NameHasNoOwner":
			return platform.PlatformError(op+": accessibility element is no longer valid", err)
		case "org.freedesktop.DBus.Error.NoReply",
			"org.freedesktop.DBus.Error.Timeout":
			return platform.PlatformError(op+": target application did not respond", err)
		}
		return platform.PlatformError(op+": "+derr.Name, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return platform.TimeoutError(op).WithCause(err)
	}
	return platform.PlatformError(op, err)
}
