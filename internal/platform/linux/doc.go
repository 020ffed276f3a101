// Package linux drives Linux desktops through AT-SPI2 over D-Bus.
//
// The engine connects to the accessibility bus (its address comes from the
// session bus, org.a11y.Bus.GetAddress), walks elements through the
// org.a11y.atspi interfaces, and synthesizes input through the registry's
// DeviceEventController. Concerns AT-SPI does not cover fall back to the
// usual desktop tools: xrandr for monitor geometry, gnome-screenshot, scrot
// or import for capture, xclip or wl-clipboard for the clipboard, xdotool
// for the pointer position.
package linux
