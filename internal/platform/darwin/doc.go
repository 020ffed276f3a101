// Package darwin provides the macOS automation engine using the
// Accessibility (AXUIElement) and CoreGraphics APIs. All functionality
// requires CGo; when CGo is disabled the package drops out and the factory
// reports the platform as unsupported.
package darwin
