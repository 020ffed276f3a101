//go:build darwin && cgo

package darwin

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/deskdriver/deskdriver/internal/platform"
)

// Clipboard reads and writes the system pasteboard through pbcopy and
// pbpaste. Shelling out avoids linking AppKit for two small operations
// and inherits the caller's deadline for free.
type Clipboard struct{}

// NewClipboard returns the pbcopy/pbpaste-backed clipboard.
func NewClipboard() *Clipboard {
	return &Clipboard{}
}

// GetText reads the current text content from the system clipboard.
func (c *Clipboard) GetText(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "pbpaste").Output()
	if err != nil {
		return "", platform.PlatformError("pbpaste", err)
	}
	return string(out), nil
}

// SetText writes text to the system clipboard.
func (c *Clipboard) SetText(ctx context.Context, text string) error {
	cmd := exec.CommandContext(ctx, "pbcopy")
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		return platform.PlatformError("pbcopy", err)
	}
	return nil
}

// Clear empties the system clipboard.
func (c *Clipboard) Clear(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "pbcopy")
	cmd.Stdin = bytes.NewReader(nil)
	if err := cmd.Run(); err != nil {
		return platform.PlatformError("pbcopy", err)
	}
	return nil
}
