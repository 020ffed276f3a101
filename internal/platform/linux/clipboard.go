//go:build linux

package linux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/deskdriver/deskdriver/internal/platform"
)

// Clipboard shells out to the session's clipboard tool: wl-clipboard on
// Wayland, xclip on X11. AT-SPI has no clipboard interface.
type Clipboard struct{}

func NewClipboard() *Clipboard { return &Clipboard{} }

type clipTool struct {
	paste []string
	copy  []string
	clear []string
}

// pickClipTool prefers wl-clipboard when a Wayland session is visible,
// then falls back to xclip.
func pickClipTool() (clipTool, error) {
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		if _, err := exec.LookPath("wl-paste"); err == nil {
			return clipTool{
				paste: []string{"wl-paste", "--no-newline"},
				copy:  []string{"wl-copy"},
				clear: []string{"wl-copy", "--clear"},
			}, nil
		}
	}
	if _, err := exec.LookPath("xclip"); err == nil {
		return clipTool{
			paste: []string{"xclip", "-selection", "clipboard", "-out"},
			copy:  []string{"xclip", "-selection", "clipboard", "-in"},
			clear: []string{"xclip", "-selection", "clipboard", "-in"},
		}, nil
	}
	return clipTool{}, platform.UnsupportedOperation("clipboard access without xclip or wl-clipboard")
}

func (c *Clipboard) GetText(ctx context.Context) (string, error) {
	tool, err := pickClipTool()
	if err != nil {
		return "", err
	}
	out, err := exec.CommandContext(ctx, tool.paste[0], tool.paste[1:]...).Output()
	if err != nil {
		var exit *exec.ExitError
		if errors.As(err, &exit) {
			// Both tools exit non-zero when the selection holds no text.
			return "", nil
		}
		return "", platform.PlatformError("read clipboard", err)
	}
	return string(out), nil
}

func (c *Clipboard) SetText(ctx context.Context, text string) error {
	tool, err := pickClipTool()
	if err != nil {
		return err
	}
	return runClipTool(ctx, tool.copy, text)
}

// Clear empties the selection: wl-copy has a flag for it, xclip takes
// zero bytes on stdin.
func (c *Clipboard) Clear(ctx context.Context) error {
	tool, err := pickClipTool()
	if err != nil {
		return err
	}
	return runClipTool(ctx, tool.clear, "")
}

func runClipTool(ctx context.Context, argv []string, stdin string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return platform.PlatformError(fmt.Sprintf("%s: %s", argv[0], msg), err)
	}
	return nil
}
