//go:build darwin && cgo

package darwin

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/deskdriver/deskdriver/internal/platform"
)

func init() {
	platform.NewEngineFunc = func(log *zap.Logger) (platform.Engine, error) {
		return NewEngine(log)
	}
}

// Engine drives macOS through the accessibility API and CoreGraphics event
// taps. Every AX call funnels through one executor worker: a lookup against
// an unresponsive application can block for seconds, and abandoning it must
// not poison later calls.
type Engine struct {
	log      *zap.Logger
	exec     *platform.Executor
	clip     *Clipboard
	dragging bool
}

// NewEngine connects to the accessibility layer. Missing permission is
// logged rather than fatal: input and capture still work without it, and
// the per-call errors carry the grant instructions.
func NewEngine(log *zap.Logger) (*Engine, error) {
	ex, err := platform.NewExecutor(false, nil, nil)
	if err != nil {
		return nil, err
	}
	if !IsAccessibilityTrusted() {
		log.Warn("accessibility permission not granted, element operations will fail",
			zap.String("grant_at", "System Settings > Privacy & Security > Accessibility"))
	}
	return &Engine{log: log, exec: ex, clip: NewClipboard()}, nil
}

// do runs fn on the engine worker under the caller's deadline.
func (e *Engine) do(ctx context.Context, fn func() error) error {
	return e.exec.Do(ctx, 0, fn)
}

func (e *Engine) Close() error {
	e.exec.Close()
	return nil
}

func (e *Engine) Clipboard() platform.Clipboard { return e.clip }

// Overlay returns the highlight stub; macOS has no overlay backend.
func (e *Engine) Overlay() platform.Overlay { return platform.NoopOverlay{} }

// RootElement returns the system-wide accessibility element. It exposes no
// attributes of its own but anchors process-unscoped searches.
func (e *Engine) RootElement(ctx context.Context) (*platform.Element, error) {
	var root *axElement
	err := e.do(ctx, func() error {
		var err error
		root, err = e.systemWide()
		return err
	})
	if err != nil {
		return nil, err
	}
	return platform.WrapElement(e, root), nil
}

// Applications returns the application element of every process with an
// on-screen window, front to back.
func (e *Engine) Applications(ctx context.Context) ([]*platform.Element, error) {
	var apps []*axElement
	err := e.do(ctx, func() error {
		wins, err := listWindows()
		if err != nil {
			return err
		}
		seen := make(map[int32]bool)
		for _, w := range wins {
			if seen[w.PID] {
				continue
			}
			seen[w.PID] = true
			app, err := e.appElement(w.PID)
			if err != nil {
				continue
			}
			apps = append(apps, app)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]*platform.Element, 0, len(apps))
	for _, app := range apps {
		out = append(out, platform.WrapElement(e, app))
	}
	return out, nil
}

// ApplicationByName resolves a running application by display name. Window
// owners are checked first, the process table second, so background
// applications without windows still resolve.
func (e *Engine) ApplicationByName(ctx context.Context, name string) (*platform.Element, error) {
	var app *axElement
	err := e.do(ctx, func() error {
		wins, err := listWindows()
		if err != nil {
			return err
		}
		for _, w := range wins {
			if strings.EqualFold(w.App, name) {
				app, err = e.appElement(w.PID)
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if app == nil {
		pid, err := platform.FindProcessByName(name)
		if err != nil {
			return nil, err
		}
		if err := e.do(ctx, func() error {
			var err error
			app, err = e.appElement(pid)
			return err
		}); err != nil {
			return nil, err
		}
	}
	return platform.WrapElement(e, app), nil
}

// ApplicationByPID resolves the application element for a pid. With a
// nonzero timeout it polls until the element answers a role query, since a
// freshly spawned process registers with the accessibility server a beat
// after fork.
func (e *Engine) ApplicationByPID(ctx context.Context, pid int32, timeout time.Duration) (*platform.Element, error) {
	deadline := time.Now().Add(timeout)
	for {
		var app *axElement
		err := e.do(ctx, func() error {
			a, err := e.appElement(pid)
			if err != nil {
				return err
			}
			if _, err := a.copyString("AXRole"); err != nil {
				return err
			}
			app = a
			return nil
		})
		if err == nil {
			return platform.WrapElement(e, app), nil
		}
		if time.Now().After(deadline) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, platform.TimeoutError(fmt.Sprintf("application pid %d", pid)).WithCause(ctx.Err())
		case <-time.After(platform.DefaultPollInterval):
		}
	}
}

// ActiveWindow returns the focused window of the frontmost application,
// falling back to its main window when focus is in a non-window element
// such as the menu bar.
func (e *Engine) ActiveWindow(ctx context.Context) (*platform.Element, error) {
	var win *axElement
	err := e.do(ctx, func() error {
		pid := frontmostPID()
		if pid == 0 {
			return platform.PlatformError("read frontmost application", nil)
		}
		app, err := e.appElement(pid)
		if err != nil {
			return err
		}
		win, err = app.copyElementAttr("AXFocusedWindow")
		if err != nil || win == nil {
			win, err = app.copyElementAttr("AXMainWindow")
		}
		if err != nil {
			return err
		}
		if win == nil {
			return platform.ElementNotFound("active window")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return platform.WrapElement(e, win), nil
}

// FocusedElement reads the element holding keyboard focus.
func (e *Engine) FocusedElement(ctx context.Context) (*platform.Element, error) {
	var focused *axElement
	err := e.do(ctx, func() error {
		sys, err := e.systemWide()
		if err != nil {
			return err
		}
		focused, err = sys.copyElementAttr("AXFocusedUIElement")
		if err != nil {
			return err
		}
		if focused == nil {
			return platform.ElementNotFound("focused element")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return platform.WrapElement(e, focused), nil
}

const openAppTimeout = 10 * time.Second

// runOpen shells out to /usr/bin/open, folding its stderr into the error.
func runOpen(ctx context.Context, args ...string) error {
	out, err := exec.CommandContext(ctx, "open", args...).CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			msg = err.Error()
		}
		return platform.PlatformError(fmt.Sprintf("open %s: %s", strings.Join(args, " "), msg), err)
	}
	return nil
}

// OpenApplication launches an application by name and waits for it to
// register with the accessibility server.
func (e *Engine) OpenApplication(ctx context.Context, name string) (*platform.Element, error) {
	if name == "" {
		return nil, platform.InvalidArgument("application name is empty")
	}
	if err := runOpen(ctx, "-a", name); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(openAppTimeout)
	for {
		app, err := e.ApplicationByName(ctx, name)
		if err == nil {
			return app, nil
		}
		if time.Now().After(deadline) {
			return nil, platform.TimeoutError(fmt.Sprintf("application %q did not appear", name))
		}
		select {
		case <-ctx.Done():
			return nil, platform.TimeoutError(fmt.Sprintf("application %q did not appear", name)).WithCause(ctx.Err())
		case <-time.After(platform.DefaultPollInterval):
		}
	}
}

// ActivateApplication brings the named application frontmost.
func (e *Engine) ActivateApplication(ctx context.Context, name string) error {
	app, err := e.ApplicationByName(ctx, name)
	if err != nil {
		return err
	}
	return app.Activate(ctx)
}

// OpenURL opens a URL in the named browser, or the default handler when
// browser is empty.
func (e *Engine) OpenURL(ctx context.Context, url, browser string) error {
	if url == "" {
		return platform.InvalidArgument("url is empty")
	}
	if browser != "" {
		return runOpen(ctx, "-a", browser, url)
	}
	return runOpen(ctx, url)
}

// OpenFile opens a file or directory with its default application.
func (e *Engine) OpenFile(ctx context.Context, path string) error {
	if path == "" {
		return platform.InvalidArgument("path is empty")
	}
	return runOpen(ctx, path)
}

// WindowRoot picks the capture root for a process: the first window whose
// title contains title, or the frontmost window when title is empty.
func (e *Engine) WindowRoot(ctx context.Context, pid int32, title string) (*platform.Element, error) {
	var win *axElement
	err := e.do(ctx, func() error {
		app, err := e.appElement(pid)
		if err != nil {
			return err
		}
		wins, err := app.copyElements("AXWindows")
		if err != nil {
			return err
		}
		if len(wins) == 0 {
			return platform.ElementNotFound(fmt.Sprintf("no windows for pid %d", pid))
		}
		if title == "" {
			win = wins[0]
			return nil
		}
		want := strings.ToLower(title)
		for _, w := range wins {
			t, err := w.copyString("AXTitle")
			if err == nil && strings.Contains(strings.ToLower(t), want) {
				win = w
				return nil
			}
		}
		return platform.ElementNotFound(fmt.Sprintf("window %q of pid %d", title, pid))
	})
	if err != nil {
		return nil, err
	}
	return platform.WrapElement(e, win), nil
}

// SetZoom drives the frontmost application's zoom chords: cmd+0 resets to
// 100 percent, then cmd+plus or cmd+minus steps in 10 percent notches
// toward the target.
func (e *Engine) SetZoom(ctx context.Context, percent int) error {
	if percent <= 0 {
		return platform.InvalidArgument(fmt.Sprintf("zoom percent %d", percent))
	}
	if err := e.KeyCombo(ctx, []string{"cmd", "0"}); err != nil {
		return err
	}
	steps := int(math.Round(float64(percent-100) / 10))
	key := "plus"
	if steps < 0 {
		steps, key = -steps, "minus"
	}
	for i := 0; i < steps; i++ {
		if err := e.KeyCombo(ctx, []string{"cmd", key}); err != nil {
			return err
		}
		time.Sleep(50 * time.Millisecond)
	}
	return nil
}
