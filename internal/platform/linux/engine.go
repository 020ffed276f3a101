//go:build linux

package linux

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"

	"github.com/deskdriver/deskdriver/internal/model"
	"github.com/deskdriver/deskdriver/internal/platform"
)

func init() {
	platform.NewEngineFunc = func(log *zap.Logger) (platform.Engine, error) {
		return NewEngine(log)
	}
}

// Engine drives Linux desktops through AT-SPI2. Every bus call funnels
// through one executor worker: a query against an unresponsive application
// can block until the bus timeout, and abandoning it must not reorder the
// input stream behind it.
type Engine struct {
	log  *zap.Logger
	exec *platform.Executor
	conn *dbus.Conn
	clip *Clipboard
}

// NewEngine connects to the accessibility bus. The connection is opened on
// the worker so construction fails fast when at-spi2 is not running.
func NewEngine(log *zap.Logger) (*Engine, error) {
	e := &Engine{log: log, clip: NewClipboard()}
	setup := func() error {
		conn, err := connectA11yBus()
		if err != nil {
			return err
		}
		e.conn = conn
		return nil
	}
	teardown := func() {
		if e.conn != nil {
			e.conn.Close()
		}
	}
	ex, err := platform.NewExecutor(false, setup, teardown)
	if err != nil {
		return nil, err
	}
	e.exec = ex
	return e, nil
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

// Overlay returns the highlight stub; Linux has no overlay backend.
func (e *Engine) Overlay() platform.Overlay { return platform.NoopOverlay{} }

// RootElement returns the registry's desktop root, whose children are the
// running accessible applications.
func (e *Engine) RootElement(ctx context.Context) (*platform.Element, error) {
	return platform.WrapElement(e, e.rootElement()), nil
}

// listApps wraps every application under the desktop root. Applications
// whose process cannot be resolved are skipped; their connection is
// already gone. Must run on the engine worker.
func (e *Engine) listApps(ctx context.Context) ([]*atspiElement, error) {
	refs, err := e.rootElement().childRefs(ctx)
	if err != nil {
		return nil, err
	}
	apps := make([]*atspiElement, 0, len(refs))
	for _, ref := range refs {
		if ref.isNull() {
			continue
		}
		app, err := e.wrapApp(ctx, ref)
		if err != nil {
			continue
		}
		apps = append(apps, app)
	}
	return apps, nil
}

// frames returns an application's top-level window children. Must run on
// the engine worker.
func (e *Engine) frames(ctx context.Context, app *atspiElement) ([]*atspiElement, error) {
	refs, err := app.childRefs(ctx)
	if err != nil {
		return nil, err
	}
	var wins []*atspiElement
	for _, ref := range refs {
		if ref.isNull() {
			continue
		}
		child := e.wrapChild(app, ref)
		raw, err := child.roleName(ctx)
		if err != nil {
			continue
		}
		switch model.NormalizeRole(raw) {
		case model.RoleWindow, model.RoleDialog:
			wins = append(wins, child)
		}
	}
	return wins, nil
}

// Applications returns every application registered with the
// accessibility bus.
func (e *Engine) Applications(ctx context.Context) ([]*platform.Element, error) {
	var apps []*atspiElement
	err := e.do(ctx, func() error {
		var err error
		apps, err = e.listApps(ctx)
		return err
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

// ApplicationByName resolves a running application by its accessible name,
// falling back to the process table so applications that registered under
// a different name still resolve by binary name.
func (e *Engine) ApplicationByName(ctx context.Context, name string) (*platform.Element, error) {
	var app *atspiElement
	err := e.do(ctx, func() error {
		apps, err := e.listApps(ctx)
		if err != nil {
			return err
		}
		for _, a := range apps {
			n, err := a.nameProp(ctx)
			if err == nil && strings.EqualFold(n, name) {
				app = a
				return nil
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
		return e.ApplicationByPID(ctx, pid, 0)
	}
	return platform.WrapElement(e, app), nil
}

// ApplicationByPID resolves the application element for a pid. With a
// nonzero timeout it polls, since a freshly spawned process registers with
// the accessibility bus a beat after its first window maps.
func (e *Engine) ApplicationByPID(ctx context.Context, pid int32, timeout time.Duration) (*platform.Element, error) {
	deadline := time.Now().Add(timeout)
	for {
		var app *atspiElement
		err := e.do(ctx, func() error {
			apps, err := e.listApps(ctx)
			if err != nil {
				return err
			}
			for _, a := range apps {
				if a.pid == pid {
					app = a
					return nil
				}
			}
			return platform.ElementNotFound(fmt.Sprintf("no accessible application with pid %d", pid))
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

// Windows lists top-level windows, all of them or one process's.
func (e *Engine) Windows(ctx context.Context, pid int32) ([]model.Window, error) {
	var out []model.Window
	err := e.do(ctx, func() error {
		apps, err := e.listApps(ctx)
		if err != nil {
			return err
		}
		for _, app := range apps {
			if pid != 0 && app.pid != pid {
				continue
			}
			frames, err := e.frames(ctx, app)
			if err != nil {
				continue
			}
			name, _ := platform.ProcessName(app.pid)
			for _, f := range frames {
				title, _ := f.nameProp(ctx)
				w := model.Window{App: name, PID: app.pid, Title: title}
				if rect, err := f.extents(ctx); err == nil {
					w.Bounds = &rect
				}
				if bits, err := f.stateBits(ctx); err == nil {
					w.Focused = bits&(1<<stateActive) != 0
				}
				out = append(out, w)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ActiveWindow returns the frame carrying the active state.
func (e *Engine) ActiveWindow(ctx context.Context) (*platform.Element, error) {
	var win *atspiElement
	err := e.do(ctx, func() error {
		apps, err := e.listApps(ctx)
		if err != nil {
			return err
		}
		for _, app := range apps {
			frames, err := e.frames(ctx, app)
			if err != nil {
				continue
			}
			for _, f := range frames {
				bits, err := f.stateBits(ctx)
				if err == nil && bits&(1<<stateActive) != 0 {
					win = f
					return nil
				}
			}
		}
		return platform.ElementNotFound("active window")
	})
	if err != nil {
		return nil, err
	}
	return platform.WrapElement(e, win), nil
}

const openAppTimeout = 10 * time.Second

// runTool runs a desktop helper command, folding its stderr into the error.
func runTool(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			msg = err.Error()
		}
		return platform.PlatformError(fmt.Sprintf("%s %s: %s", name, strings.Join(args, " "), msg), err)
	}
	return nil
}

// launchApp starts a desktop application: gtk-launch resolves .desktop
// names, a PATH lookup covers plain binaries. Started binaries are reaped
// in the background so they never linger as zombies.
func launchApp(ctx context.Context, name string) error {
	candidates := []string{name}
	if lower := strings.ToLower(name); lower != name {
		candidates = append(candidates, lower)
	}
	if _, err := exec.LookPath("gtk-launch"); err == nil {
		for _, c := range candidates {
			if exec.CommandContext(ctx, "gtk-launch", c).Run() == nil {
				return nil
			}
		}
	}
	for _, c := range candidates {
		bin, err := exec.LookPath(c)
		if err != nil {
			continue
		}
		cmd := exec.Command(bin)
		if err := cmd.Start(); err != nil {
			return platform.PlatformError(fmt.Sprintf("start %q", bin), err)
		}
		go cmd.Wait()
		return nil
	}
	return platform.PlatformError(fmt.Sprintf("no desktop entry or binary for %q", name), nil)
}

// OpenApplication launches an application by name and waits for it to
// register with the accessibility bus.
func (e *Engine) OpenApplication(ctx context.Context, name string) (*platform.Element, error) {
	if name == "" {
		return nil, platform.InvalidArgument("application name is empty")
	}
	if err := launchApp(ctx, name); err != nil {
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

// ActivateApplication raises the named application's showing frame.
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
		bin, err := exec.LookPath(browser)
		if err != nil {
			bin, err = exec.LookPath(strings.ToLower(browser))
		}
		if err != nil {
			return platform.PlatformError(fmt.Sprintf("no browser %q on PATH", browser), err)
		}
		cmd := exec.Command(bin, url)
		if err := cmd.Start(); err != nil {
			return platform.PlatformError(fmt.Sprintf("start %q", bin), err)
		}
		go cmd.Wait()
		return nil
	}
	return runTool(ctx, "xdg-open", url)
}

// OpenFile opens a file or directory with its default application.
func (e *Engine) OpenFile(ctx context.Context, path string) error {
	if path == "" {
		return platform.InvalidArgument("path is empty")
	}
	return runTool(ctx, "xdg-open", path)
}

// WindowRoot picks the capture root for a process: the first window whose
// title contains title, or the first window when title is empty.
func (e *Engine) WindowRoot(ctx context.Context, pid int32, title string) (*platform.Element, error) {
	var win *atspiElement
	err := e.do(ctx, func() error {
		apps, err := e.listApps(ctx)
		if err != nil {
			return err
		}
		var app *atspiElement
		for _, a := range apps {
			if a.pid == pid {
				app = a
				break
			}
		}
		if app == nil {
			return platform.ElementNotFound(fmt.Sprintf("no accessible application with pid %d", pid))
		}
		frames, err := e.frames(ctx, app)
		if err != nil {
			return err
		}
		if len(frames) == 0 {
			return platform.ElementNotFound(fmt.Sprintf("no windows for pid %d", pid))
		}
		if title == "" {
			win = frames[0]
			return nil
		}
		want := strings.ToLower(title)
		for _, f := range frames {
			t, err := f.nameProp(ctx)
			if err == nil && strings.Contains(strings.ToLower(t), want) {
				win = f
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

// SetZoom is not implemented here: zoom chords differ per desktop and
// toolkit, and AT-SPI exposes no zoom interface.
func (e *Engine) SetZoom(ctx context.Context, percent int) error {
	if percent <= 0 {
		return platform.InvalidArgument(fmt.Sprintf("zoom percent %d", percent))
	}
	return platform.UnsupportedOperation("zoom control")
}
