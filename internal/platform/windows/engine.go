//go:build windows

package windows

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
	"unsafe"

	"github.com/go-ole/go-ole"
	"go.uber.org/zap"

	"github.com/deskdriver/deskdriver/internal/platform"
)

func init() {
	platform.NewEngineFunc = func(log *zap.Logger) (platform.Engine, error) {
		return NewEngine(log)
	}
}

// Engine drives Windows through UI Automation. The COM apartment lives on
// the executor's locked worker thread; every UIA call runs there, and
// calls abandoned on timeout cannot corrupt apartment state for later
// callers.
type Engine struct {
	log     *zap.Logger
	exec    *platform.Executor
	auto    *uiAutomation
	walker  *treeWalker
	clip    *Clipboard
	overlay *Overlay
}

// NewEngine enters a single-threaded COM apartment on a dedicated OS
// thread and creates the UI Automation client there.
func NewEngine(log *zap.Logger) (*Engine, error) {
	e := &Engine{log: log, clip: NewClipboard(), overlay: NewOverlay()}

	setup := func() error {
		if err := coInitialize(); err != nil {
			return err
		}
		unk, err := ole.CreateInstance(clsidCUIAutomation, iidIUIAutomation)
		if err != nil {
			ole.CoUninitialize()
			return platform.PlatformError("create UI Automation client", err)
		}
		e.auto = (*uiAutomation)(unsafe.Pointer(unk))
		walker, err := e.auto.rawViewWalker()
		if err != nil {
			e.auto.Release()
			ole.CoUninitialize()
			return err
		}
		e.walker = walker
		return nil
	}
	teardown := func() {
		if e.walker != nil {
			e.walker.Release()
		}
		if e.auto != nil {
			e.auto.Release()
		}
		ole.CoUninitialize()
	}

	ex, err := platform.NewExecutor(true, setup, teardown)
	if err != nil {
		return nil, err
	}
	e.exec = ex
	return e, nil
}

// coInitialize enters the apartment, tolerating the already-initialized
// result code.
func coInitialize() error {
	err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED)
	if err == nil {
		return nil
	}
	var oleErr *ole.OleError
	if errors.As(err, &oleErr) && oleErr.Code() == 1 { // S_FALSE
		return nil
	}
	return platform.PlatformError("initialize COM apartment", err)
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

func (e *Engine) Overlay() platform.Overlay { return e.overlay }

// RootElement returns the desktop element.
func (e *Engine) RootElement(ctx context.Context) (*platform.Element, error) {
	var root *uiaElement
	err := e.do(ctx, func() error {
		ref, err := e.auto.rootElement()
		if err != nil {
			return err
		}
		root = e.wrapRef(ref)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return platform.WrapElement(e, root), nil
}

// Applications returns the top-level window element of every process with
// an on-screen window, front to back.
func (e *Engine) Applications(ctx context.Context) ([]*platform.Element, error) {
	var apps []*uiaElement
	err := e.do(ctx, func() error {
		seen := make(map[int32]bool)
		for _, w := range listTopWindows() {
			if seen[w.pid] {
				continue
			}
			seen[w.pid] = true
			ref, err := e.auto.elementFromHandle(w.hwnd)
			if err != nil {
				continue
			}
			apps = append(apps, e.wrapRef(ref))
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

// ApplicationByName resolves a running application by title or process
// name. Window titles and owners are checked first, the process table
// second.
func (e *Engine) ApplicationByName(ctx context.Context, name string) (*platform.Element, error) {
	var app *uiaElement
	err := e.do(ctx, func() error {
		want := strings.ToLower(name)
		for _, w := range listTopWindows() {
			proc, _ := platform.ProcessName(w.pid)
			proc = strings.ToLower(strings.TrimSuffix(proc, ".exe"))
			if proc == want || strings.Contains(strings.ToLower(w.title), want) {
				ref, err := e.auto.elementFromHandle(w.hwnd)
				if err != nil {
					return err
				}
				app = e.wrapRef(ref)
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if app != nil {
		return platform.WrapElement(e, app), nil
	}

	pid, err := platform.FindProcessByName(name)
	if err != nil {
		return nil, err
	}
	return e.ApplicationByPID(ctx, pid, 0)
}

// ApplicationByPID resolves a process's top-level element. With a nonzero
// timeout it polls for the window, since a freshly spawned process paints
// its first frame well after fork.
func (e *Engine) ApplicationByPID(ctx context.Context, pid int32, timeout time.Duration) (*platform.Element, error) {
	deadline := time.Now().Add(timeout)
	for {
		var app *uiaElement
		err := e.do(ctx, func() error {
			if hwnd := mainWindowForPID(pid); hwnd != 0 {
				ref, err := e.auto.elementFromHandle(hwnd)
				if err != nil {
					return err
				}
				app = e.wrapRef(ref)
				return nil
			}
			// windowless process: search the desktop's children by pid
			cond, err := e.auto.pidCondition(pid)
			if err != nil {
				return err
			}
			defer cond.Release()
			root, err := e.auto.rootElement()
			if err != nil {
				return err
			}
			defer root.Release()
			ref, err := root.findFirst(scopeChildren, cond)
			if err != nil {
				return err
			}
			if ref == nil {
				return platform.ElementNotFound(fmt.Sprintf("no window for pid %d", pid))
			}
			app = e.wrapRef(ref)
			return nil
		})
		if err == nil && app != nil {
			return platform.WrapElement(e, app), nil
		}
		if time.Now().After(deadline) {
			if err == nil {
				err = platform.ElementNotFound(fmt.Sprintf("no window for pid %d", pid))
			}
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, platform.TimeoutError(fmt.Sprintf("application pid %d", pid)).WithCause(ctx.Err())
		case <-time.After(platform.DefaultPollInterval):
		}
	}
}

// ActiveWindow returns the foreground window element.
func (e *Engine) ActiveWindow(ctx context.Context) (*platform.Element, error) {
	var win *uiaElement
	err := e.do(ctx, func() error {
		hwnd := foregroundWindow()
		if hwnd == 0 {
			return platform.ElementNotFound("active window")
		}
		ref, err := e.auto.elementFromHandle(hwnd)
		if err != nil {
			return err
		}
		win = e.wrapRef(ref)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return platform.WrapElement(e, win), nil
}

// FocusedElement reads the element holding keyboard focus.
func (e *Engine) FocusedElement(ctx context.Context) (*platform.Element, error) {
	var focused *uiaElement
	err := e.do(ctx, func() error {
		ref, err := e.auto.focusedElement()
		if err != nil {
			return err
		}
		focused = e.wrapRef(ref)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return platform.WrapElement(e, focused), nil
}

const openAppTimeout = 10 * time.Second

// runStart shells out through cmd's start verb, which resolves app names,
// documents, and URLs alike.
func runStart(ctx context.Context, args ...string) error {
	cmdArgs := append([]string{"/C", "start", ""}, args...)
	out, err := exec.CommandContext(ctx, "cmd", cmdArgs...).CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			msg = err.Error()
		}
		return platform.PlatformError(fmt.Sprintf("start %s: %s", strings.Join(args, " "), msg), err)
	}
	return nil
}

// OpenApplication launches an application and waits for its first window.
func (e *Engine) OpenApplication(ctx context.Context, name string) (*platform.Element, error) {
	if name == "" {
		return nil, platform.InvalidArgument("application name is empty")
	}
	if err := runStart(ctx, name); err != nil {
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

// ActivateApplication foregrounds the named application's frontmost
// window.
func (e *Engine) ActivateApplication(ctx context.Context, name string) error {
	pid, err := platform.FindProcessByName(name)
	if err != nil {
		return err
	}
	return e.do(ctx, func() error {
		hwnd := mainWindowForPID(pid)
		if hwnd == 0 {
			return platform.ElementNotFound(fmt.Sprintf("no window for application %q", name))
		}
		raiseWindow(hwnd)
		return nil
	})
}

// OpenURL opens a URL in the named browser or the default handler.
func (e *Engine) OpenURL(ctx context.Context, url, browser string) error {
	if url == "" {
		return platform.InvalidArgument("url is empty")
	}
	if browser != "" {
		return runStart(ctx, browser, url)
	}
	return runStart(ctx, url)
}

// OpenFile opens a file or directory with its default application.
func (e *Engine) OpenFile(ctx context.Context, path string) error {
	if path == "" {
		return platform.InvalidArgument("path is empty")
	}
	return runStart(ctx, path)
}

// WindowRoot picks the capture root for a process: the first window whose
// title contains title, or the frontmost window when title is empty.
func (e *Engine) WindowRoot(ctx context.Context, pid int32, title string) (*platform.Element, error) {
	var win *uiaElement
	err := e.do(ctx, func() error {
		var candidates []topWindow
		for _, w := range listTopWindows() {
			if w.pid == pid {
				candidates = append(candidates, w)
			}
		}
		if len(candidates) == 0 {
			return platform.ElementNotFound(fmt.Sprintf("no windows for pid %d", pid))
		}
		pick := candidates[0]
		if title != "" {
			want := strings.ToLower(title)
			found := false
			for _, w := range candidates {
				if strings.Contains(strings.ToLower(w.title), want) {
					pick, found = w, true
					break
				}
			}
			if !found {
				return platform.ElementNotFound(fmt.Sprintf("window %q of pid %d", title, pid))
			}
		}
		ref, err := e.auto.elementFromHandle(pick.hwnd)
		if err != nil {
			return err
		}
		win = e.wrapRef(ref)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return platform.WrapElement(e, win), nil
}

// SetZoom drives the foreground application's zoom chords: ctrl+0 resets
// to 100 percent, then ctrl+plus or ctrl+minus steps in 10 percent
// notches toward the target.
func (e *Engine) SetZoom(ctx context.Context, percent int) error {
	if percent <= 0 {
		return platform.InvalidArgument(fmt.Sprintf("zoom percent %d", percent))
	}
	if err := e.KeyCombo(ctx, []string{"ctrl", "0"}); err != nil {
		return err
	}
	steps := (percent - 100 + 5) / 10
	key := "plus"
	if percent < 100 {
		steps = (100 - percent + 5) / 10
		key = "minus"
	}
	for i := 0; i < steps; i++ {
		if err := e.KeyCombo(ctx, []string{"ctrl", key}); err != nil {
			return err
		}
		time.Sleep(50 * time.Millisecond)
	}
	return nil
}
