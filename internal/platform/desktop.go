package platform

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/deskdriver/deskdriver/internal/model"
)

// DefaultFindTimeout bounds element resolution when the caller does not
// pass a timeout.
const DefaultFindTimeout = 5 * time.Second

// Desktop is the engine facade handed to callers: the per-OS Engine plus
// the shared logic that is identical on every platform, which is selector
// resolution, tree capture, command execution, monitor selection, OCR
// coordinate mapping, and coordinate-level input.
type Desktop struct {
	Engine

	ocr OCRService
	log *zap.Logger
}

// Option configures a Desktop.
type Option func(*Desktop)

// WithLogger injects the logger. The default is a nop logger so the engine
// stays quiet as a library.
func WithLogger(log *zap.Logger) Option {
	return func(d *Desktop) {
		if log != nil {
			d.log = log
		}
	}
}

// WithOCR wires the external OCR collaborator.
func WithOCR(svc OCRService) Option {
	return func(d *Desktop) { d.ocr = svc }
}

// New wraps an engine. Callers normally use Get; New exists for direct
// construction in tests and embedders that manage their own engine.
func New(eng Engine, opts ...Option) *Desktop {
	d := &Desktop{Engine: eng, log: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatcher returns the input dispatcher over this engine.
func (d *Desktop) Dispatcher() *Dispatcher {
	return NewDispatcher(d.Engine)
}

// FindOptions modifies element resolution.
type FindOptions struct {
	// Root searches under an explicit element instead of an application.
	Root *Element
	// Timeout bounds the poll. Zero means a single attempt; negative
	// means DefaultFindTimeout.
	Timeout time.Duration
	// ProcessHint supplies the application when the selector has no
	// process segment.
	ProcessHint string
	// Depth bounds the per-segment descent for FindElements.
	Depth int
}

// FindElement resolves a selector to its first match in traversal order,
// polling until the timeout elapses.
func (d *Desktop) FindElement(ctx context.Context, selector string, opts FindOptions) (*Element, error) {
	loc, err := d.locator(selector, opts)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout < 0 {
		timeout = DefaultFindTimeout
	}
	el, err := loc.First(ctx, timeout)
	if err != nil {
		d.log.Debug("find element failed", zap.String("selector", selector), zap.Error(err))
		return nil, err
	}
	return el, nil
}

// FindElements resolves every match of a selector in one pass.
func (d *Desktop) FindElements(ctx context.Context, selector string, opts FindOptions) ([]*Element, error) {
	loc, err := d.locator(selector, opts)
	if err != nil {
		return nil, err
	}
	return loc.All(ctx, opts.Depth)
}

func (d *Desktop) locator(selector string, opts FindOptions) (*Locator, error) {
	sel, err := ParseSelector(selector)
	if err != nil {
		return nil, err
	}
	if sel.Process == "" && opts.Root == nil {
		proc, err := sel.ResolveProcess(opts.ProcessHint)
		if err != nil {
			return nil, err
		}
		sel.Process = proc
	}
	return NewLocator(d.Engine, sel, opts.Root), nil
}

// WindowTree captures the tree of one application window: the window of
// pid whose title contains title, or the first window when title is empty.
func (d *Desktop) WindowTree(ctx context.Context, pid int32, title string, cfg TreeBuildConfig) (*model.UINode, error) {
	root, err := d.WindowRoot(ctx, pid, title)
	if err != nil {
		return nil, err
	}
	return d.TreeFromElement(ctx, root, cfg)
}

// TreeFromElement captures the subtree under an element, honoring the
// config's FromSelector to narrow the start point further.
func (d *Desktop) TreeFromElement(ctx context.Context, el *Element, cfg TreeBuildConfig) (*model.UINode, error) {
	root := el
	if cfg.FromSelector != "" {
		sel, err := ParseSelector(cfg.FromSelector)
		if err != nil {
			return nil, err
		}
		root, err = NewLocator(d.Engine, sel, el).First(ctx, 0)
		if err != nil {
			return nil, err
		}
	}
	start := time.Now()
	tree, err := BuildTree(ctx, root.Native(), cfg)
	if tree != nil {
		d.log.Debug("tree captured",
			zap.Int32("pid", el.PID),
			zap.Int("nodes", tree.Count()),
			zap.Duration("took", time.Since(start)),
			zap.Bool("partial", err != nil))
	}
	return tree, err
}

// RunCommand executes the command string for the host OS and captures its
// output in full. Exactly one of the two commands runs; the exit status is
// nil when the child was killed by a signal.
func (d *Desktop) RunCommand(ctx context.Context, windowsCmd, unixCmd string) (CommandOutput, error) {
	return RunCommand(ctx, windowsCmd, unixCmd)
}

// RunCommand is the engine-free form of Desktop.RunCommand, for callers
// that only need a shell and not an accessibility connection.
func RunCommand(ctx context.Context, windowsCmd, unixCmd string) (CommandOutput, error) {
	var shell []string
	var command string
	if runtime.GOOS == "windows" {
		command = windowsCmd
		shell = []string{"cmd", "/C"}
	} else {
		command = unixCmd
		shell = []string{"/bin/sh", "-c"}
	}
	if command == "" {
		return CommandOutput{}, InvalidArgument("no command provided for this platform")
	}

	cmd := exec.CommandContext(ctx, shell[0], append(shell[1:], command)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	out := CommandOutput{Stdout: stdout.String(), Stderr: stderr.String()}

	if cmd.ProcessState != nil {
		if code := cmd.ProcessState.ExitCode(); code >= 0 {
			out.ExitStatus = &code
		}
	}

	if runErr != nil {
		if ctx.Err() != nil {
			return out, TimeoutError(fmt.Sprintf("command %q exceeded its deadline", command)).WithCause(ctx.Err())
		}
		if _, ok := runErr.(*exec.ExitError); ok {
			// non-zero exit is a result, not an engine failure
			return out, nil
		}
		return out, PlatformError(fmt.Sprintf("run command %q", command), runErr)
	}
	return out, nil
}

// PrimaryMonitor returns the primary display.
func (d *Desktop) PrimaryMonitor(ctx context.Context) (Monitor, error) {
	monitors, err := d.Monitors(ctx)
	if err != nil {
		return Monitor{}, err
	}
	for _, m := range monitors {
		if m.IsPrimary {
			return m, nil
		}
	}
	if len(monitors) > 0 {
		return monitors[0], nil
	}
	return Monitor{}, ElementNotFound("no monitors")
}

// ActiveMonitor returns the display under the pointer, falling back to the
// primary when the pointer cannot be read.
func (d *Desktop) ActiveMonitor(ctx context.Context) (Monitor, error) {
	x, y, err := d.CursorPosition(ctx)
	if err != nil {
		return d.PrimaryMonitor(ctx)
	}
	monitors, err := d.Monitors(ctx)
	if err != nil {
		return Monitor{}, err
	}
	for _, m := range monitors {
		if m.Contains(x, y) {
			return m, nil
		}
	}
	return d.PrimaryMonitor(ctx)
}

// MonitorByID resolves a display by id.
func (d *Desktop) MonitorByID(ctx context.Context, id string) (Monitor, error) {
	monitors, err := d.Monitors(ctx)
	if err != nil {
		return Monitor{}, err
	}
	for _, m := range monitors {
		if m.ID == id {
			return m, nil
		}
	}
	return Monitor{}, ElementNotFound(fmt.Sprintf("no monitor with id %q", id))
}

// MonitorByName resolves a display by name.
func (d *Desktop) MonitorByName(ctx context.Context, name string) (Monitor, error) {
	monitors, err := d.Monitors(ctx)
	if err != nil {
		return Monitor{}, err
	}
	for _, m := range monitors {
		if m.Name == name {
			return m, nil
		}
	}
	return Monitor{}, ElementNotFound(fmt.Sprintf("no monitor named %q", name))
}

// CaptureMonitorByID grabs the current frame of the display with the id.
func (d *Desktop) CaptureMonitorByID(ctx context.Context, id string) (*Screenshot, error) {
	m, err := d.MonitorByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return d.CaptureMonitor(ctx, m)
}

// CaptureAllMonitors grabs every display, a few in flight at a time.
func (d *Desktop) CaptureAllMonitors(ctx context.Context) ([]*Screenshot, error) {
	monitors, err := d.Monitors(ctx)
	if err != nil {
		return nil, err
	}

	shots := make([]*Screenshot, len(monitors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, m := range monitors {
		g.Go(func() error {
			shot, err := d.CaptureMonitor(gctx, m)
			if err != nil {
				return err
			}
			shots[i] = shot
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return shots, nil
}

// OCRImagePath extracts text from an image file.
func (d *Desktop) OCRImagePath(ctx context.Context, path string) (string, error) {
	if d.ocr == nil {
		return "", UnsupportedOperation("ocr")
	}
	f, err := os.Open(path)
	if err != nil {
		return "", InvalidArgument(fmt.Sprintf("open image %q: %v", path, err))
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", InvalidArgument(fmt.Sprintf("decode image %q: %v", path, err))
	}
	return d.ocr.Recognize(ctx, img)
}

// OCRScreenshot extracts text from a captured frame.
func (d *Desktop) OCRScreenshot(ctx context.Context, shot *Screenshot) (string, error) {
	if d.ocr == nil {
		return "", UnsupportedOperation("ocr")
	}
	return d.ocr.Recognize(ctx, shot.Image())
}

// OCRScreenshotWithBounds extracts words from a captured frame and maps
// their boxes to absolute screen coordinates, given the window origin and
// the DPI scale on each axis.
func (d *Desktop) OCRScreenshotWithBounds(ctx context.Context, shot *Screenshot, windowX, windowY, scaleX, scaleY float64) ([]OCRWord, error) {
	if d.ocr == nil {
		return nil, UnsupportedOperation("ocr")
	}
	if scaleX <= 0 || scaleY <= 0 {
		return nil, InvalidArgument("dpi scale factors must be positive")
	}
	words, err := d.ocr.RecognizeWords(ctx, shot.Image())
	if err != nil {
		return nil, err
	}
	mapped := make([]OCRWord, 0, len(words))
	for _, w := range words {
		mapped = append(mapped, mapWordToScreen(w, windowX, windowY, scaleX, scaleY))
	}
	return mapped, nil
}

// ClickAtCoordinates clicks at raw screen coordinates, optionally putting
// the pointer back afterward.
func (d *Desktop) ClickAtCoordinates(ctx context.Context, x, y int, restoreCursor bool) error {
	return d.Dispatcher().ClickAtPoint(ctx, x, y, ClickOptions{RestoreCursor: restoreCursor})
}

// ClickAtCoordinatesWithType clicks at raw screen coordinates with an
// explicit button and count.
func (d *Desktop) ClickAtCoordinatesWithType(ctx context.Context, x, y int, button MouseButton, count int, restoreCursor bool) error {
	return d.Dispatcher().ClickAtPoint(ctx, x, y, ClickOptions{
		Button:        button,
		Count:         count,
		RestoreCursor: restoreCursor,
	})
}

// PressKeyGlobal sends a key combination to whatever currently has focus.
func (d *Desktop) PressKeyGlobal(ctx context.Context, combo string) error {
	keys, err := ParseKeyCombo(combo)
	if err != nil {
		return err
	}
	return d.KeyCombo(ctx, keys)
}
