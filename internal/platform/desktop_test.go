package platform

import (
	"context"
	"image"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/deskdriver/deskdriver/internal/model"
)

// fakeOCR recognizes a fixed word list.
type fakeOCR struct {
	text  string
	words []OCRWord
}

func (f *fakeOCR) Recognize(ctx context.Context, img image.Image) (string, error) {
	return f.text, nil
}

func (f *fakeOCR) RecognizeWords(ctx context.Context, img image.Image) ([]OCRWord, error) {
	return f.words, nil
}

func hostCommands(unix string) (string, string) {
	if runtime.GOOS == "windows" {
		return unix, ""
	}
	return "", unix
}

func TestRunCommand_CapturesOutput(t *testing.T) {
	d := New(newFakeEngine())
	win, unix := hostCommands("echo hello")

	out, err := d.RunCommand(context.Background(), win, unix)
	if err != nil {
		t.Fatalf("RunCommand: %v", err)
	}
	if strings.TrimSpace(out.Stdout) != "hello" {
		t.Errorf("stdout = %q", out.Stdout)
	}
	if out.ExitStatus == nil || *out.ExitStatus != 0 {
		t.Errorf("exit status = %v, want 0", out.ExitStatus)
	}
}

func TestRunCommand_NonZeroExitIsAResult(t *testing.T) {
	d := New(newFakeEngine())
	win, unix := hostCommands("exit 3")

	out, err := d.RunCommand(context.Background(), win, unix)
	if err != nil {
		t.Fatalf("non-zero exit must not be an engine error: %v", err)
	}
	if out.ExitStatus == nil || *out.ExitStatus != 3 {
		t.Errorf("exit status = %v, want 3", out.ExitStatus)
	}
}

func TestRunCommand_StderrCaptured(t *testing.T) {
	d := New(newFakeEngine())
	win, unix := hostCommands("echo oops 1>&2")

	out, err := d.RunCommand(context.Background(), win, unix)
	if err != nil {
		t.Fatalf("RunCommand: %v", err)
	}
	if strings.TrimSpace(out.Stderr) != "oops" {
		t.Errorf("stderr = %q", out.Stderr)
	}
}

func TestRunCommand_MissingCommandForPlatform(t *testing.T) {
	d := New(newFakeEngine())

	if _, err := d.RunCommand(context.Background(), "", ""); !IsCode(err, ErrCodeInvalidArgument) {
		t.Errorf("no command for this platform should be INVALID_ARGUMENT, got %v", err)
	}
}

func TestRunCommand_DeadlineKillsChild(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("sleep spelling differs on windows")
	}
	d := New(newFakeEngine())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	out, err := d.RunCommand(ctx, "", "sleep 5")
	if !IsCode(err, ErrCodeTimeout) {
		t.Fatalf("expected TIMEOUT, got %v", err)
	}
	if out.ExitStatus != nil {
		t.Errorf("a signal-killed child has no exit status, got %d", *out.ExitStatus)
	}
}

func TestPrimaryMonitor(t *testing.T) {
	eng := newFakeEngine()
	eng.monitors = []Monitor{
		{ID: "0", Name: "Left", Width: 1920, Height: 1080},
		{ID: "1", Name: "Right", IsPrimary: true, X: 1920, Width: 2560, Height: 1440},
	}
	d := New(eng)

	m, err := d.PrimaryMonitor(context.Background())
	if err != nil || m.ID != "1" {
		t.Errorf("PrimaryMonitor = %+v, %v", m, err)
	}
}

func TestActiveMonitor_FollowsCursor(t *testing.T) {
	eng := newFakeEngine()
	eng.monitors = []Monitor{
		{ID: "0", Name: "Left", IsPrimary: true, Width: 1920, Height: 1080},
		{ID: "1", Name: "Right", X: 1920, Width: 2560, Height: 1440},
	}
	d := New(eng)
	ctx := context.Background()

	if err := d.MoveMouse(ctx, 2500, 600); err != nil {
		t.Fatalf("MoveMouse: %v", err)
	}
	m, err := d.ActiveMonitor(ctx)
	if err != nil || m.ID != "1" {
		t.Errorf("ActiveMonitor = %+v, %v, want the display under the pointer", m, err)
	}

	// a pointer outside every display falls back to the primary
	if err := d.MoveMouse(ctx, -5000, -5000); err != nil {
		t.Fatalf("MoveMouse: %v", err)
	}
	m, err = d.ActiveMonitor(ctx)
	if err != nil || m.ID != "0" {
		t.Errorf("ActiveMonitor fallback = %+v, %v, want primary", m, err)
	}
}

func TestMonitorLookup(t *testing.T) {
	d := New(newFakeEngine())
	ctx := context.Background()

	if _, err := d.MonitorByID(ctx, "0"); err != nil {
		t.Errorf("MonitorByID(0): %v", err)
	}
	if _, err := d.MonitorByID(ctx, "7"); !IsCode(err, ErrCodeElementNotFound) {
		t.Errorf("unknown id should be ELEMENT_NOT_FOUND, got %v", err)
	}
	if _, err := d.MonitorByName(ctx, "Built-in"); err != nil {
		t.Errorf("MonitorByName: %v", err)
	}
	if _, err := d.MonitorByName(ctx, "CRT"); !IsCode(err, ErrCodeElementNotFound) {
		t.Errorf("unknown name should be ELEMENT_NOT_FOUND, got %v", err)
	}
}

func TestCaptureAllMonitors(t *testing.T) {
	eng := newFakeEngine()
	eng.monitors = []Monitor{
		{ID: "0", IsPrimary: true, Width: 1920, Height: 1080},
		{ID: "1", X: 1920, Width: 2560, Height: 1440},
		{ID: "2", X: 4480, Width: 1280, Height: 720},
	}
	d := New(eng)

	shots, err := d.CaptureAllMonitors(context.Background())
	if err != nil {
		t.Fatalf("CaptureAllMonitors: %v", err)
	}
	if len(shots) != 3 {
		t.Fatalf("got %d shots", len(shots))
	}
	for i, shot := range shots {
		if shot == nil || shot.Monitor.ID != eng.monitors[i].ID {
			t.Errorf("shot %d is %+v, out of order or missing", i, shot)
		}
	}
}

func TestFindElement_ProcessHint(t *testing.T) {
	d := New(mailEngine())
	ctx := context.Background()

	el, err := d.FindElement(ctx, "role:button|name:Send", FindOptions{ProcessHint: "Mail"})
	if err != nil {
		t.Fatalf("FindElement with hint: %v", err)
	}
	name, _ := el.Name(ctx)
	if name != "Send" {
		t.Errorf("resolved %q", name)
	}

	if _, err := d.FindElement(ctx, "role:button", FindOptions{}); !IsCode(err, ErrCodeInvalidArgument) {
		t.Errorf("selector without process or hint should be INVALID_ARGUMENT, got %v", err)
	}
}

func TestFindElements(t *testing.T) {
	d := New(mailEngine())

	els, err := d.FindElements(context.Background(), "process:Mail >> role:listitem", FindOptions{})
	if err != nil {
		t.Fatalf("FindElements: %v", err)
	}
	if len(els) != 3 {
		t.Errorf("got %d elements", len(els))
	}
}

func TestWindowTree_FromSelector(t *testing.T) {
	d := New(mailEngine())

	cfg := DefaultTreeBuildConfig()
	cfg.FromSelector = "role:window|name:Compose"

	tree, err := d.WindowTree(context.Background(), 100, "", cfg)
	if err != nil {
		t.Fatalf("WindowTree: %v", err)
	}
	if tree.Role != model.RoleWindow || tree.Name != "Compose" {
		t.Errorf("capture should start at the selector match, got %s %q", tree.Role, tree.Name)
	}
}

func TestOCR_WithoutService(t *testing.T) {
	d := New(newFakeEngine())
	shot := &Screenshot{Width: 4, Height: 4, RGBA: make([]byte, 64)}

	if _, err := d.OCRScreenshot(context.Background(), shot); !IsCode(err, ErrCodeUnsupportedOperation) {
		t.Errorf("no OCR service should be UNSUPPORTED_OPERATION, got %v", err)
	}
}

func TestOCRScreenshotWithBounds(t *testing.T) {
	svc := &fakeOCR{words: []OCRWord{
		{Text: "Save", Bounds: model.Rect{X: 100, Y: 50, Width: 60, Height: 20}},
	}}
	d := New(newFakeEngine(), WithOCR(svc))
	shot := &Screenshot{Width: 4, Height: 4, RGBA: make([]byte, 64)}
	ctx := context.Background()

	words, err := d.OCRScreenshotWithBounds(ctx, shot, 10, 20, 2, 2)
	if err != nil {
		t.Fatalf("OCRScreenshotWithBounds: %v", err)
	}
	want := model.Rect{X: 60, Y: 45, Width: 30, Height: 10}
	if len(words) != 1 || words[0].Bounds != want {
		t.Errorf("words = %+v, want bounds %+v", words, want)
	}

	if _, err := d.OCRScreenshotWithBounds(ctx, shot, 0, 0, 0, 1); !IsCode(err, ErrCodeInvalidArgument) {
		t.Errorf("zero scale should be INVALID_ARGUMENT, got %v", err)
	}
}

func TestClickAtCoordinates(t *testing.T) {
	eng := newFakeEngine()
	d := New(eng)

	if err := d.ClickAtCoordinates(context.Background(), 40, 60, false); err != nil {
		t.Fatalf("ClickAtCoordinates: %v", err)
	}
	ops := eng.recorded()
	if len(ops) != 1 || ops[0] != "click 40,60 left x1" {
		t.Errorf("ops = %v", ops)
	}
}

func TestPressKeyGlobal(t *testing.T) {
	eng := newFakeEngine()
	d := New(eng)

	if err := d.PressKeyGlobal(context.Background(), "Control+Shift+Escape"); err != nil {
		t.Fatalf("PressKeyGlobal: %v", err)
	}
	ops := eng.recorded()
	if len(ops) != 1 || ops[0] != "combo [ctrl shift escape]" {
		t.Errorf("ops = %v", ops)
	}
}
