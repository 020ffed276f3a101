package platform

import (
	"context"
	"sync"
	"testing"

	"github.com/deskdriver/deskdriver/internal/model"
)

func TestObjectIDs_StrictlyIncreasing(t *testing.T) {
	eng := newFakeEngine()
	prev := WrapElement(eng, newFakeNode(model.RoleButton, "a")).ObjectID
	for i := 0; i < 100; i++ {
		next := WrapElement(eng, newFakeNode(model.RoleButton, "b")).ObjectID
		if next <= prev {
			t.Fatalf("ObjectID %d allocated after %d", next, prev)
		}
		prev = next
	}
}

func TestObjectIDs_UniqueUnderConcurrency(t *testing.T) {
	const workers = 8
	const perWorker = 200

	var wg sync.WaitGroup
	ids := make(chan int64, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				ids <- NextObjectID()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool, workers*perWorker)
	for id := range ids {
		if seen[id] {
			t.Fatalf("ObjectID %d allocated twice", id)
		}
		seen[id] = true
	}
}

func TestWrapElement_CachesPID(t *testing.T) {
	eng := newFakeEngine()
	el := WrapElement(eng, newFakeNode(model.RoleButton, "OK"))
	if el.PID != 100 {
		t.Errorf("PID = %d, want the native pid", el.PID)
	}
}

func TestElement_DeadReferenceIsError(t *testing.T) {
	eng := newFakeEngine()
	gone := newFakeNode(model.RoleButton, "Gone")
	gone.dead = true
	el := WrapElement(eng, gone)

	if _, err := el.Role(context.Background()); !IsCode(err, ErrCodePlatform) {
		t.Errorf("dead reference must surface PLATFORM_ERROR, got %v", err)
	}
	if _, err := el.Attributes(context.Background(), PropertyModeFast); !IsCode(err, ErrCodePlatform) {
		t.Errorf("dead reference must surface PLATFORM_ERROR, got %v", err)
	}
}

func TestElement_SetValueWithoutBackendSupport(t *testing.T) {
	eng := newFakeEngine()
	el := WrapElement(eng, newFakeNode(model.RoleTextField, "Email"))

	if err := el.SetValue(context.Background(), "x"); !IsCode(err, ErrCodeUnsupportedOperation) {
		t.Errorf("backend without a value setter must return UNSUPPORTED_OPERATION, got %v", err)
	}
}

func TestElement_InvokeWithoutBackendSupport(t *testing.T) {
	eng := newFakeEngine()
	el := WrapElement(eng, newFakeNode(model.RoleButton, "OK"))

	if err := el.Invoke(context.Background()); !IsCode(err, ErrCodeUnsupportedOperation) {
		t.Errorf("backend without invoke must return UNSUPPORTED_OPERATION, got %v", err)
	}
}

func TestElement_IsKeyboardFocusable(t *testing.T) {
	eng := newFakeEngine()
	ctx := context.Background()

	el := WrapElement(eng, newFakeNode(model.RoleButton, "OK").withFocusable(true))
	ok, err := el.IsKeyboardFocusable(ctx)
	if err != nil || !ok {
		t.Errorf("IsKeyboardFocusable = %v, %v", ok, err)
	}

	unknown := WrapElement(eng, newFakeNode(model.RoleGroup, ""))
	if _, err := unknown.IsKeyboardFocusable(ctx); !IsCode(err, ErrCodeUnsupportedOperation) {
		t.Errorf("unknown focusability must be UNSUPPORTED_OPERATION, got %v", err)
	}
}

func TestElement_ChildrenWrapFreshHandles(t *testing.T) {
	eng := newFakeEngine()
	parent := WrapElement(eng, newFakeNode(model.RoleGroup, "",
		newFakeNode(model.RoleButton, "a"),
		newFakeNode(model.RoleButton, "b"),
	))

	children, err := parent.Children(context.Background())
	if err != nil {
		t.Fatalf("Children: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("got %d children", len(children))
	}
	if children[0].ObjectID == children[1].ObjectID {
		t.Errorf("sibling handles must not share an ObjectID")
	}
	if children[0].ObjectID <= parent.ObjectID {
		t.Errorf("child handle %d wrapped after parent %d", children[0].ObjectID, parent.ObjectID)
	}
}

func TestElement_WaitFor(t *testing.T) {
	eng := mailEngine()
	app, err := eng.ApplicationByName(context.Background(), "Mail")
	if err != nil {
		t.Fatalf("ApplicationByName: %v", err)
	}

	el, err := app.WaitFor(context.Background(), "role:button|name:Send", 0)
	if err != nil {
		t.Fatalf("WaitFor: %v", err)
	}
	name, _ := el.Name(context.Background())
	if name != "Send" {
		t.Errorf("resolved %q", name)
	}
}

func TestElement_CaptureCropsMonitorFrame(t *testing.T) {
	eng := newFakeEngine()
	eng.monitors = []Monitor{
		{ID: "0", IsPrimary: true, X: 0, Y: 0, Width: 4, Height: 4, ScaleFactor: 1},
	}
	el := WrapElement(eng, newFakeNode(model.RoleImage, "logo").withBounds(1, 1, 2, 2))

	shot, err := el.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if shot.Width != 2 || shot.Height != 2 {
		t.Errorf("crop = %dx%d, want 2x2", shot.Width, shot.Height)
	}
	ops := eng.recorded()
	if len(ops) == 0 || ops[len(ops)-1] != "capture 0" {
		t.Errorf("ops = %v, want a capture of monitor 0", ops)
	}
}

func TestElement_CapturePicksMonitorUnderCenter(t *testing.T) {
	eng := newFakeEngine()
	eng.monitors = []Monitor{
		{ID: "0", IsPrimary: true, X: 0, Y: 0, Width: 4, Height: 4, ScaleFactor: 1},
		{ID: "1", X: 4, Y: 0, Width: 4, Height: 4, ScaleFactor: 2},
	}
	// Sits on the second monitor; its 2x scale doubles the crop rectangle.
	el := WrapElement(eng, newFakeNode(model.RoleImage, "logo").withBounds(5, 1, 1, 1))

	shot, err := el.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	ops := eng.recorded()
	if len(ops) == 0 || ops[len(ops)-1] != "capture 1" {
		t.Errorf("ops = %v, want a capture of monitor 1", ops)
	}
	if shot.Width != 2 || shot.Height != 2 {
		t.Errorf("crop = %dx%d, want 2x2 after scaling", shot.Width, shot.Height)
	}
}

func TestElement_CaptureWithoutBounds(t *testing.T) {
	eng := newFakeEngine()

	noBounds := WrapElement(eng, newFakeNode(model.RoleButton, "OK"))
	if _, err := noBounds.Capture(context.Background()); !IsCode(err, ErrCodeUnsupportedOperation) {
		t.Errorf("boundsless element must be UNSUPPORTED_OPERATION, got %v", err)
	}

	empty := WrapElement(eng, newFakeNode(model.RoleButton, "OK").withBounds(100, 100, 0, 0))
	if _, err := empty.Capture(context.Background()); !IsCode(err, ErrCodeUnsupportedOperation) {
		t.Errorf("zero-size element must be UNSUPPORTED_OPERATION, got %v", err)
	}
}
