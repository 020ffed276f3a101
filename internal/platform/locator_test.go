package platform

import (
	"context"
	"testing"
	"time"

	"github.com/deskdriver/deskdriver/internal/model"
)

// mailApp builds a fake application tree with nested windows, toolbars,
// and repeated roles to exercise chain resolution.
func mailApp() *fakeNative {
	return newFakeNode(model.RoleApplication, "Mail",
		newFakeNode(model.RoleWindow, "Inbox",
			newFakeNode(model.RoleToolBar, "",
				newFakeNode(model.RoleButton, "Reply").withBounds(0, 0, 40, 20),
				newFakeNode(model.RoleButton, "Forward").withBounds(50, 0, 40, 20),
			),
			newFakeNode(model.RoleList, "Messages",
				newFakeNode(model.RoleListItem, "Invoice March").withValue("unread"),
				newFakeNode(model.RoleListItem, "Invoice April"),
				newFakeNode(model.RoleListItem, "Weekly digest"),
			),
		),
		newFakeNode(model.RoleWindow, "Compose",
			newFakeNode(model.RoleButton, "Send").withBounds(10, 10, 30, 20),
		),
	)
}

func mailEngine() *fakeEngine {
	eng := newFakeEngine()
	eng.apps["Mail"] = mailApp()
	return eng
}

func mustParse(t *testing.T, s string) *Selector {
	t.Helper()
	sel, err := ParseSelector(s)
	if err != nil {
		t.Fatalf("ParseSelector(%q): %v", s, err)
	}
	return sel
}

func TestLocatorFirst_ResolvesChain(t *testing.T) {
	eng := mailEngine()
	sel := mustParse(t, "process:Mail >> role:toolbar >> role:button|name:Forward")

	el, err := NewLocator(eng, sel, nil).First(context.Background(), 0)
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	name, _ := el.Name(context.Background())
	if name != "Forward" {
		t.Errorf("resolved %q, want Forward", name)
	}
}

func TestLocatorFirst_TraversalOrderWins(t *testing.T) {
	eng := mailEngine()
	sel := mustParse(t, "process:Mail >> role:button")

	el, err := NewLocator(eng, sel, nil).First(context.Background(), 0)
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	name, _ := el.Name(context.Background())
	if name != "Reply" {
		t.Errorf("ambiguous match must resolve first in traversal order, got %q", name)
	}
}

func TestLocatorAll_CollectsInOrder(t *testing.T) {
	eng := mailEngine()
	sel := mustParse(t, "process:Mail >> role:listitem")

	matches, err := NewLocator(eng, sel, nil).All(context.Background(), 0)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("expected 3 list items, got %d", len(matches))
	}
	first, _ := matches[0].Name(context.Background())
	if first != "Invoice March" {
		t.Errorf("first match = %q", first)
	}
}

func TestLocator_TextCriterion(t *testing.T) {
	eng := mailEngine()
	sel := mustParse(t, "process:Mail >> role:listitem|text:invoice")

	matches, err := NewLocator(eng, sel, nil).All(context.Background(), 0)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("text:invoice should match 2 items, got %d", len(matches))
	}
}

func TestLocator_NthCriterion(t *testing.T) {
	eng := mailEngine()
	sel := mustParse(t, "process:Mail >> role:listitem|nth:1")

	el, err := NewLocator(eng, sel, nil).First(context.Background(), 0)
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	name, _ := el.Name(context.Background())
	if name != "Invoice April" {
		t.Errorf("nth:1 should pick the second item, got %q", name)
	}

	sel = mustParse(t, "process:Mail >> role:listitem|nth:9")
	if _, err := NewLocator(eng, sel, nil).First(context.Background(), 0); !IsCode(err, ErrCodeElementNotFound) {
		t.Errorf("out-of-range nth should be ELEMENT_NOT_FOUND, got %v", err)
	}
}

func TestLocator_DepthBound(t *testing.T) {
	eng := mailEngine()
	sel := mustParse(t, "process:Mail >> role:button")

	// buttons live at depth 3 under the application; a depth-1 search
	// must not reach them
	matches, err := NewLocator(eng, sel, nil).All(context.Background(), 1)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("depth-bounded search should find nothing, got %d", len(matches))
	}
}

func TestLocatorFirst_TimeoutIsElementNotFound(t *testing.T) {
	eng := mailEngine()
	sel := mustParse(t, "process:Mail >> role:button|name:DoesNotExist")

	timeout := 200 * time.Millisecond
	start := time.Now()
	_, err := NewLocator(eng, sel, nil).First(context.Background(), timeout)
	elapsed := time.Since(start)

	if !IsCode(err, ErrCodeElementNotFound) {
		t.Fatalf("expected ELEMENT_NOT_FOUND, got %v", err)
	}
	if elapsed < timeout {
		t.Errorf("returned after %s, before the %s timeout", elapsed, timeout)
	}
	if elapsed > timeout+2*DefaultPollInterval {
		t.Errorf("returned after %s, more than a poll interval past the deadline", elapsed)
	}
}

func TestLocatorFirst_FindsLateElement(t *testing.T) {
	eng := mailEngine()
	app := eng.apps["Mail"]
	sel := mustParse(t, "process:Mail >> role:dialog|name:Confirm")

	// the dialog appears after the first resolution attempt, as if an
	// action opened it asynchronously
	go func() {
		time.Sleep(150 * time.Millisecond)
		app.addChild(newFakeNode(model.RoleDialog, "Confirm"))
	}()

	el, err := NewLocator(eng, sel, nil).First(context.Background(), 2*time.Second)
	if err != nil {
		t.Fatalf("First should see the late dialog: %v", err)
	}
	name, _ := el.Name(context.Background())
	if name != "Confirm" {
		t.Errorf("resolved %q", name)
	}
}

func TestLocator_UnknownProcess(t *testing.T) {
	eng := mailEngine()
	sel := mustParse(t, "process:Ghost >> role:button")

	if _, err := NewLocator(eng, sel, nil).First(context.Background(), 0); !IsCode(err, ErrCodeElementNotFound) {
		t.Errorf("unknown process should be ELEMENT_NOT_FOUND, got %v", err)
	}
}

func TestLocator_ExplicitRootScopesSearch(t *testing.T) {
	eng := mailEngine()
	ctx := context.Background()

	compose, err := NewLocator(eng, mustParse(t, "process:Mail >> role:window|name:Compose"), nil).First(ctx, 0)
	if err != nil {
		t.Fatalf("resolve compose window: %v", err)
	}

	sel := mustParse(t, "role:button")
	el, err := NewLocator(eng, sel, compose).First(ctx, 0)
	if err != nil {
		t.Fatalf("scoped search: %v", err)
	}
	name, _ := el.Name(ctx)
	if name != "Send" {
		t.Errorf("search under compose window should find Send, got %q", name)
	}
}

func TestLocator_IDAgainstLiveSearch(t *testing.T) {
	eng := mailEngine()
	sel := mustParse(t, "process:Mail >> id:42")

	if _, err := NewLocator(eng, sel, nil).First(context.Background(), 0); !IsCode(err, ErrCodeInvalidArgument) {
		t.Errorf("id: against a live search should be INVALID_ARGUMENT, got %v", err)
	}
}
