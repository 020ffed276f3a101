package platform

import (
	"context"
	"testing"
	"time"

	"github.com/deskdriver/deskdriver/internal/model"
)

func intp(v int) *int { return &v }

// settingsWindow builds a small fixed tree:
//
//	window "Settings"            id 1
//	  group                      id 2
//	    button "General"         id 3
//	    button "Privacy"         id 4
//	  text "Version 2.1"         id 5
func settingsWindow() *fakeNative {
	return newFakeNode(model.RoleWindow, "Settings",
		newFakeNode(model.RoleGroup, "",
			newFakeNode(model.RoleButton, "General").withBounds(10, 10, 80, 24).withFocusable(true),
			newFakeNode(model.RoleButton, "Privacy").withBounds(10, 40, 80, 24).withFocusable(true),
		),
		newFakeNode(model.RoleText, "Version 2.1").withBounds(10, 70, 120, 16),
	)
}

func TestBuildTree_AssignsIDsInTraversalOrder(t *testing.T) {
	tree, err := BuildTree(context.Background(), settingsWindow(), DefaultTreeBuildConfig())
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}

	var ids []int
	tree.Walk(func(n *model.UINode) bool {
		ids = append(ids, n.ID)
		return true
	})
	for i, id := range ids {
		if id != i+1 {
			t.Fatalf("ids = %v, want consecutive from 1 in traversal order", ids)
		}
	}

	general := tree.FindByID(3)
	if general == nil || general.Name != "General" {
		t.Errorf("FindByID(3) = %+v, want the General button", general)
	}
}

func TestBuildTree_MaxDepthZeroIsRootOnly(t *testing.T) {
	cfg := DefaultTreeBuildConfig()
	cfg.MaxDepth = intp(0)

	tree, err := BuildTree(context.Background(), settingsWindow(), cfg)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	if tree.Role != model.RoleWindow || tree.Name != "Settings" {
		t.Errorf("root = %s %q", tree.Role, tree.Name)
	}
	if len(tree.Children) != 0 {
		t.Errorf("max depth 0 must capture only the root, got %d children", len(tree.Children))
	}
}

func TestBuildTree_MaxDepthOne(t *testing.T) {
	cfg := DefaultTreeBuildConfig()
	cfg.MaxDepth = intp(1)

	tree, err := BuildTree(context.Background(), settingsWindow(), cfg)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("depth 1 keeps the root's children, got %d", len(tree.Children))
	}
	if len(tree.Children[0].Children) != 0 {
		t.Errorf("grandchildren must be cut at depth 1")
	}
}

func TestBuildTree_FocusableBoundsOnly(t *testing.T) {
	tree, err := BuildTree(context.Background(), settingsWindow(), DefaultTreeBuildConfig())
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}

	general := tree.FindByID(3)
	if general.Bounds == nil {
		t.Errorf("focusable button should carry bounds in the default config")
	}
	version := tree.FindByID(5)
	if version.Bounds != nil {
		t.Errorf("non-focusable text should not carry bounds unless IncludeAllBounds is set")
	}
}

func TestBuildTree_IncludeAllBounds(t *testing.T) {
	cfg := DefaultTreeBuildConfig()
	cfg.IncludeAllBounds = true

	tree, err := BuildTree(context.Background(), settingsWindow(), cfg)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	version := tree.FindByID(5)
	if version.Bounds == nil {
		t.Errorf("IncludeAllBounds should attach bounds to non-focusable nodes too")
	}
}

func TestBuildTree_SlowNodeBecomesPartialLeaf(t *testing.T) {
	slow := newFakeNode(model.RoleTable, "Huge grid").withDelay(200 * time.Millisecond)
	slow.children = []*fakeNative{newFakeNode(model.RoleRow, "r1")}
	root := newFakeNode(model.RoleWindow, "Report",
		slow,
		newFakeNode(model.RoleButton, "Export"),
	)

	cfg := DefaultTreeBuildConfig()
	cfg.PerOpTimeout = 30 * time.Millisecond

	tree, err := BuildTree(context.Background(), root, cfg)
	if err != nil {
		t.Fatalf("a slow node must degrade, not fail the capture: %v", err)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("both children captured, got %d", len(tree.Children))
	}

	partial := tree.Children[0]
	if partial.Role != model.RoleTable {
		t.Errorf("partial node keeps its role, got %q", partial.Role)
	}
	if partial.Name != "" {
		t.Errorf("partial node's unread properties stay empty, got name %q", partial.Name)
	}
	if len(partial.Children) != 0 {
		t.Errorf("children of a timed-out node are cut")
	}

	export := tree.Children[1]
	if export.Name != "Export" {
		t.Errorf("sibling of a slow node is read normally, got %q", export.Name)
	}
}

func TestBuildTree_OverallDeadlineReturnsPartialTree(t *testing.T) {
	root := newFakeNode(model.RoleWindow, "Busy",
		newFakeNode(model.RoleGroup, "a").withDelay(60*time.Millisecond),
		newFakeNode(model.RoleGroup, "b").withDelay(60*time.Millisecond),
		newFakeNode(model.RoleGroup, "c").withDelay(60*time.Millisecond),
	)

	cfg := DefaultTreeBuildConfig()
	cfg.PerOpTimeout = 500 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	tree, err := BuildTree(ctx, root, cfg)
	if !IsCode(err, ErrCodeTimeout) {
		t.Fatalf("expected TIMEOUT with a partial tree, got %v", err)
	}
	if tree == nil {
		t.Fatal("partial tree must still be returned")
	}
	if tree.Count() >= 4 {
		t.Errorf("capture should have been cut short, got %d nodes", tree.Count())
	}
}

func TestBuildTree_EmptyRoleBecomesGroup(t *testing.T) {
	root := newFakeNode("", "",
		newFakeNode(model.RoleButton, "OK"),
	)

	tree, err := BuildTree(context.Background(), root, DefaultTreeBuildConfig())
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	if tree.Role != model.RoleGroup {
		t.Errorf("empty native role is recorded as %q, want group", tree.Role)
	}
}

func TestBuildTree_SettleDelay(t *testing.T) {
	cfg := DefaultTreeBuildConfig()
	cfg.SettleDelay = 80 * time.Millisecond

	start := time.Now()
	if _, err := BuildTree(context.Background(), settingsWindow(), cfg); err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	if elapsed := time.Since(start); elapsed < cfg.SettleDelay {
		t.Errorf("capture returned after %s, before the %s settle delay", elapsed, cfg.SettleDelay)
	}
}

func TestBuildTree_CancelledDuringSettle(t *testing.T) {
	cfg := DefaultTreeBuildConfig()
	cfg.SettleDelay = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := BuildTree(ctx, settingsWindow(), cfg); !IsCode(err, ErrCodeTimeout) {
		t.Errorf("expected TIMEOUT, got %v", err)
	}
}

func TestBuildTree_SmartModeReadsValueForTextRoles(t *testing.T) {
	root := newFakeNode(model.RoleWindow, "Form",
		newFakeNode(model.RoleTextField, "Email").withValue("a@b.c"),
		newFakeNode(model.RoleButton, "Submit").withValue("ignored"),
	)

	cfg := DefaultTreeBuildConfig()
	cfg.Mode = PropertyModeSmart

	tree, err := BuildTree(context.Background(), root, cfg)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	if got := tree.Children[0].Value; got != "a@b.c" {
		t.Errorf("smart mode reads value for text roles, got %q", got)
	}
	if got := tree.Children[1].Value; got != "" {
		t.Errorf("smart mode skips value for non-text roles, got %q", got)
	}
}
