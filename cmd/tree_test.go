package cmd

import (
	"testing"

	"github.com/spf13/cobra"

	"github.com/deskdriver/deskdriver/internal/model"
)

// filterFlagsCommand builds a bare command carrying only the tree filter
// flags, so tests exercise applyTreeFilters without the full CLI.
func filterFlagsCommand() *cobra.Command {
	c := &cobra.Command{}
	c.Flags().StringSlice("roles", nil, "")
	c.Flags().String("text", "", "")
	c.Flags().Bool("prune", false, "")
	return c
}

func sampleWindowTree() *model.UINode {
	return &model.UINode{
		ID: 1, Attributes: model.Attributes{Role: model.RoleWindow, Name: "Form"},
		Children: []model.UINode{
			{ID: 2, Attributes: model.Attributes{Role: model.RoleGroup},
				Children: []model.UINode{
					{ID: 3, Attributes: model.Attributes{Role: model.RoleButton, Name: "OK",
						Bounds: &model.Rect{X: 0, Y: 0, Width: 50, Height: 20}}},
					{ID: 4, Attributes: model.Attributes{Role: model.RoleTextField, Name: "Email",
						Bounds: &model.Rect{X: 0, Y: 100, Width: 300, Height: 24}}},
				}},
		},
	}
}

func TestApplyTreeFiltersNoFlagsReturnsTreeUnchanged(t *testing.T) {
	cmd := filterFlagsCommand()
	tree := sampleWindowTree()
	if got := applyTreeFilters(cmd, tree, nil); got != tree {
		t.Error("no filter flags must leave the capture untouched")
	}
}

func TestApplyTreeFiltersByRole(t *testing.T) {
	cmd := filterFlagsCommand()
	if err := cmd.Flags().Set("roles", "button"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	tree := sampleWindowTree()

	got := applyTreeFilters(cmd, tree, nil)
	if got.Role != model.RoleWindow {
		t.Fatalf("window root must survive, got role %q", got.Role)
	}
	if len(got.Children) != 1 || got.Children[0].ID != 3 {
		t.Fatalf("children = %+v, want just the button promoted", got.Children)
	}
	if len(tree.Children) != 1 || tree.Children[0].ID != 2 {
		t.Error("filtering must not mutate the original capture")
	}
}

func TestApplyTreeFiltersByText(t *testing.T) {
	cmd := filterFlagsCommand()
	if err := cmd.Flags().Set("text", "email"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got := applyTreeFilters(cmd, sampleWindowTree(), nil)
	if len(got.Children) != 1 || got.Children[0].ID != 2 {
		t.Fatalf("children = %+v, want the group kept as ancestry", got.Children)
	}
	if len(got.Children[0].Children) != 1 || got.Children[0].Children[0].ID != 4 {
		t.Errorf("group children = %+v, want only the Email field", got.Children[0].Children)
	}
}

func TestApplyTreeFiltersWithinRegion(t *testing.T) {
	cmd := filterFlagsCommand()
	within := &model.Rect{X: 0, Y: 0, Width: 100, Height: 50}

	got := applyTreeFilters(cmd, sampleWindowTree(), within)
	if len(got.Children) != 1 || got.Children[0].ID != 3 {
		t.Fatalf("children = %+v, want only the button inside the region", got.Children)
	}
}

func TestApplyTreeFiltersPrunePromotesGroupChildren(t *testing.T) {
	cmd := filterFlagsCommand()
	if err := cmd.Flags().Set("prune", "true"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got := applyTreeFilters(cmd, sampleWindowTree(), nil)
	if len(got.Children) != 2 {
		t.Fatalf("children = %d, want the group's 2 children promoted", len(got.Children))
	}
	if got.Children[0].ID != 3 || got.Children[1].ID != 4 {
		t.Errorf("promoted children = %+v", got.Children)
	}
}
