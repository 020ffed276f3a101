package model

import "testing"

func TestRectCenter(t *testing.T) {
	tests := []struct {
		name  string
		rect  Rect
		wantX int
		wantY int
	}{
		{"basic", Rect{X: 100, Y: 200, Width: 50, Height: 30}, 125, 215},
		{"origin", Rect{X: 0, Y: 0, Width: 10, Height: 10}, 5, 5},
		{"odd size rounds", Rect{X: 0, Y: 0, Width: 5, Height: 5}, 3, 3},
		{"fractional", Rect{X: 10.2, Y: 20.2, Width: 5, Height: 5}, 13, 23},
		{"negative origin", Rect{X: -100, Y: -50, Width: 40, Height: 20}, -80, -40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := tt.rect.Center()
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("Center() = (%d, %d), want (%d, %d)", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestRectIntersects(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 100, Height: 100}
	if !a.Intersects(Rect{X: 50, Y: 50, Width: 100, Height: 100}) {
		t.Error("overlapping rects should intersect")
	}
	if a.Intersects(Rect{X: 100, Y: 0, Width: 10, Height: 10}) {
		t.Error("edge-adjacent rects should not intersect")
	}
	if a.Intersects(Rect{X: 200, Y: 200, Width: 10, Height: 10}) {
		t.Error("disjoint rects should not intersect")
	}
}

func buildSettingsTree() *UINode {
	return &UINode{
		ID: 1, Attributes: Attributes{Role: RoleWindow, Name: "Settings"},
		Children: []UINode{
			{ID: 2, Attributes: Attributes{Role: RoleToolBar},
				Children: []UINode{
					{ID: 3, Attributes: Attributes{Role: RoleButton, Name: "Back"}},
					{ID: 4, Attributes: Attributes{Role: RoleTextField, Name: "Search"}},
				}},
			{ID: 5, Attributes: Attributes{Role: RoleGroup},
				Children: []UINode{
					{ID: 6, Attributes: Attributes{Role: RoleCheckBox, Name: "Dark mode", Value: "1"}},
				}},
		},
	}
}

func TestUINodeCount(t *testing.T) {
	tree := buildSettingsTree()
	if got := tree.Count(); got != 6 {
		t.Errorf("Count() = %d, want 6", got)
	}
}

func TestUINodeWalkOrder(t *testing.T) {
	tree := buildSettingsTree()
	var order []int
	tree.Walk(func(n *UINode) bool {
		order = append(order, n.ID)
		return true
	})
	want := []int{1, 2, 3, 4, 5, 6}
	if len(order) != len(want) {
		t.Fatalf("visited %d nodes, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("visit order[%d] = %d, want %d", i, order[i], want[i])
		}
	}
}

func TestUINodeWalkEarlyStop(t *testing.T) {
	tree := buildSettingsTree()
	var visited int
	tree.Walk(func(n *UINode) bool {
		visited++
		return n.ID != 3
	})
	if visited != 3 {
		t.Errorf("visited %d nodes before stop, want 3", visited)
	}
}

func TestUINodeFindByID(t *testing.T) {
	tree := buildSettingsTree()
	n := tree.FindByID(6)
	if n == nil {
		t.Fatal("FindByID(6) returned nil")
	}
	if n.Name != "Dark mode" {
		t.Errorf("FindByID(6).Name = %q, want %q", n.Name, "Dark mode")
	}
	if tree.FindByID(99) != nil {
		t.Error("FindByID(99) should return nil")
	}
}
