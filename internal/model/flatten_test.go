package model

import "testing"

func TestFlatten_Basic(t *testing.T) {
	tree := &UINode{
		ID: 1, Attributes: Attributes{Role: RoleWindow, Name: "Main"},
		Children: []UINode{
			{ID: 2, Attributes: Attributes{Role: RoleButton, Name: "OK"}},
			{ID: 3, Attributes: Attributes{Role: RoleText, Name: "Hello"}},
		},
	}
	result := Flatten(tree)
	if len(result) != 3 {
		t.Fatalf("expected 3 flat nodes, got %d", len(result))
	}
	if result[0].Path != "window" {
		t.Errorf("expected path 'window', got %q", result[0].Path)
	}
	if result[1].Path != "window > button" {
		t.Errorf("expected path 'window > button', got %q", result[1].Path)
	}
	if result[2].Path != "window > text" {
		t.Errorf("expected path 'window > text', got %q", result[2].Path)
	}
}

func TestFlatten_DepthAndOrder(t *testing.T) {
	tree := buildSettingsTree()
	result := Flatten(tree)
	if len(result) != 6 {
		t.Fatalf("expected 6 flat nodes, got %d", len(result))
	}
	wantIDs := []int{1, 2, 3, 4, 5, 6}
	wantDepths := []int{0, 1, 2, 2, 1, 2}
	for i := range result {
		if result[i].ID != wantIDs[i] {
			t.Errorf("node %d: ID = %d, want %d", i, result[i].ID, wantIDs[i])
		}
		if result[i].Depth != wantDepths[i] {
			t.Errorf("node %d: Depth = %d, want %d", i, result[i].Depth, wantDepths[i])
		}
	}
}

func TestFlatten_CarriesBounds(t *testing.T) {
	tree := &UINode{
		ID: 1, Attributes: Attributes{
			Role:   RoleButton,
			Name:   "Save",
			Bounds: &Rect{X: 10, Y: 20, Width: 80, Height: 24},
		},
	}
	result := Flatten(tree)
	if len(result) != 1 {
		t.Fatalf("expected 1 flat node, got %d", len(result))
	}
	if result[0].Bounds == nil {
		t.Fatal("bounds should survive flattening")
	}
	if result[0].Bounds.Width != 80 {
		t.Errorf("bounds width = %g, want 80", result[0].Bounds.Width)
	}
}
