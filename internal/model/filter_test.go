package model

import "testing"

func buildFormTree() []UINode {
	return []UINode{
		{ID: 1, Attributes: Attributes{Role: RoleWindow, Name: "Compose"},
			Children: []UINode{
				{ID: 2, Attributes: Attributes{Role: RoleGroup},
					Children: []UINode{
						{ID: 3, Attributes: Attributes{Role: RoleTextField, Name: "To", Value: "alice@example.com",
							Bounds: &Rect{X: 0, Y: 0, Width: 300, Height: 24}}},
						{ID: 4, Attributes: Attributes{Role: RoleTextField, Name: "Subject",
							Bounds: &Rect{X: 0, Y: 30, Width: 300, Height: 24}}},
					}},
				{ID: 5, Attributes: Attributes{Role: RoleButton, Name: "Send",
					Bounds: &Rect{X: 0, Y: 600, Width: 80, Height: 30}}},
				{ID: 6, Attributes: Attributes{Role: RoleText, Name: "Draft saved"}},
			}},
	}
}

func TestFilterTree_ByRole(t *testing.T) {
	result := FilterTree(buildFormTree(), []string{RoleTextField}, nil)
	var ids []int
	for i := range result {
		(&result[i]).Walk(func(n *UINode) bool {
			ids = append(ids, n.ID)
			return true
		})
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 textfields, got %d (%v)", len(ids), ids)
	}
	if ids[0] != 3 || ids[1] != 4 {
		t.Errorf("expected ids [3 4], got %v", ids)
	}
}

func TestFilterTree_ByBounds(t *testing.T) {
	top := Rect{X: 0, Y: 0, Width: 400, Height: 100}
	result := FilterTree(buildFormTree(), []string{RoleButton, RoleTextField}, &top)
	count := 0
	for i := range result {
		(&result[i]).Walk(func(n *UINode) bool {
			count++
			return true
		})
	}
	if count != 2 {
		t.Errorf("expected 2 nodes in the top band, got %d", count)
	}
}

func TestFilterTree_MetaRole(t *testing.T) {
	result := FilterTree(buildFormTree(), []string{"interactive"}, nil)
	count := 0
	for i := range result {
		(&result[i]).Walk(func(n *UINode) bool {
			count++
			return true
		})
	}
	// two textfields plus the send button
	if count != 3 {
		t.Errorf("expected 3 interactive nodes, got %d", count)
	}
}

func TestFilterByText(t *testing.T) {
	result := FilterByText(buildFormTree(), "alice")
	if len(result) != 1 {
		t.Fatalf("expected 1 root survivor, got %d", len(result))
	}
	leaf := &result[0]
	for len(leaf.Children) > 0 {
		leaf = &leaf.Children[0]
	}
	if leaf.ID != 3 {
		t.Errorf("expected match to reach node 3, got %d", leaf.ID)
	}
}

func TestFilterByText_NoMatch(t *testing.T) {
	if got := FilterByText(buildFormTree(), "zzz-not-there"); len(got) != 0 {
		t.Errorf("expected no survivors, got %d", len(got))
	}
}

func TestPruneEmptyGroups(t *testing.T) {
	pruned := PruneEmptyGroups(buildFormTree())
	if len(pruned) != 1 {
		t.Fatalf("expected window to survive, got %d roots", len(pruned))
	}
	win := pruned[0]
	// anonymous group removed, its textfields promoted next to the button
	if len(win.Children) != 4 {
		t.Fatalf("expected 4 promoted children, got %d", len(win.Children))
	}
	if win.Children[0].ID != 3 || win.Children[1].ID != 4 {
		t.Errorf("expected textfields promoted first, got ids %d %d",
			win.Children[0].ID, win.Children[1].ID)
	}
}

func TestPruneEmptyGroups_KeepsNamedContainers(t *testing.T) {
	nodes := []UINode{
		{ID: 1, Attributes: Attributes{Role: RoleGroup, Name: "Filters"},
			Children: []UINode{
				{ID: 2, Attributes: Attributes{Role: RoleCheckBox, Name: "Unread"}},
			}},
	}
	pruned := PruneEmptyGroups(nodes)
	if len(pruned) != 1 || pruned[0].ID != 1 {
		t.Fatal("named group should not be pruned")
	}
}

func TestInteractiveOnly(t *testing.T) {
	tree := buildFormTree()[0]
	flat := InteractiveOnly(&tree)
	if len(flat) != 3 {
		t.Fatalf("expected 3 interactive nodes, got %d", len(flat))
	}
	for _, fn := range flat {
		if !IsInteractive(fn.Role) {
			t.Errorf("non-interactive role %q leaked through", fn.Role)
		}
	}
}
