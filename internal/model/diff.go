package model

import (
	"crypto/sha256"
	"fmt"
)

// NodeChange is one changed node detected by hash-based diffing.
type NodeChange struct {
	ID      int                  `yaml:"i"           json:"i"`
	Role    string               `yaml:"r,omitempty" json:"r,omitempty"`
	Name    string               `yaml:"n,omitempty" json:"n,omitempty"`
	Changes map[string][2]string `yaml:"changes"     json:"changes"`
}

// TreeDiff is the result of comparing two captures of the same scope.
type TreeDiff struct {
	Added          []FlatNode   `yaml:"added,omitempty"   json:"added,omitempty"`
	Removed        []FlatNode   `yaml:"removed,omitempty" json:"removed,omitempty"`
	Changed        []NodeChange `yaml:"changed,omitempty" json:"changed,omitempty"`
	UnchangedCount int          `yaml:"unchanged_count"   json:"unchanged_count"`
}

// Empty reports whether the diff found no differences.
func (d TreeDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// NodeHash computes a stable identity hash for a node from its semantic
// content and position in the tree. Capture IDs shift when nodes appear or
// disappear, so identity across captures has to come from content.
func NodeHash(n FlatNode) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s", n.Role, n.Name, n.Label, n.Description, n.Path)
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}

// DiffTrees compares two captures by content hash and reports added,
// removed, and changed nodes. Name, label, role, and path are part of the
// hash, so a matched pair can only differ in value, bounds, and
// focusability.
func DiffTrees(prev, curr []FlatNode) TreeDiff {
	prevByHash := make(map[string]FlatNode, len(prev))
	for _, n := range prev {
		prevByHash[NodeHash(n)] = n
	}
	currByHash := make(map[string]FlatNode, len(curr))
	for _, n := range curr {
		currByHash[NodeHash(n)] = n
	}

	var diff TreeDiff

	for _, n := range curr {
		prevNode, existed := prevByHash[NodeHash(n)]
		if !existed {
			diff.Added = append(diff.Added, n)
			continue
		}
		changes := diffNodeProperties(prevNode, n)
		if len(changes) > 0 {
			diff.Changed = append(diff.Changed, NodeChange{
				ID:      n.ID,
				Role:    n.Role,
				Name:    n.Name,
				Changes: changes,
			})
		} else {
			diff.UnchangedCount++
		}
	}

	for _, n := range prev {
		if _, exists := currByHash[NodeHash(n)]; !exists {
			diff.Removed = append(diff.Removed, n)
		}
	}

	return diff
}

func diffNodeProperties(prev, curr FlatNode) map[string][2]string {
	diffs := make(map[string][2]string)

	if prev.Value != curr.Value {
		diffs["v"] = [2]string{prev.Value, curr.Value}
	}
	if !rectPtrEqual(prev.Bounds, curr.Bounds) {
		diffs["b"] = [2]string{rectString(prev.Bounds), rectString(curr.Bounds)}
	}
	if !boolPtrEqual(prev.IsKeyboardFocusable, curr.IsKeyboardFocusable) {
		diffs["kf"] = [2]string{boolString(prev.IsKeyboardFocusable), boolString(curr.IsKeyboardFocusable)}
	}

	if len(diffs) == 0 {
		return nil
	}
	return diffs
}

func rectPtrEqual(a, b *Rect) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func rectString(r *Rect) string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf("[%g %g %g %g]", r.X, r.Y, r.Width, r.Height)
}

func boolPtrEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func boolString(b *bool) string {
	if b == nil {
		return ""
	}
	return fmt.Sprintf("%v", *b)
}
