package model

import "math"

// Rect is a rectangle in logical screen coordinates.
type Rect struct {
	X      float64 `yaml:"x" json:"x"`
	Y      float64 `yaml:"y" json:"y"`
	Width  float64 `yaml:"w" json:"w"`
	Height float64 `yaml:"h" json:"h"`
}

// Center returns the integer pixel at the middle of the rectangle,
// rounded to the nearest pixel.
func (r Rect) Center() (int, int) {
	return int(math.Round(r.X + r.Width/2)), int(math.Round(r.Y + r.Height/2))
}

// Intersects reports whether r and other overlap.
func (r Rect) Intersects(other Rect) bool {
	return r.X < other.X+other.Width &&
		r.X+r.Width > other.X &&
		r.Y < other.Y+other.Height &&
		r.Y+r.Height > other.Y
}

// IsZero reports whether the rectangle has no position and no size.
func (r Rect) IsZero() bool {
	return r.X == 0 && r.Y == 0 && r.Width == 0 && r.Height == 0
}

// Attributes holds the properties captured from one accessibility element.
// A capture is a point-in-time read; attributes are never refreshed in place,
// callers re-query for current state.
type Attributes struct {
	Role                string         `yaml:"r"             json:"r"`
	Name                string         `yaml:"n,omitempty"   json:"n,omitempty"`
	Label               string         `yaml:"l,omitempty"   json:"l,omitempty"`
	Value               string         `yaml:"v,omitempty"   json:"v,omitempty"`
	Description         string         `yaml:"d,omitempty"   json:"d,omitempty"`
	Properties          map[string]any `yaml:"p,omitempty"   json:"p,omitempty"`
	IsKeyboardFocusable *bool          `yaml:"kf,omitempty"  json:"kf,omitempty"`
	Bounds              *Rect          `yaml:"b,omitempty"   json:"b,omitempty"`
}

// UINode is one node of a captured accessibility tree. A tree is a value
// snapshot: it holds no live OS handles, is never mutated after capture, and
// is safe to serialize, cache, and diff. IDs are assigned in traversal order
// within one capture, starting at 1, so an unchanged UI yields identical IDs
// across captures.
type UINode struct {
	ID         int `yaml:"i,omitempty" json:"i,omitempty"`
	Attributes `yaml:",inline"`
	Children   []UINode `yaml:"c,omitempty" json:"c,omitempty"`
}

// Count returns the number of nodes in the tree rooted at n, including n.
func (n *UINode) Count() int {
	total := 1
	for i := range n.Children {
		total += n.Children[i].Count()
	}
	return total
}

// Walk calls fn for every node in depth-first order. Traversal stops early
// if fn returns false.
func (n *UINode) Walk(fn func(*UINode) bool) bool {
	if !fn(n) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].Walk(fn) {
			return false
		}
	}
	return true
}

// FindByID returns the node with the given capture ID, or nil.
func (n *UINode) FindByID(id int) *UINode {
	var found *UINode
	n.Walk(func(node *UINode) bool {
		if node.ID == id {
			found = node
			return false
		}
		return true
	})
	return found
}
