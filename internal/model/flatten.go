package model

// FlatNode is a tree node with a path breadcrumb instead of children.
// Flat form is what diffing and text output work over.
type FlatNode struct {
	ID                  int    `yaml:"i"               json:"i"`
	Role                string `yaml:"r"               json:"r"`
	Name                string `yaml:"n,omitempty"     json:"n,omitempty"`
	Label               string `yaml:"l,omitempty"     json:"l,omitempty"`
	Value               string `yaml:"v,omitempty"     json:"v,omitempty"`
	Description         string `yaml:"d,omitempty"     json:"d,omitempty"`
	IsKeyboardFocusable *bool  `yaml:"kf,omitempty"    json:"kf,omitempty"`
	Bounds              *Rect  `yaml:"b,omitempty"     json:"b,omitempty"`
	Path                string `yaml:"p,omitempty"     json:"p,omitempty"`
	Depth               int    `yaml:"depth,omitempty" json:"depth,omitempty"`
}

// Flatten converts a captured tree into a flat list in depth-first order.
// Each node gets a path string showing its location in the tree using role
// names joined with " > ".
func Flatten(root *UINode) []FlatNode {
	var result []FlatNode
	flattenRecursive(root, "", 0, &result)
	return result
}

func flattenRecursive(n *UINode, parentPath string, depth int, result *[]FlatNode) {
	currentPath := n.Role
	if parentPath != "" {
		currentPath = parentPath + " > " + n.Role
	}

	*result = append(*result, FlatNode{
		ID:                  n.ID,
		Role:                n.Role,
		Name:                n.Name,
		Label:               n.Label,
		Value:               n.Value,
		Description:         n.Description,
		IsKeyboardFocusable: n.IsKeyboardFocusable,
		Bounds:              n.Bounds,
		Path:                currentPath,
		Depth:               depth,
	})

	for i := range n.Children {
		flattenRecursive(&n.Children[i], currentPath, depth+1, result)
	}
}
