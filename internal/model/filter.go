package model

import "strings"

// FilterTree applies role and bounds filters to a captured tree, returning
// only matching nodes. A node that fails the filter but has matching
// descendants is dropped and its matches are promoted in its place, so the
// result stays a forest of relevant nodes.
func FilterTree(nodes []UINode, roles []string, within *Rect) []UINode {
	if len(roles) == 0 && within == nil {
		return nodes
	}

	roleSet := make(map[string]bool, len(roles))
	for _, r := range ExpandRoles(roles) {
		roleSet[r] = true
	}

	var result []UINode
	for i := range nodes {
		n := nodes[i]
		var filteredChildren []UINode
		if len(n.Children) > 0 {
			filteredChildren = FilterTree(n.Children, roles, within)
		}

		roleMatch := len(roleSet) == 0 || roleSet[n.Role]
		boundsMatch := within == nil || (n.Bounds != nil && n.Bounds.Intersects(*within))

		if roleMatch && boundsMatch {
			filtered := n
			filtered.Children = filteredChildren
			result = append(result, filtered)
		} else if len(filteredChildren) > 0 {
			result = append(result, filteredChildren...)
		}
	}
	return result
}

// FilterByText keeps nodes whose name, label, value, or description contains
// the given text, case-insensitive. A parent is kept when any descendant
// matches so the ancestry context survives.
func FilterByText(nodes []UINode, text string) []UINode {
	if text == "" {
		return nodes
	}
	lower := strings.ToLower(text)
	var result []UINode
	for i := range nodes {
		n := nodes[i]
		matched := textMatches(&n, lower)
		childMatches := FilterByText(n.Children, text)

		if matched || len(childMatches) > 0 {
			filtered := n
			filtered.Children = childMatches
			result = append(result, filtered)
		}
	}
	return result
}

func textMatches(n *UINode, lower string) bool {
	return strings.Contains(strings.ToLower(n.Name), lower) ||
		strings.Contains(strings.ToLower(n.Label), lower) ||
		strings.Contains(strings.ToLower(n.Value), lower) ||
		strings.Contains(strings.ToLower(n.Description), lower)
}

// isEmptyGroup reports whether the node is an anonymous structural container
// carrying no information of its own.
func isEmptyGroup(n *UINode) bool {
	return IsContainer(n.Role) && n.Role != RoleWindow && n.Role != RoleDialog &&
		n.Name == "" && n.Label == "" && n.Value == "" && n.Description == ""
}

// PruneEmptyGroups removes anonymous container nodes from a tree, promoting
// their children to the parent. Structural-only containers dominate typical
// accessibility trees and add nothing for a caller resolving elements.
func PruneEmptyGroups(nodes []UINode) []UINode {
	var result []UINode
	for i := range nodes {
		n := nodes[i]
		prunedChildren := PruneEmptyGroups(n.Children)

		if isEmptyGroup(&n) {
			result = append(result, prunedChildren...)
		} else {
			pruned := n
			pruned.Children = prunedChildren
			result = append(result, pruned)
		}
	}
	return result
}

// InteractiveOnly flattens a tree and keeps only nodes with interactive
// roles. Used by callers that want a click-target inventory.
func InteractiveOnly(root *UINode) []FlatNode {
	var result []FlatNode
	for _, fn := range Flatten(root) {
		if IsInteractive(fn.Role) {
			result = append(result, fn)
		}
	}
	return result
}
