package categories

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Node is a category in a resolved forest. Level is the depth, roots are 0.
type Node struct {
	ID           uuid.UUID  `json:"id"`
	ParentID     *uuid.UUID `json:"parent_id,omitempty"`
	Name         string     `json:"name"`
	Slug         string     `json:"slug"`
	Description  *string    `json:"description,omitempty"`
	ImageURL     *string    `json:"image_url,omitempty"`
	Active       bool       `json:"active"`
	DisplayOrder int        `json:"display_order"`
	Level        int        `json:"level"`
	Children     []*Node    `json:"children,omitempty"`
}

func lessNode(a, b *Node) bool {
	if a.DisplayOrder != b.DisplayOrder {
		return a.DisplayOrder < b.DisplayOrder
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID.String() < b.ID.String()
}

// BuildTree arranges flat nodes into a forest. A node whose parent is nil or
// absent becomes a root, as does the node that would close a parent cycle.
// Siblings are ordered by display order then name.
func BuildTree(flat []Node) []*Node {
	nodes := make([]*Node, 0, len(flat))
	byID := make(map[uuid.UUID]*Node, len(flat))
	for i := range flat {
		n := flat[i]
		n.Children = nil
		n.Level = 0
		if _, dup := byID[n.ID]; dup {
			continue
		}
		byID[n.ID] = &n
		nodes = append(nodes, &n)
	}
	sort.SliceStable(nodes, func(i, j int) bool { return lessNode(nodes[i], nodes[j]) })

	parentOf := make(map[uuid.UUID]uuid.UUID, len(nodes))
	var roots []*Node
	for _, n := range nodes {
		if n.ParentID == nil {
			roots = append(roots, n)
			continue
		}
		parent, ok := byID[*n.ParentID]
		if !ok || closesCycle(parentOf, n.ID, parent.ID) {
			roots = append(roots, n)
			continue
		}
		parentOf[n.ID] = parent.ID
		parent.Children = append(parent.Children, n)
	}

	var setLevels func(level int, list []*Node)
	setLevels = func(level int, list []*Node) {
		for _, n := range list {
			n.Level = level
			setLevels(level+1, n.Children)
		}
	}
	setLevels(0, roots)
	return roots
}

// closesCycle reports whether linking child under parent would make child its
// own ancestor.
func closesCycle(parentOf map[uuid.UUID]uuid.UUID, child, parent uuid.UUID) bool {
	seen := map[uuid.UUID]struct{}{}
	for cur := parent; ; {
		if cur == child {
			return true
		}
		if _, loop := seen[cur]; loop {
			return true
		}
		seen[cur] = struct{}{}
		next, ok := parentOf[cur]
		if !ok {
			return false
		}
		cur = next
	}
}

// Flatten walks the forest depth first. Every node appears once, without its
// children, carrying its Level.
func Flatten(forest []*Node) []Node {
	var out []Node
	var walk func(list []*Node)
	walk = func(list []*Node) {
		for _, n := range list {
			cpy := *n
			cpy.Children = nil
			out = append(out, cpy)
			walk(n.Children)
		}
	}
	walk(forest)
	return out
}

// ResolvePath follows slugs one depth at a time from the roots. The match is
// strict: each slug must name a child of the previous node.
func ResolvePath(forest []*Node, slugs []string) (*Node, bool) {
	if len(slugs) == 0 {
		return nil, false
	}
	level := forest
	var current *Node
	for _, raw := range slugs {
		slug := strings.ToLower(strings.TrimSpace(raw))
		current = nil
		for _, n := range level {
			if n.Slug == slug {
				current = n
				break
			}
		}
		if current == nil {
			return nil, false
		}
		level = current.Children
	}
	return current, true
}

// Find locates a node anywhere in the forest.
func Find(forest []*Node, id uuid.UUID) (*Node, bool) {
	for _, n := range forest {
		if n.ID == id {
			return n, true
		}
		if found, ok := Find(n.Children, id); ok {
			return found, true
		}
	}
	return nil, false
}

// Descendants returns the ids strictly below id, depth first.
func Descendants(forest []*Node, id uuid.UUID) []uuid.UUID {
	node, ok := Find(forest, id)
	if !ok {
		return nil
	}
	var ids []uuid.UUID
	for _, n := range Flatten(node.Children) {
		ids = append(ids, n.ID)
	}
	return ids
}

// SubtreeIDs is id followed by its descendants. Unknown ids yield nil.
func SubtreeIDs(forest []*Node, id uuid.UUID) []uuid.UUID {
	if _, ok := Find(forest, id); !ok {
		return nil
	}
	return append([]uuid.UUID{id}, Descendants(forest, id)...)
}
