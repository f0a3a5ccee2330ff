package layer

import (
	"fmt"
	"slices"

	"github.com/gogpu/strata"
)

// scope returns the sibling list a parent id names; "" is the top level.
func (s *Store) scope(parent string) []string {
	if parent == "" {
		return s.root
	}
	return s.groups[parent].Children
}

func (s *Store) setScope(parent string, ids []string) {
	if parent == "" {
		s.root = ids
		return
	}
	s.groups[parent].Children = ids
}

// renumber assigns Order as the index within the scope, which keeps
// order values unique among siblings.
func (s *Store) renumber(parent string) {
	for i, id := range s.scope(parent) {
		if l, ok := s.layers[id]; ok {
			l.Order = i
		} else if g, ok := s.groups[id]; ok {
			g.Order = i
		}
	}
}

// Reorder replaces the order of one sibling scope. ids must be a
// permutation of that scope, back to front. On any mismatch nothing
// changes and the error wraps ErrInvalidOrder.
func (s *Store) Reorder(ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("layer: %w: empty order", strata.ErrInvalidOrder)
	}
	parent, ok := s.ParentOf(ids[0])
	if !ok {
		return s.unknown("reorder", ids[0])
	}
	current := s.scope(parent)
	if len(ids) != len(current) {
		return fmt.Errorf("layer: %w: got %d ids for a scope of %d", strata.ErrInvalidOrder, len(ids), len(current))
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] || !slices.Contains(current, id) {
			return fmt.Errorf("layer: %w: %q is duplicated or outside the scope", strata.ErrInvalidOrder, id)
		}
		seen[id] = true
	}
	s.setScope(parent, slices.Clone(ids))
	s.renumber(parent)
	s.revision++
	return nil
}

// Move places id at index within its own scope. The index is clamped.
func (s *Store) Move(id string, index int) error {
	parent, ok := s.ParentOf(id)
	if !ok {
		return s.unknown("move", id)
	}
	scope := slices.DeleteFunc(slices.Clone(s.scope(parent)), func(c string) bool { return c == id })
	index = max(0, min(index, len(scope)))
	s.setScope(parent, slices.Insert(scope, index, id))
	s.renumber(parent)
	s.revision++
	return nil
}

// CreateGroup creates a group holding children, in composite order. The
// group takes the place of the first child; without children it goes on
// top of the top-level scope.
func (s *Store) CreateGroup(name string, children []string) (string, error) {
	for _, id := range children {
		if !s.Exists(id) {
			return "", s.unknown("group", id)
		}
	}
	children = s.compositeOrder(children)

	g := &Group{
		ID:        s.newID(),
		Visible:   true,
		Opacity:   1,
		BlendMode: strata.BlendNormal,
	}
	s.counts[TypeGroup]++
	g.Name = name
	if g.Name == "" {
		g.Name = fmt.Sprintf("Group %d", s.counts[TypeGroup])
	}

	parent, at := "", len(s.root)
	if len(children) > 0 {
		parent, _ = s.ParentOf(children[0])
		at = slices.Index(s.scope(parent), children[0])
	}
	touched := map[string]bool{parent: true}
	for _, id := range children {
		p, _ := s.ParentOf(id)
		if p == parent && slices.Index(s.scope(p), id) < at {
			at--
		}
		s.detach(id)
		touched[p] = true
	}
	g.Children = children
	s.groups[g.ID] = g
	s.setScope(parent, slices.Insert(slices.Clone(s.scope(parent)), at, g.ID))
	for p := range touched {
		if p == "" || s.groups[p] != nil {
			s.renumber(p)
		}
	}
	s.renumber(g.ID)
	s.revision++
	return g.ID, nil
}

// AddToGroup moves id to the top of a group. A group cannot be added to
// itself or to one of its descendants.
func (s *Store) AddToGroup(groupID, id string) error {
	g, ok := s.groups[groupID]
	if !ok {
		return s.unknown("add to group", groupID)
	}
	if !s.Exists(id) {
		return s.unknown("add to group", id)
	}
	if id == groupID || s.contains(id, groupID) {
		return fmt.Errorf("layer: %w: %q cannot contain its ancestor %q", strata.ErrInvalidOrder, groupID, id)
	}
	old, _ := s.ParentOf(id)
	s.detach(id)
	g.Children = append(g.Children, id)
	s.renumber(old)
	s.renumber(groupID)
	s.revision++
	return nil
}

// Ungroup moves a group's children into its parent scope in its place
// and removes the group.
func (s *Store) Ungroup(groupID string) error {
	g, ok := s.groups[groupID]
	if !ok {
		return s.unknown("ungroup", groupID)
	}
	parent, _ := s.ParentOf(groupID)
	scope := slices.Clone(s.scope(parent))
	at := slices.Index(scope, groupID)
	scope = slices.Replace(scope, at, at+1, g.Children...)
	delete(s.groups, groupID)
	if s.active == groupID {
		s.active = ""
	}
	s.setScope(parent, scope)
	s.renumber(parent)
	s.revision++
	return nil
}

// detach removes id from whichever scope holds it.
func (s *Store) detach(id string) {
	parent, _ := s.ParentOf(id)
	s.setScope(parent, slices.DeleteFunc(slices.Clone(s.scope(parent)), func(c string) bool { return c == id }))
}

// contains reports whether target is a descendant of the group id.
func (s *Store) contains(id, target string) bool {
	g, ok := s.groups[id]
	if !ok {
		return false
	}
	for _, c := range g.Children {
		if c == target || s.contains(c, target) {
			return true
		}
	}
	return false
}

// compositeOrder sorts ids back to front by their position in the tree
// and drops duplicates.
func (s *Store) compositeOrder(ids []string) []string {
	rank := make(map[string]int)
	n := 0
	s.walk(s.root, func(id string) {
		rank[id] = n
		n++
	})
	out := slices.Clone(ids)
	slices.SortFunc(out, func(a, b string) int { return rank[a] - rank[b] })
	return slices.Compact(out)
}
