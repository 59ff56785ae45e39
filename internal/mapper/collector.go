package mapper

import (
	"reflect"

	"neo-ogm/internal/metadata"
)

// Grouper batches related instances per owner, relationship type and
// direction so that one-to-many relationships are written with a single
// collection assignment. Groups keep first-recorded order and never hold
// the same instance twice. Instances must be comparable (entity pointers).
type Grouper struct {
	owners []any
	groups map[any]*ownerGroups
}

type ownerGroups struct {
	types  []string
	byType map[string]*typeGroups
}

type typeGroups struct {
	dirs     []metadata.Direction
	elements map[metadata.Direction]*orderedSet
}

type orderedSet struct {
	items []any
	seen  map[any]bool
}

func (s *orderedSet) add(v any) {
	if s.seen[v] {
		return
	}
	s.seen[v] = true
	s.items = append(s.items, v)
}

// NewGrouper creates an empty grouper
func NewGrouper() *Grouper {
	return &Grouper{groups: make(map[any]*ownerGroups)}
}

// Record adds related to the group of (owner, relType, dir)
func (g *Grouper) Record(owner, related any, relType string, dir metadata.Direction) {
	og, ok := g.groups[owner]
	if !ok {
		og = &ownerGroups{byType: make(map[string]*typeGroups)}
		g.groups[owner] = og
		g.owners = append(g.owners, owner)
	}
	tg, ok := og.byType[relType]
	if !ok {
		tg = &typeGroups{elements: make(map[metadata.Direction]*orderedSet)}
		og.byType[relType] = tg
		og.types = append(og.types, relType)
	}
	set, ok := tg.elements[dir]
	if !ok {
		set = &orderedSet{seen: make(map[any]bool)}
		tg.elements[dir] = set
		tg.dirs = append(tg.dirs, dir)
	}
	set.add(related)
}

// Owners returns every owner with at least one group
func (g *Grouper) Owners() []any {
	return append([]any(nil), g.owners...)
}

// TypesFor returns the relationship types recorded for owner
func (g *Grouper) TypesFor(owner any) []string {
	og, ok := g.groups[owner]
	if !ok {
		return nil
	}
	return append([]string(nil), og.types...)
}

// DirectionsFor returns the directions recorded for owner and relType
func (g *Grouper) DirectionsFor(owner any, relType string) []metadata.Direction {
	tg := g.typeGroups(owner, relType)
	if tg == nil {
		return nil
	}
	return append([]metadata.Direction(nil), tg.dirs...)
}

// ElementsFor returns the distinct instances recorded for the exact key
func (g *Grouper) ElementsFor(owner any, relType string, dir metadata.Direction) []any {
	tg := g.typeGroups(owner, relType)
	if tg == nil {
		return nil
	}
	set, ok := tg.elements[dir]
	if !ok {
		return nil
	}
	return append([]any(nil), set.items...)
}

// ElementTypeFor returns the type of the group's first element; groups are
// assumed homogeneous
func (g *Grouper) ElementTypeFor(owner any, relType string, dir metadata.Direction) reflect.Type {
	elements := g.ElementsFor(owner, relType, dir)
	if len(elements) == 0 {
		return nil
	}
	return reflect.TypeOf(elements[0])
}

// Len returns the number of owners
func (g *Grouper) Len() int { return len(g.owners) }

func (g *Grouper) typeGroups(owner any, relType string) *typeGroups {
	og, ok := g.groups[owner]
	if !ok {
		return nil
	}
	return og.byType[relType]
}
