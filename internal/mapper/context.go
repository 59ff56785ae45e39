package mapper

import (
	"reflect"
)

// MappedRelationship identifies an edge already materialized in a session
type MappedRelationship struct {
	StartNodeID    int64
	Type           string
	EndNodeID      int64
	RelationshipID int64
}

// MappingContext is the identity map of one logical session: graph ids to
// live instances, plus the edges already mapped. It is owned by a single
// caller and is not safe for concurrent use.
type MappingContext struct {
	nodes         map[int64]any
	relationships map[int64]any
	edges         map[MappedRelationship]bool
	edgeOrder     []MappedRelationship
	remembered    map[any]bool
	order         []any
}

// NewMappingContext creates an empty context
func NewMappingContext() *MappingContext {
	mc := &MappingContext{}
	mc.Clear()
	return mc
}

// NodeEntity returns the instance mapped to a node id
func (mc *MappingContext) NodeEntity(id int64) (any, bool) {
	v, ok := mc.nodes[id]
	return v, ok
}

// RegisterNodeEntity maps id to instance unless id is already mapped, and
// returns the instance now held for id
func (mc *MappingContext) RegisterNodeEntity(instance any, id int64) any {
	if existing, ok := mc.nodes[id]; ok {
		return existing
	}
	mc.nodes[id] = instance
	mc.Remember(instance)
	return instance
}

// RelationshipEntity returns the relationship entity mapped to an edge id
func (mc *MappingContext) RelationshipEntity(id int64) (any, bool) {
	v, ok := mc.relationships[id]
	return v, ok
}

// RegisterRelationshipEntity maps an edge id to a relationship entity unless
// the id is already mapped, and returns the instance now held for id
func (mc *MappingContext) RegisterRelationshipEntity(instance any, id int64) any {
	if existing, ok := mc.relationships[id]; ok {
		return existing
	}
	mc.relationships[id] = instance
	mc.Remember(instance)
	return instance
}

// RegisterRelationship records an edge as mapped
func (mc *MappingContext) RegisterRelationship(rel MappedRelationship) {
	if mc.edges[rel] {
		return
	}
	mc.edges[rel] = true
	mc.edgeOrder = append(mc.edgeOrder, rel)
}

// IsRegisteredRelationship reports whether an edge was already mapped
func (mc *MappingContext) IsRegisteredRelationship(rel MappedRelationship) bool {
	return mc.edges[rel]
}

// Relationships returns the mapped edges in registration order
func (mc *MappingContext) Relationships() []MappedRelationship {
	return append([]MappedRelationship(nil), mc.edgeOrder...)
}

// Remember marks an instance as seen
func (mc *MappingContext) Remember(instance any) {
	if instance == nil || mc.remembered[instance] {
		return
	}
	mc.remembered[instance] = true
	mc.order = append(mc.order, instance)
}

// IsRemembered reports whether an instance was seen in this context
func (mc *MappingContext) IsRemembered(instance any) bool {
	return mc.remembered[instance]
}

// GetAll returns every remembered instance assignable to t, in the order
// they were first seen
func (mc *MappingContext) GetAll(t reflect.Type) []any {
	return mc.Filter(func(instance any) bool {
		return reflect.TypeOf(instance).AssignableTo(t)
	})
}

// Filter returns the remembered instances keep accepts, in the order they
// were first seen
func (mc *MappingContext) Filter(keep func(instance any) bool) []any {
	var out []any
	for _, instance := range mc.order {
		if keep(instance) {
			out = append(out, instance)
		}
	}
	return out
}

// Clear forgets everything
func (mc *MappingContext) Clear() {
	mc.nodes = make(map[int64]any)
	mc.relationships = make(map[int64]any)
	mc.edges = make(map[MappedRelationship]bool)
	mc.edgeOrder = nil
	mc.remembered = make(map[any]bool)
	mc.order = nil
}
