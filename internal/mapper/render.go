package mapper

import (
	"reflect"

	"neo-ogm/internal/metadata"
)

// Summary is a flat, cycle-free view of a hydrated entity
type Summary struct {
	ID               *int64                `json:"id"`
	Type             string                `json:"type"`
	Labels           []string              `json:"labels,omitempty"`
	RelationshipType string                `json:"relationship_type,omitempty"`
	StartNodeID      *int64                `json:"start_node_id,omitempty"`
	EndNodeID        *int64                `json:"end_node_id,omitempty"`
	Properties       map[string]any        `json:"properties"`
	Relationships    []RelationshipSummary `json:"relationships,omitempty"`
}

// RelationshipSummary lists the ids an entity member refers to
type RelationshipSummary struct {
	Member    string             `json:"member"`
	Type      string             `json:"type"`
	Direction metadata.Direction `json:"direction"`
	Related   []int64            `json:"related"`
}

// Summarize flattens instance into its identity, labels, properties and the
// ids of the entities it refers to
func (m *Mapper) Summarize(instance any) (*Summary, error) {
	td, err := m.registry.DescriptorOf(instance)
	if err != nil {
		return nil, err
	}

	s := &Summary{
		Type:       td.SimpleName(),
		Properties: make(map[string]any),
	}
	if td.IsRelationshipEntity() {
		s.RelationshipType = td.RelationshipEntityType()
	} else {
		s.Labels = m.registry.Labels(td)
	}
	if id, ok := m.identityOf(instance); ok {
		s.ID = &id
	}

	for _, r := range m.strategy.PropertyReaders(td) {
		s.Properties[r.PropertyName()] = r.Read(instance)
	}

	for _, r := range m.strategy.RelationalReaders(td) {
		rs := RelationshipSummary{
			Member:    r.Name(),
			Type:      r.RelationshipType(),
			Direction: r.RelationshipDirection(),
			Related:   []int64{},
		}
		for _, related := range elements(r.Read(instance)) {
			if id, ok := m.identityOf(related); ok {
				rs.Related = append(rs.Related, id)
			}
		}
		s.Relationships = append(s.Relationships, rs)
	}

	if td.IsRelationshipEntity() {
		if res := m.strategy.StartNodeReader(td); res.Found() {
			if id, ok := m.identityOf(res.Accessor.Read(instance)); ok {
				s.StartNodeID = &id
			}
		}
		if res := m.strategy.EndNodeReader(td); res.Found() {
			if id, ok := m.identityOf(res.Accessor.Read(instance)); ok {
				s.EndNodeID = &id
			}
		}
	}
	return s, nil
}

// identityOf reads the graph id of a registered entity
func (m *Mapper) identityOf(entity any) (int64, bool) {
	if entity == nil {
		return 0, false
	}
	td, err := m.registry.DescriptorOf(entity)
	if err != nil {
		return 0, false
	}
	r, err := m.strategy.IdentityReader(td)
	if err != nil {
		return 0, false
	}
	v := reflect.ValueOf(r.Read(entity))
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return 0, false
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), true
	}
	return 0, false
}

func elements(value any) []any {
	if value == nil {
		return nil
	}
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return []any{value}
	}
	out := make([]any, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		out = append(out, v.Index(i).Interface())
	}
	return out
}
