package graph

import "sort"

// ============================================================================
// Graph Model
// ============================================================================

// Property is one key/value pair of a node
type Property struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Node is a graph node as returned by a query
type Node struct {
	ID         int64      `json:"id"`
	Labels     []string   `json:"labels"`
	Properties []Property `json:"properties"`
}

// SetProperty adds or replaces a property. A replaced key keeps its position,
// so the last write in source order wins.
func (n *Node) SetProperty(key string, value any) {
	for i := range n.Properties {
		if n.Properties[i].Key == key {
			n.Properties[i].Value = value
			return
		}
	}
	n.Properties = append(n.Properties, Property{Key: key, Value: value})
}

// Property returns the value of a property
func (n *Node) Property(key string) (any, bool) {
	for _, p := range n.Properties {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// HasLabel reports whether the node carries the label
func (n *Node) HasLabel(label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Relationship is a graph edge as returned by a query
type Relationship struct {
	ID          int64          `json:"id"`
	StartNodeID int64          `json:"start_node_id"`
	EndNodeID   int64          `json:"end_node_id"`
	Type        string         `json:"type"`
	Properties  map[string]any `json:"properties,omitempty"`
}

// PropertyKeys returns the property keys in sorted order
func (r *Relationship) PropertyKeys() []string {
	keys := make([]string, 0, len(r.Properties))
	for k := range r.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GraphModel is a fully materialized query result: nodes and relationships
// in the order they were first seen
type GraphModel struct {
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
}

// Empty reports whether the model holds nothing
func (g *GraphModel) Empty() bool {
	return g == nil || (len(g.Nodes) == 0 && len(g.Relationships) == 0)
}
