package graph

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Builder collects nodes and relationships from query results into a
// GraphModel. Elements are deduplicated by id and keep first-seen order;
// a node seen again gains its new labels and properties.
type Builder struct {
	model GraphModel
	nodes map[int64]int
	rels  map[int64]bool
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{
		nodes: make(map[int64]int),
		rels:  make(map[int64]bool),
	}
}

// FromRecords converts query records into a GraphModel
func FromRecords(records []*neo4j.Record) *GraphModel {
	b := NewBuilder()
	for _, record := range records {
		b.AddRecord(record)
	}
	return b.Model()
}

// AddRecord adds every graph element found in the record's values
func (b *Builder) AddRecord(record *neo4j.Record) {
	if record == nil {
		return
	}
	for _, v := range record.Values {
		b.Add(v)
	}
}

// Add adds graph elements found in a record value: nodes, relationships,
// paths, and lists or maps containing them. Other values are ignored.
func (b *Builder) Add(value any) {
	switch v := value.(type) {
	case neo4j.Node:
		b.AddNode(Node{ID: v.Id, Labels: v.Labels, Properties: propertyList(v.Props)})
	case *neo4j.Node:
		if v != nil {
			b.Add(*v)
		}
	case neo4j.Relationship:
		b.AddRelationship(Relationship{
			ID:          v.Id,
			StartNodeID: v.StartId,
			EndNodeID:   v.EndId,
			Type:        v.Type,
			Properties:  propertyMap(v.Props),
		})
	case *neo4j.Relationship:
		if v != nil {
			b.Add(*v)
		}
	case neo4j.Path:
		for _, n := range v.Nodes {
			b.Add(n)
		}
		for _, r := range v.Relationships {
			b.Add(r)
		}
	case []any:
		for _, e := range v {
			b.Add(e)
		}
	case map[string]any:
		for _, k := range sortedKeys(v) {
			b.Add(v[k])
		}
	}
}

// AddNode adds a node or merges it into the node already held for its id
func (b *Builder) AddNode(n Node) {
	if i, ok := b.nodes[n.ID]; ok {
		existing := &b.model.Nodes[i]
		existing.Labels = unionLabels(existing.Labels, n.Labels)
		for _, p := range n.Properties {
			existing.SetProperty(p.Key, p.Value)
		}
		return
	}
	b.nodes[n.ID] = len(b.model.Nodes)
	node := Node{ID: n.ID, Labels: append([]string(nil), n.Labels...)}
	for _, p := range n.Properties {
		node.SetProperty(p.Key, p.Value)
	}
	b.model.Nodes = append(b.model.Nodes, node)
}

// AddRelationship adds a relationship unless its id was already seen
func (b *Builder) AddRelationship(r Relationship) {
	if b.rels[r.ID] {
		return
	}
	b.rels[r.ID] = true
	b.model.Relationships = append(b.model.Relationships, r)
}

// Merge adds every element of another model
func (b *Builder) Merge(other *GraphModel) {
	if other == nil {
		return
	}
	for _, n := range other.Nodes {
		b.AddNode(n)
	}
	for _, r := range other.Relationships {
		b.AddRelationship(r)
	}
}

// Model returns the collected graph
func (b *Builder) Model() *GraphModel {
	return &GraphModel{
		Nodes:         append([]Node(nil), b.model.Nodes...),
		Relationships: append([]Relationship(nil), b.model.Relationships...),
	}
}
