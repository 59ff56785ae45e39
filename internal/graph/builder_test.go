package graph

import (
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderConvertsRecordValues(t *testing.T) {
	keanu := neo4j.Node{Id: 1, Labels: []string{"Person"}, Props: map[string]any{"name": "Keanu", "born": int64(1964)}}
	matrix := neo4j.Node{Id: 2, Labels: []string{"Movie"}, Props: map[string]any{"title": "The Matrix"}}
	rated := neo4j.Relationship{Id: 10, StartId: 1, EndId: 2, Type: "RATED", Props: map[string]any{"stars": int64(5)}}

	records := []*neo4j.Record{
		{Keys: []string{"p", "r", "m"}, Values: []any{keanu, rated, matrix}},
		{Keys: []string{"path"}, Values: []any{neo4j.Path{
			Nodes:         []neo4j.Node{keanu, matrix},
			Relationships: []neo4j.Relationship{rated},
		}}},
		{Keys: []string{"count"}, Values: []any{int64(3)}},
	}

	model := FromRecords(records)
	require.Len(t, model.Nodes, 2)
	require.Len(t, model.Relationships, 1)

	assert.Equal(t, int64(1), model.Nodes[0].ID)
	assert.Equal(t, []Property{{Key: "born", Value: int64(1964)}, {Key: "name", Value: "Keanu"}}, model.Nodes[0].Properties)
	assert.Equal(t, Relationship{
		ID:          10,
		StartNodeID: 1,
		EndNodeID:   2,
		Type:        "RATED",
		Properties:  map[string]any{"stars": int64(5)},
	}, model.Relationships[0])
}

func TestBuilderMergesRepeatedNodes(t *testing.T) {
	b := NewBuilder()
	b.AddNode(Node{ID: 7, Labels: []string{"Person"}, Properties: []Property{{Key: "name", Value: "old"}, {Key: "age", Value: int64(1)}}})
	b.AddNode(Node{ID: 7, Labels: []string{"Person", "Actor"}, Properties: []Property{{Key: "name", Value: "new"}}})

	model := b.Model()
	require.Len(t, model.Nodes, 1)
	node := model.Nodes[0]
	assert.Equal(t, []string{"Person", "Actor"}, node.Labels)
	assert.Equal(t, []Property{{Key: "name", Value: "new"}, {Key: "age", Value: int64(1)}}, node.Properties)
	assert.True(t, node.HasLabel("Actor"))

	v, ok := node.Property("name")
	assert.True(t, ok)
	assert.Equal(t, "new", v)
}

func TestBuilderNestedCollections(t *testing.T) {
	b := NewBuilder()
	b.Add(map[string]any{
		"people": []any{neo4j.Node{Id: 1}, &neo4j.Node{Id: 2}},
		"edges":  []any{&neo4j.Relationship{Id: 5, StartId: 1, EndId: 2, Type: "KNOWS"}},
		"ignore": "text",
	})
	b.Add((*neo4j.Node)(nil))

	model := b.Model()
	assert.Len(t, model.Nodes, 2)
	assert.Len(t, model.Relationships, 1)
	assert.Nil(t, model.Relationships[0].Properties)
}

func TestNormalizeTemporalValues(t *testing.T) {
	day := time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)
	model := FromRecords([]*neo4j.Record{{Values: []any{
		neo4j.Node{Id: 1, Props: map[string]any{"released": dbtype.Date(day), "dates": []any{dbtype.LocalDateTime(day)}}},
	}}})

	released, _ := model.Nodes[0].Property("released")
	assert.Equal(t, day, released)
	dates, _ := model.Nodes[0].Property("dates")
	assert.Equal(t, []any{day}, dates)
}

func TestBuilderMergeKeepsFirstSeenOrder(t *testing.T) {
	first := &GraphModel{Nodes: []Node{{ID: 2}, {ID: 1}}}
	second := &GraphModel{
		Nodes:         []Node{{ID: 1}, {ID: 3}},
		Relationships: []Relationship{{ID: 9, StartNodeID: 2, EndNodeID: 3, Type: "X"}},
	}

	b := NewBuilder()
	b.Merge(first)
	b.Merge(second)
	b.Merge(nil)
	model := b.Model()

	var ids []int64
	for _, n := range model.Nodes {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []int64{2, 1, 3}, ids)
	assert.Len(t, model.Relationships, 1)
	assert.False(t, model.Empty())
	assert.True(t, (&GraphModel{}).Empty())
}

func TestRelationshipPropertyKeys(t *testing.T) {
	r := Relationship{Properties: map[string]any{"b": 1, "a": 2, "c": 3}}
	assert.Equal(t, []string{"a", "b", "c"}, r.PropertyKeys())
}
