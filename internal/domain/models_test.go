package domain

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neo-ogm/internal/graph"
	"neo-ogm/internal/mapper"
	"neo-ogm/internal/metadata"
	apperrors "neo-ogm/pkg/errors"
)

func newRegistry(t *testing.T) *metadata.Registry {
	t.Helper()
	reg := metadata.NewRegistry()
	require.NoError(t, Register(reg))
	return reg
}

func TestRegisterLabels(t *testing.T) {
	reg := newRegistry(t)

	tests := []struct {
		name   string
		labels []string
	}{
		{"Entity", nil},
		{"Person", []string{"Person"}},
		{"Movie", []string{"Movie", "Rateable"}},
		{"Rating", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			td, err := reg.Describe(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.labels, reg.Labels(td))
		})
	}

	assert.Empty(t, reg.Unhydrated())

	rating := reg.Resolve("RATED")
	require.NotNil(t, rating)
	assert.Equal(t, "Rating", rating.SimpleName())

	implementors, err := reg.Implementors("Rateable")
	require.NoError(t, err)
	require.Len(t, implementors, 1)
	assert.Equal(t, "Movie", implementors[0].SimpleName())
}

func TestHydrateDemoGraph(t *testing.T) {
	m := mapper.New(newRegistry(t))
	model := &graph.GraphModel{
		Nodes: []graph.Node{
			{ID: 1, Labels: []string{"Person"}, Properties: []graph.Property{{Key: "name", Value: "Keanu"}, {Key: "born", Value: int64(1964)}}},
			{ID: 2, Labels: []string{"Person"}, Properties: []graph.Property{{Key: "name", Value: "Carrie"}}},
			{ID: 3, Labels: []string{"Movie", "Rateable"}, Properties: []graph.Property{
				{Key: "name", Value: "The Matrix"},
				{Key: "genres", Value: []any{"sci-fi", "action"}},
			}},
		},
		Relationships: []graph.Relationship{
			{ID: 10, StartNodeID: 1, EndNodeID: 3, Type: "RATED", Properties: map[string]any{"stars": int64(5)}},
			{ID: 11, StartNodeID: 2, EndNodeID: 3, Type: "RATED", Properties: map[string]any{"stars": int64(4), "comment": "good"}},
			{ID: 12, StartNodeID: 1, EndNodeID: 2, Type: "LIKES"},
			{ID: 13, StartNodeID: 2, EndNodeID: 1, Type: "FOLLOWS"},
		},
	}

	movies, err := mapper.MapAs[*Movie](m, model, mapper.NewMappingContext())
	require.NoError(t, err)
	require.Len(t, movies, 1)

	matrix := movies[0]
	assert.Equal(t, "The Matrix", matrix.Name)
	assert.Equal(t, []string{"sci-fi", "action"}, matrix.Genres)
	require.Len(t, matrix.Ratings, 2)
	assert.InDelta(t, 4.5, matrix.AverageRating(), 0.001)

	keanu := matrix.Ratings[0].Person
	carrie := matrix.Ratings[1].Person
	assert.Equal(t, "Keanu", keanu.Name)
	assert.Equal(t, 1964, keanu.Born)
	assert.Equal(t, "good", matrix.Ratings[1].Comment)

	assert.Equal(t, []*Person{carrie}, keanu.PeopleILike)
	assert.Equal(t, []*Person{keanu}, carrie.PeopleWhoLikeMe)
	assert.Same(t, keanu, carrie.Follows)
	assert.Nil(t, keanu.Follows)
	require.Len(t, keanu.MovieRatings, 1)
	assert.Same(t, matrix, keanu.MovieRatings[0].Movie)
}

func TestMapSuperclassReturnsSubclassInstances(t *testing.T) {
	m := mapper.New(newRegistry(t))
	model := &graph.GraphModel{
		Nodes: []graph.Node{
			{ID: 1, Labels: []string{"Person"}, Properties: []graph.Property{{Key: "name", Value: "Keanu"}}},
			{ID: 3, Labels: []string{"Movie", "Rateable"}, Properties: []graph.Property{{Key: "name", Value: "The Matrix"}}},
		},
		Relationships: []graph.Relationship{
			{ID: 10, StartNodeID: 1, EndNodeID: 3, Type: "RATED", Properties: map[string]any{"stars": int64(5)}},
		},
	}
	mc := mapper.NewMappingContext()

	entities, err := m.Map(reflect.TypeOf(Entity{}), model, mc)
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.IsType(t, &Person{}, entities[0])
	assert.IsType(t, &Movie{}, entities[1])

	assert.Len(t, m.Get(reflect.TypeOf(Entity{}), mc), 2)
	assert.Len(t, m.Get(reflect.TypeOf((*Rateable)(nil)).Elem(), mc), 1)
	assert.Len(t, m.Get(reflect.TypeOf(Rating{}), mc), 1)
}

func TestHydrateKeepsRepeatedListValues(t *testing.T) {
	m := mapper.New(newRegistry(t))
	model := &graph.GraphModel{
		Nodes: []graph.Node{
			{ID: 3, Labels: []string{"Movie"}, Properties: []graph.Property{
				{Key: "genres", Value: []any{"Drama", "Drama", "SciFi"}},
			}},
		},
	}
	mc := mapper.NewMappingContext()

	movies, err := mapper.MapAs[*Movie](m, model, mc)
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, []string{"Drama", "Drama", "SciFi"}, movies[0].Genres)

	again, err := mapper.MapAs[*Movie](m, model, mc)
	require.NoError(t, err)
	assert.Same(t, movies[0], again[0])
	assert.Equal(t, []string{"Drama", "Drama", "SciFi"}, again[0].Genres)
}

func TestHydrateRejectsFractionalInteger(t *testing.T) {
	m := mapper.New(newRegistry(t))
	model := &graph.GraphModel{
		Nodes: []graph.Node{
			{ID: 1, Labels: []string{"Person"}, Properties: []graph.Property{{Key: "born", Value: 1964.9}}},
		},
	}

	_, err := mapper.MapAs[*Person](m, model, nil)
	var mappingErr *apperrors.ErrMapping
	assert.True(t, errors.As(err, &mappingErr))

	model.Nodes[0].Properties[0].Value = 1964.0
	people, err := mapper.MapAs[*Person](m, model, nil)
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Equal(t, 1964, people[0].Born)
}
