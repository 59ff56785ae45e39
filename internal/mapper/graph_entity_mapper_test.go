package mapper

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neo-ogm/internal/graph"
	"neo-ogm/internal/metadata"
	apperrors "neo-ogm/pkg/errors"
)

type Person struct {
	metadata.NodeEntity `ogm:"label=Person"`
	ID                  *int64
	Name                string
	Nicknames           []string  `ogm:"property"`
	Ratings             []*Rating `ogm:"relationship,type=RATED"`
	Likes               []*Person `ogm:"relationship,type=LIKES"`
	LikedBy             []*Person `ogm:"relationship,type=LIKES,direction=INCOMING"`
}

type Movie struct {
	metadata.NodeEntity `ogm:"label=Movie"`
	ID                  *int64
	Title               string
	Released            int
	Director            *Director `ogm:"relationship,type=DIRECTED,direction=INCOMING"`
	Ratings             []*Rating `ogm:"relationship,type=RATED,direction=INCOMING"`
}

type Director struct {
	metadata.NodeEntity `ogm:"label=Director"`
	ID                  *int64
	Name                string
	Directed            []*Movie `ogm:"relationship,type=DIRECTED"`
}

type Rating struct {
	metadata.RelationshipEntity `ogm:"type=RATED"`
	ID                          *int64
	Critic                      *Person `ogm:"startnode"`
	Film                        *Movie  `ogm:"endnode"`
	Stars                       int
}

// Orphan cannot reach its end node
type Orphan struct {
	metadata.RelationshipEntity `ogm:"type=ORPHANED"`
	ID                          *int64
	Owner                       *Person `ogm:"startnode"`
}

func newTestMapper(t *testing.T, extra ...any) *Mapper {
	t.Helper()
	reg := metadata.NewRegistry()
	require.NoError(t, reg.Scan(append([]any{Person{}, Movie{}, Director{}, Rating{}}, extra...)...))
	return New(reg)
}

func node(id int64, label string, props ...graph.Property) graph.Node {
	return graph.Node{ID: id, Labels: []string{label}, Properties: props}
}

func prop(key string, value any) graph.Property {
	return graph.Property{Key: key, Value: value}
}

func rel(id, start, end int64, relType string, props map[string]any) graph.Relationship {
	return graph.Relationship{ID: id, StartNodeID: start, EndNodeID: end, Type: relType, Properties: props}
}

func ratingsModel() *graph.GraphModel {
	return &graph.GraphModel{
		Nodes: []graph.Node{
			node(1, "Person", prop("name", "Keanu")),
			node(2, "Movie", prop("title", "The Matrix"), prop("released", int64(1999))),
			node(3, "Movie", prop("title", "John Wick"), prop("released", int64(2014))),
			node(4, "Movie", prop("title", "Speed"), prop("released", int64(1994))),
		},
		Relationships: []graph.Relationship{
			rel(10, 1, 2, "RATED", map[string]any{"stars": int64(5)}),
			rel(11, 1, 3, "RATED", map[string]any{"stars": int64(4)}),
			rel(12, 1, 4, "RATED", map[string]any{"stars": int64(3)}),
		},
	}
}

func TestMapAggregatesRelationshipEntities(t *testing.T) {
	m := newTestMapper(t)
	mc := NewMappingContext()

	people, err := MapAs[*Person](m, ratingsModel(), mc)
	require.NoError(t, err)
	require.Len(t, people, 1)

	keanu := people[0]
	require.NotNil(t, keanu.ID)
	assert.Equal(t, int64(1), *keanu.ID)
	assert.Equal(t, "Keanu", keanu.Name)
	require.Len(t, keanu.Ratings, 3)

	var stars []int
	for _, r := range keanu.Ratings {
		assert.Same(t, keanu, r.Critic)
		require.NotNil(t, r.Film)
		require.Len(t, r.Film.Ratings, 1)
		assert.Same(t, r, r.Film.Ratings[0])
		stars = append(stars, r.Stars)
	}
	assert.Equal(t, []int{5, 4, 3}, stars)

	movies := m.Get(reflect.TypeOf(Movie{}), mc)
	require.Len(t, movies, 3)
	assert.Equal(t, 1999, movies[0].(*Movie).Released)
}

func TestMapReturnsTargetsInEncounterOrder(t *testing.T) {
	m := newTestMapper(t)

	movies, err := m.Map(reflect.TypeOf(Movie{}), ratingsModel(), nil)
	require.NoError(t, err)
	require.Len(t, movies, 3)

	var titles []string
	for _, v := range movies {
		titles = append(titles, v.(*Movie).Title)
	}
	assert.Equal(t, []string{"The Matrix", "John Wick", "Speed"}, titles)
}

func TestMapScalarAndCollectionEnds(t *testing.T) {
	m := newTestMapper(t)
	model := &graph.GraphModel{
		Nodes: []graph.Node{
			node(5, "Director", prop("name", "Lana")),
			node(2, "Movie", prop("title", "The Matrix")),
			node(3, "Movie", prop("title", "Cloud Atlas")),
		},
		Relationships: []graph.Relationship{
			rel(20, 5, 2, "DIRECTED", nil),
			rel(21, 5, 3, "DIRECTED", nil),
		},
	}

	directors, err := MapAs[*Director](m, model, NewMappingContext())
	require.NoError(t, err)
	require.Len(t, directors, 1)

	lana := directors[0]
	require.Len(t, lana.Directed, 2)
	for _, movie := range lana.Directed {
		assert.Same(t, lana, movie.Director)
	}
}

func TestMapSelfRelationshipBothDirections(t *testing.T) {
	m := newTestMapper(t)
	model := &graph.GraphModel{
		Nodes: []graph.Node{node(1, "Person", prop("name", "A")), node(6, "Person", prop("name", "B"))},
		Relationships: []graph.Relationship{
			rel(30, 1, 6, "LIKES", nil),
		},
	}

	people, err := MapAs[*Person](m, model, nil)
	require.NoError(t, err)
	require.Len(t, people, 2)

	a, b := people[0], people[1]
	assert.Equal(t, []*Person{b}, a.Likes)
	assert.Empty(t, a.LikedBy)
	assert.Equal(t, []*Person{a}, b.LikedBy)
	assert.Empty(t, b.Likes)
}

func TestMapSkipsNodesWithoutType(t *testing.T) {
	m := newTestMapper(t)
	mc := NewMappingContext()
	model := &graph.GraphModel{
		Nodes: []graph.Node{
			node(1, "Person", prop("name", "Keanu")),
			node(99, "Alien"),
		},
		Relationships: []graph.Relationship{
			rel(40, 1, 99, "LIKES", nil),
		},
	}

	people, err := MapAs[*Person](m, model, mc)
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Empty(t, people[0].Likes)

	_, ok := mc.NodeEntity(99)
	assert.False(t, ok)
	assert.Empty(t, mc.Relationships())
}

func TestMapRegistersUnwritableEdges(t *testing.T) {
	m := newTestMapper(t)
	mc := NewMappingContext()
	model := &graph.GraphModel{
		Nodes:         []graph.Node{node(1, "Person"), node(2, "Movie")},
		Relationships: []graph.Relationship{rel(50, 1, 2, "REVIEWED", nil)},
	}

	_, err := m.Map(reflect.TypeOf(Person{}), model, mc)
	require.NoError(t, err)
	assert.True(t, mc.IsRegisteredRelationship(MappedRelationship{
		StartNodeID: 1, Type: "REVIEWED", EndNodeID: 2, RelationshipID: 50,
	}))
}

func TestMapFallsBackToRelationshipEntities(t *testing.T) {
	m := newTestMapper(t)

	ratings, err := MapAs[*Rating](m, ratingsModel(), nil)
	require.NoError(t, err)
	require.Len(t, ratings, 3)
	assert.Equal(t, int64(10), *ratings[0].ID)
	assert.Equal(t, "The Matrix", ratings[0].Film.Title)
}

func TestMapMissingEndNodeWriterIsFatal(t *testing.T) {
	m := newTestMapper(t, Orphan{})
	model := &graph.GraphModel{
		Nodes:         []graph.Node{node(1, "Person"), node(2, "Person")},
		Relationships: []graph.Relationship{rel(60, 1, 2, "ORPHANED", nil)},
	}

	_, err := m.Map(reflect.TypeOf(Person{}), model, nil)
	require.Error(t, err)

	var mappingErr *apperrors.ErrMapping
	require.True(t, errors.As(err, &mappingErr))
	assert.Contains(t, mappingErr.TargetType, "Person")

	var configErr *apperrors.ErrConfiguration
	assert.True(t, errors.As(err, &configErr))
}

func TestMapMergesOnRemap(t *testing.T) {
	m := newTestMapper(t)
	mc := NewMappingContext()

	first := &graph.GraphModel{
		Nodes:         []graph.Node{node(1, "Person", prop("nicknames", []any{"neo"})), node(6, "Person")},
		Relationships: []graph.Relationship{rel(30, 1, 6, "LIKES", nil)},
	}
	second := &graph.GraphModel{
		Nodes:         []graph.Node{node(1, "Person", prop("nicknames", []any{"neo", "john"})), node(6, "Person")},
		Relationships: []graph.Relationship{rel(30, 1, 6, "LIKES", nil)},
	}

	before, err := MapAs[*Person](m, first, mc)
	require.NoError(t, err)
	after, err := MapAs[*Person](m, second, mc)
	require.NoError(t, err)

	require.Len(t, after, 2)
	assert.Same(t, before[0], after[0])
	assert.Equal(t, []string{"neo", "john"}, after[0].Nicknames)
	assert.Len(t, after[0].Likes, 1)
	assert.Len(t, mc.Relationships(), 1)
}

func TestMapEmptyAndInvalidInput(t *testing.T) {
	m := newTestMapper(t)

	results, err := m.Map(reflect.TypeOf(Person{}), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = m.Map(nil, &graph.GraphModel{}, nil)
	var mappingErr *apperrors.ErrMapping
	assert.True(t, errors.As(err, &mappingErr))
}

func TestMapRejectsUnconvertibleProperty(t *testing.T) {
	m := newTestMapper(t)
	model := &graph.GraphModel{Nodes: []graph.Node{node(2, "Movie", prop("released", "last year"))}}

	_, err := m.Map(reflect.TypeOf(Movie{}), model, nil)
	var mappingErr *apperrors.ErrMapping
	assert.True(t, errors.As(err, &mappingErr))
}
