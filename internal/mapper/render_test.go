package mapper

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neo-ogm/internal/metadata"
)

func TestSummarize(t *testing.T) {
	m := newTestMapper(t)
	people, err := MapAs[*Person](m, ratingsModel(), nil)
	require.NoError(t, err)
	require.Len(t, people, 1)

	s, err := m.Summarize(people[0])
	require.NoError(t, err)
	require.NotNil(t, s.ID)
	assert.Equal(t, int64(1), *s.ID)
	assert.Equal(t, "Person", s.Type)
	assert.Equal(t, []string{"Person"}, s.Labels)
	assert.Equal(t, "Keanu", s.Properties["name"])

	related := map[string][]int64{}
	for _, r := range s.Relationships {
		related[r.Type+":"+r.Direction.String()] = r.Related
	}
	assert.Equal(t, []int64{10, 11, 12}, related["RATED:"+metadata.Outgoing.String()])

	rating, err := m.Summarize(people[0].Ratings[0])
	require.NoError(t, err)
	assert.Equal(t, "RATED", rating.RelationshipType)
	assert.Empty(t, rating.Labels)
	require.NotNil(t, rating.StartNodeID)
	require.NotNil(t, rating.EndNodeID)
	assert.Equal(t, int64(1), *rating.StartNodeID)
	assert.Equal(t, int64(2), *rating.EndNodeID)
	assert.Equal(t, 5, rating.Properties["stars"])

	// the object graph is cyclic, its summary is not
	_, err = json.Marshal(s)
	assert.NoError(t, err)
}

func TestSummarizeUnregistered(t *testing.T) {
	m := newTestMapper(t)
	_, err := m.Summarize(&struct{ ID *int64 }{})
	assert.Error(t, err)
}
