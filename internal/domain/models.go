package domain

import (
	"neo-ogm/internal/metadata"
)

// Entity carries the identity and name shared by every node type
type Entity struct {
	metadata.NodeEntity `ogm:"abstract"`
	ID                  *int64
	Name                string
}

// Person is a movie fan
type Person struct {
	metadata.NodeEntity `ogm:"label=Person"`
	Entity
	Born            int
	MovieRatings    []*Rating `ogm:"relationship,type=RATED"`
	PeopleILike     []*Person `ogm:"relationship,type=LIKES"`
	PeopleWhoLikeMe []*Person `ogm:"relationship,type=LIKES,direction=INCOMING"`
	// Follows is inferred as an outgoing FOLLOWS relationship
	Follows *Person
}

// Rateable is implemented by anything people can rate
type Rateable interface {
	AverageRating() float64
}

// Movie is a film people rate
type Movie struct {
	metadata.NodeEntity `ogm:"label=Movie"`
	Entity
	Released int
	Tagline  string
	Genres   []string  `ogm:"property"`
	Ratings  []*Rating `ogm:"relationship,type=RATED,direction=INCOMING"`
}

// AverageRating is the mean of the stars given to the movie, 0 when unrated
func (m *Movie) AverageRating() float64 {
	if len(m.Ratings) == 0 {
		return 0
	}
	total := 0
	for _, r := range m.Ratings {
		total += r.Stars
	}
	return float64(total) / float64(len(m.Ratings))
}

// Rating is the RATED edge from a person to a movie
type Rating struct {
	metadata.RelationshipEntity `ogm:"type=RATED"`
	ID                          *int64
	Person                      *Person `ogm:"startnode"`
	Movie                       *Movie  `ogm:"endnode"`
	Stars                       int
	Comment                     string
}

// Register adds the domain types to reg
func Register(reg *metadata.Registry) error {
	if err := reg.ScanInterface((*Rateable)(nil), "label=Rateable"); err != nil {
		return err
	}
	return reg.Scan(Entity{}, Person{}, Movie{}, Rating{})
}
