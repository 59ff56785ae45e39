package metadata

import (
	"fmt"
	"strings"
)

// Direction is the direction of a relationship seen from the entity that holds it
type Direction string

const (
	Outgoing   Direction = "OUTGOING"
	Incoming   Direction = "INCOMING"
	Undirected Direction = "UNDIRECTED"
)

// ParseDirection accepts any casing of the three direction names
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToUpper(strings.TrimSpace(s))) {
	case Outgoing:
		return Outgoing, nil
	case Incoming:
		return Incoming, nil
	case Undirected:
		return Undirected, nil
	}
	return "", fmt.Errorf("unknown relationship direction %q", s)
}

// Invert returns the direction as seen from the other endpoint
func (d Direction) Invert() Direction {
	switch d {
	case Outgoing:
		return Incoming
	case Incoming:
		return Outgoing
	}
	return d
}

// Accepts reports whether a member declared with direction candidate may serve
// a request for direction d. An INCOMING request takes INCOMING or UNDIRECTED
// members; any other request takes everything that is not INCOMING.
func (d Direction) Accepts(candidate Direction) bool {
	if d == Incoming {
		return candidate == Incoming || candidate == Undirected
	}
	return candidate != Incoming
}

func (d Direction) String() string {
	return string(d)
}
