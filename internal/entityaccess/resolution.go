package entityaccess

import "fmt"

// Outcome tells why a resolution did or did not produce an accessor
type Outcome int

const (
	Resolved Outcome = iota
	// None: no member matches the request
	None
	// Ambiguous: several equally ranked members match
	Ambiguous
	// IncompatibleType: members match by name but cannot take the value
	IncompatibleType
)

func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case None:
		return "none"
	case Ambiguous:
		return "ambiguous"
	case IncompatibleType:
		return "incompatible type"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Resolution is the result of one accessor lookup
type Resolution[A any] struct {
	Accessor   A
	Outcome    Outcome
	Candidates []string
	Reason     string
}

// Found reports whether an accessor was resolved
func (r Resolution[A]) Found() bool {
	return r.Outcome == Resolved
}

func resolved[A any](a A) Resolution[A] {
	return Resolution[A]{Accessor: a, Outcome: Resolved}
}

func unresolved[A any](outcome Outcome, candidates []string, format string, args ...any) Resolution[A] {
	return Resolution[A]{
		Outcome:    outcome,
		Candidates: candidates,
		Reason:     fmt.Sprintf(format, args...),
	}
}
