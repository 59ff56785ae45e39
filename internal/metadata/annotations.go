package metadata

import (
	"fmt"
	"strings"
)

// Annotation kinds carried by `ogm` struct tags and method tags
const (
	AnnotationGraphID            = "id"
	AnnotationProperty           = "property"
	AnnotationRelationship       = "relationship"
	AnnotationStartNode          = "startnode"
	AnnotationEndNode            = "endnode"
	AnnotationNodeEntity         = "node"
	AnnotationRelationshipEntity = "relationshipentity"
	AnnotationTransient          = "-"
)

// Annotation attribute keys
const (
	AttrName       = "name"
	AttrType       = "type"
	AttrDirection  = "direction"
	AttrLabel      = "label"
	AttrAbstract   = "abstract"
	AttrImplements = "implements"
)

var memberKinds = map[string]bool{
	AnnotationGraphID:      true,
	AnnotationProperty:     true,
	AnnotationRelationship: true,
	AnnotationStartNode:    true,
	AnnotationEndNode:      true,
}

// Annotation is one parsed annotation with its attributes
type Annotation struct {
	Kind  string
	Attrs map[string]string
}

// Get returns the attribute value or def when absent or empty
func (a *Annotation) Get(key, def string) string {
	if a == nil {
		return def
	}
	if v, ok := a.Attrs[key]; ok && v != "" {
		return v
	}
	return def
}

// Has reports whether the attribute is present
func (a *Annotation) Has(key string) bool {
	if a == nil {
		return false
	}
	_, ok := a.Attrs[key]
	return ok
}

// Annotations is the annotation table of a type or member, keyed by kind
type Annotations map[string]*Annotation

func (a Annotations) Get(kind string) *Annotation {
	return a[kind]
}

func (a Annotations) Has(kind string) bool {
	_, ok := a[kind]
	return ok
}

func (a Annotations) Empty() bool {
	return len(a) == 0
}

// parseMemberTag parses a field or method tag such as
// "relationship,type=LIKES,direction=INCOMING". Bare words name annotation
// kinds; key=value pairs attach to the kind that precedes them.
func parseMemberTag(tag string) (Annotations, error) {
	annotations := Annotations{}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return annotations, nil
	}

	var current *Annotation
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, isAttr := strings.Cut(part, "=")
		if !isAttr {
			kind := strings.ToLower(part)
			if !memberKinds[kind] {
				return nil, fmt.Errorf("unknown annotation %q", part)
			}
			current = &Annotation{Kind: kind, Attrs: map[string]string{}}
			annotations[kind] = current
			continue
		}
		if current == nil {
			return nil, fmt.Errorf("attribute %q has no annotation", part)
		}
		current.Attrs[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	if rel := annotations.Get(AnnotationRelationship); rel != nil && rel.Has(AttrDirection) {
		dir, err := ParseDirection(rel.Attrs[AttrDirection])
		if err != nil {
			return nil, err
		}
		rel.Attrs[AttrDirection] = string(dir)
	}
	return annotations, nil
}

// parseClassTag parses the tag on an embedded NodeEntity or RelationshipEntity
// marker, e.g. "label=Movie,implements=Named|Rated" or "abstract".
func parseClassTag(kind, tag string) (*Annotation, error) {
	a := &Annotation{Kind: kind, Attrs: map[string]string{}}
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, isAttr := strings.Cut(part, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		if !isAttr {
			if key != AttrAbstract {
				return nil, fmt.Errorf("unknown %s flag %q", kind, part)
			}
			a.Attrs[key] = "true"
			continue
		}
		a.Attrs[key] = strings.TrimSpace(value)
	}
	return a, nil
}
