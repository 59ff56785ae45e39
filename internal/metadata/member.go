package metadata

import (
	"reflect"
	"strings"
	"time"
	"unicode"
)

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
	int64PtrType = reflect.TypeOf((*int64)(nil))
)

// MethodKind distinguishes getters from setters
type MethodKind int

const (
	Getter MethodKind = iota
	Setter
)

func (k MethodKind) String() string {
	if k == Setter {
		return "setter"
	}
	return "getter"
}

// member holds what fields and accessor methods have in common
type member struct {
	name          string
	typ           reflect.Type
	annotations   Annotations
	declaringType string
	// baseName is the name property and relationship names are inferred
	// from: the field name, or the method name without its Get/Set prefix
	baseName string
}

// Name is the Go identifier of the member
func (m *member) Name() string { return m.name }

// Type is the declared value type: the field type, a setter's parameter or a getter's result
func (m *member) Type() reflect.Type { return m.typ }

func (m *member) Annotations() Annotations { return m.annotations }

func (m *member) DeclaringType() string { return m.declaringType }

// IsSimple reports whether the member maps directly to a graph property value
func (m *member) IsSimple() bool { return isSimpleType(m.typ) }

// IsCollection reports whether the member holds many values
func (m *member) IsCollection() bool { return isCollectionType(m.typ) }

// ElementType is the element type of a collection member, nil otherwise
func (m *member) ElementType() reflect.Type {
	if !m.IsCollection() {
		return nil
	}
	return m.typ.Elem()
}

// IsProperty reports membership in the property set
func (m *member) IsProperty() bool {
	switch {
	case m.annotations.Has(AnnotationProperty):
		return true
	case m.annotations.Has(AnnotationRelationship),
		m.annotations.Has(AnnotationStartNode),
		m.annotations.Has(AnnotationEndNode),
		m.annotations.Has(AnnotationGraphID):
		return false
	}
	return m.IsSimple() && !m.IsCollection()
}

// IsRelationship reports membership in the relationship set
func (m *member) IsRelationship() bool {
	switch {
	case m.annotations.Has(AnnotationRelationship):
		return true
	case m.annotations.Has(AnnotationProperty),
		m.annotations.Has(AnnotationStartNode),
		m.annotations.Has(AnnotationEndNode),
		m.annotations.Has(AnnotationGraphID):
		return false
	}
	return !m.IsSimple() || m.IsCollection()
}

// PropertyName is the annotated property name, else the base name with a
// lower-case first letter
func (m *member) PropertyName() string {
	return m.annotations.Get(AnnotationProperty).Get(AttrName, lowerFirst(m.baseName))
}

// RelationshipTypeAnnotation is the explicitly annotated relationship type, or ""
func (m *member) RelationshipTypeAnnotation() string {
	return m.annotations.Get(AnnotationRelationship).Get(AttrType, "")
}

// RelationshipType is the annotated relationship type, else the type inferred
// from the member name (KnownBy becomes KNOWN_BY)
func (m *member) RelationshipType() string {
	if t := m.RelationshipTypeAnnotation(); t != "" {
		return t
	}
	return InferRelationshipType(m.baseName)
}

// RelationshipDirection is the annotated direction, OUTGOING by default
func (m *member) RelationshipDirection() Direction {
	return Direction(m.annotations.Get(AnnotationRelationship).Get(AttrDirection, string(Outgoing)))
}

func (m *member) matchesRelationship(relType string, dir Direction, strict bool) bool {
	candidate := m.RelationshipType()
	if strict {
		candidate = m.RelationshipTypeAnnotation()
	}
	if candidate == "" || !strings.EqualFold(candidate, relType) {
		return false
	}
	return dir.Accepts(m.RelationshipDirection())
}

// FieldDescriptor describes one exported struct field
type FieldDescriptor struct {
	member
}

// MethodDescriptor describes one getter or setter on the pointer method set
type MethodDescriptor struct {
	member
	Kind MethodKind
}

// InferRelationshipType converts a CamelCase member name into an
// UPPER_SNAKE relationship type
func InferRelationshipType(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	// keep initialisms such as ID or URL intact
	if len(runes) > 1 && unicode.IsUpper(runes[1]) {
		return s
	}
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

func isSimpleType(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == timeType || t == durationType {
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Slice:
		return t.Elem().Kind() == reflect.Uint8
	}
	return false
}

// isCollectionType treats every slice except []byte as a collection
func isCollectionType(t reflect.Type) bool {
	return t != nil && t.Kind() == reflect.Slice && t.Elem().Kind() != reflect.Uint8
}

// IsCollectionType reports whether values of t are written as collections
func IsCollectionType(t reflect.Type) bool {
	return isCollectionType(t)
}
