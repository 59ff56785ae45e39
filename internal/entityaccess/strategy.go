package entityaccess

import (
	"reflect"
	"strings"

	"neo-ogm/internal/metadata"
)

// Strategy picks the one member of a type that reads or writes a given
// property or relationship. Resolution is a pure function of the
// descriptor, so results may be cached by callers.
//
// Annotated members beat unannotated ones, methods beat fields at equal
// rank, and annotated relationship types beat types inferred from names.
// Incoming relationships are only ever resolved through annotations.
type Strategy struct{}

// NewStrategy returns the default resolution strategy
func NewStrategy() *Strategy {
	return &Strategy{}
}

// PropertyWriter resolves the writer for a property: the setter, unless it
// is unannotated while the field of the same property is annotated.
func (s *Strategy) PropertyWriter(td *metadata.TypeDescriptor, name string) Resolution[Writer] {
	field := td.PropertyField(name)
	if setter := td.PropertySetter(name); setter != nil {
		if field != nil && !setter.Annotations().Has(metadata.AnnotationProperty) && !field.Annotations().Empty() {
			return resolved[Writer](newFieldAccessor(td, field))
		}
		return resolved[Writer](newMethodWriter(td, setter))
	}
	if field != nil {
		return resolved[Writer](newFieldAccessor(td, field))
	}
	return unresolved[Writer](None, nil, "%s has no property %q", td.SimpleName(), name)
}

// PropertyReader mirrors PropertyWriter with getters
func (s *Strategy) PropertyReader(td *metadata.TypeDescriptor, name string) Resolution[Reader] {
	field := td.PropertyField(name)
	if getter := td.PropertyGetter(name); getter != nil {
		if field != nil && !getter.Annotations().Has(metadata.AnnotationProperty) && !field.Annotations().Empty() {
			return resolved[Reader](newFieldAccessor(td, field))
		}
		return resolved[Reader](newMethodReader(td, getter))
	}
	if field != nil {
		return resolved[Reader](newFieldAccessor(td, field))
	}
	return unresolved[Reader](None, nil, "%s has no property %q", td.SimpleName(), name)
}

// RelationalWriter resolves the member that takes value as the related
// object of a relationship. The member must accept the value itself or,
// for collections, as an element.
func (s *Strategy) RelationalWriter(td *metadata.TypeDescriptor, relType string, dir metadata.Direction, value any) Resolution[Writer] {
	valueType := reflect.TypeOf(value)
	var rejected []string
	check := func(t reflect.Type) bool { return accepts(t, valueType) }

	if m, ok := firstMatch(td.RelationshipSettersFor(relType, dir, true), true, check, &rejected); ok {
		return resolved[Writer](newMethodWriter(td, m))
	}
	if f, ok := firstMatch(td.RelationshipFieldsFor(relType, dir, true), true, check, &rejected); ok {
		return resolved[Writer](newFieldAccessor(td, f))
	}

	if dir != metadata.Incoming {
		setters := td.RelationshipSettersFor(relType, dir, false)
		fields := td.RelationshipFieldsFor(relType, dir, false)
		if m, ok := firstMatch(setters, true, check, &rejected); ok {
			return resolved[Writer](newMethodWriter(td, m))
		}
		if f, ok := firstMatch(fields, true, check, &rejected); ok {
			return resolved[Writer](newFieldAccessor(td, f))
		}
		if m, ok := firstMatch(setters, false, check, &rejected); ok {
			return resolved[Writer](newMethodWriter(td, m))
		}
		if f, ok := firstMatch(fields, false, check, &rejected); ok {
			return resolved[Writer](newFieldAccessor(td, f))
		}

		// last resort: the only member of the whole type taking this value
		if byType := td.SettersOfType(valueType); len(byType) == 1 && byType[0].RelationshipDirection() != metadata.Incoming {
			return resolved[Writer](newMethodWriter(td, byType[0]))
		}
		if byType := td.FieldsOfType(valueType); len(byType) == 1 && byType[0].RelationshipDirection() != metadata.Incoming {
			return resolved[Writer](newFieldAccessor(td, byType[0]))
		}
	}

	if len(rejected) > 0 {
		return unresolved[Writer](IncompatibleType, dedupe(rejected),
			"%s members for %s cannot take %v", td.SimpleName(), relType, valueType)
	}
	return unresolved[Writer](None, nil, "%s has no %s writer for %s", td.SimpleName(), dir, relType)
}

// RelationalReader resolves the member holding a relationship, following the
// same precedence as RelationalWriter without a value to type-check
func (s *Strategy) RelationalReader(td *metadata.TypeDescriptor, relType string, dir metadata.Direction) Resolution[Reader] {
	anyType := func(reflect.Type) bool { return true }

	if m, ok := firstMatch(td.RelationshipGettersFor(relType, dir, true), true, anyType, nil); ok {
		return resolved[Reader](newMethodReader(td, m))
	}
	if f, ok := firstMatch(td.RelationshipFieldsFor(relType, dir, true), true, anyType, nil); ok {
		return resolved[Reader](newFieldAccessor(td, f))
	}

	if dir != metadata.Incoming {
		getters := td.RelationshipGettersFor(relType, dir, false)
		fields := td.RelationshipFieldsFor(relType, dir, false)
		if m, ok := firstMatch(getters, true, anyType, nil); ok {
			return resolved[Reader](newMethodReader(td, m))
		}
		if f, ok := firstMatch(fields, true, anyType, nil); ok {
			return resolved[Reader](newFieldAccessor(td, f))
		}
		if m, ok := firstMatch(getters, false, anyType, nil); ok {
			return resolved[Reader](newMethodReader(td, m))
		}
		if f, ok := firstMatch(fields, false, anyType, nil); ok {
			return resolved[Reader](newFieldAccessor(td, f))
		}
	}
	return unresolved[Reader](None, nil, "%s has no %s reader for %s", td.SimpleName(), dir, relType)
}

// IterableWriter resolves the collection member whose element type is
// exactly elemType. Each step needs a single candidate with a compatible
// direction; several candidates are reported as ambiguous.
func (s *Strategy) IterableWriter(td *metadata.TypeDescriptor, elemType reflect.Type, relType string, dir metadata.Direction) Resolution[Writer] {
	var ambiguous []string

	if m, ok := pickUnique(td.IterableSettersFor(elemType, relType, dir, true), dir, &ambiguous); ok {
		return resolved[Writer](newMethodWriter(td, m))
	}
	if f, ok := pickUnique(td.IterableFieldsFor(elemType, relType, dir, true), dir, &ambiguous); ok {
		return resolved[Writer](newFieldAccessor(td, f))
	}

	if dir != metadata.Incoming {
		setters := td.IterableSettersFor(elemType, relType, dir, false)
		if len(setters) == 0 {
			setters = td.IterableSetters(elemType)
		}
		if m, ok := pickUnique(setters, dir, &ambiguous); ok {
			return resolved[Writer](newMethodWriter(td, m))
		}
		fields := td.IterableFieldsFor(elemType, relType, dir, false)
		if len(fields) == 0 {
			fields = td.IterableFields(elemType)
		}
		if f, ok := pickUnique(fields, dir, &ambiguous); ok {
			return resolved[Writer](newFieldAccessor(td, f))
		}
	}

	if len(ambiguous) > 0 {
		return unresolved[Writer](Ambiguous, ambiguous,
			"%s has several %s collections of %v for %s", td.SimpleName(), dir, elemType, relType)
	}
	return unresolved[Writer](None, nil, "%s has no %s collection of %v for %s", td.SimpleName(), dir, elemType, relType)
}

// IterableReader mirrors IterableWriter with getters
func (s *Strategy) IterableReader(td *metadata.TypeDescriptor, elemType reflect.Type, relType string, dir metadata.Direction) Resolution[Reader] {
	var ambiguous []string

	if m, ok := pickUnique(td.IterableGettersFor(elemType, relType, dir, true), dir, &ambiguous); ok {
		return resolved[Reader](newMethodReader(td, m))
	}
	if f, ok := pickUnique(td.IterableFieldsFor(elemType, relType, dir, true), dir, &ambiguous); ok {
		return resolved[Reader](newFieldAccessor(td, f))
	}

	if dir != metadata.Incoming {
		getters := td.IterableGettersFor(elemType, relType, dir, false)
		if len(getters) == 0 {
			getters = td.IterableGetters(elemType)
		}
		if m, ok := pickUnique(getters, dir, &ambiguous); ok {
			return resolved[Reader](newMethodReader(td, m))
		}
		fields := td.IterableFieldsFor(elemType, relType, dir, false)
		if len(fields) == 0 {
			fields = td.IterableFields(elemType)
		}
		if f, ok := pickUnique(fields, dir, &ambiguous); ok {
			return resolved[Reader](newFieldAccessor(td, f))
		}
	}

	if len(ambiguous) > 0 {
		return unresolved[Reader](Ambiguous, ambiguous,
			"%s has several %s collections of %v for %s", td.SimpleName(), dir, elemType, relType)
	}
	return unresolved[Reader](None, nil, "%s has no %s collection of %v for %s", td.SimpleName(), dir, elemType, relType)
}

// PropertyReaders returns one reader per property: the getter when it is
// annotated or the field is not, else the field. Getters without a backing
// exported field are included too.
func (s *Strategy) PropertyReaders(td *metadata.TypeDescriptor) []Reader {
	var readers []Reader
	covered := make(map[string]bool)
	for _, f := range td.PropertyFields() {
		name := f.PropertyName()
		covered[strings.ToLower(name)] = true
		getter := td.PropertyGetter(name)
		if getter != nil && (getter.Annotations().Has(metadata.AnnotationProperty) || f.Annotations().Empty()) {
			readers = append(readers, newMethodReader(td, getter))
			continue
		}
		readers = append(readers, newFieldAccessor(td, f))
	}
	for _, g := range td.PropertyGetters() {
		if key := strings.ToLower(g.PropertyName()); !covered[key] {
			covered[key] = true
			readers = append(readers, newMethodReader(td, g))
		}
	}
	return readers
}

// RelationalReaders returns one reader per relationship member, preferring
// a getter named after the field (GetX or X) when it is annotated or the
// field is not
func (s *Strategy) RelationalReaders(td *metadata.TypeDescriptor) []Reader {
	var readers []Reader
	covered := make(map[string]bool)
	for _, f := range td.RelationshipFields() {
		covered[f.Name()] = true
		getter := td.Method("Get"+f.Name(), metadata.Getter)
		if getter == nil {
			getter = td.Method(f.Name(), metadata.Getter)
		}
		if getter != nil && getter.IsRelationship() &&
			(getter.Annotations().Has(metadata.AnnotationRelationship) || !f.Annotations().Has(metadata.AnnotationRelationship)) {
			covered[getter.Name()] = true
			readers = append(readers, newMethodReader(td, getter))
			continue
		}
		readers = append(readers, newFieldAccessor(td, f))
	}
	for _, g := range td.RelationshipGetters() {
		if covered[g.Name()] || covered[strings.TrimPrefix(g.Name(), "Get")] {
			continue
		}
		readers = append(readers, newMethodReader(td, g))
	}
	return readers
}

// IdentityReader reads the identity field
func (s *Strategy) IdentityReader(td *metadata.TypeDescriptor) (Reader, error) {
	f, err := td.IdentityField()
	if err != nil {
		return nil, err
	}
	return newFieldAccessor(td, f), nil
}

// IdentityWriter writes the identity field
func (s *Strategy) IdentityWriter(td *metadata.TypeDescriptor) (Writer, error) {
	f, err := td.IdentityField()
	if err != nil {
		return nil, err
	}
	return newFieldAccessor(td, f), nil
}

// StartNodeReader reads the start node of a relationship entity
func (s *Strategy) StartNodeReader(td *metadata.TypeDescriptor) Resolution[Reader] {
	return s.endpointReader(td, metadata.AnnotationStartNode)
}

// EndNodeReader reads the end node of a relationship entity
func (s *Strategy) EndNodeReader(td *metadata.TypeDescriptor) Resolution[Reader] {
	return s.endpointReader(td, metadata.AnnotationEndNode)
}

func (s *Strategy) endpointReader(td *metadata.TypeDescriptor, kind string) Resolution[Reader] {
	if f := td.AnnotatedField(kind); f != nil {
		return resolved[Reader](newFieldAccessor(td, f))
	}
	return unresolved[Reader](None, nil, "%s has no %s field", td.SimpleName(), kind)
}

// RelationshipEntityWriter resolves the writer of a relationship entity's
// start or end node (kind is AnnotationStartNode or AnnotationEndNode),
// preferring a Set<Field> setter over the tagged field
func (s *Strategy) RelationshipEntityWriter(td *metadata.TypeDescriptor, kind string) Resolution[Writer] {
	f := td.AnnotatedField(kind)
	if f == nil {
		return unresolved[Writer](None, nil, "%s has no %s field", td.SimpleName(), kind)
	}
	if setter := td.Method("Set"+f.Name(), metadata.Setter); setter != nil {
		return resolved[Writer](newMethodWriter(td, setter))
	}
	return resolved[Writer](newFieldAccessor(td, f))
}

// accepts reports whether a member of type t can take a value of valueType
// directly or as a collection element
func accepts(t, valueType reflect.Type) bool {
	if t == nil || valueType == nil {
		return false
	}
	if valueType.AssignableTo(t) {
		return true
	}
	return metadata.IsCollectionType(t) && valueType.AssignableTo(t.Elem())
}

func firstMatch[M member](candidates []M, annotatedOnly bool, typeOK func(reflect.Type) bool, rejected *[]string) (M, bool) {
	var zero M
	for _, c := range candidates {
		if annotatedOnly && c.Annotations().Empty() {
			continue
		}
		if !typeOK(c.Type()) {
			if rejected != nil {
				*rejected = append(*rejected, c.Name())
			}
			continue
		}
		return c, true
	}
	return zero, false
}

func pickUnique[M member](candidates []M, dir metadata.Direction, ambiguous *[]string) (M, bool) {
	var zero M
	switch {
	case len(candidates) == 1:
		if dir.Accepts(candidates[0].RelationshipDirection()) {
			return candidates[0], true
		}
	case len(candidates) > 1:
		for _, c := range candidates {
			*ambiguous = append(*ambiguous, c.Name())
		}
	}
	return zero, false
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0]
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
