package metadata

import (
	"reflect"
	"strings"

	apperrors "neo-ogm/pkg/errors"
)

// NodeEntity is embedded in a struct to configure its node mapping through
// the field tag, e.g. `ogm:"label=Movie"`, `ogm:"abstract"` or
// `ogm:"label=Dog,implements=Pet|Named"`.
type NodeEntity struct{}

// RelationshipEntity is embedded in a struct that represents a graph edge
// carrying properties, e.g. `ogm:"type=RATED"`.
type RelationshipEntity struct{}

// TypeDescriptor is the mapping metadata of one registered type. A
// descriptor created only because another type referenced its name is a
// stub until the type itself is registered.
type TypeDescriptor struct {
	name           string
	simpleName     string
	superclassName string
	interfaceNames []string
	isAbstract     bool
	isInterface    bool
	isEnum         bool
	goType         reflect.Type
	annotations    Annotations
	fields         []*FieldDescriptor
	methods        []*MethodDescriptor
	hydrated       bool

	superclass   *TypeDescriptor
	subclasses   []*TypeDescriptor
	interfaces   []*TypeDescriptor
	implementors []*TypeDescriptor
}

func newStub(name string) *TypeDescriptor {
	return &TypeDescriptor{
		name:        name,
		simpleName:  simpleNameOf(name),
		annotations: Annotations{},
	}
}

// Name is the package-qualified type name
func (td *TypeDescriptor) Name() string { return td.name }

func (td *TypeDescriptor) SimpleName() string { return td.simpleName }

func (td *TypeDescriptor) SuperclassName() string { return td.superclassName }

func (td *TypeDescriptor) InterfaceNames() []string { return td.interfaceNames }

func (td *TypeDescriptor) IsAbstract() bool { return td.isAbstract }

func (td *TypeDescriptor) IsInterface() bool { return td.isInterface }

func (td *TypeDescriptor) IsEnum() bool { return td.isEnum }

// GoType is the struct (or interface) type; nil for stubs
func (td *TypeDescriptor) GoType() reflect.Type { return td.goType }

func (td *TypeDescriptor) Annotations() Annotations { return td.annotations }

// Hydrated is false for stubs
func (td *TypeDescriptor) Hydrated() bool { return td.hydrated }

func (td *TypeDescriptor) Superclass() *TypeDescriptor { return td.superclass }

func (td *TypeDescriptor) Subclasses() []*TypeDescriptor { return td.subclasses }

func (td *TypeDescriptor) Interfaces() []*TypeDescriptor { return td.interfaces }

func (td *TypeDescriptor) Implementors() []*TypeDescriptor { return td.implementors }

// DeclaredFields are the fields declared by the type itself
func (td *TypeDescriptor) DeclaredFields() []*FieldDescriptor { return td.fields }

// Fields are the declared fields followed by those inherited through the
// superclass chain; a field shadows inherited fields of the same name.
func (td *TypeDescriptor) Fields() []*FieldDescriptor {
	seen := make(map[string]bool)
	var out []*FieldDescriptor
	for t := td; t != nil; t = t.superclass {
		for _, f := range t.fields {
			if seen[f.name] {
				continue
			}
			seen[f.name] = true
			out = append(out, f)
		}
	}
	return out
}

// Methods are the getters and setters of the pointer method set,
// promoted ones included
func (td *TypeDescriptor) Methods() []*MethodDescriptor { return td.methods }

// IsRelationshipEntity reports whether the type maps a graph edge
func (td *TypeDescriptor) IsRelationshipEntity() bool {
	return td.annotations.Has(AnnotationRelationshipEntity)
}

// RelationshipEntityType is the edge type of a relationship entity: the
// annotated type, else the upper-cased simple name
func (td *TypeDescriptor) RelationshipEntityType() string {
	return td.annotations.Get(AnnotationRelationshipEntity).Get(AttrType, strings.ToUpper(td.simpleName))
}

// GraphName is the node label or, for a relationship entity, the edge type
func (td *TypeDescriptor) GraphName() string {
	if node := td.annotations.Get(AnnotationNodeEntity); node != nil {
		return node.Get(AttrLabel, td.simpleName)
	}
	if td.IsRelationshipEntity() {
		return td.RelationshipEntityType()
	}
	return td.simpleName
}

// contributesLabel reports whether the type adds its own label to the label
// set of itself and its subclasses. Abstract types and interfaces only do so
// with an explicit label=, even when they carry the NodeEntity marker.
func (td *TypeDescriptor) contributesLabel() bool {
	if !td.hydrated || td.isEnum || td.IsRelationshipEntity() {
		return false
	}
	if td.isAbstract || td.isInterface {
		return td.annotations.Get(AnnotationNodeEntity).Get(AttrLabel, "") != ""
	}
	return true
}

// IdentityField returns the field tagged `ogm:"id"`, else a field named ID,
// either of type *int64
func (td *TypeDescriptor) IdentityField() (*FieldDescriptor, error) {
	fields := td.Fields()
	for _, f := range fields {
		if f.annotations.Has(AnnotationGraphID) && f.typ == int64PtrType {
			return f, nil
		}
	}
	for _, f := range fields {
		if strings.EqualFold(f.name, "id") && f.typ == int64PtrType {
			return f, nil
		}
	}
	return nil, apperrors.NewMissingIdentity(td.name)
}

// IdentityGetter returns GetID/ID (or a getter tagged id) over *int64
func (td *TypeDescriptor) IdentityGetter() *MethodDescriptor {
	return td.identityMethod(Getter)
}

// IdentitySetter returns SetID (or a setter tagged id) over *int64
func (td *TypeDescriptor) IdentitySetter() *MethodDescriptor {
	return td.identityMethod(Setter)
}

func (td *TypeDescriptor) identityMethod(kind MethodKind) *MethodDescriptor {
	idName := "id"
	if f, err := td.IdentityField(); err == nil {
		idName = f.name
	}
	for _, m := range td.methods {
		if m.Kind != kind || m.typ != int64PtrType {
			continue
		}
		if m.annotations.Has(AnnotationGraphID) ||
			strings.EqualFold(m.baseName, "id") || strings.EqualFold(m.baseName, idName) {
			return m
		}
	}
	return nil
}

func (td *TypeDescriptor) isIdentityField(f *FieldDescriptor) bool {
	id, err := td.IdentityField()
	return err == nil && id == f
}

func (td *TypeDescriptor) isIdentityMethod(m *MethodDescriptor) bool {
	return m == td.IdentityGetter() || m == td.IdentitySetter()
}

// PropertyFields are the fields mapped to graph properties
func (td *TypeDescriptor) PropertyFields() []*FieldDescriptor {
	return td.filterFields(func(f *FieldDescriptor) bool { return f.IsProperty() })
}

// RelationshipFields are the fields mapped to relationships
func (td *TypeDescriptor) RelationshipFields() []*FieldDescriptor {
	return td.filterFields(func(f *FieldDescriptor) bool { return f.IsRelationship() })
}

func (td *TypeDescriptor) PropertyGetters() []*MethodDescriptor {
	return td.filterMethods(Getter, func(m *MethodDescriptor) bool { return m.IsProperty() })
}

func (td *TypeDescriptor) PropertySetters() []*MethodDescriptor {
	return td.filterMethods(Setter, func(m *MethodDescriptor) bool { return m.IsProperty() })
}

func (td *TypeDescriptor) RelationshipGetters() []*MethodDescriptor {
	return td.filterMethods(Getter, func(m *MethodDescriptor) bool { return m.IsRelationship() })
}

func (td *TypeDescriptor) RelationshipSetters() []*MethodDescriptor {
	return td.filterMethods(Setter, func(m *MethodDescriptor) bool { return m.IsRelationship() })
}

// PropertyField finds a property field by property name, ignoring case
func (td *TypeDescriptor) PropertyField(name string) *FieldDescriptor {
	for _, f := range td.PropertyFields() {
		if strings.EqualFold(f.PropertyName(), name) {
			return f
		}
	}
	return nil
}

func (td *TypeDescriptor) PropertyGetter(name string) *MethodDescriptor {
	return findMethod(td.PropertyGetters(), func(m *MethodDescriptor) bool {
		return strings.EqualFold(m.PropertyName(), name)
	})
}

func (td *TypeDescriptor) PropertySetter(name string) *MethodDescriptor {
	return findMethod(td.PropertySetters(), func(m *MethodDescriptor) bool {
		return strings.EqualFold(m.PropertyName(), name)
	})
}

// RelationshipFieldsFor returns, in declaration order, the relationship
// fields whose type matches relType and whose direction serves dir. Strict
// matching only considers annotated types; otherwise inferred types count.
func (td *TypeDescriptor) RelationshipFieldsFor(relType string, dir Direction, strict bool) []*FieldDescriptor {
	return td.filterFields(func(f *FieldDescriptor) bool {
		return f.IsRelationship() && f.matchesRelationship(relType, dir, strict)
	})
}

func (td *TypeDescriptor) RelationshipGettersFor(relType string, dir Direction, strict bool) []*MethodDescriptor {
	return td.filterMethods(Getter, func(m *MethodDescriptor) bool {
		return m.IsRelationship() && m.matchesRelationship(relType, dir, strict)
	})
}

func (td *TypeDescriptor) RelationshipSettersFor(relType string, dir Direction, strict bool) []*MethodDescriptor {
	return td.filterMethods(Setter, func(m *MethodDescriptor) bool {
		return m.IsRelationship() && m.matchesRelationship(relType, dir, strict)
	})
}

// FieldsOfType are the fields whose declared type is exactly t
func (td *TypeDescriptor) FieldsOfType(t reflect.Type) []*FieldDescriptor {
	return td.filterFields(func(f *FieldDescriptor) bool { return f.typ == t })
}

// SettersOfType are the setters whose parameter type is exactly t
func (td *TypeDescriptor) SettersOfType(t reflect.Type) []*MethodDescriptor {
	return td.filterMethods(Setter, func(m *MethodDescriptor) bool { return m.typ == t })
}

// IterableFields are the collection fields whose element type is exactly elem
func (td *TypeDescriptor) IterableFields(elem reflect.Type) []*FieldDescriptor {
	return td.filterFields(func(f *FieldDescriptor) bool { return f.ElementType() == elem })
}

func (td *TypeDescriptor) IterableGetters(elem reflect.Type) []*MethodDescriptor {
	return td.filterMethods(Getter, func(m *MethodDescriptor) bool { return m.ElementType() == elem })
}

func (td *TypeDescriptor) IterableSetters(elem reflect.Type) []*MethodDescriptor {
	return td.filterMethods(Setter, func(m *MethodDescriptor) bool { return m.ElementType() == elem })
}

// IterableFieldsFor narrows IterableFields to a relationship type and direction
func (td *TypeDescriptor) IterableFieldsFor(elem reflect.Type, relType string, dir Direction, strict bool) []*FieldDescriptor {
	return td.filterFields(func(f *FieldDescriptor) bool {
		return f.ElementType() == elem && f.matchesRelationship(relType, dir, strict)
	})
}

func (td *TypeDescriptor) IterableGettersFor(elem reflect.Type, relType string, dir Direction, strict bool) []*MethodDescriptor {
	return td.filterMethods(Getter, func(m *MethodDescriptor) bool {
		return m.ElementType() == elem && m.matchesRelationship(relType, dir, strict)
	})
}

func (td *TypeDescriptor) IterableSettersFor(elem reflect.Type, relType string, dir Direction, strict bool) []*MethodDescriptor {
	return td.filterMethods(Setter, func(m *MethodDescriptor) bool {
		return m.ElementType() == elem && m.matchesRelationship(relType, dir, strict)
	})
}

// AnnotatedField returns the first field carrying the annotation kind
func (td *TypeDescriptor) AnnotatedField(kind string) *FieldDescriptor {
	for _, f := range td.Fields() {
		if f.annotations.Has(kind) {
			return f
		}
	}
	return nil
}

// Method returns the getter or setter with the exact Go name
func (td *TypeDescriptor) Method(name string, kind MethodKind) *MethodDescriptor {
	return findMethod(td.methods, func(m *MethodDescriptor) bool {
		return m.Kind == kind && m.name == name
	})
}

func (td *TypeDescriptor) filterFields(keep func(*FieldDescriptor) bool) []*FieldDescriptor {
	var out []*FieldDescriptor
	for _, f := range td.Fields() {
		if keep(f) && !td.isIdentityField(f) {
			out = append(out, f)
		}
	}
	return out
}

func (td *TypeDescriptor) filterMethods(kind MethodKind, keep func(*MethodDescriptor) bool) []*MethodDescriptor {
	var out []*MethodDescriptor
	for _, m := range td.methods {
		if m.Kind == kind && keep(m) && !td.isIdentityMethod(m) {
			out = append(out, m)
		}
	}
	return out
}

func findMethod(methods []*MethodDescriptor, match func(*MethodDescriptor) bool) *MethodDescriptor {
	for _, m := range methods {
		if match(m) {
			return m
		}
	}
	return nil
}

// hydrate fills a stub in place with the scanned descriptor so that links
// already pointing at the stub stay valid
func (td *TypeDescriptor) hydrate(scanned *TypeDescriptor) {
	td.simpleName = scanned.simpleName
	td.superclassName = scanned.superclassName
	td.interfaceNames = append(td.interfaceNames, scanned.interfaceNames...)
	td.isAbstract = scanned.isAbstract
	td.isInterface = scanned.isInterface
	td.isEnum = scanned.isEnum
	td.goType = scanned.goType
	for kind, a := range scanned.annotations {
		td.annotations[kind] = a
	}
	td.fields = scanned.fields
	td.methods = scanned.methods
	td.hydrated = true
}

func (td *TypeDescriptor) setSuperclass(super *TypeDescriptor) error {
	if td.superclass != nil && td.superclass != super {
		return apperrors.NewConfiguration(td.name,
			"has two superclasses: "+td.superclass.name+", "+super.name)
	}
	if td.superclass == super {
		return nil
	}
	td.superclass = super
	super.subclasses = append(super.subclasses, td)
	return nil
}

func (td *TypeDescriptor) addInterface(iface *TypeDescriptor) {
	for _, existing := range td.interfaces {
		if existing == iface {
			return
		}
	}
	td.interfaces = append(td.interfaces, iface)
	iface.implementors = append(iface.implementors, td)
}

func simpleNameOf(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
