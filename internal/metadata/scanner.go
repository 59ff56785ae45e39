package metadata

import (
	"fmt"
	"reflect"
	"strings"

	"neo-ogm/internal/constants"
	apperrors "neo-ogm/pkg/errors"
)

// MethodTagger supplies annotations for accessor methods, keyed by method
// name, since Go methods cannot carry struct tags.
type MethodTagger interface {
	MethodTags() map[string]string
}

var (
	nodeEntityType         = reflect.TypeOf(NodeEntity{})
	relationshipEntityType = reflect.TypeOf(RelationshipEntity{})
	methodTaggerType       = reflect.TypeOf((*MethodTagger)(nil)).Elem()
)

// QualifiedName is the registry key for a Go type
func QualifiedName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// ScanType reads the mapping metadata of a struct type (or a named simple
// type, which is recorded as an enum).
func ScanType(t reflect.Type) (*TypeDescriptor, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() == "" {
		return nil, apperrors.NewConfiguration(t.String(), "anonymous types cannot be registered")
	}

	name := QualifiedName(t)
	td := &TypeDescriptor{
		name:        name,
		simpleName:  t.Name(),
		goType:      t,
		annotations: Annotations{},
		hydrated:    true,
	}

	if t.Kind() != reflect.Struct {
		if !isSimpleType(t) {
			return nil, apperrors.NewConfiguration(name, "only structs and named simple types can be registered")
		}
		td.isEnum = true
		return td, nil
	}

	if err := scanFields(td, t); err != nil {
		return nil, err
	}
	if err := scanMethods(td, t); err != nil {
		return nil, err
	}
	return td, nil
}

// ScanInterface reads an interface type given as a nil pointer, e.g.
// ScanInterface((*Pet)(nil), "label=Pet")
func ScanInterface(ptr any, tag string) (*TypeDescriptor, error) {
	t := reflect.TypeOf(ptr)
	if t == nil || t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Interface {
		return nil, apperrors.NewConfiguration(fmt.Sprintf("%T", ptr), "expected a nil pointer to an interface")
	}
	t = t.Elem()
	node, err := parseClassTag(AnnotationNodeEntity, tag)
	if err != nil {
		return nil, apperrors.NewConfiguration(QualifiedName(t), err.Error())
	}
	return &TypeDescriptor{
		name:        QualifiedName(t),
		simpleName:  t.Name(),
		goType:      t,
		isInterface: true,
		isAbstract:  true,
		annotations: Annotations{AnnotationNodeEntity: node},
		hydrated:    true,
	}, nil
}

func scanFields(td *TypeDescriptor, t reflect.Type) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get(constants.TagKey)

		if sf.Anonymous {
			if err := scanEmbedded(td, sf, tag); err != nil {
				return err
			}
			continue
		}
		if !sf.IsExported() || tag == AnnotationTransient {
			continue
		}

		annotations, err := parseMemberTag(tag)
		if err != nil {
			return apperrors.NewConfiguration(td.name, fmt.Sprintf("field %s: %v", sf.Name, err))
		}
		td.fields = append(td.fields, &FieldDescriptor{member: member{
			name:          sf.Name,
			typ:           sf.Type,
			annotations:   annotations,
			declaringType: td.name,
			baseName:      sf.Name,
		}})
	}
	return nil
}

func scanEmbedded(td *TypeDescriptor, sf reflect.StructField, tag string) error {
	switch sf.Type {
	case nodeEntityType:
		node, err := parseClassTag(AnnotationNodeEntity, tag)
		if err != nil {
			return apperrors.NewConfiguration(td.name, err.Error())
		}
		td.annotations[AnnotationNodeEntity] = node
		td.isAbstract = node.Has(AttrAbstract)
		td.interfaceNames = append(td.interfaceNames, qualifyNames(td.goType.PkgPath(), node.Get(AttrImplements, ""))...)
		return nil
	case relationshipEntityType:
		rel, err := parseClassTag(AnnotationRelationshipEntity, tag)
		if err != nil {
			return apperrors.NewConfiguration(td.name, err.Error())
		}
		td.annotations[AnnotationRelationshipEntity] = rel
		return nil
	}

	// only a value-embedded named struct is a superclass
	if sf.Type.Kind() != reflect.Struct || isSimpleType(sf.Type) || sf.Type.Name() == "" {
		return nil
	}
	super := QualifiedName(sf.Type)
	if td.superclassName != "" && td.superclassName != super {
		return apperrors.NewConfiguration(td.name,
			fmt.Sprintf("has two superclasses: %s, %s", td.superclassName, super))
	}
	td.superclassName = super
	return nil
}

func scanMethods(td *TypeDescriptor, t reflect.Type) error {
	pt := reflect.PointerTo(t)

	tags := map[string]string{}
	if pt.Implements(methodTaggerType) {
		tags = reflect.New(t).Interface().(MethodTagger).MethodTags()
	}

	known := make(map[string]bool)
	for i := 0; i < pt.NumMethod(); i++ {
		m := pt.Method(i)
		known[m.Name] = true
		if m.Name == "MethodTags" {
			continue
		}
		// m.Type includes the receiver as its first parameter
		mt := m.Type

		var md *MethodDescriptor
		switch {
		case strings.HasPrefix(m.Name, "Set") && len(m.Name) > 3 && mt.NumIn() == 2 && mt.NumOut() == 0:
			md = &MethodDescriptor{Kind: Setter, member: member{typ: mt.In(1), baseName: m.Name[3:]}}
		case mt.NumIn() == 1 && mt.NumOut() == 1:
			base := ""
			if strings.HasPrefix(m.Name, "Get") && len(m.Name) > 3 {
				base = m.Name[3:]
			} else if _, tagged := tags[m.Name]; tagged {
				base = m.Name
			} else if _, ok := pt.MethodByName("Set" + m.Name); ok {
				base = m.Name
			}
			if base == "" {
				continue
			}
			md = &MethodDescriptor{Kind: Getter, member: member{typ: mt.Out(0), baseName: base}}
		default:
			continue
		}

		annotations, err := parseMemberTag(tags[m.Name])
		if err != nil {
			return apperrors.NewConfiguration(td.name, fmt.Sprintf("method %s: %v", m.Name, err))
		}
		md.name = m.Name
		md.annotations = annotations
		md.declaringType = td.name
		td.methods = append(td.methods, md)
	}

	for name := range tags {
		if !known[name] {
			return apperrors.NewConfiguration(td.name, fmt.Sprintf("method tag for unknown method %s", name))
		}
	}
	return nil
}

// qualifyNames splits an implements list and qualifies bare names with the
// declaring package path
func qualifyNames(pkgPath, list string) []string {
	if list == "" {
		return nil
	}
	var names []string
	for _, n := range strings.Split(list, "|") {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if !strings.ContainsAny(n, "./") && pkgPath != "" {
			n = pkgPath + "." + n
		}
		names = append(names, n)
	}
	return names
}
