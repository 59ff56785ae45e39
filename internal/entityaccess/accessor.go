package entityaccess

import (
	"fmt"
	"reflect"

	"neo-ogm/internal/metadata"
)

// Reader reads a property or relationship value from an entity instance
type Reader interface {
	Read(instance any) any
	Type() reflect.Type
	PropertyName() string
	RelationshipType() string
	RelationshipDirection() metadata.Direction
	Name() string
}

// Writer writes a property or relationship value into an entity instance
type Writer interface {
	Write(instance, value any) error
	Type() reflect.Type
	PropertyName() string
	RelationshipType() string
	RelationshipDirection() metadata.Direction
	// IsScalar is false when the member holds a collection
	IsScalar() bool
	Name() string
}

// Accessor both reads and writes; fields are accessors, methods are either
// a Reader (getter) or a Writer (setter)
type Accessor interface {
	Reader
	Writer
}

// member is satisfied by *metadata.FieldDescriptor and *metadata.MethodDescriptor
type member interface {
	Name() string
	Type() reflect.Type
	Annotations() metadata.Annotations
	PropertyName() string
	RelationshipType() string
	RelationshipDirection() metadata.Direction
	IsCollection() bool
}

type boundMember struct {
	owner string
	m     member
}

func (b boundMember) Type() reflect.Type { return b.m.Type() }

func (b boundMember) PropertyName() string { return b.m.PropertyName() }

func (b boundMember) RelationshipType() string { return b.m.RelationshipType() }

func (b boundMember) RelationshipDirection() metadata.Direction { return b.m.RelationshipDirection() }

func (b boundMember) IsScalar() bool { return !b.m.IsCollection() }

// Name identifies the member for diagnostics, e.g. Person.MovieRatings
func (b boundMember) Name() string { return b.owner + "." + b.m.Name() }

// FieldAccessor reads and writes an exported struct field, promoted fields included
type FieldAccessor struct {
	boundMember
}

func newFieldAccessor(td *metadata.TypeDescriptor, f *metadata.FieldDescriptor) *FieldAccessor {
	return &FieldAccessor{boundMember{owner: td.SimpleName(), m: f}}
}

func (a *FieldAccessor) Read(instance any) any {
	fv, err := fieldValue(instance, a.m.Name())
	if err != nil {
		return nil
	}
	return interfaceOf(fv)
}

func (a *FieldAccessor) Write(instance, value any) error {
	fv, err := fieldValue(instance, a.m.Name())
	if err != nil {
		return err
	}
	if !fv.CanSet() {
		return fmt.Errorf("field %s is not settable", a.Name())
	}
	cv, err := Convert(value, fv.Type())
	if err != nil {
		return fmt.Errorf("write %s: %w", a.Name(), err)
	}
	fv.Set(cv)
	return nil
}

// MethodWriter calls a setter
type MethodWriter struct {
	boundMember
}

func newMethodWriter(td *metadata.TypeDescriptor, m *metadata.MethodDescriptor) *MethodWriter {
	return &MethodWriter{boundMember{owner: td.SimpleName(), m: m}}
}

func (w *MethodWriter) Write(instance, value any) error {
	mv, err := methodValue(instance, w.m.Name())
	if err != nil {
		return err
	}
	cv, err := Convert(value, w.m.Type())
	if err != nil {
		return fmt.Errorf("write %s: %w", w.Name(), err)
	}
	mv.Call([]reflect.Value{cv})
	return nil
}

// MethodReader calls a getter
type MethodReader struct {
	boundMember
}

func newMethodReader(td *metadata.TypeDescriptor, m *metadata.MethodDescriptor) *MethodReader {
	return &MethodReader{boundMember{owner: td.SimpleName(), m: m}}
}

func (r *MethodReader) Read(instance any) any {
	mv, err := methodValue(instance, r.m.Name())
	if err != nil {
		return nil
	}
	return interfaceOf(mv.Call(nil)[0])
}

func fieldValue(instance any, name string) (reflect.Value, error) {
	v := reflect.ValueOf(instance)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("expected a non-nil pointer to a struct, got %T", instance)
	}
	fv := v.Elem().FieldByName(name)
	if !fv.IsValid() {
		return reflect.Value{}, fmt.Errorf("%T has no field %s", instance, name)
	}
	return fv, nil
}

func methodValue(instance any, name string) (reflect.Value, error) {
	v := reflect.ValueOf(instance)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return reflect.Value{}, fmt.Errorf("expected a non-nil pointer, got %T", instance)
	}
	mv := v.MethodByName(name)
	if !mv.IsValid() {
		return reflect.Value{}, fmt.Errorf("%T has no method %s", instance, name)
	}
	return mv, nil
}

// interfaceOf returns nil rather than a typed nil
func interfaceOf(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface, reflect.Func, reflect.Chan:
		if v.IsNil() {
			return nil
		}
	}
	return v.Interface()
}
