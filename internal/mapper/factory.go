package mapper

import (
	"fmt"
	"reflect"

	"neo-ogm/internal/graph"
	"neo-ogm/internal/metadata"
	apperrors "neo-ogm/pkg/errors"
)

// EntityFactory constructs empty instances for graph elements
type EntityFactory interface {
	// NewNodeEntity returns ErrNoMatchingType when no type matches the labels
	NewNodeEntity(node graph.Node) (any, error)
	// NewRelationshipEntity returns ErrNoMatchingType when no relationship
	// entity is registered for the edge type
	NewRelationshipEntity(rel graph.Relationship) (any, error)
}

// RegistryFactory allocates zero-valued structs of registered types
type RegistryFactory struct {
	registry *metadata.Registry
}

// NewRegistryFactory creates a factory backed by registry
func NewRegistryFactory(registry *metadata.Registry) *RegistryFactory {
	return &RegistryFactory{registry: registry}
}

func (f *RegistryFactory) NewNodeEntity(node graph.Node) (any, error) {
	td, err := f.registry.ResolveLabels(node.Labels)
	if err != nil {
		return nil, err
	}
	return newInstance(td)
}

func (f *RegistryFactory) NewRelationshipEntity(rel graph.Relationship) (any, error) {
	td := f.registry.Resolve(rel.Type)
	if td == nil {
		return nil, apperrors.NewNoMatchingTypeForRelationship(rel.Type)
	}
	return newInstance(td)
}

func newInstance(td *metadata.TypeDescriptor) (any, error) {
	t := td.GoType()
	if t == nil || t.Kind() != reflect.Struct {
		return nil, apperrors.NewConfiguration(td.Name(), fmt.Sprintf("cannot instantiate %v", t))
	}
	return reflect.New(t).Interface(), nil
}
