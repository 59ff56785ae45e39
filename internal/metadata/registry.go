package metadata

import (
	"reflect"
	"sort"
	"sync"

	"go.uber.org/zap"

	apperrors "neo-ogm/pkg/errors"
	"neo-ogm/pkg/logger"
)

// Registry holds the descriptor of every registered type and the
// superclass/interface lattice between them. Registration is expected to
// finish before mapping starts; lookups are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	types    map[string]*TypeDescriptor
	byGoType map[reflect.Type]*TypeDescriptor
	order    []*TypeDescriptor
	logger   *zap.Logger
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		types:    make(map[string]*TypeDescriptor),
		byGoType: make(map[reflect.Type]*TypeDescriptor),
		logger:   logger.Named("metadata"),
	}
}

// Scan registers the types of the given values, e.g. Scan(Person{}, &Movie{})
func (r *Registry) Scan(values ...any) error {
	for _, v := range values {
		t := reflect.TypeOf(v)
		if t == nil {
			return apperrors.NewConfiguration("<nil>", "cannot scan a nil value")
		}
		td, err := ScanType(t)
		if err != nil {
			return err
		}
		if _, err := r.Register(td); err != nil {
			return err
		}
	}
	return nil
}

// ScanInterface registers an interface type, e.g. ScanInterface((*Pet)(nil), "label=Pet")
func (r *Registry) ScanInterface(ptr any, tag string) error {
	td, err := ScanInterface(ptr, tag)
	if err != nil {
		return err
	}
	_, err = r.Register(td)
	return err
}

// Register adds a scanned descriptor. If the name is only known as a stub
// the stub is hydrated in place. Registering the same Go type twice is a
// no-op that returns the existing descriptor.
func (r *Registry) Register(scanned *TypeDescriptor) (*TypeDescriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	td, exists := r.types[scanned.name]
	switch {
	case exists && td.hydrated:
		if td.goType == scanned.goType {
			return td, nil
		}
		return nil, apperrors.NewConfiguration(scanned.name, "a different type is already registered under this name")
	case exists:
		td.hydrate(scanned)
	default:
		td = scanned
		td.hydrated = true
		r.types[td.name] = td
	}
	r.order = append(r.order, td)
	if td.goType != nil {
		r.byGoType[td.goType] = td
	}

	if td.superclassName != "" {
		if err := td.setSuperclass(r.lookupOrStub(td.superclassName)); err != nil {
			return nil, err
		}
	}
	for _, name := range td.interfaceNames {
		td.addInterface(r.lookupOrStub(name))
	}
	r.linkImplicitInterfaces(td)

	r.logger.Debug("Registered type",
		zap.String("type", td.name),
		zap.String("superclass", td.superclassName),
		zap.Int("fields", len(td.fields)),
		zap.Int("methods", len(td.methods)),
	)
	return td, nil
}

func (r *Registry) lookupOrStub(name string) *TypeDescriptor {
	if td, ok := r.types[name]; ok {
		return td
	}
	stub := newStub(name)
	r.types[name] = stub
	return stub
}

// linkImplicitInterfaces links structs to registered interfaces their
// pointer type satisfies, whichever side was registered first
func (r *Registry) linkImplicitInterfaces(td *TypeDescriptor) {
	if td.goType == nil {
		return
	}
	for _, other := range r.order {
		if other == td || other.goType == nil {
			continue
		}
		switch {
		case td.isInterface && other.goType.Kind() == reflect.Struct:
			if reflect.PointerTo(other.goType).Implements(td.goType) {
				other.addInterface(td)
			}
		case other.isInterface && td.goType.Kind() == reflect.Struct:
			if reflect.PointerTo(td.goType).Implements(other.goType) {
				td.addInterface(other)
			}
		}
	}
}

// Describe returns the descriptor registered under the qualified name, or
// under the simple name when that is unambiguous
func (r *Registry) Describe(typeName string) (*TypeDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if td, ok := r.types[typeName]; ok && td.hydrated {
		return td, nil
	}
	var match *TypeDescriptor
	for _, td := range r.order {
		if td.simpleName != typeName {
			continue
		}
		if match != nil {
			return nil, apperrors.NewTypeNotFound(typeName)
		}
		match = td
	}
	if match == nil {
		return nil, apperrors.NewTypeNotFound(typeName)
	}
	return match, nil
}

// DescriptorFor returns the descriptor of a Go type; pointers are dereferenced
func (r *Registry) DescriptorFor(t reflect.Type) (*TypeDescriptor, error) {
	if t == nil {
		return nil, apperrors.NewTypeNotFound("<nil>")
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if td, ok := r.byGoType[t]; ok {
		return td, nil
	}
	return nil, apperrors.NewTypeNotFound(QualifiedName(t))
}

// DescriptorOf returns the descriptor of an instance's type
func (r *Registry) DescriptorOf(instance any) (*TypeDescriptor, error) {
	return r.DescriptorFor(reflect.TypeOf(instance))
}

// IsA reports whether values of t are instances of ancestor in the
// registered hierarchy: both are registered and ancestor is t itself, on its
// superclass chain, or among the interfaces of t or of that chain
func (r *Registry) IsA(t, ancestor reflect.Type) bool {
	td, err := r.DescriptorFor(t)
	if err != nil {
		return false
	}
	want, err := r.DescriptorFor(ancestor)
	if err != nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return extends(td, want, make(map[*TypeDescriptor]bool))
}

func extends(td, ancestor *TypeDescriptor, visited map[*TypeDescriptor]bool) bool {
	if td == nil || visited[td] {
		return false
	}
	if td == ancestor {
		return true
	}
	visited[td] = true
	if extends(td.superclass, ancestor, visited) {
		return true
	}
	for _, iface := range td.interfaces {
		if extends(iface, ancestor, visited) {
			return true
		}
	}
	return false
}

// Types returns every registered type in registration order
func (r *Registry) Types() []*TypeDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*TypeDescriptor, len(r.order))
	copy(out, r.order)
	return out
}

// Unhydrated returns, sorted, the names referenced as superclass or
// interface but never registered
func (r *Registry) Unhydrated() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for name, td := range r.types {
		if !td.hydrated {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Labels collects the labels of a type: its own, then those of its
// superclass chain, then those of its interfaces, without duplicates
func (r *Registry) Labels(td *TypeDescriptor) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var labels []string
	seen := make(map[string]bool)
	visited := make(map[*TypeDescriptor]bool)
	collectLabels(td, &labels, seen, visited)
	return labels
}

func collectLabels(td *TypeDescriptor, labels *[]string, seen map[string]bool, visited map[*TypeDescriptor]bool) {
	if td == nil || visited[td] {
		return
	}
	visited[td] = true
	if td.contributesLabel() {
		if label := td.GraphName(); !seen[label] {
			seen[label] = true
			*labels = append(*labels, label)
		}
	}
	collectLabels(td.superclass, labels, seen, visited)
	for _, iface := range td.interfaces {
		collectLabels(iface, labels, seen, visited)
	}
}

// ResolveLabels finds the concrete node type whose own label is among the
// given labels and whose label set overlaps them the most. Ties go to the
// type registered first.
func (r *Registry) ResolveLabels(labels []string) (*TypeDescriptor, error) {
	given := make(map[string]bool, len(labels))
	for _, l := range labels {
		given[l] = true
	}

	var best *TypeDescriptor
	bestScore := 0
	for _, td := range r.Types() {
		if !td.hydrated || td.isAbstract || td.isInterface || td.isEnum ||
			td.IsRelationshipEntity() || td.goType == nil || td.goType.Kind() != reflect.Struct {
			continue
		}
		if !given[td.GraphName()] {
			continue
		}
		score := 0
		for _, l := range r.Labels(td) {
			if given[l] {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = td, score
		}
	}
	if best == nil {
		return nil, apperrors.NewNoMatchingTypeForLabels(labels)
	}
	return best, nil
}

// Resolve finds the relationship entity mapped to an edge type, nil if none
func (r *Registry) Resolve(relType string) *TypeDescriptor {
	for _, td := range r.Types() {
		if td.hydrated && td.IsRelationshipEntity() && td.RelationshipEntityType() == relType {
			return td
		}
	}
	return nil
}

// Subclasses returns the direct subclasses of the named type
func (r *Registry) Subclasses(typeName string) ([]*TypeDescriptor, error) {
	td, err := r.Describe(typeName)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*TypeDescriptor(nil), td.subclasses...), nil
}

// Implementors returns the types linked to the named interface
func (r *Registry) Implementors(typeName string) ([]*TypeDescriptor, error) {
	td, err := r.Describe(typeName)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*TypeDescriptor(nil), td.implementors...), nil
}
