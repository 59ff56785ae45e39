package mapper

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"neo-ogm/internal/entityaccess"
	"neo-ogm/internal/graph"
	"neo-ogm/internal/metadata"
	apperrors "neo-ogm/pkg/errors"
	"neo-ogm/pkg/logger"
)

// Mapper hydrates graph models into registered entity types
type Mapper struct {
	registry *metadata.Registry
	strategy *entityaccess.Strategy
	factory  EntityFactory
	logger   *zap.Logger
}

// Option configures a Mapper
type Option func(*Mapper)

// WithLogger sets the logger used for mapping diagnostics
func WithLogger(l *zap.Logger) Option {
	return func(m *Mapper) { m.logger = l }
}

// WithEntityFactory replaces the registry-backed factory
func WithEntityFactory(f EntityFactory) Option {
	return func(m *Mapper) { m.factory = f }
}

// WithStrategy replaces the accessor resolution strategy
func WithStrategy(s *entityaccess.Strategy) Option {
	return func(m *Mapper) { m.strategy = s }
}

// New creates a mapper over registry
func New(registry *metadata.Registry, opts ...Option) *Mapper {
	m := &Mapper{
		registry: registry,
		strategy: entityaccess.NewStrategy(),
		factory:  NewRegistryFactory(registry),
		logger:   logger.Named("mapper"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Registry returns the metadata registry the mapper resolves types with
func (m *Mapper) Registry() *metadata.Registry { return m.registry }

// Map hydrates model into mc and returns, in encounter order and without
// duplicates, the instances of the nodes in model that are a target. When
// there are none it returns the relationship entities of model that are a
// target instead. Struct targets match pointers to the struct, and a
// registered type matches the instances of its registered subclasses and
// implementors.
//
// Nodes without a registered type are skipped. Any other failure aborts the
// pass with an ErrMapping naming target.
func (m *Mapper) Map(target reflect.Type, model *graph.GraphModel, mc *MappingContext) (results []any, err error) {
	if target == nil {
		return nil, apperrors.NewMapping("<nil>", errors.New("no target type"))
	}
	if model == nil {
		return nil, nil
	}
	if mc == nil {
		mc = NewMappingContext()
	}

	start := time.Now()
	defer func() {
		MappingDuration.Observe(time.Since(start).Seconds())
	}()

	p := &pass{
		Mapper:  m,
		mc:      mc,
		grouper: NewGrouper(),
		logger: m.logger.With(
			zap.String("pass_id", uuid.NewString()),
			zap.String("target", target.String()),
		),
	}

	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = apperrors.NewMapping(target.String(), fmt.Errorf("panic: %v", r))
		}
	}()

	if err := p.mapNodes(model.Nodes); err != nil {
		return nil, apperrors.NewMapping(target.String(), err)
	}
	if err := p.mapRelationships(model.Relationships); err != nil {
		return nil, apperrors.NewMapping(target.String(), err)
	}
	if err := p.flush(); err != nil {
		return nil, apperrors.NewMapping(target.String(), err)
	}
	p.registerEdges()

	results = p.results(m.isA(target))
	p.logger.Debug("Mapped graph model",
		zap.Int("nodes", len(model.Nodes)),
		zap.Int("relationships", len(model.Relationships)),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// MapAs is Map with the result typed as T, usually a pointer to an entity
func MapAs[T any](m *Mapper, model *graph.GraphModel, mc *MappingContext) ([]T, error) {
	results, err := m.Map(reflect.TypeOf((*T)(nil)).Elem(), model, mc)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(results))
	for _, r := range results {
		if v, ok := r.(T); ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// Get returns every instance in mc that is a target, matched as in Map
func (m *Mapper) Get(target reflect.Type, mc *MappingContext) []any {
	if target == nil || mc == nil {
		return nil
	}
	return mc.Filter(m.isA(target))
}

func (m *Mapper) isA(target reflect.Type) func(instance any) bool {
	want := instanceType(target)
	return func(instance any) bool {
		t := reflect.TypeOf(instance)
		return t.AssignableTo(want) || m.registry.IsA(t, target)
	}
}

func instanceType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Struct {
		return reflect.PointerTo(t)
	}
	return t
}

// pass holds the state of one Map call
type pass struct {
	*Mapper
	mc      *MappingContext
	grouper *Grouper
	logger  *zap.Logger

	nodeIDs []int64
	relIDs  []int64
	edges   []graph.Relationship
}

func (p *pass) mapNodes(nodes []graph.Node) error {
	for _, node := range nodes {
		entity, ok := p.mc.NodeEntity(node.ID)
		if !ok {
			created, err := p.factory.NewNodeEntity(node)
			if err != nil {
				var noMatch *apperrors.ErrNoMatchingType
				if errors.As(err, &noMatch) {
					p.logger.Debug("Skipping node without a matching type",
						zap.Int64("id", node.ID),
						zap.Strings("labels", node.Labels),
					)
					NodesSkipped.Inc()
					continue
				}
				return err
			}
			entity = created
		}

		td, err := p.registry.DescriptorOf(entity)
		if err != nil {
			return err
		}
		if err := p.setIdentity(td, entity, node.ID); err != nil {
			return err
		}
		if err := p.setProperties(td, entity, node.Properties); err != nil {
			return err
		}

		p.mc.RegisterNodeEntity(entity, node.ID)
		p.nodeIDs = append(p.nodeIDs, node.ID)
		NodesMapped.Inc()
	}
	return nil
}

func (p *pass) setIdentity(td *metadata.TypeDescriptor, entity any, id int64) error {
	w, err := p.strategy.IdentityWriter(td)
	if err != nil {
		return err
	}
	if err := w.Write(entity, id); err != nil {
		return fmt.Errorf("write identity of %s: %w", td.SimpleName(), err)
	}
	return nil
}

// setProperties writes each property; collection-typed members are merged
// with the value they already hold
func (p *pass) setProperties(td *metadata.TypeDescriptor, entity any, props []graph.Property) error {
	for _, prop := range props {
		res := p.strategy.PropertyWriter(td, prop.Key)
		if !res.Found() {
			p.logger.Debug("No writer for property",
				zap.String("type", td.SimpleName()),
				zap.String("property", prop.Key),
			)
			continue
		}
		writer := res.Accessor
		value := prop.Value
		if value != nil && metadata.IsCollectionType(writer.Type()) {
			var current any
			if reader := p.strategy.PropertyReader(td, prop.Key); reader.Found() {
				current = reader.Accessor.Read(entity)
			}
			merged, err := entityaccess.Merge(writer.Type(), value, current)
			if err != nil {
				return fmt.Errorf("property %s of %s: %w", prop.Key, td.SimpleName(), err)
			}
			value = merged
		}
		if err := writer.Write(entity, value); err != nil {
			return fmt.Errorf("property %s of %s: %w", prop.Key, td.SimpleName(), err)
		}
	}
	return nil
}

func (p *pass) mapRelationships(rels []graph.Relationship) error {
	for _, rel := range rels {
		source, okSource := p.mc.NodeEntity(rel.StartNodeID)
		target, okTarget := p.mc.NodeEntity(rel.EndNodeID)
		if !okSource || !okTarget {
			p.logger.Debug("Skipping relationship with an unmapped end",
				zap.Int64("id", rel.ID),
				zap.String("type", rel.Type),
			)
			continue
		}
		p.edges = append(p.edges, rel)

		if p.registry.Resolve(rel.Type) != nil {
			mapped, err := p.mapRelationshipEntity(rel, source, target)
			if err != nil {
				return err
			}
			if mapped {
				continue
			}
		}
		if err := p.mapEdge(rel, source, target, target, source); err != nil {
			return err
		}
	}
	return nil
}

// mapRelationshipEntity creates or refreshes the relationship entity for
// rel and attaches it to both ends. It reports false when the factory has
// no type for the edge, leaving it to be mapped as a plain edge.
func (p *pass) mapRelationshipEntity(rel graph.Relationship, source, target any) (bool, error) {
	entity, ok := p.mc.RelationshipEntity(rel.ID)
	if !ok {
		created, err := p.factory.NewRelationshipEntity(rel)
		if err != nil {
			var noMatch *apperrors.ErrNoMatchingType
			if errors.As(err, &noMatch) {
				return false, nil
			}
			return false, err
		}
		entity = created
	}

	td, err := p.registry.DescriptorOf(entity)
	if err != nil {
		return false, err
	}
	if err := p.setIdentity(td, entity, rel.ID); err != nil {
		return false, err
	}
	props := make([]graph.Property, 0, len(rel.Properties))
	for _, key := range rel.PropertyKeys() {
		props = append(props, graph.Property{Key: key, Value: rel.Properties[key]})
	}
	if err := p.setProperties(td, entity, props); err != nil {
		return false, err
	}

	for _, end := range []struct {
		kind  string
		value any
	}{
		{metadata.AnnotationStartNode, source},
		{metadata.AnnotationEndNode, target},
	} {
		res := p.strategy.RelationshipEntityWriter(td, end.kind)
		if !res.Found() {
			return false, apperrors.NewConfiguration(td.Name(), res.Reason)
		}
		if err := res.Accessor.Write(entity, end.value); err != nil {
			return false, fmt.Errorf("%s of %s: %w", end.kind, td.SimpleName(), err)
		}
	}

	p.mc.RegisterRelationshipEntity(entity, rel.ID)
	p.relIDs = append(p.relIDs, rel.ID)
	RelationshipsMapped.WithLabelValues(kindEntity).Inc()

	return true, p.mapEdge(rel, source, target, entity, entity)
}

// mapEdge attaches outRelated to source as an outgoing relationship and
// inRelated to target as an incoming one
func (p *pass) mapEdge(rel graph.Relationship, source, target, outRelated, inRelated any) error {
	outMapped, err := p.mapEnd(source, outRelated, rel.Type, metadata.Outgoing)
	if err != nil {
		return err
	}
	inMapped, err := p.mapEnd(target, inRelated, rel.Type, metadata.Incoming)
	if err != nil {
		return err
	}
	if !outMapped && !inMapped {
		p.logger.Debug("No writer for either end of relationship",
			zap.Int64("id", rel.ID),
			zap.String("type", rel.Type),
		)
		RelationshipsUnmapped.Inc()
	}
	return nil
}

// mapEnd writes related into a scalar member of owner, or groups it for a
// collection member. It reports false when owner has no member for it.
func (p *pass) mapEnd(owner, related any, relType string, dir metadata.Direction) (bool, error) {
	td, err := p.registry.DescriptorOf(owner)
	if err != nil {
		return false, err
	}

	res := p.strategy.RelationalWriter(td, relType, dir, related)
	if res.Found() {
		if !res.Accessor.IsScalar() {
			p.grouper.Record(owner, related, relType, dir)
			return true, nil
		}
		if err := res.Accessor.Write(owner, related); err != nil {
			return false, fmt.Errorf("relationship %s of %s: %w", relType, td.SimpleName(), err)
		}
		RelationshipsMapped.WithLabelValues(kindScalar).Inc()
		return true, nil
	}

	if it := p.strategy.IterableWriter(td, reflect.TypeOf(related), relType, dir); it.Outcome != entityaccess.None {
		p.grouper.Record(owner, related, relType, dir)
		return true, nil
	}

	p.logger.Debug("No writer for relationship end",
		zap.String("type", td.SimpleName()),
		zap.String("relationship", relType),
		zap.Stringer("direction", dir),
		zap.String("reason", res.Reason),
	)
	return false, nil
}

// flush writes every grouped collection onto its owner, merged with what
// the owner already holds
func (p *pass) flush() error {
	for _, owner := range p.grouper.Owners() {
		td, err := p.registry.DescriptorOf(owner)
		if err != nil {
			return err
		}
		for _, relType := range p.grouper.TypesFor(owner) {
			for _, dir := range p.grouper.DirectionsFor(owner, relType) {
				if err := p.flushGroup(td, owner, relType, dir); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (p *pass) flushGroup(td *metadata.TypeDescriptor, owner any, relType string, dir metadata.Direction) error {
	elements := p.grouper.ElementsFor(owner, relType, dir)
	elemType := p.grouper.ElementTypeFor(owner, relType, dir)

	writer, reader := p.collectionAccessors(td, elemType, relType, dir, elements[0])
	if writer == nil {
		RelationshipsUnmapped.Inc()
		return nil
	}

	var current any
	if reader != nil {
		current = reader.Read(owner)
	}
	merged, err := entityaccess.Merge(writer.Type(), elements, current)
	if err != nil {
		return fmt.Errorf("relationship %s of %s: %w", relType, td.SimpleName(), err)
	}
	if err := writer.Write(owner, merged); err != nil {
		return fmt.Errorf("relationship %s of %s: %w", relType, td.SimpleName(), err)
	}
	RelationshipsMapped.WithLabelValues(kindCollection).Add(float64(len(elements)))
	return nil
}

// collectionAccessors resolves the collection member of a group by exact
// element type, then by any relational writer that takes the element
func (p *pass) collectionAccessors(td *metadata.TypeDescriptor, elemType reflect.Type, relType string, dir metadata.Direction, sample any) (entityaccess.Writer, entityaccess.Reader) {
	res := p.strategy.IterableWriter(td, elemType, relType, dir)
	if res.Found() {
		var reader entityaccess.Reader
		if r := p.strategy.IterableReader(td, elemType, relType, dir); r.Found() {
			reader = r.Accessor
		}
		return res.Accessor, reader
	}
	if res.Outcome == entityaccess.Ambiguous {
		p.logger.Warn("Ambiguous collection for relationship",
			zap.String("type", td.SimpleName()),
			zap.String("relationship", relType),
			zap.Stringer("direction", dir),
			zap.Strings("candidates", res.Candidates),
		)
		AccessorAmbiguous.Inc()
		return nil, nil
	}

	rel := p.strategy.RelationalWriter(td, relType, dir, sample)
	if !rel.Found() || rel.Accessor.IsScalar() {
		p.logger.Debug("No collection for relationship",
			zap.String("type", td.SimpleName()),
			zap.String("relationship", relType),
			zap.Stringer("direction", dir),
			zap.String("reason", res.Reason),
		)
		return nil, nil
	}
	var reader entityaccess.Reader
	if r := p.strategy.RelationalReader(td, relType, dir); r.Found() && r.Accessor.Type() == rel.Accessor.Type() {
		reader = r.Accessor
	}
	return rel.Accessor, reader
}

// registerEdges marks every edge with both ends mapped as seen, whether or
// not any end had a member for it
func (p *pass) registerEdges() {
	for _, rel := range p.edges {
		p.mc.RegisterRelationship(MappedRelationship{
			StartNodeID:    rel.StartNodeID,
			Type:           rel.Type,
			EndNodeID:      rel.EndNodeID,
			RelationshipID: rel.ID,
		})
	}
}

func (p *pass) results(match func(instance any) bool) []any {
	seen := make(map[any]bool)
	var out []any
	collect := func(entity any, ok bool) {
		if !ok || seen[entity] || !match(entity) {
			return
		}
		seen[entity] = true
		out = append(out, entity)
	}

	for _, id := range p.nodeIDs {
		collect(p.mc.NodeEntity(id))
	}
	if len(out) == 0 {
		for _, id := range p.relIDs {
			collect(p.mc.RelationshipEntity(id))
		}
	}
	return out
}
