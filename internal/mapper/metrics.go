package mapper

import (
	"github.com/prometheus/client_golang/prometheus"

	"neo-ogm/internal/constants"
)

var (
	// NodesMapped counts nodes hydrated into entities
	NodesMapped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "nodes_mapped_total",
			Help:      "Total number of nodes hydrated into entities",
		},
	)

	// NodesSkipped counts nodes without a registered type
	NodesSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "nodes_skipped_total",
			Help:      "Total number of nodes skipped for lack of a matching type",
		},
	)

	// RelationshipsMapped counts relationship writes by kind
	// (scalar, collection, entity)
	RelationshipsMapped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "relationships_mapped_total",
			Help:      "Total number of relationship ends written to entities",
		},
		[]string{"kind"},
	)

	// RelationshipsUnmapped counts edges with no writer on any side
	RelationshipsUnmapped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "relationships_unmapped_total",
			Help:      "Total number of relationship groups left without a writer",
		},
	)

	// AccessorAmbiguous counts ambiguous collection accessor lookups
	AccessorAmbiguous = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "accessor_ambiguous_total",
			Help:      "Total number of ambiguous collection accessor resolutions",
		},
	)

	// MappingDuration tracks the duration of a hydration pass
	MappingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "mapping_duration_seconds",
			Help:      "Duration of a graph model hydration pass",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

const (
	kindScalar     = "scalar"
	kindCollection = "collection"
	kindEntity     = "entity"
)

func init() {
	prometheus.MustRegister(NodesMapped)
	prometheus.MustRegister(NodesSkipped)
	prometheus.MustRegister(RelationshipsMapped)
	prometheus.MustRegister(RelationshipsUnmapped)
	prometheus.MustRegister(AccessorAmbiguous)
	prometheus.MustRegister(MappingDuration)
}
