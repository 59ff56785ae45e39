package constants

// Mapping constants
const (
	// TagKey is the struct tag key carrying mapping annotations
	TagKey = "ogm"

	// IdentityFieldName is the conventional identity field when none is tagged
	IdentityFieldName = "ID"
)

// Metrics constants
const (
	// MetricsNamespace prefixes every exported metric
	MetricsNamespace = "ogm"
)

// HTTP constants
const (
	// MaxQueryBodyBytes caps the size of a query request body
	MaxQueryBodyBytes = 1 << 20
)
