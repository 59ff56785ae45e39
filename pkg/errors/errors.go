package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeMetadata represents type registry and descriptor errors
	ErrorTypeMetadata ErrorType = "metadata"
	// ErrorTypeMapping represents graph-to-object hydration errors
	ErrorTypeMapping ErrorType = "mapping"
	// ErrorTypeGraph represents graph database errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Metadata Errors

// ErrTypeNotFound is returned when a type was never registered
type ErrTypeNotFound struct {
	*BaseError
	TypeName string
}

func NewTypeNotFound(typeName string) *ErrTypeNotFound {
	return &ErrTypeNotFound{
		BaseError: NewBaseError(ErrorTypeMetadata, fmt.Sprintf("type not registered: %s", typeName), nil),
		TypeName:  typeName,
	}
}

// ErrMissingIdentity is returned when a type defines no identity field
type ErrMissingIdentity struct {
	*BaseError
	TypeName string
}

func NewMissingIdentity(typeName string) *ErrMissingIdentity {
	return &ErrMissingIdentity{
		BaseError: NewBaseError(ErrorTypeMetadata, fmt.Sprintf("no identity field found for type: %s", typeName), nil),
		TypeName:  typeName,
	}
}

// ErrConfiguration is returned for malformed mapping metadata. It is never recoverable.
type ErrConfiguration struct {
	*BaseError
	TypeName string
	Reason   string
}

func NewConfiguration(typeName, reason string) *ErrConfiguration {
	return &ErrConfiguration{
		BaseError: NewBaseError(ErrorTypeMetadata, fmt.Sprintf("invalid mapping for %s: %s", typeName, reason), nil),
		TypeName:  typeName,
		Reason:    reason,
	}
}

// Mapping Errors

// ErrNoMatchingType is returned when no registered type matches a node's labels
// or a relationship's type. Mapping skips the element and carries on.
type ErrNoMatchingType struct {
	*BaseError
	Labels           []string
	RelationshipType string
}

func NewNoMatchingTypeForLabels(labels []string) *ErrNoMatchingType {
	return &ErrNoMatchingType{
		BaseError: NewBaseError(ErrorTypeMapping, fmt.Sprintf("no registered type for labels [%s]", strings.Join(labels, ", ")), nil),
		Labels:    labels,
	}
}

func NewNoMatchingTypeForRelationship(relType string) *ErrNoMatchingType {
	return &ErrNoMatchingType{
		BaseError:        NewBaseError(ErrorTypeMapping, fmt.Sprintf("no registered relationship entity for type %s", relType), nil),
		RelationshipType: relType,
	}
}

// ErrMapping wraps any failure raised while hydrating a graph model
type ErrMapping struct {
	*BaseError
	TargetType string
}

func NewMapping(targetType string, err error) *ErrMapping {
	return &ErrMapping{
		BaseError:  NewBaseError(ErrorTypeMapping, fmt.Sprintf("error mapping graph model to instance of %s", targetType), err),
		TargetType: targetType,
	}
}

// Graph Errors

// ErrGraphConnectionFailed is returned when Neo4j connection fails
type ErrGraphConnectionFailed struct {
	*BaseError
	URI string
}

func NewGraphConnectionFailed(uri string, err error) *ErrGraphConnectionFailed {
	return &ErrGraphConnectionFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// ErrGraphQueryFailed is returned when a graph query fails
type ErrGraphQueryFailed struct {
	*BaseError
	Query string
}

func NewGraphQueryFailed(query string, err error) *ErrGraphQueryFailed {
	return &ErrGraphQueryFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("query failed: %s", query), err),
		Query:     query,
	}
}

// Context Errors

// ErrContextTimeout is returned when context times out
type ErrContextTimeout struct {
	*BaseError
	Operation string
	Timeout   time.Duration
}

func NewContextTimeout(operation string, timeout time.Duration) *ErrContextTimeout {
	return &ErrContextTimeout{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context timeout: %s (timeout: %v)", operation, timeout), nil),
		Operation: operation,
		Timeout:   timeout,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

type baseErrorCarrier interface {
	base() *BaseError
}

func (e *BaseError) base() *BaseError { return e }

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}
	if carrier, ok := err.(baseErrorCarrier); ok {
		if b := carrier.base(); b != nil && b.Type == errType {
			return true
		}
	}
	// Check wrapped errors
	if wrapped, ok := err.(interface{ Unwrap() error }); ok {
		return IsErrorType(wrapped.Unwrap(), errType)
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	// Context errors are not retryable
	if IsErrorType(err, ErrorTypeContext) {
		return false
	}
	// Metadata problems will not fix themselves
	if IsErrorType(err, ErrorTypeMetadata) {
		return false
	}
	// Graph connection errors are retryable
	if IsErrorType(err, ErrorTypeGraph) {
		return true
	}
	return false
}
