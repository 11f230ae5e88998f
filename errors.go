// Package relmap defines the shared error taxonomy for the data-mapper
// runtime. Engine packages return these types so callers can branch on the
// failure class without string matching; storage-layer errors are passed
// through unmodified and can be unwrapped with errors.As/Is.
package relmap

import (
	"errors"
	"fmt"
)

// RelationNotFoundError is returned when an include path or relation write
// names a relation that does not exist in the entity's descriptor table.
type RelationNotFoundError struct {
	Entity   string
	Relation string
}

func (e *RelationNotFoundError) Error() string {
	return fmt.Sprintf("relmap: relation %q not found on entity %q", e.Relation, e.Entity)
}

// IsRelationNotFound reports whether err is a RelationNotFoundError.
func IsRelationNotFound(err error) bool {
	var target *RelationNotFoundError
	return errors.As(err, &target)
}

// InvalidIncludePathError is returned when a nested include names a relation
// that does not exist on the target entity of its parent relation.
type InvalidIncludePathError struct {
	Relation string
	Nested   string
}

func (e *InvalidIncludePathError) Error() string {
	return fmt.Sprintf("relmap: invalid include path: %q is not a relation of the target of %q", e.Nested, e.Relation)
}

// IsInvalidIncludePath reports whether err is an InvalidIncludePathError.
func IsInvalidIncludePath(err error) bool {
	var target *InvalidIncludePathError
	return errors.As(err, &target)
}

// EntityFetcherMissingError indicates a registry misconfiguration: an entity
// named by a descriptor has no registered fetcher.
type EntityFetcherMissingError struct {
	Entity string
}

func (e *EntityFetcherMissingError) Error() string {
	return fmt.Sprintf("relmap: no fetcher registered for entity %q", e.Entity)
}

// IsEntityFetcherMissing reports whether err is an EntityFetcherMissingError.
func IsEntityFetcherMissing(err error) bool {
	var target *EntityFetcherMissingError
	return errors.As(err, &target)
}

// NotFoundForConditionError is returned when a deferred foreign-key lookup
// finds no row matching the supplied unique condition. The whole owning
// write is aborted; nothing is retried.
type NotFoundForConditionError struct {
	Entity    string
	Condition string
}

func (e *NotFoundForConditionError) Error() string {
	return fmt.Sprintf("relmap: no %s found for condition %s", e.Entity, e.Condition)
}

// IsNotFoundForCondition reports whether err is a NotFoundForConditionError.
func IsNotFoundForCondition(err error) bool {
	var target *NotFoundForConditionError
	return errors.As(err, &target)
}

// ValidationError is returned when a query shape is invalid before any SQL
// is issued: unknown fields, empty update sets, malformed cursor input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "relmap: " + e.Message
}

// Validationf builds a ValidationError with a formatted message.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// TypeMismatchError is returned when a scanned or supplied value cannot be
// converted to the type a field requires. Produced instead of panicking so
// descriptor bugs surface as recoverable errors.
type TypeMismatchError struct {
	Field    string
	Expected string
	Value    any
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("relmap: field %q expects %s, got %T(%v)", e.Field, e.Expected, e.Value, e.Value)
}

// IsTypeMismatch reports whether err is a TypeMismatchError.
func IsTypeMismatch(err error) bool {
	var target *TypeMismatchError
	return errors.As(err, &target)
}

// EntityNotRegisteredError indicates a lookup for an entity name the
// registry has never seen.
type EntityNotRegisteredError struct {
	Entity string
}

func (e *EntityNotRegisteredError) Error() string {
	return fmt.Sprintf("relmap: entity %q is not registered", e.Entity)
}

// IsEntityNotRegistered reports whether err is an EntityNotRegisteredError.
func IsEntityNotRegistered(err error) bool {
	var target *EntityNotRegisteredError
	return errors.As(err, &target)
}
