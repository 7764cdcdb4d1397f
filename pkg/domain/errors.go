package domain

import (
	"fmt"
	"strings"
)

// NotFoundError is returned when a rule or collaborator record does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// NewRuleNotFound builds a NotFoundError for a rule id.
func NewRuleNotFound(id string) NotFoundError {
	return NotFoundError{Entity: "rule", ID: id}
}

// ValidationError reports a schema or field-level rejection. Field names the
// offending field so callers can surface an actionable message.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError constructs a field-level validation error.
func NewValidationError(field, message string) ValidationError {
	return ValidationError{Field: field, Message: message}
}

// PartitionMismatchError reports a reorder request whose id set does not
// match the current membership of the target partition. Missing lists ids
// present in the partition but absent from the request; Unexpected lists
// ids in the request that live elsewhere (a cross-tier drag) or not at all.
type PartitionMismatchError struct {
	Partition  PartitionKey
	Missing    []string
	Unexpected []string
	CrossTier  bool
}

func (e PartitionMismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing ids %v", e.Missing))
	}
	if len(e.Unexpected) > 0 {
		if e.CrossTier {
			parts = append(parts, fmt.Sprintf("ids %v belong to another partition (cross-tier move is not a reorder)", e.Unexpected))
		} else {
			parts = append(parts, fmt.Sprintf("unknown ids %v", e.Unexpected))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "id set does not match membership")
	}
	return fmt.Sprintf("reorder of partition %s rejected: %s", e.Partition, strings.Join(parts, "; "))
}

// ConflictError reports a concurrent modification detected during a
// multi-row operation.
type ConflictError struct {
	Partition PartitionKey
	Detail    string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("concurrent modification of partition %s: %s", e.Partition, e.Detail)
}

// UnavailableError wraps a dependency timeout or outage. It is distinct from
// NotFoundError so callers can retry instead of treating the record as gone.
type UnavailableError struct {
	Dependency string
	Err        error
}

func (e UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Dependency, e.Err)
}

func (e UnavailableError) Unwrap() error { return e.Err }
