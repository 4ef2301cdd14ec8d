package models

import "fmt"

// ValidationError is returned when malformed input is rejected before it
// can reach storage or the catalog index.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError is returned when a referenced user, book or swap request
// does not exist.
type NotFoundError struct {
	Kind string
	Id   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Id)
}

// ConflictError is returned when an operation would violate an
// availability invariant, e.g. accepting a second request on a book that
// is already reserved.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// InvalidStateError is returned when a state-machine transition is not
// legal from the entity's current state.
type InvalidStateError struct {
	Entity string
	From   string
	Op     string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s in state %s", e.Op, e.Entity, e.From)
}
