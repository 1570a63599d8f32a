package task

import (
	"fmt"
	"strings"
)

// ValidationError reports a malformed or missing field on a record.
// When Defaulted is set the record was still accepted with a default
// value substituted for Field.
type ValidationError struct {
	Record    string
	Field     string
	Value     string
	Message   string
	Defaulted bool
}

func (e *ValidationError) Error() string {
	if e.Record == "" {
		return e.Message
	}
	return e.Record + ": " + e.Message
}

// TransitionError is returned when a status change is not permitted.
type TransitionError struct {
	From    Status
	To      Status
	Allowed []Status
}

func (e *TransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	return fmt.Sprintf("invalid state transition: %s → %s (allowed: %s)",
		e.From, e.To, strings.Join(allowed, ", "))
}

// NotFoundError is returned when an operation targets an unknown id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.ID)
}

// PersistenceError wraps a failure of the underlying record storage.
type PersistenceError struct {
	Op  string
	ID  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
