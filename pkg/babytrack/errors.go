package babytrack

import (
	"errors"
	"fmt"
)

// Sentinel errors for missing records. These are surfaced as-is and
// never retried.
var (
	// ErrUserNotFound indicates the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrBabyNotFound indicates the referenced baby does not exist.
	ErrBabyNotFound = errors.New("baby not found")

	// ErrSessionNotFound indicates the referenced session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoOpenCrying indicates Analyze was called with no crying
	// episode in progress for the baby.
	ErrNoOpenCrying = errors.New("no crying episode in progress")
)

// Sentinel errors for invariant violations and dispatch.
var (
	// ErrSessionConflict indicates a StartSession call while an open
	// session of the same kind already exists for the baby. The open
	// session must be ended first; the store is the source of truth
	// for open state, not caller-held ids.
	ErrSessionConflict = errors.New("open session of this kind already exists")

	// ErrDuplicateUser indicates the username or email is already taken.
	ErrDuplicateUser = errors.New("username or email already exists")

	// ErrUnknownIntent indicates the intent name is not one the
	// dispatcher handles.
	ErrUnknownIntent = errors.New("unknown intent")

	// ErrStoreClosed indicates the storage backend has been closed.
	ErrStoreClosed = errors.New("store closed")
)

// ValidationError reports malformed input, rejected before any
// persistence write. The caller must correct the input and retry.
type ValidationError struct {
	// Field is the offending input field.
	Field string
	// Reason describes what is wrong with the value.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StoreError wraps a failure from the persistence backend. The
// in-flight operation is rolled back and the failure surfaced; it is
// never retried silently.
type StoreError struct {
	// Op is the storage operation that failed ("insert", "query", ...).
	Op string
	// Entity is the record kind involved ("feeding", "baby", ...).
	Entity string
	// Err is the underlying backend error.
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Entity, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *StoreError) Unwrap() error {
	return e.Err
}
