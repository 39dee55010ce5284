package store

import "fmt"

// StoreError wraps a backend read/write/update failure. It is surfaced to the
// caller of the failing operation and never retried at this layer.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NotFoundError indicates the resource does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ValidationError indicates a client-side validation failure. The operation
// is aborted with no partial write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// NotAParticipantError indicates a seen lookup or update for a user who is
// not in the message's participant list. This is a programming-contract
// violation, not a recoverable runtime case.
type NotAParticipantError struct {
	UserID string
}

func (e *NotAParticipantError) Error() string {
	return fmt.Sprintf("user %s is not a participant of the message", e.UserID)
}
