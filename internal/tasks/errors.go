package tasks

import (
	"errors"
	"fmt"
)

// Failure reasons recorded at the dispatch boundary.
const (
	// ReasonRemoteTransient marks a network-level registry failure.
	ReasonRemoteTransient = "remote-transient"

	// ReasonRemoteSemantic marks a registry rejection (invalid key,
	// disabled registry).
	ReasonRemoteSemantic = "remote-semantic"

	// ReasonAuthFailed marks a registry authentication failure.
	ReasonAuthFailed = "auth-failed"

	// ReasonPersistence marks a local store failure.
	ReasonPersistence = "persistence"

	// ReasonBadWsdl marks an unconvertible WSDL; never retryable.
	ReasonBadWsdl = "wsdl-conversion"

	// ReasonInvariant marks a programming error: a task found an entity
	// in a state the workflow can never legally produce. Fatal for the
	// task, never retried.
	ReasonInvariant = "invariant-violation"
)

// Error is a task failure with a classification reason. The dispatch
// boundary logs and audits it; HandleEvent callers receive it directly.
type Error struct {
	Err     error
	Message string
	Reason  string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a classified task error.
func NewError(reason, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{Message: msg, Reason: reason}
}

// WrapError builds a classified task error around a cause.
func WrapError(reason string, err error, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{Err: err, Message: fmt.Sprintf("%s: %v", msg, err), Reason: reason}
}

// ReasonOf extracts the classification reason, "unclassified" for plain
// errors.
func ReasonOf(err error) string {
	var te *Error
	if errors.As(err, &te) {
		return te.Reason
	}
	return "unclassified"
}

// IsInvariantViolation reports whether err marks a programming error.
func IsInvariantViolation(err error) bool {
	return ReasonOf(err) == ReasonInvariant
}
