package uddi

import (
	"errors"
	"fmt"
)

// Sentinel errors for semantic registry failures. Wire-level failures
// (network, timeout) are returned as *TransientError.
var (
	// ErrInvalidKey means a key passed to the registry no longer exists.
	ErrInvalidKey = errors.New("uddi: invalid key")

	// ErrAuthFailed means the security endpoint rejected the credentials.
	ErrAuthFailed = errors.New("uddi: authentication failed")

	// ErrRegistryDisabled means the registry rejected the call because it
	// is administratively disabled.
	ErrRegistryDisabled = errors.New("uddi: registry disabled")
)

// TransientError wraps a network-level failure that may succeed on a later
// attempt. The workflows do not retry automatically; the domain renew and
// resubscribe logic provides the retry path.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("uddi: transient failure in %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a wire-level failure rather than a
// semantic rejection.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
