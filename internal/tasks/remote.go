package tasks

import (
	"errors"

	"github.com/gatewaymesh/uddi-reconciler/internal/uddi"
)

// ClassifyRemote wraps a registry client error with the failure reason the
// scheduler and operators care about: auth failures point at credentials,
// transient failures may clear on the next cycle, everything else is a
// semantic rejection by the registry.
func ClassifyRemote(err error, format string, args ...any) error {
	switch {
	case errors.Is(err, uddi.ErrAuthFailed):
		return WrapError(ReasonAuthFailed, err, format, args...)
	case uddi.IsTransient(err):
		return WrapError(ReasonRemoteTransient, err, format, args...)
	default:
		return WrapError(ReasonRemoteSemantic, err, format, args...)
	}
}
