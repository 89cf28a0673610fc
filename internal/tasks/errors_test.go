package tasks

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewaymesh/uddi-reconciler/internal/uddi"
)

func TestReasonOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ReasonInvariant, ReasonOf(NewError(ReasonInvariant, "bad state")))
	assert.Equal(t, "unclassified", ReasonOf(errors.New("plain")))

	wrapped := fmt.Errorf("outer: %w", WrapError(ReasonPersistence, errors.New("db down"), "save row"))
	assert.Equal(t, ReasonPersistence, ReasonOf(wrapped))
}

func TestWrapError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("db down")
	err := WrapError(ReasonPersistence, cause, "save row %d", 7)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "save row 7: db down", err.Error())
}

func TestIsInvariantViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, IsInvariantViolation(NewError(ReasonInvariant, "illegal transition")))
	assert.False(t, IsInvariantViolation(NewError(ReasonPersistence, "db down")))
	assert.False(t, IsInvariantViolation(errors.New("plain")))
}

func TestClassifyRemote(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "auth failure",
			err:  fmt.Errorf("get token: %w", uddi.ErrAuthFailed),
			want: ReasonAuthFailed,
		},
		{
			name: "transient network failure",
			err:  &uddi.TransientError{Op: "save_service", Err: errors.New("connection refused")},
			want: ReasonRemoteTransient,
		},
		{
			name: "semantic rejection",
			err:  uddi.ErrInvalidKey,
			want: ReasonRemoteSemantic,
		},
		{
			name: "unknown error is semantic",
			err:  errors.New("boom"),
			want: ReasonRemoteSemantic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ClassifyRemote(tt.err, "call registry %s", "r1")
			require.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.want, ReasonOf(err))
		})
	}
}
