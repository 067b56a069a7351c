package xerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRejectionMatchesReasonSentinel(t *testing.T) {
	cases := []struct {
		reason   Reason
		sentinel error
		status   int
	}{
		{ReasonNotAuthenticated, ErrUnauthorized, http.StatusUnauthorized},
		{ReasonForbidden, ErrForbidden, http.StatusForbidden},
		{ReasonRateLimited, ErrRateLimited, http.StatusTooManyRequests},
		{ReasonTransient, ErrTransient, http.StatusServiceUnavailable},
		{ReasonConfiguration, ErrConfiguration, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(string(tc.reason), func(t *testing.T) {
			rej := Reject(tc.reason, nil)
			assert.ErrorIs(t, rej, tc.sentinel)
			assert.Equal(t, tc.status, rej.Status())
			assert.NotEmpty(t, rej.PublicMessage())
		})
	}
}

func TestRejectionKeepsCauseButHidesIt(t *testing.T) {
	cause := errors.New("token expired at 12:00")
	rej := Reject(ReasonNotAuthenticated, cause)

	assert.ErrorIs(t, rej, cause)
	assert.NotContains(t, rej.PublicMessage(), "expired")
}

func TestAsRejectionThroughWrapping(t *testing.T) {
	reset := time.Unix(1700000000, 0)
	wrapped := fmt.Errorf("login: %w", RateLimited(0, reset))

	rej, ok := AsRejection(wrapped)
	require.True(t, ok)
	assert.Equal(t, ReasonRateLimited, rej.Reason)
	assert.True(t, rej.ResetTime.Equal(reset))

	_, ok = AsRejection(errors.New("plain"))
	assert.False(t, ok)
}

func TestInvalidCredentialsMessage(t *testing.T) {
	assert.Equal(t, "invalid credentials", InvalidCredentials(ErrNotFound).PublicMessage())
	assert.Equal(t, "invalid credentials", InvalidCredentials(nil).PublicMessage())
}
