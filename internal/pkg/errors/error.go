package xerrors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sentinels shared by repositories, services and the HTTP layer.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrUnauthorized   = errors.New("unauthorized access")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidInput   = errors.New("invalid input")
	ErrConflict       = errors.New("conflict: resource already exists")
	ErrInternal       = errors.New("internal server error")
	ErrRateLimited    = errors.New("too many requests")
	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrTransient      = errors.New("temporarily unavailable")
	ErrConfiguration  = errors.New("configuration error")
)

// Reason classifies why a request was turned away.
type Reason string

const (
	ReasonNotAuthenticated Reason = "NOT_AUTHENTICATED"
	ReasonForbidden        Reason = "FORBIDDEN"
	ReasonRateLimited      Reason = "RATE_LIMITED"
	ReasonTransient        Reason = "TRANSIENT_ERROR"
	ReasonConfiguration    Reason = "CONFIGURATION_ERROR"
)

// Rejection is the single error shape returned by the guard, the login flow
// and the rate limiter. Cause carries internal detail for the audit trail and
// must never be written to a client.
type Rejection struct {
	Reason    Reason
	Cause     error
	Message   string
	Remaining int
	ResetTime time.Time
}

// Reject builds a rejection with the default public message for reason.
func Reject(reason Reason, cause error) *Rejection {
	return &Rejection{Reason: reason, Cause: cause}
}

// RateLimited builds a RATE_LIMITED rejection that advertises when to retry.
func RateLimited(remaining int, resetTime time.Time) *Rejection {
	return &Rejection{
		Reason:    ReasonRateLimited,
		Remaining: remaining,
		ResetTime: resetTime,
	}
}

// InvalidCredentials is the answer for both an unknown email and a wrong password.
func InvalidCredentials(cause error) *Rejection {
	return &Rejection{
		Reason:  ReasonNotAuthenticated,
		Cause:   cause,
		Message: "invalid credentials",
	}
}

func (r *Rejection) Error() string {
	if r.Cause != nil {
		return fmt.Sprintf("%s: %v", r.Reason, r.Cause)
	}
	return string(r.Reason)
}

// Unwrap exposes both the reason sentinel and the cause to errors.Is/As.
func (r *Rejection) Unwrap() []error {
	errs := []error{r.Reason.sentinel()}
	if r.Cause != nil {
		errs = append(errs, r.Cause)
	}
	return errs
}

// Status maps the reason onto an HTTP status code.
func (r *Rejection) Status() int {
	switch r.Reason {
	case ReasonNotAuthenticated:
		return http.StatusUnauthorized
	case ReasonForbidden:
		return http.StatusForbidden
	case ReasonRateLimited:
		return http.StatusTooManyRequests
	case ReasonTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the terse text a client is allowed to see.
func (r *Rejection) PublicMessage() string {
	if r.Message != "" {
		return r.Message
	}
	switch r.Reason {
	case ReasonNotAuthenticated:
		return "not authenticated"
	case ReasonForbidden:
		return "forbidden"
	case ReasonRateLimited:
		return "too many requests, try again later"
	case ReasonTransient:
		return "service temporarily unavailable"
	default:
		return "internal server error"
	}
}

// AsRejection extracts a Rejection from err.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

func (r Reason) sentinel() error {
	switch r {
	case ReasonNotAuthenticated:
		return ErrUnauthorized
	case ReasonForbidden:
		return ErrForbidden
	case ReasonRateLimited:
		return ErrRateLimited
	case ReasonTransient:
		return ErrTransient
	case ReasonConfiguration:
		return ErrConfiguration
	default:
		return ErrInternal
	}
}
