// internal/pkg/audit/event.go
package audit

import (
	"context"
	"strings"
	"time"
)

type EventType string

const (
	EventLoginSucceeded   EventType = "LOGIN_SUCCEEDED"
	EventLoginFailed      EventType = "LOGIN_FAILED"
	EventLogout           EventType = "LOGOUT"
	EventRateLimited      EventType = "RATE_LIMITED"
	EventNotAuthenticated EventType = "NOT_AUTHENTICATED"
	EventForbidden        EventType = "FORBIDDEN"
	EventTransientError   EventType = "TRANSIENT_ERROR"
	EventUserCreated      EventType = "USER_CREATED"
	EventUserDeleted      EventType = "USER_DELETED"
	EventPasswordChanged  EventType = "PASSWORD_CHANGED"
	EventRoleChanged      EventType = "ROLE_CHANGED"
	EventJobSubmitted     EventType = "JOB_SUBMITTED"
	EventJobDeleted       EventType = "JOB_DELETED"
	EventConfigWarning    EventType = "CONFIG_WARNING"
)

// Denial reports whether the event records a refused request.
func (t EventType) Denial() bool {
	switch t {
	case EventLoginFailed, EventRateLimited, EventNotAuthenticated, EventForbidden, EventTransientError:
		return true
	}
	return false
}

// Event is one append-only security record.
type Event struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Type       EventType         `json:"type"`
	SubjectKey string            `json:"subject"`
	RequestID  string            `json:"request_id,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

const redacted = "[REDACTED]"

var sensitiveKeys = []string{"password", "token", "hash", "secret", "cookie", "authorization"}

// redact copies metadata, masking values whose key names a credential.
func redact(metadata map[string]string) map[string]string {
	if len(metadata) == 0 {
		return nil
	}
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		lk := strings.ToLower(k)
		for _, s := range sensitiveKeys {
			if strings.Contains(lk, s) {
				v = redacted
				break
			}
		}
		out[k] = v
	}
	return out
}

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier recorded with every event.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}
