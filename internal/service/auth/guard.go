// internal/service/auth/guard.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"jobboard-service/internal/domain/auth"
	"jobboard-service/internal/pkg/audit"
	xerrors "jobboard-service/internal/pkg/errors"
	"jobboard-service/internal/pkg/jwt"
	"jobboard-service/internal/pkg/metrics"
	"jobboard-service/internal/pkg/session"

	"go.uber.org/zap"
)

const DefaultLookupTimeout = 2 * time.Second

// PrincipalStore is the read-only view of the user store the core needs.
type PrincipalStore interface {
	FindByID(ctx context.Context, id int64) (*auth.Principal, error)
	FindByEmail(ctx context.Context, email string) (*auth.Principal, error)
}

// OwnershipCheck reports whether principal owns the resource with resourceID.
type OwnershipCheck func(ctx context.Context, principal *auth.Principal, resourceID int64) (bool, error)

// Rule is what a protected operation requires of its caller.
type Rule struct {
	Role       auth.Role
	Ownership  OwnershipCheck
	ResourceID int64
	// AdminOverridesOwnership lets an ADMIN skip the ownership check. It is
	// off unless an operation opts in.
	AdminOverridesOwnership bool
}

// Guard is the single authorization path: cookie, token verification,
// principal re-resolution, role and ownership.
type Guard struct {
	codec         *jwt.Codec
	store         PrincipalStore
	audit         *audit.Logger
	metrics       *metrics.Metrics
	logger        *zap.Logger
	lookupTimeout time.Duration
}

func NewGuard(
	codec *jwt.Codec,
	store PrincipalStore,
	auditLogger *audit.Logger,
	m *metrics.Metrics,
	logger *zap.Logger,
	lookupTimeout time.Duration,
) *Guard {
	if lookupTimeout <= 0 {
		lookupTimeout = DefaultLookupTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{
		codec:         codec,
		store:         store,
		audit:         auditLogger,
		metrics:       m,
		logger:        logger,
		lookupTimeout: lookupTimeout,
	}
}

// Authorize authorizes the request carried by r against rule. Every error is
// a *xerrors.Rejection. The returned principal is the only identity callers
// may trust for the rest of the request.
func (g *Guard) Authorize(ctx context.Context, r *http.Request, rule Rule) (*auth.Principal, error) {
	meta := requestMeta(r)
	token, ok := session.TokenFromRequest(r)
	if !ok {
		return nil, g.reject(ctx, xerrors.ReasonNotAuthenticated, "anonymous", errors.New("no session cookie"), meta)
	}
	return g.authorize(ctx, token, rule, meta)
}

// AuthorizeToken runs the same checks for an already extracted token.
func (g *Guard) AuthorizeToken(ctx context.Context, token string, rule Rule) (*auth.Principal, error) {
	return g.authorize(ctx, token, rule, map[string]string{})
}

func (g *Guard) authorize(ctx context.Context, token string, rule Rule, meta map[string]string) (*auth.Principal, error) {
	claims, err := g.codec.Verify(token)
	if err != nil {
		meta["failure"] = verifyFailure(err)
		return nil, g.reject(ctx, xerrors.ReasonNotAuthenticated, "anonymous", err, meta)
	}

	subject := subjectKey(claims.UserID)
	principal, err := withTimeout(ctx, g.lookupTimeout, func(ctx context.Context) (*auth.Principal, error) {
		return g.store.FindByID(ctx, claims.UserID)
	})
	switch {
	case errors.Is(err, xerrors.ErrNotFound):
		meta["failure"] = "principal_missing"
		return nil, g.reject(ctx, xerrors.ReasonNotAuthenticated, subject, err, meta)
	case err != nil:
		meta["failure"] = "principal_lookup"
		return nil, g.reject(ctx, xerrors.ReasonTransient, subject, err, meta)
	}

	if principal.Role != claims.Role {
		g.logger.Debug("role changed since token issuance",
			zap.Int64("user_id", principal.ID),
			zap.String("token_role", string(claims.Role)),
			zap.String("current_role", string(principal.Role)),
		)
	}

	if !principal.Role.Satisfies(rule.Role) {
		meta["required_role"] = string(rule.Role)
		meta["role"] = string(principal.Role)
		return nil, g.reject(ctx, xerrors.ReasonForbidden, subject,
			fmt.Errorf("role %s does not satisfy %s", principal.Role, rule.Role), meta)
	}

	if rule.Ownership == nil {
		return principal, nil
	}
	if rule.AdminOverridesOwnership && principal.Role == auth.RoleAdmin {
		return principal, nil
	}

	owned, err := withTimeout(ctx, g.lookupTimeout, func(ctx context.Context) (bool, error) {
		return rule.Ownership(ctx, principal, rule.ResourceID)
	})
	meta["resource_id"] = strconv.FormatInt(rule.ResourceID, 10)
	switch {
	case errors.Is(err, xerrors.ErrNotFound):
		// a missing resource answers the same as one owned by someone else
		return nil, g.reject(ctx, xerrors.ReasonForbidden, subject, err, meta)
	case err != nil:
		meta["failure"] = "ownership_lookup"
		return nil, g.reject(ctx, xerrors.ReasonTransient, subject, err, meta)
	case !owned:
		return nil, g.reject(ctx, xerrors.ReasonForbidden, subject, errors.New("not the owner"), meta)
	}
	return principal, nil
}

// RefuseSelf rejects operations where actor targets their own account.
func (g *Guard) RefuseSelf(ctx context.Context, actor *auth.Principal, targetID int64, action string) error {
	if actor == nil || actor.ID != targetID {
		return nil
	}
	return g.reject(ctx, xerrors.ReasonForbidden, subjectKey(actor.ID),
		fmt.Errorf("%s on own account refused", action),
		map[string]string{"action": action, "target_id": strconv.FormatInt(targetID, 10)})
}

func (g *Guard) reject(ctx context.Context, reason xerrors.Reason, subject string, cause error, meta map[string]string) *xerrors.Rejection {
	if cause != nil {
		meta["cause"] = cause.Error()
	}
	g.audit.Record(ctx, eventFor(reason), subject, meta)
	g.metrics.ObserveRejection(string(reason))
	return xerrors.Reject(reason, cause)
}

func eventFor(reason xerrors.Reason) audit.EventType {
	switch reason {
	case xerrors.ReasonNotAuthenticated:
		return audit.EventNotAuthenticated
	case xerrors.ReasonForbidden:
		return audit.EventForbidden
	case xerrors.ReasonRateLimited:
		return audit.EventRateLimited
	default:
		return audit.EventTransientError
	}
}

func verifyFailure(err error) string {
	switch {
	case errors.Is(err, jwt.ErrExpired):
		return "expired"
	case errors.Is(err, jwt.ErrBadSignature):
		return "bad_signature"
	default:
		return "malformed"
	}
}

func subjectKey(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}

func requestMeta(r *http.Request) map[string]string {
	meta := map[string]string{}
	if r == nil {
		return meta
	}
	meta["method"] = r.Method
	if r.URL != nil {
		meta["path"] = r.URL.Path
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		meta["remote_ip"] = host
	}
	return meta
}

// withTimeout runs fn under a deadline and returns when the deadline passes
// even if fn ignores its context.
func withTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	select {
	case res := <-done:
		return res.val, res.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%w: %v", xerrors.ErrTransient, ctx.Err())
	}
}
