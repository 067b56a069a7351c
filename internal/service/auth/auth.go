// internal/service/auth/auth.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"jobboard-service/internal/domain/auth"
	"jobboard-service/internal/pkg/audit"
	xerrors "jobboard-service/internal/pkg/errors"
	"jobboard-service/internal/pkg/jwt"
	"jobboard-service/internal/pkg/metrics"
	"jobboard-service/internal/pkg/password"
	"jobboard-service/internal/pkg/ratelimit"

	"go.uber.org/zap"
)

// CredentialStore is what login and password change need from the user store.
type CredentialStore interface {
	PrincipalStore
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
}

type ServiceConfig struct {
	LoginPolicy   ratelimit.Policy
	BcryptCost    int
	LookupTimeout time.Duration
}

type AuthService struct {
	store   CredentialStore
	codec   *jwt.Codec
	limiter *ratelimit.Limiter
	audit   *audit.Logger
	metrics *metrics.Metrics
	logger  *zap.Logger
	cfg     ServiceConfig
}

func NewAuthService(
	store CredentialStore,
	codec *jwt.Codec,
	limiter *ratelimit.Limiter,
	auditLogger *audit.Logger,
	m *metrics.Metrics,
	logger *zap.Logger,
	cfg ServiceConfig,
) *AuthService {
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = DefaultLookupTimeout
	}
	if cfg.BcryptCost < password.MinCost {
		cfg.BcryptCost = password.DefaultCost
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		store:   store,
		codec:   codec,
		limiter: limiter,
		audit:   auditLogger,
		metrics: m,
		logger:  logger,
		cfg:     cfg,
	}
}

// ========== Login ==========

// Login throttles on the normalised email, verifies the password and issues
// a session token. Unknown email and wrong password are indistinguishable to
// the caller.
func (s *AuthService) Login(ctx context.Context, req *auth.LoginRequest) (*auth.LoginResult, error) {
	email := auth.NormalizeEmail(req.Email)
	subject := "email:" + email
	meta := map[string]string{"ip": req.IPAddress, "user_agent": req.UserAgent}

	if err := s.throttle(ctx, email, subject, meta); err != nil {
		return nil, err
	}

	principal, err := withTimeout(ctx, s.cfg.LookupTimeout, func(ctx context.Context) (*auth.Principal, error) {
		return s.store.FindByEmail(ctx, email)
	})
	switch {
	case errors.Is(err, xerrors.ErrNotFound):
		password.VerifyDummy(req.Password)
		return nil, s.loginFailed(ctx, subject, "unknown_email", meta)
	case err != nil:
		s.logger.Error("principal lookup failed during login", zap.Error(err))
		return nil, s.reject(ctx, xerrors.ReasonTransient, subject, err, meta)
	}

	if !password.Verify(req.Password, principal.PasswordHash) {
		return nil, s.loginFailed(ctx, subject, "wrong_password", meta)
	}

	claims := s.codec.NewClaims(principal.ID, principal.Role)
	token, err := s.codec.Issue(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	meta["user_id"] = strconv.FormatInt(principal.ID, 10)
	meta["role"] = string(principal.Role)
	s.audit.Record(ctx, audit.EventLoginSucceeded, subject, meta)

	s.logger.Info("user logged in",
		zap.Int64("user_id", principal.ID),
		zap.String("role", string(principal.Role)),
	)

	return &auth.LoginResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAt,
		User:      auth.NewUserInfo(principal),
	}, nil
}

// Logout records the end of a session. Tokens are not revocable, so the only
// effect besides the audit entry is the cleared cookie the handler writes.
func (s *AuthService) Logout(ctx context.Context, token string) {
	claims, err := s.codec.Verify(token)
	if err != nil {
		return
	}
	s.audit.Record(ctx, audit.EventLogout, subjectKey(claims.UserID), nil)
}

// ========== Password ==========

// ChangePassword replaces the password of actor after checking the current
// one. It shares the login throttle so it cannot be used to guess passwords.
func (s *AuthService) ChangePassword(ctx context.Context, actor *auth.Principal, req *auth.ChangePasswordRequest) error {
	subject := subjectKey(actor.ID)
	meta := map[string]string{"action": "change_password"}

	if err := s.throttle(ctx, auth.NormalizeEmail(actor.Email), subject, meta); err != nil {
		return err
	}

	if !password.Verify(req.CurrentPassword, actor.PasswordHash) {
		return s.loginFailed(ctx, subject, "wrong_password", meta)
	}
	if req.NewPassword == req.CurrentPassword {
		return fmt.Errorf("%w: new password must differ from the current one", xerrors.ErrInvalidInput)
	}

	hash, err := password.Hash(req.NewPassword, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePasswordHash(ctx, actor.ID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.audit.Record(ctx, audit.EventPasswordChanged, subject, nil)
	return nil
}

func (s *AuthService) throttle(ctx context.Context, email, subject string, meta map[string]string) error {
	res, err := s.limiter.Allow(ctx, s.cfg.LoginPolicy, email)
	if err != nil {
		s.logger.Error("login rate limiter unavailable", zap.Error(err))
		return s.reject(ctx, xerrors.ReasonTransient, subject, err, meta)
	}
	if res.Allowed {
		return nil
	}

	meta["policy"] = s.cfg.LoginPolicy.Name
	meta["reset_time"] = res.ResetTime.UTC().Format(time.RFC3339)
	s.audit.Record(ctx, audit.EventRateLimited, subject, meta)
	s.metrics.ObserveRejection(string(xerrors.ReasonRateLimited))
	return xerrors.RateLimited(res.Remaining, res.ResetTime)
}

func (s *AuthService) loginFailed(ctx context.Context, subject, failure string, meta map[string]string) error {
	meta["failure"] = failure
	s.audit.Record(ctx, audit.EventLoginFailed, subject, meta)
	s.metrics.ObserveRejection(string(xerrors.ReasonNotAuthenticated))
	return xerrors.InvalidCredentials(errors.New(failure))
}

func (s *AuthService) reject(ctx context.Context, reason xerrors.Reason, subject string, cause error, meta map[string]string) error {
	meta["cause"] = cause.Error()
	s.audit.Record(ctx, eventFor(reason), subject, meta)
	s.metrics.ObserveRejection(string(reason))
	return xerrors.Reject(reason, cause)
}
