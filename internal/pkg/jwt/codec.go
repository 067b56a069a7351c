// internal/pkg/jwt/codec.go
package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"jobboard-service/internal/domain/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

const (
	DefaultTTL    = 7 * 24 * time.Hour
	DefaultIssuer = "jobboard"
)

// Verification failures. They are for logs only; callers answer every one of
// them with the same NOT_AUTHENTICATED rejection.
var (
	ErrMalformed    = errors.New("token malformed")
	ErrExpired      = errors.New("token expired")
	ErrBadSignature = errors.New("token signature invalid")
)

// Codec issues and verifies HS256 session tokens for a single secret.
type Codec struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Codec)

func WithIssuer(issuer string) Option {
	return func(c *Codec) {
		if issuer = strings.TrimSpace(issuer); issuer != "" {
			c.issuer = issuer
		}
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(c *Codec) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCodec builds a codec. Secret strength policy is enforced by config; the
// codec only refuses an empty secret.
func NewCodec(secret []byte, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("jwt codec requires a signing secret")
	}
	c := &Codec{
		secret: append([]byte(nil), secret...),
		issuer: DefaultIssuer,
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL is the fixed session lifetime.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// NewClaims stamps claims for userID issued now and expiring after the TTL.
// Times are truncated to seconds, the precision of the wire format.
func (c *Codec) NewClaims(userID int64, role auth.Role) SessionClaims {
	now := c.now().UTC().Truncate(time.Second)
	return SessionClaims{
		UserID:    userID,
		Role:      role,
		IssuedAt:  now,
		ExpiresAt: now.Add(c.ttl),
	}
}

// Issue signs claims and returns the compact token.
func (c *Codec) Issue(claims SessionClaims) (string, error) {
	if claims.UserID <= 0 {
		return "", fmt.Errorf("jwt: user id is required")
	}
	if !claims.ExpiresAt.After(claims.IssuedAt) {
		return "", fmt.Errorf("jwt: expiry must follow issuance")
	}

	tc := &tokenClaims{
		UserID: claims.UserID,
		Role:   string(claims.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   strconv.FormatInt(claims.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
			ID:        ulid.Make().String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}

// Verify is the one verification path: HS256 only, strict base64url,
// mandatory exp/iat, matching issuer, constant-time MAC comparison.
func (c *Codec) Verify(token string) (*SessionClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMalformed
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(c.issuer),
		jwt.WithTimeFunc(c.now),
	)

	tc := &tokenClaims{}
	parsed, err := parser.ParseWithClaims(token, tc, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !parsed.Valid {
		return nil, ErrMalformed
	}
	if tc.UserID <= 0 || tc.Subject != strconv.FormatInt(tc.UserID, 10) {
		return nil, fmt.Errorf("%w: subject mismatch", ErrMalformed)
	}
	return tc.session(), nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
