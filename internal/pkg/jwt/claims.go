// internal/pkg/jwt/claims.go
package jwt

import (
	"time"

	"jobboard-service/internal/domain/auth"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the identity carried by a session token. It is only
// trustworthy when it came out of Codec.Verify.
type SessionClaims struct {
	UserID    int64
	Role      auth.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// tokenClaims is the wire form of SessionClaims.
type tokenClaims struct {
	UserID int64  `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (c *tokenClaims) session() *SessionClaims {
	s := &SessionClaims{
		UserID: c.UserID,
		Role:   auth.Role(c.Role),
	}
	if c.IssuedAt != nil {
		s.IssuedAt = c.IssuedAt.Time.UTC()
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time.UTC()
	}
	return s
}
