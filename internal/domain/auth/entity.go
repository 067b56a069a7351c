// internal/domain/auth/entity.go
package auth

import (
	"strings"
	"time"
)

// Role is the coarse privilege level of a principal.
type Role string

const (
	RoleNone        Role = ""
	RoleUser        Role = "USER"
	RoleCorporation Role = "CORPORATION"
	RoleAdmin       Role = "ADMIN"
)

// ParseRole normalises a stored or submitted role name.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, true
	case RoleCorporation:
		return RoleCorporation, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return RoleNone, false
}

// Satisfies reports whether r meets required. ADMIN satisfies every role;
// ownership-scoped writes are checked separately.
func (r Role) Satisfies(required Role) bool {
	if required == RoleNone {
		return true
	}
	return r == required || r == RoleAdmin
}

func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// Principal is the authoritative identity record resolved from the user store.
type Principal struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	CompanyID    *int64    `json:"company_id,omitempty" db:"company_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// NormalizeEmail is the canonical form used for lookups and rate-limit keys.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
