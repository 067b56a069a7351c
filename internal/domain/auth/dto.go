// internal/domain/auth/dto.go
package auth

import "time"

// LoginRequest for user login
type LoginRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResult is what the service hands back to the handler; the token only
// ever leaves the process inside the session cookie.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      UserInfo
}

// LoginResponse successful login response body
type LoginResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

// UserInfo minimal user information
type UserInfo struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	CompanyID *int64 `json:"company_id,omitempty"`
}

func NewUserInfo(p *Principal) UserInfo {
	return UserInfo{ID: p.ID, Email: p.Email, Role: p.Role, CompanyID: p.CompanyID}
}

// ChangePasswordRequest for password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// CreateUserRequest for admin provisioning
type CreateUserRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Role      string `json:"role" binding:"required"`
	CompanyID *int64 `json:"company_id"`
}

// ChangeRoleRequest for admin role mutation
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}
