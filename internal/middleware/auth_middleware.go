// internal/middleware/auth_middleware.go
package middleware

import (
	"strconv"

	"jobboard-service/internal/domain/auth"
	"jobboard-service/internal/pkg/response"
	authsvc "jobboard-service/internal/service/auth"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// AuthMiddleware puts the Guard in front of routes. Handlers behind it read
// the resolved principal with GetPrincipal and never look at the token.
type AuthMiddleware struct {
	guard *authsvc.Guard
}

func NewAuthMiddleware(guard *authsvc.Guard) *AuthMiddleware {
	return &AuthMiddleware{
		guard: guard,
	}
}

// Auth admits any authenticated principal.
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return m.RequireRole(auth.RoleNone)
}

// RequireRole admits principals whose current role satisfies role.
func (m *AuthMiddleware) RequireRole(role auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.authorize(c, authsvc.Rule{Role: role}) {
			c.Next()
		}
	}
}

// AdminOnly is RequireRole(ADMIN).
func (m *AuthMiddleware) AdminOnly() gin.HandlerFunc {
	return m.RequireRole(auth.RoleAdmin)
}

// RequireOwner admits principals with role that own the resource named by
// the path parameter param. ADMIN gets no ownership bypass.
func (m *AuthMiddleware) RequireOwner(role auth.Role, param string, check authsvc.OwnershipCheck) gin.HandlerFunc {
	return m.owner(role, param, check, false)
}

// RequireOwnerOrAdmin is RequireOwner with the ADMIN moderation override.
func (m *AuthMiddleware) RequireOwnerOrAdmin(role auth.Role, param string, check authsvc.OwnershipCheck) gin.HandlerFunc {
	return m.owner(role, param, check, true)
}

func (m *AuthMiddleware) owner(role auth.Role, param string, check authsvc.OwnershipCheck, adminOverride bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param(param), 10, 64)
		if err != nil || id <= 0 {
			// authenticate before saying anything about the request
			if m.authorize(c, authsvc.Rule{Role: role}) {
				response.ValidationError(c, "invalid "+param, nil)
			}
			return
		}

		rule := authsvc.Rule{
			Role:                    role,
			Ownership:               check,
			ResourceID:              id,
			AdminOverridesOwnership: adminOverride,
		}
		if m.authorize(c, rule) {
			c.Next()
		}
	}
}

func (m *AuthMiddleware) authorize(c *gin.Context, rule authsvc.Rule) bool {
	principal, err := m.guard.Authorize(c.Request.Context(), c.Request, rule)
	if err != nil {
		response.Reject(c, err)
		return false
	}
	c.Set(principalKey, principal)
	return true
}
