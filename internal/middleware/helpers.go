// internal/middleware/helpers.go
package middleware

import (
	"jobboard-service/internal/domain/auth"

	"github.com/gin-gonic/gin"
)

// GetPrincipal returns the principal resolved by the auth middleware.
func GetPrincipal(c *gin.Context) (*auth.Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return nil, false
	}
	p, ok := v.(*auth.Principal)
	return p, ok && p != nil
}

// MustGetPrincipal gets the principal from context or panics
func MustGetPrincipal(c *gin.Context) *auth.Principal {
	p, ok := GetPrincipal(c)
	if !ok {
		panic("principal not found in context")
	}
	return p
}
