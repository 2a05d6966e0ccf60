// Package middleware resolves the caller's principal and gates routes by
// role. Authentication itself is external; the gateway injects the verified
// identity as headers and this service trusts them.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-lifeline/types"
)

const principalKey = "principal"

var validRoles = map[types.Role]bool{
	types.RoleReporter:    true,
	types.RoleResponder:   true,
	types.RoleCoordinator: true,
}

// Principal extracts the caller identity from the X-User-* headers. Requests
// without a valid identity are rejected before any handler runs.
func Principal() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := types.Principal{
			ID:   c.GetHeader("X-User-Id"),
			Name: c.GetHeader("X-User-Name"),
			Role: types.Role(c.GetHeader("X-User-Role")),
		}
		if p.ID == "" || !validRoles[p.Role] {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid principal"})
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// RequireRole only lets the listed roles through. One guard for every route;
// no handler re-derives authorization.
func RequireRole(roles ...types.Role) gin.HandlerFunc {
	allowed := make(map[types.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok || !allowed[p.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "role not permitted"})
			return
		}
		c.Next()
	}
}

// GetPrincipal returns the principal set by the Principal middleware.
func GetPrincipal(c *gin.Context) (types.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return types.Principal{}, false
	}
	p, ok := v.(types.Principal)
	return p, ok
}
