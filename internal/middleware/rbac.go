package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vetcare/clinic-api/internal/models"
	appErrors "github.com/vetcare/clinic-api/pkg/errors"
	"github.com/vetcare/clinic-api/pkg/response"
)

// VetSelf is a pseudo-role: a VET user passes only when the vet id in the
// route (or the vet_id query parameter) matches the vet bound to their
// account. Admins and receptionists should be granted via their own roles.
const VetSelf = "VET_SELF"

// RBAC enforces role-based access control for routes.
func RBAC(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		allowVetSelf := false
		allowedRoles := make(map[models.UserRole]struct{})
		for _, a := range allowed {
			if a == VetSelf {
				allowVetSelf = true
				continue
			}
			allowedRoles[models.UserRole(a)] = struct{}{}
		}

		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}

		if allowVetSelf && claims.Role == models.RoleVet && claims.VetID != nil {
			if target, ok := requestedVetID(c); ok && target == *claims.VetID {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireRoles is a helper that accepts a list of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}

func requestedVetID(c *gin.Context) (int64, bool) {
	raw := c.Param("vetId")
	if raw == "" {
		raw = c.Query("vet_id")
	}
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
