package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/labdesk/identity/internal/core/domain"
)

// RBAC enforces role-based access control. Impersonation tokens never pass,
// whatever the impersonated role.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(RoleKey).(string)
			if _, ok := allowed[role]; !ok {
				return c.JSON(http.StatusForbidden, map[string]any{"success": false, "error": "forbidden"})
			}
			if claims, ok := c.Get(ClaimsKey).(*domain.TokenClaims); ok && claims.ImpersonationSessionID != "" {
				return c.JSON(http.StatusForbidden, map[string]any{"success": false, "error": "forbidden"})
			}
			return next(c)
		}
	}
}
