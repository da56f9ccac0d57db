package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/labdesk/identity/internal/core/domain"
)

// Context keys set by Auth.
const (
	ClaimsKey    = "claims"
	RoleKey      = "role"
	AccountIDKey = "account_id"
)

// TokenVerifier verifies bearer access tokens.
type TokenVerifier interface {
	Verify(accessToken string) (*domain.TokenClaims, error)
}

// Auth validates the bearer JWT and injects its claims into context.
func Auth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := verifier.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(ClaimsKey, claims)
			c.Set(RoleKey, claims.Role)
			c.Set(AccountIDKey, claims.AccountID)

			return next(c)
		}
	}
}
