package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// HeaderSessionID names the session scope of a request.
	HeaderSessionID = "X-Session-ID"
	// ScopeKey is the context key holding the session scope id.
	ScopeKey = "session_scope"
	// PriorScopeKey holds the well-formed scope id a minting request
	// arrived with, so the handler can clear it.
	PriorScopeKey = "prior_session_scope"
)

// SessionScope reads the session scope id from X-Session-ID and rejects
// requests without one. With mint set, a fresh scope is always generated and
// a supplied id is only recorded under PriorScopeKey. The scope id is echoed
// back on the response.
func SessionScope(mint bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			scope := c.Request().Header.Get(HeaderSessionID)
			switch {
			case mint:
				if prior, err := uuid.Parse(scope); scope != "" && err == nil {
					c.Set(PriorScopeKey, prior.String())
				}
				scope = uuid.NewString()
			case scope == "":
				return echo.NewHTTPError(http.StatusUnauthorized, "missing session id")
			default:
				id, err := uuid.Parse(scope)
				if err != nil {
					return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
				}
				scope = id.String()
			}

			c.Set(ScopeKey, scope)
			c.Response().Header().Set(HeaderSessionID, scope)
			return next(c)
		}
	}
}
