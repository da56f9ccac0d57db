package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/labdesk/identity/internal/api/middleware"
	"github.com/labdesk/identity/internal/core/domain"
)

// ctxClaims extracts the auth claims injected by the Auth middleware. A
// missing value means the route was mounted without Auth: reject with 401.
func ctxClaims(c echo.Context) (*domain.TokenClaims, error) {
	claims, _ := c.Get(middleware.ClaimsKey).(*domain.TokenClaims)
	if claims == nil || claims.AccountID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return claims, nil
}

// ctxScope extracts the session scope id set by the SessionScope middleware.
func ctxScope(c echo.Context) (string, error) {
	scope, _ := c.Get(middleware.ScopeKey).(string)
	if scope == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing session id")
	}
	return scope, nil
}

// ctxPriorScope returns the scope id a sign-in request arrived with, if any.
func ctxPriorScope(c echo.Context) string {
	prior, _ := c.Get(middleware.PriorScopeKey).(string)
	return prior
}

// bindAndValidate decodes the request body into req and runs the
// validator registered on the Echo instance.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
