package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/labdesk/identity/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
// SessionID is set on impersonation conflicts so callers can end the
// blocking session.
type errorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	SessionID string `json:"sessionId,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"success": false, "error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		res := errorResponse{Error: msg}

		var conflict *domain.ImpersonationConflictError
		if errors.As(err, &conflict) {
			res.SessionID = conflict.SessionID
		}
		_ = c.JSON(code, res)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrNoActiveSession):
		return http.StatusUnauthorized, domain.ErrNoActiveSession.Error()
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, "account not found"
	case errors.Is(err, domain.ErrImpersonationNotFound):
		return http.StatusNotFound, domain.ErrImpersonationNotFound.Error()
	case errors.Is(err, domain.ErrAccountExists):
		return http.StatusConflict, "account already exists"
	case errors.Is(err, domain.ErrImpersonationConflict):
		return http.StatusConflict, domain.ErrImpersonationConflict.Error()
	case errors.Is(err, domain.ErrImpersonationActive):
		return http.StatusConflict, domain.ErrImpersonationActive.Error()
	case errors.Is(err, domain.ErrNoAdminSession):
		return http.StatusUnprocessableEntity, domain.ErrNoAdminSession.Error()
	case errors.Is(err, domain.ErrSelfImpersonation):
		return http.StatusUnprocessableEntity, domain.ErrSelfImpersonation.Error()
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
