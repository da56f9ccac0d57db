package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/labdesk/identity/internal/core/ports"
)

type ImpersonationHandler struct {
	impersonation ports.ImpersonationService
	authService   ports.AuthService
}

func NewImpersonationHandler(impersonation ports.ImpersonationService, authService ports.AuthService) *ImpersonationHandler {
	return &ImpersonationHandler{impersonation: impersonation, authService: authService}
}

// Start makes the scope act as the target account.
//
// @Summary      Start impersonation
// @Tags         impersonation
// @Accept       json
// @Produce      json
// @Param        X-Session-ID  header    string                     true  "Session scope id"
// @Param        body          body      startImpersonationRequest  true  "Target account"
// @Success      200           {object}  sessionResponse
// @Failure      401           {object}  map[string]string
// @Failure      403           {object}  map[string]string
// @Failure      409           {object}  map[string]string
// @Router       /v1/impersonation [post]
func (h *ImpersonationHandler) Start(c echo.Context) error {
	scope, err := ctxScope(c)
	if err != nil {
		return err
	}

	var req startImpersonationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := h.impersonation.Start(ctx, scope, req.TargetUserID); err != nil {
		return err
	}
	return h.reload(c, scope)
}

// End drops the scope back to the administrator.
//
// @Summary      End impersonation
// @Tags         impersonation
// @Produce      json
// @Param        X-Session-ID  header    string  true  "Session scope id"
// @Success      200           {object}  sessionResponse
// @Failure      401           {object}  map[string]string
// @Failure      422           {object}  map[string]string
// @Router       /v1/impersonation [delete]
func (h *ImpersonationHandler) End(c echo.Context) error {
	scope, err := ctxScope(c)
	if err != nil {
		return err
	}

	if err := h.impersonation.End(c.Request().Context(), scope); err != nil {
		return err
	}
	return h.reload(c, scope)
}

// reload re-resolves the whole session after a transition.
func (h *ImpersonationHandler) reload(c echo.Context, scope string) error {
	view, err := h.authService.Session(c.Request().Context(), scope)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newSessionResponse(scope, view))
}
