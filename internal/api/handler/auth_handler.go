package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/labdesk/identity/internal/core/domain"
	"github.com/labdesk/identity/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a user account. Administrators are provisioned out of band.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account credentials"
// @Success      201   {object}  accountResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	account, err := h.authService.Register(c.Request().Context(), req.Email, req.Password, domain.RoleUser)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, accountResponse{ID: account.ID, Email: account.Email, Role: account.Role})
}

// SignIn authenticates and binds the token pair to a freshly minted session
// scope. A scope id sent with the request is never reused: once the
// credentials check out, its records are discarded.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        X-Session-ID  header    string         false  "Previous session scope id, discarded"
// @Param        body          body      signInRequest  true   "Credentials"
// @Success      200           {object}  sessionResponse
// @Failure      400           {object}  map[string]string
// @Failure      401           {object}  map[string]string
// @Router       /auth/sign-in [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	scope, err := ctxScope(c)
	if err != nil {
		return err
	}

	var req signInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	view, err := h.authService.SignIn(ctx, scope, req.Email, req.Password)
	if err != nil {
		return err
	}

	if prior := ctxPriorScope(c); prior != "" && prior != scope {
		if err := h.authService.Discard(ctx, prior); err != nil {
			return err
		}
	}

	return c.JSON(http.StatusOK, newSessionResponse(scope, view))
}

// SignOut clears the session scope. While impersonating it ends the
// impersonation and the scope drops back to the administrator.
//
// @Summary      Sign out
// @Tags         auth
// @Param        X-Session-ID  header  string  true  "Session scope id"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /auth/sign-out [post]
func (h *AuthHandler) SignOut(c echo.Context) error {
	scope, err := ctxScope(c)
	if err != nil {
		return err
	}

	if err := h.authService.SignOut(c.Request().Context(), scope); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
