package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/labdesk/identity/internal/core/ports"
)

// FunctionsHandler serves the impersonation functions. Routes are mounted
// behind Auth and RBAC(admin).
type FunctionsHandler struct {
	issuer ports.ImpersonationIssuer
}

func NewFunctionsHandler(issuer ports.ImpersonationIssuer) *FunctionsHandler {
	return &FunctionsHandler{issuer: issuer}
}

// ImpersonateUser issues an impersonation token pair for the target.
//
// @Summary      Impersonate a user
// @Tags         functions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      impersonateUserRequest  true  "Target account"
// @Success      200   {object}  impersonateUserResponse
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /functions/impersonate-user [post]
func (h *FunctionsHandler) ImpersonateUser(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req impersonateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	grant, err := h.issuer.Issue(c.Request().Context(), claims, req.TargetUserID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, impersonateUserResponse{
		Success:      true,
		SessionID:    grant.SessionID,
		AdminUser:    functionUser{ID: grant.AdminUser.ID, Email: grant.AdminUser.Email},
		TargetUser:   functionUser{ID: grant.TargetUser.ID, Email: grant.TargetUser.Email},
		ExpiresAt:    grant.ExpiresAt,
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
	})
}

// EndImpersonation ends an impersonation session of the caller.
//
// @Summary      End an impersonation session
// @Tags         functions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      endImpersonationRequest  true  "Session to end"
// @Success      200   {object}  successResponse
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /functions/end-impersonation [post]
func (h *FunctionsHandler) EndImpersonation(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req endImpersonationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.issuer.Revoke(c.Request().Context(), claims, req.SessionID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successResponse{Success: true})
}
