package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/labdesk/identity/internal/core/ports"
)

type SessionHandler struct {
	authService ports.AuthService
}

func NewSessionHandler(authService ports.AuthService) *SessionHandler {
	return &SessionHandler{authService: authService}
}

// Session returns the identity and capabilities the scope currently acts as.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Param        X-Session-ID  header    string  true  "Session scope id"
// @Success      200           {object}  sessionResponse
// @Failure      401           {object}  map[string]string
// @Router       /v1/session [get]
func (h *SessionHandler) Session(c echo.Context) error {
	scope, err := ctxScope(c)
	if err != nil {
		return err
	}

	view, err := h.authService.Session(c.Request().Context(), scope)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newSessionResponse(scope, view))
}

// StageAccess evaluates the stage predicates for one stage id.
//
// @Summary      Stage access
// @Tags         session
// @Produce      json
// @Param        X-Session-ID  header    string  true  "Session scope id"
// @Param        stage         path      string  true  "Stage id"
// @Success      200           {object}  stageAccessResponse
// @Failure      401           {object}  map[string]string
// @Router       /v1/session/stages/{stage} [get]
func (h *SessionHandler) StageAccess(c echo.Context) error {
	scope, err := ctxScope(c)
	if err != nil {
		return err
	}

	view, err := h.authService.Session(c.Request().Context(), scope)
	if err != nil {
		return err
	}

	stage := strings.TrimSpace(c.Param("stage"))
	caps := view.Identity.Capabilities
	return c.JSON(http.StatusOK, stageAccessResponse{
		Stage:     stage,
		CanAccess: caps.CanAccessStage(stage),
		CanEdit:   caps.CanEditStage(stage),
	})
}

// UpdateProfile edits the laboratory profile of the session and returns the
// reloaded session.
//
// @Summary      Update laboratory profile
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        X-Session-ID  header    string                true  "Session scope id"
// @Param        body          body      updateProfileRequest  true  "Fields to change"
// @Success      200           {object}  sessionResponse
// @Failure      400           {object}  map[string]string
// @Failure      401           {object}  map[string]string
// @Failure      403           {object}  map[string]string
// @Router       /v1/profile [put]
func (h *SessionHandler) UpdateProfile(c echo.Context) error {
	scope, err := ctxScope(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	view, err := h.authService.UpdateProfile(c.Request().Context(), scope, req.toPatch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newSessionResponse(scope, view))
}
