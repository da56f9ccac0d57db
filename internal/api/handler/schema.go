package handler

import (
	"time"

	"github.com/labdesk/identity/internal/core/domain"
	"github.com/labdesk/identity/internal/core/ports"
)

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type signInRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type updateProfileRequest struct {
	CompanyName *string `json:"company_name" validate:"omitempty,min=1,max=200"`
	ContactName *string `json:"contact_name" validate:"omitempty,max=200"`
	Email       *string `json:"email"        validate:"omitempty,email"`
	Phone       *string `json:"phone"        validate:"omitempty,max=50"`
	Address     *string `json:"address"      validate:"omitempty,max=300"`
	City        *string `json:"city"         validate:"omitempty,max=100"`
	ZipCode     *string `json:"zip_code"     validate:"omitempty,max=20"`
	Country     *string `json:"country"      validate:"omitempty,max=100"`
}

func (r updateProfileRequest) toPatch() domain.ProfilePatch {
	return domain.ProfilePatch(r)
}

type startImpersonationRequest struct {
	TargetUserID string `json:"targetUserId" validate:"required"`
}

// Function contracts.

type impersonateUserRequest struct {
	TargetUserID string `json:"targetUserId" validate:"required"`
}

type endImpersonationRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
}

type functionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type impersonateUserResponse struct {
	Success      bool         `json:"success"`
	SessionID    string       `json:"sessionId"`
	AdminUser    functionUser `json:"adminUser"`
	TargetUser   functionUser `json:"targetUser"`
	ExpiresAt    time.Time    `json:"expiresAt"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// sessionResponse is the public view of a session scope.
type sessionResponse struct {
	SessionID     string                       `json:"session_id"`
	Role          string                       `json:"role"`
	Identity      *domain.Identity             `json:"identity"`
	Impersonation *domain.ImpersonationSession `json:"impersonation,omitempty"`
}

func newSessionResponse(scope string, v *ports.SessionView) sessionResponse {
	return sessionResponse{
		SessionID:     scope,
		Role:          v.Role,
		Identity:      v.Identity,
		Impersonation: v.Impersonation,
	}
}

type stageAccessResponse struct {
	Stage     string `json:"stage"`
	CanAccess bool   `json:"can_access"`
	CanEdit   bool   `json:"can_edit"`
}

type accountResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
