package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Account is the root authenticated identity issued by the auth provider.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports whether the account may start impersonation sessions.
func (a *Account) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// LaboratoryProfile is a laboratory's business record. Its ID equals the
// owning account's ID.
type LaboratoryProfile struct {
	ID          string    `json:"id"`
	CompanyName string    `json:"company_name"`
	ContactName string    `json:"contact_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Address     string    `json:"address,omitempty"`
	City        string    `json:"city,omitempty"`
	ZipCode     string    `json:"zip_code,omitempty"`
	Country     string    `json:"country,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProfilePatch carries the editable subset of a LaboratoryProfile. Nil
// fields are left untouched.
type ProfilePatch struct {
	CompanyName *string
	ContactName *string
	Email       *string
	Phone       *string
	Address     *string
	City        *string
	ZipCode     *string
	Country     *string
}

// Apply copies the non-nil patch fields onto p.
func (pp ProfilePatch) Apply(p *LaboratoryProfile) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.CompanyName, pp.CompanyName)
	set(&p.ContactName, pp.ContactName)
	set(&p.Email, pp.Email)
	set(&p.Phone, pp.Phone)
	set(&p.Address, pp.Address)
	set(&p.City, pp.City)
	set(&p.ZipCode, pp.ZipCode)
	set(&p.Country, pp.Country)
}

// SubscriptionStatus is the billing state of an account.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionTrial     SubscriptionStatus = "trial"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// SubscriptionProfile holds subscription state for an account.
type SubscriptionProfile struct {
	ID          string             `json:"id"`
	Status      SubscriptionStatus `json:"status"`
	PlanID      string             `json:"plan_id,omitempty"`
	IsDemo      bool               `json:"is_demo"`
	TrialEndsAt *time.Time         `json:"trial_ends_at,omitempty"`
}

// Employee is a staff record of a laboratory, matched by email.
type Employee struct {
	ID           string `json:"id"`
	LaboratoryID string `json:"laboratory_id"`
	Email        string `json:"email"`
	FullName     string `json:"full_name,omitempty"`
	RoleName     string `json:"role_name"`
	IsActive     bool   `json:"is_active"`
}

// WorkManagement is the stage-related part of a role's permissions.
type WorkManagement struct {
	ViewAllWorks     bool     `json:"view_all_works"`
	ViewAssignedOnly bool     `json:"view_assigned_only"`
	AllowedStages    []string `json:"allowed_stages"`
	CanEditAllStages bool     `json:"can_edit_all_stages"`
}

// RolePermission is the capability bundle of a (laboratory, role) pair.
type RolePermission struct {
	LaboratoryID   string         `json:"laboratory_id"`
	RoleName       string         `json:"role_name"`
	WorkManagement WorkManagement `json:"work_management"`
}

// ProductionStage is a laboratory-defined pipeline step.
type ProductionStage struct {
	ID           string `json:"id"`
	LaboratoryID string `json:"laboratory_id"`
	Name         string `json:"name"`
	Color        string `json:"color,omitempty"`
}
