package ports

import (
	"context"

	"github.com/labdesk/identity/internal/core/domain"
)

// AccountRepository persists authenticated accounts.
type AccountRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
}

// ProfileRepository reads and writes the profiles table.
// FindByID returns domain.ErrProfileNotFound when no row exists.
type ProfileRepository interface {
	FindByID(ctx context.Context, id string) (*domain.LaboratoryProfile, error)
	Upsert(ctx context.Context, profile *domain.LaboratoryProfile) error
}

// SubscriptionRepository reads the user_profiles table.
// FindByID returns domain.ErrSubscriptionNotFound when no row exists.
type SubscriptionRepository interface {
	FindByID(ctx context.Context, accountID string) (*domain.SubscriptionProfile, error)
}

// EmployeeRepository reads the laboratory_employees table.
type EmployeeRepository interface {
	// FindActiveByEmail returns domain.ErrEmployeeNotFound unless an active
	// employee is registered with the email.
	FindActiveByEmail(ctx context.Context, email string) (*domain.Employee, error)
}

// RolePermissionRepository reads the laboratory_role_permissions table.
type RolePermissionRepository interface {
	Find(ctx context.Context, laboratoryID, roleName string) (*domain.RolePermission, error)
}

// StageRepository reads the production_stages table.
type StageRepository interface {
	// FindByIDs returns the rows matching ids. Missing ids are not an error.
	FindByIDs(ctx context.Context, ids []string) ([]domain.ProductionStage, error)
}

// AuditRepository persists the impersonation audit trail.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
}
