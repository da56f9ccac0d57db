package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/labdesk/identity/internal/core/domain"
)

const (
	employeesCollection       = "laboratory_employees"
	rolePermissionsCollection = "laboratory_role_permissions"
)

type EmployeeRepository struct {
	col *mongo.Collection
}

func NewEmployeeRepository(db *mongo.Database) *EmployeeRepository {
	return &EmployeeRepository{col: db.Collection(employeesCollection)}
}

type mongoEmployee struct {
	ID           string `bson:"_id"`
	LaboratoryID string `bson:"laboratory_id"`
	Email        string `bson:"email"`
	FullName     string `bson:"full_name,omitempty"`
	RoleName     string `bson:"role_name"`
	IsActive     bool   `bson:"is_active"`
}

// FindActiveByEmail matches the employee row by email. Inactive rows are
// treated as absent.
func (r *EmployeeRepository) FindActiveByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoEmployee
	err := r.col.FindOne(ctx, bson.M{"email": email, "is_active": true}).Decode(&doc)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("find employee: %w", err)
	}

	e := domain.Employee(doc)
	return &e, nil
}

func (r *EmployeeRepository) EnsureIndexes(ctx context.Context) error {
	return createIndexes(ctx, r.col,
		mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}, {Key: "is_active", Value: 1}}},
		mongo.IndexModel{Keys: bson.D{{Key: "laboratory_id", Value: 1}}},
	)
}

type RolePermissionRepository struct {
	col *mongo.Collection
}

func NewRolePermissionRepository(db *mongo.Database) *RolePermissionRepository {
	return &RolePermissionRepository{col: db.Collection(rolePermissionsCollection)}
}

type mongoWorkManagement struct {
	ViewAllWorks     bool     `bson:"view_all_works"`
	ViewAssignedOnly bool     `bson:"view_assigned_only"`
	AllowedStages    []string `bson:"allowed_stages"`
	CanEditAllStages bool     `bson:"can_edit_all_stages"`
}

type mongoRolePermission struct {
	LaboratoryID string `bson:"laboratory_id"`
	RoleName     string `bson:"role_name"`
	Permissions  struct {
		WorkManagement mongoWorkManagement `bson:"work_management"`
	} `bson:"permissions"`
}

func (r *RolePermissionRepository) Find(ctx context.Context, laboratoryID, roleName string) (*domain.RolePermission, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoRolePermission
	filter := bson.M{"laboratory_id": laboratoryID, "role_name": roleName}
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if isNotFound(err) {
			return nil, domain.ErrRolePermissionNotFound
		}
		return nil, fmt.Errorf("find role permission: %w", err)
	}

	return &domain.RolePermission{
		LaboratoryID:   doc.LaboratoryID,
		RoleName:       doc.RoleName,
		WorkManagement: domain.WorkManagement(doc.Permissions.WorkManagement),
	}, nil
}

// EnsureIndexes makes (laboratory_id, role_name) unique.
func (r *RolePermissionRepository) EnsureIndexes(ctx context.Context) error {
	return createIndexes(ctx, r.col, mongo.IndexModel{
		Keys:    bson.D{{Key: "laboratory_id", Value: 1}, {Key: "role_name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
}
