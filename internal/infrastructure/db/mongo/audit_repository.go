package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/labdesk/identity/internal/core/domain"
	"github.com/labdesk/identity/internal/core/ports"
)

const auditCollection = "impersonation_audit"

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	db *mongo.Database
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) ports.AuditRepository {
	return &AuditRepository{db: db}
}

// Insert persists an impersonation lifecycle event.
func (r *AuditRepository) Insert(ctx context.Context, event *domain.AuditEvent) error {
	doc := bson.M{
		"action":         string(event.Action),
		"session_id":     event.SessionID,
		"admin_user_id":  event.AdminUserID,
		"target_user_id": event.TargetUserID,
		"occurred_at":    event.OccurredAt.UTC(),
		"recorded_at":    time.Now().UTC(),
	}
	if event.Scope != "" {
		doc["scope"] = event.Scope
	}

	_, err := r.db.Collection(auditCollection).InsertOne(ctx, doc)
	return err
}
