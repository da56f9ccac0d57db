package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/labdesk/identity/internal/core/domain"
)

const impersonationCollection = "impersonation_sessions"

// ImpersonationRepository stores the issuer-side impersonation records.
type ImpersonationRepository struct {
	col *mongo.Collection
}

func NewImpersonationRepository(db *mongo.Database) *ImpersonationRepository {
	return &ImpersonationRepository{col: db.Collection(impersonationCollection)}
}

// mongoImpersonation is the stored record. Open is set until the record is
// ended; the unique partial index on (admin_user_id) over open records
// keeps at most one per admin.
type mongoImpersonation struct {
	SessionID    string     `bson:"_id"`
	AdminUserID  string     `bson:"admin_user_id"`
	TargetUserID string     `bson:"target_user_id"`
	CreatedAt    time.Time  `bson:"created_at"`
	ExpiresAt    time.Time  `bson:"expires_at"`
	EndedAt      *time.Time `bson:"ended_at,omitempty"`
	Open         bool       `bson:"open,omitempty"`
}

func toMongoImpersonation(r *domain.ImpersonationRecord) mongoImpersonation {
	return mongoImpersonation{
		SessionID:    r.SessionID,
		AdminUserID:  r.AdminUserID,
		TargetUserID: r.TargetUserID,
		CreatedAt:    r.CreatedAt,
		ExpiresAt:    r.ExpiresAt,
		EndedAt:      r.EndedAt,
		Open:         r.EndedAt == nil,
	}
}

func (d mongoImpersonation) toDomain() *domain.ImpersonationRecord {
	return &domain.ImpersonationRecord{
		SessionID:    d.SessionID,
		AdminUserID:  d.AdminUserID,
		TargetUserID: d.TargetUserID,
		CreatedAt:    d.CreatedAt,
		ExpiresAt:    d.ExpiresAt,
		EndedAt:      d.EndedAt,
	}
}

// Create inserts record. A duplicate key on the open-record index means the
// admin already holds an open session.
func (r *ImpersonationRepository) Create(ctx context.Context, record *domain.ImpersonationRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, toMongoImpersonation(record)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert impersonation session: %w", domain.ErrImpersonationConflict)
		}
		return fmt.Errorf("insert impersonation session: %w", err)
	}
	return nil
}

// FindOpenByAdmin returns the admin's newest record that is neither ended
// nor expired at now.
func (r *ImpersonationRepository) FindOpenByAdmin(ctx context.Context, adminUserID string, now time.Time) (*domain.ImpersonationRecord, error) {
	filter := bson.M{
		"admin_user_id": adminUserID,
		"ended_at":      bson.M{"$exists": false},
		"expires_at":    bson.M{"$gt": now.UTC()},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.findOne(ctx, filter, opts)
}

func (r *ImpersonationRepository) FindByID(ctx context.Context, sessionID string) (*domain.ImpersonationRecord, error) {
	return r.findOne(ctx, bson.M{"_id": sessionID})
}

func (r *ImpersonationRepository) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*domain.ImpersonationRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoImpersonation
	if err := r.col.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		if isNotFound(err) {
			return nil, domain.ErrImpersonationNotFound
		}
		return nil, fmt.Errorf("find impersonation session: %w", err)
	}

	return doc.toDomain(), nil
}

func (r *ImpersonationRepository) MarkEnded(ctx context.Context, sessionID string, endedAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": sessionID},
		endUpdate(endedAt),
	)
	if err != nil {
		return fmt.Errorf("end impersonation session: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrImpersonationNotFound
	}
	return nil
}

// CloseExpired ends the admin's open records whose expiry is not after now.
func (r *ImpersonationRepository) CloseExpired(ctx context.Context, adminUserID string, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"admin_user_id": adminUserID,
		"open":          true,
		"expires_at":    bson.M{"$lte": now.UTC()},
	}
	if _, err := r.col.UpdateMany(ctx, filter, endUpdate(now)); err != nil {
		return fmt.Errorf("close expired impersonation sessions: %w", err)
	}
	return nil
}

func endUpdate(at time.Time) bson.M {
	return bson.M{
		"$set":   bson.M{"ended_at": at.UTC()},
		"$unset": bson.M{"open": ""},
	}
}

// EnsureIndexes supports the open-session lookup, allows one open record
// per admin and lets MongoDB drop records a day after they expire.
func (r *ImpersonationRepository) EnsureIndexes(ctx context.Context) error {
	return createIndexes(ctx, r.col,
		mongo.IndexModel{Keys: bson.D{{Key: "admin_user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		mongo.IndexModel{
			Keys:    bson.D{{Key: "admin_user_id", Value: 1}},
			Options: options.Index().SetName("admin_open_unique").SetUnique(true).SetPartialFilterExpression(bson.M{"open": true}),
		},
		mongo.IndexModel{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32((24 * time.Hour).Seconds())),
		},
	)
}
