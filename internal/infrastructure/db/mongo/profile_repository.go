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

const (
	profilesCollection      = "profiles"
	subscriptionsCollection = "user_profiles"
)

// ProfileRepository stores laboratory profiles keyed by the owning account id.
type ProfileRepository struct {
	col *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{col: db.Collection(profilesCollection)}
}

type mongoProfile struct {
	ID          string    `bson:"_id"`
	CompanyName string    `bson:"company_name"`
	ContactName string    `bson:"contact_name,omitempty"`
	Email       string    `bson:"email,omitempty"`
	Phone       string    `bson:"phone,omitempty"`
	Address     string    `bson:"address,omitempty"`
	City        string    `bson:"city,omitempty"`
	ZipCode     string    `bson:"zip_code,omitempty"`
	Country     string    `bson:"country,omitempty"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*domain.LaboratoryProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoProfile
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if isNotFound(err) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}

	p := domain.LaboratoryProfile(doc)
	return &p, nil
}

// Upsert replaces the profile document, creating it when absent.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *domain.LaboratoryProfile) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoProfile(*profile)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// SubscriptionRepository reads subscription state keyed by account id.
type SubscriptionRepository struct {
	col *mongo.Collection
}

func NewSubscriptionRepository(db *mongo.Database) *SubscriptionRepository {
	return &SubscriptionRepository{col: db.Collection(subscriptionsCollection)}
}

type mongoSubscription struct {
	ID          string     `bson:"_id"`
	Status      string     `bson:"subscription_status"`
	PlanID      string     `bson:"plan_id,omitempty"`
	IsDemo      bool       `bson:"is_demo"`
	TrialEndsAt *time.Time `bson:"trial_ends_at,omitempty"`
}

func (r *SubscriptionRepository) FindByID(ctx context.Context, accountID string) (*domain.SubscriptionProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoSubscription
	if err := r.col.FindOne(ctx, bson.M{"_id": accountID}).Decode(&doc); err != nil {
		if isNotFound(err) {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("find subscription: %w", err)
	}

	return &domain.SubscriptionProfile{
		ID:          doc.ID,
		Status:      domain.SubscriptionStatus(doc.Status),
		PlanID:      doc.PlanID,
		IsDemo:      doc.IsDemo,
		TrialEndsAt: doc.TrialEndsAt,
	}, nil
}
