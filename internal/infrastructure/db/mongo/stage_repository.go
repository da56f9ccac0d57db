package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/labdesk/identity/internal/core/domain"
)

const stagesCollection = "production_stages"

type StageRepository struct {
	col *mongo.Collection
}

func NewStageRepository(db *mongo.Database) *StageRepository {
	return &StageRepository{col: db.Collection(stagesCollection)}
}

type mongoStage struct {
	ID           string `bson:"_id"`
	LaboratoryID string `bson:"laboratory_id"`
	Name         string `bson:"name"`
	Color        string `bson:"color,omitempty"`
}

// FindByIDs fetches every stage row in ids with a single query.
func (r *StageRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.ProductionStage, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find stages: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoStage
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode stages: %w", err)
	}

	stages := make([]domain.ProductionStage, 0, len(docs))
	for _, d := range docs {
		stages = append(stages, domain.ProductionStage(d))
	}
	return stages, nil
}
