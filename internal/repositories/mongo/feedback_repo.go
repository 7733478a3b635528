package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yoockh/facecoach/internal/models"
)

type FeedbackRepository interface {
	Save(ctx context.Context, f *models.FeedbackHistory) error
	ListByUser(ctx context.Context, userID string, limit int64) ([]models.FeedbackHistory, error)
}

type feedbackRepo struct {
	col *mongo.Collection
}

func NewFeedbackRepo(db *mongo.Database) FeedbackRepository {
	return &feedbackRepo{col: db.Collection("feedback_history")}
}

func (r *feedbackRepo) Save(ctx context.Context, f *models.FeedbackHistory) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, f)
	return err
}

func (r *feedbackRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]models.FeedbackHistory, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	cur, err := r.col.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.FeedbackHistory
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
