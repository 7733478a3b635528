package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/yoockh/facecoach/internal/analysis"
	"github.com/yoockh/facecoach/internal/models"
	"github.com/yoockh/facecoach/internal/utils"
)

type SessionRepository interface {
	Create(ctx context.Context, s *models.PracticeSession) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.PracticeSession, error)
	End(ctx context.Context, sessionID string, endedAt time.Time, durationSeconds int64,
		detailed *analysis.DetailedReport, backend *analysis.BackendReport) error
}

type sessionRepo struct {
	col *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepository {
	return &sessionRepo{col: db.Collection("sessions")}
}

func (r *sessionRepo) Create(ctx context.Context, s *models.PracticeSession) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, s)
	return err
}

func (r *sessionRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.PracticeSession, error) {
	var s models.PracticeSession
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &s, err
}

func (r *sessionRepo) End(ctx context.Context, sessionID string, endedAt time.Time, durationSeconds int64,
	detailed *analysis.DetailedReport, backend *analysis.BackendReport) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{
			"status":           "ended",
			"ended_at":         endedAt.UTC(),
			"duration_seconds": durationSeconds,
			"detailed_report":  detailed,
			"backend_report":   backend,
		}},
	)
	return err
}
