package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yoockh/facecoach/internal/analysis"
)

type PracticeSession struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"` // uuid v4
	UserID    string             `bson:"user_id" json:"user_id"`

	ScenarioID string   `bson:"scenario_id" json:"scenario_id"` // interview|presentation|comedy|custom
	Goals      []string `bson:"goals" json:"goals"`
	Status     string   `bson:"status" json:"status"` // active|ended

	DetailedReport *analysis.DetailedReport `bson:"detailed_report,omitempty" json:"detailed_report,omitempty"`
	BackendReport  *analysis.BackendReport  `bson:"backend_report,omitempty" json:"backend_report,omitempty"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	EndedAt   *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`

	DurationSeconds int64 `bson:"duration_seconds" json:"duration_seconds"`
}
