package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yoockh/facecoach/internal/analysis"
)

// FeedbackHistory is the persisted unified report, one per completed
// session, listed newest first on the history page.
type FeedbackHistory struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"`
	UserID    string             `bson:"user_id" json:"user_id"`

	ScenarioID string   `bson:"scenario_id" json:"scenario_id"`
	Goals      []string `bson:"goals" json:"goals"`

	Unified analysis.UnifiedFeedbackData `bson:"unified" json:"unified"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
