package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type Profile struct {
	UserID   string `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	FullName string `gorm:"column:full_name;type:text" json:"full_name"`

	PreferredScenario string `gorm:"column:preferred_scenario;type:text" json:"preferred_scenario"`

	DefaultGoals pq.StringArray `gorm:"column:default_goals;type:text[]" json:"default_goals"`

	// JSONB, free-form display/coaching preferences
	Preferences datatypes.JSON `gorm:"column:preferences;type:jsonb" json:"preferences"`

	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }
