package models

import (
	"time"

	"gorm.io/datatypes"
)

// Session holds the currently selected advisor per user. One row per user,
// created on first contact and never deleted; a reset clears conversation
// history, not the session row.
type Session struct {
	UserID       string         `gorm:"column:user_id;type:text;primaryKey" json:"user_id"`
	Username     string         `gorm:"column:username;type:text" json:"username,omitempty"`
	FirstName    string         `gorm:"column:first_name;type:text" json:"first_name,omitempty"`
	CurrentAgent string         `gorm:"column:current_agent;type:text" json:"current_agent,omitempty"` // empty until first selection
	Context      datatypes.JSON `gorm:"column:context;type:jsonb" json:"context,omitempty"`
	LastActive   time.Time      `gorm:"column:last_active;type:timestamptz" json:"last_active"`
	CreatedAt    time.Time      `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (Session) TableName() string { return "user_sessions" }

// HasPersona reports whether the user has ever picked an advisor.
func (s *Session) HasPersona() bool { return s != nil && s.CurrentAgent != "" }
