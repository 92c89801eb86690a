package models

import (
	"time"

	"gorm.io/datatypes"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one stored message of a conversation. Rows are immutable once
// written; deletion happens only through a user-initiated reset.
type Turn struct {
	ID         string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID     string         `gorm:"column:user_id;type:text;index:idx_conversations_user_time,priority:1" json:"user_id"`
	Username   string         `gorm:"column:username;type:text" json:"username,omitempty"`
	FirstName  string         `gorm:"column:first_name;type:text" json:"first_name,omitempty"`
	AgentType  string         `gorm:"column:agent_type;type:text" json:"agent_type"`
	Role       Role           `gorm:"column:role;type:text;check:role IN ('user','assistant')" json:"role"`
	Message    string         `gorm:"column:message;type:text" json:"message"`
	TokensUsed int            `gorm:"column:tokens_used" json:"tokens_used"`
	Metadata   datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time      `gorm:"column:created_at;type:timestamptz;index:idx_conversations_user_time,priority:2" json:"created_at"`
}

func (Turn) TableName() string { return "conversations" }
