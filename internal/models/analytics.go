package models

import (
	"time"

	"gorm.io/datatypes"
)

// Action tags tracked in bot_analytics. Append-only event log; no update
// or delete path.
type Action string

const (
	ActionBotStarted    Action = "bot_started"
	ActionAgentSelected Action = "agent_selected"
	ActionAgentSwitched Action = "agent_switched"
	ActionMessageDone   Action = "message_processed"
	ActionMessageError  Action = "message_error"
	ActionRateLimited   Action = "rate_limited"
	ActionReset         Action = "conversation_reset"
	ActionStatsViewed   Action = "stats_viewed"
	ActionExported      Action = "conversation_exported"
)

type AnalyticsEvent struct {
	ID        string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    string         `gorm:"column:user_id;type:text;index" json:"user_id"`
	Action    Action         `gorm:"column:action;type:text" json:"action"`
	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time      `gorm:"column:created_at;type:timestamptz;index" json:"created_at"`
}

func (AnalyticsEvent) TableName() string { return "bot_analytics" }
