package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/espejelomar/starknet-advisor-bot/internal/models"
	"gorm.io/gorm"
)

// UserStats is the aggregate view behind the /stats command.
type UserStats struct {
	TotalMessages int64
	ByPersona     map[string]int64
	TotalTokens   int64
	FirstTurnAt   *time.Time
}

type TurnRepo interface {
	// AppendPair inserts the user turn and, when non-nil, the assistant
	// turn as one logical append.
	AppendPair(ctx context.Context, user *models.Turn, assistant *models.Turn) error
	// ListRecent returns up to limit turns for the (user, persona)
	// partition, most recent first.
	ListRecent(ctx context.Context, userID, agentType string, limit int) ([]models.Turn, error)
	// DeleteForUser removes the user's turns; an empty agentType deletes
	// across all personas.
	DeleteForUser(ctx context.Context, userID, agentType string) error
	Stats(ctx context.Context, userID string) (*UserStats, error)
}

type turnRepo struct {
	db *gorm.DB
}

func NewTurnRepo(db *gorm.DB) TurnRepo {
	return &turnRepo{db: db}
}

func (r *turnRepo) AppendPair(ctx context.Context, user *models.Turn, assistant *models.Turn) error {
	if assistant == nil {
		return r.db.WithContext(ctx).Create(user).Error
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(assistant).Error
	})
}

func (r *turnRepo) ListRecent(ctx context.Context, userID, agentType string, limit int) ([]models.Turn, error) {
	if limit <= 0 {
		limit = 10
	}

	var rows []models.Turn
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND agent_type = ?", userID, agentType).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *turnRepo) DeleteForUser(ctx context.Context, userID, agentType string) error {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if agentType != "" {
		q = q.Where("agent_type = ?", agentType)
	}
	return q.Delete(&models.Turn{}).Error
}

func (r *turnRepo) Stats(ctx context.Context, userID string) (*UserStats, error) {
	out := &UserStats{ByPersona: make(map[string]int64)}

	err := r.db.WithContext(ctx).Model(&models.Turn{}).
		Where("user_id = ? AND role = ?", userID, models.RoleUser).
		Count(&out.TotalMessages).Error
	if err != nil {
		return nil, err
	}

	type personaCount struct {
		AgentType string
		N         int64
	}
	var counts []personaCount
	err = r.db.WithContext(ctx).Model(&models.Turn{}).
		Select("agent_type, COUNT(*) AS n").
		Where("user_id = ? AND role = ?", userID, models.RoleUser).
		Group("agent_type").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	for _, c := range counts {
		out.ByPersona[c.AgentType] = c.N
	}

	var tokens struct{ Total int64 }
	err = r.db.WithContext(ctx).Model(&models.Turn{}).
		Select("COALESCE(SUM(tokens_used), 0) AS total").
		Where("user_id = ?", userID).
		Scan(&tokens).Error
	if err != nil {
		return nil, err
	}
	out.TotalTokens = tokens.Total

	var first models.Turn
	err = r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Limit(1).
		Take(&first).Error
	if err == nil {
		out.FirstTurnAt = &first.CreatedAt
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return out, nil
}
