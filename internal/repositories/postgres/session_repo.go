package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/espejelomar/starknet-advisor-bot/internal/models"
	"github.com/espejelomar/starknet-advisor-bot/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepo interface {
	// Upsert creates the row on first contact or refreshes display-name
	// hints and last_active on every later one. It never touches
	// current_agent.
	Upsert(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, userID string) (*models.Session, error)
	SetPersona(ctx context.Context, userID, agentType string, at time.Time) error
}

type sessionRepo struct {
	db *gorm.DB
}

func NewSessionRepo(db *gorm.DB) SessionRepo {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Upsert(ctx context.Context, s *models.Session) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "first_name", "last_active"}),
	}).Create(s).Error
}

func (r *sessionRepo) Get(ctx context.Context, userID string) (*models.Session, error) {
	var s models.Session
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &s, err
}

func (r *sessionRepo) SetPersona(ctx context.Context, userID, agentType string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Session{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"current_agent": agentType,
			"last_active":   at,
		}).Error
}
